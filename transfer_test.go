package resources

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// objectStore is an httptest server serving fixed bodies by path and
// counting requests per path.
type objectStore struct {
	*httptest.Server

	mu     sync.Mutex
	files  map[string][]byte
	status map[string]int
	hits   map[string]int
}

func newObjectStore(t *testing.T) *objectStore {
	t.Helper()
	s := &objectStore{
		files:  make(map[string][]byte),
		status: make(map[string]int),
		hits:   make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		body, ok := s.files[r.URL.Path]
		status := s.status[r.URL.Path]
		s.mu.Unlock()

		if status != 0 {
			http.Error(w, http.StatusText(status), status)
			return
		}
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Write(body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *objectStore) put(path string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = body
}

func (s *objectStore) fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[path] = status
}

func (s *objectStore) requests(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *objectStore) totalRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.hits {
		n += c
	}
	return n
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// stutterReader returns data in small irregular pieces with zero-length
// reads in between.
type stutterReader struct {
	data []byte
	step int
}

func (r *stutterReader) Read(p []byte) (int, error) {
	r.step++
	if r.step%3 == 0 {
		return 0, nil
	}
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.step%7 + 1
	if n > len(r.data) {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestWriteStreamedByteExact(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789abcdef"), 3*ChunkSize/16+5)
	target := filepath.Join(t.TempDir(), "out.bin")

	res, err := writeStreamed(target, &stutterReader{data: data})
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	assert.Equal(t, int64(len(data)), res.bytes)
	assert.Equal(t, sha256Hex(data), res.sha256)

	_, err = os.Stat(target + partSuffix)
	assert.True(t, os.IsNotExist(err), "temp file should be renamed away")
}

func TestWriteStreamedEmptyBody(t *testing.T) {
	target := filepath.Join(t.TempDir(), "empty.bin")

	res, err := writeStreamed(target, bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.bytes)

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.Size())
}

type failingReader struct{ n int }

func (r *failingReader) Read(p []byte) (int, error) {
	if r.n > 0 {
		r.n--
		return copy(p, "partial"), nil
	}
	return 0, errors.New("connection reset")
}

func TestWriteStreamedReadFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "model.bin")
	require.NoError(t, os.WriteFile(target, []byte("previous"), 0644))

	_, err := writeStreamed(target, &failingReader{n: 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkError)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got), "existing target must be untouched")

	_, err = os.Stat(target + partSuffix)
	assert.True(t, os.IsNotExist(err), "partial file should be removed")
}

func TestWriteStreamedMissingParent(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "model.bin")

	_, err := writeStreamed(target, bytes.NewReader([]byte("x")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStorageError)

	_, statErr := os.Stat(filepath.Dir(target))
	assert.True(t, os.IsNotExist(statErr), "parent directory must not be created")
}

func TestFetch(t *testing.T) {
	store := newObjectStore(t)
	body := bytes.Repeat([]byte{0xAB}, 2*ChunkSize+17)
	store.put("/models/crf.bin", body)

	f := newFetcher(store.Client(), time.Minute)
	target := filepath.Join(t.TempDir(), "crf.bin")

	var lastWritten, calls int64
	res, err := f.fetch(context.Background(), "crf", store.URL+"/models/crf.bin", target, func(written, total int64) {
		calls++
		lastWritten = written
	})
	require.NoError(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, int64(len(body)), res.bytes)
	assert.Equal(t, sha256Hex(body), res.sha256)
	assert.Equal(t, int64(len(body)), lastWritten)
	assert.Positive(t, calls)
}

func TestFetchErrorStatus(t *testing.T) {
	store := newObjectStore(t)
	store.fail("/broken.bin", http.StatusInternalServerError)

	dir := t.TempDir()
	target := filepath.Join(dir, "broken.bin")

	f := newFetcher(store.Client(), time.Minute)
	_, err := f.fetch(context.Background(), "broken", store.URL+"/broken.bin", target, nil)
	require.Error(t, err)

	var te *TransferError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusInternalServerError, te.StatusCode)
	assert.Equal(t, "broken", te.Name)
	assert.ErrorIs(t, err, ErrTransfer)
	assert.ErrorIs(t, err, ErrNetworkError)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing should be written on an error status")
}

func TestFetchNotFound(t *testing.T) {
	store := newObjectStore(t)

	f := newFetcher(store.Client(), time.Minute)
	_, err := f.fetch(context.Background(), "gone", store.URL+"/gone.bin", filepath.Join(t.TempDir(), "gone.bin"), nil)

	var te *TransferError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, http.StatusNotFound, te.StatusCode)
}

func TestFetchTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	target := filepath.Join(t.TempDir(), "slow.bin")
	f := newFetcher(server.Client(), 50*time.Millisecond)

	_, err := f.fetch(context.Background(), "slow", server.URL+"/slow.bin", target, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransfer)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(target + partSuffix)
	assert.True(t, os.IsNotExist(statErr))
}

func TestFetchUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/x.bin"
	server.Close()

	f := newFetcher(http.DefaultClient, time.Minute)
	_, err := f.fetch(context.Background(), "x", url, filepath.Join(t.TempDir(), "x.bin"), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNetworkError)

	var te *TransferError
	require.ErrorAs(t, err, &te)
	assert.Zero(t, te.StatusCode)
}
