package resources

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// partSuffix marks a download in progress. The file is renamed over the
// target once the body has been fully written.
const partSuffix = ".part"

// fetchResult describes a completed download.
type fetchResult struct {
	// bytes is the number of bytes written to the target.
	bytes int64

	// sha256 is the hex digest of the written content.
	sha256 string
}

// fetcher streams artifacts from the object store to local files.
type fetcher struct {
	// httpClient is used for HTTP requests.
	httpClient HTTPClient

	// timeout bounds one fetch, body included. Zero means no limit.
	timeout time.Duration
}

// newFetcher creates a new fetcher.
func newFetcher(client HTTPClient, timeout time.Duration) *fetcher {
	return &fetcher{
		httpClient: client,
		timeout:    timeout,
	}
}

// fetch downloads sourceURL into targetPath.
// The body is written to targetPath+".part" in ChunkSize reads and renamed
// into place on success; on failure the partial file is removed and any
// existing target is left untouched. The parent directory must exist.
// Errors are *TransferError.
func (f *fetcher) fetch(ctx context.Context, name, sourceURL, targetPath string, onProgress func(written, total int64)) (fetchResult, error) {
	fail := func(status int, err error) (fetchResult, error) {
		return fetchResult{}, &TransferError{Name: name, URL: sourceURL, StatusCode: status, Err: err}
	}

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fail(0, fmt.Errorf("creating request: %w", err))
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fail(0, fmt.Errorf("%w: %w", ErrNetworkError, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fail(resp.StatusCode, fmt.Errorf("%w: unexpected status %s", ErrNetworkError, resp.Status))
	}

	var body io.Reader = resp.Body
	if onProgress != nil {
		total := resp.ContentLength
		var written int64
		body = &progressReader{reader: resp.Body, onProgress: func(delta int64) {
			written += delta
			onProgress(written, total)
		}}
	}

	res, err := writeStreamed(targetPath, body)
	if err != nil {
		return fail(0, err)
	}
	return res, nil
}

// writeStreamed copies r to path through a ".part" file and renames it into
// place. Zero-length reads are skipped; no byte is dropped or repeated.
func writeStreamed(path string, r io.Reader) (fetchResult, error) {
	tmp := path + partSuffix
	file, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fetchResult{}, fmt.Errorf("%w: failed to create temp file: %w", ErrStorageError, err)
	}

	hash := sha256.New()
	buf := make([]byte, ChunkSize)
	var written int64

	copyErr := func() error {
		for {
			n, err := r.Read(buf)
			if n > 0 {
				if _, werr := file.Write(buf[:n]); werr != nil {
					return fmt.Errorf("%w: failed to write temp file: %w", ErrStorageError, werr)
				}
				hash.Write(buf[:n])
				written += int64(n)
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: reading body: %w", ErrNetworkError, err)
			}
		}
	}()

	closeErr := file.Close()
	if copyErr == nil && closeErr != nil {
		copyErr = fmt.Errorf("%w: failed to close temp file: %w", ErrStorageError, closeErr)
	}
	if copyErr != nil {
		os.Remove(tmp)
		return fetchResult{}, copyErr
	}

	// Atomic rename
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp) // cleanup on failure
		return fetchResult{}, fmt.Errorf("%w: failed to rename temp file: %w", ErrStorageError, err)
	}

	return fetchResult{bytes: written, sha256: hex.EncodeToString(hash.Sum(nil))}, nil
}

// progressReader wraps an io.Reader and reports progress as bytes are read.
type progressReader struct {
	reader     io.Reader
	onProgress func(delta int64)
}

func (pr *progressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 && pr.onProgress != nil {
		pr.onProgress(int64(n))
	}
	return
}
