package resources

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAnalysisEngine reports a fixed resource path.
type fakeAnalysisEngine struct {
	path string
	err  error
}

func (e fakeAnalysisEngine) ResourcesPath() (string, error) { return e.path, e.err }

func TestEnvLocator(t *testing.T) {
	ctx := context.Background()

	t.Setenv(EnvResourcesDir, "")
	_, err := EnvLocator{}.ResourcesDir(ctx)
	assert.ErrorIs(t, err, ErrNoResourcesDir)

	// Returned verbatim, even when it does not exist.
	t.Setenv(EnvResourcesDir, "/does/not/exist")
	dir, err := EnvLocator{}.ResourcesDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/does/not/exist", dir)
}

func TestEngineLocatorConstructsOnce(t *testing.T) {
	calls := 0
	l := NewEngineLocator(func() (AnalysisEngine, error) {
		calls++
		return fakeAnalysisEngine{path: "/opt/glm/resources"}, nil
	})

	for i := 0; i < 3; i++ {
		dir, err := l.ResourcesDir(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/opt/glm/resources", dir)
	}
	assert.Equal(t, 1, calls, "engine should be constructed once")
}

func TestEngineLocatorErrors(t *testing.T) {
	t.Run("construction failure propagates and is retried", func(t *testing.T) {
		calls := 0
		boom := errors.New("engine init failed")
		l := NewEngineLocator(func() (AnalysisEngine, error) {
			calls++
			return nil, boom
		})

		_, err := l.ResourcesDir(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrNoResourcesDir)

		_, _ = l.ResourcesDir(context.Background())
		assert.Equal(t, 2, calls)
	})

	t.Run("path query failure", func(t *testing.T) {
		boom := errors.New("no resources configured")
		l := NewEngineLocator(func() (AnalysisEngine, error) {
			return fakeAnalysisEngine{err: boom}, nil
		})
		_, err := l.ResourcesDir(context.Background())
		assert.ErrorIs(t, err, boom)
	})

	t.Run("nil constructor", func(t *testing.T) {
		_, err := NewEngineLocator(nil).ResourcesDir(context.Background())
		assert.ErrorIs(t, err, ErrNoResourcesDir)
	})
}

func TestDefaultLocatorPrecedence(t *testing.T) {
	constructed := false
	newEngine := func() (AnalysisEngine, error) {
		constructed = true
		return fakeAnalysisEngine{path: "/from/engine"}, nil
	}

	t.Run("env wins and engine is never built", func(t *testing.T) {
		t.Setenv(EnvResourcesDir, "/from/env")
		dir, err := NewDefaultLocator(newEngine).ResourcesDir(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/from/env", dir)
		assert.False(t, constructed)
	})

	t.Run("engine when env unset", func(t *testing.T) {
		t.Setenv(EnvResourcesDir, "")
		dir, err := NewDefaultLocator(newEngine).ResourcesDir(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "/from/engine", dir)
		assert.True(t, constructed)
	})
}

func TestChainLocator(t *testing.T) {
	ctx := context.Background()

	_, err := ChainLocator{}.ResourcesDir(ctx)
	assert.ErrorIs(t, err, ErrNoResourcesDir)

	dir, err := ChainLocator{StaticLocator(""), StaticLocator("/second")}.ResourcesDir(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/second", dir)

	boom := errors.New("boom")
	failing := NewEngineLocator(func() (AnalysisEngine, error) { return nil, boom })
	_, err = ChainLocator{failing, StaticLocator("/never")}.ResourcesDir(ctx)
	assert.ErrorIs(t, err, boom)
}

func TestDefaultDirLocator(t *testing.T) {
	_, err := DefaultDirLocator{}.ResourcesDir(context.Background())
	assert.ErrorIs(t, err, ErrNoResourcesDir)

	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dir, err := DefaultDirLocator{AppName: "glm"}.ResourcesDir(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dir, "glm")
	assert.Contains(t, dir, "resources")
}
