package resources

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// EnvResourcesDir overrides every other source of the resources directory.
const EnvResourcesDir = "DEEPSEARCH_GLM_RESOURCES_DIR"

// ResourcePathProvider resolves the local resources directory.
// Implementations return ErrNoResourcesDir when they have no opinion, so
// that a ChainLocator can move on to the next provider.
type ResourcePathProvider interface {
	ResourcesDir(ctx context.Context) (string, error)
}

// EnvLocator reads DEEPSEARCH_GLM_RESOURCES_DIR.
// The value is returned verbatim; its existence is not checked.
type EnvLocator struct{}

func (EnvLocator) ResourcesDir(ctx context.Context) (string, error) {
	if dir := os.Getenv(EnvResourcesDir); dir != "" {
		return dir, nil
	}
	return "", fmt.Errorf("%w: %s is not set", ErrNoResourcesDir, EnvResourcesDir)
}

// StaticLocator always returns the same directory.
type StaticLocator string

func (s StaticLocator) ResourcesDir(ctx context.Context) (string, error) {
	if s == "" {
		return "", ErrNoResourcesDir
	}
	return string(s), nil
}

// DefaultDirLocator returns the platform data directory for AppName.
type DefaultDirLocator struct {
	AppName string
}

func (l DefaultDirLocator) ResourcesDir(ctx context.Context) (string, error) {
	if l.AppName == "" {
		return "", fmt.Errorf("%w: no app name for default directory", ErrNoResourcesDir)
	}
	dir, err := defaultResourcesDir(l.AppName)
	if err != nil {
		return "", fmt.Errorf("failed to get default resources dir: %w", err)
	}
	return dir, nil
}

// EngineLocator asks the analysis engine for its configured resource path.
// The engine is constructed on first use only, and a successful answer is
// cached for the lifetime of the locator.
type EngineLocator struct {
	newEngine func() (AnalysisEngine, error)

	mu       sync.Mutex
	resolved bool
	dir      string
}

// NewEngineLocator returns a locator backed by the engine newEngine builds.
func NewEngineLocator(newEngine func() (AnalysisEngine, error)) *EngineLocator {
	return &EngineLocator{newEngine: newEngine}
}

func (l *EngineLocator) ResourcesDir(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.resolved {
		return l.dir, nil
	}
	if l.newEngine == nil {
		return "", fmt.Errorf("%w: no analysis engine", ErrNoResourcesDir)
	}

	engine, err := l.newEngine()
	if err != nil {
		return "", fmt.Errorf("initializing analysis engine: %w", err)
	}
	dir, err := engine.ResourcesPath()
	if err != nil {
		return "", fmt.Errorf("querying analysis engine resource path: %w", err)
	}

	l.dir = dir
	l.resolved = true
	return dir, nil
}

// ChainLocator tries each provider in order. A provider that returns
// ErrNoResourcesDir is skipped; any other error stops the chain.
type ChainLocator []ResourcePathProvider

func (c ChainLocator) ResourcesDir(ctx context.Context) (string, error) {
	for _, p := range c {
		dir, err := p.ResourcesDir(ctx)
		if err == nil {
			return dir, nil
		}
		if !errors.Is(err, ErrNoResourcesDir) {
			return "", err
		}
	}
	return "", ErrNoResourcesDir
}

// NewDefaultLocator honors DEEPSEARCH_GLM_RESOURCES_DIR and otherwise asks
// the analysis engine built by newEngine.
func NewDefaultLocator(newEngine func() (AnalysisEngine, error)) ChainLocator {
	return ChainLocator{EnvLocator{}, NewEngineLocator(newEngine)}
}
