package resources

import (
	"net/http"
	"time"
)

// Transfer constants.
const (
	// ChunkSize is the buffer size used to stream response bodies to disk.
	ChunkSize = 8 * 1024

	// DefaultConcurrency is the default number of concurrent artifact fetches.
	// One keeps the sync fully sequential.
	DefaultConcurrency = 1

	// MaxConcurrency is the maximum allowed concurrent artifact fetches.
	MaxConcurrency = 16

	// DefaultRequestTimeout bounds a single artifact fetch, body included.
	DefaultRequestTimeout = 5 * time.Minute
)

// SyncOption configures a sync operation.
type SyncOption func(*syncConfig)

// syncConfig holds configuration for a sync operation.
type syncConfig struct {
	// force causes re-download even if the local file exists.
	force bool

	// verbose enables progress narration through the logger.
	verbose bool

	// concurrency is the number of concurrent artifact fetches.
	concurrency int

	// progressFn is called with progress updates during the sync.
	progressFn func(SyncProgress)
}

// newSyncConfig returns a syncConfig with default values.
func newSyncConfig() *syncConfig {
	return &syncConfig{
		concurrency: DefaultConcurrency,
	}
}

// WithForce re-downloads artifacts even when they already exist locally.
func WithForce() SyncOption {
	return func(c *syncConfig) {
		c.force = true
	}
}

// WithVerbose narrates each artifact's progress through the logger.
// It never changes outcomes.
func WithVerbose() SyncOption {
	return func(c *syncConfig) {
		c.verbose = true
	}
}

// WithConcurrency sets the number of concurrent artifact fetches.
// Values are clamped to the range [1, MaxConcurrency].
// Default is DefaultConcurrency (1).
func WithConcurrency(n int) SyncOption {
	return func(c *syncConfig) {
		if n < 1 {
			n = 1
		}
		if n > MaxConcurrency {
			n = MaxConcurrency
		}
		c.concurrency = n
	}
}

// WithProgress sets a callback for progress updates during a sync.
// With concurrency above one the callback is invoked from several
// goroutines and must be thread-safe.
func WithProgress(fn func(SyncProgress)) SyncOption {
	return func(c *syncConfig) {
		c.progressFn = fn
	}
}

// SyncerOption configures a Syncer.
type SyncerOption func(*syncerConfig)

// syncerConfig holds configuration for Syncer construction.
type syncerConfig struct {
	// httpClient is used for all artifact requests.
	httpClient HTTPClient

	// logger receives diagnostic log messages.
	logger Logger

	// requestTimeout bounds each artifact fetch. Zero disables it.
	requestTimeout time.Duration

	// locator resolves the resources directory when set.
	locator ResourcePathProvider
}

// newSyncerConfig returns a syncerConfig with default values.
func newSyncerConfig() *syncerConfig {
	return &syncerConfig{
		httpClient:     http.DefaultClient,
		requestTimeout: DefaultRequestTimeout,
	}
}

// WithHTTPClient sets a custom HTTP client for artifact requests.
// Useful for testing with mock servers or customizing transports.
// If not set, http.DefaultClient is used.
func WithHTTPClient(client HTTPClient) SyncerOption {
	return func(c *syncerConfig) {
		c.httpClient = client
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) SyncerOption {
	return func(c *syncerConfig) {
		c.logger = logger
	}
}

// WithRequestTimeout bounds each artifact fetch, including the body.
// Zero or negative disables the timeout.
func WithRequestTimeout(d time.Duration) SyncerOption {
	return func(c *syncerConfig) {
		if d < 0 {
			d = 0
		}
		c.requestTimeout = d
	}
}

// WithResourcePathProvider sets where the resources directory comes from
// when neither DEEPSEARCH_GLM_RESOURCES_DIR nor Config.ResourcesDir is set.
// Use NewEngineLocator to defer to the analysis engine.
func WithResourcePathProvider(p ResourcePathProvider) SyncerOption {
	return func(c *syncerConfig) {
		c.locator = p
	}
}

// HTTPClient is the interface for HTTP operations.
// *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// Logger is the interface for diagnostic logging.
// Compatible with slog, zap, logrus, and other structured loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}
