package resources

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"
)

// plannedArtifact is a manifest entry with its URL and path resolved.
type plannedArtifact struct {
	NamedArtifact

	// kind is the data kind for dataset artifacts, empty for models.
	kind DataKind

	// sourceURL is the resolved remote URL.
	sourceURL string

	// targetPath is the local file under the resources directory.
	targetPath string

	// err is set when the source URL could not be resolved.
	err error
}

// planArtifacts resolves every artifact in set against the manifest's
// object store, the section prefix and the resources directory.
func planArtifacts(m *Manifest, dir, prefix string, kind DataKind, set ArtifactSet) []plannedArtifact {
	planned := make([]plannedArtifact, len(set))
	for i, a := range set {
		p := plannedArtifact{
			NamedArtifact: a,
			kind:          kind,
			targetPath:    filepath.Join(dir, a.Spec.Local),
		}
		p.sourceURL, p.err = ResolveSourceURL(m.ObjectStore, prefix, a.Spec.Remote)
		planned[i] = p
	}
	return planned
}

// syncEngine applies the per-artifact decision to a list of planned
// artifacts. It never fails as a whole: every problem becomes a result.
type syncEngine struct {
	fetcher *fetcher

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newSyncEngine creates a new sync engine.
func newSyncEngine(f *fetcher, logger Logger) *syncEngine {
	return &syncEngine{fetcher: f, logger: logger}
}

// run syncs planned artifacts with up to cfg.concurrency in flight and
// returns one result per artifact, in input order. Artifacts sharing a
// target path are never written concurrently.
func (e *syncEngine) run(ctx context.Context, planned []plannedArtifact, cfg *syncConfig) []ArtifactResult {
	results := make([]ArtifactResult, len(planned))

	locks := make(map[string]*sync.Mutex)
	for _, p := range planned {
		if _, ok := locks[p.targetPath]; !ok {
			locks[p.targetPath] = &sync.Mutex{}
		}
	}

	var g errgroup.Group
	g.SetLimit(cfg.concurrency)

	for i, p := range planned {
		if err := ctx.Err(); err != nil {
			results[i] = e.failed(p, fmt.Errorf("sync cancelled: %w", err), cfg)
			continue
		}
		i, p := i, p
		mu := locks[p.targetPath]
		g.Go(func() error {
			mu.Lock()
			defer mu.Unlock()
			results[i] = e.syncOne(ctx, p, cfg)
			return nil
		})
	}
	g.Wait()

	return results
}

// syncOne decides whether p needs fetching and fetches it if so.
func (e *syncEngine) syncOne(ctx context.Context, p plannedArtifact, cfg *syncConfig) ArtifactResult {
	if p.err != nil {
		return e.failed(p, &TransferError{Name: p.Name, URL: p.Spec.Remote, Err: p.err}, cfg)
	}

	e.progress(cfg, SyncProgress{Name: p.Name, Phase: "checking", BytesTotal: -1})

	if !cfg.force && fileExists(p.targetPath) {
		e.narrate(cfg, "already downloaded", "name", p.Name, "path", p.targetPath)
		return e.done(p, ArtifactResult{Outcome: AlreadyPresent}, cfg)
	}

	e.narrate(cfg, "downloading", "name", p.Name, "url", p.sourceURL)

	var onProgress func(written, total int64)
	if cfg.progressFn != nil {
		onProgress = func(written, total int64) {
			cfg.progressFn(SyncProgress{Name: p.Name, Phase: "downloading", BytesDownloaded: written, BytesTotal: total})
		}
	}

	res, err := e.fetcher.fetch(ctx, p.Name, p.sourceURL, p.targetPath, onProgress)
	if err != nil {
		return e.failed(p, err, cfg)
	}

	e.narrate(cfg, "downloaded", "name", p.Name, "path", p.targetPath, "bytes", res.bytes)
	return e.done(p, ArtifactResult{Outcome: Downloaded, Bytes: res.bytes, SHA256: res.sha256}, cfg)
}

// verifyAvailable re-checks that every artifact reported as available is
// still on disk. One that is gone was removed by someone else during the
// run and is reported as MissingSource.
func (e *syncEngine) verifyAvailable(results []ArtifactResult, cfg *syncConfig) {
	for i := range results {
		res := &results[i]
		if !res.Outcome.Available() || fileExists(res.TargetPath) {
			continue
		}
		err := fmt.Errorf("%w: %s reported %s but %s does not exist", ErrInconsistentState, res.Name, res.Outcome, res.TargetPath)
		res.Outcome = MissingSource
		res.Err = err
		res.Error = err.Error()
		res.Bytes, res.SHA256 = 0, ""

		if e.logger == nil {
			continue
		}
		if cfg.verbose {
			e.logger.Error("missing artifact", "name", res.Name, "path", res.TargetPath, "error", err)
		} else {
			e.logger.Debug("missing artifact", "name", res.Name, "path", res.TargetPath, "error", err)
		}
	}
}

func (e *syncEngine) failed(p plannedArtifact, err error, cfg *syncConfig) ArtifactResult {
	if e.logger != nil {
		if cfg.verbose {
			e.logger.Warn("failed to download", "name", p.Name, "url", p.sourceURL, "error", err)
		} else {
			e.logger.Debug("failed to download", "name", p.Name, "url", p.sourceURL, "error", err)
		}
	}
	return e.done(p, ArtifactResult{Outcome: Failed, Err: err, Error: err.Error()}, cfg)
}

// done fills in the artifact's identity and reports the final phase.
func (e *syncEngine) done(p plannedArtifact, res ArtifactResult, cfg *syncConfig) ArtifactResult {
	res.Name = p.Name
	res.Kind = p.kind
	res.SourceURL = p.sourceURL
	res.TargetPath = p.targetPath
	e.progress(cfg, SyncProgress{Name: p.Name, Phase: "done", BytesDownloaded: res.Bytes, BytesTotal: res.Bytes, Outcome: res.Outcome})
	return res
}

// narrate logs progress at Info when the sync is verbose, Debug otherwise.
func (e *syncEngine) narrate(cfg *syncConfig, msg string, keysAndValues ...any) {
	if e.logger == nil {
		return
	}
	if cfg.verbose {
		e.logger.Info(msg, keysAndValues...)
		return
	}
	e.logger.Debug(msg, keysAndValues...)
}

func (e *syncEngine) progress(cfg *syncConfig, p SyncProgress) {
	if cfg.progressFn != nil {
		cfg.progressFn(p)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
