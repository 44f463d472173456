package resources

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// PartMaxAge is the age after which PruneParts treats a ".part" file as
// abandoned.
const PartMaxAge = 24 * time.Hour

// Syncer keeps the resources directory in step with its manifests.
// All methods are safe for concurrent use; sync runs on the same
// directory are serialized by a lock file.
// For CLI integration, use NewCommand instead.
type Syncer interface {
	// ResourcesDir resolves the local resources directory.
	ResourcesDir(ctx context.Context) (string, error)

	// SyncDataset fetches the artifact named name from the kind group of
	// data.json. A name that is not declared yields a report with Done set
	// and nothing fetched. Only manifest problems return an error.
	SyncDataset(ctx context.Context, kind DataKind, name string, opts ...SyncOption) (DatasetReport, error)

	// SyncModels fetches every pretrained model declared in models.json.
	// Only manifest problems return an error.
	SyncModels(ctx context.Context, opts ...SyncOption) (ModelsReport, error)

	// ListDatasets reports the artifacts of one data.json group and whether
	// each is on disk. It makes no network requests.
	ListDatasets(ctx context.Context, kind DataKind) ([]ArtifactStatus, error)

	// ListModels reports the models in models.json and whether each is on
	// disk. It makes no network requests.
	ListModels(ctx context.Context) ([]ArtifactStatus, error)

	// PruneParts removes ".part" files older than maxAge left behind by
	// interrupted runs, and returns their paths.
	PruneParts(ctx context.Context, maxAge time.Duration) ([]string, error)
}

// syncer is the concrete implementation of the Syncer interface.
type syncer struct {
	// cfg holds the module configuration.
	cfg Config

	// locator resolves the resources directory.
	locator ResourcePathProvider

	// logger receives diagnostic messages. May be nil.
	logger Logger

	// engine performs the per-artifact work.
	engine *syncEngine

	// lockTimeout bounds the wait for the directory lock.
	lockTimeout time.Duration
}

// Ensure syncer implements Syncer interface.
var _ Syncer = (*syncer)(nil)

// NewSyncer creates a new Syncer.
//
// The resources directory comes from, in order: DEEPSEARCH_GLM_RESOURCES_DIR,
// Config.ResourcesDir, the provider given by WithResourcePathProvider, and
// finally the platform default for Config.AppName.
func NewSyncer(cfg Config, opts ...SyncerOption) (Syncer, error) {
	scfg := newSyncerConfig()
	for _, opt := range opts {
		opt(scfg)
	}

	chain := ChainLocator{EnvLocator{}, StaticLocator(cfg.ResourcesDir)}
	if scfg.locator != nil {
		chain = append(chain, scfg.locator)
	} else if cfg.AppName != "" {
		chain = append(chain, DefaultDirLocator{AppName: cfg.AppName})
	} else if cfg.ResourcesDir == "" {
		return nil, errors.New("resources: AppName, ResourcesDir or a ResourcePathProvider is required")
	}

	return &syncer{
		cfg:         cfg,
		locator:     chain,
		logger:      scfg.logger,
		engine:      newSyncEngine(newFetcher(scfg.httpClient, scfg.requestTimeout), scfg.logger),
		lockTimeout: DefaultLockTimeout,
	}, nil
}

func (s *syncer) ResourcesDir(ctx context.Context) (string, error) {
	return s.locator.ResourcesDir(ctx)
}

func (s *syncer) SyncDataset(ctx context.Context, kind DataKind, name string, opts ...SyncOption) (DatasetReport, error) {
	cfg := applySyncOptions(opts)

	kind, err := ParseDataKind(string(kind))
	if err != nil {
		return DatasetReport{}, err
	}

	dir, err := s.ResourcesDir(ctx)
	if err != nil {
		return DatasetReport{}, err
	}

	m, err := LoadDataManifest(dir)
	if err != nil {
		return DatasetReport{}, err
	}
	group, err := m.Group(kind)
	if err != nil {
		return DatasetReport{}, err
	}

	artifact, ok := group.Lookup(name)
	if !ok {
		s.debug("dataset not declared", "kind", kind, "name", name)
		return aggregateDataset(nil), nil
	}

	planned := planArtifacts(m, dir, m.Data.Prefix, kind, ArtifactSet{artifact})
	results, err := s.runLocked(ctx, dir, planned, cfg)
	if err != nil {
		return DatasetReport{}, err
	}
	return aggregateDataset(results), nil
}

func (s *syncer) SyncModels(ctx context.Context, opts ...SyncOption) (ModelsReport, error) {
	cfg := applySyncOptions(opts)

	dir, err := s.ResourcesDir(ctx)
	if err != nil {
		return ModelsReport{}, err
	}

	m, err := LoadModelsManifest(dir)
	if err != nil {
		return ModelsReport{}, err
	}

	planned := planArtifacts(m, dir, m.NLP.Prefix, "", m.NLP.TrainedModels)
	results, err := s.runLocked(ctx, dir, planned, cfg)
	if err != nil {
		return ModelsReport{}, err
	}
	s.engine.verifyAvailable(results, cfg)
	return aggregateModels(results), nil
}

func (s *syncer) ListDatasets(ctx context.Context, kind DataKind) ([]ArtifactStatus, error) {
	kind, err := ParseDataKind(string(kind))
	if err != nil {
		return nil, err
	}

	dir, err := s.ResourcesDir(ctx)
	if err != nil {
		return nil, err
	}

	m, err := LoadDataManifest(dir)
	if err != nil {
		return nil, err
	}
	group, err := m.Group(kind)
	if err != nil {
		return nil, err
	}

	return statusOf(planArtifacts(m, dir, m.Data.Prefix, kind, group)), nil
}

func (s *syncer) ListModels(ctx context.Context) ([]ArtifactStatus, error) {
	dir, err := s.ResourcesDir(ctx)
	if err != nil {
		return nil, err
	}

	m, err := LoadModelsManifest(dir)
	if err != nil {
		return nil, err
	}

	return statusOf(planArtifacts(m, dir, m.NLP.Prefix, "", m.NLP.TrainedModels)), nil
}

func (s *syncer) PruneParts(ctx context.Context, maxAge time.Duration) ([]string, error) {
	dir, err := s.ResourcesDir(ctx)
	if err != nil {
		return nil, err
	}

	unlock, err := s.lock(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := []string{}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), partSuffix) {
			return nil
		}

		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		s.debug("removed partial download", "path", path)
		removed = append(removed, path)
		return nil
	})
	if err != nil {
		return removed, fmt.Errorf("%w: pruning partial downloads: %v", ErrStorageError, err)
	}
	return removed, nil
}

// runLocked runs the engine while holding the directory lock.
func (s *syncer) runLocked(ctx context.Context, dir string, planned []plannedArtifact, cfg *syncConfig) ([]ArtifactResult, error) {
	unlock, err := s.lock(ctx, dir)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return s.engine.run(ctx, planned, cfg), nil
}

// lock takes the cross-process lock on dir. A directory the lock file
// cannot be created in (typically read-only) is used unlocked.
func (s *syncer) lock(ctx context.Context, dir string) (func(), error) {
	l, err := newFileLock(filepath.Join(dir, lockFileName), s.lockTimeout)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("running without sync lock", "dir", dir, "error", err)
		}
		return func() {}, nil
	}
	if err := l.Lock(ctx); err != nil {
		l.Unlock()
		return nil, fmt.Errorf("%w: another process is syncing %s: %v", ErrStorageError, dir, err)
	}
	return func() { l.Unlock() }, nil
}

func (s *syncer) debug(msg string, keysAndValues ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, keysAndValues...)
	}
}

func applySyncOptions(opts []SyncOption) *syncConfig {
	cfg := newSyncConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func statusOf(planned []plannedArtifact) []ArtifactStatus {
	statuses := make([]ArtifactStatus, len(planned))
	for i, p := range planned {
		st := ArtifactStatus{Name: p.Name, SourceURL: p.sourceURL, TargetPath: p.targetPath}
		if info, err := os.Stat(p.targetPath); err == nil {
			st.Present = true
			st.Size = info.Size()
		}
		statuses[i] = st
	}
	return statuses
}

// LoadTrainingData syncs one dataset artifact and returns whether every
// attempted download succeeded, plus the local path of each available
// artifact keyed by name.
func LoadTrainingData(ctx context.Context, s Syncer, kind DataKind, name string, opts ...SyncOption) (bool, map[string]string, error) {
	report, err := s.SyncDataset(ctx, kind, name, opts...)
	if err != nil {
		return false, nil, err
	}
	return report.Done, report.Fetched, nil
}

// LoadPretrainedModels syncs every pretrained model and returns the names
// of those available afterwards, in manifest order.
func LoadPretrainedModels(ctx context.Context, s Syncer, opts ...SyncOption) ([]string, error) {
	report, err := s.SyncModels(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return report.Downloaded, nil
}
