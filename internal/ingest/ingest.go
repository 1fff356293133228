// Package ingest synchronizes the analyzed clip database with the emotion
// packages found on disk: enumerate each intent's media files, register them
// as assets, analyze them, upsert the results, and prune rows whose files
// vanished. Sync runs under a file lock so concurrent invocations cannot
// interleave their garbage collection.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"vignette/internal/analysis"
	"vignette/internal/assets"
	"vignette/internal/bus"
	"vignette/internal/clipstore"
	"vignette/internal/config"
	"vignette/internal/logging"
	"vignette/internal/manifest"
	"vignette/internal/services"
)

// ClipStore is the slice of the clip database the sync loop writes to.
type ClipStore interface {
	Upsert(ctx context.Context, record *clipstore.Record) (*clipstore.Record, error)
	RemoveMissing(ctx context.Context, packageUUID, intent string, keep []string) (int64, error)
}

// AssetRegistry registers media files and hands back their content ids.
type AssetRegistry interface {
	Add(ctx context.Context, path string) (*assets.Asset, error)
}

// Service drives package synchronization. Analyzer instances are pooled so a
// sync holds at most Workers decoder pipelines at once.
type Service struct {
	cfg      *config.Config
	base     *slog.Logger
	logger   *slog.Logger
	store    ClipStore
	registry AssetRegistry
	events   *bus.Bus

	workers   int
	analyzers chan *analysis.Analyzer
	lock      *flock.Flock
}

// New constructs the sync service. The bus is optional; without one, package
// lifecycle events are simply not published.
func New(cfg *config.Config, store ClipStore, registry AssetRegistry, events *bus.Bus, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Ingest.Workers
	if workers < 1 {
		workers = 1
	}
	s := &Service{
		cfg:       cfg,
		base:      logger,
		logger:    logging.NewComponentLogger(logger, "ingest"),
		store:     store,
		registry:  registry,
		events:    events,
		workers:   workers,
		analyzers: make(chan *analysis.Analyzer, workers),
		lock:      flock.New(cfg.LockPath()),
	}
	for i := 0; i < workers; i++ {
		s.analyzers <- nil
	}
	return s
}

// Close releases the pooled analyzers. Callers must not invoke Close while a
// sync is still running.
func (s *Service) Close() {
	for i := 0; i < s.workers; i++ {
		analyzer := <-s.analyzers
		if analyzer != nil {
			analyzer.Close()
		}
	}
	close(s.analyzers)
}

// SyncAll discovers every emotion package under the configured library roots
// and synchronizes each one, then announces the completed pass on the bus.
// Per-package failures are logged and folded into the returned error without
// stopping the remaining packages.
func (s *Service) SyncAll(ctx context.Context) error {
	if err := s.acquireLock(); err != nil {
		return err
	}
	defer s.releaseLock()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	catalog := manifest.Discover(s.cfg.Paths.LibraryDirs, s.base)
	if catalog.Len() == 0 {
		logging.WithContext(ctx, s.logger).Info("no emotion package manifests discovered")
		return nil
	}

	var failed []error
	for _, pkg := range catalog.Packages() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.syncPackage(ctx, pkg); err != nil {
			logging.WithContext(ctx, s.logger).Error("package sync failed",
				logging.String(logging.FieldPackageUUID, pkg.UUID),
				logging.Error(err))
			failed = append(failed, fmt.Errorf("package %s: %w", pkg.UUID, err))
		}
	}

	s.publish(bus.Event{Name: bus.EventPackagesSynced})
	if len(failed) > 0 {
		return services.Wrap(services.ErrTransient, "ingest", "sync all",
			fmt.Sprintf("%d of %d packages failed to sync", len(failed), catalog.Len()), failed[0])
	}
	return nil
}

// SyncPackage synchronizes a single package by uuid, rediscovering manifests
// to pick up edits made since the last pass.
func (s *Service) SyncPackage(ctx context.Context, packageUUID string) error {
	if err := s.acquireLock(); err != nil {
		return err
	}
	defer s.releaseLock()

	ctx = services.WithRequestID(ctx, uuid.NewString())
	catalog := manifest.Discover(s.cfg.Paths.LibraryDirs, s.base)
	pkg, ok := catalog.Package(packageUUID)
	if !ok {
		return services.Wrap(services.ErrNotFound, "ingest", "sync package",
			fmt.Sprintf("Emotion package %s not found in manifests", packageUUID), nil)
	}
	return s.syncPackage(ctx, pkg)
}

// syncPackage walks every intent of one package. The package-updated event is
// published from the calling goroutine once all intents finished, which keeps
// bus subscribers such as the selector on a single-goroutine discipline.
func (s *Service) syncPackage(ctx context.Context, pkg manifest.Package) error {
	ctx = services.WithPackageUUID(ctx, pkg.UUID)
	logger := logging.WithContext(ctx, s.logger)

	if info, err := os.Stat(pkg.Path); err != nil || !info.IsDir() {
		logger.Warn("emotion package directory missing", logging.String("path", pkg.Path))
		return nil
	}

	name := pkg.Name
	if name == "" {
		name = pkg.UUID
	}
	logger.Info("syncing emotion package", logging.String("name", name))

	intents := make([]string, 0, len(pkg.Intents))
	for intentName := range pkg.Intents {
		intents = append(intents, intentName)
	}
	sort.Strings(intents)

	for _, intentName := range intents {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.syncIntent(ctx, pkg, intentName, pkg.Intents[intentName]); err != nil {
			return err
		}
	}

	s.publish(bus.Event{Name: bus.EventPackageUpdated, PackageUUID: pkg.UUID})
	return nil
}

func (s *Service) publish(event bus.Event) {
	if s.events != nil {
		s.events.Publish(event)
	}
}

func (s *Service) acquireLock() error {
	ok, err := s.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrTransient, "ingest", "lock", "Failed to acquire sync lock", err)
	}
	if !ok {
		return services.Wrap(services.ErrValidation, "ingest", "lock", "Another sync is already running", nil)
	}
	return nil
}

func (s *Service) releaseLock() {
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release sync lock", logging.Error(err))
	}
}

func (s *Service) acquireAnalyzer() *analysis.Analyzer {
	analyzer := <-s.analyzers
	if analyzer == nil {
		analyzer = analysis.New(s.cfg, s.base)
	}
	return analyzer
}

func (s *Service) releaseAnalyzer(analyzer *analysis.Analyzer) {
	s.analyzers <- analyzer
}
