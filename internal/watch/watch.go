// Package watch drives automatic resynchronization: it watches the library
// roots for manifest and clip changes and, after a debounce window, invokes
// the configured sync callback. fsnotify does not recurse, so every directory
// under the roots is registered individually and newly created directories
// are added as they appear.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"vignette/internal/assets"
	"vignette/internal/config"
	"vignette/internal/logging"
	"vignette/internal/manifest"
)

// SyncFunc runs one library synchronization pass.
type SyncFunc func(ctx context.Context) error

// Watcher debounces filesystem events under the library roots into sync
// callback invocations.
type Watcher struct {
	logger   *slog.Logger
	roots    []string
	debounce time.Duration
	sync     SyncFunc

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	kick   chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New builds a watcher over the configured library roots.
func New(cfg *config.Config, syncFn SyncFunc, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		logger:   logging.NewComponentLogger(logger, "watch"),
		roots:    append([]string(nil), cfg.Paths.LibraryDirs...),
		debounce: time.Duration(cfg.Ingest.WatchDebounceSeconds) * time.Second,
		sync:     syncFn,
		fsw:      fsw,
		kick:     make(chan struct{}, 1),
	}, nil
}

// Start registers the library trees and begins dispatching events. Roots that
// do not exist yet are skipped; they are picked up on the next Start.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.roots {
		w.addTree(dir)
	}

	w.ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(w.ctx)

	w.logger.Info("library watcher started",
		logging.Int("roots", len(w.roots)),
		logging.Duration("debounce", w.debounce))
	return nil
}

// Stop shuts the watcher down. A sync already in flight finishes first; a
// debounced sync that has not fired yet is discarded.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.fsw.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		case <-w.kick:
			w.runSync(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// New package or clip directory: watch it and resync.
			w.addTree(event.Name)
			w.scheduleSync()
			return
		}
	}
	if !relevant(event) {
		return
	}
	w.scheduleSync()
}

// relevant filters the event stream down to changes that can alter the clip
// database: manifests, video files, and disappearing directories.
func relevant(event fsnotify.Event) bool {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	base := filepath.Base(event.Name)
	if strings.EqualFold(base, manifest.ManifestFileName) {
		return true
	}
	if assets.KindForPath(event.Name) == assets.KindVideo {
		return true
	}
	if (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)) && filepath.Ext(event.Name) == "" {
		return true
	}
	return false
}

func (w *Watcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil || !entry.IsDir() {
			return nil
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Debug("cannot watch directory",
				logging.String("path", path),
				logging.Error(addErr))
		}
		return nil
	})
}

// scheduleSync arms the debounce timer, folding bursts of events into a
// single sync pass.
func (w *Watcher) scheduleSync() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.poke)
}

// poke hands the expired debounce over to the event loop. Syncs run on the
// loop goroutine so Stop can wait for one that is already underway.
func (w *Watcher) poke() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Watcher) runSync(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.sync(ctx); err != nil {
		w.logger.Error("library sync failed", logging.Error(err))
	}
}
