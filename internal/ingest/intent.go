package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"vignette/internal/assets"
	"vignette/internal/clipstore"
	"vignette/internal/logging"
	"vignette/internal/manifest"
	"vignette/internal/services"
)

// syncIntent analyzes every media file an intent references and reconciles
// the clip rows for (package, intent). Files are analyzed in parallel up to
// the worker limit; the prune only runs after a fully successful pass so a
// partial failure cannot garbage-collect clips that were never visited.
func (s *Service) syncIntent(ctx context.Context, pkg manifest.Package, intentName string, cfg manifest.Intent) error {
	ctx = services.WithIntent(ctx, intentName)
	logger := logging.WithContext(ctx, s.logger)

	if len(cfg.Paths) == 0 {
		logger.Warn("intent has no paths configured")
		return nil
	}

	files := s.collectIntentFiles(logger, pkg, cfg)
	metadataBase := map[string]any{
		"intent_weight":   cfg.Weight,
		"package_context": pkg.ContextTags,
		"package_tones":   pkg.SupportedTones,
	}

	var (
		mu   sync.Mutex
		seen []string
	)
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.workers)
	for _, file := range files {
		group.Go(func() error {
			asset, err := s.registry.Add(groupCtx, file)
			if err != nil {
				logger.Warn("asset registration failed",
					logging.String("path", file),
					logging.Error(err))
				return nil
			}

			fileCtx := services.WithAssetID(groupCtx, asset.ID)
			analyzer := s.acquireAnalyzer()
			result := analyzer.Analyze(fileCtx, file)
			s.releaseAnalyzer(analyzer)

			relPath, err := filepath.Rel(pkg.Path, file)
			if err != nil {
				relPath = filepath.Base(file)
			}
			record := &clipstore.Record{
				AssetID:     asset.ID,
				PackageUUID: pkg.UUID,
				Intent:      intentName,
				RelPath:     filepath.ToSlash(relPath),
				LoopStart:   result.LoopStart,
				LoopEnd:     result.LoopEnd,
				Duration:    result.Duration,
				Motion:      result.Motion,
				Confidence:  result.Confidence,
				Tags:        result.Tags,
				Metadata:    mergeMetadata(metadataBase, result.Metadata),
			}
			if _, err := s.store.Upsert(fileCtx, record); err != nil {
				return fmt.Errorf("store clip %s: %w", asset.ID, err)
			}

			mu.Lock()
			seen = append(seen, asset.ID)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	removed, err := s.store.RemoveMissing(ctx, pkg.UUID, intentName, seen)
	if err != nil {
		return fmt.Errorf("prune intent %q: %w", intentName, err)
	}
	if removed > 0 {
		logger.Info("removed obsolete emotion clips", logging.Int64("removed", removed))
	}
	return nil
}

// collectIntentFiles resolves an intent's configured paths against the
// package root. A path may name a single video file or a directory, which is
// walked recursively; anything without a video extension is ignored.
func (s *Service) collectIntentFiles(logger *slog.Logger, pkg manifest.Package, cfg manifest.Intent) []string {
	var files []string
	for _, rel := range cfg.Paths {
		resolved := filepath.Join(pkg.Path, rel)
		info, err := os.Stat(resolved)
		if err != nil {
			logger.Warn("intent references missing path", logging.String("path", resolved))
			continue
		}
		if !info.IsDir() {
			if assets.KindForPath(resolved) == assets.KindVideo {
				files = append(files, resolved)
			}
			continue
		}
		walkErr := filepath.WalkDir(resolved, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			if assets.KindForPath(path) == assets.KindVideo {
				files = append(files, path)
			}
			return nil
		})
		if walkErr != nil {
			logger.Warn("intent path walk failed",
				logging.String("path", resolved),
				logging.Error(walkErr))
		}
	}
	return files
}

func mergeMetadata(base map[string]any, extra map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(extra))
	for key, value := range base {
		merged[key] = value
	}
	for key, value := range extra {
		merged[key] = value
	}
	return merged
}
