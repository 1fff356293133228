package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeAnalyzer(); err != nil {
		return err
	}
	c.normalizeIngest()
	if err := c.normalizeThumbnails(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	roots := make([]string, 0, len(c.Paths.LibraryDirs))
	seen := make(map[string]struct{}, len(c.Paths.LibraryDirs))
	for _, dir := range c.Paths.LibraryDirs {
		trimmed := strings.TrimSpace(dir)
		if trimmed == "" {
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return fmt.Errorf("paths.library_dirs: %w", err)
		}
		if _, ok := seen[expanded]; ok {
			continue
		}
		seen[expanded] = struct{}{}
		roots = append(roots, expanded)
	}
	c.Paths.LibraryDirs = roots
	return nil
}

func (c *Config) normalizeAnalyzer() error {
	var err error
	c.Analyzer.FaceCascadePath = strings.TrimSpace(c.Analyzer.FaceCascadePath)
	if c.Analyzer.FaceCascadePath != "" {
		if c.Analyzer.FaceCascadePath, err = expandPath(c.Analyzer.FaceCascadePath); err != nil {
			return fmt.Errorf("analyzer.face_cascade_path: %w", err)
		}
	}
	c.Analyzer.ExpressionModelPath = strings.TrimSpace(c.Analyzer.ExpressionModelPath)
	if c.Analyzer.ExpressionModelPath != "" {
		if c.Analyzer.ExpressionModelPath, err = expandPath(c.Analyzer.ExpressionModelPath); err != nil {
			return fmt.Errorf("analyzer.expression_model_path: %w", err)
		}
	}

	labels := make([]string, 0, len(c.Analyzer.ExpressionLabels))
	for _, label := range c.Analyzer.ExpressionLabels {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			labels = append(labels, trimmed)
		}
	}
	c.Analyzer.ExpressionLabels = labels

	if c.Analyzer.ExpressionInputSize <= 0 {
		c.Analyzer.ExpressionInputSize = defaultExpressionInputSize
	}
	c.Analyzer.ExpressionMean = normalizeTriplet(c.Analyzer.ExpressionMean, defaultExpressionMean)
	c.Analyzer.ExpressionStd = normalizeTriplet(c.Analyzer.ExpressionStd, defaultExpressionStd)

	if c.Analyzer.MaxFrames <= 0 {
		c.Analyzer.MaxFrames = defaultMaxFrames
	}
	if c.Analyzer.FaceStride <= 0 {
		c.Analyzer.FaceStride = defaultFaceStride
	}

	c.Analyzer.FFmpegBinary = strings.TrimSpace(c.Analyzer.FFmpegBinary)
	if c.Analyzer.FFmpegBinary == "" {
		c.Analyzer.FFmpegBinary = defaultFFmpegBinary
	}
	c.Analyzer.FFprobeBinary = strings.TrimSpace(c.Analyzer.FFprobeBinary)
	if c.Analyzer.FFprobeBinary == "" {
		c.Analyzer.FFprobeBinary = defaultFFprobeBinary
	}
	return nil
}

// normalizeTriplet falls back to the default when a channel triplet is absent
// or malformed rather than failing the load.
func normalizeTriplet(values, fallback []float64) []float64 {
	if len(values) != 3 {
		return append([]float64(nil), fallback...)
	}
	return values
}

func (c *Config) normalizeIngest() {
	if c.Ingest.Workers <= 0 {
		c.Ingest.Workers = min(maxAutoWorkers, runtime.NumCPU())
	}
	if c.Ingest.WatchDebounceSeconds <= 0 {
		c.Ingest.WatchDebounceSeconds = defaultWatchDebounceSeconds
	}
}

func (c *Config) normalizeThumbnails() error {
	var err error
	if c.Thumbnails.Size <= 0 {
		c.Thumbnails.Size = defaultThumbnailSize
	}
	if c.Thumbnails.CacheEntries <= 0 {
		c.Thumbnails.CacheEntries = defaultThumbnailCacheEntries
	}
	if strings.TrimSpace(c.Thumbnails.Dir) == "" {
		c.Thumbnails.Dir = filepath.Join(c.Paths.DataDir, "thumbs")
	}
	if c.Thumbnails.Dir, err = expandPath(c.Thumbnails.Dir); err != nil {
		return fmt.Errorf("thumbnails.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
