package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateAnalyzer(); err != nil {
		return err
	}
	if err := c.validateIngest(); err != nil {
		return err
	}
	if err := c.validateThumbnails(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if len(c.Paths.LibraryDirs) == 0 {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/vignette/config.toml"
		}
		return fmt.Errorf("paths.library_dirs must name at least one package root. Edit %s (create with 'vignette config init')", defaultPath)
	}
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateAnalyzer() error {
	if err := ensurePositiveMap(map[string]int{
		"analyzer.max_frames":            c.Analyzer.MaxFrames,
		"analyzer.face_stride":           c.Analyzer.FaceStride,
		"analyzer.expression_input_size": c.Analyzer.ExpressionInputSize,
	}); err != nil {
		return err
	}
	if len(c.Analyzer.ExpressionMean) != 3 {
		return errors.New("analyzer.expression_mean must hold exactly three channel values")
	}
	if len(c.Analyzer.ExpressionStd) != 3 {
		return errors.New("analyzer.expression_std must hold exactly three channel values")
	}
	for _, v := range c.Analyzer.ExpressionStd {
		if v == 0 {
			return errors.New("analyzer.expression_std channels must be non-zero")
		}
	}
	return nil
}

func (c *Config) validateIngest() error {
	return ensurePositiveMap(map[string]int{
		"ingest.workers":                c.Ingest.Workers,
		"ingest.watch_debounce_seconds": c.Ingest.WatchDebounceSeconds,
	})
}

func (c *Config) validateThumbnails() error {
	if !c.Thumbnails.Enabled {
		return nil
	}
	if err := ensurePositiveMap(map[string]int{
		"thumbnails.size":          c.Thumbnails.Size,
		"thumbnails.cache_entries": c.Thumbnails.CacheEntries,
	}); err != nil {
		return err
	}
	if c.Thumbnails.Dir == "" {
		return errors.New("thumbnails.dir must be set when thumbnails.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
