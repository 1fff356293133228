package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"vignette/internal/assets"
	"vignette/internal/clipstore"
	"vignette/internal/config"
	"vignette/internal/logging"
	"vignette/internal/thumbs"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	log        *slog.Logger
	loggerErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) logger() (*slog.Logger, error) {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.loggerErr = err
			return
		}
		c.log, c.loggerErr = logging.NewFromConfig(cfg)
	})
	return c.log, c.loggerErr
}

// withStores opens the clip store and asset registry, wires the thumbnail
// service onto the registry when enabled, and closes everything after fn
// returns.
func (c *commandContext) withStores(fn func(cfg *config.Config, store *clipstore.Store, registry *assets.Registry) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}

	store, err := clipstore.Open(cfg)
	if err != nil {
		return fmt.Errorf("open clip store: %w", err)
	}
	defer store.Close()

	registry, err := assets.Open(cfg)
	if err != nil {
		return fmt.Errorf("open asset registry: %w", err)
	}
	defer registry.Close()

	if cfg.Thumbnails.Enabled {
		logger, logErr := c.logger()
		if logErr != nil {
			return logErr
		}
		thumbService, thumbErr := thumbs.New(cfg, logger)
		if thumbErr != nil {
			logger.Warn("thumbnail service unavailable", logging.Error(thumbErr))
		} else {
			registry.SetThumbnailer(thumbService)
		}
	}

	return fn(cfg, store, registry)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
