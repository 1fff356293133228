// Package thumbs renders and caches poster-frame thumbnails for library
// assets. Video posters come from the first decoded frame via ffmpeg; images
// are downsized directly. Rendered thumbnails live on disk keyed by asset id,
// with an LRU cache memoizing id to path lookups.
package thumbs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"

	"vignette/internal/assets"
	"vignette/internal/config"
	"vignette/internal/logging"
)

// Service renders poster thumbnails into a cache directory.
type Service struct {
	logger    *slog.Logger
	ffmpegBin string
	dir       string
	size      int
	cache     *lru.Cache[string, string]
}

// New builds a thumbnail service from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*Service, error) {
	entries := cfg.Thumbnails.CacheEntries
	if entries <= 0 {
		entries = 1
	}
	cache, err := lru.New[string, string](entries)
	if err != nil {
		return nil, fmt.Errorf("thumbnail cache: %w", err)
	}

	size := cfg.Thumbnails.Size
	if size <= 0 {
		size = 256
	}

	dir := cfg.Thumbnails.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create thumbnail directory: %w", err)
	}

	return &Service{
		logger:    logging.NewComponentLogger(logger, "thumbs"),
		ffmpegBin: cfg.FFmpegBinary(),
		dir:       dir,
		size:      size,
		cache:     cache,
	}, nil
}

// Thumbnail returns the path of the poster thumbnail for an asset, rendering
// it when neither the cache nor the disk already has one.
func (s *Service) Thumbnail(ctx context.Context, sourcePath, assetID string) (string, error) {
	if assetID == "" {
		return "", errors.New("asset id is empty")
	}

	if cached, ok := s.cache.Get(assetID); ok {
		if _, err := os.Stat(cached); err == nil {
			return cached, nil
		}
		s.cache.Remove(assetID)
	}

	target := filepath.Join(s.dir, assetID+".jpg")
	if _, err := os.Stat(target); err == nil {
		s.cache.Add(assetID, target)
		return target, nil
	}

	if err := s.render(ctx, sourcePath, target); err != nil {
		s.logger.Warn("thumbnail render failed",
			logging.String("source", sourcePath),
			logging.Error(err))
		return "", err
	}

	s.cache.Add(assetID, target)
	s.logger.Debug("thumbnail rendered",
		logging.String("source", sourcePath),
		logging.String("thumbnail", target))
	return target, nil
}

func (s *Service) render(ctx context.Context, sourcePath, target string) error {
	var (
		img image.Image
		err error
	)
	if assets.KindForPath(sourcePath) == assets.KindVideo {
		img, err = s.extractPoster(ctx, sourcePath)
	} else {
		img, err = imaging.Open(sourcePath, imaging.AutoOrientation(true))
	}
	if err != nil {
		return err
	}

	thumb := imaging.Fill(img, s.size, s.size, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(thumb, target); err != nil {
		return fmt.Errorf("save thumbnail: %w", err)
	}
	return nil
}

// extractPoster decodes the first video frame into an image via an ffmpeg
// child process writing a temporary png.
func (s *Service) extractPoster(ctx context.Context, sourcePath string) (image.Image, error) {
	tmp, err := os.CreateTemp(s.dir, "poster-*.png")
	if err != nil {
		return nil, fmt.Errorf("poster temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	binary := s.ffmpegBin
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	cmd := exec.CommandContext(ctx, binary,
		"-v", "error", "-hide_banner", "-nostdin",
		"-ss", "0",
		"-i", sourcePath,
		"-vframes", "1",
		"-y", tmpPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("extract poster: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("extract poster: %w", err)
	}

	img, err := imaging.Open(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("decode poster: %w", err)
	}
	return img, nil
}
