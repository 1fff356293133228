package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	LibraryDirs []string `toml:"library_dirs"`
	DataDir     string   `toml:"data_dir"`
	LogDir      string   `toml:"log_dir"`
}

// Analyzer contains configuration for clip analysis.
type Analyzer struct {
	FaceCascadePath     string    `toml:"face_cascade_path"`
	ExpressionModelPath string    `toml:"expression_model_path"`
	ExpressionLabels    []string  `toml:"expression_labels"`
	ExpressionInputSize int       `toml:"expression_input_size"`
	ExpressionMean      []float64 `toml:"expression_mean"`
	ExpressionStd       []float64 `toml:"expression_std"`
	MaxFrames           int       `toml:"max_frames"`
	FaceStride          int       `toml:"face_stride"`
	FFmpegBinary        string    `toml:"ffmpeg_binary"`
	FFprobeBinary       string    `toml:"ffprobe_binary"`
}

// Ingest contains configuration for package synchronization.
type Ingest struct {
	Workers              int `toml:"workers"`
	WatchDebounceSeconds int `toml:"watch_debounce_seconds"`
}

// Thumbnails contains configuration for poster frame extraction.
type Thumbnails struct {
	Enabled      bool   `toml:"enabled"`
	Size         int    `toml:"size"`
	CacheEntries int    `toml:"cache_entries"`
	Dir          string `toml:"dir"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for vignette.
//
// Configuration sections by subsystem:
//   - Paths: package library roots plus data and log directories
//   - Analyzer: decode bounds and optional face/expression model paths
//   - Ingest: sync worker pool size and watch debounce
//   - Thumbnails: poster frame cache settings
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Analyzer   Analyzer   `toml:"analyzer"`
	Ingest     Ingest     `toml:"ingest"`
	Thumbnails Thumbnails `toml:"thumbnails"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/vignette/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// LocateConfigPath resolves where the configuration file lives without
// parsing it: the explicit path when given, otherwise the default location
// with a project-local vignette.toml fallback.
func LocateConfigPath(path string) (string, bool, error) {
	return resolveConfigPath(path)
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("vignette.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for operation. Library roots
// are created on a best-effort basis so the tool can run when external storage
// is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	for _, dir := range c.Paths.LibraryDirs {
		if strings.TrimSpace(dir) != "" {
			_ = os.MkdirAll(dir, 0o755)
		}
	}
	if c.Thumbnails.Enabled && strings.TrimSpace(c.Thumbnails.Dir) != "" {
		if err := os.MkdirAll(c.Thumbnails.Dir, 0o755); err != nil {
			return fmt.Errorf("create thumbnail directory %q: %w", c.Thumbnails.Dir, err)
		}
	}
	return nil
}

// FFmpegBinary returns the ffmpeg executable used for frame decoding.
func (c *Config) FFmpegBinary() string {
	return c.Analyzer.FFmpegBinary
}

// FFprobeBinary returns the ffprobe executable used for media inspection.
func (c *Config) FFprobeBinary() string {
	return c.Analyzer.FFprobeBinary
}

// LockPath returns the file used to serialize library syncs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "vignette.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
