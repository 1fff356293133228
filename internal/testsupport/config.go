package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"vignette/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LibraryDirs = []string{filepath.Join(base, "library")}
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Thumbnails.Dir = filepath.Join(base, "thumbnails")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	return builder.cfg
}

// WithLibraryDirs replaces the library roots on the test config.
func WithLibraryDirs(dirs ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Paths.LibraryDirs = append([]string(nil), dirs...)
	}
}

// WithAnalyzerBounds overrides the frame budget and face stride.
func WithAnalyzerBounds(maxFrames, faceStride int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Analyzer.MaxFrames = maxFrames
		b.cfg.Analyzer.FaceStride = faceStride
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// points the analyzer config at them. If names is empty, both ffmpeg and
// ffprobe are stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
			switch name {
			case "ffmpeg":
				b.cfg.Analyzer.FFmpegBinary = target
			case "ffprobe":
				b.cfg.Analyzer.FFprobeBinary = target
			}
		}
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
