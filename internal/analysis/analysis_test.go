package analysis

import (
	"context"
	"path/filepath"
	"testing"

	"vignette/internal/config"
)

func TestAnalyzeUnreadableFileIsEmpty(t *testing.T) {
	cfg := config.Default()
	cfg.Analyzer.FFprobeBinary = filepath.Join(t.TempDir(), "missing-ffprobe")

	analyzer := New(&cfg, nil)
	result := analyzer.Analyze(context.Background(), filepath.Join(t.TempDir(), "absent.mp4"))
	if !result.Empty() {
		t.Fatalf("unreadable clip should produce an empty result, got %+v", result)
	}
}

func TestNewDegradesWhenModelsMissing(t *testing.T) {
	cfg := config.Default()
	cfg.Analyzer.FaceCascadePath = filepath.Join(t.TempDir(), "missing.cascade")
	cfg.Analyzer.ExpressionModelPath = filepath.Join(t.TempDir(), "missing.onnx")

	analyzer := New(&cfg, nil)
	if analyzer.FaceDetectionEnabled() {
		t.Fatal("missing cascade should disable face detection")
	}
	if analyzer.ExpressionEnabled() {
		t.Fatal("missing model should disable expression classification")
	}
	if analyzer.maxFrames != 360 {
		t.Fatalf("maxFrames = %d, want config default 360", analyzer.maxFrames)
	}
}

func TestNewFloorsFrameBudgetAndStride(t *testing.T) {
	cfg := config.Default()
	cfg.Analyzer.MaxFrames = 10
	cfg.Analyzer.FaceStride = 0

	analyzer := New(&cfg, nil)
	if analyzer.maxFrames != minMaxFrames {
		t.Fatalf("maxFrames = %d, want floor %d", analyzer.maxFrames, minMaxFrames)
	}
	if analyzer.faceStride != minFaceStride {
		t.Fatalf("faceStride = %d, want floor %d", analyzer.faceStride, minFaceStride)
	}
}

func TestAnalyzerCloseIsIdempotent(t *testing.T) {
	cfg := config.Default()
	analyzer := New(&cfg, nil)
	analyzer.Close()
	analyzer.Close()

	var nilAnalyzer *Analyzer
	nilAnalyzer.Close()
}
