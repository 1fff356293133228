package vision

import (
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
)

func TestNewExpressionClassifierValidation(t *testing.T) {
	modelPath := filepath.Join(t.TempDir(), "model.onnx")
	if err := os.WriteFile(modelPath, []byte("stub"), 0o644); err != nil {
		t.Fatalf("write model stub: %v", err)
	}

	tests := []struct {
		name string
		cfg  ExpressionConfig
	}{
		{name: "missing path", cfg: ExpressionConfig{}},
		{name: "absent file", cfg: ExpressionConfig{ModelPath: filepath.Join(t.TempDir(), "absent.onnx"), InputSize: 224, Mean: []float64{0, 0, 0}, Std: []float64{1, 1, 1}}},
		{name: "zero input size", cfg: ExpressionConfig{ModelPath: modelPath, InputSize: 0, Mean: []float64{0, 0, 0}, Std: []float64{1, 1, 1}}},
		{name: "short mean", cfg: ExpressionConfig{ModelPath: modelPath, InputSize: 224, Mean: []float64{0.5}, Std: []float64{1, 1, 1}}},
		{name: "zero std channel", cfg: ExpressionConfig{ModelPath: modelPath, InputSize: 224, Mean: []float64{0, 0, 0}, Std: []float64{1, 0, 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewExpressionClassifier(tc.cfg); err == nil {
				t.Fatal("expected construction to fail")
			}
		})
	}
}

func TestClassifyNilClassifier(t *testing.T) {
	var c *ExpressionClassifier
	if _, err := c.Classify(image.NewNRGBA(image.Rect(0, 0, 8, 8))); err == nil {
		t.Fatal("nil classifier should refuse classification")
	}
}

func TestSoftmaxSumsToOne(t *testing.T) {
	probs := softmax([]float32{2.0, 1.0, 0.1})
	var sum float64
	for _, p := range probs {
		sum += p
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Fatalf("softmax sum = %f, want 1.0", sum)
	}
	if argmax(probs) != 0 {
		t.Fatalf("argmax = %d, want 0", argmax(probs))
	}
	if probs[0] <= probs[1] || probs[1] <= probs[2] {
		t.Fatalf("softmax should preserve ordering, got %v", probs)
	}
}

func TestSoftmaxHandlesLargeLogits(t *testing.T) {
	probs := softmax([]float32{1000, 999, 998})
	for i, p := range probs {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			t.Fatalf("probs[%d] = %f, want finite", i, p)
		}
	}
	if argmax(probs) != 0 {
		t.Fatalf("argmax = %d, want 0", argmax(probs))
	}
}

func TestPreprocessNormalizesChannels(t *testing.T) {
	c := &ExpressionClassifier{
		inputSize: 4,
		mean:      [3]float32{0.5, 0.5, 0.5},
		std:       [3]float32{0.5, 0.5, 0.5},
	}
	img := imaging.New(4, 4, color.NRGBA{R: 255, G: 0, B: 127, A: 255})

	data := c.preprocess(img)
	if len(data) != 3*4*4 {
		t.Fatalf("preprocess length = %d, want %d", len(data), 3*4*4)
	}

	plane := 4 * 4
	if math.Abs(float64(data[0])-1.0) > 1e-5 {
		t.Fatalf("red channel = %f, want 1.0", data[0])
	}
	if math.Abs(float64(data[plane])+1.0) > 1e-5 {
		t.Fatalf("green channel = %f, want -1.0", data[plane])
	}
	blue := (float64(127)/255 - 0.5) / 0.5
	if math.Abs(float64(data[2*plane])-blue) > 1e-5 {
		t.Fatalf("blue channel = %f, want %f", data[2*plane], blue)
	}
}

func TestLabelForFallsBackToIndex(t *testing.T) {
	c := &ExpressionClassifier{labels: []string{"happy", "sad"}}
	if got := c.labelFor(1); got != "sad" {
		t.Fatalf("labelFor(1) = %q, want sad", got)
	}
	if got := c.labelFor(5); got != "5" {
		t.Fatalf("labelFor(5) = %q, want index fallback", got)
	}
}
