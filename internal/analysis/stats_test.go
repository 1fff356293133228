package analysis

import (
	"math"
	"testing"
)

func TestGrayIntoMatchesLumaWeights(t *testing.T) {
	rgb := []byte{
		255, 0, 0,
		0, 255, 0,
		0, 0, 255,
		200, 200, 200,
	}
	gray := make([]uint8, 4)
	grayInto(gray, rgb)

	want := []uint8{76, 150, 29, 200}
	for i, v := range want {
		if gray[i] != v {
			t.Fatalf("gray[%d] = %d, want %d", i, gray[i], v)
		}
	}
}

func TestHistogram64IsUnitNorm(t *testing.T) {
	gray := make([]uint8, 16)
	for i := range gray {
		gray[i] = 10
	}
	hist := histogram64(gray)
	if len(hist) != histogramBins {
		t.Fatalf("histogram length = %d, want %d", len(hist), histogramBins)
	}
	if hist[10>>2] != 1.0 {
		t.Fatalf("single-value frame should collapse to one unit bin, got %f", hist[10>>2])
	}
	var sumSquares float64
	for _, v := range hist {
		sumSquares += v * v
	}
	if math.Abs(sumSquares-1.0) > 1e-9 {
		t.Fatalf("histogram norm = %f, want 1.0", math.Sqrt(sumSquares))
	}
}

func TestCorrelation(t *testing.T) {
	up := []float64{1, 2, 3, 4}
	down := []float64{4, 3, 2, 1}
	flat := []float64{2, 2, 2, 2}

	if got := correlation(up, up); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("self correlation = %f, want 1.0", got)
	}
	if got := correlation(up, down); math.Abs(got+1.0) > 1e-9 {
		t.Fatalf("reversed correlation = %f, want -1.0", got)
	}
	if got := correlation(flat, up); got != 1.0 {
		t.Fatalf("zero-variance correlation = %f, want 1.0", got)
	}
	if got := correlation(up, []float64{1, 2}); got != 0 {
		t.Fatalf("length mismatch correlation = %f, want 0", got)
	}
}

func TestMeanAbsDiff(t *testing.T) {
	a := []uint8{0, 10, 20, 255}
	b := []uint8{10, 0, 20, 245}
	if got := meanAbsDiff(a, b); got != 7.5 {
		t.Fatalf("meanAbsDiff = %f, want 7.5", got)
	}
	if got := meanAbsDiff(nil, nil); got != 0 {
		t.Fatalf("empty meanAbsDiff = %f, want 0", got)
	}
}

func TestRegionMean(t *testing.T) {
	// 4x4 frame, top half 0, bottom half 100.
	gray := []uint8{
		0, 0, 0, 0,
		0, 0, 0, 0,
		100, 100, 100, 100,
		100, 100, 100, 100,
	}

	mean, count := regionMean(gray, 4, 0, 2, 4, 4)
	if count != 8 || mean != 100 {
		t.Fatalf("bottom region = (%f, %d), want (100, 8)", mean, count)
	}

	mean, count = regionMean(gray, 4, 0, 0, 4, 4)
	if count != 16 || mean != 50 {
		t.Fatalf("full region = (%f, %d), want (50, 16)", mean, count)
	}

	if _, count := regionMean(gray, 4, 2, 2, 2, 4); count != 0 {
		t.Fatalf("empty column span should count 0 pixels, got %d", count)
	}

	mean, count = regionMean(gray, 4, -3, 3, 10, 10)
	if count != 4 || mean != 100 {
		t.Fatalf("clamped region = (%f, %d), want (100, 4)", mean, count)
	}
}

func TestStddevIsPopulation(t *testing.T) {
	values := []float64{2, 4}
	if got := stddev(values, mean(values)); got != 1 {
		t.Fatalf("stddev = %f, want 1", got)
	}
}

func TestClamp01(t *testing.T) {
	if got := clamp01(-0.5); got != 0 {
		t.Fatalf("clamp01(-0.5) = %f", got)
	}
	if got := clamp01(1.5); got != 1 {
		t.Fatalf("clamp01(1.5) = %f", got)
	}
	if got := clamp01(0.25); got != 0.25 {
		t.Fatalf("clamp01(0.25) = %f", got)
	}
}
