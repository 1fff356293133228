package vision

import (
	"os"
	"path/filepath"
	"testing"

	pigo "github.com/esimov/pigo/core"
)

func TestNewFaceDetectorMissingCascade(t *testing.T) {
	if _, err := NewFaceDetector(filepath.Join(t.TempDir(), "absent.bin")); err == nil {
		t.Fatal("expected error for missing cascade file")
	}
}

func TestNewFaceDetectorRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cascade.bin")
	if err := os.WriteFile(path, []byte("not a cascade"), 0o644); err != nil {
		t.Fatalf("write cascade: %v", err)
	}
	if _, err := NewFaceDetector(path); err == nil {
		t.Fatal("expected error for malformed cascade file")
	}
}

func TestDetectNilDetector(t *testing.T) {
	var d *FaceDetector
	if _, ok := d.Detect(make([]uint8, 64*64), 64, 64); ok {
		t.Fatal("nil detector should never report a face")
	}
}

func TestLargestDetectionPrefersScale(t *testing.T) {
	dets := []pigo.Detection{
		{Row: 10, Col: 10, Scale: 60, Q: 9},
		{Row: 40, Col: 40, Scale: 120, Q: 7},
		{Row: 80, Col: 80, Scale: 200, Q: 2},
	}
	best, ok := largestDetection(dets)
	if !ok {
		t.Fatal("expected a detection above the quality floor")
	}
	if best.Scale != 120 {
		t.Fatalf("expected the largest qualifying detection, got scale %d", best.Scale)
	}
}

func TestLargestDetectionAllBelowQuality(t *testing.T) {
	dets := []pigo.Detection{
		{Row: 10, Col: 10, Scale: 60, Q: 1},
		{Row: 40, Col: 40, Scale: 120, Q: 4.9},
	}
	if _, ok := largestDetection(dets); ok {
		t.Fatal("low-quality detections should be discarded")
	}
}

func TestDetectionBoxCentersOnDetection(t *testing.T) {
	box := detectionBox(pigo.Detection{Row: 100, Col: 60, Scale: 40})
	want := Box{X: 40, Y: 80, W: 40, H: 40}
	if box != want {
		t.Fatalf("detectionBox = %+v, want %+v", box, want)
	}
}

func TestClampBox(t *testing.T) {
	tests := []struct {
		name   string
		in     Box
		width  int
		height int
		want   Box
		ok     bool
	}{
		{name: "inside", in: Box{X: 10, Y: 10, W: 20, H: 20}, width: 100, height: 100, want: Box{X: 10, Y: 10, W: 20, H: 20}, ok: true},
		{name: "negative origin", in: Box{X: -5, Y: -5, W: 20, H: 20}, width: 100, height: 100, want: Box{X: 0, Y: 0, W: 15, H: 15}, ok: true},
		{name: "overflows frame", in: Box{X: 90, Y: 90, W: 20, H: 20}, width: 100, height: 100, want: Box{X: 90, Y: 90, W: 10, H: 10}, ok: true},
		{name: "fully outside", in: Box{X: 120, Y: 120, W: 20, H: 20}, width: 100, height: 100, ok: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := clampBox(tc.in, tc.width, tc.height)
			if ok != tc.ok {
				t.Fatalf("clampBox ok = %v, want %v", ok, tc.ok)
			}
			if ok && got != tc.want {
				t.Fatalf("clampBox = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestBoxArea(t *testing.T) {
	if got := (Box{W: 6, H: 7}).Area(); got != 42 {
		t.Fatalf("Area = %d, want 42", got)
	}
}
