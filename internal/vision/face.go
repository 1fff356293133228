package vision

import (
	"fmt"
	"os"

	pigo "github.com/esimov/pigo/core"
)

const (
	faceMinSize     = 48
	faceShiftFactor = 0.1
	faceScaleFactor = 1.1
	faceMinQuality  = 5.0
	faceClusterIoU  = 0.2
)

// Box is an axis-aligned pixel region within a frame.
type Box struct {
	X int
	Y int
	W int
	H int
}

// Area returns the box area in pixels.
func (b Box) Area() int {
	return b.W * b.H
}

// FaceDetector locates the most prominent face in grayscale frames using a
// pigo binary cascade.
type FaceDetector struct {
	classifier *pigo.Pigo
}

// NewFaceDetector loads the cascade at path. A missing or malformed cascade
// returns an error so callers can degrade to motion-only analysis.
func NewFaceDetector(path string) (*FaceDetector, error) {
	cascade, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read face cascade: %w", err)
	}
	classifier, err := pigo.NewPigo().Unpack(cascade)
	if err != nil {
		return nil, fmt.Errorf("unpack face cascade: %w", err)
	}
	return &FaceDetector{classifier: classifier}, nil
}

// Detect runs the cascade over one grayscale frame and returns the largest
// face found, if any. The pixel slice is row-major with width columns.
func (d *FaceDetector) Detect(gray []uint8, width, height int) (Box, bool) {
	if d == nil || d.classifier == nil || width <= 0 || height <= 0 {
		return Box{}, false
	}
	maxSize := width
	if height < maxSize {
		maxSize = height
	}
	if maxSize < faceMinSize {
		return Box{}, false
	}

	params := pigo.CascadeParams{
		MinSize:     faceMinSize,
		MaxSize:     maxSize,
		ShiftFactor: faceShiftFactor,
		ScaleFactor: faceScaleFactor,
		ImageParams: pigo.ImageParams{
			Pixels: gray,
			Rows:   height,
			Cols:   width,
			Dim:    width,
		},
	}

	detections := d.classifier.RunCascade(params, 0)
	detections = d.classifier.ClusterDetections(detections, faceClusterIoU)

	best, ok := largestDetection(detections)
	if !ok {
		return Box{}, false
	}
	return clampBox(detectionBox(best), width, height)
}

func largestDetection(detections []pigo.Detection) (pigo.Detection, bool) {
	var best pigo.Detection
	found := false
	for _, det := range detections {
		if det.Q < faceMinQuality {
			continue
		}
		if !found || det.Scale > best.Scale {
			best = det
			found = true
		}
	}
	return best, found
}

// detectionBox converts pigo's center+diameter representation into a corner box.
func detectionBox(det pigo.Detection) Box {
	half := det.Scale / 2
	return Box{
		X: det.Col - half,
		Y: det.Row - half,
		W: det.Scale,
		H: det.Scale,
	}
}

func clampBox(box Box, width, height int) (Box, bool) {
	if box.X < 0 {
		box.W += box.X
		box.X = 0
	}
	if box.Y < 0 {
		box.H += box.Y
		box.Y = 0
	}
	if box.X+box.W > width {
		box.W = width - box.X
	}
	if box.Y+box.H > height {
		box.H = height - box.Y
	}
	if box.W <= 0 || box.H <= 0 {
		return Box{}, false
	}
	return box, true
}
