package analysis

import (
	"image"
	"math"
	"slices"
	"testing"

	"vignette/internal/vision"
)

// solidFrame builds an RGB24 frame with every pixel at the same gray value.
func solidFrame(width, height int, value uint8) []byte {
	frame := make([]byte, width*height*3)
	for i := range frame {
		frame[i] = value
	}
	return frame
}

// patternFrame builds a textured RGB24 frame whose histogram depends on phase.
func patternFrame(width, height int, phase int) []byte {
	frame := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := uint8((x*16 + y*4 + phase*48) % 256)
			i := (y*width + x) * 3
			frame[i] = v
			frame[i+1] = v
			frame[i+2] = v
		}
	}
	return frame
}

// splitFrame builds a frame whose rows below splitY hold one value and rows at
// or above it another, useful for mouth-region contrast.
func splitFrame(width, height, splitY int, top, bottom uint8) []byte {
	frame := make([]byte, width*height*3)
	for y := 0; y < height; y++ {
		value := top
		if y >= splitY {
			value = bottom
		}
		for x := 0; x < width; x++ {
			i := (y*width + x) * 3
			frame[i] = value
			frame[i+1] = value
			frame[i+2] = value
		}
	}
	return frame
}

func TestStillClipTagsAndLoop(t *testing.T) {
	scan := newClipScan(16, 16, 360, 3, nil, nil)
	frame := patternFrame(16, 16, 0)
	for i := 0; i < 30; i++ {
		scan.observe(frame)
	}
	result := scan.finalize("packs/idle/clip_a.mp4", 30, 30)

	if result.Duration == nil || math.Abs(*result.Duration-1.0) > 1e-9 {
		t.Fatalf("duration = %v, want 1.0", result.Duration)
	}
	if result.Motion == nil || *result.Motion != 0 {
		t.Fatalf("motion = %v, want 0", result.Motion)
	}
	if result.Confidence == nil || *result.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0 for identical frames", result.Confidence)
	}
	if result.LoopStart == nil || *result.LoopStart != 0 {
		t.Fatalf("loop start = %v, want 0", result.LoopStart)
	}
	// The third sample is the first compared, so it wins on a flat clip.
	wantEnd := 2.0 / 30.0
	if result.LoopEnd == nil || math.Abs(*result.LoopEnd-wantEnd) > 1e-9 {
		t.Fatalf("loop end = %v, want %f", result.LoopEnd, wantEnd)
	}

	for _, tag := range []string{"still", "no_face", "idle"} {
		if !slices.Contains(result.Tags, tag) {
			t.Fatalf("tags %v missing %q", result.Tags, tag)
		}
	}
	if slices.Contains(result.Tags, "neutral_face") {
		t.Fatalf("no faces observed, tags %v should not include neutral_face", result.Tags)
	}

	if got := result.Metadata["sampled_frames"]; got != 30 {
		t.Fatalf("sampled_frames = %v, want 30", got)
	}
	if got := result.Metadata["loop_frame_index"]; got != 2 {
		t.Fatalf("loop_frame_index = %v, want 2", got)
	}
	if got := result.Metadata["source_stem"]; got != "clip_a" {
		t.Fatalf("source_stem = %v, want clip_a", got)
	}
}

func TestMotionTagThresholds(t *testing.T) {
	tests := []struct {
		name  string
		delta uint8
		want  string
	}{
		{name: "still", delta: 0, want: "still"},
		{name: "calm", delta: 5, want: "calm"},
		{name: "animated", delta: 10, want: "animated"},
		{name: "energetic", delta: 30, want: "energetic"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			scan := newClipScan(8, 8, 360, 3, nil, nil)
			low := solidFrame(8, 8, 100)
			high := solidFrame(8, 8, 100+tc.delta)
			for i := 0; i < 12; i++ {
				if i%2 == 0 {
					scan.observe(low)
				} else {
					scan.observe(high)
				}
			}
			result := scan.finalize("clip.mp4", 12, 24)
			if len(result.Tags) == 0 || result.Tags[0] != tc.want {
				t.Fatalf("tags = %v, want first tag %q", result.Tags, tc.want)
			}
		})
	}
}

func TestLoopDetectionFindsRepeatedFrame(t *testing.T) {
	scan := newClipScan(16, 16, 360, 3, nil, nil)
	// Frame 9 repeats frame 0 exactly; everything between is a distinct
	// solid frame whose histogram cannot correlate perfectly with frame 0.
	opening := splitFrame(16, 16, 8, 0, 200)
	for i := 0; i < 12; i++ {
		switch i {
		case 0, 9:
			scan.observe(opening)
		default:
			scan.observe(solidFrame(16, 16, uint8(40+8*i)))
		}
	}
	result := scan.finalize("clip.mp4", 12, 10)

	if got := result.Metadata["loop_frame_index"]; got != 9 {
		t.Fatalf("loop_frame_index = %v, want 9", got)
	}
	if result.LoopEnd == nil || math.Abs(*result.LoopEnd-0.9) > 1e-9 {
		t.Fatalf("loop end = %v, want 0.9", result.LoopEnd)
	}
	if result.Confidence == nil || *result.Confidence != 1.0 {
		t.Fatalf("confidence = %v, want 1.0 for exact repeat", result.Confidence)
	}
}

func TestZeroFpsLeavesTimingUnknown(t *testing.T) {
	scan := newClipScan(8, 8, 360, 3, nil, nil)
	frame := patternFrame(8, 8, 0)
	for i := 0; i < 10; i++ {
		scan.observe(frame)
	}
	result := scan.finalize("clip.mp4", 10, 0)

	if result.Duration != nil {
		t.Fatalf("duration = %v, want nil without fps", result.Duration)
	}
	if result.LoopEnd != nil || result.LoopStart != nil {
		t.Fatalf("loop = (%v, %v), want unknown without fps", result.LoopStart, result.LoopEnd)
	}
	// The similarity scan still ran even though it cannot become a timestamp.
	if got := result.Metadata["loop_frame_index"]; got != 2 {
		t.Fatalf("loop_frame_index = %v, want 2", got)
	}
	if result.Confidence == nil {
		t.Fatal("confidence should survive a missing frame rate")
	}
}

func TestNoFramesReturnsDurationOnly(t *testing.T) {
	scan := newClipScan(8, 8, 360, 3, nil, nil)

	result := scan.finalize("clip.mp4", 90, 30)
	if result.Duration == nil || *result.Duration != 3.0 {
		t.Fatalf("duration = %v, want 3.0", result.Duration)
	}
	if result.Tags != nil || result.Metadata != nil {
		t.Fatalf("frame-less scan should not synthesize tags or metadata, got %v / %v", result.Tags, result.Metadata)
	}

	empty := newClipScan(8, 8, 360, 3, nil, nil).finalize("clip.mp4", 0, 0)
	if !empty.Empty() {
		t.Fatalf("scan with no frames and no probe data should be empty, got %+v", empty)
	}
}

func TestSamplingStrideWidensAfterBudget(t *testing.T) {
	scan := newClipScan(4, 4, 5, 3, nil, nil)
	frame := patternFrame(4, 4, 0)
	for i := 0; i < 30; i++ {
		scan.observe(frame)
	}
	result := scan.finalize("clip.mp4", 30, 30)

	// Walking the widening stride over 30 frames with a budget of 5 samples
	// admits exactly 18 of them.
	if scan.sampleCount != 18 {
		t.Fatalf("sampleCount = %d, want 18", scan.sampleCount)
	}
	if got := result.Metadata["sampled_frames"]; got != 18 {
		t.Fatalf("sampled_frames = %v, want 18", got)
	}
	if scan.histograms[0].index != 0 {
		t.Fatalf("first sample index = %d, want 0", scan.histograms[0].index)
	}
}

type fixedDetector struct {
	box vision.Box
}

func (d fixedDetector) Detect(gray []uint8, width, height int) (vision.Box, bool) {
	return d.box, true
}

type fixedClassifier struct {
	pred vision.Prediction
	err  error
}

func (c fixedClassifier) Classify(face image.Image) (vision.Prediction, error) {
	return c.pred, c.err
}

func TestFaceSignals(t *testing.T) {
	detector := fixedDetector{box: vision.Box{X: 4, Y: 4, W: 8, H: 8}}
	classifier := fixedClassifier{pred: vision.Prediction{Label: "happy", Probability: 0.9}}
	scan := newClipScan(20, 20, 360, 3, detector, classifier)

	// Bright lower face, dark upper face: strong mouth contrast.
	frame := splitFrame(20, 20, 8, 0, 200)
	for i := 0; i < 10; i++ {
		scan.observe(frame)
	}
	result := scan.finalize("packs/joy/clip.mp4", 10, 25)

	// Stride 3 over 10 frames hits indices 0, 3, 6, 9.
	if got := result.Metadata["face_detection_ratio"]; got != 0.4 {
		t.Fatalf("face_detection_ratio = %v, want 0.4", got)
	}
	size, ok := result.Metadata["avg_face_size"].(float64)
	if !ok || math.Abs(size-0.16) > 1e-9 {
		t.Fatalf("avg_face_size = %v, want 0.16", result.Metadata["avg_face_size"])
	}
	mouth, ok := result.Metadata["expression_score"].(float64)
	if !ok || mouth != 200 {
		t.Fatalf("expression_score = %v, want 200", result.Metadata["expression_score"])
	}
	if result.Expression != "happy" {
		t.Fatalf("expression = %q, want happy", result.Expression)
	}
	if result.ExpressionConfidence == nil || math.Abs(*result.ExpressionConfidence-0.9) > 1e-9 {
		t.Fatalf("expression confidence = %v, want 0.9", result.ExpressionConfidence)
	}
	head, ok := result.Metadata["head_motion"].(float64)
	if !ok || head != 0 {
		t.Fatalf("head_motion = %v, want 0 for a fixed box", result.Metadata["head_motion"])
	}

	for _, tag := range []string{"still", "has_face", "expr:happy", "smiling", "joy"} {
		if !slices.Contains(result.Tags, tag) {
			t.Fatalf("tags %v missing %q", result.Tags, tag)
		}
	}
	if slices.Contains(result.Tags, "head_motion") {
		t.Fatalf("tags %v should not include head_motion for a fixed box", result.Tags)
	}
}

func TestFaceSeenWithoutExpressionTagsNeutral(t *testing.T) {
	detector := fixedDetector{box: vision.Box{X: 2, Y: 2, W: 4, H: 4}}
	scan := newClipScan(16, 16, 360, 1, detector, nil)
	frame := patternFrame(16, 16, 0)
	for i := 0; i < 4; i++ {
		scan.observe(frame)
	}
	result := scan.finalize("clip.mp4", 4, 30)

	if !slices.Contains(result.Tags, "has_face") {
		t.Fatalf("tags %v missing has_face", result.Tags)
	}
	if !slices.Contains(result.Tags, "neutral_face") {
		t.Fatalf("tags %v missing neutral_face", result.Tags)
	}
}

func TestDominantExpressionPrefersHigherMeanThenFirstSeen(t *testing.T) {
	scan := &clipScan{
		exprOrder: []string{"calm", "happy"},
		exprScores: map[string][]float64{
			"calm":  {0.5, 0.7},
			"happy": {0.8},
		},
	}
	label, conf := scan.dominantExpression()
	if label != "happy" || conf == nil || math.Abs(*conf-0.8) > 1e-9 {
		t.Fatalf("dominant = (%q, %v), want (happy, 0.8)", label, conf)
	}

	tied := &clipScan{
		exprOrder: []string{"first", "second"},
		exprScores: map[string][]float64{
			"first":  {0.5},
			"second": {0.5},
		},
	}
	label, _ = tied.dominantExpression()
	if label != "first" {
		t.Fatalf("tie should keep the first-seen label, got %q", label)
	}
}

func TestCropRGBCopiesBox(t *testing.T) {
	width, height := 6, 6
	rgb := make([]byte, width*height*3)
	// Mark pixel (3, 2) red.
	idx := (2*width + 3) * 3
	rgb[idx] = 255

	img := cropRGB(rgb, width, vision.Box{X: 2, Y: 1, W: 3, H: 3})
	if img.Bounds().Dx() != 3 || img.Bounds().Dy() != 3 {
		t.Fatalf("crop bounds = %v, want 3x3", img.Bounds())
	}
	// (3, 2) in the frame is (1, 1) in the crop.
	if r, _, _, a := img.At(1, 1).RGBA(); r>>8 != 255 || a>>8 != 255 {
		t.Fatalf("crop pixel = %v, want opaque red", img.At(1, 1))
	}
	if r, _, _, _ := img.At(0, 0).RGBA(); r != 0 {
		t.Fatalf("crop origin should be black, got %v", img.At(0, 0))
	}
}

func TestFolderTag(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{path: "packs/Idle Scenes/clip.mp4", want: "idle scenes"},
		{path: "clip.mp4", want: ""},
		{path: "/clip.mp4", want: ""},
		{path: "/library/JOY/a.webm", want: "joy"},
	}
	for _, tc := range tests {
		if got := folderTag(tc.path); got != tc.want {
			t.Fatalf("folderTag(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}
