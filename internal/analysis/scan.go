package analysis

import (
	"image"
	"math"
	"path/filepath"
	"slices"
	"strings"

	"vignette/internal/vision"
)

// faceDetector and expressionClassifier mirror the vision package surface the
// scan consumes, keeping the accumulator testable without model files.
type faceDetector interface {
	Detect(gray []uint8, width, height int) (vision.Box, bool)
}

type expressionClassifier interface {
	Classify(face image.Image) (vision.Prediction, error)
}

type sampleHistogram struct {
	index  int
	values []float64
}

type faceCenter struct {
	x float64
	y float64
}

// clipScan accumulates per-frame observations for one clip. Frames stream
// through observe in decode order; finalize folds the accumulated series into
// a Result. Pixel buffers are recycled so memory stays constant regardless of
// clip length.
type clipScan struct {
	width      int
	height     int
	maxFrames  int
	faceStride int
	detector   faceDetector
	classifier expressionClassifier

	index     int
	frameStep int
	scratch   []uint8
	prev      []uint8
	hasPrev   bool

	sampleCount int
	histograms  []sampleHistogram

	motionDiffs []float64

	faceHits    int
	faceSizes   []float64
	faceCenters []faceCenter
	mouthScores []float64
	exprOrder   []string
	exprScores  map[string][]float64
}

func newClipScan(width, height, maxFrames, faceStride int, detector faceDetector, classifier expressionClassifier) *clipScan {
	return &clipScan{
		width:      width,
		height:     height,
		maxFrames:  maxFrames,
		faceStride: faceStride,
		detector:   detector,
		classifier: classifier,
		frameStep:  1,
		scratch:    make([]uint8, width*height),
		prev:       make([]uint8, width*height),
		exprScores: make(map[string][]float64),
	}
}

// observe folds one decoded RGB24 frame into the running series.
func (s *clipScan) observe(rgb []byte) {
	gray := s.scratch
	grayInto(gray, rgb)

	if s.sampleCount == 0 {
		s.recordSample(gray)
	} else if s.index%s.frameStep == 0 {
		s.recordSample(gray)
		// Once the sample budget fills, the stride widens so long clips keep
		// sampling sparsely instead of stopping.
		if s.sampleCount >= s.maxFrames {
			s.frameStep = maxInt(1, s.index/s.maxFrames)
		}
	}

	if s.hasPrev {
		s.motionDiffs = append(s.motionDiffs, meanAbsDiff(s.prev, gray))
	}

	if s.detector != nil && s.index%s.faceStride == 0 {
		s.observeFace(gray, rgb)
	}

	s.scratch, s.prev = s.prev, gray
	s.hasPrev = true
	s.index++
}

func (s *clipScan) recordSample(gray []uint8) {
	s.histograms = append(s.histograms, sampleHistogram{index: s.index, values: histogram64(gray)})
	s.sampleCount++
}

func (s *clipScan) observeFace(gray []uint8, rgb []byte) {
	box, ok := s.detector.Detect(gray, s.width, s.height)
	if !ok {
		return
	}
	s.faceHits++
	s.faceSizes = append(s.faceSizes, float64(box.Area())/float64(s.width*s.height))
	s.faceCenters = append(s.faceCenters, faceCenter{
		x: float64(box.X) + float64(box.W)/2,
		y: float64(box.Y) + float64(box.H)/2,
	})

	lowerMean, lowerCount := regionMean(gray, s.width, box.X, box.Y+int(float64(box.H)*0.55), box.X+box.W, box.Y+box.H)
	upperMean, upperCount := regionMean(gray, s.width, box.X, box.Y, box.X+box.W, box.Y+int(float64(box.H)*0.45))
	if lowerCount > 0 && upperCount > 0 {
		s.mouthScores = append(s.mouthScores, math.Abs(lowerMean-upperMean))
	}

	if s.classifier == nil {
		return
	}
	pred, err := s.classifier.Classify(cropRGB(rgb, s.width, box))
	if err != nil || pred.Label == "" {
		return
	}
	if _, seen := s.exprScores[pred.Label]; !seen {
		s.exprOrder = append(s.exprOrder, pred.Label)
	}
	s.exprScores[pred.Label] = append(s.exprScores[pred.Label], pred.Probability)
}

// finalize folds the accumulated series into a Result. frameCount and fps are
// container-reported values; a zero fps leaves every timing field unknown.
func (s *clipScan) finalize(path string, frameCount int, fps float64) Result {
	var duration *float64
	if frameCount != 0 && fps != 0 {
		duration = floatPtr(float64(frameCount) / fps)
	}
	if s.sampleCount == 0 {
		return Result{Duration: duration}
	}

	first := s.histograms[0]
	bestSimilarity := 0.0
	bestIndex := -1
	for i := 2; i < len(s.histograms); i++ {
		similarity := correlation(first.values, s.histograms[i].values)
		if similarity > bestSimilarity {
			bestSimilarity = similarity
			bestIndex = s.histograms[i].index
		}
	}

	loopEnd := duration
	if bestIndex >= 0 && fps != 0 {
		loopEnd = floatPtr(float64(bestIndex) / fps)
	}
	var loopStart *float64
	if loopEnd != nil {
		loopStart = floatPtr(0)
	}
	var confidence *float64
	if bestSimilarity > 0 {
		confidence = floatPtr(clamp01((bestSimilarity + 1) / 2))
	}

	var motionAvg, motionStd, motionNorm *float64
	if len(s.motionDiffs) > 0 {
		avg := mean(s.motionDiffs)
		motionAvg = floatPtr(avg)
		motionStd = floatPtr(stddev(s.motionDiffs, avg))
		motionNorm = floatPtr(avg / 255.0)
	}

	faceRatio := float64(s.faceHits) / float64(maxInt(1, s.sampleCount))
	var avgFaceSize *float64
	if len(s.faceSizes) > 0 {
		avgFaceSize = floatPtr(mean(s.faceSizes))
	}
	headMotion := s.headMotion()
	var mouthScore *float64
	if len(s.mouthScores) > 0 {
		mouthScore = floatPtr(mean(s.mouthScores))
	}

	expressionLabel, expressionConf := s.dominantExpression()

	tags := s.buildTags(path, motionNorm, faceRatio, expressionLabel, mouthScore, headMotion)

	metadata := map[string]any{
		"frame_count":           frameCount,
		"fps":                   fps,
		"sampled_frames":        s.sampleCount,
		"loop_frame_index":      nilableInt(bestIndex),
		"loop_similarity":       bestSimilarity,
		"motion_avg":            nilableFloat(motionAvg),
		"motion_stddev":         nilableFloat(motionStd),
		"motion_norm":           nilableFloat(motionNorm),
		"face_detection_ratio":  faceRatio,
		"avg_face_size":         nilableFloat(avgFaceSize),
		"head_motion":           nilableFloat(headMotion),
		"expression_score":      nilableFloat(mouthScore),
		"expression_label":      nilableString(expressionLabel),
		"expression_confidence": nilableFloat(expressionConf),
		"source_stem":           stem(path),
	}

	return Result{
		LoopStart:            loopStart,
		LoopEnd:              loopEnd,
		Duration:             duration,
		Motion:               motionNorm,
		Confidence:           confidence,
		Expression:           expressionLabel,
		ExpressionConfidence: expressionConf,
		Tags:                 tags,
		Metadata:             metadata,
	}
}

// headMotion measures how far the detected face centers wander, normalized by
// the longer frame edge.
func (s *clipScan) headMotion() *float64 {
	if len(s.faceCenters) == 0 {
		return nil
	}
	minX, maxX := s.faceCenters[0].x, s.faceCenters[0].x
	minY, maxY := s.faceCenters[0].y, s.faceCenters[0].y
	for _, c := range s.faceCenters[1:] {
		minX = math.Min(minX, c.x)
		maxX = math.Max(maxX, c.x)
		minY = math.Min(minY, c.y)
		maxY = math.Max(maxY, c.y)
	}
	span := math.Hypot(maxX-minX, maxY-minY)
	return floatPtr(span / float64(maxInt(s.width, s.height)))
}

// dominantExpression picks the label with the highest mean per-frame
// probability. Ties keep the label that appeared first.
func (s *clipScan) dominantExpression() (string, *float64) {
	if len(s.exprOrder) == 0 {
		return "", nil
	}
	bestLabel := ""
	bestMean := math.Inf(-1)
	for _, label := range s.exprOrder {
		if m := mean(s.exprScores[label]); m > bestMean {
			bestMean = m
			bestLabel = label
		}
	}
	return bestLabel, floatPtr(bestMean)
}

func (s *clipScan) buildTags(path string, motionNorm *float64, faceRatio float64, expressionLabel string, mouthScore, headMotion *float64) []string {
	var tags []string
	if motionNorm != nil {
		switch {
		case *motionNorm < 0.01:
			tags = append(tags, "still")
		case *motionNorm < 0.03:
			tags = append(tags, "calm")
		case *motionNorm < 0.07:
			tags = append(tags, "animated")
		default:
			tags = append(tags, "energetic")
		}
	}
	if faceRatio > 0.3 {
		tags = append(tags, "has_face")
	} else {
		tags = append(tags, "no_face")
	}
	if expressionLabel != "" {
		tags = append(tags, "expr:"+expressionLabel)
	} else if faceRatio > 0 {
		tags = append(tags, "neutral_face")
	}
	if mouthScore != nil && *mouthScore > 8 {
		tags = append(tags, "smiling")
	}
	if headMotion != nil && *headMotion > 0.12 {
		tags = append(tags, "head_motion")
	}
	if folder := folderTag(path); folder != "" && !slices.Contains(tags, folder) {
		tags = append(tags, folder)
	}
	return tags
}

// cropRGB copies a box of the packed RGB24 frame into a standalone image for
// the expression classifier.
func cropRGB(rgb []byte, width int, box vision.Box) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, box.W, box.H))
	for y := 0; y < box.H; y++ {
		srcRow := (box.Y + y) * width
		for x := 0; x < box.W; x++ {
			src := (srcRow + box.X + x) * 3
			dst := y*img.Stride + x*4
			img.Pix[dst] = rgb[src]
			img.Pix[dst+1] = rgb[src+1]
			img.Pix[dst+2] = rgb[src+2]
			img.Pix[dst+3] = 0xff
		}
	}
	return img
}

func folderTag(path string) string {
	folder := strings.ToLower(strings.TrimSpace(filepath.Base(filepath.Dir(path))))
	if folder == "." || folder == string(filepath.Separator) {
		return ""
	}
	return folder
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func nilableInt(v int) any {
	if v < 0 {
		return nil
	}
	return v
}

func nilableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nilableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}
