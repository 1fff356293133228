// Package analysis derives loop points, motion statistics, and optional face
// and expression signals from short video clips. A scan never fails: clips
// that cannot be probed or decoded produce an empty Result so ingestion can
// move on to the next file.
package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"vignette/internal/config"
	"vignette/internal/logging"
	"vignette/internal/media/ffprobe"
	"vignette/internal/media/rawvideo"
	"vignette/internal/vision"
)

const (
	minMaxFrames  = 60
	minFaceStride = 1
)

// Analyzer scans clips with the models configured at construction time.
// Instances are not safe for concurrent use; ingestion gives each worker its
// own Analyzer.
type Analyzer struct {
	logger     *slog.Logger
	ffmpegBin  string
	ffprobeBin string
	maxFrames  int
	faceStride int
	detector   *vision.FaceDetector
	classifier *vision.ExpressionClassifier
}

// New builds an Analyzer from the application config. Missing or broken model
// assets are logged and skipped so motion and loop analysis still run.
func New(cfg *config.Config, logger *slog.Logger) *Analyzer {
	log := logging.NewComponentLogger(logger, "analyzer")
	a := &Analyzer{
		logger:     log,
		ffmpegBin:  cfg.FFmpegBinary(),
		ffprobeBin: cfg.FFprobeBinary(),
		maxFrames:  maxInt(minMaxFrames, cfg.Analyzer.MaxFrames),
		faceStride: maxInt(minFaceStride, cfg.Analyzer.FaceStride),
	}

	if path := cfg.Analyzer.FaceCascadePath; path != "" {
		detector, err := vision.NewFaceDetector(path)
		if err != nil {
			log.Warn("face detection disabled", logging.String("cascade", path), logging.Error(err))
		} else {
			a.detector = detector
		}
	}

	if path := cfg.Analyzer.ExpressionModelPath; path != "" {
		classifier, err := vision.NewExpressionClassifier(vision.ExpressionConfig{
			ModelPath: path,
			Labels:    cfg.Analyzer.ExpressionLabels,
			InputSize: cfg.Analyzer.ExpressionInputSize,
			Mean:      cfg.Analyzer.ExpressionMean,
			Std:       cfg.Analyzer.ExpressionStd,
		})
		if err != nil {
			log.Warn("expression classification disabled", logging.String("model", path), logging.Error(err))
		} else {
			a.classifier = classifier
		}
	}

	return a
}

// FaceDetectionEnabled reports whether a face cascade loaded.
func (a *Analyzer) FaceDetectionEnabled() bool { return a.detector != nil }

// ExpressionEnabled reports whether the expression model loaded.
func (a *Analyzer) ExpressionEnabled() bool { return a.classifier != nil }

// Close releases model resources held by the analyzer.
func (a *Analyzer) Close() {
	if a == nil {
		return
	}
	a.classifier.Close()
	a.classifier = nil
}

// Analyze scans the clip at path. Unreadable or stream-less files yield an
// empty Result; a decode failure partway through keeps everything observed up
// to that point.
func (a *Analyzer) Analyze(ctx context.Context, path string) Result {
	logger := logging.WithContext(ctx, a.logger)

	probe, err := ffprobe.Inspect(ctx, a.ffprobeBin, path)
	if err != nil {
		logger.Debug("probe failed", logging.String("path", path), logging.Error(err))
		return Result{}
	}
	stream, ok := probe.PrimaryVideoStream()
	if !ok || stream.Width <= 0 || stream.Height <= 0 {
		logger.Debug("no decodable video stream", logging.String("path", path))
		return Result{}
	}

	fps := stream.FrameRate()
	frameCount := stream.FrameCount(probe.DurationSeconds())

	reader, err := rawvideo.Open(ctx, a.ffmpegBin, path, stream.Width, stream.Height)
	if err != nil {
		logger.Debug("decoder start failed", logging.String("path", path), logging.Error(err))
		return Result{}
	}
	defer reader.Close()

	scan := newClipScan(stream.Width, stream.Height, a.maxFrames, a.faceStride, a.scanDetector(), a.scanClassifier())

	var frame []byte
	for {
		frame, err = reader.Next(frame)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Debug("decode interrupted",
				logging.String("path", path),
				logging.Int("frames", reader.Frames()),
				logging.Error(err))
			break
		}
		scan.observe(frame)
	}

	result := scan.finalize(path, frameCount, fps)
	logger.Debug("clip analyzed",
		logging.String("path", path),
		logging.Int("sampled", scan.sampleCount),
		logging.Int("decoded", reader.Frames()))
	return result
}

// scanDetector returns the detector as the scan-facing interface, keeping the
// nil check meaningful through the interface conversion.
func (a *Analyzer) scanDetector() faceDetector {
	if a.detector == nil {
		return nil
	}
	return a.detector
}

func (a *Analyzer) scanClassifier() expressionClassifier {
	if a.classifier == nil {
		return nil
	}
	return a.classifier
}
