package config

import "runtime"

const (
	defaultLibraryDir            = "~/.local/share/vignette/packages"
	defaultDataDir               = "~/.local/share/vignette"
	defaultLogDir                = "~/.local/share/vignette/logs"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultMaxFrames             = 360
	defaultFaceStride            = 3
	defaultExpressionInputSize   = 224
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultWatchDebounceSeconds  = 2
	defaultThumbnailSize         = 256
	defaultThumbnailCacheEntries = 2048
	defaultThumbnailDir          = "~/.local/share/vignette/thumbs"
	maxAutoWorkers               = 4
)

// ImageNet normalization constants used by the expression classifier.
var (
	defaultExpressionMean = []float64{0.485, 0.456, 0.406}
	defaultExpressionStd  = []float64{0.229, 0.224, 0.225}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDirs: []string{defaultLibraryDir},
			DataDir:     defaultDataDir,
			LogDir:      defaultLogDir,
		},
		Analyzer: Analyzer{
			ExpressionInputSize: defaultExpressionInputSize,
			ExpressionMean:      append([]float64(nil), defaultExpressionMean...),
			ExpressionStd:       append([]float64(nil), defaultExpressionStd...),
			MaxFrames:           defaultMaxFrames,
			FaceStride:          defaultFaceStride,
			FFmpegBinary:        defaultFFmpegBinary,
			FFprobeBinary:       defaultFFprobeBinary,
		},
		Ingest: Ingest{
			Workers:              min(maxAutoWorkers, runtime.NumCPU()),
			WatchDebounceSeconds: defaultWatchDebounceSeconds,
		},
		Thumbnails: Thumbnails{
			Enabled:      true,
			Size:         defaultThumbnailSize,
			CacheEntries: defaultThumbnailCacheEntries,
			Dir:          defaultThumbnailDir,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
