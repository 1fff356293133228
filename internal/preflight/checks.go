package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"vignette/internal/config"
	"vignette/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckTools evaluates the external tools and model files vignette needs.
// Both the deps command and RunAll use this to avoid duplicating the
// requirements list. Model files are only checked when a path is configured,
// since the analyzer treats unconfigured models as disabled features.
func CheckTools(cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Decodes clip frames for analysis",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Probes stream metadata",
		},
	})

	var files []deps.FileRequirement
	if strings.TrimSpace(cfg.Analyzer.FaceCascadePath) != "" {
		files = append(files, deps.FileRequirement{
			Name:        "Face cascade",
			Path:        cfg.Analyzer.FaceCascadePath,
			Description: "Enables face-aware clip weighting",
			Optional:    true,
		})
	}
	if strings.TrimSpace(cfg.Analyzer.ExpressionModelPath) != "" {
		files = append(files, deps.FileRequirement{
			Name:        "Expression model",
			Path:        cfg.Analyzer.ExpressionModelPath,
			Description: "Enables expression tagging",
			Optional:    true,
		})
	}
	return append(statuses, deps.CheckFiles(files)...)
}
