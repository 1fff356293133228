package preflight

import (
	"vignette/internal/config"
	"vignette/internal/deps"
)

// Result reports the outcome of a single preflight check. Optional marks
// checks whose failure degrades a feature rather than blocking operation.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Data and log directories (always checked)
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	// Library roots
	for _, dir := range cfg.Paths.LibraryDirs {
		results = append(results, CheckDirectoryAccess("Library root", dir))
	}

	// Thumbnail cache
	if cfg.Thumbnails.Enabled {
		results = append(results, CheckDirectoryAccess("Thumbnail cache", cfg.Thumbnails.Dir))
	}

	// External tools and analyzer model files
	for _, status := range CheckTools(cfg) {
		results = append(results, resultFromStatus(status))
	}

	return results
}

func resultFromStatus(status deps.Status) Result {
	if status.Available {
		return Result{Name: status.Name, Passed: true, Detail: status.Command, Optional: status.Optional}
	}
	return Result{Name: status.Name, Detail: status.Detail, Optional: status.Optional}
}
