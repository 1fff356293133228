package deps

import (
	"fmt"
	"os"
	"strings"
)

// FileRequirement defines a model or data file the analyzer loads at runtime,
// such as the face cascade or the expression ONNX model.
type FileRequirement struct {
	Name        string
	Path        string
	Description string
	Optional    bool
}

// CheckFiles reports whether each required file exists and is a regular file.
func CheckFiles(requirements []FileRequirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		path := strings.TrimSpace(req.Path)
		status := Status{
			Name:        req.Name,
			Command:     path,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if path == "" {
			status.Detail = "path not configured"
			results = append(results, status)
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			status.Detail = fmt.Sprintf("file %q not found", path)
			results = append(results, status)
			continue
		}
		if info.IsDir() {
			status.Detail = fmt.Sprintf("%q is a directory", path)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}
