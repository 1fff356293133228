package manifest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"vignette/internal/logging"
)

// ManifestFileName is the marker file that makes a directory an asset.
const ManifestFileName = "asset.json"

// Catalog is the result of a discovery pass: emotion packages in the order
// they were found, plus the problems encountered along the way.
type Catalog struct {
	packages map[string]Package
	order    []string
	seen     map[string]string
	errors   []string
	logger   *slog.Logger
}

// Discover walks the library directories looking for asset.json manifests.
// A manifest without a uuid gets one assigned and written back so the package
// keeps a stable identity across scans. Directories that yield a manifest are
// not descended into further. Broken manifests are logged and recorded but
// never abort the scan.
func Discover(dirs []string, logger *slog.Logger) *Catalog {
	c := &Catalog{
		packages: map[string]Package{},
		seen:     map[string]string{},
		logger:   logging.NewComponentLogger(logger, "manifest"),
	}
	for _, dir := range dirs {
		c.scanDir(dir)
	}
	return c
}

// Packages returns the discovered emotion packages in discovery order.
func (c *Catalog) Packages() []Package {
	out := make([]Package, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.packages[id])
	}
	return out
}

// Package looks up one package by uuid.
func (c *Catalog) Package(id string) (Package, bool) {
	pkg, ok := c.packages[id]
	return pkg, ok
}

// Len reports how many emotion packages were discovered.
func (c *Catalog) Len() int { return len(c.order) }

// Errors returns the problems encountered during discovery.
func (c *Catalog) Errors() []string {
	return append([]string(nil), c.errors...)
}

func (c *Catalog) scanDir(base string) {
	info, err := os.Stat(base)
	if err != nil || !info.IsDir() {
		return
	}
	walkErr := filepath.WalkDir(base, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			c.recordError(fmt.Sprintf("walk %s: %v", path, err))
			return nil
		}
		if !entry.IsDir() {
			return nil
		}
		manifestPath := filepath.Join(path, ManifestFileName)
		if _, statErr := os.Stat(manifestPath); statErr != nil {
			return nil
		}
		if c.loadManifest(path, manifestPath) {
			// A registered manifest owns its whole subtree.
			return fs.SkipDir
		}
		return nil
	})
	if walkErr != nil {
		c.recordError(fmt.Sprintf("walk %s: %v", base, walkErr))
	}
}

// loadManifest parses one manifest file and registers it. The return value
// reports whether the directory should stop being descended into, which only
// a successfully registered manifest earns.
func (c *Catalog) loadManifest(root, manifestPath string) bool {
	payload, err := os.ReadFile(manifestPath)
	if err != nil {
		c.recordError(fmt.Sprintf("read manifest %s: %v", manifestPath, err))
		return false
	}

	var data map[string]any
	if err := json.Unmarshal(payload, &data); err != nil {
		c.recordError(fmt.Sprintf("parse manifest %s: %v", manifestPath, err))
		return false
	}

	if _, ok := data["uuid"]; !ok {
		data["uuid"] = uuid.NewString()
		if err := writeManifest(manifestPath, data); err != nil {
			c.recordError(fmt.Sprintf("assign uuid to %s: %v", manifestPath, err))
			return false
		}
		c.logger.Info("assigned uuid to manifest",
			logging.String("manifest", manifestPath),
			logging.String(logging.FieldPackageUUID, coerceString(data["uuid"])))
	}

	id := coerceString(data["uuid"])
	if previous, dup := c.seen[id]; dup {
		c.recordError(fmt.Sprintf("duplicate asset uuid %s: %s (already registered from %s)", id, manifestPath, previous))
		return false
	}

	if strings.TrimSpace(coerceString(data["type"])) != PackageType {
		// Other asset types claim their uuid and directory but are not ours.
		c.seen[id] = manifestPath
		return true
	}

	pkg, err := PackageFromMap(data, root, manifestPath)
	if err != nil {
		c.recordError(fmt.Sprintf("parse manifest %s: %v", manifestPath, err))
		return false
	}

	c.seen[id] = manifestPath
	c.packages[id] = pkg
	c.order = append(c.order, id)
	c.logger.Debug("discovered emotion package",
		logging.String(logging.FieldPackageUUID, pkg.UUID),
		logging.String("name", pkg.Name),
		logging.Int("intents", len(pkg.Intents)))
	return true
}

func (c *Catalog) recordError(message string) {
	c.logger.Error(message)
	c.errors = append(c.errors, message)
}

func writeManifest(path string, data map[string]any) error {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}
