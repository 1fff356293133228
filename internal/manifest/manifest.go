// Package manifest parses and discovers emotion package manifests. A package
// is a directory carrying an asset.json that groups loop clips under named
// intents and declares which personas, tones, and contexts it serves.
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// PackageType is the manifest type string that marks an emotion package.
const PackageType = "emotion_package"

// Intent groups the media paths served under one intent name.
type Intent struct {
	Paths    []string       `json:"paths"`
	Weight   float64        `json:"weight"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Package is a parsed emotion package manifest.
type Package struct {
	UUID           string            `json:"uuid"`
	Name           string            `json:"name"`
	Type           string            `json:"type"`
	Version        string            `json:"version"`
	Tags           []string          `json:"tags,omitempty"`
	Path           string            `json:"path"`
	ManifestPath   string            `json:"manifest_path"`
	Metadata       map[string]any    `json:"metadata,omitempty"`
	PersonaIDs     []string          `json:"persona_ids,omitempty"`
	ContextTags    []string          `json:"context_tags,omitempty"`
	SupportedTones []string          `json:"supported_tones,omitempty"`
	Intents        map[string]Intent `json:"intents"`
}

// Intent returns the named intent configuration.
func (p Package) Intent(name string) (Intent, bool) {
	intent, ok := p.Intents[name]
	return intent, ok
}

// knownKeys are lifted into struct fields; everything else in the manifest
// lands in Metadata untouched.
var knownKeys = map[string]struct{}{
	"uuid":    {},
	"name":    {},
	"type":    {},
	"version": {},
	"tags":    {},
}

// PackageFromMap builds a Package from decoded manifest JSON. Parsing is
// deliberately tolerant: scalar values are accepted where lists are expected,
// a singular "path" substitutes for "paths", and malformed weights fall back
// to 1.0. Only a missing uuid is fatal.
func PackageFromMap(data map[string]any, rootPath, manifestPath string) (Package, error) {
	raw, ok := data["uuid"]
	if !ok {
		return Package{}, errors.New("manifest missing uuid")
	}

	pkg := Package{
		UUID:           coerceString(raw),
		Name:           coerceString(data["name"]),
		Type:           coerceString(data["type"]),
		Version:        coerceString(data["version"]),
		Tags:           stringList(data["tags"]),
		Path:           rootPath,
		ManifestPath:   manifestPath,
		Metadata:       extraKeys(data, knownKeys),
		ContextTags:    stringList(data["context_tags"]),
		SupportedTones: stringList(data["supported_tones"]),
		Intents:        map[string]Intent{},
	}

	pkg.PersonaIDs = stringList(data["persona_ids"])
	if len(pkg.PersonaIDs) == 0 && data["persona_id"] != nil {
		pkg.PersonaIDs = stringList(data["persona_id"])
	}

	if intents, ok := data["intents"].(map[string]any); ok {
		for name, payload := range intents {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			pkg.Intents[name] = intentFromPayload(payload)
		}
	}

	return pkg, nil
}

func intentFromPayload(payload any) Intent {
	switch value := payload.(type) {
	case map[string]any:
		rawPaths := value["paths"]
		if rawPaths == nil {
			if single, ok := value["path"]; ok {
				rawPaths = []any{single}
			}
		}
		return Intent{
			Paths:  stringList(rawPaths),
			Weight: coerceFloat(value["weight"], 1.0),
			Metadata: extraKeys(value, map[string]struct{}{
				"paths": {}, "path": {}, "weight": {},
			}),
		}
	default:
		return Intent{Paths: stringList(payload), Weight: 1.0}
	}
}

// stringList coerces a decoded JSON value into a trimmed, non-empty string
// slice. Scalars become single-element lists.
func stringList(value any) []string {
	var out []string
	appendValue := func(v any) {
		if text := strings.TrimSpace(coerceString(v)); text != "" {
			out = append(out, text)
		}
	}
	switch v := value.(type) {
	case nil:
	case []any:
		for _, item := range v {
			appendValue(item)
		}
	case []string:
		for _, item := range v {
			appendValue(item)
		}
	default:
		appendValue(v)
	}
	return out
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case json.Number:
		return v.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func coerceFloat(value any, fallback float64) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return fallback
}

func extraKeys(data map[string]any, exclude map[string]struct{}) map[string]any {
	extra := map[string]any{}
	for key, value := range data {
		if _, skip := exclude[key]; skip {
			continue
		}
		extra[key] = value
	}
	return extra
}
