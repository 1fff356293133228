package manifest

import (
	"slices"
	"testing"
)

func TestPackageFromMapFullManifest(t *testing.T) {
	data := map[string]any{
		"uuid":            "pkg-1",
		"name":            "Calm Loops",
		"type":            "emotion_package",
		"version":         "1.2",
		"tags":            []any{" ambient ", "", "loops"},
		"persona_ids":     []any{"p1", "p2"},
		"context_tags":    []any{"night", "rain"},
		"supported_tones": []any{"calm"},
		"author":          "studio",
		"intents": map[string]any{
			"idle": map[string]any{
				"paths":  []any{"idle/a", "idle/b"},
				"weight": 2.5,
				"note":   "primary",
			},
			"greet": []any{"greet/open.mp4"},
			"wave":  "wave.mp4",
			"  ":    "ignored.mp4",
		},
	}

	pkg, err := PackageFromMap(data, "/lib/calm", "/lib/calm/asset.json")
	if err != nil {
		t.Fatalf("PackageFromMap: %v", err)
	}

	if pkg.UUID != "pkg-1" || pkg.Name != "Calm Loops" || pkg.Version != "1.2" {
		t.Fatalf("identity fields = %q/%q/%q", pkg.UUID, pkg.Name, pkg.Version)
	}
	if !slices.Equal(pkg.Tags, []string{"ambient", "loops"}) {
		t.Fatalf("tags = %v", pkg.Tags)
	}
	if !slices.Equal(pkg.PersonaIDs, []string{"p1", "p2"}) {
		t.Fatalf("persona ids = %v", pkg.PersonaIDs)
	}
	if pkg.Path != "/lib/calm" || pkg.ManifestPath != "/lib/calm/asset.json" {
		t.Fatalf("paths = %q / %q", pkg.Path, pkg.ManifestPath)
	}
	if pkg.Metadata["author"] != "studio" {
		t.Fatalf("metadata should keep unknown keys, got %v", pkg.Metadata)
	}
	if _, found := pkg.Metadata["uuid"]; found {
		t.Fatal("metadata should not duplicate known keys")
	}

	if len(pkg.Intents) != 3 {
		t.Fatalf("intents = %v, want 3 entries", pkg.Intents)
	}
	idle := pkg.Intents["idle"]
	if idle.Weight != 2.5 || !slices.Equal(idle.Paths, []string{"idle/a", "idle/b"}) {
		t.Fatalf("idle intent = %+v", idle)
	}
	if idle.Metadata["note"] != "primary" {
		t.Fatalf("intent metadata = %v", idle.Metadata)
	}
	greet := pkg.Intents["greet"]
	if greet.Weight != 1.0 || !slices.Equal(greet.Paths, []string{"greet/open.mp4"}) {
		t.Fatalf("greet intent = %+v", greet)
	}
	wave := pkg.Intents["wave"]
	if !slices.Equal(wave.Paths, []string{"wave.mp4"}) {
		t.Fatalf("scalar intent payload should become one path, got %+v", wave)
	}
}

func TestPackageFromMapMissingUUID(t *testing.T) {
	if _, err := PackageFromMap(map[string]any{"name": "x"}, "/lib", "/lib/asset.json"); err == nil {
		t.Fatal("expected error for missing uuid")
	}
}

func TestPackageFromMapTolerantCoercions(t *testing.T) {
	data := map[string]any{
		"uuid":       float64(42),
		"persona_id": "solo",
		"intents": map[string]any{
			"idle": map[string]any{
				"path":   "single.mp4",
				"weight": "oops",
			},
			"greet": map[string]any{
				"paths":  "one.mp4",
				"weight": "2",
			},
		},
	}

	pkg, err := PackageFromMap(data, "/lib", "/lib/asset.json")
	if err != nil {
		t.Fatalf("PackageFromMap: %v", err)
	}
	if pkg.UUID != "42" {
		t.Fatalf("numeric uuid should stringify, got %q", pkg.UUID)
	}
	if !slices.Equal(pkg.PersonaIDs, []string{"solo"}) {
		t.Fatalf("persona_id fallback = %v", pkg.PersonaIDs)
	}

	idle := pkg.Intents["idle"]
	if !slices.Equal(idle.Paths, []string{"single.mp4"}) {
		t.Fatalf("singular path fallback = %v", idle.Paths)
	}
	if idle.Weight != 1.0 {
		t.Fatalf("malformed weight should fall back to 1.0, got %f", idle.Weight)
	}
	greet := pkg.Intents["greet"]
	if !slices.Equal(greet.Paths, []string{"one.mp4"}) {
		t.Fatalf("string paths value = %v", greet.Paths)
	}
	if greet.Weight != 2.0 {
		t.Fatalf("numeric string weight = %f, want 2.0", greet.Weight)
	}
}

func TestIntentLookup(t *testing.T) {
	pkg := Package{Intents: map[string]Intent{"idle": {Weight: 1}}}
	if _, ok := pkg.Intent("idle"); !ok {
		t.Fatal("declared intent should resolve")
	}
	if _, ok := pkg.Intent("missing"); ok {
		t.Fatal("undeclared intent should not resolve")
	}
}

func TestStaticProviderCopiesPackages(t *testing.T) {
	provider := NewStaticProvider(Package{UUID: "a"}, Package{UUID: "b"})
	got := provider.Packages()
	if len(got) != 2 || got[0].UUID != "a" || got[1].UUID != "b" {
		t.Fatalf("packages = %v", got)
	}

	got[0].UUID = "mutated"
	if provider.Packages()[0].UUID != "a" {
		t.Fatal("provider should hand out copies")
	}

	provider.Replace(Package{UUID: "c"})
	if replaced := provider.Packages(); len(replaced) != 1 || replaced[0].UUID != "c" {
		t.Fatalf("replaced packages = %v", replaced)
	}
}
