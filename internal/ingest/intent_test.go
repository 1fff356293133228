package ingest

import (
	"path/filepath"
	"slices"
	"testing"

	"vignette/internal/clipstore"
	"vignette/internal/manifest"
	"vignette/internal/testsupport"
)

func TestCollectIntentFilesMixesFilesAndDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	pkgDir := filepath.Join(cfg.Paths.LibraryDirs[0], "pack")
	testsupport.WriteClip(t, filepath.Join(pkgDir, "clips", "a.mp4"), "a")
	testsupport.WriteClip(t, filepath.Join(pkgDir, "clips", "nested", "b.webm"), "b")
	testsupport.WriteClip(t, filepath.Join(pkgDir, "clips", "cover.png"), "not video")
	testsupport.WriteClip(t, filepath.Join(pkgDir, "single.mov"), "c")
	testsupport.WriteClip(t, filepath.Join(pkgDir, "readme.txt"), "text")

	svc := New(cfg, clipstore.NewMemory(), nil, nil, nil)
	defer svc.Close()

	pkg := manifest.Package{UUID: "pkg", Path: pkgDir}
	files := svc.collectIntentFiles(svc.logger, pkg, manifest.Intent{
		Paths: []string{"clips", "single.mov", "readme.txt", "missing-dir"},
	})
	slices.Sort(files)

	want := []string{
		filepath.Join(pkgDir, "clips", "a.mp4"),
		filepath.Join(pkgDir, "clips", "nested", "b.webm"),
		filepath.Join(pkgDir, "single.mov"),
	}
	slices.Sort(want)
	if !slices.Equal(files, want) {
		t.Fatalf("files = %v, want %v", files, want)
	}
}

func TestMergeMetadataAnalysisWinsOnConflict(t *testing.T) {
	base := map[string]any{"intent_weight": 2.0, "package_tones": []string{"soft"}}
	extra := map[string]any{"intent_weight": 9.0, "frame_count": 120}

	merged := mergeMetadata(base, extra)
	if merged["intent_weight"] != 9.0 {
		t.Fatalf("intent_weight = %v, want analysis value", merged["intent_weight"])
	}
	if merged["frame_count"] != 120 {
		t.Fatalf("frame_count = %v", merged["frame_count"])
	}
	if _, ok := merged["package_tones"]; !ok {
		t.Fatal("package_tones missing from merge")
	}
	if base["intent_weight"] != 2.0 {
		t.Fatal("merge mutated the base map")
	}
}
