package deps

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for unset command: %#v", results[2])
	}
}

func TestCheckFiles(t *testing.T) {
	dir := t.TempDir()
	model := filepath.Join(dir, "expression.onnx")
	if err := os.WriteFile(model, []byte("model"), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}

	results := CheckFiles([]FileRequirement{
		{Name: "Expression model", Path: model, Optional: true},
		{Name: "Face cascade", Path: filepath.Join(dir, "missing.cascade")},
		{Name: "Directory", Path: dir},
		{Name: "Unset", Path: ""},
	})
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected model file to be available, got %#v", results[0])
	}
	if !results[0].Optional {
		t.Fatal("optional flag not carried through")
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("unexpected status for missing file: %#v", results[1])
	}
	if results[2].Available {
		t.Fatal("directories must not satisfy a file requirement")
	}
	if results[3].Detail != "path not configured" {
		t.Fatalf("unexpected detail for unset path: %s", results[3].Detail)
	}
}
