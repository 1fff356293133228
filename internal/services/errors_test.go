package services_test

import (
	"errors"
	"strings"
	"testing"

	"vignette/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "analyzer", "decode", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"analyzer", "decode", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "ingest", "walk", "lost", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		marker error
		want   string
	}{
		{services.ErrValidation, "validation"},
		{services.ErrConfiguration, "configuration"},
		{services.ErrNotFound, "not found"},
		{services.ErrExternalTool, "external tool"},
		{services.ErrTimeout, "timeout"},
		{services.ErrTransient, "transient"},
	}
	for _, tc := range cases {
		err := services.Wrap(tc.marker, "selector", "load", "", nil)
		if got := services.Classify(err); got != tc.want {
			t.Fatalf("Classify(%v) = %q, want %q", tc.marker, got, tc.want)
		}
	}
	if got := services.Classify(errors.New("plain")); got != "error" {
		t.Fatalf("Classify(plain) = %q, want error", got)
	}
}
