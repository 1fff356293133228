package testsupport

import (
	"context"
	"testing"

	"vignette/internal/assets"
	"vignette/internal/clipstore"
	"vignette/internal/config"
)

// MustOpenClipStore opens a clipstore.Store for tests and registers cleanup.
func MustOpenClipStore(t testing.TB, cfg *config.Config) *clipstore.Store {
	t.Helper()

	store, err := clipstore.Open(cfg)
	if err != nil {
		t.Fatalf("clipstore.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenRegistry opens an assets.Registry for tests and registers cleanup.
func MustOpenRegistry(t testing.TB, cfg *config.Config) *assets.Registry {
	t.Helper()

	registry, err := assets.Open(cfg)
	if err != nil {
		t.Fatalf("assets.Open: %v", err)
	}
	t.Cleanup(func() {
		registry.Close()
	})
	return registry
}

// UpsertClip stores a clip record for tests using the provided store.
func UpsertClip(t testing.TB, store *clipstore.Store, record *clipstore.Record) *clipstore.Record {
	t.Helper()

	stored, err := store.Upsert(context.Background(), record)
	if err != nil {
		t.Fatalf("store.Upsert: %v", err)
	}
	return stored
}
