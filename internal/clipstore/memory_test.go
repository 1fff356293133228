package clipstore_test

import (
	"context"
	"testing"

	"vignette/internal/clipstore"
)

func TestMemoryMirrorsStoreSemantics(t *testing.T) {
	store := clipstore.NewMemory()
	ctx := context.Background()

	first, err := store.Upsert(ctx, sampleRecord("asset-a", "pkg-1", "idle"))
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	update := sampleRecord("asset-a", "pkg-1", "idle")
	update.Confidence = floatPtr(0.2)
	second, err := store.Upsert(ctx, update)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected stable id, got %d then %d", first.ID, second.ID)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatal("expected created_at preserved across upserts")
	}
	if second.Confidence == nil || *second.Confidence != 0.2 {
		t.Fatalf("expected confidence replaced, got %v", second.Confidence)
	}

	missing, err := store.Get(ctx, "nope", "pkg-1", "idle")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing row, got %#v", missing)
	}
}

func TestMemoryListClipsOrdersLikeStore(t *testing.T) {
	store := clipstore.NewMemory()
	ctx := context.Background()

	for _, key := range []struct{ asset, pkg, intent string }{
		{"asset-b", "pkg-2", "idle"},
		{"asset-c", "pkg-1", "idle"},
		{"asset-a", "pkg-1", "greet"},
		{"asset-a", "pkg-1", "idle"},
	} {
		if _, err := store.Upsert(ctx, sampleRecord(key.asset, key.pkg, key.intent)); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	all, err := store.ListClips(ctx, clipstore.Filter{})
	if err != nil {
		t.Fatalf("ListClips failed: %v", err)
	}
	var got []string
	for _, record := range all {
		got = append(got, record.PackageUUID+"/"+record.Intent+"/"+record.AssetID)
	}
	want := []string{
		"pkg-1/greet/asset-a",
		"pkg-1/idle/asset-a",
		"pkg-1/idle/asset-c",
		"pkg-2/idle/asset-b",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d clips, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d: got %s, want %s", i, got[i], want[i])
		}
	}

	filtered, err := store.ListClips(ctx, clipstore.Filter{PackageUUIDs: []string{"pkg-2"}, Intents: []string{"idle"}})
	if err != nil {
		t.Fatalf("ListClips failed: %v", err)
	}
	if len(filtered) != 1 || filtered[0].AssetID != "asset-b" {
		t.Fatalf("unexpected filter result: %#v", filtered)
	}
}

func TestMemoryIsolatesStoredRecords(t *testing.T) {
	store := clipstore.NewMemory()
	ctx := context.Background()

	original := sampleRecord("asset-a", "pkg-1", "idle")
	stored, err := store.Upsert(ctx, original)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	original.Tags[0] = "mutated"
	stored.Tags[1] = "mutated"
	stored.Metadata["expression_label"] = "mutated"

	fetched, err := store.Get(ctx, "asset-a", "pkg-1", "idle")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Tags[0] != "calm" || fetched.Tags[1] != "has_face" {
		t.Fatalf("stored record mutated through caller slices: %v", fetched.Tags)
	}
	if fetched.Metadata["expression_label"] != "happy" {
		t.Fatalf("stored record mutated through caller map: %v", fetched.Metadata)
	}
}

func TestMemoryRemoveMissing(t *testing.T) {
	store := clipstore.NewMemory()
	ctx := context.Background()

	for _, asset := range []string{"asset-a", "asset-b", "asset-c"} {
		if _, err := store.Upsert(ctx, sampleRecord(asset, "pkg-1", "idle")); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	removed, err := store.RemoveMissing(ctx, "pkg-1", "idle", []string{"asset-b"})
	if err != nil {
		t.Fatalf("RemoveMissing failed: %v", err)
	}
	if removed != 2 {
		t.Fatalf("expected 2 rows removed, got %d", removed)
	}

	remaining, err := store.ListClips(ctx, clipstore.Filter{})
	if err != nil {
		t.Fatalf("ListClips failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].AssetID != "asset-b" {
		t.Fatalf("expected asset-b to survive, got %#v", remaining)
	}
}
