package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"gameradar/internal/core"
)

func TestMemoryStoreLoadSave(t *testing.T) {
	s := New()
	if _, ok, err := s.Load(context.Background()); ok || err != nil {
		t.Fatalf("expected absent state, got ok=%v err=%v", ok, err)
	}

	st := core.Store{Categories: []core.Category{
		{ID: "d", Name: "Default", Games: []core.Game{{PlaceID: "1", UniverseID: "9"}}},
	}}
	if err := s.Save(context.Background(), st); err != nil {
		t.Fatalf("save: %v", err)
	}

	// Mutating the caller's copy must not leak into the saved state.
	st.Categories[0].Games[0].Name = "mutated"

	got, ok, err := s.Load(context.Background())
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if got.Categories[0].Games[0].Name != "" {
		t.Fatalf("saved state aliased caller memory")
	}
	if s.Saves() != 1 {
		t.Fatalf("expected 1 save, got %d", s.Saves())
	}
}

func TestMemoryStoreRejectsNil(t *testing.T) {
	if err := New().Save(context.Background(), core.Store{}); err == nil {
		t.Fatalf("expected error for nil category list")
	}
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file -> empty
	if _, ok, _ := NewFromFile(filepath.Join(dir, "nope.json")).Load(context.Background()); ok {
		t.Fatalf("expected absent state for missing file")
	}

	path := filepath.Join(dir, "seed.json")
	mustWrite := func(content string) {
		t.Helper()
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	mustWrite("{not json")
	if _, ok, _ := NewFromFile(path).Load(context.Background()); ok {
		t.Fatalf("expected absent state for corrupt file")
	}

	mustWrite(`{"categories":[{"id":"a","name":"Default","games":[{"placeId":"5","universeId":"6"}]}]}`)
	got, ok, _ := NewFromFile(path).Load(context.Background())
	if !ok || len(got.Categories) != 1 || got.Categories[0].Games[0].UniverseID != "6" {
		t.Fatalf("unexpected seeded state: %+v ok=%v", got, ok)
	}
}
