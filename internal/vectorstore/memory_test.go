package vectorstore

import (
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/vecgate/internal/errortypes"
	"github.com/hyperjump/vecgate/internal/models"
)

func TestMemoryStore_SnapshotRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snap", "vectors.bin")
	ctx := context.Background()

	s, err := NewMemoryStore(path)
	if err != nil {
		t.Fatal(err)
	}
	_ = s.CreateCollection(ctx, "alice", 3, models.MetricCosine)
	_ = s.CreateCollection(ctx, "bob", 2, models.MetricCosine)
	if err := s.Upsert(ctx, "alice", []models.VectorRecord{
		record("a", []float32{1, 0, 0}, "first", 0),
		record("b", []float32{0, 1, 0}, "second", 1),
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}

	restored, err := NewMemoryStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := restored.CollectionExists(ctx, "bob"); !ok {
		t.Error("empty collection bob not restored")
	}
	hits, err := restored.Search(ctx, "alice", []float32{0, 1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].ID != "b" || hits[0].Document() != "second" {
		t.Errorf("hits: %+v", hits)
	}
	if err := restored.Upsert(ctx, "alice", []models.VectorRecord{record("c", []float32{1, 1}, "x", 0)}); err == nil {
		t.Error("restored collection should keep its dimensions")
	}
}

func TestMemoryStore_LoadMissingFile(t *testing.T) {
	s, err := NewMemoryStore(filepath.Join(t.TempDir(), "none.bin"))
	if err != nil {
		t.Fatal(err)
	}
	if ok, _ := s.CollectionExists(context.Background(), "alice"); ok {
		t.Error("expected empty store")
	}
}

func TestMemoryStore_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte{1, 0, 0, 0, 9}, 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewMemoryStore(path); err == nil {
		t.Error("expected error for truncated snapshot")
	}
}

func TestMemoryStore_LoadRejectsOversizedLengths(t *testing.T) {
	le := func(v uint32) []byte { return binary.LittleEndian.AppendUint32(nil, v) }
	name := func(s string) []byte { return append(le(uint32(len(s))), s...) }
	tests := []struct {
		name string
		data []byte
	}{
		{"huge name length", append(le(1), le(0xFFFFFFF0)...)},
		{"huge dimensions", append(append(le(1), name("alice")...), le(0xFFFFFFFF)...)},
		{"zero dimensions", append(append(le(1), name("alice")...), le(0)...)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.bin")
			if err := os.WriteFile(path, tt.data, 0600); err != nil {
				t.Fatal(err)
			}
			_, err := NewMemoryStore(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errortypes.Is(err, errortypes.KindStore) {
				t.Errorf("expected store error, got %v", err)
			}
		})
	}
}

func TestMemoryStore_SaveReportsUnwritablePath(t *testing.T) {
	dir := t.TempDir()
	s, err := NewMemoryStore("")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Save(dir); err == nil {
		t.Error("expected error saving over a directory")
	}
}

func TestMemoryStore_SearchReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := NewMemoryStore("")
	_ = s.CreateCollection(ctx, "alice", 2, models.MetricCosine)
	_ = s.Upsert(ctx, "alice", []models.VectorRecord{record("a", []float32{1, 0}, "doc", 0)})
	hits, _ := s.Search(ctx, "alice", []float32{1, 0}, 1)
	hits[0].Payload[models.PayloadDocument] = "mutated"
	again, _ := s.Search(ctx, "alice", []float32{1, 0}, 1)
	if again[0].Document() != "doc" {
		t.Errorf("stored payload changed: %q", again[0].Document())
	}
}
