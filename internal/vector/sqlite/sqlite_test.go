package sqlite

import (
	"context"
	"testing"

	"github.com/tripnexus/tripnexus/internal/vector"
)

func openTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(t.TempDir(), "test_guides")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestUpsertAndSearch_RanksByCosine(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	err := repo.Upsert(ctx, []vector.Document{
		{ID: "a", Content: "chunk a", Vector: []float32{1, 0}},
		{ID: "b", Content: "chunk b", Vector: []float32{0, 1}},
		{ID: "c", Content: "chunk c", Vector: []float32{0.9, 0.1}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := repo.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ID != "a" || results[1].ID != "c" {
		t.Errorf("unexpected ranking: %s, %s", results[0].ID, results[1].ID)
	}
	if results[0].Score < results[1].Score {
		t.Error("scores must be descending")
	}
}

func TestSearch_TieKeepsInsertionOrder(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	// Same direction, same cosine score; the earlier insert must rank first.
	err := repo.Upsert(ctx, []vector.Document{
		{ID: "early", Content: "early chunk", Vector: []float32{1, 0}},
		{ID: "late", Content: "late chunk", Vector: []float32{2, 0}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := repo.Search(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if results[0].ID != "early" {
		t.Errorf("tie should keep insertion order, got %s first", results[0].ID)
	}
	if results[0].Seq >= results[1].Seq {
		t.Errorf("sequence numbers not increasing: %d, %d", results[0].Seq, results[1].Seq)
	}
}

func TestSearch_EmptyCollection(t *testing.T) {
	repo := openTestRepo(t)

	results, err := repo.Search(context.Background(), []float32{1, 0}, 3)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestReingest_AppendsDuplicates(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	doc := vector.Document{ID: "a", Content: "same chunk", Vector: []float32{1, 0}}
	if err := repo.Upsert(ctx, []vector.Document{doc}); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, []vector.Document{doc}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	results, err := repo.Search(ctx, []float32{1, 0}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("re-ingestion should append, expected 2 records, got %d", len(results))
	}
}

func TestReopen_KeepsRecords(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := New(dir, "test_guides")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	err = repo.Upsert(ctx, []vector.Document{
		{ID: "a", Content: "durable chunk", Vector: []float32{1, 0}, Metadata: map[string]string{"source": "u"}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	repo.Close()

	reopened, err := New(dir, "test_guides")
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	results, err := reopened.Search(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("search after reopen: %v", err)
	}
	if len(results) != 1 || results[0].Content != "durable chunk" {
		t.Fatalf("expected the stored chunk after reopen, got %v", results)
	}
	if results[0].Metadata["source"] != "u" {
		t.Error("metadata lost across reopen")
	}
}

func TestCollections_AreIsolated(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a, err := New(dir, "collection_a")
	if err != nil {
		t.Fatalf("open a: %v", err)
	}
	defer a.Close()
	b, err := New(dir, "collection_b")
	if err != nil {
		t.Fatalf("open b: %v", err)
	}
	defer b.Close()

	if err := a.Upsert(ctx, []vector.Document{{ID: "x", Content: "in a", Vector: []float32{1}}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	results, err := b.Search(ctx, []float32{1}, 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("collection b must not see collection a's records, got %d", len(results))
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"identical", []float32{1, 0}, []float32{1, 0}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"scale invariant", []float32{1, 0}, []float32{5, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cosine(tt.a, tt.b)
			if got < tt.want-1e-6 || got > tt.want+1e-6 {
				t.Errorf("cosine(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestVectorCodec(t *testing.T) {
	in := []float32{0.25, -1.5, 3.25}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("element %d: %v != %v", i, in[i], out[i])
		}
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("expected error for truncated blob")
	}
}
