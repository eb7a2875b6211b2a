// Package vector provides embedding storage, similarity search, and the
// retrieval layer that assembles generation context from stored guide
// chunks.
package vector

import "context"

// Document is a chunk of guide text with its embedding. Seq is the
// insertion sequence within the collection; it breaks similarity ties
// (earlier wins) and is assigned by the repository on upsert.
type Document struct {
	ID       string
	Content  string
	Vector   []float32
	Metadata map[string]string
	Seq      int64
}

// SearchResult is a single match from a similarity search.
type SearchResult struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]string
	Seq      int64
}

// Repository provides durable vector storage and similarity search for one
// named collection. Records are append-only: re-ingesting the same source
// produces duplicates rather than overwrites.
type Repository interface {
	// Upsert appends documents to the collection as one scoped write.
	Upsert(ctx context.Context, docs []Document) error
	// Search finds the top-k most similar documents by cosine similarity,
	// ranked descending, ties broken by insertion order.
	Search(ctx context.Context, vector []float32, topK int) ([]SearchResult, error)
	// Close releases resources.
	Close() error
}
