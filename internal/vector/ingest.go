package vector

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/tripnexus/tripnexus/internal/chunker"
	"github.com/tripnexus/tripnexus/internal/llm"
)

// Ingestor embeds guide chunks and appends them to the vector store.
type Ingestor struct {
	provider llm.Provider
	repo     Repository
}

// NewIngestor creates an Ingestor.
func NewIngestor(provider llm.Provider, repo Repository) *Ingestor {
	return &Ingestor{provider: provider, repo: repo}
}

// IngestChunks embeds the chunks of one source document and upserts them as
// a single batch. The source URL and chunk spans travel as metadata.
func (in *Ingestor) IngestChunks(ctx context.Context, source string, chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if in.provider == nil {
		return fmt.Errorf("no embedding backend configured")
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors, err := in.provider.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding: %w", err)
	}
	if len(vectors) != len(texts) {
		return fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}

	docs := make([]Document, len(chunks))
	for i, c := range chunks {
		docs[i] = Document{
			ID:      uuid.NewString(),
			Content: c.Text,
			Vector:  vectors[i],
			Metadata: map[string]string{
				"source": source,
				"start":  strconv.Itoa(c.Start),
				"end":    strconv.Itoa(c.End),
			},
		}
	}
	return in.repo.Upsert(ctx, docs)
}
