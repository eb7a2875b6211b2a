package vector

import (
	"context"
	"log/slog"
	"sort"
	"unicode/utf8"

	"github.com/tripnexus/tripnexus/internal/llm"
)

// Retrieval defaults: top-k matches, and the minimum chunk length (in
// runes) below which a match is considered uninformative and dropped.
const (
	DefaultTopK        = 3
	DefaultMinChunkLen = 50
)

// Retriever answers similarity queries over the stored guide chunks.
type Retriever struct {
	provider    llm.Provider
	repo        Repository
	topK        int
	minChunkLen int
	logger      *slog.Logger
}

// NewRetriever creates a Retriever with the given limits; zero values use
// the defaults.
func NewRetriever(provider llm.Provider, repo Repository, topK, minChunkLen int) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if minChunkLen <= 0 {
		minChunkLen = DefaultMinChunkLen
	}
	return &Retriever{
		provider:    provider,
		repo:        repo,
		topK:        topK,
		minChunkLen: minChunkLen,
		logger:      slog.Default(),
	}
}

// Retrieve returns the texts of the chunks most similar to the query, in
// rank order. A store failure degrades to an empty context rather than
// aborting the pipeline; the failure is logged. Near-empty fragments are
// filtered out.
func (r *Retriever) Retrieve(ctx context.Context, query string) []string {
	if r.provider == nil {
		r.logger.Warn("no embedding backend configured, continuing without context")
		return nil
	}
	vectors, err := r.provider.Embed(ctx, []string{query})
	if err != nil || len(vectors) == 0 {
		r.logger.Warn("query embedding failed, continuing without context", "error", err)
		return nil
	}

	results, err := r.repo.Search(ctx, vectors[0], r.topK)
	if err != nil {
		r.logger.Warn("vector search failed, continuing without context", "error", err)
		return nil
	}

	// Re-rank defensively: descending score, insertion order on ties.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Seq < results[j].Seq
	})

	var texts []string
	for _, res := range results {
		if utf8.RuneCountInString(res.Content) < r.minChunkLen {
			continue
		}
		texts = append(texts, res.Content)
	}
	return texts
}
