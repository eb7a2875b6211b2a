// Package pipeline wires the stages of one itinerary request: ingest
// guides, retrieve context, generate a validated plan, resolve
// coordinates. It holds no mutable state between requests beyond the
// injected vector store.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tripnexus/tripnexus/internal/chunker"
	"github.com/tripnexus/tripnexus/internal/compose"
	"github.com/tripnexus/tripnexus/internal/fetch"
	"github.com/tripnexus/tripnexus/internal/generate"
	"github.com/tripnexus/tripnexus/internal/geocode"
	"github.com/tripnexus/tripnexus/internal/itinerary"
	"github.com/tripnexus/tripnexus/internal/metrics"
	"github.com/tripnexus/tripnexus/internal/observability"
	"github.com/tripnexus/tripnexus/internal/vector"
)

// Pipeline coordinates one user request end to end.
type Pipeline struct {
	Fetcher   *fetch.Fetcher
	Splitter  *chunker.Splitter
	Ingestor  *vector.Ingestor
	Retriever *vector.Retriever
	Generator *generate.Generator
	Resolver  *geocode.Resolver
	Logger    *slog.Logger
	Metrics   *metrics.RunMetrics
}

// Ingest fetches, chunks, embeds, and stores the given guide URLs. A
// failure for one document is logged and skipped; it never aborts the
// batch.
func (p *Pipeline) Ingest(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	ctx, span := observability.StartStageSpan(ctx, "ingest")
	defer span.End()

	if p.Metrics != nil {
		p.Metrics.Ingest.URLsRequested += len(urls)
	}

	docs := p.Fetcher.FetchAll(ctx, urls)
	for _, doc := range docs {
		chunks := p.Splitter.Split(doc.Text)
		if err := p.Ingestor.IngestChunks(ctx, doc.URL, chunks); err != nil {
			p.logger().Warn("ingestion failed for document, skipping",
				"url", doc.URL, "chunks", len(chunks), "error", err)
			if p.Metrics != nil {
				p.Metrics.AddError(fmt.Sprintf("ingest %s: %v", doc.URL, err))
			}
			continue
		}
		if p.Metrics != nil {
			p.Metrics.Ingest.URLsFetched++
			p.Metrics.Ingest.ChunksStored += len(chunks)
		}
		p.logger().Info("guide ingested", "url", doc.URL, "chunks", len(chunks))
	}
	return nil
}

// Plan produces a fresh itinerary for the constraints. Retrieval failures
// degrade to an empty context; only generation failure is fatal.
func (p *Pipeline) Plan(ctx context.Context, c itinerary.Constraints) (*generate.Result, error) {
	return p.run(ctx, c, itinerary.EditCommand{})
}

// Edit validates the command against the current plan and, if accepted,
// triggers a scoped regeneration. The current plan is never mutated: a
// rejected command returns an error with the plan untouched, and an
// accepted one yields a brand-new validated plan.
func (p *Pipeline) Edit(ctx context.Context, c itinerary.Constraints, current *itinerary.Plan, cmd itinerary.EditCommand) (*generate.Result, error) {
	if err := cmd.Validate(current); err != nil {
		p.logger().Warn("edit command rejected", "op", string(cmd.Op), "error", err)
		return nil, err
	}
	if cmd.Op == itinerary.EditNone {
		return &generate.Result{Plan: current, Attempts: 0}, nil
	}
	return p.run(ctx, c, cmd)
}

func (p *Pipeline) run(ctx context.Context, c itinerary.Constraints, cmd itinerary.EditCommand) (*generate.Result, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("constraints: %w", err)
	}

	retrieveCtx, span := observability.StartStageSpan(ctx, "retrieve")
	contextChunks := p.Retriever.Retrieve(retrieveCtx, compose.Query(c))
	span.End()
	if p.Metrics != nil {
		p.Metrics.Retrieval.ContextChunks = len(contextChunks)
		p.Metrics.Retrieval.Degraded = len(contextChunks) == 0
	}
	if len(contextChunks) == 0 {
		p.logger().Info("no guide context retrieved, generating without reference material")
	}

	prompt := compose.Build(compose.Request{
		Constraints: c,
		Context:     contextChunks,
		Edit:        cmd,
	})

	genCtx, span := observability.StartStageSpan(ctx, "generate")
	result, err := p.Generator.Generate(genCtx, prompt)
	span.End()
	if p.Metrics != nil {
		if result != nil {
			p.Metrics.Generation.Attempts = result.Attempts
			p.Metrics.Generation.Success = true
		} else if f, ok := err.(*generate.Failure); ok {
			p.Metrics.Generation.Attempts = f.Attempts
		}
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Locate resolves coordinates for every stop in the plan, plus the
// destination center, under the resolver's bounded-concurrency policy.
func (p *Pipeline) Locate(ctx context.Context, plan *itinerary.Plan, concurrency int) *geocode.PlanLocations {
	ctx, span := observability.StartStageSpan(ctx, "locate")
	defer span.End()

	loc := p.Resolver.ResolvePlan(ctx, plan, concurrency)
	if p.Metrics != nil {
		for _, day := range loc.Days {
			for _, res := range day {
				switch res.Tier {
				case geocode.TierExact:
					p.Metrics.Geocode.Exact++
				case geocode.TierCity:
					p.Metrics.Geocode.CityFallback++
				case geocode.TierDefault:
					p.Metrics.Geocode.DefaultFallback++
				}
			}
		}
	}
	return loc
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}
