// Package generate invokes the generation backend and enforces the
// itinerary schema on its output, retrying when the model returns
// something malformed.
package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/tripnexus/tripnexus/internal/itinerary"
	"github.com/tripnexus/tripnexus/internal/llm"
	"github.com/tripnexus/tripnexus/internal/observability"
)

// MaxAttempts is the total number of generation attempts per request,
// including the first. A retry strictly follows the failed attempt.
const MaxAttempts = 2

// Failure is returned when every attempt produced output that could not be
// parsed and validated. No partial plan is ever returned.
type Failure struct {
	Attempts int
	Last     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("itinerary generation failed after %d attempts: %v", f.Attempts, f.Last)
}

func (f *Failure) Unwrap() error { return f.Last }

// Result is a successfully validated plan plus the attempt that produced
// it.
type Result struct {
	Plan     *itinerary.Plan
	Attempts int
}

// Generator produces schema-valid itinerary plans from composed prompts.
// It keeps no state across requests.
type Generator struct {
	provider llm.Provider
	opts     *llm.RequestOptions
	attempts int
	logger   *slog.Logger
}

// New creates a Generator bound to a provider.
func New(provider llm.Provider) *Generator {
	return &Generator{
		provider: provider,
		attempts: MaxAttempts,
		logger:   slog.Default(),
	}
}

// NewWithOptions creates a Generator that passes the given request options
// on every completion call.
func NewWithOptions(provider llm.Provider, opts *llm.RequestOptions) *Generator {
	g := New(provider)
	g.opts = opts
	return g
}

// Generate runs the composed prompt through the backend, extracts the
// fenced JSON payload, and validates it against the itinerary schema. Each
// attempt is logged with its index and failure reason. After the bounded
// attempts are exhausted a *Failure is returned.
func (g *Generator) Generate(ctx context.Context, prompt *llm.Prompt) (*Result, error) {
	if g.provider == nil {
		return nil, &Failure{Attempts: 0, Last: fmt.Errorf("no generation backend configured")}
	}

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		plan, err := g.attemptOnce(ctx, prompt, attempt)
		if err == nil {
			return &Result{Plan: plan, Attempts: attempt}, nil
		}
		lastErr = err
		g.logger.Warn("generation attempt failed",
			"attempt", attempt,
			"max_attempts", g.attempts,
			"reason", err)

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, &Failure{Attempts: g.attempts, Last: lastErr}
}

func (g *Generator) attemptOnce(ctx context.Context, prompt *llm.Prompt, attempt int) (*itinerary.Plan, error) {
	ctx, span := observability.StartLLMSpan(ctx, g.provider.Name(), attempt)
	defer span.End()

	start := time.Now()
	resp, err := g.provider.Complete(ctx, prompt, g.opts)
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("backend call: %w", err)
	}
	observability.RecordLLMMetrics(span, resp.InputTokens, resp.OutputTokens, time.Since(start))

	if resp.Truncated() {
		err := fmt.Errorf("response truncated at token limit (stop reason %q)", resp.StopReason)
		observability.RecordError(span, err)
		return nil, err
	}

	payload := llm.ExtractJSONBlock(resp.Content)

	var plan itinerary.Plan
	if err := json.Unmarshal([]byte(payload), &plan); err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if err := plan.Validate(); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return &plan, nil
}
