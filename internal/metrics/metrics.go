// Package metrics collects statistics for one pipeline run: ingestion,
// retrieval, generation, and geocoding.
package metrics

import (
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// RunMetrics collects statistics for a full pipeline run.
type RunMetrics struct {
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at,omitempty"`
	Duration   time.Duration  `json:"duration_ms,omitempty"`
	Ingest     IngestMetrics  `json:"ingest"`
	Retrieval  RetrievalStats `json:"retrieval"`
	Generation GenStats       `json:"generation"`
	Geocode    GeocodeStats   `json:"geocode"`
	LLMMode    string         `json:"llm_mode"`
	Errors     []string       `json:"errors,omitempty"`
}

type IngestMetrics struct {
	URLsRequested int `json:"urls_requested"`
	URLsFetched   int `json:"urls_fetched"`
	ChunksStored  int `json:"chunks_stored"`
}

type RetrievalStats struct {
	ContextChunks int  `json:"context_chunks"`
	Degraded      bool `json:"degraded"` // true when retrieval fell back to empty context
}

type GenStats struct {
	Attempts int  `json:"attempts"`
	Success  bool `json:"success"`
}

type GeocodeStats struct {
	Exact           int `json:"exact"`
	CityFallback    int `json:"city_fallback"`
	DefaultFallback int `json:"default_fallback"`
}

// New starts tracking a pipeline run.
func New() *RunMetrics {
	return &RunMetrics{StartedAt: time.Now()}
}

// AddError records a non-fatal error absorbed during the run.
func (m *RunMetrics) AddError(msg string) {
	m.Errors = append(m.Errors, msg)
}

// Finish finalizes run duration.
func (m *RunMetrics) Finish() {
	m.FinishedAt = time.Now()
	m.Duration = m.FinishedAt.Sub(m.StartedAt)
}

// JSON serializes metrics for machine consumption.
func (m *RunMetrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// PrintSummary writes a human-readable report.
func (m *RunMetrics) PrintSummary(w io.Writer) {
	fmt.Fprintf(w, "Run finished in %v [%s]\n", m.Duration.Round(time.Millisecond), m.LLMMode)
	fmt.Fprintf(w, "  ingest:   %d/%d URLs, %d chunks stored\n",
		m.Ingest.URLsFetched, m.Ingest.URLsRequested, m.Ingest.ChunksStored)
	fmt.Fprintf(w, "  context:  %d chunks", m.Retrieval.ContextChunks)
	if m.Retrieval.Degraded {
		fmt.Fprintf(w, " (degraded)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  generate: %d attempt(s), success=%v\n", m.Generation.Attempts, m.Generation.Success)
	fmt.Fprintf(w, "  geocode:  %d exact, %d city, %d default\n",
		m.Geocode.Exact, m.Geocode.CityFallback, m.Geocode.DefaultFallback)
	if len(m.Errors) > 0 {
		fmt.Fprintf(w, "  absorbed errors: %d\n", len(m.Errors))
		for _, e := range m.Errors {
			fmt.Fprintf(w, "    - %s\n", e)
		}
	}
}
