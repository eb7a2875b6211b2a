package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tripnexus/tripnexus/internal/chunker"
	"github.com/tripnexus/tripnexus/internal/config"
	"github.com/tripnexus/tripnexus/internal/fetch"
	"github.com/tripnexus/tripnexus/internal/generate"
	"github.com/tripnexus/tripnexus/internal/geocode"
	"github.com/tripnexus/tripnexus/internal/itinerary"
	"github.com/tripnexus/tripnexus/internal/llm"
	"github.com/tripnexus/tripnexus/internal/llm/ollama"
	"github.com/tripnexus/tripnexus/internal/llm/openai"
	"github.com/tripnexus/tripnexus/internal/metrics"
	"github.com/tripnexus/tripnexus/internal/observability"
	"github.com/tripnexus/tripnexus/internal/pipeline"
	"github.com/tripnexus/tripnexus/internal/vector"
	qdrantstore "github.com/tripnexus/tripnexus/internal/vector/qdrant"
	sqlitestore "github.com/tripnexus/tripnexus/internal/vector/sqlite"
)

func main() {
	_ = godotenv.Load()

	var configPath string

	rootCmd := &cobra.Command{
		Use:   "tripnexus",
		Short: "Guide-grounded travel itinerary planner",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "configs/tripnexus.yaml", "Config file path")

	var ingestURLs []string
	ingestCmd := &cobra.Command{
		Use:   "ingest [url ...]",
		Short: "Fetch travel guides and store them in the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := append(ingestURLs, args...)
			if len(urls) == 0 {
				return fmt.Errorf("no guide URLs given")
			}
			return runIngest(configPath, urls)
		},
	}
	ingestCmd.Flags().StringArrayVar(&ingestURLs, "url", nil, "Guide URL (repeatable)")

	var (
		destination string
		days        int
		budget      int
		preferences []string
		guideURLs   []string
		sessionOut  string
		jsonReport  bool
		noLocate    bool
	)
	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Generate a validated itinerary",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := itinerary.Constraints{
				Destination: destination,
				Days:        days,
				Budget:      budget,
				Preferences: preferences,
				GuideURLs:   guideURLs,
			}
			return runPlan(configPath, c, sessionOut, jsonReport, !noLocate)
		},
	}
	planCmd.Flags().StringVar(&destination, "destination", "", "Destination city")
	planCmd.Flags().IntVar(&days, "days", 3, "Trip length in days (1-10)")
	planCmd.Flags().IntVar(&budget, "budget", 5000, "Budget (1000-20000)")
	planCmd.Flags().StringArrayVar(&preferences, "preference", nil, "Traveler preference (repeatable)")
	planCmd.Flags().StringArrayVar(&guideURLs, "guide-url", nil, "Guide URL to ingest before planning (repeatable)")
	planCmd.Flags().StringVar(&sessionOut, "out", "trip.json", "Session output file")
	planCmd.Flags().BoolVar(&jsonReport, "json", false, "Output metrics as JSON")
	planCmd.Flags().BoolVar(&noLocate, "no-locate", false, "Skip coordinate resolution")
	_ = planCmd.MarkFlagRequired("destination")

	var (
		sessionPath string
		editOp      string
		attraction  string
		editDay     int
		editOut     string
	)
	editCmd := &cobra.Command{
		Use:   "edit",
		Short: "Apply an edit command to a saved itinerary by regenerating it",
		RunE: func(cmd *cobra.Command, args []string) error {
			ec := itinerary.EditCommand{
				Op:         itinerary.EditOp(editOp),
				Attraction: attraction,
				Day:        editDay,
			}
			out := editOut
			if out == "" {
				out = sessionPath
			}
			return runEdit(configPath, sessionPath, ec, out, jsonReport, !noLocate)
		},
	}
	editCmd.Flags().StringVar(&sessionPath, "session", "trip.json", "Session file from a previous plan run")
	editCmd.Flags().StringVar(&editOp, "op", "", "Edit operation: add, delete, reorder")
	editCmd.Flags().StringVar(&attraction, "attraction", "", "Attraction name (add/delete)")
	editCmd.Flags().IntVar(&editDay, "day", 0, "Day number (add/delete)")
	editCmd.Flags().StringVar(&editOut, "out", "", "Output session file (default: overwrite --session)")
	editCmd.Flags().BoolVar(&jsonReport, "json", false, "Output metrics as JSON")
	editCmd.Flags().BoolVar(&noLocate, "no-locate", false, "Skip coordinate resolution")
	_ = editCmd.MarkFlagRequired("op")

	providersCmd := &cobra.Command{
		Use:   "providers",
		Short: "List available LLM providers",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("Available LLM providers:")
			fmt.Println()
			for name, url := range llm.KnownProviders {
				fmt.Printf("  %-14s %s\n", name, url)
			}
			fmt.Println("  ollama         (local, default http://localhost:11434)")
			fmt.Println("  custom         (set base_url to any OpenAI-compatible endpoint)")
			fmt.Println("  none           (run without LLM: geocoding only, ingest and generation disabled)")
			fmt.Println()
			fmt.Println("Configure in tripnexus.yaml or via environment:")
			fmt.Println("  TRIPNEXUS_LLM_PROVIDER=groq")
			fmt.Println("  TRIPNEXUS_LLM_API_KEY=gsk_...")
			fmt.Println("  TRIPNEXUS_LLM_MODEL=llama-3.3-70b-versatile")
		},
	}

	rootCmd.AddCommand(ingestCmd, planCmd, editCmd, providersCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(path string) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = config.Default()
	}
	return cfg
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	factory := llm.NewFactory()
	factory.Register("openai", func(c llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(c.APIKey, c.Model, c.BaseURL, c.EmbedModel), nil
	})
	factory.Register("ollama", func(c llm.ProviderConfig) (llm.Provider, error) {
		return ollama.New(c.Model, c.BaseURL, c.EmbedModel), nil
	})
	// All OpenAI-compatible providers
	for _, p := range []struct{ name, url string }{
		{"groq", llm.KnownProviders["groq"]},
		{"together", llm.KnownProviders["together"]},
		{"deepseek", llm.KnownProviders["deepseek"]},
		{"custom", ""},
	} {
		p := p
		factory.Register(p.name, func(c llm.ProviderConfig) (llm.Provider, error) {
			base := c.BaseURL
			if base == "" {
				base = p.url
			}
			return openai.New(c.APIKey, c.Model, base, c.EmbedModel), nil
		})
	}

	pc := llm.ProviderConfig{
		Provider:    cfg.LLM.Provider,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		EmbedModel:  cfg.LLM.EmbedModel,
		MaxAttempts: cfg.LLM.MaxAttempts,
	}
	provider, err := factory.Create(pc)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	provider = llm.WrapWithRetry(provider, pc)
	if cfg.LLM.RequestsPerMinute > 0 {
		provider = llm.WithRateLimit(provider, &llm.RateLimitConfig{
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		})
	}
	return provider, nil
}

func buildRepository(ctx context.Context, cfg *config.Config) (vector.Repository, error) {
	switch cfg.Vector.Backend {
	case "", "sqlite":
		return sqlitestore.New(cfg.Vector.Path, cfg.Vector.Collection)
	case "qdrant":
		return qdrantstore.New(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection, uint64(cfg.Vector.Dimensions))
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

// buildPipeline wires a full pipeline from config. The returned cleanup
// closes the vector store and flushes tracing.
func buildPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, m *metrics.RunMetrics) (*pipeline.Pipeline, func(), error) {
	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:  "tripnexus",
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		SampleRate:   cfg.Tracing.SampleRate,
		Environment:  cfg.Tracing.Environment,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("init tracing: %w", err)
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return nil, nil, err
	}
	if provider == nil {
		m.LLMMode = "none"
		logger.Info("running without LLM provider")
	} else {
		m.LLMMode = "llm:" + provider.Name()
		logger.Info("using LLM provider", "provider", provider.Name())
	}

	repo, err := buildRepository(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening vector store: %w", err)
	}

	resolver := geocode.New(geocode.Config{
		BaseURL:           cfg.Geocode.BaseURL,
		UserAgent:         cfg.Geocode.UserAgent,
		Timeout:           time.Duration(cfg.Geocode.TimeoutSeconds) * time.Second,
		MaxAttempts:       cfg.Geocode.MaxAttempts,
		RequestsPerSecond: cfg.Geocode.RequestsPerSecond,
		Fallback:          &geocode.Coordinate{Lat: cfg.Geocode.FallbackLat, Lon: cfg.Geocode.FallbackLon},
	})

	topK := cfg.Vector.TopK
	if topK <= 0 {
		topK = vector.DefaultTopK
	}

	var genOpts *llm.RequestOptions
	if cfg.LLM.Temperature > 0 || cfg.LLM.MaxTokens > 0 {
		genOpts = &llm.RequestOptions{}
		if cfg.LLM.Temperature > 0 {
			temp := cfg.LLM.Temperature
			genOpts.Temperature = &temp
		}
		if cfg.LLM.MaxTokens > 0 {
			max := cfg.LLM.MaxTokens
			genOpts.MaxTokens = &max
		}
	}

	p := &pipeline.Pipeline{
		Fetcher:   fetch.New(30*time.Second, ""),
		Splitter:  chunker.NewSplitter(chunker.DefaultChunkSize, chunker.DefaultOverlap),
		Ingestor:  vector.NewIngestor(provider, repo),
		Retriever: vector.NewRetriever(provider, repo, topK, vector.DefaultMinChunkLen),
		Generator: generate.NewWithOptions(provider, genOpts),
		Resolver:  resolver,
		Logger:    logger,
		Metrics:   m,
	}
	cleanup := func() {
		repo.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(shutdownCtx)
	}
	return p, cleanup, nil
}

func runIngest(configPath string, urls []string) error {
	ctx := context.Background()
	cfg := loadConfig(configPath)
	logger := setupLogger(cfg.Log)
	m := metrics.New()

	p, cleanup, err := buildPipeline(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := p.Ingest(ctx, urls); err != nil {
		return err
	}
	m.Finish()
	m.PrintSummary(os.Stdout)
	return nil
}

func runPlan(configPath string, c itinerary.Constraints, sessionOut string, jsonReport, locate bool) error {
	ctx := context.Background()
	cfg := loadConfig(configPath)
	logger := setupLogger(cfg.Log)
	m := metrics.New()

	p, cleanup, err := buildPipeline(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer cleanup()

	if len(c.GuideURLs) > 0 {
		if err := p.Ingest(ctx, c.GuideURLs); err != nil {
			return err
		}
	}

	result, err := p.Plan(ctx, c)
	if err != nil {
		return err
	}
	return finishRun(ctx, p, m, c, result, sessionOut, jsonReport, locate, cfg.Geocode.Concurrency)
}

func runEdit(configPath, sessionPath string, ec itinerary.EditCommand, out string, jsonReport, locate bool) error {
	ctx := context.Background()
	cfg := loadConfig(configPath)
	logger := setupLogger(cfg.Log)
	m := metrics.New()

	session, err := pipeline.LoadSession(sessionPath)
	if err != nil {
		return err
	}

	p, cleanup, err := buildPipeline(ctx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := p.Edit(ctx, session.Constraints, session.Plan, ec)
	if err != nil {
		return err
	}
	return finishRun(ctx, p, m, session.Constraints, result, out, jsonReport, locate, cfg.Geocode.Concurrency)
}

func finishRun(ctx context.Context, p *pipeline.Pipeline, m *metrics.RunMetrics, c itinerary.Constraints, result *generate.Result, sessionOut string, jsonReport, locate bool, concurrency int) error {
	var loc *geocode.PlanLocations
	if locate {
		loc = p.Locate(ctx, result.Plan, concurrency)
	}

	session := pipeline.NewSession(c, result, loc)
	if err := session.Save(sessionOut); err != nil {
		return err
	}
	fmt.Printf("Itinerary for %s (%d days) written to %s\n", c.Destination, result.Plan.Days, sessionOut)

	m.Finish()
	if jsonReport {
		data, err := m.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		m.PrintSummary(os.Stdout)
	}
	return nil
}
