// Crawler ingests guide URLs in bulk with a randomized per-request delay,
// so large batches stay polite toward the source sites.
package main

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tripnexus/tripnexus/internal/chunker"
	"github.com/tripnexus/tripnexus/internal/config"
	"github.com/tripnexus/tripnexus/internal/fetch"
	"github.com/tripnexus/tripnexus/internal/llm"
	"github.com/tripnexus/tripnexus/internal/llm/ollama"
	"github.com/tripnexus/tripnexus/internal/llm/openai"
	"github.com/tripnexus/tripnexus/internal/vector"
	qdrantstore "github.com/tripnexus/tripnexus/internal/vector/qdrant"
	sqlitestore "github.com/tripnexus/tripnexus/internal/vector/sqlite"
)

func main() {
	_ = godotenv.Load()

	var (
		configPath string
		urlsFile   string
		minDelay   time.Duration
		maxDelay   time.Duration
	)

	rootCmd := &cobra.Command{
		Use:   "crawler [url ...]",
		Short: "Batch-ingest travel guides into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			urls := args
			if urlsFile != "" {
				fromFile, err := readURLs(urlsFile)
				if err != nil {
					return err
				}
				urls = append(urls, fromFile...)
			}
			if len(urls) == 0 {
				return fmt.Errorf("no URLs given (pass as arguments or via --urls-file)")
			}
			if maxDelay < minDelay {
				return fmt.Errorf("--max-delay must be >= --min-delay")
			}
			return crawl(configPath, urls, minDelay, maxDelay)
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "configs/tripnexus.yaml", "Config file path")
	rootCmd.Flags().StringVar(&urlsFile, "urls-file", "", "File with one guide URL per line")
	rootCmd.Flags().DurationVar(&minDelay, "min-delay", time.Second, "Minimum delay between fetches")
	rootCmd.Flags().DurationVar(&maxDelay, "max-delay", 3*time.Second, "Maximum delay between fetches")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func readURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open urls file: %w", err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		urls = append(urls, line)
	}
	return urls, scanner.Err()
}

func crawl(configPath string, urls []string, minDelay, maxDelay time.Duration) error {
	ctx := context.Background()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config load failed (%v), using defaults\n", err)
		cfg = config.Default()
	}

	provider, err := buildProvider(cfg)
	if err != nil {
		return err
	}
	if provider == nil {
		return fmt.Errorf("crawler needs an embedding provider; configure llm.provider")
	}

	var repo vector.Repository
	switch cfg.Vector.Backend {
	case "", "sqlite":
		repo, err = sqlitestore.New(cfg.Vector.Path, cfg.Vector.Collection)
	case "qdrant":
		repo, err = qdrantstore.New(ctx, cfg.Vector.Host, cfg.Vector.Port, cfg.Vector.Collection, uint64(cfg.Vector.Dimensions))
	default:
		err = fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
	if err != nil {
		return fmt.Errorf("opening vector store: %w", err)
	}
	defer repo.Close()

	fetcher := fetch.New(30*time.Second, "")
	splitter := chunker.NewSplitter(chunker.DefaultChunkSize, chunker.DefaultOverlap)
	ingestor := vector.NewIngestor(provider, repo)

	var fetched, stored int
	for i, u := range urls {
		if i > 0 {
			time.Sleep(randomDelay(minDelay, maxDelay))
		}
		fmt.Printf("[%d/%d] %s\n", i+1, len(urls), u)

		docs := fetcher.FetchAll(ctx, []string{u})
		if len(docs) == 0 {
			continue
		}
		chunks := splitter.Split(docs[0].Text)
		if err := ingestor.IngestChunks(ctx, u, chunks); err != nil {
			fmt.Fprintf(os.Stderr, "  ingest failed: %v\n", err)
			continue
		}
		fetched++
		stored += len(chunks)
		fmt.Printf("  stored %d chunks\n", len(chunks))
	}

	fmt.Printf("\nDone: %d/%d guides ingested, %d chunks stored\n", fetched, len(urls), stored)
	return nil
}

func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + rand.N(max-min)
}

func buildProvider(cfg *config.Config) (llm.Provider, error) {
	factory := llm.NewFactory()
	factory.Register("openai", func(c llm.ProviderConfig) (llm.Provider, error) {
		return openai.New(c.APIKey, c.Model, c.BaseURL, c.EmbedModel), nil
	})
	factory.Register("ollama", func(c llm.ProviderConfig) (llm.Provider, error) {
		return ollama.New(c.Model, c.BaseURL, c.EmbedModel), nil
	})
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

	provider, err := factory.Create(llm.ProviderConfig{
		Provider:   cfg.LLM.Provider,
		APIKey:     cfg.LLM.APIKey,
		Model:      cfg.LLM.Model,
		BaseURL:    cfg.LLM.BaseURL,
		EmbedModel: cfg.LLM.EmbedModel,
	})
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	if provider == nil {
		return nil, nil
	}
	if cfg.LLM.RequestsPerMinute > 0 {
		provider = llm.WithRateLimit(provider, &llm.RateLimitConfig{
			RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		})
	}
	return provider, nil
}
