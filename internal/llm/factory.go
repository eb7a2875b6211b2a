package llm

import (
	"fmt"
	"time"
)

// ProviderConfig holds all configuration needed to create any LLM provider.
type ProviderConfig struct {
	Provider   string // "openai", "groq", "ollama", "custom", "none"
	APIKey     string
	Model      string
	BaseURL    string // override for self-hosted / custom endpoints
	EmbedModel string

	// Timeout and retry configuration.
	Timeout     time.Duration // per-request timeout (default: 2 minutes)
	MaxAttempts int           // total attempts including the first (default: 3)
	RetryDelay  time.Duration // initial retry delay for exponential backoff
}

// KnownProviders maps provider names to their OpenAI-compatible base URLs.
var KnownProviders = map[string]string{
	"openai":   "https://api.openai.com/v1",
	"groq":     "https://api.groq.com/openai/v1",
	"together": "https://api.together.xyz/v1",
	"deepseek": "https://api.deepseek.com/v1",
}

// ProviderConstructor builds a Provider from config.
type ProviderConstructor func(cfg ProviderConfig) (Provider, error)

// ProviderFactory creates Provider instances from config.
type ProviderFactory struct {
	constructors map[string]ProviderConstructor
}

// NewFactory creates an empty factory. Callers register constructors for
// the backends they link in.
func NewFactory() *ProviderFactory {
	return &ProviderFactory{constructors: make(map[string]ProviderConstructor)}
}

// Register adds a named constructor. Later registrations replace earlier
// ones with the same name.
func (f *ProviderFactory) Register(name string, ctor ProviderConstructor) {
	f.constructors[name] = ctor
}

// Create builds a provider from config. An empty or "none" provider name
// returns nil without error: the pipeline then runs without an LLM.
func (f *ProviderFactory) Create(cfg ProviderConfig) (Provider, error) {
	if cfg.Provider == "" || cfg.Provider == "none" {
		return nil, nil
	}
	ctor, ok := f.constructors[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
	return ctor(cfg)
}
