// Package config loads application configuration from file and
// environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	LLM     LLMConfig     `mapstructure:"llm"`
	Vector  VectorConfig  `mapstructure:"vector"`
	Geocode GeocodeConfig `mapstructure:"geocode"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
}

type LLMConfig struct {
	Provider          string  `mapstructure:"provider"`
	Model             string  `mapstructure:"model"`
	EmbedModel        string  `mapstructure:"embed_model"`
	APIKey            string  `mapstructure:"api_key"`
	BaseURL           string  `mapstructure:"base_url"`
	Temperature       float64 `mapstructure:"temperature"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	MaxAttempts       int     `mapstructure:"max_attempts"`
	RequestsPerMinute int     `mapstructure:"requests_per_minute"`
}

type VectorConfig struct {
	Backend    string `mapstructure:"backend"` // "sqlite" (default) or "qdrant"
	Path       string `mapstructure:"path"`    // sqlite data directory
	Host       string `mapstructure:"host"`    // qdrant host
	Port       int    `mapstructure:"port"`    // qdrant port
	Collection string `mapstructure:"collection"`
	Dimensions int    `mapstructure:"dimensions"`
	TopK       int    `mapstructure:"top_k"`
}

type GeocodeConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	UserAgent         string  `mapstructure:"user_agent"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	MaxAttempts       int     `mapstructure:"max_attempts"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Concurrency       int     `mapstructure:"concurrency"`
	FallbackLat       float64 `mapstructure:"fallback_lat"`
	FallbackLon       float64 `mapstructure:"fallback_lon"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "text" or "json"
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Environment  string  `mapstructure:"environment"`
}

// Default returns the built-in configuration used when no file is present.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:    "ollama",
			Temperature: 0.7,
		},
		Vector: VectorConfig{
			Backend:    "sqlite",
			Collection: "trip_guides",
			Dimensions: 768,
			TopK:       3,
		},
		Geocode: GeocodeConfig{
			TimeoutSeconds:    15,
			MaxAttempts:       3,
			RequestsPerSecond: 1,
			Concurrency:       4,
			FallbackLat:       30.6570,
			FallbackLon:       104.0650,
		},
		Log: LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{
			SampleRate:  1.0,
			Environment: "development",
		},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.LLM.Provider != "" && c.LLM.Provider != "none" && c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		warnings = append(warnings, fmt.Sprintf("LLM provider '%s' is configured but api_key is empty", c.LLM.Provider))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2.0 {
		warnings = append(warnings, fmt.Sprintf("LLM temperature %.2f is outside recommended range [0.0, 2.0]", c.LLM.Temperature))
	}
	if c.Vector.Backend != "" && c.Vector.Backend != "sqlite" && c.Vector.Backend != "qdrant" {
		warnings = append(warnings, fmt.Sprintf("unknown vector backend '%s' (expected sqlite or qdrant)", c.Vector.Backend))
	}
	if c.Vector.Backend == "qdrant" && c.Vector.Dimensions <= 0 {
		warnings = append(warnings, "vector backend 'qdrant' needs dimensions > 0")
	}
	if c.Geocode.FallbackLat < -90 || c.Geocode.FallbackLat > 90 {
		warnings = append(warnings, fmt.Sprintf("geocode fallback_lat %.4f is outside [-90, 90]", c.Geocode.FallbackLat))
	}
	if c.Geocode.FallbackLon < -180 || c.Geocode.FallbackLon > 180 {
		warnings = append(warnings, fmt.Sprintf("geocode fallback_lon %.4f is outside [-180, 180]", c.Geocode.FallbackLon))
	}
	if c.Geocode.Concurrency < 0 {
		warnings = append(warnings, fmt.Sprintf("geocode concurrency %d is negative", c.Geocode.Concurrency))
	}

	return warnings
}

// Load reads configuration from file and environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("TRIPNEXUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return cfg, nil
}
