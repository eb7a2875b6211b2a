// Package geocode resolves free-text addresses to coordinates against a
// Nominatim-compatible backend, with retry, backoff, a city-level fallback
// tier, and a fixed default coordinate when everything else fails.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tripnexus/tripnexus/internal/observability"
)

// Tier is the confidence level of a resolution.
type Tier string

const (
	TierExact   Tier = "exact"
	TierCity    Tier = "city-fallback"
	TierDefault Tier = "default-fallback"
)

// Result is one resolved address. Tier tells downstream consumers how much
// to trust the coordinates.
type Result struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Tier    Tier    `json:"tier"`
}

// Coordinate is a latitude/longitude pair.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Resolver defaults, matching the reference deployment against the public
// Nominatim instance.
const (
	DefaultBaseURL     = "https://nominatim.openstreetmap.org"
	DefaultUserAgent   = "tripnexus/0.1"
	DefaultTimeout     = 15 * time.Second
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// DefaultFallback is the coordinate used when both lookup tiers are
// exhausted. It is a fixed location regardless of the requested
// destination.
var DefaultFallback = Coordinate{Lat: 30.6570, Lon: 104.0650}

// errNoMatch marks a well-formed lookup that returned no results. It is
// not retried; the resolver escalates to the next tier instead.
var errNoMatch = fmt.Errorf("no match")

// Config configures a Resolver. Zero values use the defaults above.
type Config struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	MaxAttempts       int     // attempts per tier
	BaseDelay         time.Duration
	RequestsPerSecond float64 // backend rate limit (Nominatim policy: 1/s)
	Fallback          *Coordinate
}

// Resolver resolves addresses with per-tier bounded retries.
type Resolver struct {
	baseURL     string
	userAgent   string
	timeout     time.Duration
	maxAttempts int
	baseDelay   time.Duration
	fallback    Coordinate
	http        *http.Client
	limiter     *rate.Limiter
	logger      *slog.Logger
}

// New creates a Resolver.
func New(cfg Config) *Resolver {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	fallback := DefaultFallback
	if cfg.Fallback != nil {
		fallback = *cfg.Fallback
	}
	return &Resolver{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:   cfg.UserAgent,
		timeout:     cfg.Timeout,
		maxAttempts: cfg.MaxAttempts,
		baseDelay:   cfg.BaseDelay,
		fallback:    fallback,
		http:        &http.Client{},
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		logger:      slog.Default(),
	}
}

// Resolve maps an address to coordinates. It tries the exact address first,
// then the trailing locality segment, each tier with its own bounded retry
// and exponential backoff. When both tiers are exhausted it returns the
// designated fallback coordinate tagged TierDefault; it never fails.
func (r *Resolver) Resolve(ctx context.Context, address string) Result {
	if coord, err := r.lookupWithRetry(ctx, address, TierExact); err == nil {
		return Result{Address: address, Lat: coord.Lat, Lon: coord.Lon, Tier: TierExact}
	} else if ctx.Err() != nil {
		return r.fallbackResult(address)
	}

	if city := trailingLocality(address); city != "" && city != address {
		if coord, err := r.lookupWithRetry(ctx, city, TierCity); err == nil {
			return Result{Address: address, Lat: coord.Lat, Lon: coord.Lon, Tier: TierCity}
		}
	}

	r.logger.Warn("geocoding exhausted both tiers, using default fallback", "address", address)
	return r.fallbackResult(address)
}

func (r *Resolver) fallbackResult(address string) Result {
	return Result{Address: address, Lat: r.fallback.Lat, Lon: r.fallback.Lon, Tier: TierDefault}
}

// lookupWithRetry runs one tier: up to maxAttempts lookups with the base
// delay doubling after each failed attempt. A no-match answer escalates
// immediately; only timeouts and service errors are retried.
func (r *Resolver) lookupWithRetry(ctx context.Context, query string, tier Tier) (Coordinate, error) {
	var lastErr error
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if attempt > 1 {
			delay := r.baseDelay << (attempt - 2)
			select {
			case <-ctx.Done():
				return Coordinate{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		coord, err := r.lookup(ctx, query, tier)
		if err == nil {
			return coord, nil
		}
		lastErr = err
		if err == errNoMatch || ctx.Err() != nil {
			return Coordinate{}, err
		}
		r.logger.Warn("geocode lookup failed",
			"query", query,
			"tier", tier,
			"attempt", attempt,
			"max_attempts", r.maxAttempts,
			"error", err)
	}
	return Coordinate{}, lastErr
}

// lookup performs a single search call, bounded by its own timeout so a
// hung request cannot block the fallback tier.
func (r *Resolver) lookup(ctx context.Context, query string, tier Tier) (Coordinate, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	ctx, span := observability.StartGeocodeSpan(ctx, query, string(tier))
	defer span.End()

	if err := r.limiter.Wait(ctx); err != nil {
		return Coordinate{}, err
	}

	u := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", r.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Coordinate{}, err
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		observability.RecordError(span, err)
		return Coordinate{}, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Coordinate{}, err
	}
	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("geocode service: %s", resp.Status)
		observability.RecordError(span, err)
		return Coordinate{}, err
	}

	var places []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.Unmarshal(body, &places); err != nil {
		return Coordinate{}, fmt.Errorf("geocode response: %w", err)
	}
	if len(places) == 0 {
		return Coordinate{}, errNoMatch
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("geocode longitude: %w", err)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// localitySeparators are the comma-equivalent characters an address may use
// between its segments.
var localitySeparators = []string{",", "，", "、"}

// trailingLocality returns the segment after the last comma-equivalent
// separator, which in guide addresses is usually the city.
func trailingLocality(address string) string {
	idx := -1
	width := 0
	for _, sep := range localitySeparators {
		if i := strings.LastIndex(address, sep); i > idx {
			idx = i
			width = len(sep)
		}
	}
	if idx < 0 {
		return strings.TrimSpace(address)
	}
	return strings.TrimSpace(address[idx+width:])
}
