package llm

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRateLimitProvider_PassThrough(t *testing.T) {
	inner := &mockRetryProvider{name: "test", responses: []*Response{{Content: "ok"}}}
	limited := WithRateLimit(inner, &RateLimitConfig{RequestsPerMinute: 6000, BurstSize: 10})

	resp, err := limited.Complete(context.Background(), &Prompt{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected 'ok', got %q", resp.Content)
	}
	if limited.Name() != "test" {
		t.Errorf("expected inner name, got %s", limited.Name())
	}
}

func TestRateLimitProvider_ZeroMeansUnlimited(t *testing.T) {
	inner := &mockRetryProvider{name: "test"}
	limited := WithRateLimit(inner, &RateLimitConfig{RequestsPerMinute: 0})

	start := time.Now()
	for i := 0; i < 20; i++ {
		if _, err := limited.Embed(context.Background(), []string{"x"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("unlimited config should not throttle, took %v", elapsed)
	}
}

func TestRateLimitProvider_CancelledWait(t *testing.T) {
	inner := &mockRetryProvider{name: "test"}
	// 1 request/minute with burst 1: the second call must wait ~a minute.
	limited := WithRateLimit(inner, &RateLimitConfig{RequestsPerMinute: 1, BurstSize: 1})

	if _, err := limited.Complete(context.Background(), &Prompt{}, nil); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := limited.Complete(ctx, &Prompt{}, nil)
	if err == nil {
		t.Fatal("expected error while waiting for rate limit")
	}
	if errors.Is(err, context.Canceled) {
		t.Errorf("expected deadline-style failure, got %v", err)
	}
}

func TestWithRateLimit_NilProvider(t *testing.T) {
	if WithRateLimit(nil, nil) != nil {
		t.Error("wrapping nil should stay nil")
	}
}
