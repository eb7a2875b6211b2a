package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

// mockRetryProvider returns queued responses, then queued errors repeat.
type mockRetryProvider struct {
	name      string
	calls     int
	errs      []error
	responses []*Response
}

func (m *mockRetryProvider) Name() string { return m.name }

func (m *mockRetryProvider) Complete(ctx context.Context, prompt *Prompt, opts *RequestOptions) (*Response, error) {
	idx := m.calls
	m.calls++
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	if len(m.responses) > 0 {
		return m.responses[0], nil
	}
	return &Response{Content: "ok"}, nil
}

func (m *mockRetryProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	idx := m.calls
	m.calls++
	if idx < len(m.errs) && m.errs[idx] != nil {
		return nil, m.errs[idx]
	}
	return [][]float32{{0.1, 0.2}}, nil
}

func fastRetryConfig(attempts int) *RetryConfig {
	return &RetryConfig{
		MaxAttempts: attempts,
		Backoff:     ExponentialBackoff(time.Millisecond, 10*time.Millisecond),
		Timeout:     time.Second,
	}
}

func TestExponentialBackoff(t *testing.T) {
	b := ExponentialBackoff(time.Second, 10*time.Second)

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 10 * time.Second}, // capped
		{9, 10 * time.Second},
	}
	for _, tt := range tests {
		if got := b(tt.attempt); got != tt.want {
			t.Errorf("backoff(%d) = %v, want %v", tt.attempt, got, tt.want)
		}
	}
}

func TestRetryProvider_Name(t *testing.T) {
	retry := NewRetryProvider(&mockRetryProvider{name: "test-provider"}, nil)
	if retry.Name() != "test-provider" {
		t.Errorf("expected 'test-provider', got %s", retry.Name())
	}
}

func TestRetryProvider_SucceedsFirstTry(t *testing.T) {
	inner := &mockRetryProvider{name: "test", responses: []*Response{{Content: "success"}}}
	retry := NewRetryProvider(inner, fastRetryConfig(3))

	resp, err := retry.Complete(context.Background(), &Prompt{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "success" {
		t.Errorf("expected 'success', got %q", resp.Content)
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call, got %d", inner.calls)
	}
}

func TestRetryProvider_RetriesTransientError(t *testing.T) {
	inner := &mockRetryProvider{
		name: "test",
		errs: []error{fmt.Errorf("API error 503: unavailable"), nil},
	}
	retry := NewRetryProvider(inner, fastRetryConfig(3))

	if _, err := retry.Complete(context.Background(), &Prompt{}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", inner.calls)
	}
}

func TestRetryProvider_ExhaustsAttempts(t *testing.T) {
	boom := fmt.Errorf("API error 500: internal")
	inner := &mockRetryProvider{name: "test", errs: []error{boom, boom, boom}}
	retry := NewRetryProvider(inner, fastRetryConfig(3))

	_, err := retry.Complete(context.Background(), &Prompt{}, nil)
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	var rerr *RetryError
	if !errors.As(err, &rerr) {
		t.Fatalf("expected *RetryError, got %T", err)
	}
	if rerr.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", rerr.Attempts)
	}
	if !errors.Is(err, boom) {
		t.Error("expected wrapped last error")
	}
	if inner.calls != 3 {
		t.Errorf("expected 3 calls, got %d", inner.calls)
	}
}

func TestRetryProvider_NonRetryableStopsImmediately(t *testing.T) {
	inner := &mockRetryProvider{name: "test", errs: []error{fmt.Errorf("API error 401: unauthorized")}}
	retry := NewRetryProvider(inner, fastRetryConfig(5))

	if _, err := retry.Complete(context.Background(), &Prompt{}, nil); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Errorf("expected 1 call for non-retryable error, got %d", inner.calls)
	}
}

func TestRetryProvider_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	inner := &mockRetryProvider{name: "test", errs: []error{fmt.Errorf("API error 503")}}
	retry := NewRetryProvider(inner, fastRetryConfig(3))

	_, err := retry.Complete(ctx, &Prompt{}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestRetryProvider_Embed(t *testing.T) {
	inner := &mockRetryProvider{
		name: "test",
		errs: []error{fmt.Errorf("API error 429: Too Many Requests"), nil},
	}
	retry := NewRetryProvider(inner, fastRetryConfig(3))

	vectors, err := retry.Embed(context.Background(), []string{"text"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(vectors) != 1 {
		t.Errorf("expected 1 vector, got %d", len(vectors))
	}
	if inner.calls != 2 {
		t.Errorf("expected 2 calls, got %d", inner.calls)
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limited", fmt.Errorf("429 Too Many Requests"), true},
		{"server error", fmt.Errorf("API error 502: bad gateway"), true},
		{"bad request", fmt.Errorf("API error 400: bad request"), false},
		{"unauthorized", fmt.Errorf("API error 401"), false},
		{"not found", fmt.Errorf("API error 404"), false},
		{"unknown", fmt.Errorf("something odd happened"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapWithRetry_NilProvider(t *testing.T) {
	if WrapWithRetry(nil, ProviderConfig{}) != nil {
		t.Error("wrapping nil should stay nil")
	}
}
