package llm

import (
	"context"
	"time"

	"job-autopilot/internal/domain"
	"job-autopilot/internal/domain/ports/adapter"
	redisinfra "job-autopilot/internal/infra/redis"
)

// Compile-time check
var _ adapter.LLMAdapter = (*limitedLLM)(nil)

type limitedLLM struct {
	inner adapter.LLMAdapter
	sem   chan struct{}
}

// NewLimitedLLM bounds concurrent completions against the provider.
func NewLimitedLLM(inner adapter.LLMAdapter, maxConcurrent int) adapter.LLMAdapter {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedLLM{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedLLM) Complete(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
	select {
	case l.sem <- struct{}{}:
		defer func() { <-l.sem }()
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return l.inner.Complete(ctx, messages, maxTokens)
}

func (l *limitedLLM) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return l.inner.CountTokens(ctx, messages)
}

var _ adapter.LLMAdapter = (*rateLimitedLLM)(nil)

type rateLimitedLLM struct {
	inner    adapter.LLMAdapter
	limiter  *redisinfra.RateLimiter
	provider string
	limit    int
	window   time.Duration
}

// NewRateLimitedLLM enforces a shared fixed-window call budget across all
// workers. Exceeding it surfaces as domain.ErrRateLimited before the provider
// is ever dialed.
func NewRateLimitedLLM(inner adapter.LLMAdapter, limiter *redisinfra.RateLimiter, provider string, limit int, window time.Duration) adapter.LLMAdapter {
	if limiter == nil || limit <= 0 {
		return inner
	}
	return &rateLimitedLLM{inner: inner, limiter: limiter, provider: provider, limit: limit, window: window}
}

func (r *rateLimitedLLM) Complete(ctx context.Context, messages []adapter.Message, maxTokens int) (string, error) {
	ok, err := r.limiter.Allow(ctx, redisinfra.LLMRateKey(r.provider), r.limit, r.window)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.ErrRateLimited
	}
	return r.inner.Complete(ctx, messages, maxTokens)
}

func (r *rateLimitedLLM) CountTokens(ctx context.Context, messages []adapter.Message) (int, error) {
	return r.inner.CountTokens(ctx, messages)
}
