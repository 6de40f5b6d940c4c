package domain

import (
	"context"
	"sync/atomic"
)

type providerUsageKey struct{}

// ProviderUsage collects provider token usage for a single HTTP request.
// The handler puts a pointer into the context before calling the service; the
// providers record after each call; the handler reads it for response headers.
// Hybrid mode runs both legs as goroutines against the same request context,
// so the counters are atomic.
type ProviderUsage struct {
	embeddingTokens  atomic.Int64
	completionTokens atomic.Int64
	used             atomic.Bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *ProviderUsage) {
	u := &ProviderUsage{}
	return context.WithValue(ctx, providerUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *ProviderUsage {
	u, _ := ctx.Value(providerUsageKey{}).(*ProviderUsage)
	return u
}

// AddEmbeddingTokens records tokens consumed by embedding calls.
func (u *ProviderUsage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.embeddingTokens.Add(int64(n))
		u.used.Store(true)
	}
}

// AddCompletionTokens records tokens consumed by completion calls.
func (u *ProviderUsage) AddCompletionTokens(n int) {
	if u != nil {
		u.completionTokens.Add(int64(n))
		u.used.Store(true)
	}
}

// EmbeddingTokens returns the embedding tokens recorded so far.
func (u *ProviderUsage) EmbeddingTokens() int { return int(u.embeddingTokens.Load()) }

// CompletionTokens returns the completion tokens recorded so far.
func (u *ProviderUsage) CompletionTokens() int { return int(u.completionTokens.Load()) }

// Used reports whether any provider was called, even a cache hit with 0 tokens.
func (u *ProviderUsage) Used() bool { return u.used.Load() }
