package domain

import (
	"context"
	"sync"
)

type generationUsageKey struct{}

// GenerationUsage collects token usage for a single HTTP request.
// The handler puts a pointer into the context before calling the service;
// the generator chain writes to it; the handler reads it for response headers.
type GenerationUsage struct {
	mu          sync.Mutex
	totalTokens int
	used        bool
	cached      bool
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *GenerationUsage) {
	u := &GenerationUsage{}
	return context.WithValue(ctx, generationUsageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if not set.
func UsageFromContext(ctx context.Context) *GenerationUsage {
	u, _ := ctx.Value(generationUsageKey{}).(*GenerationUsage)
	return u
}

// Record stores the usage of one generation call.
func (u *GenerationUsage) Record(tokens int, cached bool) {
	if u == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.totalTokens += tokens
	u.used = true
	u.cached = u.cached || cached
}

// TotalTokens returns tokens consumed by the request.
func (u *GenerationUsage) TotalTokens() int {
	if u == nil {
		return 0
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totalTokens
}

// Used reports whether generation was invoked, even on a cache hit.
func (u *GenerationUsage) Used() bool {
	if u == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.used
}

// Cached reports whether the generated text came from the response cache.
func (u *GenerationUsage) Cached() bool {
	if u == nil {
		return false
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cached
}
