package search

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/search/request"
	"github.com/kailas-cloud/scout/internal/logger"
	"github.com/kailas-cloud/scout/internal/metrics"
)

// MatchGenerator asks the language model to rank the catalog for a request.
// It never fails: every upstream problem degrades to "no matches".
type MatchGenerator struct {
	gen     domain.Generator
	catalog Catalog
	timeout time.Duration
}

// NewMatchGenerator creates a MatchGenerator. timeout bounds each model call (0 = caller's deadline only).
func NewMatchGenerator(gen domain.Generator, catalog Catalog, timeout time.Duration) *MatchGenerator {
	return &MatchGenerator{gen: gen, catalog: catalog, timeout: timeout}
}

// Generate returns the model's answer as a raw JSON array, or nil when the
// model returned nothing usable (empty, not JSON, not an array, timeout, error).
func (g *MatchGenerator) Generate(ctx context.Context, req *request.Request) json.RawMessage {
	log := logger.FromContext(ctx)

	prompt, err := BuildPrompt(g.catalog.All(), req)
	if err != nil {
		g.fallback(log, fallbackProvider, zap.Error(err))
		return nil
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	result, err := g.gen.Generate(callCtx, prompt)
	if err != nil {
		g.fallback(log, classify(err), zap.Error(err))
		return nil
	}

	domain.UsageFromContext(ctx).Record(result.TotalTokens, result.Cached)

	raw, reason := parseMatches(result.Text)
	if reason != "" {
		g.fallback(log, reason, zap.String("response", truncate(result.Text, 512)))
		return nil
	}
	return raw
}

func (g *MatchGenerator) fallback(log *zap.Logger, reason string, fields ...zap.Field) {
	metrics.MatchFallbacksTotal.WithLabelValues(reason).Inc()
	log.Warn("Generation yielded no usable matches", append(fields, zap.String("reason", reason))...)
}

func classify(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fallbackTimeout
	case errors.Is(err, context.Canceled):
		return fallbackCanceled
	case errors.Is(err, domain.ErrGenerationQuotaExceeded):
		return fallbackBudget
	default:
		return fallbackProvider
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
