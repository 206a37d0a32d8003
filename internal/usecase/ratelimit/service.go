// Package ratelimit decides whether a client may start another search.
package ratelimit

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/metrics"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Service applies a fixed-window limit of maxRequests per window per client key.
type Service struct {
	store       Store
	maxRequests int
	window      time.Duration
	now         func() time.Time
	logger      *zap.Logger
}

// New creates a Service.
func New(store Store, maxRequests int, window time.Duration, logger *zap.Logger) *Service {
	return &Service{
		store:       store,
		maxRequests: maxRequests,
		window:      window,
		now:         time.Now,
		logger:      logger,
	}
}

// Admit records a request for key and reports whether it is within the limit.
// Store failures admit the request.
func (s *Service) Admit(ctx context.Context, key string) Decision {
	count, resetAt, err := s.store.Hit(ctx, key, s.window)
	if err != nil {
		s.logger.Warn("Rate limit store unavailable, admitting request",
			zap.String("client", key),
			zap.Error(err),
		)
		metrics.RateLimitDecisionsTotal.WithLabelValues("failed_open").Inc()
		return Decision{Allowed: true, Limit: s.maxRequests, Remaining: s.maxRequests}
	}

	d := Decision{
		Allowed:   count <= int64(s.maxRequests),
		Limit:     s.maxRequests,
		Remaining: max(s.maxRequests-int(count), 0),
	}
	if !d.Allowed {
		d.RetryAfter = max(resetAt.Sub(s.now()), 0)
		metrics.RateLimitDecisionsTotal.WithLabelValues("rejected").Inc()
		s.logger.Info("Rate limit exceeded",
			zap.String("client", key),
			zap.Int64("count", count),
			zap.Duration("retry_after", d.RetryAfter),
		)
		return d
	}

	metrics.RateLimitDecisionsTotal.WithLabelValues("allowed").Inc()
	return d
}
