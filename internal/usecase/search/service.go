// Package search runs the search pipeline: admission, validation, generation,
// reconciliation and price filtering.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain"
	"github.com/kailas-cloud/scout/internal/domain/search/match"
	"github.com/kailas-cloud/scout/internal/domain/search/request"
	"github.com/kailas-cloud/scout/internal/logger"
	"github.com/kailas-cloud/scout/internal/metrics"
)

// NoMatchesMessage accompanies every empty result list.
const NoMatchesMessage = "No matching experiences found. Try broadening your search or adjusting your budget."

// Response is the outcome of a successful search.
type Response struct {
	Results []match.Result
	Message string // set only when Results is empty
	Outcome match.Outcome
}

// Service is the search orchestrator.
type Service struct {
	limiter    Admitter
	generator  *MatchGenerator
	reconciler *Reconciler
}

// New creates a search service. limiter may be nil (no admission control).
func New(limiter Admitter, gen domain.Generator, catalog Catalog, timeout time.Duration) *Service {
	return &Service{
		limiter:    limiter,
		generator:  NewMatchGenerator(gen, catalog, timeout),
		reconciler: NewReconciler(catalog),
	}
}

// Search handles one raw request body from clientKey.
// Errors: *domain.RateLimitError (ErrRateLimited), *request.ValidationError
// (ErrInvalidRequest), or ErrInternal. Upstream model problems are not errors.
func (s *Service) Search(ctx context.Context, clientKey string, body []byte) (resp Response, err error) {
	defer recoverInternal(ctx, &err)

	if s.limiter != nil {
		if d := s.limiter.Admit(ctx, clientKey); !d.Allowed {
			return Response{}, &domain.RateLimitError{RetryAfter: d.RetryAfter}
		}
	}

	req, err := request.Decode(body)
	if err != nil {
		return Response{}, err
	}

	return s.Run(ctx, &req), nil
}

// Run executes generation, reconciliation and filtering for a validated request.
func (s *Service) Run(ctx context.Context, req *request.Request) Response {
	raw := s.generator.Generate(ctx, req)
	rec := s.reconciler.Reconcile(ctx, raw)

	maxPrice, hasMax := req.MaxPrice()
	results := FilterByPrice(rec.Results, maxPrice, hasMax)

	metrics.SearchResultsReturned.Observe(float64(len(results)))
	logger.FromContext(ctx).Info("Search completed",
		zap.String("outcome", string(rec.Outcome)),
		zap.Int("received", rec.Received),
		zap.Int("dropped", rec.Dropped),
		zap.Int("returned", len(results)),
	)

	resp := Response{Results: results, Outcome: rec.Outcome}
	if len(results) == 0 {
		resp.Message = NoMatchesMessage
	}
	return resp
}

func recoverInternal(ctx context.Context, err *error) {
	if r := recover(); r != nil {
		logger.FromContext(ctx).Error("Search pipeline panic", zap.Any("panic", r), zap.Stack("stack"))
		*err = fmt.Errorf("%w: %v", domain.ErrInternal, r)
	}
}
