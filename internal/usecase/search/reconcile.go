package search

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/scout/internal/domain/search/match"
	"github.com/kailas-cloud/scout/internal/logger"
	"github.com/kailas-cloud/scout/internal/metrics"
)

// Reconciler is the trust boundary between model output and catalog records.
type Reconciler struct {
	catalog Catalog
}

// NewReconciler creates a Reconciler over a catalog.
func NewReconciler(catalog Catalog) *Reconciler {
	return &Reconciler{catalog: catalog}
}

// Reconcile validates the raw batch as a whole first; if any element breaks
// the match contract it falls back to salvaging elements one by one. Model
// order is preserved and every result is joined to its catalog record by id.
// Input that is not a JSON array reconciles to an empty result.
func (r *Reconciler) Reconcile(ctx context.Context, raw json.RawMessage) match.Reconciliation {
	var elems []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &elems) != nil {
		return r.record(match.Reconciliation{Outcome: match.OutcomeEmpty})
	}

	if batch, ok := r.validateBatch(elems); ok {
		rec := match.Reconciliation{Outcome: match.OutcomeComplete, Results: r.join(batch), Received: len(elems)}
		if len(rec.Results) == 0 {
			rec.Outcome = match.OutcomeEmpty
		}
		rec.Dropped = len(elems) - len(rec.Results)
		return r.record(rec)
	}

	log := logger.FromContext(ctx)
	survivors := make([]match.Validated, 0, len(elems))
	for i, el := range elems {
		v, err := match.Validate(el, r.catalog)
		if err != nil {
			metrics.ReconcileDroppedTotal.WithLabelValues(dropReason(err)).Inc()
			log.Debug("Dropped invalid match",
				zap.Int("index", i),
				zap.ByteString("element", el),
				zap.Error(err),
			)
			continue
		}
		survivors = append(survivors, v)
	}

	rec := match.Reconciliation{Outcome: match.OutcomePartial, Results: r.join(survivors), Received: len(elems)}
	rec.Dropped = len(elems) - len(rec.Results)
	if len(rec.Results) == 0 {
		rec.Outcome = match.OutcomeEmpty
	}
	log.Warn("Salvaged partially valid generation",
		zap.Int("received", rec.Received),
		zap.Int("kept", len(rec.Results)),
	)
	return r.record(rec)
}

func (r *Reconciler) validateBatch(elems []json.RawMessage) ([]match.Validated, bool) {
	out := make([]match.Validated, 0, len(elems))
	for _, el := range elems {
		v, err := match.Validate(el, r.catalog)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func (r *Reconciler) join(vs []match.Validated) []match.Result {
	results := make([]match.Result, 0, len(vs))
	for _, v := range vs {
		exp, ok := r.catalog.ByID(v.ID())
		if !ok {
			metrics.ReconcileDroppedTotal.WithLabelValues("join").Inc()
			continue
		}
		results = append(results, match.Join(exp, v))
	}
	return results
}

func (r *Reconciler) record(rec match.Reconciliation) match.Reconciliation {
	metrics.ReconcileOutcomesTotal.WithLabelValues(string(rec.Outcome)).Inc()
	return rec
}

func dropReason(err error) string {
	switch {
	case errors.Is(err, match.ErrNotObject):
		return "not_object"
	case errors.Is(err, match.ErrInvalidID):
		return "invalid_id"
	case errors.Is(err, match.ErrUnknownID):
		return "unknown_id"
	case errors.Is(err, match.ErrInvalidReason):
		return "invalid_reason"
	case errors.Is(err, match.ErrInvalidScore):
		return "invalid_score"
	case errors.Is(err, match.ErrScoreOutOfRange):
		return "score_out_of_range"
	default:
		return "other"
	}
}
