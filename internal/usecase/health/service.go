package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates the service cannot answer searches.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	catalog    CatalogSizer
	db         DBPinger
	generation GenerationChecker
}

// New creates a Service. db and generation can be nil.
func New(catalog CatalogSizer, db DBPinger, generation GenerationChecker) *Service {
	return &Service{catalog: catalog, db: db, generation: generation}
}

// Check runs health checks against all components.
// An empty catalog is fatal; a failing database or provider only degrades,
// since searches still answer (fail-open limiter, empty matches).
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if s.catalog.Len() > 0 {
		checks["catalog"] = CheckOK
	} else {
		checks["catalog"] = CheckError
	}

	if s.db != nil {
		checks["database"] = result(s.db.Ping(ctx))
	}

	if s.generation != nil {
		checks["generation"] = result(s.generation.HealthCheck(ctx))
	}

	if checks["catalog"] == CheckError {
		return Report{Status: Unhealthy, Checks: checks}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(err error) CheckResult {
	if err != nil {
		return CheckError
	}
	return CheckOK
}
