// Package health aggregates component probes into a single readiness
// report: vector store, embedding provider, and catalog.
package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component probe outcome.
type CheckResult string

const (
	// CheckOK indicates a passing probe.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing probe.
	CheckError CheckResult = "error"
)

// Report aggregates probe results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health probes.
type Service struct {
	db        DBPinger
	embedding EmbeddingChecker
	catalog   CatalogInfo
}

// New creates a Service. embedding and catalog can be nil.
func New(db DBPinger, embedding EmbeddingChecker, catalog CatalogInfo) *Service {
	return &Service{db: db, embedding: embedding, catalog: catalog}
}

// Check probes every component. The report is Degraded if any probe fails.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["vector_store"] = CheckError
	} else {
		checks["vector_store"] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.catalog != nil {
		if s.catalog.Len() == 0 {
			checks["catalog"] = CheckError
		} else {
			checks["catalog"] = CheckOK
		}
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
