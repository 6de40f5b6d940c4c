package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
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
	Status      Status
	Checks      map[string]CheckResult
	IndexedDocs int
}

// Service coordinates health checks.
type Service struct {
	idx       IndexInfo
	embedding EmbeddingChecker
	drive     DriveChecker
	cache     CachePinger
}

// New creates a Service. idx is nil when no index artifact is loaded;
// embedding, drive and cache can each be nil when the component is not
// configured, which skips its check.
func New(idx IndexInfo, embedding EmbeddingChecker, drive DriveChecker, cache CachePinger) *Service {
	return &Service{idx: idx, embedding: embedding, drive: drive, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	indexed := 0

	if s.idx == nil {
		checks["index"] = CheckError
	} else {
		checks["index"] = CheckOK
		indexed = s.idx.Len()
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks["embedding"] = CheckError
		} else {
			checks["embedding"] = CheckOK
		}
	}

	if s.drive != nil {
		if err := s.drive.About(ctx); err != nil {
			checks["drive"] = CheckError
		} else {
			checks["drive"] = CheckOK
		}
	}

	if s.cache != nil {
		if err := s.cache.Ping(ctx); err != nil {
			checks["cache"] = CheckError
		} else {
			checks["cache"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, IndexedDocs: indexed}
}
