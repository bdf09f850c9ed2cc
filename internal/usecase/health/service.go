package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates a required model is unavailable.
	Degraded Status = "degraded"
	// Unhealthy indicates the artifact store is unreachable.
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
	db       DBPinger
	models   ModelGetter
	required []string
}

// New creates a Service. required lists models that must resolve; models
// can be nil when nothing is required.
func New(db DBPinger, models ModelGetter, required []string) *Service {
	return &Service{db: db, models: models, required: required}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
		status = Unhealthy
	} else {
		checks["database"] = CheckOK
	}

	if s.models != nil {
		for _, name := range s.required {
			key := "model:" + name
			if _, err := s.models.Get(ctx, name); err != nil {
				checks[key] = CheckError
				if status == Healthy {
					status = Degraded
				}
				continue
			}
			checks[key] = CheckOK
		}
	}

	return Report{Status: status, Checks: checks}
}
