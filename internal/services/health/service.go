// Package health reports whether the service's dependencies answer.
package health

import (
	"context"
	"time"

	"resume-analyzer/internal/llm"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"

	checkTimeout = 3 * time.Second
)

// DBPinger is satisfied by *sql.DB.
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// CachePinger is satisfied by *cache.Gateway.
type CachePinger interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// ModelChecker is satisfied by *llm.Analyzer.
type ModelChecker interface {
	Health(ctx context.Context) llm.HealthStatus
}

// Check is the result of probing one dependency.
type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Model   string `json:"model,omitempty"`
}

// Report aggregates dependency checks.
type Report struct {
	Status    string           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB    DBPinger
	Cache CachePinger
	Model ModelChecker
	now   func() time.Time
}

// NewService constructs a health service. Nil dependencies are reported as
// not configured.
func NewService(db DBPinger, cache CachePinger, model ModelChecker) *Service {
	return &Service{DB: db, Cache: cache, Model: model, now: time.Now}
}

// Status checks storage and cache. A database failure makes the service
// unhealthy; a cache failure only degrades it.
func (s *Service) Status(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	report := Report{Status: StatusHealthy, Timestamp: s.clock().UTC(), Checks: map[string]Check{}}

	switch {
	case s.DB == nil:
		report.Checks["database"] = Check{Status: "memory", Message: "using in-memory repositories"}
	default:
		if err := s.DB.PingContext(ctx); err != nil {
			report.Checks["database"] = Check{Status: StatusUnhealthy, Message: err.Error()}
			report.Status = StatusUnhealthy
		} else {
			report.Checks["database"] = Check{Status: StatusHealthy}
		}
	}

	switch {
	case s.Cache == nil || !s.Cache.Enabled():
		report.Checks["cache"] = Check{Status: "disabled"}
	default:
		if err := s.Cache.Ping(ctx); err != nil {
			report.Checks["cache"] = Check{Status: StatusUnhealthy, Message: err.Error()}
			if report.Status == StatusHealthy {
				report.Status = StatusDegraded
			}
		} else {
			report.Checks["cache"] = Check{Status: StatusHealthy}
		}
	}
	return report
}

// ModelStatus asks the AI provider for a trivial reply.
func (s *Service) ModelStatus(ctx context.Context) Check {
	if s.Model == nil {
		return Check{Status: "error", Message: "Service not initialized"}
	}
	h := s.Model.Health(ctx)
	return Check{Status: h.Status, Message: h.Message, Model: h.Model}
}

func (s *Service) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}
