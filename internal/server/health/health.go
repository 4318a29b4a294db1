// Package health aggregates component checks into a single report served
// on /healthz.
package health

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"
)

// Status represents the health status of a component.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	// StatusDegraded indicates the component is partially functional.
	StatusDegraded Status = "degraded"
)

// Check represents a health check result for a component.
type Check struct {
	Name     string         `json:"name"`
	Status   Status         `json:"status"`
	Message  string         `json:"message,omitempty"`
	Duration time.Duration  `json:"duration"`
	Details  map[string]any `json:"details,omitempty"`
}

// Report represents the overall health status.
type Report struct {
	Status    Status           `json:"status"`
	Timestamp time.Time        `json:"timestamp"`
	Checks    map[string]Check `json:"checks"`
	Version   string           `json:"version,omitempty"`
}

// Checker defines the interface for health checks.
type Checker interface {
	Check(ctx context.Context) Check
}

// Service manages health checks for the application.
type Service struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	version  string
}

func NewService(version string) *Service {
	return &Service{
		checkers: make(map[string]Checker),
		version:  version,
	}
}

// RegisterChecker adds or replaces the checker under name.
func (s *Service) RegisterChecker(name string, checker Checker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checkers[name] = checker
}

// CheckHealth runs every registered check. The overall status is the worst
// individual status.
func (s *Service) CheckHealth(ctx context.Context) Report {
	s.mu.RLock()
	checkers := make(map[string]Checker, len(s.checkers))
	for name, checker := range s.checkers {
		checkers[name] = checker
	}
	s.mu.RUnlock()

	checks := make(map[string]Check, len(checkers))
	overall := StatusHealthy
	for name, checker := range checkers {
		check := checker.Check(ctx)
		checks[name] = check

		if check.Status == StatusUnhealthy {
			overall = StatusUnhealthy
		} else if check.Status == StatusDegraded && overall != StatusUnhealthy {
			overall = StatusDegraded
		}
	}

	return Report{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Checks:    checks,
		Version:   s.version,
	}
}

// DBChecker pings the database and reports pool utilisation.
type DBChecker struct {
	db *sql.DB
}

func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

func (c *DBChecker) Check(ctx context.Context) Check {
	start := time.Now()
	err := c.db.PingContext(ctx)
	duration := time.Since(start)

	if err != nil {
		return Check{
			Name:     "database",
			Status:   StatusUnhealthy,
			Message:  fmt.Sprintf("database ping failed: %v", err),
			Duration: duration,
		}
	}

	stats := c.db.Stats()
	details := map[string]any{
		"open_conns": stats.OpenConnections,
		"in_use":     stats.InUse,
		"idle":       stats.Idle,
	}

	status := StatusHealthy
	message := "database reachable"
	if stats.MaxOpenConnections > 0 {
		utilization := float64(stats.InUse) / float64(stats.MaxOpenConnections) * 100
		details["max_open_conns"] = stats.MaxOpenConnections
		details["utilization_percent"] = utilization
		// a single-connection pool (SQLite) is always fully used while serving
		if utilization > 80 && stats.MaxOpenConnections > 1 {
			status = StatusDegraded
			message = fmt.Sprintf("high connection pool utilization: %.1f%%", utilization)
		}
	}

	return Check{
		Name:     "database",
		Status:   status,
		Message:  message,
		Duration: duration,
		Details:  details,
	}
}

// Pinger is anything that can report its own reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// EngineChecker reports the face engine. An unreachable engine degrades the
// service: vault reads keep working, registration and login do not.
type EngineChecker struct {
	engine Pinger
}

func NewEngineChecker(engine Pinger) *EngineChecker {
	return &EngineChecker{engine: engine}
}

func (c *EngineChecker) Check(ctx context.Context) Check {
	start := time.Now()
	if err := c.engine.Ping(ctx); err != nil {
		return Check{
			Name:     "face_engine",
			Status:   StatusDegraded,
			Message:  fmt.Sprintf("face engine unreachable: %v", err),
			Duration: time.Since(start),
		}
	}
	return Check{
		Name:     "face_engine",
		Status:   StatusHealthy,
		Message:  "face engine reachable",
		Duration: time.Since(start),
	}
}

// LivenessChecker always reports healthy.
type LivenessChecker struct{}

func NewLivenessChecker() *LivenessChecker {
	return &LivenessChecker{}
}

func (c *LivenessChecker) Check(_ context.Context) Check {
	return Check{
		Name:    "liveness",
		Status:  StatusHealthy,
		Message: "service is running",
	}
}
