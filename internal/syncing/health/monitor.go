package health

import (
	"context"
	"sync"
	"time"
)

// CheckFunc probes one collaborator. A nil error means healthy.
type CheckFunc func(ctx context.Context) error

// Monitor aggregates health status from registered collaborators and
// tracks pipeline liveness via the time of the last processed event.
type Monitor struct {
	mu         sync.RWMutex
	checks     map[string]CheckFunc
	critical   map[string]bool
	lastEvent  time.Time
	lastCheck  time.Time
	lastReport *Report
}

// NewMonitor creates a new health monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		checks:   make(map[string]CheckFunc),
		critical: make(map[string]bool),
	}
}

// Register adds a collaborator check. Critical collaborators turn the
// system critical when failing; others only degrade it.
func (m *Monitor) Register(name string, critical bool, check CheckFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.checks[name] = check
	m.critical[name] = critical
}

// RecordEvent marks pipeline liveness. Called by the consumer loop's
// owner after each terminal result.
func (m *Monitor) RecordEvent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastEvent = time.Now()
}

// CheckHealth probes every registered collaborator. Results are cached
// for 10s to keep probe traffic bounded.
func (m *Monitor) CheckHealth(ctx context.Context) *Report {
	m.mu.Lock()
	defer m.mu.Unlock()

	if time.Since(m.lastCheck) < 10*time.Second && m.lastReport != nil {
		return m.lastReport
	}

	report := &Report{
		SystemStatus: StatusHealthy,
		Components:   make(map[string]ComponentHealth),
	}

	for name, check := range m.checks {
		ch := ComponentHealth{Name: name, Status: StatusHealthy}
		if err := check(ctx); err != nil {
			ch.Error = err.Error()
			if m.critical[name] {
				ch.Status = StatusCritical
				report.SystemStatus = StatusCritical
			} else {
				ch.Status = StatusDegraded
				if report.SystemStatus == StatusHealthy {
					report.SystemStatus = StatusDegraded
				}
			}
		}
		report.Components[name] = ch
	}

	if !m.lastEvent.IsZero() {
		report.LastEventAge = time.Since(m.lastEvent).Round(time.Second).String()
	}

	m.lastCheck = time.Now()
	m.lastReport = report
	return report
}
