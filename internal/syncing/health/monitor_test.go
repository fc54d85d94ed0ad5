package health

import (
	"context"
	"errors"
	"testing"
)

func TestCheckHealth_AllHealthy(t *testing.T) {
	m := NewMonitor()
	m.Register("broker", true, func(ctx context.Context) error { return nil })
	m.Register("idempotency_store", true, func(ctx context.Context) error { return nil })

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusHealthy {
		t.Errorf("expected healthy, got %s", report.SystemStatus)
	}
	if len(report.Components) != 2 {
		t.Errorf("expected 2 components, got %d", len(report.Components))
	}
}

func TestCheckHealth_CriticalFailureWins(t *testing.T) {
	m := NewMonitor()
	m.Register("archive", false, func(ctx context.Context) error { return errors.New("db gone") })
	m.Register("idempotency_store", true, func(ctx context.Context) error { return errors.New("redis gone") })

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusCritical {
		t.Errorf("expected critical, got %s", report.SystemStatus)
	}
	if report.Components["archive"].Status != StatusDegraded {
		t.Errorf("non-critical component should degrade, got %s", report.Components["archive"].Status)
	}
}

func TestCheckHealth_NonCriticalDegrades(t *testing.T) {
	m := NewMonitor()
	m.Register("broker", true, func(ctx context.Context) error { return nil })
	m.Register("archive", false, func(ctx context.Context) error { return errors.New("db gone") })

	report := m.CheckHealth(context.Background())

	if report.SystemStatus != StatusDegraded {
		t.Errorf("expected degraded, got %s", report.SystemStatus)
	}
}

func TestCheckHealth_CachesReport(t *testing.T) {
	calls := 0
	m := NewMonitor()
	m.Register("broker", true, func(ctx context.Context) error {
		calls++
		return nil
	})

	_ = m.CheckHealth(context.Background())
	_ = m.CheckHealth(context.Background())

	if calls != 1 {
		t.Errorf("expected cached second check, probe ran %d times", calls)
	}
}
