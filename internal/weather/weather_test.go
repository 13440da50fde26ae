package weather

import (
	"context"
	"testing"
	"time"
)

func TestForecast(t *testing.T) {
	s := New()

	report, err := s.Forecast(context.Background(), "San Francisco, CA", "2026-09-05")
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	if report.Location != "San Francisco, CA" {
		t.Errorf("Location = %q", report.Location)
	}
	if report.Date != "2026-09-05" {
		t.Errorf("Date = %q, want the requested date", report.Date)
	}
	if report.Temperature != 72 || report.Condition != "sunny" || report.Precipitation != 0 {
		t.Errorf("unexpected stand-in report: %+v", report)
	}
}

func TestForecastDefaultDate(t *testing.T) {
	fixed := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	s := NewWithClock(func() time.Time { return fixed })

	report, err := s.Forecast(context.Background(), "Oakland, CA", "")
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if report.Date != fixed.Format(time.RFC3339) {
		t.Errorf("Date = %q, want %q", report.Date, fixed.Format(time.RFC3339))
	}
}

func TestForecastCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Forecast(ctx, "SF", ""); err == nil {
		t.Error("Forecast() with canceled context should fail")
	}
}
