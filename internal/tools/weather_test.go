package tools

import (
	"context"
	"errors"
	"testing"

	"github.com/larkhq/lark/internal/weather"
)

type stubForecaster struct {
	report weather.Report
	err    error
}

func (f *stubForecaster) Forecast(_ context.Context, location, date string) (weather.Report, error) {
	if f.err != nil {
		return weather.Report{}, f.err
	}
	r := f.report
	r.Location = location
	r.Date = date
	return r, nil
}

func TestWeatherExecute(t *testing.T) {
	d := NewWeather(&stubForecaster{
		report: weather.Report{Temperature: 72, Condition: "sunny"},
	})

	out, err := d.Execute(context.Background(), map[string]any{
		"location": "San Francisco, CA",
		"date":     "2026-09-05",
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	report, ok := out.(weather.Report)
	if !ok {
		t.Fatalf("output type = %T, want weather.Report", out)
	}
	if report.Location != "San Francisco, CA" || report.Date != "2026-09-05" {
		t.Errorf("report = %+v", report)
	}
}

func TestWeatherFailureStaysInBand(t *testing.T) {
	d := NewWeather(&stubForecaster{err: errors.New("upstream down")})

	_, err := d.Execute(context.Background(), map[string]any{"location": "SF"})
	var toolErr *ToolError
	if !errors.As(err, &toolErr) {
		t.Fatalf("Execute() error = %v, want *ToolError", err)
	}
	if toolErr.ErrorType != "ExecutionFailed" {
		t.Errorf("ErrorType = %q, want ExecutionFailed", toolErr.ErrorType)
	}

	var fatal *FatalError
	if errors.As(err, &fatal) {
		t.Error("weather failures must not be fatal")
	}
}

func TestWeatherSchema(t *testing.T) {
	d := NewWeather(&stubForecaster{})
	r := NewRegistry()
	if err := r.Register(d); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := d.ValidateArgs(map[string]any{"location": "SF"}); err != nil {
		t.Errorf("ValidateArgs() error = %v for valid args", err)
	}
	if err := d.ValidateArgs(map[string]any{"date": "2026-09-05"}); err == nil {
		t.Error("ValidateArgs() should require location")
	}
}

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry(&recordingSearcher{}, &stubForecaster{}, "")
	if err != nil {
		t.Fatalf("DefaultRegistry() error = %v", err)
	}
	if r.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", r.Count())
	}

	defs := r.Describe()
	if defs[0].Name != "searchVenues" || defs[1].Name != "getWeather" {
		t.Errorf("Describe() = [%s, %s], want [searchVenues, getWeather]", defs[0].Name, defs[1].Name)
	}
}
