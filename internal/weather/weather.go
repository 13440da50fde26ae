// Package weather provides the forecast source behind the getWeather tool.
package weather

import (
	"context"
	"time"
)

// Report is a forecast for a location on a date.
type Report struct {
	Location      string  `json:"location"`
	Date          string  `json:"date"`
	Temperature   int     `json:"temperature"`
	Condition     string  `json:"condition"`
	Precipitation float64 `json:"precipitation"`
}

// Service produces forecasts. The current implementation is a stand-in that
// always reports fair weather; swapping in a real provider only changes
// Forecast's body.
type Service struct {
	now func() time.Time
}

// New creates a weather service.
func New() *Service {
	return &Service{now: time.Now}
}

// NewWithClock creates a weather service with a fixed clock for tests.
func NewWithClock(now func() time.Time) *Service {
	return &Service{now: now}
}

// Forecast returns the forecast for the location. An empty date defaults to
// the current time in RFC 3339 form.
func (s *Service) Forecast(ctx context.Context, location, date string) (Report, error) {
	if err := ctx.Err(); err != nil {
		return Report{}, err
	}
	if date == "" {
		date = s.now().Format(time.RFC3339)
	}
	return Report{
		Location:      location,
		Date:          date,
		Temperature:   72,
		Condition:     "sunny",
		Precipitation: 0,
	}, nil
}
