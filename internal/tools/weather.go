package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/larkhq/lark/internal/weather"
)

// Forecaster is the slice of the weather service the getWeather tool needs.
type Forecaster interface {
	Forecast(ctx context.Context, location, date string) (weather.Report, error)
}

// NewWeather builds the getWeather tool over the given forecaster.
// Forecast failures are reported in-band; weather is advisory and must not
// take the conversation down.
func NewWeather(forecaster Forecaster) *Descriptor {
	return &Descriptor{
		Name:        "getWeather",
		Description: "Get weather forecast for date planning",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"location": {
					Type:        "string",
					Description: "Location for weather",
				},
				"date": {
					Type:        "string",
					Description: "Date for forecast",
				},
			},
			Required: []string{"location"},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			report, err := forecaster.Forecast(ctx, stringArg(args, "location"), stringArg(args, "date"))
			if err != nil {
				return nil, &ToolError{ErrorType: "ExecutionFailed", Message: err.Error()}
			}
			return report, nil
		},
	}
}
