package tools

import "fmt"

// DefaultRegistry builds the registry with the assistant's tool set:
// searchVenues and getWeather.
func DefaultRegistry(searcher VenueSearcher, forecaster Forecaster, defaultLocation string) (*Registry, error) {
	r := NewRegistry()
	if err := r.Register(NewVenueSearch(searcher, defaultLocation)); err != nil {
		return nil, fmt.Errorf("registering searchVenues: %w", err)
	}
	if err := r.Register(NewWeather(forecaster)); err != nil {
		return nil, fmt.Errorf("registering getWeather: %w", err)
	}
	return r, nil
}
