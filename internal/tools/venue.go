package tools

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/larkhq/lark/internal/venues"
)

// VenueSearcher is the slice of the venue catalog the searchVenues tool
// needs.
type VenueSearcher interface {
	Search(ctx context.Context, q venues.Query) ([]venues.Venue, error)
}

// NewVenueSearch builds the searchVenues tool over the given catalog.
// An empty location argument falls back to defaultLocation.
//
// A catalog failure is fatal: without venue data the assistant cannot do its
// job, so the executor escalates instead of letting the model retry.
func NewVenueSearch(searcher VenueSearcher, defaultLocation string) *Descriptor {
	if defaultLocation == "" {
		defaultLocation = venues.DefaultLocation
	}

	return &Descriptor{
		Name:        "searchVenues",
		Description: "Search for venues and restaurants",
		Parameters: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"query": {
					Type:        "string",
					Description: "Search query for venues",
				},
				"category": {
					Type:        "string",
					Description: "Venue category",
				},
				"location": {
					Type:        "string",
					Description: "Location to search",
				},
				"priceRange": {
					Type:        "string",
					Description: "Price range preference",
				},
			},
			Required: []string{"query"},
		},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			q := venues.Query{
				Query:      stringArg(args, "query"),
				Category:   stringArg(args, "category"),
				Location:   stringArg(args, "location"),
				PriceRange: stringArg(args, "priceRange"),
			}
			if q.Location == "" {
				q.Location = defaultLocation
			}

			results, err := searcher.Search(ctx, q)
			if err != nil {
				return nil, Fatal(fmt.Errorf("venue search: %w", err))
			}
			return results, nil
		},
	}
}

// stringArg reads an optional string argument. Schema validation has
// already rejected non-string values, so the type assertion is a guard,
// not a check.
func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}
