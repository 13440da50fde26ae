// Package venues provides the venue catalog backing the searchVenues tool.
//
// The catalog is a fixed in-memory set for now; the search contract
// (deterministic filter pipeline, result cap) is what callers depend on and
// will survive a move to a real venue API.
package venues

import (
	"context"
	"errors"
	"strings"
)

// MaxResults caps the number of venues returned by a single search.
const MaxResults = 6

// DefaultLocation is used when a search does not name a location.
const DefaultLocation = "San Francisco, CA"

// ErrUnavailable indicates the venue source could not serve the search.
// The in-memory catalog never returns it; an API-backed catalog will.
var ErrUnavailable = errors.New("venue search unavailable")

// Location is a venue's physical address and coordinates.
type Location struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// Venue is a place that can be recommended for a date.
// PriceLevel runs 1 (cheapest) to 4 (most expensive).
type Venue struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Location    Location `json:"location"`
	Rating      float64  `json:"rating,omitempty"`
	PriceLevel  int      `json:"priceLevel,omitempty"`
	Description string   `json:"description,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

// Query is a venue search request. Only Query is required; empty optional
// fields skip their filter stage.
type Query struct {
	Query      string
	Category   string
	Location   string
	PriceRange string // budget | moderate | expensive | luxury
}

// priceTiers maps the named price ranges to a maximum price level.
// Unrecognized ranges fall back to the most permissive tier.
var priceTiers = map[string]int{
	"budget":    1,
	"moderate":  2,
	"expensive": 3,
	"luxury":    4,
}

// Catalog serves venue searches from a fixed venue set.
type Catalog struct {
	venues []Venue
}

// NewCatalog creates a catalog with the built-in venue set.
func NewCatalog() *Catalog {
	return &Catalog{venues: builtinVenues()}
}

// NewCatalogWith creates a catalog over the given venues. Tests use it to
// exercise the result cap and filter edge cases.
func NewCatalogWith(venues []Venue) *Catalog {
	return &Catalog{venues: venues}
}

// Search filters the catalog through three stages in order: free-text
// substring match (name, category, description), category substring match,
// then price ceiling. Matching is case-insensitive. At most MaxResults
// venues are returned.
func (c *Catalog) Search(ctx context.Context, q Query) ([]Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	matched := make([]Venue, 0, len(c.venues))
	matched = append(matched, c.venues...)

	if q.Query != "" {
		needle := strings.ToLower(q.Query)
		matched = filter(matched, func(v Venue) bool {
			return strings.Contains(strings.ToLower(v.Name), needle) ||
				strings.Contains(strings.ToLower(v.Category), needle) ||
				strings.Contains(strings.ToLower(v.Description), needle)
		})
	}

	if q.Category != "" {
		needle := strings.ToLower(q.Category)
		matched = filter(matched, func(v Venue) bool {
			return strings.Contains(strings.ToLower(v.Category), needle)
		})
	}

	if q.PriceRange != "" {
		maxPrice, ok := priceTiers[strings.ToLower(q.PriceRange)]
		if !ok {
			maxPrice = 4
		}
		matched = filter(matched, func(v Venue) bool {
			level := v.PriceLevel
			if level == 0 {
				level = 1
			}
			return level <= maxPrice
		})
	}

	if len(matched) > MaxResults {
		matched = matched[:MaxResults]
	}
	return matched, nil
}

// VenueByID looks up a single venue. Returns (nil, nil) when no venue has
// the given ID.
func (c *Catalog) VenueByID(ctx context.Context, id string) (*Venue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for i := range c.venues {
		if c.venues[i].ID == id {
			v := c.venues[i]
			return &v, nil
		}
	}
	return nil, nil
}

func filter(venues []Venue, keep func(Venue) bool) []Venue {
	out := venues[:0:0]
	for _, v := range venues {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func builtinVenues() []Venue {
	return []Venue{
		{
			ID:       "1",
			Name:     "Atelier Crenn",
			Category: "Fine Dining",
			Location: Location{
				Address: "3127 Fillmore St, San Francisco, CA 94123",
				Lat:     37.7879,
				Lng:     -122.4364,
			},
			Rating:      4.8,
			PriceLevel:  4,
			Description: "Michelin-starred French restaurant with artistic presentation",
			Photos:      []string{"https://example.com/atelier-crenn.jpg"},
		},
		{
			ID:       "2",
			Name:     "Golden Gate Park",
			Category: "Outdoor Recreation",
			Location: Location{
				Address: "Golden Gate Park, San Francisco, CA",
				Lat:     37.7694,
				Lng:     -122.4862,
			},
			Rating:      4.6,
			PriceLevel:  1,
			Description: "Beautiful park perfect for romantic walks and picnics",
			Photos:      []string{"https://example.com/golden-gate-park.jpg"},
		},
		{
			ID:       "3",
			Name:     "The Museum of Modern Art",
			Category: "Arts & Culture",
			Location: Location{
				Address: "151 3rd St, San Francisco, CA 94103",
				Lat:     37.7857,
				Lng:     -122.4011,
			},
			Rating:      4.5,
			PriceLevel:  2,
			Description: "World-class contemporary art museum",
			Photos:      []string{"https://example.com/sfmoma.jpg"},
		},
		{
			ID:       "4",
			Name:     "Sunset Wine Bar",
			Category: "Wine Bar",
			Location: Location{
				Address: "2100 Irving St, San Francisco, CA 94122",
				Lat:     37.7634,
				Lng:     -122.4831,
			},
			Rating:      4.4,
			PriceLevel:  3,
			Description: "Cozy wine bar with craft cocktails and small plates",
			Photos:      []string{"https://example.com/sunset-wine.jpg"},
		},
		{
			ID:       "5",
			Name:     "Pier 39",
			Category: "Entertainment",
			Location: Location{
				Address: "Pier 39, San Francisco, CA 94133",
				Lat:     37.8087,
				Lng:     -122.4098,
			},
			Rating:      4.2,
			PriceLevel:  2,
			Description: "Waterfront entertainment complex with shops and restaurants",
			Photos:      []string{"https://example.com/pier39.jpg"},
		},
	}
}
