package venues

import (
	"context"
	"fmt"
	"testing"
)

func TestSearchFreeText(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{
			name:  "matches description",
			query: "romantic",
			want:  []string{"Golden Gate Park"},
		},
		{
			name:  "matches name",
			query: "pier",
			want:  []string{"Pier 39"},
		},
		{
			name:  "matches category",
			query: "wine",
			want:  []string{"Sunset Wine Bar"},
		},
		{
			name:  "case insensitive",
			query: "ATELIER",
			want:  []string{"Atelier Crenn"},
		},
		{
			name:  "no match",
			query: "bowling",
			want:  nil,
		},
		{
			name:  "empty query returns everything",
			query: "",
			want: []string{
				"Atelier Crenn", "Golden Gate Park", "The Museum of Modern Art",
				"Sunset Wine Bar", "Pier 39",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Search(context.Background(), Query{Query: tt.query})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			assertNames(t, got, tt.want)
		})
	}
}

func TestSearchCategory(t *testing.T) {
	c := NewCatalog()

	got, err := c.Search(context.Background(), Query{Category: "dining"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	assertNames(t, got, []string{"Atelier Crenn"})
}

func TestSearchPriceRange(t *testing.T) {
	c := NewCatalog()

	tests := []struct {
		priceRange string
		wantCount  int
	}{
		{"budget", 1},    // only price level 1
		{"moderate", 3},  // levels 1-2
		{"expensive", 4}, // levels 1-3
		{"luxury", 5},    // everything
		{"LUXURY", 5},    // case insensitive
		{"cheapish", 5},  // unknown tier is most permissive
	}

	for _, tt := range tests {
		t.Run(tt.priceRange, func(t *testing.T) {
			got, err := c.Search(context.Background(), Query{PriceRange: tt.priceRange})
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("Search(%q) returned %d venues, want %d", tt.priceRange, len(got), tt.wantCount)
			}
		})
	}
}

func TestSearchUnsetPriceLevelCountsAsCheapest(t *testing.T) {
	c := NewCatalogWith([]Venue{
		{ID: "a", Name: "No Price", Category: "Cafe"},
	})

	got, err := c.Search(context.Background(), Query{PriceRange: "budget"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("venue without price level should pass a budget filter, got %d results", len(got))
	}
}

func TestSearchStagesCombine(t *testing.T) {
	c := NewCatalog()

	// "restaurant" matches both dining venues; the moderate price ceiling
	// then drops Atelier Crenn (level 4), leaving Pier 39.
	got, err := c.Search(context.Background(), Query{Query: "restaurant", PriceRange: "moderate"})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	assertNames(t, got, []string{"Pier 39"})
}

func TestSearchCapsResults(t *testing.T) {
	var many []Venue
	for i := 0; i < 10; i++ {
		many = append(many, Venue{
			ID:       fmt.Sprintf("v%d", i),
			Name:     fmt.Sprintf("Venue %d", i),
			Category: "Cafe",
		})
	}
	c := NewCatalogWith(many)

	got, err := c.Search(context.Background(), Query{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != MaxResults {
		t.Errorf("Search() returned %d venues, want cap of %d", len(got), MaxResults)
	}
}

func TestSearchCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewCatalog().Search(ctx, Query{}); err == nil {
		t.Error("Search() with canceled context should fail")
	}
}

func TestVenueByID(t *testing.T) {
	c := NewCatalog()

	v, err := c.VenueByID(context.Background(), "2")
	if err != nil {
		t.Fatalf("VenueByID() error = %v", err)
	}
	if v == nil || v.Name != "Golden Gate Park" {
		t.Errorf("VenueByID(2) = %+v, want Golden Gate Park", v)
	}

	missing, err := c.VenueByID(context.Background(), "999")
	if err != nil {
		t.Fatalf("VenueByID() error = %v", err)
	}
	if missing != nil {
		t.Errorf("VenueByID(999) = %+v, want nil", missing)
	}
}

func assertNames(t *testing.T, got []Venue, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d venues, want %d (%v)", len(got), len(want), names(got))
	}
	for i, v := range got {
		if v.Name != want[i] {
			t.Errorf("venue[%d] = %q, want %q", i, v.Name, want[i])
		}
	}
}

func names(venues []Venue) []string {
	out := make([]string, len(venues))
	for i, v := range venues {
		out[i] = v.Name
	}
	return out
}
