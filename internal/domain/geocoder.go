package domain

import (
	"context"
	"strings"
)

// GeocodingResult contains location data returned by a geocoding provider.
type GeocodingResult struct {
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// GeocodeQuery is the address of an event venue.
type GeocodeQuery struct {
	Venue   string
	City    string
	State   string
	Country string
}

// Address joins the non-empty parts with ", ".
func (q GeocodeQuery) Address() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{q.Venue, q.City, q.State, q.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Geocoder resolves venue addresses to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, q GeocodeQuery) (GeocodingResult, error)
}
