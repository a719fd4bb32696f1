package domain

import "time"

// RawRow is one row of the Cagematch event listing as fetched: the date cell
// text, the inner HTML of the event cell, and the location cell text.
type RawRow struct {
	DateText      string
	EventCellHTML string
	LocationText  string
	PageURL       string // listing page the row came from, used to resolve links
}

// PromotionRef identifies the promotion named in a listing row.
type PromotionRef struct {
	Name        string `json:"name"`
	CagematchID string `json:"cagematch_id,omitempty"`
}

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// EventDetails holds the venue and ticket fields from an event's own page.
type EventDetails struct {
	VenueName    string `json:"venue_name,omitempty"`
	VenueAddress string `json:"venue_address,omitempty"`
	TicketURL    string `json:"ticket_url,omitempty"`
	EventTime    string `json:"event_time,omitempty"`
	DoorsTime    string `json:"doors_time,omitempty"`
}

// Empty reports whether no detail field was found.
func (d EventDetails) Empty() bool {
	return d == EventDetails{}
}

// Event is a normalized upcoming event.
type Event struct {
	ID          string         `json:"id"`
	CagematchID string         `json:"cagematch_id,omitempty"`
	Name        string         `json:"name"`
	Date        time.Time      `json:"date"`
	Promotion   PromotionRef   `json:"promotion"`
	RawLocation string         `json:"raw_location,omitempty"`
	Location    ParsedLocation `json:"location"`
	Region      string         `json:"region,omitempty"`
	SourceURL   string         `json:"source_url,omitempty"`
	Details     EventDetails   `json:"details"`

	// Geocoding enrichment fields.
	Geo              *Geo    `json:"geo,omitempty"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	PlaceName        string  `json:"place_name,omitempty"`
	GeoConfidence    float64 `json:"geo_confidence,omitempty"`
	GeoSource        string  `json:"geo_source,omitempty"` // "forward", "original", "failed"

	ProcessedAt time.Time `json:"processed_at"`
}

// StoredEvent is an event row read back from a store for backfills.
type StoredEvent struct {
	ID        string
	Name      string
	SourceURL string
	Venue     string
	Location  ParsedLocation
}

// GeocodeQuery returns the address parts for geocoding this stored event.
func (e StoredEvent) GeocodeQuery() GeocodeQuery {
	return e.Location.geocodeQuery(e.Venue)
}

// EventRecord is an event ready to persist, with its promotion resolved to
// a backend ID ("" when the listing named no promotion).
type EventRecord struct {
	Event
	PromotionID string
}
