package domain

import (
	"context"
	"log/slog"
)

// QueryForEvent builds the geocoding address of a scraped event.
func QueryForEvent(event Event) GeocodeQuery {
	return event.Location.geocodeQuery(event.Details.VenueName)
}

// geocodeQuery fills State from Province when the location has no US state,
// so foreign lookups keep the regional hint.
func (l ParsedLocation) geocodeQuery(venue string) GeocodeQuery {
	state := deref(l.State)
	if state == "" {
		state = deref(l.Province)
	}
	return GeocodeQuery{
		Venue:   venue,
		City:    deref(l.City),
		State:   state,
		Country: deref(l.Country),
	}
}

// EnrichWithGeocoding attempts to attach coordinates to an event.
// If geocoder is nil or geocoding fails, the event is returned with
// GeoSource set accordingly (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, event Event, geocoder Geocoder, logger *slog.Logger) Event {
	if geocoder == nil {
		return event
	}

	if event.Geo != nil {
		event.GeoSource = "original"
		return event
	}

	q := QueryForEvent(event)
	if q.Address() == "" {
		event.GeoSource = "original"
		return event
	}

	result, err := geocoder.Geocode(ctx, q)
	if err != nil {
		logger.Warn("geocoding failed",
			"event_id", event.ID,
			"address", q.Address(),
			"error", err,
		)
		event.GeoSource = "failed"
		return event
	}
	if result.Lat == 0 && result.Lon == 0 {
		event.GeoSource = "original"
		return event
	}

	event.Geo = &Geo{Lat: result.Lat, Lon: result.Lon}
	event.FormattedAddress = result.FormattedAddress
	event.PlaceName = result.PlaceName
	event.GeoConfidence = result.Confidence
	event.GeoSource = "forward"
	return event
}
