package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- mock geocoder ---

type mockGeocoder struct {
	result  GeocodingResult
	err     error
	calls   int
	lastReq GeocodeQuery
}

func (m *mockGeocoder) Geocode(_ context.Context, q GeocodeQuery) (GeocodingResult, error) {
	m.calls++
	m.lastReq = q
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func nashvilleEvent() Event {
	return Event{
		ID:       "cm-1",
		Location: ClassifyLocation("Nashville, TN"),
		Details:  EventDetails{VenueName: "Tennessee Fairgrounds"},
	}
}

// --- tests ---

func TestEnrichWithGeocoding_NilGeocoder(t *testing.T) {
	result := EnrichWithGeocoding(context.Background(), nashvilleEvent(), nil, discardLogger())

	assert.Empty(t, result.GeoSource)
	assert.Nil(t, result.Geo)
}

func TestEnrichWithGeocoding_Forward(t *testing.T) {
	geo := &mockGeocoder{
		result: GeocodingResult{
			Lat:              36.1341,
			Lon:              -86.7565,
			FormattedAddress: "Tennessee Fairgrounds, Nashville, Tennessee 37203, United States",
			PlaceName:        "Tennessee Fairgrounds",
			Confidence:       0.9,
		},
	}

	result := EnrichWithGeocoding(context.Background(), nashvilleEvent(), geo, discardLogger())

	assert.Equal(t, &Geo{Lat: 36.1341, Lon: -86.7565}, result.Geo)
	assert.Equal(t, "Tennessee Fairgrounds", result.PlaceName)
	assert.Equal(t, 0.9, result.GeoConfidence)
	assert.Equal(t, "forward", result.GeoSource)
	assert.Equal(t, 1, geo.calls)
	assert.Equal(t, "Tennessee Fairgrounds, Nashville, TN, USA", geo.lastReq.Address())
}

func TestEnrichWithGeocoding_Error_GracefulDegradation(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("API timeout")}

	result := EnrichWithGeocoding(context.Background(), nashvilleEvent(), geo, discardLogger())

	assert.Equal(t, "failed", result.GeoSource)
	assert.Nil(t, result.Geo)
}

func TestEnrichWithGeocoding_ExistingCoords(t *testing.T) {
	geo := &mockGeocoder{}
	event := nashvilleEvent()
	event.Geo = &Geo{Lat: 1, Lon: 2}

	result := EnrichWithGeocoding(context.Background(), event, geo, discardLogger())

	assert.Equal(t, "original", result.GeoSource)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichWithGeocoding_NoAddress(t *testing.T) {
	geo := &mockGeocoder{}

	result := EnrichWithGeocoding(context.Background(), Event{ID: "cm-2"}, geo, discardLogger())

	assert.Equal(t, "original", result.GeoSource)
	assert.Equal(t, 0, geo.calls)
}

func TestEnrichWithGeocoding_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}

	result := EnrichWithGeocoding(context.Background(), nashvilleEvent(), geo, discardLogger())

	assert.Equal(t, "original", result.GeoSource)
	assert.Nil(t, result.Geo)
	assert.Equal(t, 1, geo.calls)
}

func TestGeocodeQuery_Address(t *testing.T) {
	assert.Equal(t, "", GeocodeQuery{}.Address())
	assert.Equal(t, "Berlin, Germany", GeocodeQuery{City: " Berlin ", Country: "Germany"}.Address())
}

func TestQueryForEvent_ProvinceFillsState(t *testing.T) {
	event := Event{Location: ClassifyLocation("Brno, Moravia, Czechia")}

	q := QueryForEvent(event)

	assert.Equal(t, GeocodeQuery{City: "Brno", State: "Moravia", Country: "Czechia"}, q)
}

func TestQueryForEvent_StatePreferredOverProvince(t *testing.T) {
	q := QueryForEvent(nashvilleEvent())

	assert.Equal(t, "TN", q.State)
	assert.Equal(t, "Tennessee Fairgrounds, Nashville, TN, USA", q.Address())
}

func TestStoredEvent_GeocodeQueryUsesProvince(t *testing.T) {
	e := StoredEvent{
		Venue:    "Turbinenhalle",
		Location: ParsedLocation{City: strPtr("Oberhausen"), Country: strPtr("Deutschland"), Province: strPtr("Nordrhein-Westfalen")},
	}

	assert.Equal(t, "Turbinenhalle, Oberhausen, Nordrhein-Westfalen, Deutschland", e.GeocodeQuery().Address())
}
