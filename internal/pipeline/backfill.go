package pipeline

import (
	"context"
	"log/slog"

	"github.com/hottag/hottag-etl/internal/domain"
)

// CoordsStore lists events without coordinates and stores new ones.
type CoordsStore interface {
	ListEventsMissingCoords(ctx context.Context, limit int) ([]domain.StoredEvent, error)
	UpdateEventCoords(ctx context.Context, id string, geo domain.Geo) error
}

// DetailsStore lists events without venue details and stores new ones.
type DetailsStore interface {
	ListEventsMissingDetails(ctx context.Context, limit int) ([]domain.StoredEvent, error)
	UpdateEventDetails(ctx context.Context, id string, d domain.EventDetails) error
}

// BackfillSummary counts the outcome of a backfill pass.
type BackfillSummary struct {
	Scanned int
	Updated int
	Skipped int
	Failed  int
}

// GeocodeBackfill fills coordinates for stored events.
type GeocodeBackfill struct {
	store    CoordsStore
	geocoder domain.Geocoder
	logger   *slog.Logger
}

func NewGeocodeBackfill(store CoordsStore, geocoder domain.Geocoder, logger *slog.Logger) *GeocodeBackfill {
	return &GeocodeBackfill{store: store, geocoder: geocoder, logger: logger}
}

// Run geocodes up to limit events. Per-event failures are logged and counted.
func (b *GeocodeBackfill) Run(ctx context.Context, limit int) (BackfillSummary, error) {
	events, err := b.store.ListEventsMissingCoords(ctx, limit)
	if err != nil {
		return BackfillSummary{}, err
	}

	var sum BackfillSummary
	for _, e := range events {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		sum.Scanned++

		q := e.GeocodeQuery()
		if q.Address() == "" {
			sum.Skipped++
			continue
		}

		res, err := b.geocoder.Geocode(ctx, q)
		if err != nil {
			b.logger.Warn("geocode failed", "event_id", e.ID, "address", q.Address(), "error", err)
			sum.Failed++
			continue
		}
		if res.Lat == 0 && res.Lon == 0 {
			b.logger.Info("no geocode result", "event_id", e.ID, "address", q.Address())
			sum.Skipped++
			continue
		}

		if err := b.store.UpdateEventCoords(ctx, e.ID, domain.Geo{Lat: res.Lat, Lon: res.Lon}); err != nil {
			b.logger.Warn("update coords failed", "event_id", e.ID, "error", err)
			sum.Failed++
			continue
		}
		sum.Updated++
	}

	b.logger.Info("geocode backfill finished",
		"scanned", sum.Scanned, "updated", sum.Updated, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, nil
}

// DetailsBackfill fills venue and ticket details for stored events.
type DetailsBackfill struct {
	store   DetailsStore
	details DetailsFetcher
	logger  *slog.Logger
}

func NewDetailsBackfill(store DetailsStore, details DetailsFetcher, logger *slog.Logger) *DetailsBackfill {
	return &DetailsBackfill{store: store, details: details, logger: logger}
}

// Run fetches details for up to limit events.
func (b *DetailsBackfill) Run(ctx context.Context, limit int) (BackfillSummary, error) {
	events, err := b.store.ListEventsMissingDetails(ctx, limit)
	if err != nil {
		return BackfillSummary{}, err
	}

	var sum BackfillSummary
	for _, e := range events {
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		sum.Scanned++

		if e.SourceURL == "" {
			sum.Skipped++
			continue
		}

		d, err := b.details.FetchDetails(ctx, e.SourceURL)
		if err != nil {
			b.logger.Warn("fetch details failed", "event_id", e.ID, "url", e.SourceURL, "error", err)
			sum.Failed++
			continue
		}
		if d.Empty() {
			sum.Skipped++
			continue
		}

		if err := b.store.UpdateEventDetails(ctx, e.ID, d); err != nil {
			b.logger.Warn("update details failed", "event_id", e.ID, "error", err)
			sum.Failed++
			continue
		}
		sum.Updated++
	}

	b.logger.Info("details backfill finished",
		"scanned", sum.Scanned, "updated", sum.Updated, "skipped", sum.Skipped, "failed", sum.Failed)
	return sum, nil
}
