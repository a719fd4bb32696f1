package pipeline

import (
	"context"
	"log/slog"

	"github.com/hottag/hottag-etl/internal/domain"
)

// DetailsFetcher loads venue and ticket details from an event page.
type DetailsFetcher interface {
	FetchDetails(ctx context.Context, eventURL string) (domain.EventDetails, error)
}

// EventTransformer implements Transformer using domain transform functions
// with optional detail and geocoding enrichment.
type EventTransformer struct {
	details  DetailsFetcher
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates an EventTransformer. Pass nil for details or
// geocoder to skip that enrichment.
func NewTransformer(details DetailsFetcher, geocoder domain.Geocoder, logger *slog.Logger) *EventTransformer {
	return &EventTransformer{
		details:  details,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *EventTransformer) Transform(_ context.Context, row domain.RawRow) (domain.Event, error) {
	event, err := domain.ParseRow(row)
	if err != nil {
		return domain.Event{}, err
	}
	return domain.EnrichEvent(event), nil
}

func (t *EventTransformer) Enrich(ctx context.Context, event domain.Event) domain.Event {
	if t.details != nil && event.SourceURL != "" {
		d, err := t.details.FetchDetails(ctx, event.SourceURL)
		if err != nil {
			t.logger.Warn("event details failed", "event_id", event.ID, "url", event.SourceURL, "error", err)
		} else {
			event.Details = d
		}
	}
	return domain.EnrichWithGeocoding(ctx, event, t.geocoder, t.logger)
}
