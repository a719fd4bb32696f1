package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hottag/hottag-etl/internal/domain"
)

// PromotionStore lists and creates promotions.
type PromotionStore interface {
	ListPromotions(ctx context.Context) ([]domain.Promotion, error)
	CreatePromotion(ctx context.Context, p domain.Promotion) (domain.Promotion, error)
}

// EventStore upserts events keyed by Cagematch id.
type EventStore interface {
	UpsertEvents(ctx context.Context, records []domain.EventRecord) error
}

// StoreLoader is a BatchLoader that resolves each event's promotion by
// lookup-or-create and then upserts the batch.
type StoreLoader struct {
	events EventStore
	promos PromotionStore
	logger *slog.Logger

	mu    sync.Mutex
	known []domain.Promotion
	ok    bool
}

// NewStoreLoader creates a StoreLoader. The promotion list is fetched on
// first use and kept for the loader's lifetime.
func NewStoreLoader(events EventStore, promos PromotionStore, logger *slog.Logger) *StoreLoader {
	return &StoreLoader{events: events, promos: promos, logger: logger}
}

func (l *StoreLoader) LoadBatch(ctx context.Context, events []domain.Event) error {
	records := make([]domain.EventRecord, 0, len(events))
	for _, e := range events {
		id, err := l.resolvePromotion(ctx, e)
		if err != nil {
			return fmt.Errorf("resolve promotion %q: %w", e.Promotion.Name, err)
		}
		records = append(records, domain.EventRecord{Event: e, PromotionID: id})
	}
	return l.events.UpsertEvents(ctx, records)
}

func (l *StoreLoader) resolvePromotion(ctx context.Context, e domain.Event) (string, error) {
	if e.Promotion.Name == "" {
		return "", nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.ok {
		known, err := l.promos.ListPromotions(ctx)
		if err != nil {
			return "", err
		}
		l.known, l.ok = known, true
	}

	if p, found := domain.MatchPromotion(e.Promotion.Name, l.known); found {
		return p.ID, nil
	}

	created, err := l.promos.CreatePromotion(ctx, domain.NewPromotion(e.Promotion.Name, e.Location))
	if err != nil {
		return "", err
	}
	l.logger.Info("created promotion", "name", created.Name, "id", created.ID, "region", created.Region)
	l.known = append(l.known, created)
	return created.ID, nil
}

// MultiLoader fans a batch out to several loaders, attempting all of them.
type MultiLoader []BatchLoader

func (m MultiLoader) LoadBatch(ctx context.Context, events []domain.Event) error {
	var errs []error
	for _, l := range m {
		if err := l.LoadBatch(ctx, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DiscardLoader accepts and drops every batch.
type DiscardLoader struct{}

func (DiscardLoader) LoadBatch(context.Context, []domain.Event) error { return nil }
