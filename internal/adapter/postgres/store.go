// Package postgres stores events and promotions directly in Postgres using
// the same tables the REST sink writes to.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hottag/hottag-etl/internal/domain"
)

// Store implements the pipeline event, promotion, and backfill stores.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// New opens and pings a connection pool.
func New(ctx context.Context, databaseURL string, maxConns int, logger *slog.Logger) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	poolCfg.MaxConns = int32(maxConns)
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, logger: logger}, nil
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Venue and coordinate columns keep their stored value when the incoming row
// has none, so a later scrape without details never erases a backfill.
const upsertEventSQL = `
	INSERT INTO events (
		name, event_date, city, state, country, province, region, promotion_id,
		cagematch_id, source_url, source_name, status, venue_name,
		venue_address, ticket_url, event_time, doors_time, latitude, longitude
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,'cagematch','upcoming',$11,$12,$13,$14,$15,$16,$17)
	ON CONFLICT (cagematch_id) DO UPDATE SET
		name = EXCLUDED.name,
		event_date = EXCLUDED.event_date,
		city = EXCLUDED.city,
		state = EXCLUDED.state,
		country = EXCLUDED.country,
		province = EXCLUDED.province,
		region = EXCLUDED.region,
		promotion_id = COALESCE(EXCLUDED.promotion_id, events.promotion_id),
		source_url = EXCLUDED.source_url,
		venue_name = COALESCE(EXCLUDED.venue_name, events.venue_name),
		venue_address = COALESCE(EXCLUDED.venue_address, events.venue_address),
		ticket_url = COALESCE(EXCLUDED.ticket_url, events.ticket_url),
		event_time = COALESCE(EXCLUDED.event_time, events.event_time),
		doors_time = COALESCE(EXCLUDED.doors_time, events.doors_time),
		latitude = COALESCE(EXCLUDED.latitude, events.latitude),
		longitude = COALESCE(EXCLUDED.longitude, events.longitude),
		updated_at = NOW()`

// UpsertEvents writes all records in one batch.
func (s *Store) UpsertEvents(ctx context.Context, records []domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, r := range records {
		batch.Queue(upsertEventSQL, eventArgs(r)...)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, r := range records {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert event %s: %w", r.ID, err)
		}
	}
	return br.Close()
}

func eventArgs(r domain.EventRecord) []any {
	var lat, lon *float64
	if r.Geo != nil {
		lat, lon = &r.Geo.Lat, &r.Geo.Lon
	}
	return []any{
		r.Name,
		r.Date.Format("2006-01-02"),
		r.Location.City,
		r.Location.State,
		r.Location.Country,
		r.Location.Province,
		nilEmpty(r.Region),
		nilEmpty(r.PromotionID),
		nilEmpty(r.CagematchID),
		nilEmpty(r.SourceURL),
		nilEmpty(r.Details.VenueName),
		nilEmpty(r.Details.VenueAddress),
		nilEmpty(r.Details.TicketURL),
		nilEmpty(r.Details.EventTime),
		nilEmpty(r.Details.DoorsTime),
		lat,
		lon,
	}
}

// ListPromotions returns every stored promotion.
func (s *Store) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	rows, err := s.pool.Query(ctx, `SELECT id::text, name, slug, country, COALESCE(region, '') FROM promotions`)
	if err != nil {
		return nil, fmt.Errorf("list promotions: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Promotion, error) {
		var p domain.Promotion
		err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Country, &p.Region)
		return p, err
	})
}

// CreatePromotion inserts p and returns it with the generated ID.
func (s *Store) CreatePromotion(ctx context.Context, p domain.Promotion) (domain.Promotion, error) {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO promotions (name, slug, country, region) VALUES ($1, $2, $3, $4) RETURNING id::text`,
		p.Name, p.Slug, p.Country, nilEmpty(p.Region),
	).Scan(&p.ID)
	if err != nil {
		return domain.Promotion{}, fmt.Errorf("create promotion %q: %w", p.Name, err)
	}
	return p, nil
}

// ListEventsMissingCoords returns upcoming events without a latitude.
func (s *Store) ListEventsMissingCoords(ctx context.Context, limit int) ([]domain.StoredEvent, error) {
	return s.listStored(ctx, "latitude IS NULL", limit)
}

// ListEventsMissingDetails returns upcoming events with a source URL but no venue.
func (s *Store) ListEventsMissingDetails(ctx context.Context, limit int) ([]domain.StoredEvent, error) {
	return s.listStored(ctx, "venue_name IS NULL AND source_url IS NOT NULL", limit)
}

func (s *Store) listStored(ctx context.Context, where string, limit int) ([]domain.StoredEvent, error) {
	rows, err := s.pool.Query(ctx, listStoredSQL(where),
		domain.Now().UTC().Format("2006-01-02"), limit)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.StoredEvent, error) {
		var e domain.StoredEvent
		err := row.Scan(&e.ID, &e.Name, &e.SourceURL, &e.Venue,
			&e.Location.City, &e.Location.State, &e.Location.Country, &e.Location.Province)
		return e, err
	})
}

func listStoredSQL(where string) string {
	return `SELECT id::text, name, COALESCE(source_url, ''), COALESCE(venue_name, ''), city, state, country, province
		FROM events
		WHERE event_date >= $1 AND ` + where + `
		ORDER BY event_date
		LIMIT $2`
}

// UpdateEventCoords sets latitude and longitude on one event.
func (s *Store) UpdateEventCoords(ctx context.Context, id string, geo domain.Geo) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE events SET latitude = $2, longitude = $3, updated_at = NOW() WHERE id::text = $1`,
		id, geo.Lat, geo.Lon)
	if err != nil {
		return fmt.Errorf("update coords %s: %w", id, err)
	}
	return nil
}

// UpdateEventDetails sets the non-empty detail columns on one event.
func (s *Store) UpdateEventDetails(ctx context.Context, id string, d domain.EventDetails) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE events SET
			venue_name = COALESCE($2, venue_name),
			venue_address = COALESCE($3, venue_address),
			ticket_url = COALESCE($4, ticket_url),
			event_time = COALESCE($5, event_time),
			doors_time = COALESCE($6, doors_time),
			updated_at = NOW()
		WHERE id::text = $1`,
		id, nilEmpty(d.VenueName), nilEmpty(d.VenueAddress), nilEmpty(d.TicketURL),
		nilEmpty(d.EventTime), nilEmpty(d.DoorsTime))
	if err != nil {
		return fmt.Errorf("update details %s: %w", id, err)
	}
	return nil
}

func nilEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
