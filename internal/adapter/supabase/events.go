package supabase

import (
	"context"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/hottag/hottag-etl/internal/domain"
)

const (
	eventsPath = "/rest/v1/events"
	dateLayout = "2006-01-02"
)

// eventRow is one events payload. Base columns come from the listing and are
// always sent. Enrichment columns are sent only when known, because the
// upsert merges every sent key and a null would erase a backfilled value.
type eventRow map[string]any

func toEventRow(r domain.EventRecord) eventRow {
	row := eventRow{
		"name":         r.Name,
		"event_date":   r.Date.Format(dateLayout),
		"city":         r.Location.City,
		"state":        r.Location.State,
		"country":      r.Location.Country,
		"province":     r.Location.Province,
		"region":       optional(r.Region),
		"cagematch_id": optional(r.CagematchID),
		"source_url":   optional(r.SourceURL),
		"source_name":  "cagematch",
		"status":       "upcoming",
	}
	for col, v := range map[string]string{
		"promotion_id":  r.PromotionID,
		"venue_name":    r.Details.VenueName,
		"venue_address": r.Details.VenueAddress,
		"ticket_url":    r.Details.TicketURL,
		"event_time":    r.Details.EventTime,
		"doors_time":    r.Details.DoorsTime,
	} {
		if v != "" {
			row[col] = v
		}
	}
	if r.Geo != nil {
		row["latitude"] = r.Geo.Lat
		row["longitude"] = r.Geo.Lon
	}
	return row
}

// columns returns the row's keys in sorted order.
func (r eventRow) columns() string {
	cols := make([]string, 0, len(r))
	for k := range r {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return strings.Join(cols, ",")
}

// groupByColumns splits rows into batches that share one key set, since a
// bulk insert takes its columns from the payload as a whole. Groups keep the
// order in which their first row appeared.
func groupByColumns(rows []eventRow) [][]eventRow {
	var order []string
	groups := make(map[string][]eventRow)
	for _, row := range rows {
		cols := row.columns()
		if _, ok := groups[cols]; !ok {
			order = append(order, cols)
		}
		groups[cols] = append(groups[cols], row)
	}
	out := make([][]eventRow, len(order))
	for i, cols := range order {
		out[i] = groups[cols]
	}
	return out
}

// UpsertEvents inserts or merges events on cagematch_id. Records are sent in
// one request per distinct column set.
func (c *Client) UpsertEvents(ctx context.Context, records []domain.EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([]eventRow, len(records))
	for i, r := range records {
		rows[i] = toEventRow(r)
	}
	for _, group := range groupByColumns(rows) {
		err := c.do(ctx, request{
			method: http.MethodPost,
			path:   eventsPath,
			query:  url.Values{"on_conflict": {"cagematch_id"}, "columns": {group[0].columns()}},
			prefer: "resolution=merge-duplicates,return=minimal",
			body:   group,
		}, nil)
		if err != nil {
			return err
		}
	}
	return nil
}

// storedRow is the subset of event columns read back for backfills.
type storedRow struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SourceURL *string `json:"source_url"`
	VenueName *string `json:"venue_name"`
	City      *string `json:"city"`
	State     *string `json:"state"`
	Country   *string `json:"country"`
	Province  *string `json:"province"`
}

func (r storedRow) toDomain() domain.StoredEvent {
	e := domain.StoredEvent{
		ID:       r.ID,
		Name:     r.Name,
		Location: domain.ParsedLocation{City: r.City, State: r.State, Country: r.Country, Province: r.Province},
	}
	if r.SourceURL != nil {
		e.SourceURL = *r.SourceURL
	}
	if r.VenueName != nil {
		e.Venue = *r.VenueName
	}
	return e
}

const storedColumns = "id,name,source_url,venue_name,city,state,country,province"

// ListEventsMissingCoords returns upcoming events without a latitude.
func (c *Client) ListEventsMissingCoords(ctx context.Context, limit int) ([]domain.StoredEvent, error) {
	return c.listStored(ctx, limit, url.Values{"latitude": {"is.null"}})
}

// ListEventsMissingDetails returns upcoming events with a source URL but no venue.
func (c *Client) ListEventsMissingDetails(ctx context.Context, limit int) ([]domain.StoredEvent, error) {
	return c.listStored(ctx, limit, url.Values{
		"venue_name": {"is.null"},
		"source_url": {"not.is.null"},
	})
}

func (c *Client) listStored(ctx context.Context, limit int, filter url.Values) ([]domain.StoredEvent, error) {
	q := url.Values{
		"select":     {storedColumns},
		"event_date": {"gte." + domain.Now().UTC().Format(dateLayout)},
		"order":      {"event_date.asc"},
		"limit":      {strconv.Itoa(limit)},
	}
	for k, v := range filter {
		q[k] = v
	}

	var rows []storedRow
	if err := c.do(ctx, request{method: http.MethodGet, path: eventsPath, query: q}, &rows); err != nil {
		return nil, err
	}
	out := make([]domain.StoredEvent, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// UpdateEventCoords sets latitude and longitude on one event.
func (c *Client) UpdateEventCoords(ctx context.Context, id string, geo domain.Geo) error {
	return c.patchEvent(ctx, id, map[string]any{"latitude": geo.Lat, "longitude": geo.Lon})
}

// UpdateEventDetails sets the non-empty detail columns on one event.
func (c *Client) UpdateEventDetails(ctx context.Context, id string, d domain.EventDetails) error {
	patch := map[string]any{}
	for col, v := range map[string]string{
		"venue_name":    d.VenueName,
		"venue_address": d.VenueAddress,
		"ticket_url":    d.TicketURL,
		"event_time":    d.EventTime,
		"doors_time":    d.DoorsTime,
	} {
		if v != "" {
			patch[col] = v
		}
	}
	if len(patch) == 0 {
		return nil
	}
	return c.patchEvent(ctx, id, patch)
}

func (c *Client) patchEvent(ctx context.Context, id string, patch map[string]any) error {
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   eventsPath,
		query:  url.Values{"id": {"eq." + id}},
		prefer: "return=minimal",
		body:   patch,
	}, nil)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
