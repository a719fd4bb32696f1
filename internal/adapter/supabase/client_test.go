package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hottag/hottag-etl/internal/domain"
)

const (
	testKey     = "service-key"
	testEventID = "6f1c2f1e-1b7a-4f6b-9c55-0d2c4b8f9a10"
)

func testClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, testKey, "event-posters", 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func assertAuth(t *testing.T, r *http.Request) {
	t.Helper()
	assert.Equal(t, testKey, r.Header.Get("apikey"))
	assert.Equal(t, "Bearer "+testKey, r.Header.Get("Authorization"))
}

func ptr(s string) *string { return &s }

func TestUpsertEvents(t *testing.T) {
	var got []map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, eventsPath, r.URL.Path)
		assert.Equal(t, "cagematch_id", r.URL.Query().Get("on_conflict"))
		assert.Equal(t, "resolution=merge-duplicates,return=minimal", r.Header.Get("Prefer"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	rec := domain.EventRecord{
		Event: domain.Event{
			CagematchID: "412345",
			Name:        "GCW Homecoming",
			Date:        time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
			Location:    domain.ParsedLocation{City: ptr("Atlantic City"), State: ptr("NJ"), Country: ptr("USA")},
			Region:      "Northeast",
			SourceURL:   "https://www.cagematch.net/?id=1&nr=412345",
			Details:     domain.EventDetails{VenueName: "Showboat Hotel"},
			Geo:         &domain.Geo{Lat: 39.36, Lon: -74.42},
		},
		PromotionID: "promo-1",
	}

	require.NoError(t, c.UpsertEvents(context.Background(), []domain.EventRecord{rec}))
	require.Len(t, got, 1)
	row := got[0]
	assert.Equal(t, "2026-03-14", row["event_date"])
	assert.Equal(t, "NJ", row["state"])
	assert.Equal(t, "412345", row["cagematch_id"])
	assert.Equal(t, "promo-1", row["promotion_id"])
	assert.Equal(t, "Showboat Hotel", row["venue_name"])
	assert.Equal(t, 39.36, row["latitude"])
	assert.NotContains(t, row, "ticket_url")
}

// A re-scrape of an event with no details or coordinates must not send
// null enrichment columns, or the merge would erase backfilled values.
func TestUpsertEvents_BareEventOmitsEnrichmentColumns(t *testing.T) {
	var got []map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t,
			"cagematch_id,city,country,event_date,name,province,region,source_name,source_url,state,status",
			r.URL.Query().Get("columns"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	})

	rec := domain.EventRecord{Event: domain.Event{
		CagematchID: "1",
		Name:        "Indie Show",
		Date:        time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC),
		Location:    domain.ParsedLocation{City: ptr("Dayton"), State: ptr("OH"), Country: ptr("USA")},
	}}

	require.NoError(t, c.UpsertEvents(context.Background(), []domain.EventRecord{rec}))
	require.Len(t, got, 1)
	for _, col := range []string{
		"promotion_id", "venue_name", "venue_address", "ticket_url",
		"event_time", "doors_time", "latitude", "longitude",
	} {
		assert.NotContains(t, got[0], col)
	}
	assert.Equal(t, "1", got[0]["cagematch_id"])
	assert.Contains(t, got[0], "province")
	assert.Nil(t, got[0]["province"])
}

func TestUpsertEvents_GroupsByColumnSet(t *testing.T) {
	var batches [][]map[string]any
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var batch []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&batch))
		batches = append(batches, batch)
		w.WriteHeader(http.StatusCreated)
	})

	date := time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC)
	records := []domain.EventRecord{
		{Event: domain.Event{CagematchID: "1", Name: "A", Date: date}},
		{Event: domain.Event{CagematchID: "2", Name: "B", Date: date, Geo: &domain.Geo{Lat: 1, Lon: 2}}},
		{Event: domain.Event{CagematchID: "3", Name: "C", Date: date}},
	}

	require.NoError(t, c.UpsertEvents(context.Background(), records))
	require.Len(t, batches, 2)
	require.Len(t, batches[0], 2)
	assert.Equal(t, "1", batches[0][0]["cagematch_id"])
	assert.Equal(t, "3", batches[0][1]["cagematch_id"])
	require.Len(t, batches[1], 1)
	assert.Equal(t, 1.0, batches[1][0]["latitude"])
	for _, row := range batches[0] {
		assert.NotContains(t, row, "latitude")
	}
}

func TestUpsertEvents_StopsAtFirstFailedGroup(t *testing.T) {
	calls := 0
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	})

	records := []domain.EventRecord{
		{Event: domain.Event{CagematchID: "1", Name: "A"}},
		{Event: domain.Event{CagematchID: "2", Name: "B", Details: domain.EventDetails{VenueName: "Hall"}}},
	}

	require.Error(t, c.UpsertEvents(context.Background(), records))
	assert.Equal(t, 1, calls)
}

func TestUpsertEvents_Empty(t *testing.T) {
	c := testClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})
	assert.NoError(t, c.UpsertEvents(context.Background(), nil))
}

func TestUpsertEvents_ErrorIncludesBody(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = io.WriteString(w, `{"message":"duplicate key"}`)
	})

	err := c.UpsertEvents(context.Background(), []domain.EventRecord{{Event: domain.Event{Name: "x"}}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestListPromotions(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		assert.Equal(t, promotionsPath, r.URL.Path)
		assert.Equal(t, "id,name,slug,country,region", r.URL.Query().Get("select"))
		_, _ = io.WriteString(w, `[{"id":"p1","name":"Game Changer Wrestling","slug":"game-changer-wrestling","country":"USA","region":"Northeast"},{"id":"p2","name":"wXw","slug":"wxw","country":null,"region":null}]`)
	})

	got, err := c.ListPromotions(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Northeast", got[0].Region)
	assert.Equal(t, "USA", *got[0].Country)
	assert.Nil(t, got[1].Country)
	assert.Empty(t, got[1].Region)
}

func TestCreatePromotion(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "return=representation", r.Header.Get("Prefer"))
		var body promotionRow
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "black-label-pro", body.Slug)
		assert.Empty(t, body.ID)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"new-id","name":"Black Label Pro","slug":"black-label-pro","country":"USA","region":"Midwest"}]`)
	})

	p := domain.NewPromotion("Black Label Pro", domain.ClassifyLocation("Crown Point, Indiana, USA"))
	got, err := c.CreatePromotion(context.Background(), p)

	require.NoError(t, err)
	assert.Equal(t, "new-id", got.ID)
	assert.Equal(t, "Midwest", got.Region)
}

func TestCreatePromotion_EmptyResponse(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.CreatePromotion(context.Background(), domain.Promotion{Name: "x"})
	assert.ErrorContains(t, err, "empty response")
}

func TestListEventsMissingCoords(t *testing.T) {
	fc := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	domain.SetClock(fc)
	t.Cleanup(func() { domain.SetClock(clockwork.NewRealClock()) })

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "is.null", q.Get("latitude"))
		assert.Equal(t, "gte.2026-03-01", q.Get("event_date"))
		assert.Equal(t, "25", q.Get("limit"))
		assert.Equal(t, storedColumns, q.Get("select"))
		_, _ = io.WriteString(w, `[{"id":"e1","name":"Show","source_url":null,"venue_name":"2300 Arena","city":"Philadelphia","state":"PA","country":"USA","province":null}]`)
	})

	got, err := c.ListEventsMissingCoords(context.Background(), 25)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2300 Arena, Philadelphia, PA, USA", got[0].GeocodeQuery().Address())
	assert.Empty(t, got[0].SourceURL)
}

func TestListEventsMissingCoords_ProvinceFeedsGeocodeQuery(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"id":"e2","name":"wXw Show","source_url":null,"venue_name":null,"city":"Oberhausen","state":null,"country":"Deutschland","province":"Nordrhein-Westfalen"}]`)
	})

	got, err := c.ListEventsMissingCoords(context.Background(), 5)

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Nordrhein-Westfalen", *got[0].Location.Province)
	assert.Equal(t, "Oberhausen, Nordrhein-Westfalen, Deutschland", got[0].GeocodeQuery().Address())
}

func TestListEventsMissingDetails(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "is.null", q.Get("venue_name"))
		assert.Equal(t, "not.is.null", q.Get("source_url"))
		_, _ = io.WriteString(w, `[]`)
	})

	got, err := c.ListEventsMissingDetails(context.Background(), 10)

	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateEventCoords(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "eq.e1", r.URL.Query().Get("id"))
		var body map[string]float64
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]float64{"latitude": 1.5, "longitude": -2.5}, body)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.UpdateEventCoords(context.Background(), "e1", domain.Geo{Lat: 1.5, Lon: -2.5}))
}

func TestUpdateEventDetails_OnlyNonEmpty(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{"venue_name": "Showboat", "doors_time": "18:00"}, body)
		w.WriteHeader(http.StatusNoContent)
	})

	err := c.UpdateEventDetails(context.Background(), "e1", domain.EventDetails{VenueName: "Showboat", DoorsTime: "18:00"})
	assert.NoError(t, err)
}

func TestUpdateEventDetails_EmptySkipsRequest(t *testing.T) {
	c := testClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})
	assert.NoError(t, c.UpdateEventDetails(context.Background(), "e1", domain.EventDetails{}))
}

func TestUploadPoster(t *testing.T) {
	var uploaded []byte
	var linked map[string]string
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertAuth(t, r)
		switch r.Method {
		case http.MethodPost:
			assert.Equal(t, "/storage/v1/object/event-posters/"+testEventID+".png", r.URL.Path)
			assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
			assert.Equal(t, "true", r.Header.Get("x-upsert"))
			uploaded, _ = io.ReadAll(r.Body)
			_, _ = io.WriteString(w, `{"Key":"event-posters/x.png"}`)
		case http.MethodPatch:
			assert.Equal(t, "eq."+testEventID, r.URL.Query().Get("id"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&linked))
			w.WriteHeader(http.StatusNoContent)
		}
	})

	url, err := c.UploadPoster(context.Background(), testEventID, "Poster.PNG", bytes.NewReader([]byte("png-bytes")))

	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), uploaded)
	assert.Equal(t, c.PublicURL(testEventID+".png"), url)
	assert.Equal(t, url, linked["poster_url"])
}

func TestUploadPoster_Validation(t *testing.T) {
	c := testClient(t, func(http.ResponseWriter, *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.UploadPoster(context.Background(), "cm-123", "poster.png", bytes.NewReader(nil))
	assert.ErrorContains(t, err, "invalid event id")

	_, err = c.UploadPoster(context.Background(), testEventID, "poster.pdf", bytes.NewReader(nil))
	assert.ErrorContains(t, err, "unsupported poster type")
}
