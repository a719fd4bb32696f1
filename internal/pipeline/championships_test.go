package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hottag/hottag-etl/internal/domain"
	"github.com/hottag/hottag-etl/internal/pipeline"
)

type mockTitleSource struct {
	nrs      map[string]string // promotion name -> nr
	titles   map[string][]domain.Title
	fetchErr map[string]error
	searched []string
}

func (m *mockTitleSource) FindPromotion(_ context.Context, name string) (string, error) {
	m.searched = append(m.searched, name)
	return m.nrs[name], nil
}

func (m *mockTitleSource) FetchTitles(_ context.Context, nr string) ([]domain.Title, error) {
	if err := m.fetchErr[nr]; err != nil {
		return nil, err
	}
	return m.titles[nr], nil
}

type mockChampionshipStore struct {
	promotions []domain.Promotion
	listErr    error
	stored     map[string][]domain.Championship
	wrestlers  map[string]string // name -> id
	created    []domain.Championship
	updated    map[string]domain.ChampionshipPatch
}

func (m *mockChampionshipStore) ListPromotions(context.Context) ([]domain.Promotion, error) {
	return m.promotions, m.listErr
}

func (m *mockChampionshipStore) ListChampionships(_ context.Context, promotionID string) ([]domain.Championship, error) {
	return m.stored[promotionID], nil
}

func (m *mockChampionshipStore) CreateChampionship(_ context.Context, c domain.Championship) error {
	m.created = append(m.created, c)
	return nil
}

func (m *mockChampionshipStore) UpdateChampionship(_ context.Context, id string, p domain.ChampionshipPatch) error {
	if m.updated == nil {
		m.updated = make(map[string]domain.ChampionshipPatch)
	}
	m.updated[id] = p
	return nil
}

func (m *mockChampionshipStore) FindWrestlerByName(_ context.Context, name string) (domain.Wrestler, bool, error) {
	id, ok := m.wrestlers[name]
	return domain.Wrestler{ID: id, Name: name}, ok, nil
}

func ptr(s string) *string { return &s }

func TestChampionshipSync_Run(t *testing.T) {
	store := &mockChampionshipStore{
		promotions: []domain.Promotion{
			{ID: "p-gcw", Name: "Game Changer Wrestling"},
			{ID: "p-wwe", Name: "WWE"},
			{ID: "p-unknown", Name: "Backyard Federation"},
			{ID: "p-broken", Name: "Broken Promotion"},
		},
		stored: map[string][]domain.Championship{
			"p-gcw": {
				{ID: "c-world", Name: "GCW World Championship", ChampionID: ptr("w-old")},
				{ID: "c-tag", Name: "GCW Tag Team Championship", ChampionID: ptr("w-bear"), Champion2ID: ptr("w-joe")},
			},
		},
		wrestlers: map[string]string{
			"Mance Warner":   "w-mance",
			"Bear Bronson":   "w-bear",
			"Judge Joe Dred": "w-joe",
			"Matt Tremont":   "w-matt",
		},
	}
	source := &mockTitleSource{
		nrs: map[string]string{"Game Changer Wrestling": "1234", "Broken Promotion": "666"},
		titles: map[string][]domain.Title{"1234": {
			{Name: "GCW World Championship", Champions: []string{"Mance Warner"}},
			{Name: "GCW Tag Team Championship", Champions: []string{"Bear Bronson", "Judge Joe Dred"}},
			{Name: "GCW Ultraviolent Championship", Champions: []string{"Matt Tremont"}},
		}},
		fetchErr: map[string]error{"666": errors.New("unexpected status 500")},
	}
	metrics := newTestMetrics()

	sum, err := pipeline.NewChampionshipSync(source, store, discardLogger(), metrics).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, pipeline.ChampionshipSummary{
		Promotions: 3, Processed: 1, NotFound: 1, Created: 1, Updated: 1, Failed: 1,
	}, sum)
	assert.NotContains(t, source.searched, "WWE", "excluded promotions are never looked up")

	require.Len(t, store.updated, 1, "unchanged tag team is not patched")
	assert.Equal(t, "w-mance", *store.updated["c-world"].ChampionID)

	require.Len(t, store.created, 1)
	c := store.created[0]
	assert.Equal(t, "p-gcw", c.PromotionID)
	assert.Equal(t, "GCW Ultraviolent Championship", c.Name)
	assert.Equal(t, "w-matt", *c.ChampionID)
	assert.Equal(t, 2, c.SortOrder)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChampionshipSync.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ChampionshipSync.WithLabelValues("failed")))
}

func TestChampionshipSync_UnmatchedChampionCreatesEmptySlot(t *testing.T) {
	store := &mockChampionshipStore{promotions: []domain.Promotion{{ID: "p1", Name: "AAW"}}}
	source := &mockTitleSource{
		nrs:    map[string]string{"AAW": "77"},
		titles: map[string][]domain.Title{"77": {{Name: "AAW Heavyweight Championship", Champions: []string{"Unknown Rookie"}}}},
	}

	sum, err := pipeline.NewChampionshipSync(source, store, discardLogger(), newTestMetrics()).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)
	require.Len(t, store.created, 1)
	assert.Nil(t, store.created[0].ChampionID)
	assert.Equal(t, "Heavyweight", store.created[0].ShortName)
}

func TestChampionshipSync_ListError(t *testing.T) {
	store := &mockChampionshipStore{listErr: errors.New("connection refused")}

	_, err := pipeline.NewChampionshipSync(&mockTitleSource{}, store, discardLogger(), newTestMetrics()).Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "list promotions")
}

func TestChampionshipSync_Canceled(t *testing.T) {
	store := &mockChampionshipStore{promotions: []domain.Promotion{{ID: "p1", Name: "AAW"}}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.NewChampionshipSync(&mockTitleSource{}, store, discardLogger(), newTestMetrics()).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}
