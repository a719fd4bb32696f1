package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hottag/hottag-etl/internal/domain"
)

const (
	championshipsPath = "/rest/v1/promotion_championships"
	wrestlersPath     = "/rest/v1/wrestlers"

	championshipColumns = "id,promotion_id,name,short_name,current_champion_id,current_champion_2_id,is_active,sort_order"
)

type championshipRow struct {
	ID          string  `json:"id,omitempty"`
	PromotionID string  `json:"promotion_id"`
	Name        string  `json:"name"`
	ShortName   string  `json:"short_name"`
	ChampionID  *string `json:"current_champion_id"`
	Champion2ID *string `json:"current_champion_2_id"`
	IsActive    bool    `json:"is_active"`
	SortOrder   int     `json:"sort_order"`
}

func (r championshipRow) toDomain() domain.Championship {
	return domain.Championship(r)
}

// ListChampionships returns the stored titles of one promotion.
func (c *Client) ListChampionships(ctx context.Context, promotionID string) ([]domain.Championship, error) {
	var rows []championshipRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   championshipsPath,
		query: url.Values{
			"select":       {championshipColumns},
			"promotion_id": {"eq." + promotionID},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Championship, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CreateChampionship inserts a new title row.
func (c *Client) CreateChampionship(ctx context.Context, ch domain.Championship) error {
	row := championshipRow(ch)
	row.ID = ""
	return c.do(ctx, request{
		method: http.MethodPost,
		path:   championshipsPath,
		prefer: "return=minimal",
		body:   row,
	}, nil)
}

// UpdateChampionship applies p to one title row.
func (c *Client) UpdateChampionship(ctx context.Context, id string, p domain.ChampionshipPatch) error {
	patch := map[string]any{}
	if p.ChampionID != nil {
		patch["current_champion_id"] = *p.ChampionID
	}
	switch {
	case p.Champion2ID != nil:
		patch["current_champion_2_id"] = *p.Champion2ID
	case p.ClearChampion2:
		patch["current_champion_2_id"] = nil
	}
	if len(patch) == 0 {
		return nil
	}
	return c.do(ctx, request{
		method: http.MethodPatch,
		path:   championshipsPath,
		query:  url.Values{"id": {"eq." + id}},
		prefer: "return=minimal",
		body:   patch,
	}, nil)
}

type wrestlerRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// FindWrestlerByName looks a wrestler up by case-insensitive name, falling
// back to a substring search resolved by domain.PickWrestler.
func (c *Client) FindWrestlerByName(ctx context.Context, name string) (domain.Wrestler, bool, error) {
	exact, err := c.searchWrestlers(ctx, name, 1)
	if err != nil {
		return domain.Wrestler{}, false, err
	}
	if len(exact) > 0 {
		return exact[0], true, nil
	}

	fuzzy, err := c.searchWrestlers(ctx, "*"+name+"*", 3)
	if err != nil {
		return domain.Wrestler{}, false, err
	}
	w, ok := domain.PickWrestler(name, fuzzy)
	return w, ok, nil
}

func (c *Client) searchWrestlers(ctx context.Context, pattern string, limit int) ([]domain.Wrestler, error) {
	var rows []wrestlerRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   wrestlersPath,
		query: url.Values{
			"select": {"id,name,slug"},
			"name":   {"ilike." + pattern},
			"limit":  {strconv.Itoa(limit)},
		},
	}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Wrestler, len(rows))
	for i, r := range rows {
		out[i] = domain.Wrestler(r)
	}
	return out, nil
}
