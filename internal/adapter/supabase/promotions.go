package supabase

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/hottag/hottag-etl/internal/domain"
)

const promotionsPath = "/rest/v1/promotions"

type promotionRow struct {
	ID      string  `json:"id,omitempty"`
	Name    string  `json:"name"`
	Slug    string  `json:"slug"`
	Country *string `json:"country"`
	Region  *string `json:"region"`
}

func (r promotionRow) toDomain() domain.Promotion {
	p := domain.Promotion{ID: r.ID, Name: r.Name, Slug: r.Slug, Country: r.Country}
	if r.Region != nil {
		p.Region = *r.Region
	}
	return p
}

// ListPromotions returns every stored promotion.
func (c *Client) ListPromotions(ctx context.Context) ([]domain.Promotion, error) {
	var rows []promotionRow
	err := c.do(ctx, request{
		method: http.MethodGet,
		path:   promotionsPath,
		query:  url.Values{"select": {"id,name,slug,country,region"}},
	}, &rows)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Promotion, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// CreatePromotion inserts p and returns the stored row with its ID.
func (c *Client) CreatePromotion(ctx context.Context, p domain.Promotion) (domain.Promotion, error) {
	var rows []promotionRow
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   promotionsPath,
		prefer: "return=representation",
		body: promotionRow{
			Name:    p.Name,
			Slug:    p.Slug,
			Country: p.Country,
			Region:  optional(p.Region),
		},
	}, &rows)
	if err != nil {
		return domain.Promotion{}, err
	}
	if len(rows) == 0 {
		return domain.Promotion{}, errors.New("create promotion: empty response")
	}
	return rows[0].toDomain(), nil
}
