package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hottag/hottag-etl/internal/domain"
)

// ListChampionships returns the stored titles of one promotion.
func (s *Store) ListChampionships(ctx context.Context, promotionID string) ([]domain.Championship, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id::text, promotion_id::text, name, COALESCE(short_name, ''),
			current_champion_id::text, current_champion_2_id::text,
			is_active, COALESCE(sort_order, 0)
		FROM promotion_championships
		WHERE promotion_id::text = $1
		ORDER BY sort_order`, promotionID)
	if err != nil {
		return nil, fmt.Errorf("list championships: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Championship, error) {
		var c domain.Championship
		err := row.Scan(&c.ID, &c.PromotionID, &c.Name, &c.ShortName,
			&c.ChampionID, &c.Champion2ID, &c.IsActive, &c.SortOrder)
		return c, err
	})
}

// CreateChampionship inserts a new title row.
func (s *Store) CreateChampionship(ctx context.Context, c domain.Championship) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO promotion_championships (
			promotion_id, name, short_name, current_champion_id,
			current_champion_2_id, is_active, sort_order
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.PromotionID, c.Name, c.ShortName, c.ChampionID, c.Champion2ID, c.IsActive, c.SortOrder)
	if err != nil {
		return fmt.Errorf("create championship %q: %w", c.Name, err)
	}
	return nil
}

// UpdateChampionship applies p to one title row.
func (s *Store) UpdateChampionship(ctx context.Context, id string, p domain.ChampionshipPatch) error {
	if p.Empty() {
		return nil
	}
	_, err := s.pool.Exec(ctx, updateChampionshipSQL, id, p.ChampionID, p.Champion2ID, p.ClearChampion2)
	if err != nil {
		return fmt.Errorf("update championship %s: %w", id, err)
	}
	return nil
}

// A NULL parameter keeps the stored champion; $4 clears the second slot.
const updateChampionshipSQL = `
	UPDATE promotion_championships SET
		current_champion_id = COALESCE($2, current_champion_id),
		current_champion_2_id = CASE WHEN $4 THEN NULL ELSE COALESCE($3, current_champion_2_id) END
	WHERE id::text = $1`

// FindWrestlerByName looks a wrestler up by case-insensitive name, falling
// back to a substring search resolved by domain.PickWrestler.
func (s *Store) FindWrestlerByName(ctx context.Context, name string) (domain.Wrestler, bool, error) {
	pattern := escapeLike(name)

	exact, err := s.searchWrestlers(ctx, pattern, 1)
	if err != nil {
		return domain.Wrestler{}, false, err
	}
	if len(exact) > 0 {
		return exact[0], true, nil
	}

	fuzzy, err := s.searchWrestlers(ctx, "%"+pattern+"%", 3)
	if err != nil {
		return domain.Wrestler{}, false, err
	}
	w, ok := domain.PickWrestler(name, fuzzy)
	return w, ok, nil
}

func (s *Store) searchWrestlers(ctx context.Context, pattern string, limit int) ([]domain.Wrestler, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, name, COALESCE(slug, '') FROM wrestlers WHERE name ILIKE $1 LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search wrestlers: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Wrestler, error) {
		var w domain.Wrestler
		err := row.Scan(&w.ID, &w.Name, &w.Slug)
		return w, err
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
