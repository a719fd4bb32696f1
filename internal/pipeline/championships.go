package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hottag/hottag-etl/internal/domain"
	"github.com/hottag/hottag-etl/internal/observability"
)

// TitleSource looks promotions up on Cagematch and lists their current titles.
type TitleSource interface {
	FindPromotion(ctx context.Context, name string) (string, error)
	FetchTitles(ctx context.Context, promotionNr string) ([]domain.Title, error)
}

// ChampionshipStore reads and writes promotion championships and resolves
// champion names to stored wrestlers.
type ChampionshipStore interface {
	ListPromotions(ctx context.Context) ([]domain.Promotion, error)
	ListChampionships(ctx context.Context, promotionID string) ([]domain.Championship, error)
	CreateChampionship(ctx context.Context, c domain.Championship) error
	UpdateChampionship(ctx context.Context, id string, p domain.ChampionshipPatch) error
	FindWrestlerByName(ctx context.Context, name string) (domain.Wrestler, bool, error)
}

// ChampionshipSummary counts the outcome of a championship sync.
type ChampionshipSummary struct {
	Promotions int // promotions considered, after exclusions
	Processed  int // promotions whose titles were fetched and written
	NotFound   int // promotions with no Cagematch match or no current titles
	Created    int
	Updated    int
	Failed     int // promotions abandoned on an error
}

// ChampionshipSync refreshes current champions for every stored promotion.
type ChampionshipSync struct {
	source  TitleSource
	store   ChampionshipStore
	logger  *slog.Logger
	metrics *observability.Metrics
}

func NewChampionshipSync(source TitleSource, store ChampionshipStore, logger *slog.Logger, metrics *observability.Metrics) *ChampionshipSync {
	return &ChampionshipSync{source: source, store: store, logger: logger, metrics: metrics}
}

// Run syncs each non-excluded promotion in turn. A failure on one promotion
// is logged and counted; only listing promotions or cancellation ends the
// run with an error.
func (s *ChampionshipSync) Run(ctx context.Context) (ChampionshipSummary, error) {
	promos, err := s.store.ListPromotions(ctx)
	if err != nil {
		return ChampionshipSummary{}, fmt.Errorf("list promotions: %w", err)
	}

	var sum ChampionshipSummary
	for _, p := range promos {
		if domain.IsExcludedPromotion(p.Name) {
			continue
		}
		if ctx.Err() != nil {
			return sum, ctx.Err()
		}
		sum.Promotions++

		found, err := s.syncPromotion(ctx, p, &sum)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			s.logger.Warn("championship sync failed", "promotion", p.Name, "error", err)
			sum.Failed++
			s.metrics.ChampionshipSync.WithLabelValues("failed").Inc()
		case !found:
			sum.NotFound++
		default:
			sum.Processed++
		}
	}

	s.logger.Info("championship sync finished",
		"promotions", sum.Promotions,
		"processed", sum.Processed,
		"not_found", sum.NotFound,
		"created", sum.Created,
		"updated", sum.Updated,
		"failed", sum.Failed,
	)
	return sum, nil
}

// syncPromotion writes the current titles of one promotion. It reports false
// when Cagematch has no matching promotion or no current titles.
func (s *ChampionshipSync) syncPromotion(ctx context.Context, p domain.Promotion, sum *ChampionshipSummary) (bool, error) {
	nr, err := s.source.FindPromotion(ctx, p.Name)
	if err != nil {
		return false, fmt.Errorf("find promotion: %w", err)
	}
	if nr == "" {
		s.logger.Debug("promotion not on cagematch", "promotion", p.Name)
		return false, nil
	}

	titles, err := s.source.FetchTitles(ctx, nr)
	if err != nil {
		return false, fmt.Errorf("fetch titles: %w", err)
	}
	if len(titles) == 0 {
		return false, nil
	}

	stored, err := s.store.ListChampionships(ctx, p.ID)
	if err != nil {
		return false, fmt.Errorf("list championships: %w", err)
	}

	for i, t := range titles {
		ids, err := s.resolveChampions(ctx, t)
		if err != nil {
			return false, err
		}

		existing, ok := domain.FindChampionship(t.Name, stored)
		if !ok {
			if err := s.store.CreateChampionship(ctx, domain.NewChampionship(p.ID, t, i, ids)); err != nil {
				return false, fmt.Errorf("create %q: %w", t.Name, err)
			}
			sum.Created++
			s.metrics.ChampionshipSync.WithLabelValues("created").Inc()
			continue
		}

		patch := domain.PlanChampionUpdate(existing, t, ids)
		if patch.Empty() {
			continue
		}
		if err := s.store.UpdateChampionship(ctx, existing.ID, patch); err != nil {
			return false, fmt.Errorf("update %q: %w", t.Name, err)
		}
		sum.Updated++
		s.metrics.ChampionshipSync.WithLabelValues("updated").Inc()
	}
	return true, nil
}

// resolveChampions maps the first two champion names to wrestler IDs, "" for
// names with no stored wrestler.
func (s *ChampionshipSync) resolveChampions(ctx context.Context, t domain.Title) ([2]string, error) {
	var ids [2]string
	for i := 0; i < len(ids) && i < len(t.Champions); i++ {
		w, ok, err := s.store.FindWrestlerByName(ctx, t.Champions[i])
		if err != nil {
			return ids, fmt.Errorf("find wrestler %q: %w", t.Champions[i], err)
		}
		if !ok {
			s.logger.Debug("champion not in wrestlers", "title", t.Name, "name", t.Champions[i])
			continue
		}
		ids[i] = w.ID
	}
	return ids, nil
}
