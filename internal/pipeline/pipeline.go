package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/hottag/hottag-etl/internal/domain"
	"github.com/hottag/hottag-etl/internal/observability"
)

// ErrAlreadyRunning is returned by Run while another run is in progress.
var ErrAlreadyRunning = errors.New("scrape already running")

// Skip reasons, used as the metrics label and in Summary.
const (
	SkipPast              = "past"
	SkipBeyondWindow      = "beyond_window"
	SkipDuplicate         = "duplicate"
	SkipExcludedPromotion = "excluded_promotion"
	SkipOutOfScope        = "out_of_scope"
)

// PageFetcher returns the data rows of one listing page.
type PageFetcher interface {
	FetchPage(ctx context.Context, offset int) ([]domain.RawRow, error)
}

// Transformer parses rows and enriches the events that survive filtering.
type Transformer interface {
	Transform(ctx context.Context, row domain.RawRow) (domain.Event, error)
	Enrich(ctx context.Context, event domain.Event) domain.Event
}

// BatchLoader writes multiple events to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, events []domain.Event) error
}

// Options bound a scrape run.
type Options struct {
	Scope           domain.Scope
	Days            int
	PageSize        int
	MaxOffset       int
	MaxLoadAttempts int
}

// beyondCutoffLimit is how many past-window rows a run tolerates on pages
// that yield nothing before it assumes the listing has moved past the window.
const beyondCutoffLimit = 50

// Summary reports what a run did.
type Summary struct {
	Pages           int
	Rows            int
	Kept            int
	Loaded          int
	TransformErrors int
	LoadFailures    int
	Skipped         map[string]int
	StopReason      string
	Duration        time.Duration
}

// Pipeline orchestrates one paged extract-transform-load pass over the listing.
type Pipeline struct {
	fetcher     PageFetcher
	transformer Transformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
	opts        Options
	ready       atomic.Bool
	running     atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(f PageFetcher, t Transformer, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	if opts.PageSize <= 0 {
		opts.PageSize = 100
	}
	if opts.MaxOffset <= 0 {
		opts.MaxOffset = 2000
	}
	if opts.MaxLoadAttempts <= 0 {
		opts.MaxLoadAttempts = 1
	}
	if opts.Scope == "" {
		opts.Scope = domain.ScopeUSA
	}
	return &Pipeline{
		fetcher:     f,
		transformer: t,
		loader:      l,
		logger:      logger,
		metrics:     metrics,
		opts:        opts,
	}
}

// CheckReadiness returns nil once a run has completed.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no scrape run has completed yet")
	}
	return nil
}

// Run scrapes listing pages from offset 0 until a stop condition, loading
// each page's kept events as one batch. Row-level failures are logged and
// skipped; a fetch failure ends the run with an error.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	if !p.running.CompareAndSwap(false, true) {
		return Summary{}, ErrAlreadyRunning
	}
	defer p.running.Store(false)

	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	start := time.Now()
	window := domain.NewWindow(domain.Now(), p.opts.Days)
	p.logger.Info("scrape started",
		"scope", p.opts.Scope,
		"from", window.From.Format(time.DateOnly),
		"to", window.To.Format(time.DateOnly),
		"max_offset", p.opts.MaxOffset,
	)

	r := &run{
		Pipeline: p,
		window:   window,
		seen:     make(map[string]struct{}),
		sum:      Summary{Skipped: make(map[string]int)},
	}
	err := r.pages(ctx)

	r.sum.Duration = time.Since(start)
	p.metrics.RunDuration.Observe(r.sum.Duration.Seconds())
	if err == nil {
		p.ready.Store(true)
	}

	p.logger.Info("scrape finished",
		"pages", r.sum.Pages,
		"rows", r.sum.Rows,
		"kept", r.sum.Kept,
		"loaded", r.sum.Loaded,
		"transform_errors", r.sum.TransformErrors,
		"load_failures", r.sum.LoadFailures,
		"stop_reason", r.sum.StopReason,
		"duration", r.sum.Duration,
	)
	return r.sum, err
}

// run holds the state of a single pass.
type run struct {
	*Pipeline
	window domain.Window
	seen   map[string]struct{}
	sum    Summary
}

func (r *run) pages(ctx context.Context) error {
	for offset := 0; offset < r.opts.MaxOffset; offset += r.opts.PageSize {
		if ctx.Err() != nil {
			r.sum.StopReason = "canceled"
			return nil
		}

		rows, err := r.fetcher.FetchPage(ctx, offset)
		if err != nil {
			if ctx.Err() != nil {
				r.sum.StopReason = "canceled"
				return nil
			}
			r.sum.StopReason = "fetch error"
			return fmt.Errorf("fetch page at offset %d: %w", offset, err)
		}
		r.sum.Pages++
		r.metrics.PagesFetched.Inc()

		if len(rows) == 0 {
			r.sum.StopReason = "empty page"
			return nil
		}

		kept := r.page(ctx, offset, rows)

		if kept == 0 && r.sum.Skipped[SkipBeyondWindow] > beyondCutoffLimit {
			r.sum.StopReason = "past cutoff"
			return nil
		}
		if len(rows) < r.opts.PageSize/2 {
			r.sum.StopReason = "last page"
			return nil
		}
	}
	r.sum.StopReason = "max offset"
	return nil
}

// page filters one page of rows and loads the survivors. It returns the
// number of events kept.
func (r *run) page(ctx context.Context, offset int, rows []domain.RawRow) int {
	batch := make([]domain.Event, 0, len(rows))

	for _, row := range rows {
		r.sum.Rows++
		r.metrics.RowsSeen.Inc()

		event, err := r.transformer.Transform(ctx, row)
		if err != nil {
			r.logger.Warn("transform failed, skipping row",
				"error", err,
				"offset", offset,
				"date", row.DateText,
				"location", row.LocationText,
			)
			r.sum.TransformErrors++
			r.metrics.TransformErrors.Inc()
			continue
		}

		if reason := r.skipReason(event); reason != "" {
			r.sum.Skipped[reason]++
			r.metrics.RowsSkipped.WithLabelValues(reason).Inc()
			continue
		}

		r.seen[event.ID] = struct{}{}
		batch = append(batch, r.transformer.Enrich(ctx, event))
	}

	r.sum.Kept += len(batch)
	r.metrics.EventsKept.Add(float64(len(batch)))
	r.logger.Info("page processed", "offset", offset, "rows", len(rows), "kept", len(batch))

	if len(batch) == 0 {
		return 0
	}
	if err := r.loadWithRetry(ctx, batch); err != nil {
		r.logger.Error("load batch failed", "error", err, "batch_size", len(batch), "offset", offset)
		r.sum.LoadFailures++
		r.metrics.LoadFailures.Inc()
		return len(batch)
	}
	r.sum.Loaded += len(batch)
	r.metrics.EventsLoaded.Add(float64(len(batch)))
	return len(batch)
}

func (r *run) skipReason(event domain.Event) string {
	switch {
	case r.window.Past(event.Date):
		return SkipPast
	case r.window.Beyond(event.Date):
		return SkipBeyondWindow
	case r.isSeen(event.ID):
		return SkipDuplicate
	case domain.IsExcludedPromotion(event.Promotion.Name):
		return SkipExcludedPromotion
	case !r.opts.Scope.Includes(event.Location):
		return SkipOutOfScope
	default:
		return ""
	}
}

func (r *run) isSeen(id string) bool {
	_, ok := r.seen[id]
	return ok
}

// loadWithRetry retries LoadBatch with exponential backoff: start at 200ms,
// double each retry, cap at 5s.
func (r *run) loadWithRetry(ctx context.Context, batch []domain.Event) error {
	backoff := 200 * time.Millisecond
	maxBackoff := 5 * time.Second

	var err error
	for attempt := 1; attempt <= r.opts.MaxLoadAttempts; attempt++ {
		if err = r.loader.LoadBatch(ctx, batch); err == nil {
			return nil
		}
		if attempt == r.opts.MaxLoadAttempts {
			break
		}
		r.logger.Warn("load batch attempt failed", "attempt", attempt, "error", err, "retry_in", backoff)
		if !sleepWithContext(ctx, backoff) {
			return errors.Join(err, ctx.Err())
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return err
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
