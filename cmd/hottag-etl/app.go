package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hottag/hottag-etl/internal/adapter/cagematch"
	"github.com/hottag/hottag-etl/internal/adapter/jsonfile"
	kafkaadapter "github.com/hottag/hottag-etl/internal/adapter/kafka"
	"github.com/hottag/hottag-etl/internal/adapter/mapbox"
	"github.com/hottag/hottag-etl/internal/adapter/postgres"
	"github.com/hottag/hottag-etl/internal/adapter/supabase"
	"github.com/hottag/hottag-etl/internal/config"
	"github.com/hottag/hottag-etl/internal/domain"
	"github.com/hottag/hottag-etl/internal/observability"
	"github.com/hottag/hottag-etl/internal/pipeline"
)

// store is what a persistence backend provides to the pipeline and backfills.
type store interface {
	pipeline.EventStore
	pipeline.PromotionStore
	pipeline.CoordsStore
	pipeline.DetailsStore
	pipeline.ChampionshipStore
}

// app holds the process-wide dependencies shared by subcommands.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *observability.Metrics
	closers []io.Closer
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &app{
		cfg:     cfg,
		logger:  observability.NewLogger(cfg),
		metrics: observability.NewMetrics(),
	}, nil
}

// Close releases everything opened through the app, logging failures.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}

type closerFunc func()

func (f closerFunc) Close() error {
	f()
	return nil
}

func (a *app) cagematch() *cagematch.Client {
	return cagematch.NewClient(a.cfg.CagematchBaseURL, a.cfg.UserAgent, a.cfg.ScrapeDelay, a.cfg.ScrapeTimeout, a.logger)
}

// geocoder returns the cached Mapbox geocoder, or nil when geocoding is off.
func (a *app) geocoder() domain.Geocoder {
	if !a.cfg.MapboxEnabled {
		a.logger.Info("mapbox geocoding disabled")
		return nil
	}
	a.metrics.GeocodeEnabled.Set(1)
	client := mapbox.NewClient(a.cfg.MapboxToken, a.cfg.MapboxTimeout, a.metrics, a.logger)
	a.logger.Info("mapbox geocoding enabled", "cache_size", a.cfg.MapboxCacheSize, "timeout", a.cfg.MapboxTimeout)
	return mapbox.NewCachedGeocoder(client, a.cfg.MapboxCacheSize, a.metrics)
}

// supabase returns a Supabase client from SUPABASE_URL and SUPABASE_KEY.
func (a *app) supabase() *supabase.Client {
	return supabase.NewClient(a.cfg.SupabaseURL, a.cfg.SupabaseKey, a.cfg.PosterBucket, a.cfg.ScrapeTimeout, a.logger)
}

// store opens the configured SINK, or returns nil for SINK=none.
func (a *app) store(ctx context.Context) (store, error) {
	switch a.cfg.Sink {
	case config.SinkSupabase:
		return a.supabase(), nil
	case config.SinkPostgres:
		s, err := postgres.New(ctx, a.cfg.DatabaseURL, a.cfg.DBPoolMaxConns, a.logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, closerFunc(s.Close))
		return s, nil
	default:
		return nil, nil
	}
}

// loader assembles the batch loaders for a scrape: the store sink, the Kafka
// stream when brokers are configured, and an optional JSON file.
func (a *app) loader(ctx context.Context, output string, dryRun bool) (pipeline.BatchLoader, error) {
	var loaders pipeline.MultiLoader

	if !dryRun {
		st, err := a.store(ctx)
		if err != nil {
			return nil, err
		}
		if st != nil {
			loaders = append(loaders, pipeline.NewStoreLoader(st, st, a.logger))
		}
		if len(a.cfg.KafkaBrokers) > 0 {
			w := kafkaadapter.NewWriter(a.cfg.KafkaBrokers, a.cfg.KafkaTopic, a.logger)
			a.closers = append(a.closers, w)
			loaders = append(loaders, w)
		}
	}
	if output != "" {
		w := jsonfile.NewWriter(output, a.logger)
		a.closers = append(a.closers, w)
		loaders = append(loaders, w)
	}

	switch len(loaders) {
	case 0:
		a.logger.Warn("no sinks configured, scraped events will be discarded")
		return pipeline.DiscardLoader{}, nil
	case 1:
		return loaders[0], nil
	default:
		return loaders, nil
	}
}

type pipelineFlags struct {
	scope   string
	days    int
	details bool
}

func (a *app) pipeline(f pipelineFlags, loader pipeline.BatchLoader) (*pipeline.Pipeline, error) {
	scope := a.cfg.ScrapeScope
	if f.scope != "" {
		s, err := domain.ParseScope(f.scope)
		if err != nil {
			return nil, err
		}
		scope = s
	}
	days := a.cfg.ScrapeDays
	if f.days > 0 {
		days = f.days
	}

	client := a.cagematch()
	var details pipeline.DetailsFetcher
	if f.details {
		details = client
	}
	transformer := pipeline.NewTransformer(details, a.geocoder(), a.logger)

	return pipeline.New(client, transformer, loader, a.logger, a.metrics, pipeline.Options{
		Scope:           scope,
		Days:            days,
		PageSize:        a.cfg.ScrapePageSize,
		MaxOffset:       a.cfg.ScrapeMaxOffset,
		MaxLoadAttempts: a.cfg.LoadMaxAttempts,
	}), nil
}
