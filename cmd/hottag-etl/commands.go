package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/cobra"

	httpadapter "github.com/hottag/hottag-etl/internal/adapter/http"
	"github.com/hottag/hottag-etl/internal/domain"
	"github.com/hottag/hottag-etl/internal/pipeline"
)

func scrapeCmd() *cobra.Command {
	var (
		flags  pipelineFlags
		output string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Run one scrape pass and load the results",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			loader, err := a.loader(ctx, output, dryRun)
			if err != nil {
				return err
			}
			p, err := a.pipeline(flags, loader)
			if err != nil {
				return err
			}
			sum, err := p.Run(ctx)
			a.logger.Info("scrape finished",
				"pages", sum.Pages, "rows", sum.Rows, "kept", sum.Kept, "loaded", sum.Loaded,
				"skipped", sum.Skipped, "stop_reason", sum.StopReason, "duration", sum.Duration)
			return err
		},
	}
	cmd.Flags().StringVar(&flags.scope, "scope", "", "usa, international, or all (default SCRAPE_SCOPE)")
	cmd.Flags().IntVar(&flags.days, "days", 0, "days ahead to keep (default SCRAPE_DAYS)")
	cmd.Flags().BoolVar(&flags.details, "details", false, "fetch each event page for venue and ticket details")
	cmd.Flags().StringVarP(&output, "output", "o", "", `also write events to this JSON file ("-" for stdout)`)
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "skip the database and Kafka sinks")
	return cmd
}

func serveCmd() *cobra.Command {
	var (
		flags      pipelineFlags
		runOnStart bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Scrape on SCRAPE_SCHEDULE and serve health, metrics, and the classify API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			loader, err := a.loader(ctx, "", false)
			if err != nil {
				return err
			}
			p, err := a.pipeline(flags, loader)
			if err != nil {
				return err
			}
			sched, err := pipeline.NewScheduler(a.cfg.ScrapeSchedule, p, a.logger, runOnStart)
			if err != nil {
				return err
			}

			srv := httpadapter.NewServer(a.cfg.HTTPAddr, p, a.cfg.CORSAllowOrigins, a.logger)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.logger.Error("http server error", "error", err)
				}
			}()

			sched.Start(ctx)
			a.logger.Info("shutting down")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("http server shutdown error", "error", err)
			}
			a.logger.Info("shutdown complete")
			return nil
		},
	}
	cmd.Flags().StringVar(&flags.scope, "scope", "", "usa, international, or all (default SCRAPE_SCOPE)")
	cmd.Flags().IntVar(&flags.days, "days", 0, "days ahead to keep (default SCRAPE_DAYS)")
	cmd.Flags().BoolVar(&flags.details, "details", false, "fetch each event page for venue and ticket details")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", true, "scrape immediately instead of waiting for the first tick")
	return cmd
}

// classification is one line of classify output.
type classification struct {
	Input    string                `json:"input"`
	Location domain.ParsedLocation `json:"location"`
	Region   string                `json:"region,omitempty"`
}

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [location...]",
		Short: "Classify locations given as arguments or one per line on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			return classifyAll(cmd.InOrStdin(), cmd.OutOrStdout(), args)
		},
	}
}

// classifyAll writes one JSON object per location. With no args, locations
// are read from in.
func classifyAll(in io.Reader, out io.Writer, args []string) error {
	enc := json.NewEncoder(out)
	emit := func(raw string) error {
		loc := domain.ClassifyLocation(raw)
		return enc.Encode(classification{Input: raw, Location: loc, Region: domain.RegionFor(loc)})
	}

	if len(args) > 0 {
		for _, raw := range args {
			if err := emit(raw); err != nil {
				return err
			}
		}
		return nil
	}

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if strings.TrimSpace(sc.Text()) == "" {
			continue
		}
		if err := emit(sc.Text()); err != nil {
			return err
		}
	}
	return sc.Err()
}

func geocodeCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "geocode",
		Short: "Geocode stored upcoming events that have no coordinates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			geocoder := a.geocoder()
			if geocoder == nil {
				return errors.New("geocoding requires MAPBOX_TOKEN")
			}
			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("geocode requires SINK=supabase or SINK=postgres")
			}
			_, err = pipeline.NewGeocodeBackfill(st, geocoder, a.logger).Run(cmd.Context(), limit)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum events to geocode")
	return cmd
}

func detailsCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "details",
		Short: "Fetch venue and ticket details for stored events that lack them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("details requires SINK=supabase or SINK=postgres")
			}
			_, err = pipeline.NewDetailsBackfill(st, a.cagematch(), a.logger).Run(cmd.Context(), limit)
			return err
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum events to update")
	return cmd
}

func championshipsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "championships",
		Short: "Refresh current champions of stored promotions from Cagematch",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			st, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("championships requires SINK=supabase or SINK=postgres")
			}
			_, err = pipeline.NewChampionshipSync(a.cagematch(), st, a.logger, a.metrics).Run(cmd.Context())
			return err
		},
	}
}

func posterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poster <event-id> <file>",
		Short: "Upload an event poster and link it from the event",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cfg.PostersEnabled() {
				return errors.New("poster upload requires SUPABASE_URL and SUPABASE_KEY")
			}
			f, err := os.Open(args[1])
			if err != nil {
				return err
			}
			defer f.Close()

			url, err := a.supabase().UploadPoster(cmd.Context(), args[0], f.Name(), f)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}
}
