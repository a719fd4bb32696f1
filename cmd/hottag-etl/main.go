// Command hottag-etl scrapes upcoming wrestling events from Cagematch,
// classifies their locations, and loads them into the HotTag database.
//
// Usage:
//
//	hottag-etl scrape --scope usa --days 90
//	hottag-etl scrape --dry-run --output events.json
//	hottag-etl serve
//	hottag-etl classify "Atlantic City, New Jersey, USA"
//	hottag-etl geocode --limit 200
//	hottag-etl details --limit 50
//	hottag-etl poster <event-id> poster.png
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := &cobra.Command{
		Use:           "hottag-etl",
		Short:         "Cagematch event scraper and loader",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(scrapeCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(classifyCmd())
	root.AddCommand(geocodeCmd())
	root.AddCommand(detailsCmd())
	root.AddCommand(championshipsCmd())
	root.AddCommand(posterCmd())

	if err := root.ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		stop()
		os.Exit(1)
	}
}
