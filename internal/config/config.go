package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hottag/hottag-etl/internal/domain"
)

// Sink names accepted by SINK.
const (
	SinkSupabase = "supabase"
	SinkPostgres = "postgres"
	SinkNone     = "none"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// Cagematch scraping.
	CagematchBaseURL string
	ScrapeDelay      time.Duration
	ScrapeTimeout    time.Duration
	ScrapePageSize   int
	ScrapeMaxOffset  int
	ScrapeDays       int
	ScrapeScope      domain.Scope
	ScrapeSchedule   string
	UserAgent        string
	LoadMaxAttempts  int

	// Persistence.
	Sink           string
	SupabaseURL    string
	SupabaseKey    string
	PosterBucket   string
	DatabaseURL    string
	DBPoolMaxConns int

	// Optional normalized-event stream. Empty brokers disables it.
	KafkaBrokers []string
	KafkaTopic   string

	HTTPAddr         string
	CORSAllowOrigins []string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	var errs []error
	dur := func(key, fallback string) time.Duration {
		d, err := envDuration(key, fallback)
		errs = append(errs, err)
		return d
	}
	posInt := func(key string, fallback int) int {
		n, err := envPositiveInt(key, fallback)
		errs = append(errs, err)
		return n
	}

	scope, err := domain.ParseScope(envOr("SCRAPE_SCOPE", string(domain.ScopeUSA)))
	if err != nil {
		errs = append(errs, fmt.Errorf("invalid SCRAPE_SCOPE: %w", err))
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		CagematchBaseURL: strings.TrimRight(envOr("CAGEMATCH_BASE_URL", "https://www.cagematch.net"), "/"),
		ScrapeDelay:      dur("SCRAPE_DELAY", "1500ms"),
		ScrapeTimeout:    dur("SCRAPE_TIMEOUT", "30s"),
		ScrapePageSize:   posInt("SCRAPE_PAGE_SIZE", 100),
		ScrapeMaxOffset:  posInt("SCRAPE_MAX_OFFSET", 2000),
		ScrapeDays:       posInt("SCRAPE_DAYS", 120),
		ScrapeScope:      scope,
		ScrapeSchedule:   envOr("SCRAPE_SCHEDULE", "@every 6h"),
		UserAgent:        envOr("SCRAPE_USER_AGENT", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
		LoadMaxAttempts:  posInt("LOAD_MAX_ATTEMPTS", 3),

		Sink:           strings.ToLower(envOr("SINK", SinkSupabase)),
		SupabaseURL:    strings.TrimRight(os.Getenv("SUPABASE_URL"), "/"),
		SupabaseKey:    os.Getenv("SUPABASE_KEY"),
		PosterBucket:   envOr("POSTER_BUCKET", "event-posters"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DBPoolMaxConns: posInt("DB_POOL_MAX_CONNS", 5),

		KafkaBrokers: envList("KAFKA_BROKERS", nil),
		KafkaTopic:   envOr("KAFKA_TOPIC", "hottag-events"),

		HTTPAddr:         envOr("HTTP_ADDR", ":8080"),
		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{"http://localhost:3000"}),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		LogFormat:        envOr("LOG_FORMAT", "json"),
		ShutdownTimeout:  dur("SHUTDOWN_TIMEOUT", "10s"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   dur("MAPBOX_TIMEOUT", "5s"),
		MapboxCacheSize: posInt("MAPBOX_CACHE_SIZE", 1000),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Sink {
	case SinkSupabase:
		if c.SupabaseURL == "" || c.SupabaseKey == "" {
			return errors.New("SINK=supabase requires SUPABASE_URL and SUPABASE_KEY")
		}
	case SinkPostgres:
		if c.DatabaseURL == "" {
			return errors.New("SINK=postgres requires DATABASE_URL")
		}
	case SinkNone:
	default:
		return fmt.Errorf("invalid SINK %q (want supabase, postgres, or none)", c.Sink)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if c.MapboxEnabled && c.MapboxToken == "" {
		return errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}
	return nil
}

// PostersEnabled reports whether poster uploads have somewhere to go.
func (c *Config) PostersEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseKey != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOr(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive duration", key)
	}
	return d, nil
}

func envPositiveInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive integer", key)
	}
	return n, nil
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
