// Package http serves health, readiness, metrics, and the location
// classification API.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	corslib "github.com/rs/cors"

	"github.com/hottag/hottag-etl/internal/domain"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes health, readiness, metrics, and classification endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// maxBatch caps the number of locations accepted by POST /v1/classify.
const maxBatch = 500

// NewServer creates an HTTP server. allowedOrigins configures CORS for the
// /v1 API.
func NewServer(addr string, ready ReadinessChecker, allowedOrigins []string, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", handleReady(ready))
	r.Handle("/metrics", promhttp.Handler())

	c := corslib.New(corslib.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	})
	r.Route("/v1", func(r chi.Router) {
		r.Use(c.Handler)
		r.Get("/classify", s.handleClassify)
		r.Post("/classify", s.handleClassifyBatch)
		r.Get("/promotions/excluded", s.handleExcluded)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

// Classification is the API view of one classified location.
type Classification struct {
	Input    string                `json:"input"`
	Location domain.ParsedLocation `json:"location"`
	Region   string                `json:"region,omitempty"`
	Scope    domain.Scope          `json:"scope"`
}

func classify(raw string) Classification {
	loc := domain.ClassifyLocation(raw)
	scope := domain.ScopeInternational
	if loc.IsUSA() {
		scope = domain.ScopeUSA
	}
	return Classification{Input: raw, Location: loc, Region: domain.RegionFor(loc), Scope: scope}
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("location")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "location query parameter is required")
		return
	}
	writeJSON(w, http.StatusOK, classify(raw))
}

func (s *Server) handleClassifyBatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Locations []string `json:"locations"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Locations) > maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge, "too many locations")
		return
	}

	out := make([]Classification, len(req.Locations))
	for i, raw := range req.Locations {
		out[i] = classify(raw)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleExcluded(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeJSON(w, http.StatusOK, map[string]any{"excluded": domain.ExcludedPromotions()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":     name,
		"excluded": domain.IsExcludedPromotion(name),
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
