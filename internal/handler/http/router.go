// Package http exposes the indexer's admin surface: health probes, live run
// progress and Prometheus metrics.
package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/search-indexer/internal/pipeline"
)

// NewRouter creates the admin router. Checkers are probed by the readiness
// endpoint; the status endpoint reads live pipeline progress.
func NewRouter(progress *pipeline.Progress, checkers map[string]Checker) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(10 * time.Second))

	r.Get("/healthz", livenessHandler())
	r.Get("/readyz", readinessHandler(checkers))
	r.Get("/status", statusHandler(progress))
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	return r
}

// statusHandler serves a snapshot of the current run's counters.
func statusHandler(progress *pipeline.Progress) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, progress.Snapshot())
	}
}
