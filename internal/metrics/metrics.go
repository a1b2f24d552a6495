// Package metrics provides Prometheus instrumentation for the backtester.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SimulationsTotal counts simulation runs, partitioned by outcome.
	SimulationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dca_simulations_total",
		Help: "Total number of simulation runs",
	}, []string{"outcome"})

	// SimulationDuration tracks how long a full simulation request takes.
	SimulationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dca_simulation_duration_seconds",
		Help:    "Simulation request duration in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	// SimulatedDays counts trading days stepped through by the engine.
	SimulatedDays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dca_simulated_days_total",
		Help: "Trading days processed by the simulation engine",
	})

	// InsolventRuns counts runs that ended in insolvency.
	InsolventRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dca_insolvent_runs_total",
		Help: "Simulation runs that ended insolvent",
	})

	// ProviderFetches counts market data fetches by source and outcome.
	ProviderFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dca_provider_fetches_total",
		Help: "Market data fetches by source and outcome",
	}, []string{"source", "outcome"})

	// RateImports counts reference rate imports by outcome.
	RateImports = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dca_rate_imports_total",
		Help: "Reference rate CSV imports",
	}, []string{"outcome"})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dca_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dca_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 5.0},
	}, []string{"method", "path"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics. The chi route pattern is used as the
// path label so URL parameters do not create new series.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
