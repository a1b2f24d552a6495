package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/DCA-Backtester-Backend/internal/api/middleware"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/config"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/metrics"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
)

// Services bundles the dependencies of the HTTP handlers.
type Services struct {
	System     *service.SystemService
	Simulation *service.SimulationService
	Rates      *service.RateService
	Tickers    handlers.TickerSource
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Handle("/metrics", metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/simulation", func(r chi.Router) {
			simulationHandler := handlers.NewSimulationHandler(svc.Simulation)
			r.Post("/calculate", simulationHandler.Calculate)
		})

		r.Route("/ticker", func(r chi.Router) {
			tickerHandler := handlers.NewTickerHandler(svc.Tickers)
			r.Get("/search", tickerHandler.Search)
			r.Route("/{symbol}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateSymbolMiddleware)
				r.Get("/history", tickerHandler.History)
			})
		})

		r.Route("/rates", func(r chi.Router) {
			rateHandler := handlers.NewRateHandler(svc.Rates)
			r.Get("/", rateHandler.Rate)
		})
	})

	return r
}
