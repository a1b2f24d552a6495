package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/cache"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/config"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/database"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/logger"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/repository"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/scheduler"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/version"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/yahoo"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		// logger is not configured yet
		logger.New(logger.Config{}).Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	logger.SetGlobalLogger(log)
	log.Info().Str("version", version.Version).Str("commit", version.Commit).Msg("starting dca backtester")

	// Open database connection
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Database.Path).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	ctx := context.Background()

	// Reference rates
	rateService := service.NewRateService(
		repository.NewRateRepository(db),
		cfg.Rates.DefaultRate,
		log,
	)
	if _, err := os.Stat(cfg.Rates.CSVPath); err == nil {
		scheduler.RefreshRates(ctx, rateService, cfg.Rates.CSVPath, log)
	} else {
		log.Warn().Str("path", cfg.Rates.CSVPath).Float64("fallback", cfg.Rates.DefaultRate).
			Msg("reference rate file not found, using fallback rate until it appears")
	}

	// Market data
	store, closeStore, err := cache.Open(ctx, cfg.Cache.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to cache")
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn().Err(err).Msg("failed to close cache")
		}
	}()
	provider := yahoo.NewProvider(
		yahoo.NewFinanceClient(yahoo.Config{MaxRetries: cfg.Yahoo.MaxRetries}),
		store,
		cfg.Cache.TTL,
		log,
	)

	// Create services
	systemService := service.NewSystemService(db, map[string]bool{
		"margin":      true,
		"benchmark":   true,
		"withdrawals": true,
		"redis_cache": cfg.Cache.RedisURL != "",
	})
	simulationService := service.NewSimulationService(provider, rateService, log)

	// Background jobs
	sched := scheduler.New(log)
	if _, err := sched.AddRateRefresh(cfg.Rates.RefreshSchedule, rateService, cfg.Rates.CSVPath); err != nil {
		log.Fatal().Err(err).Msg("failed to schedule reference rate refresh")
	}
	sched.Start()

	// Create router
	router := api.NewRouter(api.Services{
		System:     systemService,
		Simulation: simulationService,
		Rates:      rateService,
		Tickers:    provider,
	}, cfg, log)

	// Create HTTP server
	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// benchmark runs fetch two tickers with retries
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sched.Stop(shutdownCtx)
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}

	log.Info().Msg("server exited")
}
