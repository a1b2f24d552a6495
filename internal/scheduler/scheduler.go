// Package scheduler runs the application's periodic background jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/model"
)

// RateImporter re-imports the reference rate table from a file.
type RateImporter interface {
	ImportFile(ctx context.Context, path string) (model.RateImportResult, error)
}

// Scheduler wraps a cron runner. Jobs never overlap with themselves and a
// panicking job is logged instead of crashing the process.
type Scheduler struct {
	cron       *cron.Cron
	logger     zerolog.Logger
	jobTimeout time.Duration
}

// New creates a stopped scheduler.
func New(logger zerolog.Logger) *Scheduler {
	logger = logger.With().Str("component", "scheduler").Logger()
	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cl),
			cron.SkipIfStillRunning(cl),
		), cron.WithLogger(cl)),
		logger:     logger,
		jobTimeout: 5 * time.Minute,
	}
}

// AddRateRefresh schedules a re-import of path on spec (standard cron syntax
// or descriptors such as "@daily").
func (s *Scheduler) AddRateRefresh(spec string, importer RateImporter, path string) (cron.EntryID, error) {
	id, err := s.cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.jobTimeout)
		defer cancel()
		RefreshRates(ctx, importer, path, s.logger)
	})
	if err != nil {
		return 0, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return id, nil
}

// RefreshRates runs one import and logs its outcome.
func RefreshRates(ctx context.Context, importer RateImporter, path string, logger zerolog.Logger) {
	res, err := importer.ImportFile(ctx, path)
	if err != nil {
		logger.Error().Err(err).Str("path", path).Msg("reference rate refresh failed")
		return
	}
	logger.Info().
		Str("path", path).
		Int("imported", res.Imported).
		Int("skipped", res.Skipped).
		Msg("reference rates refreshed")
}

// Entries returns the number of scheduled jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops scheduling and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stopped before running jobs finished")
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
