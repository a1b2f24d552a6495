package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/engine"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/metrics"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/model"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/repository"
)

// FedFundsSource labels observations imported from the FRED FEDFUNDS series.
const FedFundsSource = "FEDFUNDS"

// RateService handles reference rate import and lookup.
// Stored rates are annual fractions; the CSV carries percentages.
type RateService struct {
	rateRepo *repository.RateRepository
	fallback float64
	logger   zerolog.Logger
}

// NewRateService creates a new RateService. fallback is returned whenever no
// observation is available.
func NewRateService(rateRepo *repository.RateRepository, fallback float64, logger zerolog.Logger) *RateService {
	return &RateService{
		rateRepo: rateRepo,
		fallback: fallback,
		logger:   logger.With().Str("component", "rates").Logger(),
	}
}

// ImportFile imports a FEDFUNDS CSV from disk.
func (s *RateService) ImportFile(ctx context.Context, path string) (model.RateImportResult, error) {
	f, err := os.Open(path)
	if err != nil {
		metrics.RateImports.WithLabelValues("error").Inc()
		return model.RateImportResult{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToImportRates, err)
	}
	defer f.Close()

	result, err := s.ImportCSV(ctx, f)
	if err != nil {
		return result, err
	}
	result.Source = path
	return result, nil
}

// ImportCSV parses a CSV with the header "observation_date,FEDFUNDS" and
// upserts every row. Rows with an empty or "." value (FRED's missing marker)
// are skipped.
//
// Parameters:
//   - ctx: Context for the database transaction
//   - r: CSV input
//
// Returns:
//   - model.RateImportResult: Counts of imported and skipped rows
//   - error: ErrInvalidCSVHeaders, or ErrFailedToImportRates wrapping the cause
func (s *RateService) ImportCSV(ctx context.Context, r io.Reader) (model.RateImportResult, error) {
	rates, skipped, err := parseFedFundsCSV(r)
	if err != nil {
		metrics.RateImports.WithLabelValues("error").Inc()
		return model.RateImportResult{}, err
	}

	n, err := s.rateRepo.UpsertRates(ctx, rates)
	if err != nil {
		metrics.RateImports.WithLabelValues("error").Inc()
		return model.RateImportResult{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToImportRates, err)
	}

	metrics.RateImports.WithLabelValues("success").Inc()
	s.logger.Info().Int("imported", n).Int("skipped", skipped).Msg("reference rates imported")
	return model.RateImportResult{Imported: n, Skipped: skipped, Source: FedFundsSource}, nil
}

func parseFedFundsCSV(r io.Reader) ([]model.ReferenceRate, int, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", apperrors.ErrInvalidCSVHeaders, err)
	}
	if len(header) < 2 ||
		strings.TrimPrefix(strings.TrimSpace(header[0]), "\ufeff") != "observation_date" ||
		strings.TrimSpace(header[1]) != FedFundsSource {
		return nil, 0, fmt.Errorf("%w: expected observation_date,%s", apperrors.ErrInvalidCSVHeaders, FedFundsSource)
	}

	var (
		rates   []model.ReferenceRate
		skipped int
	)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: %w", apperrors.ErrFailedToImportRates, line, err)
		}

		value := strings.TrimSpace(record[1])
		if value == "" || value == "." {
			skipped++
			continue
		}

		date, err := marketdata.ParseDate(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: invalid date %q", apperrors.ErrFailedToImportRates, line, record[0])
		}
		pct, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: line %d: invalid rate %q", apperrors.ErrFailedToImportRates, line, value)
		}

		rates = append(rates, model.ReferenceRate{
			ObservationDate: date,
			Rate:            pct / 100,
			Source:          FedFundsSource,
		})
	}
	return rates, skipped, nil
}

// RateFor returns the rate that applies on date: the most recent observation
// on or before the first day of date's month, the earliest observation for
// dates before the table starts, or the fallback when the table is empty or
// unreadable.
func (s *RateService) RateFor(ctx context.Context, date time.Time) model.RateLookup {
	lookup := model.RateLookup{Date: marketdata.DateKey(date)}

	rate, ok, err := s.rateRepo.GetRateOnOrBefore(ctx, monthStart(date))
	if err != nil {
		s.logger.Warn().Err(err).Str("date", lookup.Date).Msg("rate lookup failed, using fallback")
	}
	if err != nil || !ok {
		lookup.Rate = s.fallback
		lookup.Fallback = true
		return lookup
	}

	obs := marketdata.DateKey(rate.ObservationDate)
	lookup.Rate = rate.Rate
	lookup.ObservationDate = &obs
	return lookup
}

// RateFunc snapshots the rate table into an engine.RateFunc so a run performs
// no I/O per day. The lookup rule matches RateFor.
func (s *RateService) RateFunc(ctx context.Context) engine.RateFunc {
	rates, err := s.rateRepo.GetRates(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to load reference rates, using fallback")
		return engine.ConstantRate(s.fallback)
	}
	return snapshotRateFunc(rates, s.fallback)
}

// snapshotRateFunc expects rates in chronological order.
func snapshotRateFunc(rates []model.ReferenceRate, fallback float64) engine.RateFunc {
	if len(rates) == 0 {
		return engine.ConstantRate(fallback)
	}
	dates := make([]time.Time, len(rates))
	values := make([]float64, len(rates))
	for i, r := range rates {
		dates[i] = marketdata.Day(r.ObservationDate)
		values[i] = r.Rate
	}

	return func(date time.Time) float64 {
		target := monthStart(date)
		// first index strictly after target
		i := sort.Search(len(dates), func(i int) bool { return dates[i].After(target) })
		if i == 0 {
			return values[0]
		}
		return values[i-1]
	}
}

// Fallback returns the rate used when no observation applies.
func (s *RateService) Fallback() float64 {
	return s.fallback
}

func monthStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), 1, 0, 0, 0, 0, time.UTC)
}
