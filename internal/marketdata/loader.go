package marketdata

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
)

// Provider supplies historical data for a ticker.
// Implementations perform network or cache I/O and must honor ctx cancellation.
type Provider interface {
	// FetchPriceSeries returns daily closes for the range. Missing closes are NaN.
	FetchPriceSeries(ctx context.Context, ticker string, start, end time.Time) (PriceSeries, error)
	// FetchDividends returns a sparse dividend-per-share map keyed by DateKey.
	FetchDividends(ctx context.Context, ticker string, start, end time.Time) (map[string]float64, error)
}

// FetchSeries loads the price and dividend feeds for ticker and assembles the
// canonical Series. The run fails with apperrors.ErrDataUnavailable if no rows
// are returned or any close in the range is missing.
//
// Parameters:
//   - ctx: Context for cancellation of provider I/O
//   - provider: The data source
//   - ticker: Symbol to load
//   - start: First calendar day (inclusive)
//   - end: Last calendar day (inclusive)
//
// Returns:
//   - Series: Chronological closes with dividends restricted to the range
//   - error: ErrDataUnavailable, or a wrapped provider failure
func FetchSeries(ctx context.Context, provider Provider, ticker string, start, end time.Time) (Series, error) {
	prices, err := provider.FetchPriceSeries(ctx, ticker, start, end)
	if err != nil {
		return Series{}, err
	}

	if len(prices.Dates) == 0 {
		return Series{}, fmt.Errorf("%w: %s", apperrors.ErrDataUnavailable, ticker)
	}
	if len(prices.Dates) != len(prices.Closes) {
		return Series{}, fmt.Errorf("%w: %s: mismatched dates and closes", apperrors.ErrDataUnavailable, ticker)
	}
	for i, c := range prices.Closes {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Series{}, fmt.Errorf("%w: %s: missing close on %s",
				apperrors.ErrDataUnavailable, ticker, DateKey(prices.Dates[i]))
		}
	}

	dates, closes := sortByDate(prices.Dates, prices.Closes)

	dividends, err := provider.FetchDividends(ctx, ticker, start, end)
	if err != nil {
		return Series{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrieveDividends, err)
	}

	series := Series{
		Ticker:    ticker,
		Dates:     dates,
		Closes:    closes,
		Dividends: make(map[string]float64, len(dividends)),
	}
	for key, dps := range dividends {
		if dps > 0 && !math.IsNaN(dps) {
			series.Dividends[key] = dps
		}
	}

	series = series.Trim(start, end)
	if series.Len() == 0 {
		return Series{}, fmt.Errorf("%w: %s", apperrors.ErrDataUnavailable, ticker)
	}
	return series, nil
}
