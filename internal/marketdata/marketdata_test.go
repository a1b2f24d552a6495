package marketdata

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
)

func day(s string) time.Time {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func days(keys ...string) []time.Time {
	out := make([]time.Time, len(keys))
	for i, k := range keys {
		out[i] = day(k)
	}
	return out
}

type stubProvider struct {
	prices    PriceSeries
	dividends map[string]float64
	priceErr  error
	divErr    error
}

func (s stubProvider) FetchPriceSeries(_ context.Context, _ string, _, _ time.Time) (PriceSeries, error) {
	return s.prices, s.priceErr
}

func (s stubProvider) FetchDividends(_ context.Context, _ string, _, _ time.Time) (map[string]float64, error) {
	return s.dividends, s.divErr
}

func TestFetchSeries(t *testing.T) {
	ctx := context.Background()

	t.Run("sorts and trims to the requested range", func(t *testing.T) {
		p := stubProvider{
			prices: PriceSeries{
				Dates:  days("2024-01-04", "2024-01-02", "2024-01-03", "2024-01-08"),
				Closes: []float64{12, 10, 11, 13},
			},
			dividends: map[string]float64{"2024-01-03": 0.5, "2024-01-08": 0.25},
		}

		s, err := FetchSeries(ctx, p, "SPY", day("2024-01-01"), day("2024-01-05"))
		require.NoError(t, err)

		assert.Equal(t, days("2024-01-02", "2024-01-03", "2024-01-04"), s.Dates)
		assert.Equal(t, []float64{10, 11, 12}, s.Closes)
		assert.Equal(t, map[string]float64{"2024-01-03": 0.5}, s.Dividends)
		assert.Equal(t, "SPY", s.Ticker)
	})

	t.Run("empty rows are data unavailable", func(t *testing.T) {
		_, err := FetchSeries(ctx, stubProvider{}, "NOPE", day("2024-01-01"), day("2024-01-05"))
		assert.ErrorIs(t, err, apperrors.ErrDataUnavailable)
	})

	t.Run("NaN close is data unavailable", func(t *testing.T) {
		p := stubProvider{prices: PriceSeries{
			Dates:  days("2024-01-02", "2024-01-03"),
			Closes: []float64{10, math.NaN()},
		}}
		_, err := FetchSeries(ctx, p, "SPY", day("2024-01-01"), day("2024-01-05"))
		assert.ErrorIs(t, err, apperrors.ErrDataUnavailable)
	})

	t.Run("provider error is propagated", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := FetchSeries(ctx, stubProvider{priceErr: boom}, "SPY", day("2024-01-01"), day("2024-01-05"))
		assert.ErrorIs(t, err, boom)
	})

	t.Run("dividend failure is wrapped", func(t *testing.T) {
		p := stubProvider{
			prices: PriceSeries{Dates: days("2024-01-02"), Closes: []float64{10}},
			divErr: errors.New("timeout"),
		}
		_, err := FetchSeries(ctx, p, "SPY", day("2024-01-01"), day("2024-01-05"))
		assert.ErrorIs(t, err, apperrors.ErrFailedToRetrieveDividends)
	})
}

func TestAlignToReference(t *testing.T) {
	t.Run("drops days missing from the reference", func(t *testing.T) {
		bench := Series{
			Ticker: "QQQ",
			Dates:  days("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"),
			Closes: []float64{1, 2, 3, 4, 5},
		}
		ref := days("2024-01-01", "2024-01-03", "2024-01-05")

		aligned, err := AlignToReference(bench, ref)
		require.NoError(t, err)
		assert.Equal(t, ref, aligned.Dates)
		assert.Equal(t, []float64{1, 3, 5}, aligned.Closes)
	})

	t.Run("forward fills missing reference days", func(t *testing.T) {
		bench := Series{
			Ticker: "QQQ",
			Dates:  days("2024-01-01", "2024-01-02", "2024-01-04"),
			Closes: []float64{1, 2, 4},
		}
		ref := days("2024-01-01", "2024-01-03", "2024-01-05")

		aligned, err := AlignToReference(bench, ref)
		require.NoError(t, err)
		assert.Equal(t, []float64{1, 2, 4}, aligned.Closes)
	})

	t.Run("back fills leading gaps", func(t *testing.T) {
		bench := Series{
			Ticker: "QQQ",
			Dates:  days("2024-01-03", "2024-01-04"),
			Closes: []float64{30, 40},
		}
		ref := days("2024-01-01", "2024-01-02", "2024-01-04")

		aligned, err := AlignToReference(bench, ref)
		require.NoError(t, err)
		assert.Equal(t, []float64{30, 30, 40}, aligned.Closes)
	})

	t.Run("reference entirely before the series is data unavailable", func(t *testing.T) {
		bench := Series{Ticker: "QQQ", Dates: days("2024-06-03"), Closes: []float64{7}}
		_, err := AlignToReference(bench, days("2024-01-02", "2024-01-03"))
		assert.ErrorIs(t, err, apperrors.ErrDataUnavailable)
	})

	t.Run("empty series is data unavailable", func(t *testing.T) {
		_, err := AlignToReference(Series{Ticker: "QQQ"}, days("2024-01-01"))
		assert.ErrorIs(t, err, apperrors.ErrDataUnavailable)
	})

	t.Run("dividends roll to the next reference day", func(t *testing.T) {
		bench := Series{
			Ticker:    "QQQ",
			Dates:     days("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"),
			Closes:    []float64{1, 2, 3, 4, 5},
			Dividends: map[string]float64{"2024-01-02": 0.1, "2024-01-03": 0.2, "2024-01-04": 0.3, "2023-12-29": 9},
		}
		ref := days("2024-01-01", "2024-01-03", "2024-01-05")

		aligned, err := AlignToReference(bench, ref)
		require.NoError(t, err)
		assert.InDelta(t, 0.3, aligned.Dividends["2024-01-03"], 1e-12)
		assert.InDelta(t, 0.3, aligned.Dividends["2024-01-05"], 1e-12)
		assert.Len(t, aligned.Dividends, 2)
	})

	t.Run("is idempotent", func(t *testing.T) {
		bench := Series{
			Ticker:    "QQQ",
			Dates:     days("2024-01-02", "2024-01-03", "2024-01-05", "2024-01-08"),
			Closes:    []float64{2, 3, 5, 8},
			Dividends: map[string]float64{"2024-01-04": 0.5},
		}
		ref := days("2024-01-01", "2024-01-03", "2024-01-04", "2024-01-09")

		once, err := AlignToReference(bench, ref)
		require.NoError(t, err)
		twice, err := AlignToReference(once, ref)
		require.NoError(t, err)
		assert.Equal(t, once, twice)
	})
}

func TestCommonDateRange(t *testing.T) {
	t.Run("returns the overlap bounds", func(t *testing.T) {
		a := Series{Ticker: "A", Dates: days("2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04")}
		b := Series{Ticker: "B", Dates: days("2024-01-02", "2024-01-04", "2024-01-05")}

		first, last, err := CommonDateRange(a, b)
		require.NoError(t, err)
		assert.Equal(t, day("2024-01-02"), first)
		assert.Equal(t, day("2024-01-04"), last)
	})

	t.Run("disjoint series have no common range", func(t *testing.T) {
		a := Series{Ticker: "A", Dates: days("2024-01-01")}
		b := Series{Ticker: "B", Dates: days("2024-01-02")}

		_, _, err := CommonDateRange(a, b)
		assert.ErrorIs(t, err, apperrors.ErrNoCommonDateRange)
	})
}

func TestSeriesTrim(t *testing.T) {
	s := Series{
		Ticker:    "SPY",
		Dates:     days("2024-01-01", "2024-01-02", "2024-01-03"),
		Closes:    []float64{1, 2, 3},
		Dividends: map[string]float64{"2024-01-01": 1, "2024-01-03": 3},
	}

	trimmed := s.Trim(day("2024-01-02"), time.Time{})
	assert.Equal(t, days("2024-01-02", "2024-01-03"), trimmed.Dates)
	assert.Equal(t, map[string]float64{"2024-01-03": 3}, trimmed.Dividends)

	dps, ok := trimmed.Dividend(day("2024-01-03"))
	assert.True(t, ok)
	assert.Equal(t, 3.0, dps)
	_, ok = trimmed.Dividend(day("2024-01-02"))
	assert.False(t, ok)
	assert.Equal(t, []float64{2, 3}, trimmed.Closes)
}
