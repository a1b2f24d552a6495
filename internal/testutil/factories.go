package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/model"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/repository"
)

// SeriesBuilder provides a fluent interface for creating test price series.
// Trading days are consecutive weekdays starting at the start date.
//
// Example usage:
//
//	series := testutil.NewSeries("SPY").
//	    From("2024-01-02").
//	    Closes(100, 101, 99, 102).
//	    Dividend("2024-01-04", 0.5).
//	    Build()
type SeriesBuilder struct {
	ticker    string
	start     time.Time
	closes    []float64
	dividends map[string]float64
	skip      map[int]bool
}

// NewSeries creates a SeriesBuilder with a 2024-01-02 start.
func NewSeries(ticker string) *SeriesBuilder {
	return &SeriesBuilder{
		ticker:    ticker,
		start:     MustDate("2024-01-02"),
		dividends: make(map[string]float64),
		skip:      make(map[int]bool),
	}
}

// From sets the first trading day.
func (b *SeriesBuilder) From(date string) *SeriesBuilder {
	b.start = MustDate(date)
	return b
}

// Closes appends closing prices, one per trading day.
func (b *SeriesBuilder) Closes(closes ...float64) *SeriesBuilder {
	b.closes = append(b.closes, closes...)
	return b
}

// Flat appends n days at price.
func (b *SeriesBuilder) Flat(n int, price float64) *SeriesBuilder {
	for range n {
		b.closes = append(b.closes, price)
	}
	return b
}

// Dividend records a dividend per share on date.
func (b *SeriesBuilder) Dividend(date string, dps float64) *SeriesBuilder {
	b.dividends[marketdata.DateKey(MustDate(date))] = dps
	return b
}

// Skip drops the i-th generated trading day, simulating a holiday.
func (b *SeriesBuilder) Skip(i int) *SeriesBuilder {
	b.skip[i] = true
	return b
}

// Build assembles the series.
func (b *SeriesBuilder) Build() marketdata.Series {
	s := marketdata.Series{
		Ticker:    b.ticker,
		Dividends: make(map[string]float64, len(b.dividends)),
	}
	day := b.start
	for i, c := range b.closes {
		for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			day = day.AddDate(0, 0, 1)
		}
		if !b.skip[i] {
			s.Dates = append(s.Dates, day)
			s.Closes = append(s.Closes, c)
		}
		day = day.AddDate(0, 0, 1)
	}
	for k, v := range b.dividends {
		s.Dividends[k] = v
	}
	return s
}

// RateBuilder provides a fluent interface for creating reference rate rows.
//
// Example usage:
//
//	testutil.NewRate().On("2024-01-01").Percent(5.33).Build(t, db)
type RateBuilder struct {
	rate model.ReferenceRate
}

// NewRate creates a RateBuilder for 2024-01-01 at 5%.
func NewRate() *RateBuilder {
	return &RateBuilder{rate: model.ReferenceRate{
		ObservationDate: MustDate("2024-01-01"),
		Rate:            0.05,
		Source:          "FEDFUNDS",
	}}
}

// On sets the observation date.
func (b *RateBuilder) On(date string) *RateBuilder {
	b.rate.ObservationDate = MustDate(date)
	return b
}

// Percent sets the rate from a percentage.
func (b *RateBuilder) Percent(pct float64) *RateBuilder {
	b.rate.Rate = pct / 100
	return b
}

// Build inserts the rate into db.
func (b *RateBuilder) Build(t *testing.T, db *sql.DB) model.ReferenceRate {
	t.Helper()
	if _, err := repository.NewRateRepository(db).UpsertRates(context.Background(), []model.ReferenceRate{b.rate}); err != nil {
		t.Fatalf("Failed to insert rate: %v", err)
	}
	return b.rate
}

// MustDate parses a "2006-01-02" date or panics.
func MustDate(s string) time.Time {
	d, err := marketdata.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}
