// Package marketdata turns raw price and dividend feeds into the canonical
// per-day sequence the simulation engine iterates over.
package marketdata

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the canonical day format used for keys and API output.
const DateLayout = "2006-01-02"

// DateKey normalizes a timestamp to its calendar day in UTC and formats it.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// Day truncates a timestamp to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a "2006-01-02" or RFC3339 date and returns its UTC day.
func ParseDate(str string) (time.Time, error) {
	t, err := time.Parse(DateLayout, str)
	if err != nil {
		t, err = time.Parse(time.RFC3339, str)
		if err != nil {
			return time.Time{}, err
		}
	}
	return Day(t), nil
}

// PriceSeries is the raw, provider-specific closing price feed.
// A missing close is represented as NaN.
type PriceSeries struct {
	Dates  []time.Time
	Closes []float64
}

// Series is the canonical iteration sequence for one ticker: ordered trading
// days with their closes, plus a sparse dividend-per-share map keyed by DateKey.
type Series struct {
	Ticker    string
	Dates     []time.Time
	Closes    []float64
	Dividends map[string]float64
}

// Len returns the number of trading days in the series.
func (s Series) Len() int {
	return len(s.Dates)
}

// Dividend returns the dividend per share paid on the given day, if any.
func (s Series) Dividend(date time.Time) (float64, bool) {
	dps, ok := s.Dividends[DateKey(date)]
	if !ok || dps <= 0 || math.IsNaN(dps) {
		return 0, false
	}
	return dps, true
}

// Trim returns the part of the series between start and end (inclusive).
// A zero end means no upper bound.
func (s Series) Trim(start, end time.Time) Series {
	out := Series{Ticker: s.Ticker, Dividends: make(map[string]float64)}
	startDay := Day(start)
	endDay := Day(end)
	for i, d := range s.Dates {
		if d.Before(startDay) {
			continue
		}
		if !end.IsZero() && d.After(endDay) {
			break
		}
		out.Dates = append(out.Dates, d)
		out.Closes = append(out.Closes, s.Closes[i])
	}
	for key, dps := range s.Dividends {
		day, err := time.Parse(DateLayout, key)
		if err != nil || day.Before(startDay) || (!end.IsZero() && day.After(endDay)) {
			continue
		}
		out.Dividends[key] = dps
	}
	return out
}

// sortByDate orders a price feed chronologically, keeping the last value when a
// day appears twice.
func sortByDate(dates []time.Time, closes []float64) ([]time.Time, []float64) {
	type point struct {
		date  time.Time
		close float64
	}

	points := make([]point, len(dates))
	for i := range dates {
		points[i] = point{date: Day(dates[i]), close: closes[i]}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].date.Before(points[j].date)
	})

	outDates := make([]time.Time, 0, len(points))
	outCloses := make([]float64, 0, len(points))
	for _, p := range points {
		if n := len(outDates); n > 0 && outDates[n-1].Equal(p.date) {
			outCloses[n-1] = p.close
			continue
		}
		outDates = append(outDates, p.date)
		outCloses = append(outCloses, p.close)
	}
	return outDates, outCloses
}
