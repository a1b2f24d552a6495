package marketdata

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
)

// AlignToReference re-indexes a series onto exactly the reference dates so two
// runs trade on identical calendar days.
//
// Each reference date takes the last source close on or before it (forward
// fill, covering holidays and weekends). Reference dates that precede the first
// source observation take the series' first close (back fill, covering a series
// that starts late). A reference that ends before the series begins has
// nothing to fill from and fails with apperrors.ErrDataUnavailable.
//
// Dividends paid on days absent from the reference are rolled onto the next
// reference date so none are lost or counted twice; dividends outside the
// reference window are dropped.
//
// Aligning an already aligned series onto the same reference returns it unchanged.
func AlignToReference(series Series, reference []time.Time) (Series, error) {
	if len(reference) == 0 || series.Len() == 0 {
		return Series{}, fmt.Errorf("%w: %s: nothing to align", apperrors.ErrDataUnavailable, series.Ticker)
	}

	refs := make([]time.Time, len(reference))
	for i, d := range reference {
		refs[i] = Day(d)
	}

	closes := make([]float64, len(refs))
	src := 0
	last := math.NaN()
	for i, ref := range refs {
		for src < series.Len() && !Day(series.Dates[src]).After(ref) {
			last = series.Closes[src]
			src++
		}
		closes[i] = last
	}

	// Leading reference dates take the first close, but only when the
	// reference reaches into the series at all.
	if src > 0 {
		for i := range closes {
			if !math.IsNaN(closes[i]) {
				break
			}
			closes[i] = series.Closes[0]
		}
	}

	for i := range closes {
		if math.IsNaN(closes[i]) {
			return Series{}, fmt.Errorf("%w: %s: no value for %s",
				apperrors.ErrDataUnavailable, series.Ticker, DateKey(refs[i]))
		}
	}

	return Series{
		Ticker:    series.Ticker,
		Dates:     refs,
		Closes:    closes,
		Dividends: rollDividends(series.Dividends, refs),
	}, nil
}

// rollDividends moves each dividend onto the first reference date on or after
// its pay date. Multiple dividends landing on the same date are summed.
func rollDividends(dividends map[string]float64, refs []time.Time) map[string]float64 {
	out := make(map[string]float64)
	if len(refs) == 0 {
		return out
	}
	first, lastRef := refs[0], refs[len(refs)-1]

	for key, dps := range dividends {
		day, err := time.Parse(DateLayout, key)
		if err != nil {
			continue
		}
		if day.Before(first) || day.After(lastRef) {
			continue
		}
		idx := sort.Search(len(refs), func(i int) bool {
			return !refs[i].Before(day)
		})
		out[DateKey(refs[idx])] += dps
	}
	return out
}

// CommonDateRange returns the first and last trading day shared by both series.
// It fails with apperrors.ErrNoCommonDateRange when the series never overlap.
func CommonDateRange(a, b Series) (time.Time, time.Time, error) {
	inB := make(map[string]struct{}, b.Len())
	for _, d := range b.Dates {
		inB[DateKey(d)] = struct{}{}
	}

	var first, last time.Time
	for _, d := range a.Dates {
		if _, ok := inB[DateKey(d)]; !ok {
			continue
		}
		day := Day(d)
		if first.IsZero() || day.Before(first) {
			first = day
		}
		if last.IsZero() || day.After(last) {
			last = day
		}
	}

	if first.IsZero() {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %s and %s",
			apperrors.ErrNoCommonDateRange, a.Ticker, b.Ticker)
	}
	return first, last, nil
}
