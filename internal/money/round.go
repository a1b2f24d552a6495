// Package money provides rounding helpers applied at the output boundary.
// Internal computation keeps full float64 precision; only values leaving the
// system (API responses, CLI reports) pass through these functions.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	// CurrencyPlaces is the number of decimals used for monetary values.
	CurrencyPlaces int32 = 2
	// SharePlaces is the number of decimals used for share quantities.
	SharePlaces int32 = 4
)

// Round rounds value half away from zero to the given number of decimal places.
// Rounding goes through decimal so values like 1.005 round to 1.01 rather than
// inheriting binary float artifacts. NaN and infinities are returned unchanged.
func Round(value float64, places int32) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	rounded, _ := decimal.NewFromFloat(value).Round(places).Float64()
	return rounded
}

// Round2 rounds a monetary value to cents.
//
// Example:
//
//	Round2(123.456789) // returns 123.46
//	Round2(1.005)      // returns 1.01
func Round2(value float64) float64 {
	return Round(value, CurrencyPlaces)
}

// Round2Ptr rounds an optional value, preserving nil.
func Round2Ptr(value *float64) *float64 {
	if value == nil {
		return nil
	}
	rounded := Round2(*value)
	return &rounded
}
