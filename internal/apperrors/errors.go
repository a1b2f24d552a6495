package apperrors

import "errors"

// Market data errors represent missing or unusable price data.
// These errors abort a simulation before any day is processed.
var (
	// ErrDataUnavailable indicates that no usable price data exists for a ticker and range
	// (empty result, NaN/null closes, or an unfillable alignment).
	ErrDataUnavailable = errors.New("no data found for this ticker and date range")

	// ErrNoCommonDateRange indicates that a ticker and its benchmark share no trading days.
	ErrNoCommonDateRange = errors.New("no common date range between portfolio and benchmark tickers")

	// ErrSymbolNotFound indicates that a symbol lookup returned no results
	ErrSymbolNotFound = errors.New("symbol not found")
)

// Business logic errors represent validation failures or constraint violations.
// These errors indicate that an operation cannot be completed due to business rules.
var (
	// ErrInvalidParameters indicates that a simulation request failed pre-flight validation.
	// It is always wrapped together with a *validation.Error carrying per-field messages.
	ErrInvalidParameters = errors.New("invalid simulation parameters")

	// ErrInvalidDateRange indicates that the provided date range is invalid
	// (e.g., start date is after end date).
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidDate indicates a date that is not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date")
)

// Operation failure errors represent system-level failures when retrieving or processing data.
// These errors indicate that an operation failed, but not due to missing entities or validation issues.
var (
	// Market data operation errors
	ErrFailedToRetrievePrices    = errors.New("failed to retrieve price history")
	ErrFailedToRetrieveDividends = errors.New("failed to retrieve dividends")

	// Reference rate operation errors
	ErrFailedToImportRates = errors.New("failed to import reference rates")
	ErrInvalidCSVHeaders   = errors.New("invalid CSV headers")

	// System operation errors
	ErrFailedToGetVersionInfo = errors.New("failed to get version information")
)
