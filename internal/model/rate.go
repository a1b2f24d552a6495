package model

import "time"

// ReferenceRate is one monthly observation of the annual reference rate.
// Rate is a fraction (0.0533 for 5.33%).
type ReferenceRate struct {
	ObservationDate time.Time `json:"observation_date"`
	Rate            float64   `json:"rate"`
	Source          string    `json:"source"`
}

// RateLookup is the answer to "which rate applies on this date".
type RateLookup struct {
	Date            string  `json:"date"`
	Rate            float64 `json:"rate"`
	ObservationDate *string `json:"observation_date"`
	Fallback        bool    `json:"fallback"`
}

// RateImportResult summarizes one CSV import.
type RateImportResult struct {
	Imported int    `json:"imported"`
	Skipped  int    `json:"skipped"`
	Source   string `json:"source"`
}
