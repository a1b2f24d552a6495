package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/model"
)

const rateDateLayout = "2006-01-02"

// RateRepository provides data access methods for the reference_rate table.
type RateRepository struct {
	db *sql.DB
	tx *sql.Tx
}

// NewRateRepository creates a new RateRepository with the provided database connection.
func NewRateRepository(db *sql.DB) *RateRepository {
	return &RateRepository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *RateRepository) WithTx(tx *sql.Tx) *RateRepository {
	return &RateRepository{
		db: r.db,
		tx: tx,
	}
}

func (r *RateRepository) getQuerier() interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

// UpsertRates inserts or replaces the given observations in a single transaction.
// Observations are keyed by date, so re-importing the same file is idempotent.
//
// Returns:
//   - int: Number of rows written
//   - error: If the transaction or any insert fails
func (r *RateRepository) UpsertRates(ctx context.Context, rates []model.ReferenceRate) (int, error) {
	if len(rates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO reference_rate (observation_date, rate, source, imported_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(observation_date) DO UPDATE SET
			rate = excluded.rate,
			source = excluded.source,
			imported_at = excluded.imported_at
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare rate upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, rate := range rates {
		if _, err := stmt.ExecContext(ctx,
			rate.ObservationDate.UTC().Format(rateDateLayout),
			rate.Rate,
			rate.Source,
			now,
		); err != nil {
			return 0, fmt.Errorf("failed to upsert rate for %s: %w", rate.ObservationDate.Format(rateDateLayout), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit rates: %w", err)
	}
	return len(rates), nil
}

// GetRateOnOrBefore returns the most recent observation dated on or before date.
// When date precedes every observation the earliest one is returned instead.
//
// Returns:
//   - model.ReferenceRate: The applicable observation
//   - bool: false if the table is empty
//   - error: If the query fails
func (r *RateRepository) GetRateOnOrBefore(ctx context.Context, date time.Time) (model.ReferenceRate, bool, error) {
	rate, ok, err := r.queryOne(ctx, `
		SELECT observation_date, rate, source
		FROM reference_rate
		WHERE observation_date <= ?
		ORDER BY observation_date DESC
		LIMIT 1
	`, date.UTC().Format(rateDateLayout))
	if err != nil || ok {
		return rate, ok, err
	}

	return r.queryOne(ctx, `
		SELECT observation_date, rate, source
		FROM reference_rate
		ORDER BY observation_date ASC
		LIMIT 1
	`)
}

// GetRates returns every observation in chronological order.
func (r *RateRepository) GetRates(ctx context.Context) ([]model.ReferenceRate, error) {
	rows, err := r.getQuerier().QueryContext(ctx, `
		SELECT observation_date, rate, source
		FROM reference_rate
		ORDER BY observation_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reference_rate table: %w", err)
	}
	defer rows.Close()

	rates := []model.ReferenceRate{}
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reference_rate table: %w", err)
	}
	return rates, nil
}

// CountRates returns the number of stored observations.
func (r *RateRepository) CountRates(ctx context.Context) (int, error) {
	var n int
	if err := r.getQuerier().QueryRowContext(ctx, `SELECT COUNT(*) FROM reference_rate`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count reference rates: %w", err)
	}
	return n, nil
}

func (r *RateRepository) queryOne(ctx context.Context, query string, args ...any) (model.ReferenceRate, bool, error) {
	row := r.getQuerier().QueryRowContext(ctx, query, args...)
	rate, err := scanRate(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ReferenceRate{}, false, nil
	}
	if err != nil {
		return model.ReferenceRate{}, false, err
	}
	return rate, true, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRate(s scanner) (model.ReferenceRate, error) {
	var (
		rate    model.ReferenceRate
		dateStr string
	)
	if err := s.Scan(&dateStr, &rate.Rate, &rate.Source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rate, err
		}
		return rate, fmt.Errorf("failed to scan reference rate: %w", err)
	}
	date, err := ParseTime(dateStr)
	if err != nil {
		return rate, err
	}
	rate.ObservationDate = date
	return rate, nil
}
