package repository_test

import (
	"context"
	"testing"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/model"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/repository"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/testutil"
)

func TestRateRepository_GetRateOnOrBefore(t *testing.T) {
	ctx := context.Background()

	t.Run("reports empty table", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRateRepository(db)

		_, ok, err := repo.GetRateOnOrBefore(ctx, testutil.MustDate("2024-03-15"))
		if err != nil {
			t.Fatalf("GetRateOnOrBefore() returned unexpected error: %v", err)
		}
		if ok {
			t.Error("Expected no rate on empty table")
		}
	})

	t.Run("returns most recent observation on or before date", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRateRepository(db)
		testutil.NewRate().On("2024-01-01").Percent(5.33).Build(t, db)
		testutil.NewRate().On("2024-02-01").Percent(5.25).Build(t, db)
		testutil.NewRate().On("2024-03-01").Percent(5.10).Build(t, db)

		rate, ok, err := repo.GetRateOnOrBefore(ctx, testutil.MustDate("2024-02-20"))
		if err != nil || !ok {
			t.Fatalf("GetRateOnOrBefore() = %v, %v", ok, err)
		}
		if got := marketdata.DateKey(rate.ObservationDate); got != "2024-02-01" {
			t.Errorf("Expected 2024-02-01 observation, got %s", got)
		}
		if rate.Rate != 0.0525 {
			t.Errorf("Expected rate 0.0525, got %v", rate.Rate)
		}

		rate, _, _ = repo.GetRateOnOrBefore(ctx, testutil.MustDate("2024-03-01"))
		if got := marketdata.DateKey(rate.ObservationDate); got != "2024-03-01" {
			t.Errorf("Expected exact match 2024-03-01, got %s", got)
		}
	})

	t.Run("falls back to earliest observation", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRateRepository(db)
		testutil.NewRate().On("2000-01-01").Percent(5.45).Build(t, db)
		testutil.NewRate().On("2000-02-01").Percent(5.73).Build(t, db)

		rate, ok, err := repo.GetRateOnOrBefore(ctx, testutil.MustDate("1990-06-01"))
		if err != nil || !ok {
			t.Fatalf("GetRateOnOrBefore() = %v, %v", ok, err)
		}
		if got := marketdata.DateKey(rate.ObservationDate); got != "2000-01-01" {
			t.Errorf("Expected earliest observation, got %s", got)
		}
	})
}

func TestRateRepository_UpsertRates(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces existing observations", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRateRepository(db)

		first := []model.ReferenceRate{
			{ObservationDate: testutil.MustDate("2024-01-01"), Rate: 0.05, Source: "FEDFUNDS"},
			{ObservationDate: testutil.MustDate("2024-02-01"), Rate: 0.051, Source: "FEDFUNDS"},
		}
		if n, err := repo.UpsertRates(ctx, first); err != nil || n != 2 {
			t.Fatalf("UpsertRates() = %d, %v", n, err)
		}

		second := []model.ReferenceRate{
			{ObservationDate: testutil.MustDate("2024-02-01"), Rate: 0.052, Source: "FEDFUNDS"},
		}
		if _, err := repo.UpsertRates(ctx, second); err != nil {
			t.Fatalf("UpsertRates() returned unexpected error: %v", err)
		}

		count, err := repo.CountRates(ctx)
		if err != nil {
			t.Fatalf("CountRates() returned unexpected error: %v", err)
		}
		if count != 2 {
			t.Errorf("Expected 2 rows, got %d", count)
		}

		rates, err := repo.GetRates(ctx)
		if err != nil {
			t.Fatalf("GetRates() returned unexpected error: %v", err)
		}
		if len(rates) != 2 || rates[1].Rate != 0.052 {
			t.Errorf("Expected updated February rate, got %+v", rates)
		}
		if !rates[0].ObservationDate.Before(rates[1].ObservationDate) {
			t.Error("Expected chronological order")
		}
	})

	t.Run("empty input is a no-op", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		repo := repository.NewRateRepository(db)

		n, err := repo.UpsertRates(ctx, nil)
		if err != nil || n != 0 {
			t.Errorf("UpsertRates(nil) = %d, %v", n, err)
		}
	})
}
