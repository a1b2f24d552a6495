package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/model"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/testutil"
)

func TestRateHandler_Rate(t *testing.T) {
	setupHandler := func(t *testing.T) *RateHandler {
		t.Helper()
		db := testutil.SetupTestDB(t)
		testutil.NewRate().On("2024-01-01").Percent(5).Build(t, db)
		testutil.NewRate().On("2024-03-01").Percent(4).Build(t, db)
		return NewRateHandler(testutil.NewTestRateService(t, db))
	}

	t.Run("returns the observation in effect for the month", func(t *testing.T) {
		handler := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/rates", map[string]string{"date": "2024-02-20"})
		w := httptest.NewRecorder()

		handler.Rate(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response model.RateLookup
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response.Rate != 0.05 {
			t.Errorf("Expected rate 0.05, got %v", response.Rate)
		}
		if response.ObservationDate == nil || *response.ObservationDate != "2024-01-01" {
			t.Errorf("Expected observation 2024-01-01, got %v", response.ObservationDate)
		}
		if response.Fallback {
			t.Error("Expected a stored observation, not the fallback")
		}
	})

	t.Run("returns 400 for malformed date", func(t *testing.T) {
		handler := setupHandler(t)

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/rates", map[string]string{"date": "20-02-2024"})
		w := httptest.NewRecorder()

		handler.Rate(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}
	})

	t.Run("falls back when no rates are stored", func(t *testing.T) {
		handler := NewRateHandler(testutil.NewTestRateService(t, testutil.SetupTestDB(t)))

		req := testutil.NewRequestWithQueryParams(http.MethodGet, "/api/rates", map[string]string{"date": "2024-02-20"})
		w := httptest.NewRecorder()

		handler.Rate(w, req)

		var response model.RateLookup
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if !response.Fallback || response.Rate != testutil.DefaultTestRate {
			t.Errorf("Expected fallback rate, got %+v", response)
		}
	})
}
