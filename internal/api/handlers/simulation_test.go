package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/testutil"
)

func TestSimulationHandler_Calculate(t *testing.T) {
	setupHandler := func(t *testing.T, provider *testutil.MockProvider) *SimulationHandler {
		t.Helper()
		db := testutil.SetupTestDB(t)
		return NewSimulationHandler(testutil.NewTestSimulationService(t, db, provider))
	}

	defaultProvider := func() *testutil.MockProvider {
		return testutil.NewMockProvider(
			testutil.NewSeries("SPY").Closes(100, 101, 102, 101, 103).Dividend("2024-01-04", 0.5).Build(),
			testutil.NewSeries("QQQ").Closes(200, 204, 202, 206, 210).Build(),
		)
	}

	t.Run("returns the result bundle", func(t *testing.T) {
		handler := setupHandler(t, defaultProvider())

		req := testutil.NewJSONRequest(http.MethodPost, "/api/simulation/calculate",
			`{"ticker":"SPY","start_date":"2024-01-01","end_date":"2024-01-31","amount":100,"reinvest":true}`)
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response map[string]any
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		for _, key := range []string{"run_id", "summary", "series", "analytics", "margin_call_log", "withdrawal_log"} {
			if _, ok := response[key]; !ok {
				t.Errorf("Expected key %q in response", key)
			}
		}
		if _, ok := response["benchmark"]; ok {
			t.Error("Expected no benchmark without benchmark_ticker")
		}

		summary := response["summary"].(map[string]any)
		if summary["total_invested"] != 500.0 {
			t.Errorf("Expected total_invested 500, got %v", summary["total_invested"])
		}
		if summary["account_balance"] != nil {
			t.Errorf("Expected null account_balance for unlimited cash, got %v", summary["account_balance"])
		}
	})

	t.Run("includes benchmark and no-margin comparisons", func(t *testing.T) {
		handler := setupHandler(t, defaultProvider())

		req := testutil.NewJSONRequest(http.MethodPost, "/api/simulation/calculate",
			`{"ticker":"SPY","start_date":"2024-01-01","amount":100,"account_balance":150,"margin_ratio":1.5,"benchmark_ticker":"QQQ"}`)
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
		}

		var response map[string]any
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		benchmark, ok := response["benchmark"].(map[string]any)
		if !ok {
			t.Fatalf("Expected benchmark object, got %v", response["benchmark"])
		}
		if benchmark["ticker"] != "QQQ" {
			t.Errorf("Expected benchmark ticker QQQ, got %v", benchmark["ticker"])
		}
		if _, ok := response["no_margin"].(map[string]any); !ok {
			t.Error("Expected no_margin comparison for margin_ratio > 1")
		}
	})

	t.Run("returns 400 with field errors for invalid parameters", func(t *testing.T) {
		handler := setupHandler(t, defaultProvider())

		req := testutil.NewJSONRequest(http.MethodPost, "/api/simulation/calculate",
			`{"ticker":"","start_date":"01/01/2024","amount":-5,"frequency":"HOURLY"}`)
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}

		var response struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		for _, field := range []string{"ticker", "start_date", "amount", "frequency"} {
			if response.Details[field] == "" {
				t.Errorf("Expected error for field %q, got %v", field, response.Details)
			}
		}
	})

	t.Run("returns 400 for malformed JSON", func(t *testing.T) {
		handler := setupHandler(t, defaultProvider())

		req := testutil.NewJSONRequest(http.MethodPost, "/api/simulation/calculate", `{"ticker":`)
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 400 for non-finite amounts", func(t *testing.T) {
		handler := setupHandler(t, defaultProvider())

		for _, balance := range []string{`"NaN"`, `"Infinity"`} {
			req := testutil.NewJSONRequest(http.MethodPost, "/api/simulation/calculate",
				`{"ticker":"SPY","start_date":"2024-01-01","amount":100,"account_balance":`+balance+`}`)
			w := httptest.NewRecorder()

			handler.Calculate(w, req)

			if w.Code != http.StatusBadRequest {
				t.Errorf("account_balance %s: expected 400, got %d: %s", balance, w.Code, w.Body.String())
			}
		}
	})

	t.Run("returns 404 when no data is available", func(t *testing.T) {
		handler := setupHandler(t, defaultProvider())

		req := testutil.NewJSONRequest(http.MethodPost, "/api/simulation/calculate",
			`{"ticker":"SPY","start_date":"2020-01-01","end_date":"2020-12-31","amount":100}`)
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}
	})

	t.Run("returns 404 when tickers never overlap", func(t *testing.T) {
		provider := testutil.NewMockProvider(
			testutil.NewSeries("SPY").Flat(3, 100).Build(),
			testutil.NewSeries("QQQ").From("2024-01-15").Flat(3, 100).Build(),
		)
		handler := setupHandler(t, provider)

		req := testutil.NewJSONRequest(http.MethodPost, "/api/simulation/calculate",
			`{"ticker":"SPY","start_date":"2024-01-01","amount":100,"benchmark_ticker":"QQQ"}`)
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusNotFound {
			t.Fatalf("Expected 404, got %d: %s", w.Code, w.Body.String())
		}

		var response map[string]any
		//nolint:errcheck // Test assertion - decode failure would cause test to fail anyway
		json.NewDecoder(w.Body).Decode(&response)

		if response["error"] != apperrors.ErrNoCommonDateRange.Error() {
			t.Errorf("Expected common range error, got %v", response["error"])
		}
	})

	t.Run("returns 502 when the provider fails", func(t *testing.T) {
		provider := defaultProvider().WithError("SPY", apperrors.ErrFailedToRetrievePrices)
		handler := setupHandler(t, provider)

		req := testutil.NewJSONRequest(http.MethodPost, "/api/simulation/calculate",
			`{"ticker":"SPY","start_date":"2024-01-01","amount":100}`)
		w := httptest.NewRecorder()

		handler.Calculate(w, req)

		if w.Code != http.StatusBadGateway {
			t.Errorf("Expected 502, got %d: %s", w.Code, w.Body.String())
		}
	})
}
