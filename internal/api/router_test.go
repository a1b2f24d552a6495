package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/config"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/testutil"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/yahoo"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	provider := testutil.NewMockProvider(testutil.NewSeries("SPY").Flat(5, 100).Build())

	cfg := &config.Config{}
	cfg.CORS.AllowedOrigins = []string{"http://localhost:3000"}

	return api.NewRouter(api.Services{
		System:     testutil.NewTestSystemService(t, db),
		Simulation: testutil.NewTestSimulationService(t, db, provider),
		Rates:      testutil.NewTestRateService(t, db),
		Tickers:    yahoo.NewProvider(yahoo.NewFinanceClient(yahoo.Config{}), nil, 0, zerolog.Nop()),
	}, cfg, zerolog.Nop())
}

func TestRouter(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"health", http.MethodGet, "/api/system/health", "", http.StatusOK},
		{"version", http.MethodGet, "/api/system/version", "", http.StatusOK},
		{"rates", http.MethodGet, "/api/rates?date=2024-01-15", "", http.StatusOK},
		{"empty search", http.MethodGet, "/api/ticker/search", "", http.StatusOK},
		{"invalid symbol", http.MethodGet, "/api/ticker/SPY%3BX/history", "", http.StatusBadRequest},
		{"calculate", http.MethodPost, "/api/simulation/calculate", `{"ticker":"SPY","start_date":"2024-01-01","amount":10}`, http.StatusOK},
		{"calculate wrong method", http.MethodGet, "/api/simulation/calculate", "", http.StatusMethodNotAllowed},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"unknown route", http.MethodGet, "/api/nope", "", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("%s %s: expected %d, got %d: %s", tt.method, tt.path, tt.want, w.Code, w.Body.String())
			}
		})
	}
}
