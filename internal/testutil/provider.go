package testutil

import (
	"context"
	"maps"
	"strings"
	"sync"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
)

// MockProvider is an in-memory marketdata.Provider for testing.
// It serves registered series and counts fetches per ticker.
type MockProvider struct {
	mu     sync.Mutex
	series map[string]marketdata.Series
	errs   map[string]error
	calls  map[string]int
}

// NewMockProvider creates a provider serving the given series, keyed by Ticker.
func NewMockProvider(series ...marketdata.Series) *MockProvider {
	m := &MockProvider{
		series: make(map[string]marketdata.Series),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
	for _, s := range series {
		m.series[strings.ToUpper(s.Ticker)] = s
	}
	return m
}

// WithError configures the mock to fail every fetch for ticker.
func (m *MockProvider) WithError(ticker string, err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[strings.ToUpper(ticker)] = err
	return m
}

// Calls returns how many fetches ticker has received.
func (m *MockProvider) Calls(ticker string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[strings.ToUpper(ticker)]
}

// FetchPriceSeries returns the registered closes inside [start, end].
func (m *MockProvider) FetchPriceSeries(_ context.Context, ticker string, start, end time.Time) (marketdata.PriceSeries, error) {
	s, err := m.lookup(ticker)
	if err != nil {
		return marketdata.PriceSeries{}, err
	}
	s = s.Trim(start, end)
	return marketdata.PriceSeries{
		Dates:  append([]time.Time(nil), s.Dates...),
		Closes: append([]float64(nil), s.Closes...),
	}, nil
}

// FetchDividends returns the registered dividends.
func (m *MockProvider) FetchDividends(_ context.Context, ticker string, _, _ time.Time) (map[string]float64, error) {
	s, err := m.lookup(ticker)
	if err != nil {
		return nil, err
	}
	return maps.Clone(s.Dividends), nil
}

func (m *MockProvider) lookup(ticker string) (marketdata.Series, error) {
	key := strings.ToUpper(ticker)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[key]++

	if err := m.errs[key]; err != nil {
		return marketdata.Series{}, err
	}
	s, ok := m.series[key]
	if !ok {
		return marketdata.Series{}, apperrors.ErrSymbolNotFound
	}
	return s, nil
}
