package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/cache"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/metrics"
)

// openRangeTTL bounds how long a chart that reaches today stays cached, since
// the latest session keeps changing.
const openRangeTTL = 15 * time.Minute

// Provider adapts FinanceClient to marketdata.Provider. Price and dividend
// feeds come from the same chart request, so the chart is cached and
// concurrent requests for the same range share one upstream call.
type Provider struct {
	client *FinanceClient
	store  cache.Store
	ttl    time.Duration
	group  singleflight.Group
	logger zerolog.Logger
}

// NewProvider creates a provider. A nil store disables caching beyond the
// in-flight de-duplication.
func NewProvider(client *FinanceClient, store cache.Store, ttl time.Duration, logger zerolog.Logger) *Provider {
	return &Provider{
		client: client,
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "yahoo").Logger(),
	}
}

// FetchPriceSeries implements marketdata.Provider.
func (p *Provider) FetchPriceSeries(ctx context.Context, ticker string, start, end time.Time) (marketdata.PriceSeries, error) {
	chart, err := p.Chart(ctx, ticker, start, end)
	if err != nil {
		return marketdata.PriceSeries{}, classify(err)
	}
	return marketdata.PriceSeries{
		Dates:  append([]time.Time(nil), chart.Dates...),
		Closes: append([]float64(nil), chart.Closes...),
	}, nil
}

// FetchDividends implements marketdata.Provider.
func (p *Provider) FetchDividends(ctx context.Context, ticker string, start, end time.Time) (map[string]float64, error) {
	chart, err := p.Chart(ctx, ticker, start, end)
	if err != nil {
		return nil, err
	}
	return maps.Clone(chart.Dividends), nil
}

// classify tags transport failures so callers can tell them apart from
// missing data.
func classify(err error) error {
	if errors.Is(err, apperrors.ErrSymbolNotFound) || errors.Is(err, apperrors.ErrDataUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", apperrors.ErrFailedToRetrievePrices, err)
}

// Chart returns the parsed chart for ticker over [start, end], consulting the
// cache first.
func (p *Provider) Chart(ctx context.Context, ticker string, start, end time.Time) (PriceChart, error) {
	key := chartKey(ticker, start, end)

	if chart, ok := p.cached(ctx, key); ok {
		metrics.ProviderFetches.WithLabelValues("cache", "hit").Inc()
		return chart, nil
	}

	v, err, shared := p.group.Do(key, func() (any, error) {
		// callers joining this flight must not inherit the first caller's
		// cancellation; the client timeout still bounds the request
		fetchCtx := context.WithoutCancel(ctx)
		resp, err := p.client.QuerySymbolByDateRange(fetchCtx, ticker, start, end)
		if err != nil {
			return PriceChart{}, err
		}
		chart, err := p.client.ParseChart(resp)
		if err != nil {
			return PriceChart{}, fmt.Errorf("%s: %w", ticker, err)
		}
		p.save(fetchCtx, key, chart, cacheTTL(p.ttl, end, time.Now()))
		return chart, nil
	})
	if err != nil {
		metrics.ProviderFetches.WithLabelValues("yahoo", "error").Inc()
		p.logger.Warn().Err(err).Str("ticker", ticker).Msg("chart fetch failed")
		return PriceChart{}, err
	}
	metrics.ProviderFetches.WithLabelValues("yahoo", "success").Inc()
	p.logger.Debug().
		Str("ticker", ticker).
		Bool("shared", shared).
		Msg("chart fetched")
	return v.(PriceChart), nil
}

// Search returns ticker suggestions. An empty query yields no matches.
func (p *Provider) Search(ctx context.Context, query string, limit int) ([]SymbolMatch, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SymbolMatch{}, nil
	}
	return p.client.Search(ctx, query, limit)
}

func (p *Provider) cached(ctx context.Context, key string) (PriceChart, bool) {
	if p.store == nil {
		return PriceChart{}, false
	}
	data, ok, err := p.store.Get(ctx, key)
	if err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return PriceChart{}, false
	}
	if !ok {
		return PriceChart{}, false
	}
	var chart PriceChart
	if json.Unmarshal(data, &chart) != nil {
		return PriceChart{}, false
	}
	return chart, true
}

// save stores the chart. Charts with missing closes do not encode (JSON has
// no NaN) and are left uncached.
func (p *Provider) save(ctx context.Context, key string, chart PriceChart, ttl time.Duration) {
	if p.store == nil {
		return
	}
	data, err := json.Marshal(chart)
	if err != nil {
		return
	}
	if err := p.store.Set(ctx, key, data, ttl); err != nil {
		p.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// cacheTTL shortens ttl for ranges that are open or end today or later. A
// non-positive ttl never expires.
func cacheTTL(ttl time.Duration, end, now time.Time) time.Duration {
	if end.IsZero() || !marketdata.Day(end).Before(marketdata.Day(now)) {
		if ttl <= 0 || ttl > openRangeTTL {
			return openRangeTTL
		}
	}
	return ttl
}

func chartKey(ticker string, start, end time.Time) string {
	endKey := "open"
	if !end.IsZero() {
		endKey = marketdata.DateKey(end)
	}
	return fmt.Sprintf("chart:%s:%s:%s", strings.ToUpper(ticker), marketdata.DateKey(start), endKey)
}
