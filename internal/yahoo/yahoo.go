package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
)

const (
	// DefaultChartURL is the Yahoo Finance v8 chart endpoint.
	DefaultChartURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	// DefaultSearchURL is the Yahoo Finance symbol search endpoint.
	DefaultSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Config controls where and how persistently the client talks to Yahoo.
type Config struct {
	ChartURL   string
	SearchURL  string
	MaxRetries uint64
	Backoff    time.Duration
	Timeout    time.Duration
}

// FinanceClient provides methods for fetching financial data from Yahoo Finance API.
// Transient failures (network errors, 429 and 5xx responses) are retried with
// exponential backoff.
type FinanceClient struct {
	httpClient *http.Client
	chartURL   string
	searchURL  string
	maxRetries uint64
	backoff    time.Duration
}

// NewFinanceClient creates a new Yahoo Finance client. Zero config values
// fall back to the public endpoints, 3 retries, 1s base backoff and a 30s timeout.
//
// Parameters:
//   - cfg: Endpoint and retry configuration
//
// Returns:
//   - *FinanceClient: A new client instance ready for use
func NewFinanceClient(cfg Config) *FinanceClient {
	if cfg.ChartURL == "" {
		cfg.ChartURL = DefaultChartURL
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = DefaultSearchURL
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &FinanceClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		chartURL:   cfg.ChartURL,
		searchURL:  cfg.SearchURL,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
	}
}

// ParseChart converts a raw Yahoo Finance API response into a structured price chart.
// Timestamps are shifted by the exchange GMT offset before being truncated to
// their trading day. Null closes become NaN so callers can reject the range.
//
// The method performs validation to ensure:
//   - A result is present
//   - Timestamp data is present
//   - Close price data is present and aligned with the timestamps
//
// Parameters:
//   - yahooResult: Raw response from Yahoo Finance API
//
// Returns:
//   - PriceChart: Daily closes with dividends keyed by trading day
//   - error: ErrDataUnavailable if data is missing or arrays have mismatched lengths
func (c *FinanceClient) ParseChart(yahooResult Response) (PriceChart, error) {
	if len(yahooResult.Chart.Result) == 0 {
		return PriceChart{}, fmt.Errorf("%w: no results returned", apperrors.ErrDataUnavailable)
	}
	result := yahooResult.Chart.Result[0]

	if len(result.Timestamp) == 0 {
		return PriceChart{}, fmt.Errorf("%w: no price data returned", apperrors.ErrDataUnavailable)
	}
	if len(result.Indicators.Quote) == 0 || len(result.Indicators.Quote[0].Close) == 0 {
		return PriceChart{}, fmt.Errorf("%w: no close prices returned", apperrors.ErrDataUnavailable)
	}
	closes := result.Indicators.Quote[0].Close
	if len(closes) != len(result.Timestamp) {
		return PriceChart{}, fmt.Errorf("%w: mismatched data lengths", apperrors.ErrDataUnavailable)
	}

	offset := result.Meta.GMTOffset
	chart := PriceChart{
		Symbol:    result.Meta.Symbol,
		Currency:  result.Meta.Currency,
		LongName:  result.Meta.LongName,
		Dates:     make([]time.Time, len(result.Timestamp)),
		Closes:    make([]float64, len(result.Timestamp)),
		Dividends: make(map[string]float64, len(result.Events.Dividends)),
	}
	if chart.LongName == "" {
		chart.LongName = result.Meta.ShortName
	}

	for i, ts := range result.Timestamp {
		chart.Dates[i] = marketdata.Day(time.Unix(ts+offset, 0))
		if closes[i] == nil {
			chart.Closes[i] = math.NaN()
			continue
		}
		chart.Closes[i] = *closes[i]
	}

	for _, div := range result.Events.Dividends {
		if div.Amount <= 0 {
			continue
		}
		key := marketdata.DateKey(time.Unix(div.Date+offset, 0))
		chart.Dividends[key] += div.Amount
	}

	return chart, nil
}

// QuerySymbolByDateRange fetches daily price data and dividend events for a
// symbol within a date range. Both bounds are inclusive calendar days; a zero
// end date means "up to now".
//
// Parameters:
//   - ctx: Context for cancellation
//   - symbol: Stock ticker symbol (e.g., "SPY", "AAPL")
//   - startDate: Beginning of date range (inclusive)
//   - endDate: End of date range (inclusive)
//
// Returns:
//   - Response: Raw API response containing price data for the range
//   - error: ErrSymbolNotFound for unknown symbols, or the last transport error
func (c *FinanceClient) QuerySymbolByDateRange(ctx context.Context, symbol string, startDate, endDate time.Time) (Response, error) {
	period2 := time.Now().UTC()
	if !endDate.IsZero() {
		period2 = marketdata.Day(endDate).AddDate(0, 0, 1)
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("events", "div")
	q.Set("period1", strconv.FormatInt(marketdata.Day(startDate).Unix(), 10))
	q.Set("period2", strconv.FormatInt(period2.Unix(), 10))
	endpoint := fmt.Sprintf("%s/%s?%s", c.chartURL, url.PathEscape(symbol), q.Encode())

	var response Response
	if err := c.getJSON(ctx, endpoint, &response); err != nil {
		return Response{}, err
	}
	if response.Chart.Error != nil {
		if response.Chart.Error.Code == "Not Found" {
			return Response{}, fmt.Errorf("%w: %s", apperrors.ErrSymbolNotFound, symbol)
		}
		return Response{}, fmt.Errorf("yahoo error: %s: %s", response.Chart.Error.Code, response.Chart.Error.Description)
	}
	if len(response.Chart.Result) == 0 {
		return Response{}, fmt.Errorf("%w: no results returned for symbol %s", apperrors.ErrDataUnavailable, symbol)
	}
	return response, nil
}

// Search returns ticker suggestions for a free-text query, limited to limit results.
func (c *FinanceClient) Search(ctx context.Context, query string, limit int) ([]SymbolMatch, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("quotesCount", strconv.Itoa(limit))
	q.Set("newsCount", "0")

	var response SearchResponse
	if err := c.getJSON(ctx, c.searchURL+"?"+q.Encode(), &response); err != nil {
		return nil, err
	}

	matches := make([]SymbolMatch, 0, len(response.Quotes))
	for _, quote := range response.Quotes {
		if quote.Symbol == "" {
			continue
		}
		name := quote.LongName
		if name == "" {
			name = quote.ShortName
		}
		exchange := quote.ExchDisp
		if exchange == "" {
			exchange = quote.Exchange
		}
		matches = append(matches, SymbolMatch{
			Symbol:   quote.Symbol,
			Name:     name,
			Type:     quote.QuoteType,
			Exchange: exchange,
		})
	}
	return matches, nil
}

// getJSON executes a GET request against Yahoo and decodes the JSON body into out.
//
// The method sets required headers:
//   - User-Agent: Mimics a browser to avoid API blocking
//   - Accept: Requests JSON response format
//
// A 404 is decoded like a success because Yahoo reports unknown symbols in the body.
func (c *FinanceClient) getJSON(ctx context.Context, endpoint string, out any) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.backoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}

		switch {
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("yahoo returned status %d", resp.StatusCode))
		case resp.StatusCode >= 400 && resp.StatusCode != http.StatusNotFound:
			return fmt.Errorf("yahoo returned status %d", resp.StatusCode)
		}

		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode yahoo response: %w", err)
		}
		return nil
	})
}

// IsNotFound reports whether err means the symbol does not exist upstream.
func IsNotFound(err error) bool {
	return errors.Is(err, apperrors.ErrSymbolNotFound)
}
