package yahoo

import "time"

// Response represents the raw JSON response structure from the Yahoo Finance chart API.
// Closes are pointers because Yahoo reports missing sessions as null.
//
// The structure includes:
//   - Chart.Result[].Meta: Symbol metadata (name, currency, exchange)
//   - Chart.Result[].Timestamp: Unix timestamps for each data point
//   - Chart.Result[].Indicators: Close price array aligned with Timestamp
//   - Chart.Result[].Events: Dividend events when requested with events=div
//   - Chart.Error: Optional error object from Yahoo
type Response struct {
	Chart struct {
		Result []Result  `json:"result"`
		Error  *APIError `json:"error"`
	} `json:"chart"`
}

// Result is one chart result. Yahoo returns a single result per symbol.
type Result struct {
	Meta struct {
		Currency     string `json:"currency"`
		Symbol       string `json:"symbol"`
		ExchangeName string `json:"exchangeName"`
		LongName     string `json:"longName"`
		ShortName    string `json:"shortName"`
		GMTOffset    int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
	Events struct {
		Dividends map[string]DividendEvent `json:"dividends"`
	} `json:"events"`
}

// DividendEvent is a single cash dividend as reported by Yahoo.
type DividendEvent struct {
	Amount float64 `json:"amount"`
	Date   int64   `json:"date"`
}

// APIError is the error object Yahoo embeds in failed chart responses.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// PriceChart is the parsed chart used by the rest of the application.
//
// The chart contains:
//   - Symbol metadata: ticker, name and currency
//   - Dates/Closes: the daily close series, with NaN for missing sessions
//   - Dividends: dividend per share keyed by "2006-01-02"
type PriceChart struct {
	Symbol    string             `json:"symbol"`
	Currency  string             `json:"currency"`
	LongName  string             `json:"longName"`
	Dates     []time.Time        `json:"dates"`
	Closes    []float64          `json:"closes"`
	Dividends map[string]float64 `json:"dividends"`
}

// SearchResponse is the raw response of the Yahoo symbol search endpoint.
type SearchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		QuoteType string `json:"quoteType"`
		Exchange  string `json:"exchange"`
		ExchDisp  string `json:"exchDisp"`
	} `json:"quotes"`
}

// SymbolMatch is one ticker autocomplete suggestion.
type SymbolMatch struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Exchange string `json:"exchange"`
}
