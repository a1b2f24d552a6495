package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/response"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/yahoo"
)

// defaultSearchLimit caps the number of autocomplete matches.
const defaultSearchLimit = 10

// TickerSource looks up tickers and their price history.
// *yahoo.Provider satisfies it.
type TickerSource interface {
	Search(ctx context.Context, query string, limit int) ([]yahoo.SymbolMatch, error)
	Chart(ctx context.Context, ticker string, start, end time.Time) (yahoo.PriceChart, error)
}

// TickerHandler handles ticker lookup HTTP requests.
type TickerHandler struct {
	source TickerSource
}

// NewTickerHandler creates a new TickerHandler.
func NewTickerHandler(source TickerSource) *TickerHandler {
	return &TickerHandler{
		source: source,
	}
}

// Search handles GET requests for ticker autocomplete.
// An empty query or an upstream failure yields an empty list so the
// frontend can keep typing without handling errors.
//
// Endpoint: GET /api/ticker/search?q=<text>&limit=<n>
// Response: 200 OK with []SymbolMatch
func (h *TickerHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		response.RespondJSON(w, http.StatusOK, []yahoo.SymbolMatch{})
		return
	}

	limit := defaultSearchLimit
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= 50 {
		limit = l
	}

	matches, err := h.source.Search(r.Context(), query, limit)
	if err != nil {
		log.Warn().Err(err).Str("query", query).Msg("ticker search failed")
		matches = nil
	}
	if matches == nil {
		matches = []yahoo.SymbolMatch{}
	}

	response.RespondJSON(w, http.StatusOK, matches)
}

// History handles GET requests for the daily closes and dividends of a ticker.
// The symbol is validated by middleware. Without start_date the last year is
// returned; without end_date the range runs to today.
//
// Endpoint: GET /api/ticker/{symbol}/history?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
// Response: 200 OK with PriceChart
// Error: 400 Bad Request if a date is malformed or the range is inverted
// Error: 404 Not Found if the symbol is unknown or has no data in the range
// Error: 502 Bad Gateway if the provider fails
func (h *TickerHandler) History(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(chi.URLParam(r, "symbol"))

	end := time.Time{}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		d, err := marketdata.ParseDate(raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidDate.Error(), "end_date must be YYYY-MM-DD")
			return
		}
		end = d
	}

	start := marketdata.Day(time.Now()).AddDate(-1, 0, 0)
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		d, err := marketdata.ParseDate(raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidDate.Error(), "start_date must be YYYY-MM-DD")
			return
		}
		start = d
	}

	if !end.IsZero() && end.Before(start) {
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidDateRange.Error(), "end_date must not be before start_date")
		return
	}

	chart, err := h.source.Chart(r.Context(), symbol, start, end)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrSymbolNotFound), errors.Is(err, apperrors.ErrDataUnavailable):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrDataUnavailable.Error(), err.Error())
		default:
			response.RespondError(w, http.StatusBadGateway, apperrors.ErrFailedToRetrievePrices.Error(), err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, chart)
}
