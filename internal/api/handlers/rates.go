package handlers

import (
	"net/http"
	"time"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/response"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/marketdata"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
)

// RateHandler handles reference rate HTTP requests.
type RateHandler struct {
	rateService *service.RateService
}

// NewRateHandler creates a new RateHandler.
func NewRateHandler(rateService *service.RateService) *RateHandler {
	return &RateHandler{
		rateService: rateService,
	}
}

// Rate handles GET requests for the reference rate in effect on a date.
// Without a date the current day is used.
//
// Endpoint: GET /api/rates?date=YYYY-MM-DD
// Response: 200 OK with RateLookup
// Error: 400 Bad Request if the date is malformed
func (h *RateHandler) Rate(w http.ResponseWriter, r *http.Request) {
	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := marketdata.ParseDate(raw)
		if err != nil {
			response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidDate.Error(), "date must be YYYY-MM-DD")
			return
		}
		date = d
	}

	response.RespondJSON(w, http.StatusOK, h.rateService.RateFor(r.Context(), date))
}
