package handlers

import (
	"errors"
	"net/http"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/request"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/response"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/apperrors"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/service"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/validation"
)

// SimulationHandler handles backtest HTTP requests.
type SimulationHandler struct {
	simulationService *service.SimulationService
}

// NewSimulationHandler creates a new SimulationHandler.
func NewSimulationHandler(simulationService *service.SimulationService) *SimulationHandler {
	return &SimulationHandler{
		simulationService: simulationService,
	}
}

// Calculate handles POST requests that run a DCA backtest.
// With benchmark_ticker set, the run is restricted to the date range both
// tickers share and the response carries the benchmark run. A margin ratio
// above 1 adds a no-margin comparison run.
//
// Endpoint: POST /api/simulation/calculate
// Request Body: SimulationRequest
// Response: 200 OK with SimulationResult
// Error: 400 Bad Request if the body is malformed or validation fails
// Error: 404 Not Found if no data exists for the ticker, range or benchmark overlap
// Error: 502 Bad Gateway if the market data provider fails
// Error: 500 Internal Server Error for anything else
func (h *SimulationHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	req, err := parseJSON[request.SimulationRequest](r)
	if err != nil {
		response.RespondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	// Run validates the request and reports ErrInvalidParameters with field errors
	result, err := h.simulationService.Run(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrInvalidParameters):
			respondValidationError(w, err)
		case errors.Is(err, apperrors.ErrNoCommonDateRange):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrNoCommonDateRange.Error(), err.Error())
		case errors.Is(err, apperrors.ErrDataUnavailable), errors.Is(err, apperrors.ErrSymbolNotFound):
			response.RespondError(w, http.StatusNotFound, apperrors.ErrDataUnavailable.Error(), err.Error())
		case errors.Is(err, apperrors.ErrFailedToRetrievePrices), errors.Is(err, apperrors.ErrFailedToRetrieveDividends):
			response.RespondError(w, http.StatusBadGateway, "failed to retrieve market data", err.Error())
		default:
			response.RespondError(w, http.StatusInternalServerError, "simulation failed", err.Error())
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}

func respondValidationError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
		return
	}
	response.RespondError(w, http.StatusBadRequest, "validation failed", err.Error())
}
