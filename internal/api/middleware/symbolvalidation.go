// Package middleware provides HTTP middleware for request validation and processing.
package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/response"
	"github.com/ndewijer/DCA-Backtester-Backend/internal/validation"
)

// ValidateSymbolMiddleware validates that the symbol URL parameter is present and is a
// plausible ticker symbol. Returns 400 Bad Request if the symbol is missing or invalid.
// This middleware should be applied to routes that take a ticker in the URL path.
//
// Example usage in router:
//
//	r.Route("/{symbol}", func(r chi.Router) {
//	    r.Use(middleware.ValidateSymbolMiddleware)
//	    r.Get("/history", handler.History)
//	})
func ValidateSymbolMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")

		if symbol == "" {
			response.RespondError(w, http.StatusBadRequest, "ticker symbol is required", "")
			return
		}

		if err := validation.ValidateSymbol(symbol); err != nil {
			response.RespondError(w, http.StatusBadRequest, "invalid ticker symbol", err.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
