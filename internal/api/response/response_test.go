package response_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ndewijer/DCA-Backtester-Backend/internal/api/response"
)

func TestRespondError(t *testing.T) {
	t.Run("writes message and details", func(t *testing.T) {
		w := httptest.NewRecorder()

		response.RespondError(w, http.StatusBadRequest, "validation failed", map[string]string{"ticker": "ticker is required"})

		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", w.Code)
		}

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if body["error"] != "validation failed" {
			t.Errorf("Expected error message, got %v", body["error"])
		}
		details, ok := body["details"].(map[string]any)
		if !ok || details["ticker"] != "ticker is required" {
			t.Errorf("Expected field details, got %v", body["details"])
		}
	})

	t.Run("omits empty details", func(t *testing.T) {
		w := httptest.NewRecorder()

		response.RespondError(w, http.StatusNotFound, "no data found", "")

		var body map[string]any
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode body: %v", err)
		}
		if _, ok := body["details"]; ok {
			t.Errorf("Expected details to be omitted, got %v", body["details"])
		}
	})
}
