package logging

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// HTTPErrorResponse represents a standard JSON error response
type HTTPErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSONError writes a JSON error response and logs it
func WriteJSONError(w http.ResponseWriter, logger *slog.Logger, message string, statusCode int) {
	logger.Error("HTTP error response", "status_code", statusCode, "message", message)
	WriteJSON(w, logger, statusCode, HTTPErrorResponse{Error: message})
}

// WriteJSON writes data as a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, logger *slog.Logger, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil && logger != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}
