package api

import (
	"encoding/json"
	"net/http"

	"github.com/accesslog-scanner/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	_ = json.NewEncoder(w).Encode(response) // nolint:errcheck // response already committed
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data) // nolint:errcheck // response already committed
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// Common error codes
const (
	ErrCodeInvalidInput  = "INVALID_INPUT"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
	ErrCodeRateLimited   = "RATE_LIMITED"
)
