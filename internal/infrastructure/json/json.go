// Package json writes JSON responses for the auth server.
package json

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// ErrorResponse follows the OAuth 2 error body, which is what token
// endpoint clients expect.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

func Write(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, status int, errorType, description string) {
	Write(w, status, ErrorResponse{Error: errorType, ErrorDescription: description})
}

func WriteBadRequestError(w http.ResponseWriter, description string) {
	WriteError(w, http.StatusBadRequest, "invalid_request", description)
}

func WriteInternalError(w http.ResponseWriter) {
	WriteError(w, http.StatusInternalServerError, "server_error", "An unexpected error occurred")
}

func WriteRateLimitError(w http.ResponseWriter, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	WriteError(w, http.StatusTooManyRequests, "slow_down", "Too many requests. Please try again later.")
}
