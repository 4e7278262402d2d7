package chatkittest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
)

const errorDocsBase = "https://docs.pusher.com/errors/"

// errorResponse is the error document every Chatkit service answers with.
type errorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorURI         string `json:"error_uri"`
}

func readJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeError(w http.ResponseWriter, status int, errorType, description string) {
	writeJSON(w, status, errorResponse{
		Error:            errorType,
		ErrorDescription: description,
		ErrorURI:         errorDocsBase + errorType,
	})
}

func writeBadRequest(w http.ResponseWriter, description string) {
	writeError(w, http.StatusBadRequest, "services/chatkit/bad_request", description)
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	writeError(w, http.StatusUnauthorized, "services/chatkit/unauthorized", description)
}

func writeRateLimitError(w http.ResponseWriter, retryAfter int) {
	if retryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	}
	writeError(w, http.StatusTooManyRequests, "services/chatkit/too_many_requests", "Too many requests. Please try again later.")
}

// writeStoreError maps store sentinels onto Chatkit error documents.
func writeStoreError(w http.ResponseWriter, err error) {
	var se *storeError
	if errors.As(err, &se) {
		writeError(w, se.status, se.errorType, se.description)
		return
	}
	writeError(w, http.StatusInternalServerError, "services/chatkit/internal_error", err.Error())
}
