// Package common provides shared response and session helpers for handlers
package common

import (
	"encoding/json"
	"net/http"
	"strings"
)

// ErrorResponse is the JSON error envelope every failing endpoint returns.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SetJSONHeaders sets required headers for JSON responses
func SetJSONHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
}

// WriteError sends a standardized error response with the given status
func WriteError(w http.ResponseWriter, status int, message string) {
	SetJSONHeaders(w)

	response := ErrorResponse{
		Error: strings.TrimSpace(message),
	}

	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		WriteJSONError(w)
		return
	}
}

// WriteJSONError handles JSON encoding failures with a fixed response
func WriteJSONError(w http.ResponseWriter) {
	SetJSONHeaders(w)
	w.WriteHeader(http.StatusInternalServerError)

	// Encoded manually since JSON encoding already failed once
	if _, err := w.Write([]byte(`{"error":"Failed to encode response"}`)); err != nil {
		return
	}
}
