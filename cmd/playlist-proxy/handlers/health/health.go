// Package health processes health check requests
package health

import (
	"context"
	"encoding/json"
	"net/http"
)

// Checker verifies a component's backing services.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// Handler processes health check requests
type Handler struct {
	checker Checker
	version string
}

// Response represents the health check response.
type Response struct {
	Status  string         `json:"status"`
	Version string         `json:"version,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// New creates a new health check handler
func New(checker Checker) *Handler {
	return &Handler{
		checker: checker,
		version: "unknown",
	}
}

// WithVersion sets the version for health check responses
func (h *Handler) WithVersion(version string) *Handler {
	h.version = version
	return h
}

// ServeHTTP handles health check requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	response := Response{
		Status:  "healthy",
		Version: h.version,
		Details: make(map[string]any),
	}

	if err := h.checker.CheckHealth(r.Context()); err != nil {
		response.Status = "unhealthy"
		response.Details["session_store"] = map[string]any{
			"status":  "unhealthy",
			"message": err.Error(),
		}
	} else {
		response.Details["session_store"] = map[string]any{
			"status": "healthy",
		}
	}

	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, `{"error":"Error encoding response"}`, http.StatusInternalServerError)
		return
	}
}
