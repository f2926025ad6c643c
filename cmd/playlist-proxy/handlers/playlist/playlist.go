// Package playlist serves the user's playlists through the fetch pipeline
package playlist

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/common"
	"github.com/musicrelay/spotify-playlist-proxy/internal/playlistflow"
	"github.com/musicrelay/spotify-playlist-proxy/internal/provider"
)

// Fetcher runs the orchestrated playlist fetch for a session.
type Fetcher interface {
	Fetch(ctx context.Context, sessionID string) (json.RawMessage, error)
}

// Handler serves the playlist resource endpoint.
type Handler struct {
	flow Fetcher
}

// Config contains handler configuration options
type Config struct {
	Flow Fetcher
}

// New creates a new playlist handler
func New(cfg Config) *Handler {
	return &Handler{
		flow: cfg.Flow,
	}
}

// ServeHTTP handles playlist requests. Authentication-state failures
// resolve by redirecting the user; everything else maps to a structured
// error response.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := common.SessionID(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	payload, err := h.flow.Fetch(r.Context(), sessionID)
	if err != nil {
		switch {
		case errors.Is(err, playlistflow.ErrNotAuthenticated):
			http.Redirect(w, r, "/login", http.StatusFound)
		case errors.Is(err, provider.ErrInvalidRefreshToken):
			common.ExpireSession(w)
			http.Redirect(w, r, "/login", http.StatusFound)
		case errors.Is(err, provider.ErrProviderRejected):
			common.WriteError(w, http.StatusUnauthorized, "Provider rejected the access token")
		case errors.Is(err, provider.ErrProviderUnavailable):
			common.WriteError(w, http.StatusBadGateway, "Provider unavailable")
		case errors.Is(err, provider.ErrMalformedResponse):
			common.WriteError(w, http.StatusInternalServerError, "Malformed provider response")
		default:
			common.WriteError(w, http.StatusInternalServerError, "Failed to fetch playlists")
		}
		return
	}

	common.SetJSONHeaders(w)
	if _, err := w.Write(payload); err != nil {
		return
	}
}
