// Package refresh renews an expired access token on demand
package refresh

import (
	"context"
	"errors"
	"net/http"

	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/common"
	"github.com/musicrelay/spotify-playlist-proxy/internal/playlistflow"
	"github.com/musicrelay/spotify-playlist-proxy/internal/provider"
)

// Refresher refreshes a session's credentials when expired.
type Refresher interface {
	EnsureFresh(ctx context.Context, sessionID string) (bool, error)
}

// Handler serves the explicit refresh endpoint: unexpired tokens pass
// through untouched, expired ones are renewed before redirecting back to
// the playlist endpoint.
type Handler struct {
	flow Refresher
}

// Config contains handler configuration options
type Config struct {
	Flow Refresher
}

// New creates a new refresh handler
func New(cfg Config) *Handler {
	return &Handler{
		flow: cfg.Flow,
	}
}

// ServeHTTP handles refresh requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := common.SessionID(r)
	if !ok {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if _, err := h.flow.EnsureFresh(r.Context(), sessionID); err != nil {
		switch {
		case errors.Is(err, playlistflow.ErrNotAuthenticated):
			http.Redirect(w, r, "/login", http.StatusFound)
		case errors.Is(err, provider.ErrInvalidRefreshToken):
			// The store was already cleared; the user must log in again.
			common.ExpireSession(w)
			http.Redirect(w, r, "/login", http.StatusFound)
		case errors.Is(err, provider.ErrProviderUnavailable):
			common.WriteError(w, http.StatusBadGateway, "Authorization server unavailable")
		default:
			common.WriteError(w, http.StatusInternalServerError, "Failed to refresh token")
		}
		return
	}

	http.Redirect(w, r, "/playlist", http.StatusFound)
}
