// Package logout clears a session's credentials
package logout

import (
	"net/http"

	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/common"
	"github.com/musicrelay/spotify-playlist-proxy/internal/session"
)

// Handler destroys the session's credential record and cookie.
type Handler struct {
	store session.Store
}

// Config contains handler configuration options
type Config struct {
	Store session.Store
}

// New creates a new logout handler
func New(cfg Config) *Handler {
	return &Handler{
		store: cfg.Store,
	}
}

// ServeHTTP handles logout requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if sessionID, ok := common.SessionID(r); ok {
		if err := h.store.Clear(r.Context(), sessionID); err != nil {
			common.WriteError(w, http.StatusInternalServerError, "Failed to clear session")
			return
		}
	}

	common.ExpireSession(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}
