// Package callback completes the authorization-code flow
package callback

import (
	"context"
	"errors"
	"net/http"

	"github.com/musicrelay/spotify-playlist-proxy/cmd/playlist-proxy/handlers/common"
	"github.com/musicrelay/spotify-playlist-proxy/internal/provider"
	"github.com/musicrelay/spotify-playlist-proxy/internal/session"
)

// Exchanger performs the authorization-code token exchange.
type Exchanger interface {
	ExchangeCode(ctx context.Context, code string) (*provider.Token, error)
}

// Handler processes the provider's redirect back to us: it exchanges the
// code, attaches the credentials to a fresh session and sends the user on
// to the playlist endpoint.
type Handler struct {
	exchanger Exchanger
	store     session.Store
}

// Config contains handler configuration options
type Config struct {
	Exchanger Exchanger
	Store     session.Store
}

// New creates a new callback handler
func New(cfg Config) *Handler {
	return &Handler{
		exchanger: cfg.Exchanger,
		store:     cfg.Store,
	}
}

// ServeHTTP handles the authorization callback
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	// The provider reports denial or misconfiguration via the error
	// query parameter; relay it verbatim.
	if errParam := query.Get("error"); errParam != "" {
		common.WriteError(w, http.StatusBadRequest, errParam)
		return
	}

	code := query.Get("code")
	if code == "" {
		common.WriteError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	token, err := h.exchanger.ExchangeCode(r.Context(), code)
	if err != nil {
		switch {
		case errors.Is(err, provider.ErrProviderUnavailable):
			common.WriteError(w, http.StatusBadGateway, "Authorization server unavailable")
		case errors.Is(err, provider.ErrMissingField), errors.Is(err, provider.ErrMalformedResponse):
			common.WriteError(w, http.StatusInternalServerError, "Unexpected token response")
		default:
			// A reused or forged code is a definitive rejection.
			common.WriteError(w, http.StatusBadRequest, "Code exchange failed")
		}
		return
	}

	sessionID, err := common.IssueSession(w)
	if err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	creds := &session.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}
	if err := h.store.Save(r.Context(), sessionID, creds); err != nil {
		common.WriteError(w, http.StatusInternalServerError, "Failed to store credentials")
		return
	}

	http.Redirect(w, r, "/playlist", http.StatusFound)
}
