// Package login redirects the user to the provider's authorization page
package login

import "net/http"

// AuthURLBuilder supplies the provider authorization URL.
type AuthURLBuilder interface {
	AuthCodeURL() string
}

// Handler serves the login redirect.
type Handler struct {
	auth AuthURLBuilder
}

// Config contains handler configuration options
type Config struct {
	Auth AuthURLBuilder
}

// New creates a new login handler
func New(cfg Config) *Handler {
	return &Handler{
		auth: cfg.Auth,
	}
}

// ServeHTTP redirects to the provider authorization URL with the client
// identity, scope and redirect URI already encoded.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.auth.AuthCodeURL(), http.StatusFound)
}
