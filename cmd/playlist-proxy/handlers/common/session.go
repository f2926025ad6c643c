package common

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
)

// SessionCookie names the cookie carrying the session identifier.
const SessionCookie = "playlist_proxy_session"

// SessionID returns the request's session identifier, if any.
func SessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// IssueSession mints a new session identifier and sets its cookie on the
// response. The identifier is 32 bytes of randomness, URL-safe base64
// encoded.
func IssueSession(w http.ResponseWriter) (string, error) {
	idBytes := make([]byte, 32)
	if _, err := rand.Read(idBytes); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	id := base64.URLEncoding.EncodeToString(idBytes)

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id, nil
}

// ExpireSession removes the session cookie from the client.
func ExpireSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
