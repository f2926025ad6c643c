// Package provider integrates music-streaming OAuth2 providers behind a
// small capability interface so the fetch pipeline stays provider-agnostic.
package provider

import (
	"context"
	"encoding/json"
	"errors"
)

// Common errors returned by providers
var (
	// ErrMissingField indicates a required field was absent from a
	// provider response; fatal for that call, never retried.
	ErrMissingField = errors.New("required field missing in provider response")

	// ErrProviderUnavailable indicates the transient failure set was
	// exhausted after retries.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrProviderRejected indicates a definitive rejection, such as a
	// credential the provider no longer accepts.
	ErrProviderRejected = errors.New("provider rejected request")

	// ErrInvalidRefreshToken indicates a refresh call was rejected;
	// the caller must clear stored credentials and re-authenticate.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")

	// ErrMalformedResponse indicates a provider payload that could not
	// be parsed as the expected structure.
	ErrMalformedResponse = errors.New("malformed provider response")
)

// Token is the result of a code exchange or refresh.
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64 // epoch seconds
}

// Provider defines the capabilities of an OAuth2 music provider.
type Provider interface {
	// AuthCodeURL returns the provider authorization URL the user is
	// redirected to at login.
	AuthCodeURL() string

	// ExchangeCode exchanges an authorization code for tokens.
	ExchangeCode(ctx context.Context, code string) (*Token, error)

	// Refresh obtains a new access token using a refresh token. When the
	// provider omits a new refresh token the prior one is retained.
	Refresh(ctx context.Context, refreshToken string) (*Token, error)

	// FetchPlaylists retrieves the authenticated user's playlists as the
	// provider returned them.
	FetchPlaylists(ctx context.Context, accessToken string) (json.RawMessage, error)
}
