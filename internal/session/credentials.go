// Package session manages per-session OAuth2 credentials.
package session

import "time"

// Credentials holds the token set for one authenticated session.
// The three fields are all-or-nothing: a record missing any of them is
// treated as not authenticated.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"` // epoch seconds
}

// Complete reports whether all credential fields are present.
func (c *Credentials) Complete() bool {
	return c.AccessToken != "" && c.RefreshToken != "" && c.ExpiresAt != 0
}

// Expired reports whether the access token is past due at now.
// A token expiring exactly at now is still valid for that instant.
func (c *Credentials) Expired(now time.Time) bool {
	return Expired(c.ExpiresAt, now)
}

// Expired reports whether a token with the given absolute expiry must no
// longer be used at now.
func Expired(expiresAt int64, now time.Time) bool {
	return now.Unix() > expiresAt
}

// ExpiryFrom computes the absolute expiry instant for a token valid for
// expiresIn seconds from now. No clock drift correction is attempted.
func ExpiryFrom(now time.Time, expiresIn int64) int64 {
	return now.Unix() + expiresIn
}
