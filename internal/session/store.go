package session

import (
	"context"
	"errors"
)

// ErrIncompleteCredentials indicates an attempt to save a partial record.
// Saves are atomic full overwrites; callers must always construct a
// complete credential set.
var ErrIncompleteCredentials = errors.New("incomplete credentials")

// Store defines per-session credential storage. One record per session,
// no cross-session visibility.
type Store interface {
	// Load retrieves the credentials for a session.
	// Returns nil with no error when the session holds no credentials.
	Load(ctx context.Context, sessionID string) (*Credentials, error)

	// Save overwrites the credentials for a session in full and renews
	// the session's idle lifetime.
	Save(ctx context.Context, sessionID string, creds *Credentials) error

	// Clear removes the credentials for a session.
	Clear(ctx context.Context, sessionID string) error

	// CheckHealth verifies the storage backend is healthy.
	CheckHealth(ctx context.Context) error
}
