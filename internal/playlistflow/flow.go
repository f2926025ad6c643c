// Package playlistflow orchestrates the guarded playlist fetch: validate
// credentials, refresh when expired, serve from cache, otherwise call the
// provider and fill the cache.
package playlistflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/musicrelay/spotify-playlist-proxy/internal/cache"
	"github.com/musicrelay/spotify-playlist-proxy/internal/provider"
	"github.com/musicrelay/spotify-playlist-proxy/internal/session"
)

// Flow runs the fetch pipeline for one request at a time per caller.
// Requests for different sessions proceed in parallel; the
// check-expiry-then-refresh step is serialized per session so concurrent
// requests cannot race a refresh against a stale token.
type Flow struct {
	store    session.Store
	provider provider.Provider
	cache    *cache.Cache
	now      func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// Option configures the flow.
type Option func(*Flow)

// WithClock replaces the flow's time source, used by tests.
func WithClock(now func() time.Time) Option {
	return func(f *Flow) {
		f.now = now
	}
}

// New creates a fetch flow over the given store, provider and cache.
func New(store session.Store, p provider.Provider, c *cache.Cache, opts ...Option) *Flow {
	f := &Flow{
		store:    store,
		provider: p,
		cache:    c,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the session user's playlists, refreshing credentials and
// consulting the response cache as needed. Each call runs the pipeline
// once, start to finish.
func (f *Flow) Fetch(ctx context.Context, sessionID string) (json.RawMessage, error) {
	creds, _, err := f.freshCredentials(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The cache key includes the access token, so a refresh naturally
	// strands entries cached under the old token.
	key := cacheKey(creds.AccessToken)
	if payload, ok := f.cache.Get(key); ok {
		return payload, nil
	}

	payload, err := f.provider.FetchPlaylists(ctx, creds.AccessToken)
	if err != nil {
		return nil, err
	}

	f.cache.Set(key, payload)
	return payload, nil
}

// EnsureFresh refreshes the session's credentials when expired. It reports
// whether this call performed a refresh.
func (f *Flow) EnsureFresh(ctx context.Context, sessionID string) (bool, error) {
	_, refreshed, err := f.freshCredentials(ctx, sessionID)
	return refreshed, err
}

// CheckHealth verifies the flow's storage backend is healthy.
func (f *Flow) CheckHealth(ctx context.Context) error {
	return f.store.CheckHealth(ctx)
}

// freshCredentials loads the session credentials and refreshes them when
// expired, persisting the new record before returning it.
func (f *Flow) freshCredentials(ctx context.Context, sessionID string) (*session.Credentials, bool, error) {
	creds, err := f.load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !creds.Expired(f.now()) {
		return creds, false, nil
	}

	lock := f.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	// Re-check under the lock; a concurrent request may have already
	// refreshed while this one waited.
	creds, err = f.load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !creds.Expired(f.now()) {
		return creds, false, nil
	}

	token, err := f.provider.Refresh(ctx, creds.RefreshToken)
	if err != nil {
		if errors.Is(err, provider.ErrInvalidRefreshToken) {
			// A rejected refresh token forces re-authentication.
			if cerr := f.store.Clear(ctx, sessionID); cerr != nil {
				return nil, false, fmt.Errorf("clearing credentials after rejected refresh: %w", cerr)
			}
		}
		return nil, false, err
	}

	fresh := &session.Credentials{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.ExpiresAt,
	}
	if err := f.store.Save(ctx, sessionID, fresh); err != nil {
		return nil, false, fmt.Errorf("saving refreshed credentials: %w", err)
	}

	return fresh, true, nil
}

// load fetches the session record, mapping absent or partial credentials
// to ErrNotAuthenticated.
func (f *Flow) load(ctx context.Context, sessionID string) (*session.Credentials, error) {
	creds, err := f.store.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	if creds == nil || !creds.Complete() {
		return nil, ErrNotAuthenticated
	}
	return creds, nil
}

// sessionLock returns the per-session refresh mutex. Locks live for the
// process lifetime; one mutex per session seen.
func (f *Flow) sessionLock(sessionID string) *sync.Mutex {
	f.mu.Lock()
	defer f.mu.Unlock()

	lock, ok := f.locks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		f.locks[sessionID] = lock
	}
	return lock
}

func cacheKey(accessToken string) string {
	return "spotify:user:" + accessToken + ":playlists"
}
