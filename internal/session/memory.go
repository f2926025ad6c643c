package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	creds    Credentials
	deadline time.Time
}

// MemoryStore implements the Store interface in process memory. It mirrors
// the Redis store's semantics, including the idle lifetime, and is intended
// for tests and single-node development.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryStore creates an in-memory store with the given idle session
// lifetime.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

// SetClock replaces the store's time source for tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CheckHealth always succeeds for the in-memory store.
func (s *MemoryStore) CheckHealth(ctx context.Context) error {
	return nil
}

// Load retrieves session credentials, treating idle-expired entries as absent.
func (s *MemoryStore) Load(ctx context.Context, sessionID string) (*Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[sessionID]
	if !ok || !s.now().Before(entry.deadline) {
		return nil, nil
	}

	creds := entry.creds
	return &creds, nil
}

// Save overwrites session credentials and renews the idle lifetime.
func (s *MemoryStore) Save(ctx context.Context, sessionID string, creds *Credentials) error {
	if creds == nil || !creds.Complete() {
		return ErrIncompleteCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[sessionID] = memoryEntry{
		creds:    *creds,
		deadline: s.now().Add(s.ttl),
	}
	return nil
}

// Clear removes session credentials.
func (s *MemoryStore) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, sessionID)
	return nil
}
