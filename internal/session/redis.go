// Package session implements credential storage with Redis
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const sessionPrefix = "session:"

// RedisStore implements the Store interface using Redis. Each session's
// credentials live under a single key whose TTL is the idle lifetime,
// renewed on every Save.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed store with the given idle
// session lifetime.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// CheckHealth verifies Redis connectivity
func (s *RedisStore) CheckHealth(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis health check failed: %w", err)
	}
	return nil
}

// Load retrieves session credentials
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*Credentials, error) {
	data, err := s.client.Get(ctx, sessionPrefix+sessionID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting session credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("unmarshaling session credentials: %w", err)
	}

	return &creds, nil
}

// Save stores session credentials with the idle lifetime as TTL
func (s *RedisStore) Save(ctx context.Context, sessionID string, creds *Credentials) error {
	if creds == nil || !creds.Complete() {
		return ErrIncompleteCredentials
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshaling session credentials: %w", err)
	}

	if err := s.client.Set(ctx, sessionPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving session credentials: %w", err)
	}

	return nil
}

// Clear removes session credentials
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clearing session credentials: %w", err)
	}
	return nil
}
