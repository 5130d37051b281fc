// Package session provides SessionStore implementations: a redis-backed
// store for production and an in-memory store for tests and development.
// Both enforce a sliding TTL themselves, so no cleanup job exists.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/querypilot/querypilot/core"
)

// DefaultTTL is the idle window after which a conversation is reclaimed.
const DefaultTTL = 30 * time.Minute

const keyPrefix = "conversation:"

// RedisStore persists serialized conversation contexts in redis under
// "conversation:<session id>" keys with a sliding TTL: every read refreshes
// the expiry, every write resets it.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configure the redis session store.
type RedisOptions struct {
	// TTL overrides DefaultTTL.
	TTL time.Duration
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client *redis.Client, optFns ...func(o *RedisOptions)) *RedisStore {
	opts := RedisOptions{TTL: DefaultTTL}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return &RedisStore{client: client, ttl: opts.TTL}
}

// Get loads a conversation context, returning (nil, nil) on a miss. A hit
// refreshes the key's TTL so an active conversation never expires mid-flow.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (*core.ConversationContext, error) {
	key := keyPrefix + sessionID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session get: %w", err)
	}

	var convCtx core.ConversationContext
	if err := json.Unmarshal(data, &convCtx); err != nil {
		return nil, fmt.Errorf("session decode: %w", err)
	}
	// Refresh failures are not fatal; the next Put resets the TTL anyway.
	s.client.Expire(ctx, key, s.ttl)
	return &convCtx, nil
}

// Put serializes the context and writes it with a fresh TTL.
func (s *RedisStore) Put(ctx context.Context, convCtx *core.ConversationContext) error {
	data, err := json.Marshal(convCtx)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+convCtx.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("session put: %w", err)
	}
	return nil
}

// Clear removes the session immediately.
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, keyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}

// Ping checks redis connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ core.SessionStore = (*RedisStore)(nil)
