package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store using Redis.
// Expiration is delegated to Redis key TTLs, so an expired entry is
// indistinguishable from one that was never written.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a Redis-backed store from a connection URL
// (e.g. "rediss://:token@host:6379/0"). An invalid URL is an error; an
// unreachable server is not — the store degrades to cache misses until the
// connection recovers, and the condition is logged.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable at startup, lookups will miss until it recovers", "error", err)
	} else {
		slog.Info("redis cache connected", "addr", opts.Addr)
	}

	return &RedisStore{client: client}, nil
}

// NewRedisStoreFromClient wraps an existing client. Used by tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get retrieves the payload stored under key.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // No entry, not an error
		}
		return nil, fmt.Errorf("failed to get %q from redis: %w", key, err)
	}
	return data, nil
}

// Set stores the payload under key with the given TTL.
func (s *RedisStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %q in redis: %w", key, err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
