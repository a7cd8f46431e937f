// Package cache provides TTL-bound key-value storage for the injury payload.
// The only production implementation is Redis; the interface exists so the
// service and handler layers can be tested against a fake store.
package cache

import (
	"context"
	"time"
)

// Store defines the interface for payload storage.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get retrieves the payload stored under key.
	// Returns nil, nil if the key is absent or its TTL has elapsed.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores payload under key, replacing any existing value.
	// The entry expires ttl from now.
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error

	// Close releases any resources held by the store.
	Close() error
}
