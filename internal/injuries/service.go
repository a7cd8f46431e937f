// Package injuries coordinates the cache-aside read path for the injury
// report: check the store first, fall back to one upstream fetch on a miss,
// and write every successful fetch back with a fixed TTL.
package injuries

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"injuryproxy/internal/cache"
	"injuryproxy/internal/observability"
)

// ServiceConfig holds the cache key and TTL used for every read and write.
type ServiceConfig struct {
	Key string
	TTL time.Duration
}

// Service serves the injury payload from the cache, fetching from upstream on
// a miss. Concurrent misses are coalesced into a single upstream call.
type Service struct {
	store   cache.Store
	fetcher *Fetcher
	key     string
	ttl     time.Duration

	// group collapses concurrent request-miss fetches. The background
	// refresher bypasses it: a scheduled refresh always makes its own call.
	group singleflight.Group
}

// NewService creates a Service over the given store and fetcher.
func NewService(store cache.Store, fetcher *Fetcher, cfg ServiceConfig) *Service {
	return &Service{
		store:   store,
		fetcher: fetcher,
		key:     cfg.Key,
		ttl:     cfg.TTL,
	}
}

// Get returns the current injury payload. A live cache entry is returned
// as-is; a miss (or a store error, which degrades to a miss) triggers an
// upstream fetch whose result is both returned and written back to the store.
func (s *Service) Get(ctx context.Context) ([]byte, error) {
	payload, err := s.store.Get(ctx, s.key)
	if err != nil {
		slog.Warn("cache lookup failed, falling through to upstream", "key", s.key, "error", err)
	}
	if payload != nil {
		observability.CacheHits.Inc()
		return payload, nil
	}
	observability.CacheMisses.Inc()

	v, err, _ := s.group.Do(s.key, func() (interface{}, error) {
		return s.refresh(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Refresh fetches from upstream unconditionally, ignoring cache state, and
// stores the result on success. Used by the background refresher.
func (s *Service) Refresh(ctx context.Context) error {
	_, err := s.refresh(ctx)
	return err
}

// refresh performs one fetch and writes the payload through to the store.
// A failed write is logged but does not discard the fetched payload; a failed
// fetch leaves any existing entry untouched.
func (s *Service) refresh(ctx context.Context) ([]byte, error) {
	payload, err := s.fetcher.Fetch(ctx)
	if err != nil {
		observability.UpstreamFetches.WithLabelValues("error").Inc()
		return nil, err
	}
	observability.UpstreamFetches.WithLabelValues("success").Inc()

	if err := s.store.Set(ctx, s.key, payload, s.ttl); err != nil {
		slog.Warn("cache write failed after fetch", "key", s.key, "error", err)
	}
	return payload, nil
}
