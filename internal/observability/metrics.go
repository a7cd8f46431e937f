// Package observability exposes Prometheus counters for the cache and
// upstream paths. Counters live on the default registry and are served by the
// /metrics endpoint.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts requests served straight from the cache.
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "injuryproxy_cache_hits_total",
		Help: "Number of injury-report requests served from the cache.",
	})

	// CacheMisses counts lookups that found no live entry. Store errors count
	// here too, since they degrade to the same fetch path.
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "injuryproxy_cache_misses_total",
		Help: "Number of cache lookups that fell through to the upstream API.",
	})

	// UpstreamFetches counts upstream API calls by outcome ("success" or "error").
	UpstreamFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "injuryproxy_upstream_fetches_total",
		Help: "Number of upstream API calls, labelled by outcome.",
	}, []string{"outcome"})
)
