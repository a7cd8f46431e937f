// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	// DefaultUpstreamURL is the fixed injury-report endpoint on RapidAPI.
	DefaultUpstreamURL = "https://nfl-api-data.p.rapidapi.com/nfl-injuries"

	// DefaultUpstreamHost is the RapidAPI host header matching DefaultUpstreamURL.
	DefaultUpstreamHost = "nfl-api-data.p.rapidapi.com"

	// DefaultCacheKey is the key the injury payload is stored under.
	DefaultCacheKey = "injuryData"

	// DefaultCacheTTL is how long a cached payload stays valid (12 hours).
	DefaultCacheTTL = 12 * time.Hour

	// DefaultRefreshInterval is how often the background refresher re-fetches
	// the upstream data regardless of cache state.
	DefaultRefreshInterval = 12 * time.Hour
)

// Config holds the application configuration
type Config struct {
	Server   ServerConfig
	Upstream UpstreamConfig
	Cache    CacheConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port      string
	LogFormat string // "json" or "text" (tint)
}

// UpstreamConfig holds the upstream API configuration
type UpstreamConfig struct {
	URL     string
	APIKey  string
	APIHost string
	// Timeout bounds a single upstream call. Zero means no deadline.
	Timeout time.Duration
}

// CacheConfig holds the Redis cache configuration
type CacheConfig struct {
	RedisURL        string
	Key             string
	TTL             time.Duration
	RefreshInterval time.Duration
}

// Load reads configuration from a .env file (if present) and the environment.
// It fails when REDIS_URL is not set: the service refuses to run without its
// cache store rather than silently hitting the paid upstream on every request.
func Load() (*Config, error) {
	// Optional, won't fail if not found
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:      getenvDefault("PORT", "8080"),
			LogFormat: getenvDefault("LOG_FORMAT", "text"),
		},
		Upstream: UpstreamConfig{
			URL:     getenvDefault("UPSTREAM_URL", DefaultUpstreamURL),
			APIKey:  os.Getenv("RAPIDAPI_KEY"),
			APIHost: getenvDefault("RAPIDAPI_HOST", DefaultUpstreamHost),
		},
		Cache: CacheConfig{
			RedisURL: os.Getenv("REDIS_URL"),
			Key:      getenvDefault("CACHE_KEY", DefaultCacheKey),
		},
	}

	if cfg.Cache.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	var err error
	if cfg.Cache.TTL, err = getenvDuration("CACHE_TTL", DefaultCacheTTL); err != nil {
		return nil, err
	}
	if cfg.Cache.RefreshInterval, err = getenvDuration("REFRESH_INTERVAL", DefaultRefreshInterval); err != nil {
		return nil, err
	}
	if cfg.Upstream.Timeout, err = getenvDuration("FETCH_TIMEOUT", 0); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
