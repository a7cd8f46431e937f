// Package main is the entry point for the injury-report caching proxy.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"injuryproxy/config"
	"injuryproxy/internal/cache"
	"injuryproxy/internal/injuries"
	"injuryproxy/internal/server"
)

func main() {
	// Load configuration first so LOG_FORMAT applies to every log line.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	setupLogging(cfg.Server.LogFormat)

	store, err := cache.NewRedisStore(cfg.Cache.RedisURL)
	if err != nil {
		slog.Error("failed to create cache store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := store.Close(); err != nil {
			slog.Error("cache close error", "error", err)
		}
	}()

	fetcher := injuries.NewFetcher(injuries.FetcherConfig{
		URL:     cfg.Upstream.URL,
		APIKey:  cfg.Upstream.APIKey,
		APIHost: cfg.Upstream.APIHost,
		Timeout: cfg.Upstream.Timeout,
	})

	svc := injuries.NewService(store, fetcher, injuries.ServiceConfig{
		Key: cfg.Cache.Key,
		TTL: cfg.Cache.TTL,
	})

	stopRefresh := svc.StartBackgroundRefresh(cfg.Cache.RefreshInterval)
	defer stopRefresh()

	srv := server.New(svc)

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server",
		"address", addr,
		"cache_key", cfg.Cache.Key,
		"cache_ttl", cfg.Cache.TTL,
		"refresh_interval", cfg.Cache.RefreshInterval,
	)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}

// setupLogging installs the default slog handler: JSON for log collectors,
// tint for terminals.
func setupLogging(format string) {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{TimeFormat: time.Kitchen})
	}
	slog.SetDefault(slog.New(handler))
}
