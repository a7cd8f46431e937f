package injuries

import (
	"context"
	"log/slog"
	"time"
)

// StartBackgroundRefresh starts a goroutine that refreshes the cached payload
// on a fixed interval for the lifetime of the process, independent of incoming
// traffic. One refresh runs immediately so a cold process does not wait a full
// interval for its first payload. Returns a cancel function to stop the loop.
func (s *Service) StartBackgroundRefresh(interval time.Duration) func() {
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		if err := s.Refresh(ctx); err != nil {
			slog.Warn("initial refresh failed", "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					slog.Warn("background refresh failed", "error", err)
				}
			}
		}
	}()

	return cancel
}
