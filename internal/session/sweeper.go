package session

import (
	"context"
	"log/slog"
	"time"
)

const sweepInterval = 5 * time.Minute

// StartSweeper runs a background goroutine that periodically drops sessions
// idle longer than ttl. It stops when ctx is cancelled.
func StartSweeper(ctx context.Context, store *Store, ttl time.Duration) {
	ticker := time.NewTicker(sweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session sweeper started", "interval", sweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				if dropped := store.Sweep(ttl); dropped > 0 {
					slog.Info("Session sweeper dropped idle sessions", "count", dropped)
				}
			case <-ctx.Done():
				slog.Info("Session sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}
