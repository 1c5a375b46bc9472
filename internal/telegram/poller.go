package telegram

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

const (
	pollTimeout      = 30 * time.Second
	pollErrorBackoff = 5 * time.Second
)

// StartPoller runs a long-polling loop fetching updates and handing each to
// handle. Used when no public webhook URL is configured. Stops when ctx is
// cancelled.
func StartPoller(ctx context.Context, client *Client, handle UpdateHandler) {
	go func() {
		slog.Info("Update poller started", "timeout", pollTimeout)
		var offset int64

		for {
			if ctx.Err() != nil {
				slog.Info("Update poller shutting down", "reason", ctx.Err())
				return
			}

			updates, err := client.GetUpdates(ctx, offset, pollTimeout)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					continue
				}
				slog.Warn("getUpdates failed, backing off", "error", err, "backoff", pollErrorBackoff)
				select {
				case <-time.After(pollErrorBackoff):
				case <-ctx.Done():
				}
				continue
			}

			for _, u := range updates {
				if u.UpdateID >= offset {
					offset = u.UpdateID + 1
				}
				handle(ctx, u)
			}
		}
	}()
}
