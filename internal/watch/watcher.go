// Package watch re-probes watched entities in the background and notifies
// the owning chat when a classification changes.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adelyanov/vigil/internal/domain"
	"github.com/adelyanov/vigil/internal/store"
)

// Notifier delivers a status-change notice to a chat.
type Notifier interface {
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)
}

// Resolver classifies the reachability of a canonical identifier.
type Resolver interface {
	Resolve(ctx context.Context, canonical string) domain.StatusOutcome
}

// ActivitySink receives watcher events for the operator feed.
type ActivitySink interface {
	Publish(kind, detail string)
}

// StartWatcher runs a background goroutine that periodically re-probes every
// watch-list entry. It stops when ctx is cancelled.
func StartWatcher(ctx context.Context, repo store.Repository, resolver Resolver, notifier Notifier, activity ActivitySink, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Watch worker started", "interval", interval)

		for {
			select {
			case <-ticker.C:
				sweep(ctx, repo, resolver, notifier, activity)
			case <-ctx.Done():
				slog.Info("Watch worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweep(ctx context.Context, repo store.Repository, resolver Resolver, notifier Notifier, activity ActivitySink) {
	watches, err := repo.ListAll(ctx)
	if err != nil {
		slog.Error("Watch worker failed to list watches", "error", err)
		return
	}
	if len(watches) == 0 {
		return
	}

	slog.Debug("Watch worker sweeping", "count", len(watches))

	for _, w := range watches {
		if ctx.Err() != nil {
			return
		}
		checkOne(ctx, repo, resolver, notifier, activity, w)
	}
}

func checkOne(ctx context.Context, repo store.Repository, resolver Resolver, notifier Notifier, activity ActivitySink, w *domain.Watch) {
	outcome := resolver.Resolve(ctx, w.Target)
	now := time.Now()

	// Transport faults say nothing about the entity; keep the recorded
	// category and try again next sweep.
	if outcome.Category == domain.CategoryTransientError {
		slog.Debug("Watch probe transient failure", "target", w.Target, "detail", outcome.Detail)
		return
	}

	firstProbe := w.CheckedAt.Unix() <= 0
	changed := outcome.Category != w.LastCategory

	if err := repo.UpdateResult(ctx, w.ChatID, w.Target, outcome.Category, now); err != nil {
		slog.Warn("Watch worker failed to record result", "error", err, "target", w.Target)
	}

	if !changed || firstProbe {
		// The first probe only establishes the baseline.
		return
	}

	text := fmt.Sprintf("Status change for %s: %s → %s\n%s",
		w.Target, w.LastCategory, outcome.Category, outcome.Detail)
	if _, err := notifier.SendMessage(ctx, w.ChatID, text); err != nil {
		slog.Warn("Watch worker failed to notify chat", "error", err, "chat_id", w.ChatID, "target", w.Target)
	}
	if activity != nil {
		activity.Publish("watch", fmt.Sprintf("%s changed %s → %s", w.Target, w.LastCategory, outcome.Category))
	}
	slog.Info("Watched entity changed status",
		"target", w.Target,
		"chat_id", w.ChatID,
		"from", w.LastCategory,
		"to", outcome.Category)
}
