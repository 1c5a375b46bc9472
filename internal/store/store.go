// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/adelyanov/vigil/internal/domain"
)

// Repository defines the interface for persisting watch-list entries.
type Repository interface {
	// UpsertWatch creates a watch for (chatID, target). Re-adding an
	// existing watch is a no-op that keeps the recorded probe state.
	UpsertWatch(ctx context.Context, watch *domain.Watch) error

	// DeleteWatch removes a watch. Returns false if no such watch existed.
	DeleteWatch(ctx context.Context, chatID int64, target string) (bool, error)

	// ListByChat retrieves every watch owned by a chat, oldest first.
	ListByChat(ctx context.Context, chatID int64) ([]*domain.Watch, error)

	// ListAll retrieves every watch across all chats, oldest check first,
	// so the watcher re-probes the stalest entries before fresh ones.
	ListAll(ctx context.Context) ([]*domain.Watch, error)

	// UpdateResult records the outcome of a probe for a watch.
	UpdateResult(ctx context.Context, chatID int64, target string, category domain.Category, checkedAt time.Time) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
