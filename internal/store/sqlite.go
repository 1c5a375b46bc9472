package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/adelyanov/vigil/internal/domain"
	"github.com/adelyanov/vigil/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS watches (
		chat_id INTEGER NOT NULL,
		target TEXT NOT NULL,
		last_category TEXT NOT NULL DEFAULT 'unknown',
		checked_at INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (chat_id, target)
	);
	CREATE INDEX IF NOT EXISTS idx_watches_checked ON watches(checked_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// UpsertWatch creates a watch for (chatID, target). An existing watch keeps
// its recorded category and check time: re-adding must not reset the baseline
// the watcher compares against.
func (s *SQLiteStore) UpsertWatch(ctx context.Context, watch *domain.Watch) error {
	query := `
	INSERT INTO watches (chat_id, target, last_category, checked_at, created_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(chat_id, target) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query,
		watch.ChatID, watch.Target, string(watch.LastCategory),
		watch.CheckedAt.Unix(), watch.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert watch: %w", err)
	}
	return nil
}

// DeleteWatch removes a watch. Returns false if no such watch existed.
func (s *SQLiteStore) DeleteWatch(ctx context.Context, chatID int64, target string) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM watches WHERE chat_id = ? AND target = ?`, chatID, target)
	if err != nil {
		return false, fmt.Errorf("delete watch: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}
	return rows > 0, nil
}

// ListByChat retrieves every watch owned by a chat, oldest first.
func (s *SQLiteStore) ListByChat(ctx context.Context, chatID int64) ([]*domain.Watch, error) {
	query := `
		SELECT chat_id, target, last_category, checked_at, created_at
		FROM watches WHERE chat_id = ? ORDER BY created_at`
	return s.queryWatches(ctx, query, chatID)
}

// ListAll retrieves every watch, stalest check first.
func (s *SQLiteStore) ListAll(ctx context.Context) ([]*domain.Watch, error) {
	query := `
		SELECT chat_id, target, last_category, checked_at, created_at
		FROM watches ORDER BY checked_at`
	return s.queryWatches(ctx, query)
}

func (s *SQLiteStore) queryWatches(ctx context.Context, query string, args ...any) ([]*domain.Watch, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query watches: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close watch rows", "error", closeErr)
		}
	}()

	var watches []*domain.Watch
	for rows.Next() {
		var w domain.Watch
		var category string
		var checkedAt, createdAt int64

		if err := rows.Scan(&w.ChatID, &w.Target, &category, &checkedAt, &createdAt); err != nil {
			return nil, fmt.Errorf("scan watch row: %w", err)
		}
		w.LastCategory = domain.Category(category)
		w.CheckedAt = time.Unix(checkedAt, 0)
		w.CreatedAt = time.Unix(createdAt, 0)
		watches = append(watches, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watches: %w", err)
	}

	return watches, nil
}

// UpdateResult records the outcome of a probe for a watch. Retries on SQLite
// concurrency errors since the watcher and command handlers share the file.
func (s *SQLiteStore) UpdateResult(ctx context.Context, chatID int64, target string, category domain.Category, checkedAt time.Time) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	for i := 0; i < maxRetries; i++ {
		err := s.updateResultOnce(ctx, chatID, target, category, checkedAt)
		if err == nil {
			return nil
		}

		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i) // exponential backoff: 100ms, 200ms, 400ms
			slog.Debug("UpdateResult hit SQLITE_BUSY, retrying",
				"chat_id", chatID,
				"target", target,
				"attempt", i+1,
				"delay", delay)
			time.Sleep(delay)
			continue
		}

		return fmt.Errorf("update watch result for %s after %d attempts: %w", target, i+1, err)
	}

	return nil
}

func (s *SQLiteStore) updateResultOnce(ctx context.Context, chatID int64, target string, category domain.Category, checkedAt time.Time) error {
	query := `UPDATE watches SET last_category = ?, checked_at = ? WHERE chat_id = ? AND target = ?`
	result, err := s.db.ExecContext(ctx, query, string(category), checkedAt.Unix(), chatID, target)
	if err != nil {
		return fmt.Errorf("update watch result: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		// Watch was removed between listing and update; nothing to record.
		slog.Debug("UpdateResult affected 0 rows", "chat_id", chatID, "target", target)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
