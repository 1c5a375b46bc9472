package domain

import "time"

// Watch is one persisted watch-list entry: a chat that wants to be notified
// when the probed classification of a target changes.
type Watch struct {
	ChatID       int64     `json:"chat_id"`
	Target       string    `json:"target"`
	LastCategory Category  `json:"last_category"`
	CheckedAt    time.Time `json:"checked_at"`
	CreatedAt    time.Time `json:"created_at"`
}
