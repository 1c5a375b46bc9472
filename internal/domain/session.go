// Package domain contains core domain types for the Vigil bot.
package domain

import "time"

// Step is a session's position in the guided report workflow.
type Step string

const (
	// StepAwaitingLink means the bot is waiting for the target identifier.
	StepAwaitingLink Step = "awaiting_link"
	// StepAwaitingReason means the target is stored and the bot is waiting
	// for the complaint text.
	StepAwaitingReason Step = "awaiting_reason"
)

// Session is the per-user, in-memory record of progress through the guided
// report workflow. At most one session exists per owner; a completed or
// cancelled session is deleted, never kept in a terminal state.
type Session struct {
	OwnerID       int64
	Step          Step
	TargetLink    string
	Reason        string
	ReporterLabel string
	UpdatedAt     time.Time
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(ttl time.Duration) bool {
	return time.Since(s.UpdatedAt) > ttl
}
