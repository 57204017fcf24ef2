package models

import (
	"time"
)

// SessionState represents where a conversation session is in a multi-turn flow
type SessionState string

const (
	// StateAwaitingName waits for the task name of a new draft
	StateAwaitingName SessionState = "awaiting_name"
	// StateAwaitingDescription waits for the description or /skip
	StateAwaitingDescription SessionState = "awaiting_description"
	// StateAwaitingDeadline waits for a YYYY-MM-DD deadline or /skip
	StateAwaitingDeadline SessionState = "awaiting_deadline"
	// StateAwaitingDeleteIDs waits for whitespace-separated task ids
	StateAwaitingDeleteIDs SessionState = "awaiting_delete_ids"
)

// TaskDraft is a partially filled task held in memory during the add flow.
// It only reaches the store once the deadline step resolves.
type TaskDraft struct {
	Name        string `validate:"required"`
	Description string
	Deadline    *time.Time
}

// Session is one user's active conversation. Sessions live in process memory
// only; a restart drops in-flight drafts and the user restarts the flow.
type Session struct {
	UserID    int64
	ChatID    int64
	State     SessionState
	Draft     TaskDraft
	UpdatedAt time.Time
}
