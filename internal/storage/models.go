package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Session is one onboarding conversation: the profile snapshot, the
// current flow step, and which chat regime the next turn goes through.
type Session struct {
	ID          string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CurrentStep string
	ChatMode    string // "onboarding", "conversation", "profile-edit"
	ProfileJSON string
}

// Message is one line of session history.
type Message struct {
	ID        string
	SessionID string
	Role      string // "user" or "assistant"
	Content   string
	CreatedAt time.Time
}

// Goal is a savings target. At most one goal per session is active;
// replaced goals are kept with status "archived".
type Goal struct {
	ID        string
	SessionID string
	Name      string
	Amount    float64
	Deadline  string // ISO date, empty when none was given
	Status    string // "active" or "archived"
	CreatedAt time.Time
	UpdatedAt time.Time
}
