package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures the optional deletion audit log.
//
// Driver values:
//   - "file": dependency-free JSON Lines backend
//   - "sqlite": SQLite database file
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver string
	Path   string
}

// DeletionEntry records one moderation outcome.
// Keep it compact and schema-stable.
type DeletionEntry struct {
	At           time.Time `json:"at"`
	ChatID       int64     `json:"chat_id"`
	ThreadID     int       `json:"thread_id"`
	MessageID    int       `json:"message_id"`
	FromID       int64     `json:"from_id,omitempty"`
	FromUsername string    `json:"from_username,omitempty"`
	MediaKind    string    `json:"media_kind,omitempty"`
	Outcome      string    `json:"outcome"` // deleted | delete_failed
	Error        string    `json:"error,omitempty"`
}
