package history

import (
	"context"
	"errors"
	"time"
)

// Entry is one committed navigation.
type Entry struct {
	Session      string         `json:"session"`
	Sequence     int64          `json:"sequence"`
	TransitionID uint64         `json:"transition_id"`
	URL          string         `json:"url"`
	Title        string         `json:"title,omitempty"`
	Trigger      string         `json:"trigger"`
	Strategy     string         `json:"strategy"`
	State        map[string]any `json:"state,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Journal persists committed navigations per session.
// Implementations must be safe for concurrent use.
type Journal interface {
	// Append stores an entry. It assigns the next sequence number of the
	// session and, when zero, the timestamp.
	Append(ctx context.Context, entry *Entry) error

	// Last returns the most recent entry of a session.
	// Returns ErrNotFound if the session has no entries.
	Last(ctx context.Context, session string) (*Entry, error)

	// List returns all entries of a session ordered by sequence.
	// Returns an empty slice (not error) for unknown sessions.
	List(ctx context.Context, session string) ([]Entry, error)

	// Sessions returns the sessions that have entries.
	Sessions(ctx context.Context) ([]string, error)

	// DeleteSession removes all entries of a session.
	// Returns nil if the session has no entries.
	DeleteSession(ctx context.Context, session string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Sentinel errors for journal operations.
var (
	// ErrNotFound indicates a session has no entries.
	ErrNotFound = errors.New("journal entry not found")

	// ErrJournalClosed indicates the journal has been closed.
	ErrJournalClosed = errors.New("journal closed")
)

func stamp(entry *Entry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
}
