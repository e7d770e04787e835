package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteJournal persists entries to SQLite.
// It is suitable for single-process production use.
type SQLiteJournal struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

var _ Journal = (*SQLiteJournal)(nil)

// NewSQLiteJournal opens or creates a journal database.
// The path should be a file path (e.g., "./navigation.db") or ":memory:" for testing.
func NewSQLiteJournal(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases alive and serializes writes.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS navigation_journal (
			session TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			transition_id INTEGER NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL,
			trigger_kind TEXT NOT NULL,
			strategy TEXT NOT NULL,
			state TEXT,
			timestamp TEXT NOT NULL,
			PRIMARY KEY (session, sequence)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteJournal{db: db}, nil
}

// Append implements Journal.
func (s *SQLiteJournal) Append(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrJournalClosed
	}

	state, err := encodeState(entry.State)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var seq int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(sequence), 0) + 1 FROM navigation_journal WHERE session = ?
	`, entry.Session).Scan(&seq); err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	stamp(entry)
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO navigation_journal
			(session, sequence, transition_id, url, title, trigger_kind, strategy, state, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.Session, seq, int64(entry.TransitionID), entry.URL, entry.Title, entry.Trigger,
		entry.Strategy, state, entry.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	entry.Sequence = seq
	return nil
}

const selectEntry = `
	SELECT session, sequence, transition_id, url, title, trigger_kind, strategy, state, timestamp
	FROM navigation_journal`

// Last implements Journal.
func (s *SQLiteJournal) Last(ctx context.Context, session string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrJournalClosed
	}

	row := s.db.QueryRowContext(ctx, selectEntry+`
		WHERE session = ? ORDER BY sequence DESC LIMIT 1
	`, session)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load last entry: %w", err)
	}
	return e, nil
}

// List implements Journal.
func (s *SQLiteJournal) List(ctx context.Context, session string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrJournalClosed
	}

	rows, err := s.db.QueryContext(ctx, selectEntry+`
		WHERE session = ? ORDER BY sequence
	`, session)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Sessions implements Journal.
func (s *SQLiteJournal) Sessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrJournalClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT session FROM navigation_journal ORDER BY session
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []string{}
	for rows.Next() {
		var session string
		if err := rows.Scan(&session); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// DeleteSession implements Journal.
func (s *SQLiteJournal) DeleteSession(ctx context.Context, session string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrJournalClosed
	}

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM navigation_journal WHERE session = ?
	`, session); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Close implements Journal.
func (s *SQLiteJournal) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e            Entry
		transitionID int64
		state        sql.NullString
		timestamp    string
	)
	if err := row.Scan(&e.Session, &e.Sequence, &transitionID, &e.URL, &e.Title,
		&e.Trigger, &e.Strategy, &state, &timestamp); err != nil {
		return nil, err
	}
	e.TransitionID = uint64(transitionID)
	e.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
	if state.Valid {
		if err := json.Unmarshal([]byte(state.String), &e.State); err != nil {
			return nil, fmt.Errorf("decode state: %w", err)
		}
	}
	return &e, nil
}

func encodeState(state map[string]any) (sql.NullString, error) {
	if state == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(state)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode state: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}
