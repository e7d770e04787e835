package history

import (
	"context"
	"sort"
	"sync"
)

// MemoryJournal is an in-memory Journal for testing.
// Data is lost when the process exits.
type MemoryJournal struct {
	mu       sync.RWMutex
	sessions map[string][]Entry
	closed   bool
}

var _ Journal = (*MemoryJournal)(nil)

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{sessions: make(map[string][]Entry)}
}

// Append implements Journal.
func (m *MemoryJournal) Append(_ context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrJournalClosed
	}

	entries := m.sessions[entry.Session]
	entry.Sequence = int64(len(entries)) + 1
	stamp(entry)

	stored := *entry
	stored.State = copyState(entry.State)
	m.sessions[entry.Session] = append(entries, stored)
	return nil
}

// Last implements Journal.
func (m *MemoryJournal) Last(_ context.Context, session string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrJournalClosed
	}

	entries := m.sessions[session]
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	last := entries[len(entries)-1]
	last.State = copyState(last.State)
	return &last, nil
}

// List implements Journal.
func (m *MemoryJournal) List(_ context.Context, session string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrJournalClosed
	}

	entries := m.sessions[session]
	out := make([]Entry, len(entries))
	for i, e := range entries {
		e.State = copyState(e.State)
		out[i] = e
	}
	return out, nil
}

// Sessions implements Journal.
func (m *MemoryJournal) Sessions(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrJournalClosed
	}

	out := make([]string, 0, len(m.sessions))
	for s := range m.sessions {
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

// DeleteSession implements Journal.
func (m *MemoryJournal) DeleteSession(_ context.Context, session string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrJournalClosed
	}
	delete(m.sessions, session)
	return nil
}

// Close implements Journal.
func (m *MemoryJournal) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.sessions = nil
	return nil
}

// Len returns the total number of entries across all sessions.
func (m *MemoryJournal) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, entries := range m.sessions {
		n += len(entries)
	}
	return n
}

func copyState(state map[string]any) map[string]any {
	if state == nil {
		return nil
	}
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}
