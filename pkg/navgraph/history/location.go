// Package history connects the router to URL history and persists
// committed navigations.
//
// Location is the history store the router reads its path from and writes
// navigation entries to. MemoryLocation emulates a browser history stack for
// tests, servers and CLIs.
//
// Journal is an append-only log of committed navigations, with memory,
// SQLite and Redis implementations.
package history

import (
	"strings"
	"sync"
)

// Change triggers delivered to Location subscribers.
const (
	TriggerPopState   = "popstate"
	TriggerHashChange = "hashchange"
)

// ChangeEvent describes a location change the router did not initiate.
type ChangeEvent struct {
	URL     string
	Trigger string
	State   map[string]any
}

// Location is the router's view of URL history.
// Implementations must be safe for concurrent use.
type Location interface {
	// Path returns the current URL (path, query and fragment).
	Path() string

	// PushState adds a history entry.
	PushState(state map[string]any, title, url string)

	// ReplaceState overwrites the current history entry.
	ReplaceState(state map[string]any, title, url string)

	// Subscribe registers fn for changes not caused by PushState or
	// ReplaceState. The returned function removes the subscription.
	Subscribe(fn func(ChangeEvent)) (unsubscribe func())
}

// Record is one entry of a MemoryLocation.
type Record struct {
	URL   string
	Title string
	State map[string]any
}

// MemoryLocation is an in-memory Location with back/forward navigation.
type MemoryLocation struct {
	mu      sync.Mutex
	entries []Record
	index   int
	subs    map[int]func(ChangeEvent)
	nextSub int
}

var _ Location = (*MemoryLocation)(nil)

// NewMemoryLocation creates a location whose only entry is initialURL.
func NewMemoryLocation(initialURL string) *MemoryLocation {
	return &MemoryLocation{
		entries: []Record{{URL: initialURL}},
		subs:    make(map[int]func(ChangeEvent)),
	}
}

// Path implements Location.
func (l *MemoryLocation) Path() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[l.index].URL
}

// Title returns the title recorded with the current entry.
func (l *MemoryLocation) Title() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[l.index].Title
}

// State returns the state recorded with the current entry.
func (l *MemoryLocation) State() map[string]any {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.entries[l.index].State
}

// PushState implements Location. Forward entries are discarded.
func (l *MemoryLocation) PushState(state map[string]any, title, url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries[:l.index+1], Record{URL: url, Title: title, State: state})
	l.index++
}

// ReplaceState implements Location.
func (l *MemoryLocation) ReplaceState(state map[string]any, title, url string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[l.index] = Record{URL: url, Title: title, State: state}
}

// Subscribe implements Location.
func (l *MemoryLocation) Subscribe(fn func(ChangeEvent)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := l.nextSub
	l.nextSub++
	l.subs[id] = fn
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subs, id)
	}
}

// Back moves one entry back. It reports false at the start of history.
func (l *MemoryLocation) Back() bool { return l.Go(-1) }

// Forward moves one entry forward. It reports false at the end of history.
func (l *MemoryLocation) Forward() bool { return l.Go(1) }

// Go moves delta entries and notifies subscribers with a popstate change.
// It reports false and does nothing when the target is out of range.
func (l *MemoryLocation) Go(delta int) bool {
	l.mu.Lock()
	target := l.index + delta
	if delta == 0 || target < 0 || target >= len(l.entries) {
		l.mu.Unlock()
		return false
	}
	l.index = target
	rec := l.entries[target]
	subs := l.snapshot()
	l.mu.Unlock()

	notify(subs, ChangeEvent{URL: rec.URL, Trigger: TriggerPopState, State: rec.State})
	return true
}

// SetHash pushes an entry with the current URL's fragment replaced and
// notifies subscribers with a hashchange.
func (l *MemoryLocation) SetHash(fragment string) {
	l.mu.Lock()
	cur := l.entries[l.index].URL
	if i := strings.IndexByte(cur, '#'); i >= 0 {
		cur = cur[:i]
	}
	next := cur + "#" + strings.TrimPrefix(fragment, "#")
	l.entries = append(l.entries[:l.index+1], Record{URL: next})
	l.index++
	subs := l.snapshot()
	l.mu.Unlock()

	notify(subs, ChangeEvent{URL: next, Trigger: TriggerHashChange})
}

// Len returns the number of entries in the stack.
func (l *MemoryLocation) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Entries returns a copy of the history stack and the current index.
func (l *MemoryLocation) Entries() ([]Record, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Record, len(l.entries))
	copy(out, l.entries)
	return out, l.index
}

func (l *MemoryLocation) snapshot() []func(ChangeEvent) {
	subs := make([]func(ChangeEvent), 0, len(l.subs))
	for i := 0; i < l.nextSub; i++ {
		if fn, ok := l.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	return subs
}

func notify(subs []func(ChangeEvent), ev ChangeEvent) {
	for _, fn := range subs {
		fn(ev)
	}
}
