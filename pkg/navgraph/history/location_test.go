package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLocation_PushReplace(t *testing.T) {
	loc := NewMemoryLocation("/")

	loc.PushState(map[string]any{"n": 1}, "A", "/a")
	loc.PushState(nil, "B", "/b")
	assert.Equal(t, "/b", loc.Path())
	assert.Equal(t, "B", loc.Title())
	assert.Equal(t, 3, loc.Len())

	loc.ReplaceState(nil, "B2", "/b2")
	assert.Equal(t, "/b2", loc.Path())
	assert.Equal(t, 3, loc.Len())
}

func TestMemoryLocation_BackForward(t *testing.T) {
	loc := NewMemoryLocation("/")
	loc.PushState(map[string]any{"n": 1}, "A", "/a")
	loc.PushState(nil, "B", "/b")

	var events []ChangeEvent
	unsubscribe := loc.Subscribe(func(ev ChangeEvent) { events = append(events, ev) })

	require.True(t, loc.Back())
	assert.Equal(t, "/a", loc.Path())
	require.True(t, loc.Forward())
	assert.False(t, loc.Forward())
	require.True(t, loc.Go(-2))
	assert.False(t, loc.Back())

	require.Len(t, events, 3)
	assert.Equal(t, ChangeEvent{URL: "/a", Trigger: TriggerPopState, State: map[string]any{"n": 1}}, events[0])
	assert.Equal(t, "/b", events[1].URL)
	assert.Equal(t, "/", events[2].URL)

	unsubscribe()
	loc.Forward()
	assert.Len(t, events, 3)
}

func TestMemoryLocation_PushDiscardsForward(t *testing.T) {
	loc := NewMemoryLocation("/")
	loc.PushState(nil, "", "/a")
	loc.PushState(nil, "", "/b")
	loc.Back()

	loc.PushState(nil, "", "/c")
	entries, index := loc.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, 2, index)
	assert.Equal(t, "/c", entries[2].URL)
	assert.False(t, loc.Forward())
}

func TestMemoryLocation_SetHash(t *testing.T) {
	loc := NewMemoryLocation("/app#/home")

	var got ChangeEvent
	loc.Subscribe(func(ev ChangeEvent) { got = ev })

	loc.SetHash("#/settings")
	assert.Equal(t, "/app#/settings", loc.Path())
	assert.Equal(t, ChangeEvent{URL: "/app#/settings", Trigger: TriggerHashChange}, got)
	assert.Equal(t, 2, loc.Len())
}

func TestMemoryLocation_PushStateDoesNotNotify(t *testing.T) {
	loc := NewMemoryLocation("/")
	called := false
	loc.Subscribe(func(ChangeEvent) { called = true })

	loc.PushState(nil, "", "/a")
	loc.ReplaceState(nil, "", "/b")
	assert.False(t, called)
}
