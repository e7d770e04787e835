package navgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeDistinct(t *testing.T) {
	id := func(s string) string { return s }

	tests := []struct {
		name string
		prev []string
		next []string
		want []string
	}{
		{"identical order keeps next", []string{"a", "b", "c", "d"}, []string{"a", "b", "c", "d"}, []string{"a", "b", "c", "d"}},
		{"moved element", []string{"a", "b", "c", "d"}, []string{"b", "a", "c", "d"}, []string{"b", "a", "c", "d"}},
		{"removed element stays in place", []string{"a", "b", "c"}, []string{"a", "c"}, []string{"a", "b", "c"}},
		{"added elements", []string{"a"}, []string{"x", "a", "y"}, []string{"x", "a", "y"}},
		{"disjoint", []string{"a", "b"}, []string{"c", "d"}, []string{"a", "b", "c", "d"}},
		{"empty prev", nil, []string{"a"}, []string{"a"}},
		{"empty next", []string{"a"}, nil, []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mergeDistinct(tt.prev, tt.next, id))
		})
	}
}

func TestMergeDistinct_ByKey(t *testing.T) {
	type item struct {
		agent string
		gen   int
	}
	prev := []item{{"a", 1}, {"b", 1}, {"c", 1}, {"d", 1}}
	next := []item{{"a", 2}, {"b", 2}, {"c", 2}, {"d", 2}}

	got := mergeDistinct(prev, next, func(i item) string { return i.agent })

	assert.Equal(t, next, got, "next elements supersede prev elements of the same agent")
}

func TestMergeDistinct_DoesNotMutateInputs(t *testing.T) {
	prev := []string{"a", "b"}
	next := []string{"b", "a"}

	mergeDistinct(prev, next, func(s string) string { return s })

	assert.Equal(t, []string{"a", "b"}, prev)
	assert.Equal(t, []string{"b", "a"}, next)
}

func TestPhaseMoves(t *testing.T) {
	currentPath := []CurrentPhase{
		CurrentEmpty, CurrentActive, CurrentCanUnload, CurrentCanUnloadDone,
		CurrentUnload, CurrentUnloadDone, CurrentDeactivate, CurrentEmpty,
	}
	for i := 0; i+1 < len(currentPath); i++ {
		assert.True(t, currentPath[i].canMoveTo(currentPath[i+1]), "%s -> %s", currentPath[i], currentPath[i+1])
	}
	nextPath := []NextPhase{
		NextEmpty, NextScheduled, NextCanLoad, NextCanLoadDone,
		NextLoad, NextLoadDone, NextActivate, NextEmpty,
	}
	for i := 0; i+1 < len(nextPath); i++ {
		assert.True(t, nextPath[i].canMoveTo(nextPath[i+1]), "%s -> %s", nextPath[i], nextPath[i+1])
	}

	assert.False(t, CurrentActive.canMoveTo(CurrentUnload), "phases cannot be skipped")
	assert.False(t, CurrentEmpty.canMoveTo(CurrentCanUnload))
	assert.False(t, NextScheduled.canMoveTo(NextLoad))
	assert.False(t, NextEmpty.canMoveTo(NextActivate))
	assert.False(t, CurrentActive.canMoveTo(CurrentActive))

	for _, p := range []CurrentPhase{CurrentCanUnload, CurrentCanUnloadDone, CurrentUnload, CurrentUnloadDone, CurrentDeactivate} {
		assert.True(t, p.canMoveTo(CurrentActive), "%s rewinds", p)
	}
	for _, p := range []NextPhase{NextScheduled, NextCanLoad, NextCanLoadDone, NextLoad, NextLoadDone, NextActivate} {
		assert.True(t, p.canMoveTo(NextEmpty), "%s rewinds", p)
	}
}

func TestPhaseStrings(t *testing.T) {
	assert.Equal(t, "currIsActive", CurrentActive.String())
	assert.Equal(t, "nextCanLoadDone", NextCanLoadDone.String())
	assert.Equal(t, "CurrentPhase(42)", CurrentPhase(42).String())
	assert.Equal(t, "NextPhase(-1)", NextPhase(-1).String())
}
