package navgraph

import (
	"slices"
	"strconv"
)

// CurrentPhase is the state of the occupant a viewport currently shows.
type CurrentPhase int

// Current-side phases.
const (
	CurrentEmpty CurrentPhase = iota
	CurrentActive
	CurrentCanUnload
	CurrentCanUnloadDone
	CurrentUnload
	CurrentUnloadDone
	CurrentDeactivate
)

var currentPhaseNames = [...]string{
	CurrentEmpty:         "currIsEmpty",
	CurrentActive:        "currIsActive",
	CurrentCanUnload:     "currCanUnload",
	CurrentCanUnloadDone: "currCanUnloadDone",
	CurrentUnload:        "currUnload",
	CurrentUnloadDone:    "currUnloadDone",
	CurrentDeactivate:    "currDeactivate",
}

// String returns the phase name.
func (p CurrentPhase) String() string {
	if p >= 0 && int(p) < len(currentPhaseNames) {
		return currentPhaseNames[p]
	}
	return "CurrentPhase(" + strconv.Itoa(int(p)) + ")"
}

// NextPhase is the state of the occupant a viewport is about to show.
type NextPhase int

// Next-side phases.
const (
	NextEmpty NextPhase = iota
	NextScheduled
	NextCanLoad
	NextCanLoadDone
	NextLoad
	NextLoadDone
	NextActivate
)

var nextPhaseNames = [...]string{
	NextEmpty:       "nextIsEmpty",
	NextScheduled:   "nextIsScheduled",
	NextCanLoad:     "nextCanLoad",
	NextCanLoadDone: "nextCanLoadDone",
	NextLoad:        "nextLoad",
	NextLoadDone:    "nextLoadDone",
	NextActivate:    "nextActivate",
}

// String returns the phase name.
func (p NextPhase) String() string {
	if p >= 0 && int(p) < len(nextPhaseNames) {
		return nextPhaseNames[p]
	}
	return "NextPhase(" + strconv.Itoa(int(p)) + ")"
}

// Legal moves. Every non-empty phase may rewind: the current side back to
// active, the next side back to empty.
var (
	currentMoves = map[CurrentPhase][]CurrentPhase{
		CurrentEmpty:         {CurrentActive},
		CurrentActive:        {CurrentCanUnload},
		CurrentCanUnload:     {CurrentCanUnloadDone, CurrentActive},
		CurrentCanUnloadDone: {CurrentUnload, CurrentActive},
		CurrentUnload:        {CurrentUnloadDone, CurrentActive},
		CurrentUnloadDone:    {CurrentDeactivate, CurrentActive},
		CurrentDeactivate:    {CurrentEmpty, CurrentActive},
	}
	nextMoves = map[NextPhase][]NextPhase{
		NextEmpty:       {NextScheduled},
		NextScheduled:   {NextCanLoad, NextEmpty},
		NextCanLoad:     {NextCanLoadDone, NextEmpty},
		NextCanLoadDone: {NextLoad, NextEmpty},
		NextLoad:        {NextLoadDone, NextEmpty},
		NextLoadDone:    {NextActivate, NextEmpty},
		NextActivate:    {NextEmpty},
	}
)

func (p CurrentPhase) canMoveTo(to CurrentPhase) bool {
	return slices.Contains(currentMoves[p], to)
}

func (p NextPhase) canMoveTo(to NextPhase) bool {
	return slices.Contains(nextMoves[p], to)
}
