package navgraph

import "maps"

// DefaultViewport is the name of the viewport used when none is given.
// A request for the default viewport is served by any available viewport.
const DefaultViewport = "default"

// TransitionPlan controls how much of a component's lifecycle runs when a
// viewport keeps its component across a transition.
type TransitionPlan string

// Transition plans.
const (
	// PlanNone keeps the current instance without invoking any hooks.
	PlanNone TransitionPlan = "none"
	// PlanInvokeLifecycles keeps the current instance and invokes its hooks.
	PlanInvokeLifecycles TransitionPlan = "invoke-lifecycles"
	// PlanReplace tears down the current instance and creates a new one.
	PlanReplace TransitionPlan = "replace"
)

// Trigger identifies what started a transition.
type Trigger string

// Transition triggers.
const (
	TriggerAPI        Trigger = "api"
	TriggerPopState   Trigger = "popstate"
	TriggerHashChange Trigger = "hashchange"
)

// HistoryStrategy controls how a committed transition is written to history.
type HistoryStrategy string

// History strategies.
const (
	HistoryPush    HistoryStrategy = "push"
	HistoryReplace HistoryStrategy = "replace"
	HistoryNone    HistoryStrategy = "none"
)

// RoutingMode controls whether unconfigured component names are routable.
type RoutingMode string

// Routing modes.
const (
	// RoutingConfiguredOnly only resolves configured routes and fallbacks.
	RoutingConfiguredOnly RoutingMode = "configured-only"
	// RoutingConfiguredFirst also resolves registered component names
	// that no route matches.
	RoutingConfiguredFirst RoutingMode = "configured-first"
)

// Params are route and instruction parameters.
type Params map[string]string

// Clone returns a copy of p. It returns nil for an empty map.
func (p Params) Clone() Params {
	if len(p) == 0 {
		return nil
	}
	return maps.Clone(p)
}

// Equal reports whether p and other hold the same pairs. Nil and empty
// maps are equal.
func (p Params) Equal(other Params) bool {
	return maps.Equal(p, other)
}

// merge returns the union of p and over, with over winning on conflicts.
func (p Params) merge(over Params) Params {
	if len(p) == 0 {
		return over.Clone()
	}
	out := maps.Clone(p)
	maps.Copy(out, over)
	return out
}
