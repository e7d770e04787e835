package navgraph

import (
	"context"
	"strconv"

	"github.com/randalmurphal/navgraph/pkg/navgraph/event"
)

// Event types published by the router.
const (
	EventNavigationStart  = "navigation.start"
	EventNavigationEnd    = "navigation.end"
	EventNavigationCancel = "navigation.cancel"
	EventNavigationError  = "navigation.error"
	EventLocationChange   = "location.change"
)

// EventSource is the source of every event the router publishes.
const EventSource = "router"

// Cancel reasons.
const (
	ReasonGuardDenied = "guard denied"
	ReasonRedirect    = "redirect"
	ReasonSuperseded  = "superseded"
	ReasonStopped     = "router stopped"
)

// NavigationStartEvent is published when a transition starts running.
type NavigationStartEvent struct {
	ID           uint64                   `json:"id"`
	Instructions *ViewportInstructionTree `json:"instructions"`
	Trigger      Trigger                  `json:"trigger"`
	ManagedState map[string]any           `json:"managed_state,omitempty"`
}

// NavigationEndEvent is published when a transition committed.
type NavigationEndEvent struct {
	ID                uint64                   `json:"id"`
	Instructions      *ViewportInstructionTree `json:"instructions"`
	FinalInstructions *ViewportInstructionTree `json:"final_instructions"`
}

// NavigationCancelEvent is published when a transition was cancelled by a
// guard, a redirect or a newer request.
type NavigationCancelEvent struct {
	ID           uint64                   `json:"id"`
	Instructions *ViewportInstructionTree `json:"instructions"`
	Reason       string                   `json:"reason"`
}

// NavigationErrorEvent is published when a transition failed.
type NavigationErrorEvent struct {
	ID           uint64                   `json:"id"`
	Instructions *ViewportInstructionTree `json:"instructions"`
	Err          error                    `json:"-"`
	Error        string                   `json:"error"`
}

// LocationChangeEvent is published when the location changed outside the
// router.
type LocationChangeEvent struct {
	ID      uint64         `json:"id"`
	URL     string         `json:"url"`
	Trigger Trigger        `json:"trigger"`
	State   map[string]any `json:"state,omitempty"`
}

// publish sends payload with the navigation's id as correlation id.
// Delivery failures are logged.
func publish[T any](ctx context.Context, r *Router, eventType string, correlation uint64, payload T) {
	evt := event.New(eventType, EventSource, payload, event.WithCorrelationID(strconv.FormatUint(correlation, 10)))
	if err := r.bus.Publish(ctx, evt); err != nil {
		r.logger.Warn("event publish failed", "event_type", eventType, "error", err)
	}
}

func (r *Router) publishStart(tr *Transition) {
	publish(tr.ctx, r, EventNavigationStart, tr.nav.ID(), NavigationStartEvent{
		ID:           tr.ID,
		Instructions: tr.Instructions,
		Trigger:      tr.Trigger,
		ManagedState: tr.ManagedState,
	})
}

func (r *Router) publishEnd(tr *Transition) {
	publish(tr.ctx, r, EventNavigationEnd, tr.nav.ID(), NavigationEndEvent{
		ID:                tr.ID,
		Instructions:      tr.Instructions,
		FinalInstructions: tr.FinalInstructions,
	})
}

func (r *Router) publishCancel(tr *Transition, reason string) {
	publish(tr.ctx, r, EventNavigationCancel, tr.nav.ID(), NavigationCancelEvent{
		ID:           tr.ID,
		Instructions: tr.Instructions,
		Reason:       reason,
	})
}

func (r *Router) publishError(tr *Transition, err error) {
	publish(tr.ctx, r, EventNavigationError, tr.nav.ID(), NavigationErrorEvent{
		ID:           tr.ID,
		Instructions: tr.Instructions,
		Err:          err,
		Error:        err.Error(),
	})
}
