package navgraph

import (
	"errors"
	"fmt"
)

// Sentinel errors for route resolution.
var (
	// ErrUnknownRoute indicates a path segment matched no configured route,
	// fallback or component name.
	ErrUnknownRoute = errors.New("unknown route")

	// ErrNoViewportAgent indicates no viewport could host a requested component.
	ErrNoViewportAgent = errors.New("no available viewport")

	// ErrComponentNotFound indicates a component name is not registered.
	ErrComponentNotFound = errors.New("component not found")

	// ErrInvalidInstruction indicates a value cannot be turned into a
	// viewport instruction.
	ErrInvalidInstruction = errors.New("invalid navigation instruction")

	// ErrInvalidRoute indicates a route definition is malformed.
	ErrInvalidRoute = errors.New("invalid route definition")
)

// Sentinel errors for navigation.
var (
	// ErrRouterStopped indicates a navigation was requested after Stop.
	ErrRouterStopped = errors.New("router stopped")

	// ErrTooManyRedirects indicates a redirect chain exceeded the configured limit.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrUnexpectedState indicates a viewport agent was asked to make an
	// illegal state move.
	ErrUnexpectedState = errors.New("unexpected viewport agent state")
)

// UnknownRouteError reports a path that could not be resolved in a context.
type UnknownRouteError struct {
	// Path is the unresolved component name or path.
	Path string
	// Context is the friendly path of the context it was resolved in.
	Context string
	// Viewport is the viewport the instruction targeted.
	Viewport string
}

// Error implements the error interface.
func (e *UnknownRouteError) Error() string {
	return fmt.Sprintf("neither a route, a fallback nor a component matches %q in context %q (viewport %q)",
		e.Path, e.Context, e.Viewport)
}

// Unwrap returns ErrUnknownRoute for errors.Is support.
func (e *UnknownRouteError) Unwrap() error {
	return ErrUnknownRoute
}

// ViewportRequestError reports a component that no viewport of a context
// can host.
type ViewportRequestError struct {
	Viewport  string
	Component string
	Context   string
}

// Error implements the error interface.
func (e *ViewportRequestError) Error() string {
	return fmt.Sprintf("no available viewport %q for component %q in context %q",
		e.Viewport, e.Component, e.Context)
}

// Unwrap returns ErrNoViewportAgent for errors.Is support.
func (e *ViewportRequestError) Unwrap() error {
	return ErrNoViewportAgent
}

// HookError wraps an error returned by a lifecycle hook.
type HookError struct {
	// Component is the name of the component whose hook failed.
	Component string
	// Hook is the hook name ("canLoad", "loading", ...).
	Hook string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *HookError) Error() string {
	return fmt.Sprintf("component %s: %s: %v", e.Component, e.Hook, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *HookError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised inside a transition step.
// It includes the stack trace for debugging.
type PanicError struct {
	// Value is the value passed to panic().
	Value any
	// Stack is the full stack trace at the point of panic.
	Stack string
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("transition step panicked: %v", e.Value)
}

// StateError reports an illegal viewport agent state move.
type StateError struct {
	// Agent describes the viewport agent.
	Agent string
	// Op is the operation that was attempted.
	Op string
	// Current and Next are the agent's phases when the move was attempted.
	Current CurrentPhase
	Next    NextPhase
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return fmt.Sprintf("%s: unexpected state at %s (current=%s, next=%s)", e.Agent, e.Op, e.Current, e.Next)
}

// Unwrap returns ErrUnexpectedState for errors.Is support.
func (e *StateError) Unwrap() error {
	return ErrUnexpectedState
}

// RedirectError reports a redirect chain that exceeded its limit.
type RedirectError struct {
	// Max is the configured redirect limit.
	Max int
	// Last is the URL of the redirect that was refused.
	Last string
}

// Error implements the error interface.
func (e *RedirectError) Error() string {
	return fmt.Sprintf("exceeded maximum redirects (%d) at %s", e.Max, e.Last)
}

// Unwrap returns ErrTooManyRedirects for errors.Is support.
func (e *RedirectError) Unwrap() error {
	return ErrTooManyRedirects
}
