package navgraph

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// GuardsResult is the verdict of a transition's guards. The zero value
// lets the transition continue.
type GuardsResult struct {
	// Cancelled is set when a guard denied the transition.
	Cancelled bool
	// Redirect is set when a guard redirected the transition.
	Redirect *ViewportInstructionTree
}

// Allowed reports whether every guard so far let the transition continue.
func (g GuardsResult) Allowed() bool { return !g.Cancelled && g.Redirect == nil }

// String describes the verdict.
func (g GuardsResult) String() string {
	switch {
	case g.Cancelled:
		return "false"
	case g.Redirect != nil:
		return "redirect to " + g.Redirect.String()
	default:
		return "true"
	}
}

// Transition is one attempt to move the router from one state to another.
type Transition struct {
	ID                  uint64
	Trigger             Trigger
	Options             NavigationOptions
	ManagedState        map[string]any
	PrevInstructions    *ViewportInstructionTree
	Instructions        *ViewportInstructionTree
	FinalInstructions   *ViewportInstructionTree
	InstructionsChanged bool
	PreviousRouteTree   *RouteTree
	RouteTree           *RouteTree

	ctx       context.Context
	nav       *Navigation
	redirects int
	started   time.Time
	span      trace.Span

	mu                    sync.Mutex
	guards                GuardsResult
	err                   error
	erredWithUnknownRoute bool
}

// Context returns the context hooks of this transition run with.
func (tr *Transition) Context() context.Context { return tr.ctx }

// GuardsResult returns the current guard verdict.
func (tr *Transition) GuardsResult() GuardsResult {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.guards
}

// Err returns the first error stored on the transition.
func (tr *Transition) Err() error {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.err
}

// ErredWithUnknownRoute reports whether the stored error is an unknown route.
func (tr *Transition) ErredWithUnknownRoute() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.erredWithUnknownRoute
}

// Cancel downgrades the verdict to cancelled. Only the first downgrade
// counts.
func (tr *Transition) Cancel() {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.guards.Allowed() {
		tr.guards.Cancelled = true
	}
}

// Redirect downgrades the verdict to a redirect. Only the first downgrade
// counts.
func (tr *Transition) Redirect(to *ViewportInstructionTree) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.guards.Allowed() {
		tr.guards.Redirect = to
	}
}

// proceed reports whether new work may start: no guard objected and no
// error was stored.
func (tr *Transition) proceed() bool {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return tr.guards.Allowed() && tr.err == nil
}

// HandleError stores err unless an error is already stored.
func (tr *Transition) HandleError(err error) {
	if err == nil {
		return
	}
	tr.mu.Lock()
	defer tr.mu.Unlock()
	if tr.err != nil {
		return
	}
	tr.err = err
	tr.erredWithUnknownRoute = errors.Is(err, ErrUnknownRoute)
}

// Run executes fn unless the transition can no longer proceed, stores any
// error or panic it produces and then calls next. next is always called so
// that a join around the step drains.
func (tr *Transition) Run(fn func() error, next func()) {
	defer next()
	if !tr.proceed() {
		return
	}
	tr.HandleError(tr.call(fn))
}

// Go is Run on a new goroutine.
func (tr *Transition) Go(fn func() error, next func()) {
	go tr.Run(fn, next)
}

func (tr *Transition) call(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: string(debug.Stack())}
		}
	}()
	return fn()
}

// String describes the transition for logs.
func (tr *Transition) String() string {
	return fmt.Sprintf("T-%d(trigger:%s,instructions:%s)", tr.ID, tr.Trigger, tr.Instructions)
}
