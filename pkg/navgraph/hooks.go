package navgraph

import "context"

// Guard is the result of a CanLoad hook.
type Guard struct {
	deny     bool
	redirect any
}

// Allow lets the transition continue.
func Allow() Guard { return Guard{} }

// Deny cancels the transition.
func Deny() Guard { return Guard{deny: true} }

// RedirectTo cancels the transition and navigates to instruction instead.
// The instruction accepts everything Router.Load accepts and is resolved
// from the root.
func RedirectTo(instruction any) Guard { return Guard{redirect: instruction} }

// Allowed reports whether the guard lets the transition continue.
func (g Guard) Allowed() bool { return !g.deny && g.redirect == nil }

// Redirect returns the redirect target, or nil.
func (g Guard) Redirect() any { return g.redirect }

// View-model hooks. A view-model implements any subset; the router checks
// for each interface before invoking it. current is nil when the viewport
// was empty, next is nil when the viewport is being cleared.

// CanLoader decides whether a component may be loaded.
type CanLoader interface {
	CanLoad(ctx context.Context, params Params, next, current *RouteNode) (Guard, error)
}

// Loader is invoked after every guard passed, before the swap.
type Loader interface {
	Loading(ctx context.Context, params Params, next, current *RouteNode) error
}

// CanUnloader decides whether a component may be unloaded.
type CanUnloader interface {
	CanUnload(ctx context.Context, next, current *RouteNode) (bool, error)
}

// Unloader is invoked after every guard passed, before the swap.
type Unloader interface {
	Unloading(ctx context.Context, next, current *RouteNode) error
}

// Activator is invoked when a component instance is mounted.
type Activator interface {
	Activate(ctx context.Context, node *RouteNode) error
}

// Deactivator is invoked when a component instance is unmounted.
type Deactivator interface {
	Deactivate(ctx context.Context, node *RouteNode) error
}

// LifecycleHooks are shared hooks that run before a view-model's own hooks.
// vm is the view-model the hook runs for, possibly nil. Nil fields are
// skipped.
type LifecycleHooks struct {
	CanLoad   func(ctx context.Context, vm any, params Params, next, current *RouteNode) (Guard, error)
	Loading   func(ctx context.Context, vm any, params Params, next, current *RouteNode) error
	CanUnload func(ctx context.Context, vm any, next, current *RouteNode) (bool, error)
	Unloading func(ctx context.Context, vm any, next, current *RouteNode) error
}
