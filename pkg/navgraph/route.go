package navgraph

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// RouteConfig declares a route.
type RouteConfig struct {
	// ID lets instructions reference the route by id instead of path.
	ID string
	// Path lists the patterns the route answers to. When empty the
	// component name is used.
	Path []string
	// Component is the routed component. Exactly one of Component and
	// RedirectTo must be set.
	Component ComponentRef
	// RedirectTo is a path, relative to the same context, that replaces
	// this one. Dynamic segments are carried over by position.
	RedirectTo string
	Title      string
	// Viewport is the viewport the component is loaded into. Empty means
	// any available viewport.
	Viewport string
	// Fallback is a route id, path or component name used for unknown child
	// paths. It is inherited by descendants that don't set one.
	Fallback      string
	CaseSensitive bool
	// TransitionPlan applies when the same component stays in its viewport.
	// TransitionPlanFunc, when set, takes precedence.
	TransitionPlan     TransitionPlan
	TransitionPlanFunc func(current, next *RouteNode) TransitionPlan
	Data               map[string]any
	// Routes are child routes, in addition to the component's own.
	Routes []RouteConfig
	// Hooks run before the view-model's own hooks, in order.
	Hooks []LifecycleHooks
}

// RouteDefinition is a route bound to a context. Its component is
// resolved on first use.
type RouteDefinition struct {
	ID                 string
	Paths              []string
	RedirectTo         string
	Title              string
	Viewport           string
	Fallback           string
	CaseSensitive      bool
	TransitionPlan     TransitionPlan
	TransitionPlanFunc func(current, next *RouteNode) TransitionPlan
	Data               map[string]any
	Hooks              []LifecycleHooks

	ref      ComponentRef
	routes   []RouteConfig
	redirect bool

	mu        sync.Mutex
	component *ComponentDefinition
}

// newRouteDefinition validates cfg and binds it.
func newRouteDefinition(cfg RouteConfig) (*RouteDefinition, error) {
	hasComponent := !cfg.Component.IsZero()
	if hasComponent == (cfg.RedirectTo != "") {
		return nil, fmt.Errorf("%w: route %v needs exactly one of component and redirect", ErrInvalidRoute, cfg.Path)
	}
	paths := cfg.Path
	if len(paths) == 0 {
		name := cfg.Component.Name()
		if name == "" {
			return nil, fmt.Errorf("%w: route without path needs a named component", ErrInvalidRoute)
		}
		paths = []string{name}
	}
	rd := &RouteDefinition{
		ID:                 cfg.ID,
		Paths:              make([]string, len(paths)),
		RedirectTo:         strings.Trim(cfg.RedirectTo, "/"),
		Title:              cfg.Title,
		Viewport:           cfg.Viewport,
		Fallback:           cfg.Fallback,
		CaseSensitive:      cfg.CaseSensitive,
		TransitionPlan:     cfg.TransitionPlan,
		TransitionPlanFunc: cfg.TransitionPlanFunc,
		Data:               cfg.Data,
		Hooks:              cfg.Hooks,
		ref:                cfg.Component,
		routes:             cfg.Routes,
		redirect:           cfg.RedirectTo != "",
	}
	for i, p := range paths {
		rd.Paths[i] = strings.Trim(p, "/")
	}
	if def := cfg.Component.Definition(); def != nil {
		rd.component = def
	}
	return rd, nil
}

// directRoute wraps a component that is routed without a route config.
func directRoute(def *ComponentDefinition) *RouteDefinition {
	return &RouteDefinition{
		Paths:     []string{def.Name},
		Title:     def.Title,
		Fallback:  def.Fallback,
		ref:       ByDefinition(def),
		component: def,
	}
}

// Component returns the resolved component definition, or nil before the
// route was first used.
func (d *RouteDefinition) Component() *ComponentDefinition {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.component
}

// IsRedirect reports whether the route only redirects.
func (d *RouteDefinition) IsRedirect() bool { return d.redirect }

// resolveComponent resolves the route's component once.
func (d *RouteDefinition) resolveComponent(ctx context.Context, components *ComponentRegistry) (*ComponentDefinition, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.component != nil {
		return d.component, nil
	}
	def, err := d.ref.resolve(ctx, components)
	if err != nil {
		return nil, fmt.Errorf("route %s: %w", d.Paths[0], err)
	}
	d.component = def
	return def, nil
}

// childRoutes returns the route's own child routes followed by those of
// its component. Callers resolve the component first.
func (d *RouteDefinition) childRoutes() []RouteConfig {
	comp := d.Component()
	if comp == nil || len(comp.Routes) == 0 {
		return d.routes
	}
	if len(d.routes) == 0 {
		return comp.Routes
	}
	out := make([]RouteConfig, 0, len(d.routes)+len(comp.Routes))
	out = append(out, d.routes...)
	return append(out, comp.Routes...)
}

// transitionPlan decides how a viewport that keeps the component of
// current moves to next. An override from the navigation wins. Otherwise
// nodes that serve the same path with the same params need no work at all.
func (d *RouteDefinition) transitionPlan(current, next *RouteNode, override TransitionPlan) TransitionPlan {
	if override != "" {
		return override
	}
	if samePath(current.FinalPath, next.FinalPath) && current.Params.Equal(next.Params) {
		return PlanNone
	}
	if d.TransitionPlanFunc != nil {
		if plan := d.TransitionPlanFunc(current, next); plan != "" {
			return plan
		}
	}
	if d.TransitionPlan != "" {
		return d.TransitionPlan
	}
	return PlanReplace
}

func samePath(a, b string) bool {
	return a == "" || b == "" || a == b
}

// String returns the route's first path.
func (d *RouteDefinition) String() string {
	if d.IsRedirect() {
		return d.Paths[0] + " -> " + d.RedirectTo
	}
	return d.Paths[0]
}
