package navgraph

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/randalmurphal/navgraph/pkg/navgraph/recognizer"
)

// RouteContext is the scope of one routed component: its child routes,
// the viewports it renders into and the node that currently fills it.
//
// Contexts are created once per (viewport agent, route) and reused across
// transitions. Parent and router references are lookups only.
type RouteContext struct {
	router    *Router
	parent    *RouteContext
	root      *RouteContext
	agent     *ViewportAgent
	component *ComponentDefinition
	route     *RouteDefinition
	depth     int

	agents     []*ViewportAgent
	routes     []*RouteDefinition
	recognizer *recognizer.Recognizer[*RouteDefinition]

	mu   sync.RWMutex
	node *RouteNode
}

// newRouteContext binds route, whose component is already resolved, to
// the viewport agent that hosts it.
func newRouteContext(r *Router, parent *RouteContext, agent *ViewportAgent, route *RouteDefinition, component *ComponentDefinition) (*RouteContext, error) {
	rc := &RouteContext{
		router:     r,
		parent:     parent,
		agent:      agent,
		component:  component,
		route:      route,
		recognizer: recognizer.New[*RouteDefinition](),
	}
	if parent == nil {
		rc.root = rc
	} else {
		rc.root = parent.root
		rc.depth = parent.depth + 1
	}

	viewports := component.Viewports
	if len(viewports) == 0 && len(route.childRoutes()) > 0 {
		viewports = []ViewportConfig{{}}
	}
	for _, vp := range viewports {
		rc.agents = append(rc.agents, newViewportAgent(vp, rc))
	}

	for _, cfg := range route.childRoutes() {
		rd, err := newRouteDefinition(cfg)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", rc.FriendlyPath(), err)
		}
		for _, p := range rd.Paths {
			if _, err := rc.recognizer.Add(p, rd.CaseSensitive, rd); err != nil {
				return nil, fmt.Errorf("%s: %w: %w", rc.FriendlyPath(), ErrInvalidRoute, err)
			}
		}
		rc.routes = append(rc.routes, rd)
	}
	return rc, nil
}

// Router returns the router the context belongs to.
func (rc *RouteContext) Router() *Router { return rc.router }

// Parent returns the enclosing context, or nil for the root.
func (rc *RouteContext) Parent() *RouteContext { return rc.parent }

// Root returns the root context.
func (rc *RouteContext) Root() *RouteContext { return rc.root }

// IsRoot reports whether rc is the root context.
func (rc *RouteContext) IsRoot() bool { return rc.parent == nil }

// Agent returns the viewport agent that hosts the context, or nil for the
// root.
func (rc *RouteContext) Agent() *ViewportAgent { return rc.agent }

// Component returns the routed component.
func (rc *RouteContext) Component() *ComponentDefinition { return rc.component }

// Route returns the route that produced the context.
func (rc *RouteContext) Route() *RouteDefinition { return rc.route }

// ViewportAgents returns the agents of the component's viewports.
func (rc *RouteContext) ViewportAgents() []*ViewportAgent {
	return slices.Clone(rc.agents)
}

// ChildRoutes returns the routes recognized inside the context.
func (rc *RouteContext) ChildRoutes() []*RouteDefinition {
	return slices.Clone(rc.routes)
}

// Node returns the node that currently fills the context.
func (rc *RouteContext) Node() *RouteNode {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return rc.node
}

func (rc *RouteContext) setNode(n *RouteNode) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.node = n
}

// FriendlyPath returns the component names from the root to rc.
func (rc *RouteContext) FriendlyPath() string {
	var parts []string
	for cur := rc; cur != nil; cur = cur.parent {
		parts = append(parts, cur.component.Name)
	}
	slices.Reverse(parts)
	return strings.Join(parts, "/")
}

// String describes the context for logs.
func (rc *RouteContext) String() string {
	return "RC(" + rc.FriendlyPath() + ")"
}

// Recognize matches path against the context's routes. With
// searchAncestors, unmatched paths are tried against the enclosing
// contexts as well.
func (rc *RouteContext) Recognize(path string, searchAncestors bool) *RecognizedRoute {
	res, _ := rc.recognize(path, searchAncestors)
	if res == nil {
		return nil
	}
	return &RecognizedRoute{
		Route:   res.Endpoint.Handler,
		Params:  Params(res.Params).Clone(),
		Residue: res.Residue,
		pattern: res.Endpoint.Pattern,
	}
}

// recognize is Recognize returning the raw result and the context that
// matched.
func (rc *RouteContext) recognize(path string, searchAncestors bool) (*recognizer.Result[*RouteDefinition], *RouteContext) {
	for cur := rc; cur != nil; cur = cur.parent {
		if res := cur.recognizer.Recognize(path); res != nil {
			return res, cur
		}
		if !searchAncestors {
			break
		}
	}
	return nil, nil
}

// routeByID returns the child route with the given id.
func (rc *RouteContext) routeByID(id string) *RouteDefinition {
	if id == "" {
		return nil
	}
	for _, rd := range rc.routes {
		if rd.ID == id {
			return rd
		}
	}
	return nil
}

// routeForComponent returns the first child route whose component is def.
func (rc *RouteContext) routeForComponent(ctx context.Context, def *ComponentDefinition) *RouteDefinition {
	for _, rd := range rc.routes {
		if rd.IsRedirect() {
			continue
		}
		if rd.ref.kind == refLazy && rd.Component() == nil {
			continue
		}
		comp, err := rd.resolveComponent(ctx, rc.router.components)
		if err == nil && comp == def {
			return rd
		}
	}
	return nil
}

// fallback returns the fallback of the context, inherited from the
// nearest ancestor that declares one.
func (rc *RouteContext) fallback() string {
	for cur := rc; cur != nil; cur = cur.parent {
		if cur.route != nil && cur.route.Fallback != "" {
			return cur.route.Fallback
		}
		if cur.component != nil && cur.component.Fallback != "" {
			return cur.component.Fallback
		}
	}
	return ""
}

// resolveViewportAgent returns the first available agent that handles req.
func (rc *RouteContext) resolveViewportAgent(req viewportRequest) (*ViewportAgent, error) {
	for _, a := range rc.agents {
		if a.handles(req) {
			return a, nil
		}
	}
	return nil, &ViewportRequestError{Viewport: req.viewport, Component: req.component, Context: rc.FriendlyPath()}
}

// availableViewportAgents returns the agents nothing is scheduled for.
func (rc *RouteContext) availableViewportAgents() []*ViewportAgent {
	var out []*ViewportAgent
	for _, a := range rc.agents {
		if a.isAvailable() {
			out = append(out, a)
		}
	}
	return out
}

// fallbackViewportAgent returns the agent of the named viewport when it is
// available.
func (rc *RouteContext) fallbackViewportAgent(name string) *ViewportAgent {
	for _, a := range rc.agents {
		if a.Name() == name && a.isAvailable() {
			return a
		}
	}
	return nil
}

// createComponentAgent creates the agent of the component that fills node.
// Instances passed in the instruction are used as is.
func (rc *RouteContext) createComponentAgent(_ context.Context, node *RouteNode) (*ComponentAgent, error) {
	if node.Component == nil {
		return nil, fmt.Errorf("%w: node %s has no component", ErrComponentNotFound, node)
	}
	var vm any
	if orig := node.originalInstruction; orig != nil && orig.Component.kind == refInstance {
		vm = orig.Component.Instance()
	} else if node.Component.Factory != nil {
		vm = node.Component.Factory()
	}
	return newComponentAgent(vm, node, rc), nil
}

// generateViewportInstruction builds a recognized instruction for a
// component or route id and params. It picks the first path of the
// matching route whose parameters are all supplied. Positional params
// fill the path parameters in order. Params not used by the path stay on
// the instruction.
func (rc *RouteContext) generateViewportInstruction(ctx context.Context, vi *ViewportInstruction) *ViewportInstruction {
	var rd *RouteDefinition
	switch vi.Component.kind {
	case refName:
		rd = rc.routeByID(vi.Component.Name())
		if rd == nil {
			for _, cand := range rc.routes {
				if cand.IsRedirect() {
					continue
				}
				if cand.ref.kind == refName && cand.ref.Name() == vi.Component.Name() {
					rd = cand
					break
				}
				if def := cand.Component(); def.matches(vi.Component.Name()) {
					rd = cand
					break
				}
			}
		}
	case refDefinition, refInstance:
		rd = rc.routeForComponent(ctx, vi.Component.Definition())
	}
	if rd == nil || rd.IsRedirect() {
		return nil
	}

	for _, p := range rd.Paths {
		path, used, ok := fillPath(p, vi.Params)
		if !ok {
			continue
		}
		rest := Params{}
		for k, v := range vi.Params {
			if !used[k] {
				rest[k] = v
			}
		}
		routeParams := Params{}
		for k := range used {
			if _, err := strconv.Atoi(k); err != nil {
				routeParams[k] = vi.Params[k]
			}
		}
		res := rc.recognizer.Recognize(path)
		if res != nil && res.Endpoint.Handler == rd {
			routeParams = Params(res.Params)
		}
		out := &ViewportInstruction{
			Open:            vi.Open,
			Close:           vi.Close,
			RecognizedRoute: &RecognizedRoute{Route: rd, Params: routeParams.Clone(), pattern: p},
			Component:       ByName(path),
			Viewport:        vi.Viewport,
			Params:          rest.Clone(),
			Children:        cloneInstructions(vi.Children),
		}
		return out
	}
	return nil
}

// fillPath substitutes the parameters of pattern from params. Named
// params win over positional ones. It returns the concrete path and the
// param keys it used.
func fillPath(pattern string, params Params) (string, map[string]bool, bool) {
	used := make(map[string]bool)
	if pattern == "" {
		return "", used, true
	}
	parts := strings.Split(pattern, "/")
	out := make([]string, 0, len(parts))
	pos := 0
	for _, part := range parts {
		var name string
		optional := false
		switch {
		case strings.HasPrefix(part, ":"):
			name = strings.TrimPrefix(part, ":")
			if strings.HasSuffix(name, "?") {
				name = strings.TrimSuffix(name, "?")
				optional = true
			}
		case strings.HasPrefix(part, "*"):
			name = part[1:]
			optional = true
		default:
			out = append(out, part)
			continue
		}
		if v, ok := params[name]; ok {
			out = append(out, v)
			used[name] = true
			continue
		}
		key := strconv.Itoa(pos)
		if v, ok := params[key]; ok {
			out = append(out, v)
			used[key] = true
			pos++
			continue
		}
		if !optional {
			return "", nil, false
		}
	}
	return strings.Join(out, "/"), used, true
}
