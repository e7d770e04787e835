package navgraph

import (
	"fmt"
	"slices"
	"strings"
)

// nodeSpec carries what a resolved instruction contributes to a new node.
type nodeSpec struct {
	route       *RouteDefinition
	pattern     string
	routeParams Params
	explicit    Params
	finalPath   string
	viewport    string
	open, close int
	residue     []*ViewportInstruction
	original    *ViewportInstruction
}

// updateRouteTree resolves the transition's instructions into new nodes
// below the root of tr.RouteTree. Only the first level is resolved here;
// deeper levels are resolved by each node's canLoad.
func (r *Router) updateRouteTree(tr *Transition) error {
	tree := tr.RouteTree
	vit := tr.Instructions
	tree.Options = vit.Options
	tree.QueryParams = cloneValues(vit.QueryParams)
	tree.Fragment = vit.Fragment

	root := tree.Root
	root.QueryParams = tree.QueryParams
	root.Fragment = tree.Fragment
	root.Context.setNode(root)
	root.ClearChildren()

	for _, vi := range vit.Children {
		if err := r.createAndAppendNodes(tr, root, vi.Clone()); err != nil {
			return err
		}
	}
	return r.appendDefaults(tr, root)
}

// processResidue resolves the instructions left below node, then loads the
// defaults of the viewports nothing claimed.
func (r *Router) processResidue(tr *Transition, node *RouteNode) error {
	residue := node.residue
	node.residue = nil
	for _, vi := range residue {
		if err := r.createAndAppendNodes(tr, node, vi); err != nil {
			return err
		}
	}
	return r.appendDefaults(tr, node)
}

// appendDefaults fills the available viewports of node's context with
// their default component. A viewport without a default only takes the
// empty-path route, and only when it is the context's first viewport.
func (r *Router) appendDefaults(tr *Transition, node *RouteNode) error {
	ctx := node.Context
	for _, a := range ctx.availableViewportAgents() {
		def := a.Viewport().Default
		if def == "" {
			if a != ctx.agents[0] || ctx.recognizer.Recognize("") == nil {
				continue
			}
		}
		vi := &ViewportInstruction{Component: ByName(def), Viewport: a.Name()}
		if err := r.createAndAppendNodes(tr, node, vi); err != nil {
			return err
		}
	}
	return nil
}

// createAndAppendNodes resolves vi in node's context and appends the
// resulting node.
func (r *Router) createAndAppendNodes(tr *Transition, node *RouteNode, vi *ViewportInstruction) error {
	ctx := node.Context
	switch vi.Component.kind {
	case refName:
		switch vi.Component.Name() {
		case "..":
			target := node
			if ctx.parent != nil {
				if pn := ctx.parent.Node(); pn != nil {
					target = pn
				}
			}
			return r.appendEach(tr, target, vi.Children)
		case ".":
			return r.appendEach(tr, node, vi.Children)
		}
		return r.createNodeForName(tr, node, vi, 0)

	case refDefinition, refInstance, refLazy:
		def, err := vi.Component.resolve(tr.ctx, r.components)
		if err != nil {
			return err
		}
		if ctx.routeForComponent(tr.ctx, def) == nil {
			return r.createDirectNode(tr, node, vi, def, def.Name)
		}
		req := vi.Clone()
		req.Component = ByDefinition(def)
		gen := ctx.generateViewportInstruction(tr.ctx, req)
		if gen == nil {
			return fmt.Errorf("%w: route of %s needs parameters that were not given", ErrInvalidInstruction, def.Name)
		}
		rr := gen.RecognizedRoute
		return r.createConfiguredNode(tr, node, nodeSpec{
			route:       rr.Route,
			pattern:     rr.pattern,
			routeParams: rr.Params,
			explicit:    gen.Params,
			finalPath:   gen.Component.Name(),
			viewport:    gen.Viewport,
			open:        gen.Open,
			close:       gen.Close,
			residue:     gen.Children,
			original:    vi,
		}, 0)
	}
	return fmt.Errorf("%w: empty component reference", ErrInvalidInstruction)
}

func (r *Router) appendEach(tr *Transition, node *RouteNode, children []*ViewportInstruction) error {
	for _, c := range children {
		if err := r.createAndAppendNodes(tr, node, c); err != nil {
			return err
		}
	}
	return nil
}

// createNodeForName resolves a name instruction. Single-child name chains
// ("a/b/c" parsed as nested instructions) are matched as one path so
// multi-segment routes are found. depth counts route redirects.
func (r *Router) createNodeForName(tr *Transition, node *RouteNode, vi *ViewportInstruction, depth int) error {
	ctx := node.Context
	if rr := vi.RecognizedRoute; rr != nil && slices.Contains(ctx.routes, rr.Route) {
		return r.createConfiguredNode(tr, node, nodeSpec{
			route:       rr.Route,
			pattern:     rr.pattern,
			routeParams: rr.Params,
			explicit:    vi.Params,
			finalPath:   vi.Component.Name(),
			viewport:    vi.Viewport,
			open:        vi.Open,
			close:       vi.Close,
			residue:     vi.Children,
			original:    vi,
		}, depth)
	}

	chain := collapse(vi)
	path := chain.path()
	res, _ := ctx.recognize(path, false)
	if res == nil || (res.Consumed == 0 && path != "") {
		if gen := ctx.generateViewportInstruction(tr.ctx, vi); gen != nil {
			rr := gen.RecognizedRoute
			return r.createConfiguredNode(tr, node, nodeSpec{
				route:       rr.Route,
				pattern:     rr.pattern,
				routeParams: rr.Params,
				explicit:    gen.Params,
				finalPath:   gen.Component.Name(),
				viewport:    gen.Viewport,
				open:        gen.Open,
				close:       gen.Close,
				residue:     gen.Children,
				original:    vi,
			}, depth)
		}
		name := vi.Component.Name()
		if name == "" {
			return nil
		}
		if r.cfg.routingMode == RoutingConfiguredFirst {
			if def, ok := r.components.Get(name); ok {
				return r.createDirectNode(tr, node, vi, def, def.Name)
			}
		}
		return r.createFallbackNode(tr, node, vi, path)
	}

	leaf, residue := chain.split(res.Consumed)
	parts := chain.parts()
	return r.createConfiguredNode(tr, node, nodeSpec{
		route:       res.Endpoint.Handler,
		pattern:     res.Endpoint.Pattern,
		routeParams: Params(res.Params),
		explicit:    leaf.Params,
		finalPath:   strings.Join(parts[:res.Consumed], "/"),
		viewport:    leaf.Viewport,
		open:        vi.Open,
		close:       leaf.Close,
		residue:     residue,
		original:    vi,
	}, depth)
}

// createConfiguredNode creates the node of a configured route. Redirect
// routes are followed in the same context.
func (r *Router) createConfiguredNode(tr *Transition, node *RouteNode, s nodeSpec, depth int) error {
	rd := s.route
	if rd.IsRedirect() {
		if depth >= r.cfg.maxRedirects {
			return &RedirectError{Max: r.cfg.maxRedirects, Last: rd.RedirectTo}
		}
		vi := &ViewportInstruction{
			Open:      s.open,
			Close:     s.close,
			Component: ByName(migrateRedirect(s.pattern, rd.RedirectTo, s.routeParams)),
			Viewport:  s.viewport,
			Params:    s.explicit.Clone(),
			Children:  s.residue,
		}
		r.logger.Debug("following route redirect", "from", s.finalPath, "to", vi.Component.Name())
		return r.createNodeForName(tr, node, vi, depth+1)
	}

	def, err := rd.resolveComponent(tr.ctx, r.components)
	if err != nil {
		return err
	}
	return r.appendNode(tr, node, s, def)
}

// createDirectNode routes def without a route config.
func (r *Router) createDirectNode(tr *Transition, node *RouteNode, vi *ViewportInstruction, def *ComponentDefinition, finalPath string) error {
	rd := r.directRouteFor(def)
	return r.appendNode(tr, node, nodeSpec{
		route:     rd,
		pattern:   def.Name,
		explicit:  vi.Params,
		finalPath: finalPath,
		viewport:  vi.Viewport,
		open:      vi.Open,
		close:     vi.Close,
		residue:   vi.Children,
		original:  vi,
	}, def)
}

// createFallbackNode loads the fallback for an unknown path. The node keeps
// the unknown path as its instruction so the URL is preserved.
func (r *Router) createFallbackNode(tr *Transition, node *RouteNode, vi *ViewportInstruction, path string) error {
	ctx := node.Context
	vp := vi.Viewport
	if vp == "" {
		vp = DefaultViewport
	}
	var fb string
	if a := ctx.fallbackViewportAgent(vp); a != nil {
		fb = a.Viewport().Fallback
	}
	if fb == "" {
		fb = ctx.fallback()
	}
	unknown := &UnknownRouteError{Path: path, Context: ctx.FriendlyPath(), Viewport: vi.Viewport}
	if fb == "" {
		return unknown
	}

	s := nodeSpec{
		explicit:  vi.Params,
		finalPath: path,
		viewport:  vi.Viewport,
		open:      vi.Open,
		close:     vi.Close,
		original:  vi,
	}
	if rd := ctx.routeByID(fb); rd != nil {
		s.route = rd
		s.pattern = rd.Paths[0]
		return r.createConfiguredNode(tr, node, s, 0)
	}
	if res, _ := ctx.recognize(fb, true); res != nil && res.Residue == "" {
		s.route = res.Endpoint.Handler
		s.pattern = res.Endpoint.Pattern
		s.routeParams = Params(res.Params)
		return r.createConfiguredNode(tr, node, s, 0)
	}
	if def, ok := r.components.Get(fb); ok {
		direct := vi.Clone()
		direct.Children = nil
		return r.createDirectNode(tr, node, direct, def, path)
	}
	return unknown
}

// appendNode binds the node to a viewport agent and schedules the agent.
func (r *Router) appendNode(tr *Transition, parent *RouteNode, s nodeSpec, def *ComponentDefinition) error {
	ctx := parent.Context
	rd := s.route
	vp := s.viewport
	if vp == "" {
		vp = rd.Viewport
	}
	agent, err := ctx.resolveViewportAgent(viewportRequest{viewport: vp, component: def.Name})
	if err != nil {
		return err
	}
	childCtx, err := r.contexts.getOrCreate(contextKey{agent: agent, route: rd}, func() (*RouteContext, error) {
		return newRouteContext(r, ctx, agent, rd, def)
	})
	if err != nil {
		return err
	}

	title := rd.Title
	if title == "" {
		title = def.Title
	}
	n := &RouteNode{
		ID:          r.nextNodeID(),
		Path:        s.pattern,
		FinalPath:   s.finalPath,
		Context:     childCtx,
		Params:      s.explicit.merge(s.routeParams),
		QueryParams: cloneValues(tr.RouteTree.QueryParams),
		Fragment:    tr.RouteTree.Fragment,
		Data:        rd.Data,
		Viewport:    agent.Name(),
		Title:       title,
		Component:   def,
		Route:       rd,
		instruction: &ViewportInstruction{
			Open:            s.open,
			Close:           s.close,
			RecognizedRoute: &RecognizedRoute{Route: rd, Params: s.routeParams.Clone(), pattern: s.pattern},
			Component:       ByName(s.finalPath),
			Viewport:        s.viewport,
			Params:          s.explicit.Clone(),
		},
		originalInstruction: s.original,
		residue:             s.residue,
	}
	childCtx.setNode(n)
	parent.AppendChild(n)
	return agent.scheduleUpdate(tr, tr.Options, n)
}

// pathLink is one instruction of a collapsed name chain and its segments.
type pathLink struct {
	vi    *ViewportInstruction
	parts []string
}

type pathChain []pathLink

// collapse follows single name children that carry no viewport, params or
// group of their own.
func collapse(vi *ViewportInstruction) pathChain {
	chain := pathChain{{vi: vi, parts: splitPath(vi.Component.Name())}}
	cur := vi
	for len(cur.Children) == 1 && cur.Viewport == "" && len(cur.Params) == 0 && cur.Close == 0 {
		child := cur.Children[0]
		if !child.Component.IsName() || child.Open > 0 {
			break
		}
		name := child.Component.Name()
		if name == "" || name == "." || name == ".." {
			break
		}
		chain = append(chain, pathLink{vi: child, parts: splitPath(name)})
		cur = child
	}
	return chain
}

func splitPath(s string) []string {
	s = strings.Trim(s, "/")
	if s == "" {
		return nil
	}
	return strings.Split(s, "/")
}

func (c pathChain) parts() []string {
	var out []string
	for _, l := range c {
		out = append(out, l.parts...)
	}
	return out
}

func (c pathChain) path() string {
	return strings.Join(c.parts(), "/")
}

// split returns the instruction whose settings apply to the first n
// segments and the instructions left below them. A link consumed only in
// part leaves its remaining segments as a new name instruction.
func (c pathChain) split(n int) (*ViewportInstruction, []*ViewportInstruction) {
	remaining := n
	for _, l := range c {
		if remaining < len(l.parts) {
			rest := l.vi.Clone()
			rest.Component = ByName(strings.Join(l.parts[remaining:], "/"))
			rest.Open = 0
			rest.RecognizedRoute = nil
			return &ViewportInstruction{}, []*ViewportInstruction{rest}
		}
		remaining -= len(l.parts)
		if remaining == 0 {
			return l.vi, l.vi.Children
		}
	}
	last := c[len(c)-1].vi
	return last, last.Children
}

// migrateRedirect fills the dynamic segments of target with the values of
// the dynamic segments of pattern, in order. Unfilled segments are dropped.
func migrateRedirect(pattern, target string, params Params) string {
	var names []string
	for _, seg := range splitPath(pattern) {
		if name, ok := dynamicName(seg); ok {
			names = append(names, name)
		}
	}
	segs := splitPath(target)
	out := make([]string, 0, len(segs))
	i := 0
	for _, seg := range segs {
		if _, ok := dynamicName(seg); !ok {
			out = append(out, seg)
			continue
		}
		if i < len(names) {
			if v, ok := params[names[i]]; ok && v != "" {
				out = append(out, v)
			}
		}
		i++
	}
	return strings.Join(out, "/")
}

func dynamicName(seg string) (string, bool) {
	switch {
	case strings.HasPrefix(seg, ":"):
		return strings.TrimSuffix(seg[1:], "?"), true
	case strings.HasPrefix(seg, "*"):
		return seg[1:], true
	}
	return "", false
}
