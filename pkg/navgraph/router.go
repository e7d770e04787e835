package navgraph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/randalmurphal/navgraph/pkg/navgraph/event"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
	"github.com/randalmurphal/navgraph/pkg/navgraph/observability"
)

// StateKeyTransitionID is the key of the transition id in the history
// state the router writes.
const StateKeyTransitionID = "navgraph.transition_id"

// Router resolves navigation requests into route trees and drives the
// viewport agents from one tree to the next.
//
// At most one transition runs at a time. A request made while one runs is
// queued; a newer request replaces the queued one.
type Router struct {
	cfg        routerConfig
	logger     *slog.Logger
	bus        event.Bus
	ownsBus    bool
	location   history.Location
	components *ComponentRegistry
	contexts   *contextCache
	hooks      []LifecycleHooks

	root      *ComponentDefinition
	rootRoute *RouteDefinition
	rootCtx   *RouteContext

	trSeq   atomic.Uint64
	nodeSeq atomic.Uint64
	locSeq  atomic.Uint64

	directMu     sync.Mutex
	directRoutes map[*ComponentDefinition]*RouteDefinition

	mu           sync.Mutex
	started      bool
	stopped      bool
	unsubscribe  func()
	currentTr    *Transition
	nextTr       *Transition
	isNavigating bool
	navigated    bool
	routeTree    *RouteTree
	instructions *ViewportInstructionTree
	title        string
}

// New creates a router for the root component.
//
// Example:
//
//	r, err := navgraph.New(app,
//	    navgraph.WithRoutes(navgraph.RouteConfig{Path: []string{"users/:id"}, Component: navgraph.ByDefinition(user)}),
//	    navgraph.WithLocation(history.NewMemoryLocation("/")))
func New(root *ComponentDefinition, opts ...Option) (*Router, error) {
	if root == nil || root.Name == "" {
		return nil, fmt.Errorf("%w: root component needs a name", ErrInvalidRoute)
	}
	cfg := defaultRouterConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.restoreJournal && cfg.journal == nil {
		return nil, fmt.Errorf("%w: journal restore requires a journal", ErrInvalidRoute)
	}

	r := &Router{
		cfg:          cfg,
		logger:       cfg.logger,
		bus:          cfg.bus,
		location:     cfg.location,
		components:   NewComponentRegistry(),
		contexts:     newContextCache(),
		hooks:        cfg.hooks,
		root:         root,
		directRoutes: make(map[*ComponentDefinition]*RouteDefinition),
	}
	if r.bus == nil {
		r.bus = event.NewBus(event.BusConfig{Synchronous: true})
		r.ownsBus = true
	}
	if r.location == nil {
		r.location = history.NewMemoryLocation("/")
	}
	for _, def := range append([]*ComponentDefinition{root}, cfg.components...) {
		if err := r.components.Register(def); err != nil {
			return nil, err
		}
	}

	r.rootRoute = directRoute(root)
	r.rootRoute.routes = cfg.routes
	rootCtx, err := newRouteContext(r, nil, nil, r.rootRoute, root)
	if err != nil {
		return nil, err
	}
	r.rootCtx = rootCtx

	rootNode := &RouteNode{
		ID:          r.nextNodeID(),
		Context:     rootCtx,
		Component:   root,
		Route:       r.rootRoute,
		Title:       root.Title,
		instruction: &ViewportInstruction{Component: ByDefinition(root)},
	}
	rootCtx.setNode(rootNode)
	r.routeTree = newRouteTree(NavigationOptions{}, rootNode)
	r.instructions = &ViewportInstructionTree{IsAbsolute: true}
	return r, nil
}

func (r *Router) nextNodeID() uint64 { return r.nodeSeq.Add(1) }

// directRouteFor returns the route used for a component that is routed
// without a route config. It is created once per component.
func (r *Router) directRouteFor(def *ComponentDefinition) *RouteDefinition {
	r.directMu.Lock()
	defer r.directMu.Unlock()
	if rd, ok := r.directRoutes[def]; ok {
		return rd
	}
	rd := directRoute(def)
	r.directRoutes[def] = rd
	return rd
}

// Start subscribes to location changes and, if performInitialNavigation is
// set, navigates to the location's current URL and waits for the result.
func (r *Router) Start(ctx context.Context, performInitialNavigation bool) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return ErrRouterStopped
	}
	if r.started {
		r.mu.Unlock()
		return nil
	}
	r.started = true
	r.unsubscribe = r.location.Subscribe(r.handleLocationChange)
	r.mu.Unlock()

	if !performInitialNavigation {
		return nil
	}

	path := r.location.Path()
	if r.cfg.restoreJournal && isEmptyURL(path) {
		entry, err := r.cfg.journal.Last(ctx, r.cfg.session)
		switch {
		case err == nil:
			path = entry.URL
			r.logger.Info("restoring navigation from journal", "session", r.cfg.session, "url", path)
		case !errors.Is(err, history.ErrNotFound):
			observability.LogJournalError(r.logger, "last", err)
		}
	}
	vit, err := ParseInstructions(path, r.cfg.useHash, NavigationOptions{HistoryStrategy: HistoryReplace})
	if err != nil {
		return err
	}
	_, err = r.enqueue(ctx, vit, TriggerAPI, nil).Wait(ctx)
	return err
}

func isEmptyURL(u string) bool {
	switch strings.TrimSpace(u) {
	case "", "/", "/#", "/#/", "#", "#/":
		return true
	}
	return false
}

// Stop unsubscribes from the location and rejects the queued transition.
// A transition that is already running completes.
func (r *Router) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	unsubscribe := r.unsubscribe
	queued := r.nextTr
	r.nextTr = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if queued != nil {
		r.publishCancel(queued, ReasonStopped)
		queued.nav.reject(ErrRouterStopped)
	}
	if r.ownsBus {
		if err := r.bus.Close(); err != nil {
			r.logger.Warn("event bus close failed", "error", err)
		}
	}
}

// handleLocationChange turns a browser-side location change into a
// navigation.
func (r *Router) handleLocationChange(ev history.ChangeEvent) {
	ctx := context.Background()
	id := r.locSeq.Add(1)
	publish(ctx, r, EventLocationChange, id, LocationChangeEvent{
		ID:      id,
		URL:     ev.URL,
		Trigger: Trigger(ev.Trigger),
		State:   ev.State,
	})

	vit, err := ParseInstructions(ev.URL, r.cfg.useHash, NavigationOptions{State: ev.State})
	if err != nil {
		r.logger.Warn("ignoring unparsable location", "url", ev.URL, "error", err)
		return
	}
	r.enqueue(ctx, vit, Trigger(ev.Trigger), ev.State)
}

// Load navigates to instruction and waits for the outcome. It reports
// true when the navigation committed and false when it was cancelled,
// superseded or had nothing to do.
//
// instruction may be a route expression string, a *ViewportInstructionTree,
// a *ViewportInstruction, a ComponentRef, a *ComponentDefinition or a []any
// of those (siblings).
func (r *Router) Load(ctx context.Context, instruction any, opts ...NavigationOption) (bool, error) {
	nav, err := r.LoadAsync(ctx, instruction, opts...)
	if err != nil {
		return false, err
	}
	return nav.Wait(ctx)
}

// LoadAsync is Load without waiting.
func (r *Router) LoadAsync(ctx context.Context, instruction any, opts ...NavigationOption) (*Navigation, error) {
	vit, err := r.CreateViewportInstructions(instruction, opts...)
	if err != nil {
		return nil, err
	}
	return r.enqueue(ctx, vit, TriggerAPI, nil), nil
}

// IsActive reports whether instruction is represented in the current
// route tree. Without a context option the instruction is matched at the
// root.
func (r *Router) IsActive(instruction any, opts ...NavigationOption) bool {
	vit, err := r.buildInstructions(instruction, navigationOptions(opts))
	if err != nil {
		return false
	}
	if vit.IsAbsolute {
		vit.Options.Context = nil
	}
	return r.RouteTree().Contains(vit, false)
}

// RouteTree returns the committed route tree.
func (r *Router) RouteTree() *RouteTree {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.routeTree
}

// Instructions returns the instructions of the committed route tree.
func (r *Router) Instructions() *ViewportInstructionTree {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.instructions
}

// IsNavigating reports whether a transition is running.
func (r *Router) IsNavigating() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isNavigating
}

// Title returns the title written with the last committed navigation.
func (r *Router) Title() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.title
}

// Events returns the bus navigation events are published on.
func (r *Router) Events() event.Bus { return r.bus }

// RootContext returns the context of the root component.
func (r *Router) RootContext() *RouteContext { return r.rootCtx }

// Location returns the location the router reads and writes.
func (r *Router) Location() history.Location { return r.location }

// Components returns the component registry.
func (r *Router) Components() *ComponentRegistry { return r.components }

// enqueue schedules a transition for vit and returns its navigation.
func (r *Router) enqueue(ctx context.Context, vit *ViewportInstructionTree, trigger Trigger, state map[string]any) *Navigation {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		nav := newNavigation(0)
		nav.reject(ErrRouterStopped)
		return nav
	}

	// A browser-side change repeating the last api request is the echo of
	// our own history write. A denied or failed request wrote nothing, so
	// a repeat of it is a real navigation.
	last := r.currentTr
	if trigger != TriggerAPI && last != nil && last.Trigger == TriggerAPI &&
		(r.isNavigating || last.proceed()) && last.Instructions.sameRequest(vit) {
		r.mu.Unlock()
		r.logger.Debug("ignoring location echo", "transition_id", last.ID, "trigger", string(trigger))
		nav := newNavigation(last.ID)
		nav.resolve(true)
		return nav
	}

	if trigger == TriggerAPI {
		if q := r.nextTr; q != nil && q.Trigger == TriggerAPI && q.Instructions.sameRequest(vit) {
			r.mu.Unlock()
			return q.nav
		}
		if r.isNavigating && r.nextTr == nil && last != nil && last.Trigger == TriggerAPI && last.Instructions.sameRequest(vit) {
			r.mu.Unlock()
			return last.nav
		}
	}

	tr := r.newTransition(ctx, vit, trigger, state, nil, 0)
	superseded, start := r.scheduleLocked(tr)
	r.mu.Unlock()

	if superseded != nil {
		r.publishCancel(superseded, ReasonSuperseded)
		superseded.nav.resolve(false)
	}
	if start {
		go r.run(tr)
	}
	return tr.nav
}

// newTransition creates a transition. nav is shared with the transition
// being redirected, if any.
func (r *Router) newTransition(ctx context.Context, vit *ViewportInstructionTree, trigger Trigger, state map[string]any, nav *Navigation, redirects int) *Transition {
	id := r.trSeq.Add(1)
	if nav == nil {
		nav = newNavigation(id)
	}
	managed := maps.Clone(vit.Options.State)
	if managed == nil {
		managed = make(map[string]any, len(state)+1)
	}
	maps.Copy(managed, state)
	managed[StateKeyTransitionID] = id
	return &Transition{
		ID:           id,
		Trigger:      trigger,
		Options:      vit.Options,
		ManagedState: managed,
		Instructions: vit,
		ctx:          context.WithoutCancel(ctx),
		nav:          nav,
		redirects:    redirects,
		started:      time.Now(),
	}
}

// scheduleLocked makes tr the running transition if none runs, else the
// queued one. It returns the queued transition tr replaced. r.mu must be
// held.
func (r *Router) scheduleLocked(tr *Transition) (superseded *Transition, start bool) {
	if r.isNavigating {
		superseded = r.nextTr
		r.nextTr = tr
		return superseded, false
	}
	r.isNavigating = true
	r.currentTr = tr
	return nil, true
}

// finish releases the router after tr settled and starts the queued
// transition, if any.
func (r *Router) finish(tr *Transition) {
	r.mu.Lock()
	next := r.nextTr
	r.nextTr = nil
	if next == nil || r.stopped {
		r.isNavigating = false
		r.mu.Unlock()
		return
	}
	r.currentTr = next
	r.mu.Unlock()

	r.logger.Debug("dequeuing transition", "previous", tr.ID, "transition_id", next.ID)
	go r.run(next)
}

// invokeHook runs one hook, records its metrics and wraps its error. tr
// is nil during rollback.
func (r *Router) invokeHook(tr *Transition, component, hook string, fn func() error) error {
	ctx := context.Background()
	if tr != nil {
		ctx = tr.ctx
	}
	done := observability.TimedOperation()
	err := fn()
	elapsed := done()
	r.cfg.metrics.RecordHook(ctx, hook, component, elapsed, err)
	if err != nil {
		observability.LogHookError(r.logger, component, hook, err)
		return &HookError{Component: component, Hook: hook, Err: err}
	}
	observability.LogHookComplete(r.logger, component, hook, elapsed)
	return nil
}

func navigationOptions(opts []NavigationOption) NavigationOptions {
	var o NavigationOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// CreateViewportInstructions builds an absolute instruction tree from
// instruction. Instructions relative to a context are rebased onto the
// committed tree.
func (r *Router) CreateViewportInstructions(instruction any, opts ...NavigationOption) (*ViewportInstructionTree, error) {
	vit, err := r.buildInstructions(instruction, navigationOptions(opts))
	if err != nil {
		return nil, err
	}
	return r.toAbsolute(vit)
}

// buildInstructions converts any supported instruction form into a tree
// without rebasing it.
func (r *Router) buildInstructions(instruction any, o NavigationOptions) (*ViewportInstructionTree, error) {
	switch v := instruction.(type) {
	case *ViewportInstructionTree:
		if v == nil {
			return nil, fmt.Errorf("%w: nil instruction tree", ErrInvalidInstruction)
		}
		vit := v.Clone()
		if o.Context != nil {
			vit.Options.Context = o.Context
		}
		return vit, nil
	case string:
		return ParseInstructions(v, false, o)
	}

	children, err := r.toViewportInstructions(instruction)
	if err != nil {
		return nil, err
	}
	return &ViewportInstructionTree{
		Options:     o,
		IsAbsolute:  o.Context == nil,
		Children:    children,
		QueryParams: cloneValues(o.QueryParams),
		Fragment:    o.Fragment,
	}, nil
}

func (r *Router) toViewportInstructions(instruction any) ([]*ViewportInstruction, error) {
	switch v := instruction.(type) {
	case *ViewportInstruction:
		if v == nil {
			return nil, fmt.Errorf("%w: nil instruction", ErrInvalidInstruction)
		}
		return []*ViewportInstruction{v.Clone()}, nil
	case ViewportInstruction:
		return []*ViewportInstruction{v.Clone()}, nil
	case ComponentRef:
		if v.IsZero() {
			return nil, fmt.Errorf("%w: empty component reference", ErrInvalidInstruction)
		}
		return []*ViewportInstruction{{Component: v}}, nil
	case *ComponentDefinition:
		if v == nil {
			return nil, fmt.Errorf("%w: nil component definition", ErrInvalidInstruction)
		}
		return []*ViewportInstruction{{Component: ByDefinition(v)}}, nil
	case string:
		vit, err := ParseInstructions(v, false, NavigationOptions{})
		if err != nil {
			return nil, err
		}
		return vit.Children, nil
	case []any:
		var out []*ViewportInstruction
		for _, item := range v {
			children, err := r.toViewportInstructions(item)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
		return out, nil
	case []string:
		var out []*ViewportInstruction
		for _, item := range v {
			children, err := r.toViewportInstructions(item)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: unsupported instruction type %T", ErrInvalidInstruction, instruction)
	}
}

// toAbsolute rebases a tree that is relative to a context onto the
// committed tree: the instructions replace the children of the node that
// fills the context. Leading ".." move to the parent context.
func (r *Router) toAbsolute(vit *ViewportInstructionTree) (*ViewportInstructionTree, error) {
	ctx := vit.Options.Context
	vit.Options.Context = nil
	if vit.IsAbsolute || ctx == nil || ctx.IsRoot() {
		vit.IsAbsolute = true
		return vit, nil
	}
	vit.IsAbsolute = true

	children := vit.Children
	for len(children) == 1 && children[0].Component.IsName() {
		name := children[0].Component.Name()
		if name != ".." && name != "." {
			break
		}
		if name == ".." && ctx.parent != nil {
			ctx = ctx.parent
		}
		children = children[0].Children
	}
	if ctx.IsRoot() {
		vit.Children = children
		return vit, nil
	}

	live := r.RouteTree()
	found := false
	rebased := make([]*ViewportInstruction, 0, len(live.Root.children))
	for _, n := range live.Root.children {
		vi, ok := rebaseAt(n, ctx, children)
		found = found || ok
		rebased = append(rebased, vi)
	}
	if !found {
		return nil, fmt.Errorf("%w: context %s is not active", ErrInvalidInstruction, ctx.FriendlyPath())
	}
	vit.Children = rebased
	return vit, nil
}

// rebaseAt copies the instruction of n and its descendants, replacing the
// children of the node that fills ctx.
func rebaseAt(n *RouteNode, ctx *RouteContext, children []*ViewportInstruction) (*ViewportInstruction, bool) {
	vi := n.instruction.Clone()
	vi.Children = nil
	if n.Context == ctx {
		vi.Children = cloneInstructions(children)
		return vi, true
	}
	found := false
	for _, child := range n.children {
		c, ok := rebaseAt(child, ctx, children)
		found = found || ok
		vi.Children = append(vi.Children, c)
	}
	return vi, found
}
