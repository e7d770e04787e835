package navgraph

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/randalmurphal/navgraph/pkg/navgraph/batch"
)

// ViewportAgent owns one viewport of a context. It tracks what the
// viewport shows now and what it is about to show, and drives both through
// the phases of a transition.
//
// Phase steps push onto the batch they are given and pop once their own
// work and that of their descendants completed, so a caller can join the
// whole subtree with a single continuation.
type ViewportAgent struct {
	viewport ViewportConfig
	ctx      *RouteContext

	mu             sync.Mutex
	curr           CurrentPhase
	next           NextPhase
	currNode       *RouteNode
	nextNode       *RouteNode
	curCA          *ComponentAgent
	nextCA         *ComponentAgent
	plan           TransitionPlan
	currTransition *Transition
}

func newViewportAgent(vp ViewportConfig, ctx *RouteContext) *ViewportAgent {
	return &ViewportAgent{viewport: vp, ctx: ctx}
}

// Name returns the viewport name.
func (a *ViewportAgent) Name() string { return a.viewport.name() }

// Viewport returns the viewport configuration.
func (a *ViewportAgent) Viewport() ViewportConfig { return a.viewport }

// Context returns the context that owns the viewport.
func (a *ViewportAgent) Context() *RouteContext { return a.ctx }

// State returns both phases.
func (a *ViewportAgent) State() (CurrentPhase, NextPhase) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.curr, a.next
}

// Plan returns the plan of the transition in progress.
func (a *ViewportAgent) Plan() TransitionPlan {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.plan
}

// CurrentNode returns the node the viewport shows.
func (a *ViewportAgent) CurrentNode() *RouteNode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currNode
}

// NextNode returns the node scheduled for the viewport.
func (a *ViewportAgent) NextNode() *RouteNode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.nextNode
}

// Component returns the agent of the component the viewport shows.
func (a *ViewportAgent) Component() *ComponentAgent {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.curCA
}

// String describes the agent for logs.
func (a *ViewportAgent) String() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("VPA(vp:'%s',state:%s|%s,plan:'%s')", a.Name(), a.curr, a.next, a.plan)
}

func (a *ViewportAgent) snapshot() (curr, next *RouteNode, plan TransitionPlan) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.currNode, a.nextNode, a.plan
}

// unexpected stores a StateError on tr.
func (a *ViewportAgent) unexpected(tr *Transition, op string) {
	a.mu.Lock()
	err := &StateError{Agent: a.describe(), Op: op, Current: a.curr, Next: a.next}
	a.mu.Unlock()
	if tr != nil {
		tr.HandleError(err)
	}
}

func (a *ViewportAgent) describe() string {
	owner := "root"
	if a.ctx != nil && a.ctx.component != nil {
		owner = a.ctx.component.Name
	}
	return owner + "@" + a.Name()
}

func (a *ViewportAgent) moveCurr(tr *Transition, op string, to CurrentPhase) bool {
	a.mu.Lock()
	if !a.curr.canMoveTo(to) {
		a.mu.Unlock()
		a.unexpected(tr, op)
		return false
	}
	a.curr = to
	a.mu.Unlock()
	return true
}

func (a *ViewportAgent) moveNext(tr *Transition, op string, to NextPhase) bool {
	a.mu.Lock()
	if !a.next.canMoveTo(to) {
		a.mu.Unlock()
		a.unexpected(tr, op)
		return false
	}
	a.next = to
	a.mu.Unlock()
	return true
}

// viewportRequest asks for a viewport that can host a component.
type viewportRequest struct {
	viewport  string
	component string
}

func (r viewportRequest) String() string {
	return fmt.Sprintf("VR(viewport:'%s',component:'%s')", r.viewport, r.component)
}

// isAvailable reports whether nothing is scheduled for the viewport yet.
func (a *ViewportAgent) isAvailable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next == NextEmpty
}

// handles reports whether the agent can take the request. An unnamed or
// default request matches any viewport. A viewport restricted with UsedBy
// only takes the components it lists.
func (a *ViewportAgent) handles(req viewportRequest) bool {
	if !a.isAvailable() {
		return false
	}
	if req.viewport != "" && req.viewport != DefaultViewport && req.viewport != a.Name() {
		return false
	}
	if len(a.viewport.UsedBy) > 0 && !slices.Contains(a.viewport.UsedBy, req.component) {
		return false
	}
	return true
}

// scheduleUpdate assigns next to the viewport and decides the plan.
func (a *ViewportAgent) scheduleUpdate(tr *Transition, opts NavigationOptions, next *RouteNode) error {
	parentReplaces := false
	if parent := a.ctx.agent; parent != nil {
		_, pn := parent.State()
		parentReplaces = pn != NextEmpty && parent.Plan() == PlanReplace
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.next != NextEmpty {
		return &StateError{Agent: a.describe(), Op: "scheduleUpdate", Current: a.curr, Next: a.next}
	}
	switch a.curr {
	case CurrentEmpty, CurrentActive, CurrentCanUnload, CurrentCanUnloadDone:
	default:
		return &StateError{Agent: a.describe(), Op: "scheduleUpdate", Current: a.curr, Next: a.next}
	}

	a.nextNode = next
	a.next = NextScheduled
	if a.currTransition == nil {
		a.currTransition = tr
	}

	cur := a.currNode
	switch {
	case cur == nil || a.curCA == nil:
		a.plan = PlanReplace
	case cur.Component != next.Component || cur.Route != next.Route:
		a.plan = PlanReplace
	case parentReplaces:
		a.plan = PlanReplace
	default:
		a.plan = next.Route.transitionPlan(cur, next, opts.TransitionPlan)
	}
	return nil
}

// canUnload asks the current subtree, children first, whether it may be
// left.
func (a *ViewportAgent) canUnload(tr *Transition, b *batch.Batch) {
	a.mu.Lock()
	if a.currTransition == nil {
		a.currTransition = tr
	}
	a.mu.Unlock()
	if !tr.proceed() {
		return
	}

	b.Push()
	batch.Start(func(b1 *batch.Batch) {
		curr, _, _ := a.snapshot()
		if curr == nil {
			return
		}
		for _, child := range curr.children {
			nodeAgent(child).canUnload(tr, b1)
		}
	}).ContinueWith(func(b1 *batch.Batch) {
		curr, _ := a.State()
		switch curr {
		case CurrentActive:
			if !a.moveCurr(tr, "canUnload", CurrentCanUnload) {
				return
			}
			_, next, plan := a.snapshot()
			if plan == PlanNone {
				a.moveCurr(tr, "canUnload", CurrentCanUnloadDone)
				return
			}
			b1.Push()
			batch.Start(func(b2 *batch.Batch) {
				a.Component().canUnload(tr, next, b2)
			}).ContinueWith(func(*batch.Batch) {
				a.moveCurr(tr, "canUnload", CurrentCanUnloadDone)
				b1.Pop()
			}).Start()
		case CurrentEmpty:
		default:
			a.unexpected(tr, "canUnload")
		}
	}).ContinueWith(func(*batch.Batch) {
		b.Pop()
	}).Start()
}

// canLoad asks the next component whether it may be loaded, resolves what
// is left of the path below it and then descends.
func (a *ViewportAgent) canLoad(tr *Transition, b *batch.Batch) {
	if !tr.proceed() {
		return
	}

	b.Push()
	batch.Start(func(b1 *batch.Batch) {
		_, nextPhase := a.State()
		switch nextPhase {
		case NextScheduled:
			if !a.moveNext(tr, "canLoad", NextCanLoad) {
				return
			}
			curr, next, plan := a.snapshot()
			switch plan {
			case PlanNone:
			case PlanInvokeLifecycles:
				a.Component().canLoad(tr, next, curr, b1)
			default:
				tr.Run(func() error {
					ca, err := next.Context.createComponentAgent(tr.ctx, next)
					if err != nil {
						return err
					}
					a.mu.Lock()
					a.nextCA = ca
					a.mu.Unlock()
					ca.canLoad(tr, next, curr, b1)
					return nil
				}, func() {})
			}
		case NextEmpty:
		default:
			a.unexpected(tr, "canLoad")
		}
	}).ContinueWith(func(b1 *batch.Batch) {
		_, nextPhase := a.State()
		if nextPhase != NextCanLoad {
			return
		}
		next := a.NextNode()
		b1.Push()
		tr.Go(func() error {
			return next.Context.router.processResidue(tr, next)
		}, b1.Pop)
	}).ContinueWith(func(b1 *batch.Batch) {
		_, nextPhase := a.State()
		switch nextPhase {
		case NextCanLoad:
			if !a.moveNext(tr, "canLoad", NextCanLoadDone) {
				return
			}
			for _, child := range a.NextNode().children {
				nodeAgent(child).canLoad(tr, b1)
			}
		case NextEmpty:
		default:
			a.unexpected(tr, "canLoad")
		}
	}).ContinueWith(func(*batch.Batch) {
		b.Pop()
	}).Start()
}

// unloading runs the unloading hooks of the current subtree, children
// first.
func (a *ViewportAgent) unloading(tr *Transition, b *batch.Batch) {
	if !tr.proceed() {
		return
	}

	b.Push()
	batch.Start(func(b1 *batch.Batch) {
		curr, _, _ := a.snapshot()
		if curr == nil {
			return
		}
		for _, child := range curr.children {
			nodeAgent(child).unloading(tr, b1)
		}
	}).ContinueWith(func(b1 *batch.Batch) {
		curr, _ := a.State()
		switch curr {
		case CurrentCanUnloadDone:
			if !a.moveCurr(tr, "unloading", CurrentUnload) {
				return
			}
			_, next, plan := a.snapshot()
			if plan == PlanNone {
				a.moveCurr(tr, "unloading", CurrentUnloadDone)
				return
			}
			b1.Push()
			batch.Start(func(b2 *batch.Batch) {
				a.Component().unloading(tr, next, b2)
			}).ContinueWith(func(*batch.Batch) {
				a.moveCurr(tr, "unloading", CurrentUnloadDone)
				b1.Pop()
			}).Start()
		case CurrentEmpty:
		default:
			a.unexpected(tr, "unloading")
		}
	}).ContinueWith(func(*batch.Batch) {
		b.Pop()
	}).Start()
}

// loading runs the loading hook of the next component, then descends.
func (a *ViewportAgent) loading(tr *Transition, b *batch.Batch) {
	if !tr.proceed() {
		return
	}

	b.Push()
	batch.Start(func(b1 *batch.Batch) {
		_, nextPhase := a.State()
		switch nextPhase {
		case NextCanLoadDone:
			if !a.moveNext(tr, "loading", NextLoad) {
				return
			}
			curr, next, plan := a.snapshot()
			switch plan {
			case PlanNone:
			case PlanInvokeLifecycles:
				a.Component().loading(tr, next, curr, b1)
			default:
				a.mu.Lock()
				ca := a.nextCA
				a.mu.Unlock()
				if ca != nil {
					ca.loading(tr, next, curr, b1)
				}
			}
		case NextEmpty:
		default:
			a.unexpected(tr, "loading")
		}
	}).ContinueWith(func(b1 *batch.Batch) {
		_, nextPhase := a.State()
		switch nextPhase {
		case NextLoad:
			if !a.moveNext(tr, "loading", NextLoadDone) {
				return
			}
			for _, child := range a.NextNode().children {
				nodeAgent(child).loading(tr, b1)
			}
		case NextEmpty:
		default:
			a.unexpected(tr, "loading")
		}
	}).ContinueWith(func(*batch.Batch) {
		b.Pop()
	}).Start()
}

// swap exchanges the current occupant for the next one.
func (a *ViewportAgent) swap(tr *Transition, b *batch.Batch) {
	curr, next := a.State()
	if curr == CurrentEmpty {
		a.activate(tr, b)
		return
	}
	if next == NextEmpty {
		a.deactivate(tr, b)
		return
	}
	if !tr.proceed() {
		return
	}
	if curr != CurrentUnloadDone || next != NextLoadDone {
		a.unexpected(tr, "swap")
		return
	}
	if !a.moveCurr(tr, "swap", CurrentDeactivate) || !a.moveNext(tr, "swap", NextActivate) {
		return
	}

	currNode, nextNode, plan := a.snapshot()
	switch plan {
	case PlanNone, PlanInvokeLifecycles:
		for _, node := range mergeNodes(currNode.children, nextNode.children) {
			nodeAgent(node).swap(tr, b)
		}
	default:
		kept := make(map[*ViewportAgent]bool, len(nextNode.children))
		for _, child := range nextNode.children {
			kept[nodeAgent(child)] = true
		}
		b.Push()
		batch.Start(func(b1 *batch.Batch) {
			for _, child := range currNode.children {
				if agent := nodeAgent(child); !kept[agent] {
					agent.swap(tr, b1)
				}
			}
		}).ContinueWith(func(b1 *batch.Batch) {
			if ca := a.Component(); ca != nil {
				ca.deactivate(tr, b1)
			}
		}).ContinueWith(func(b1 *batch.Batch) {
			a.mu.Lock()
			ca := a.nextCA
			a.mu.Unlock()
			if ca != nil {
				ca.activate(tr, b1)
			}
		}).ContinueWith(func(b1 *batch.Batch) {
			for _, child := range nextNode.children {
				nodeAgent(child).swap(tr, b1)
			}
		}).ContinueWith(func(*batch.Batch) {
			b.Pop()
		}).Start()
	}
}

// activate mounts the next occupant into an empty viewport.
func (a *ViewportAgent) activate(tr *Transition, b *batch.Batch) {
	if !tr.proceed() {
		return
	}
	_, next := a.State()
	switch next {
	case NextLoadDone:
		if !a.moveNext(tr, "activate", NextActivate) {
			return
		}
		a.mu.Lock()
		ca, nextNode := a.nextCA, a.nextNode
		a.mu.Unlock()
		b.Push()
		batch.Start(func(b1 *batch.Batch) {
			if ca != nil {
				ca.activate(tr, b1)
			}
		}).ContinueWith(func(b1 *batch.Batch) {
			for _, child := range nextNode.children {
				nodeAgent(child).swap(tr, b1)
			}
		}).ContinueWith(func(*batch.Batch) {
			b.Pop()
		}).Start()
	case NextEmpty:
	default:
		a.unexpected(tr, "activate")
	}
}

// deactivate unmounts the current occupant, leaving the viewport empty.
func (a *ViewportAgent) deactivate(tr *Transition, b *batch.Batch) {
	if !tr.proceed() {
		return
	}
	curr, _ := a.State()
	switch curr {
	case CurrentUnloadDone:
		if !a.moveCurr(tr, "deactivate", CurrentDeactivate) {
			return
		}
		currNode := a.CurrentNode()
		b.Push()
		batch.Start(func(b1 *batch.Batch) {
			for _, child := range currNode.children {
				nodeAgent(child).swap(tr, b1)
			}
		}).ContinueWith(func(b1 *batch.Batch) {
			if ca := a.Component(); ca != nil {
				ca.deactivate(tr, b1)
			}
		}).ContinueWith(func(*batch.Batch) {
			b.Pop()
		}).Start()
	case CurrentEmpty:
	default:
		a.unexpected(tr, "deactivate")
	}
}

// cancelUpdate rolls the agent and its subtree back to what it showed
// before the transition. Components that were already unmounted are
// mounted again and components that were mounted ahead are unmounted.
func (a *ViewportAgent) cancelUpdate(ctx context.Context) {
	currNode, nextNode, _ := a.snapshot()
	var currChildren, nextChildren []*RouteNode
	if currNode != nil {
		currChildren = currNode.children
	}
	if nextNode != nil {
		nextChildren = nextNode.children
	}
	for _, child := range mergeNodes(currChildren, nextChildren) {
		nodeAgent(child).cancelUpdate(ctx)
	}

	a.mu.Lock()
	curCA, nextCA := a.curCA, a.nextCA
	if a.curr != CurrentEmpty {
		a.curr = CurrentActive
	}
	a.next = NextEmpty
	a.nextNode = nil
	a.nextCA = nil
	a.plan = ""
	a.currTransition = nil
	a.mu.Unlock()

	if nextCA != nil && nextCA != curCA && nextCA.IsActive() {
		_ = nextCA.deactivateNow(ctx, nil)
	}
	if curCA != nil && !curCA.IsActive() {
		_ = curCA.activateNow(ctx, nil)
	}
}

// endTransition commits the next side as the current one, for the agent
// and its subtree. Agents not touched by the transition are skipped.
func (a *ViewportAgent) endTransition() {
	currNode, nextNode, _ := a.snapshot()
	var currChildren, nextChildren []*RouteNode
	if currNode != nil {
		currChildren = currNode.children
	}
	if nextNode != nil {
		nextChildren = nextNode.children
	}
	for _, child := range mergeNodes(currChildren, nextChildren) {
		nodeAgent(child).endTransition()
	}

	a.mu.Lock()
	tr := a.currTransition
	if tr == nil {
		a.mu.Unlock()
		return
	}
	ok := true
	switch a.next {
	case NextEmpty:
		switch a.curr {
		case CurrentEmpty, CurrentDeactivate:
			a.curr = CurrentEmpty
			a.currNode = nil
			a.curCA = nil
		default:
			ok = false
		}
	case NextActivate:
		switch a.curr {
		case CurrentEmpty, CurrentDeactivate:
			switch a.plan {
			case PlanNone, PlanInvokeLifecycles:
				a.curCA.setNode(a.nextNode)
			default:
				a.curCA = a.nextCA
			}
			a.curr = CurrentActive
			a.currNode = a.nextNode
		default:
			ok = false
		}
	default:
		ok = false
	}
	if !ok {
		a.mu.Unlock()
		a.unexpected(tr, "endTransition")
		return
	}
	a.next = NextEmpty
	a.nextNode = nil
	a.nextCA = nil
	a.plan = ""
	a.currTransition = nil
	a.mu.Unlock()
}
