package navgraph

import (
	"context"
	"sync"

	"github.com/randalmurphal/navgraph/pkg/navgraph/batch"
)

// ComponentAgent drives the hooks of one component instance.
type ComponentAgent struct {
	instance any
	def      *ComponentDefinition
	ctx      *RouteContext

	mu     sync.Mutex
	node   *RouteNode
	active bool
}

func newComponentAgent(instance any, node *RouteNode, ctx *RouteContext) *ComponentAgent {
	return &ComponentAgent{instance: instance, def: node.Component, ctx: ctx, node: node}
}

// Instance returns the view-model, possibly nil.
func (ca *ComponentAgent) Instance() any { return ca.instance }

// Definition returns the component definition.
func (ca *ComponentAgent) Definition() *ComponentDefinition { return ca.def }

// Node returns the node the agent currently serves.
func (ca *ComponentAgent) Node() *RouteNode {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.node
}

func (ca *ComponentAgent) setNode(n *RouteNode) {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	ca.node = n
}

// IsActive reports whether the instance is mounted.
func (ca *ComponentAgent) IsActive() bool {
	ca.mu.Lock()
	defer ca.mu.Unlock()
	return ca.active
}

// hooks returns the shared hooks for a node: router-wide ones first, then
// the route's.
func (ca *ComponentAgent) hooks(node *RouteNode) []LifecycleHooks {
	shared := ca.ctx.router.hooks
	if node == nil || node.Route == nil || len(node.Route.Hooks) == 0 {
		return shared
	}
	out := make([]LifecycleHooks, 0, len(shared)+len(node.Route.Hooks))
	out = append(out, shared...)
	return append(out, node.Route.Hooks...)
}

func (ca *ComponentAgent) canUnload(tr *Transition, next *RouteNode, b *batch.Batch) {
	b.Push()
	tr.Go(func() error {
		r := ca.ctx.router
		current := ca.Node()
		for _, h := range ca.hooks(current) {
			if h.CanUnload == nil {
				continue
			}
			var ok bool
			err := r.invokeHook(tr, ca.def.Name, "canUnload", func() (err error) {
				ok, err = h.CanUnload(tr.ctx, ca.instance, next, current)
				return err
			})
			if err != nil {
				return err
			}
			if !ok {
				tr.Cancel()
				return nil
			}
		}
		if vm, isGuard := ca.instance.(CanUnloader); isGuard {
			var ok bool
			err := r.invokeHook(tr, ca.def.Name, "canUnload", func() (err error) {
				ok, err = vm.CanUnload(tr.ctx, next, current)
				return err
			})
			if err != nil {
				return err
			}
			if !ok {
				tr.Cancel()
			}
		}
		return nil
	}, b.Pop)
}

func (ca *ComponentAgent) canLoad(tr *Transition, next, current *RouteNode, b *batch.Batch) {
	b.Push()
	tr.Go(func() error {
		r := ca.ctx.router
		for _, h := range ca.hooks(next) {
			if h.CanLoad == nil {
				continue
			}
			var g Guard
			err := r.invokeHook(tr, ca.def.Name, "canLoad", func() (err error) {
				g, err = h.CanLoad(tr.ctx, ca.instance, next.Params, next, current)
				return err
			})
			if err != nil {
				return err
			}
			if !g.Allowed() {
				return ca.applyGuard(tr, g)
			}
		}
		if vm, isGuard := ca.instance.(CanLoader); isGuard {
			var g Guard
			err := r.invokeHook(tr, ca.def.Name, "canLoad", func() (err error) {
				g, err = vm.CanLoad(tr.ctx, next.Params, next, current)
				return err
			})
			if err != nil {
				return err
			}
			if !g.Allowed() {
				return ca.applyGuard(tr, g)
			}
		}
		return nil
	}, b.Pop)
}

// applyGuard records a non-allow guard on the transition. Redirects are
// resolved from the root.
func (ca *ComponentAgent) applyGuard(tr *Transition, g Guard) error {
	if g.deny {
		tr.Cancel()
		return nil
	}
	to, err := ca.ctx.router.CreateViewportInstructions(g.redirect)
	if err != nil {
		return err
	}
	tr.Redirect(to)
	return nil
}

func (ca *ComponentAgent) unloading(tr *Transition, next *RouteNode, b *batch.Batch) {
	b.Push()
	tr.Go(func() error {
		r := ca.ctx.router
		current := ca.Node()
		for _, h := range ca.hooks(current) {
			if h.Unloading == nil {
				continue
			}
			if err := r.invokeHook(tr, ca.def.Name, "unloading", func() error {
				return h.Unloading(tr.ctx, ca.instance, next, current)
			}); err != nil {
				return err
			}
		}
		if vm, ok := ca.instance.(Unloader); ok {
			return r.invokeHook(tr, ca.def.Name, "unloading", func() error {
				return vm.Unloading(tr.ctx, next, current)
			})
		}
		return nil
	}, b.Pop)
}

func (ca *ComponentAgent) loading(tr *Transition, next, current *RouteNode, b *batch.Batch) {
	b.Push()
	tr.Go(func() error {
		r := ca.ctx.router
		for _, h := range ca.hooks(next) {
			if h.Loading == nil {
				continue
			}
			if err := r.invokeHook(tr, ca.def.Name, "loading", func() error {
				return h.Loading(tr.ctx, ca.instance, next.Params, next, current)
			}); err != nil {
				return err
			}
		}
		if vm, ok := ca.instance.(Loader); ok {
			return r.invokeHook(tr, ca.def.Name, "loading", func() error {
				return vm.Loading(tr.ctx, next.Params, next, current)
			})
		}
		return nil
	}, b.Pop)
}

func (ca *ComponentAgent) activate(tr *Transition, b *batch.Batch) {
	b.Push()
	tr.Go(func() error {
		return ca.activateNow(tr.ctx, tr)
	}, b.Pop)
}

func (ca *ComponentAgent) deactivate(tr *Transition, b *batch.Batch) {
	b.Push()
	tr.Go(func() error {
		return ca.deactivateNow(tr.ctx, tr)
	}, b.Pop)
}

// activateNow mounts the instance. tr may be nil during rollback.
func (ca *ComponentAgent) activateNow(ctx context.Context, tr *Transition) error {
	ca.mu.Lock()
	if ca.active {
		ca.mu.Unlock()
		return nil
	}
	ca.active = true
	node := ca.node
	ca.mu.Unlock()

	if vm, ok := ca.instance.(Activator); ok {
		return ca.ctx.router.invokeHook(tr, ca.def.Name, "activate", func() error {
			return vm.Activate(ctx, node)
		})
	}
	return nil
}

// deactivateNow unmounts the instance. tr may be nil during rollback.
func (ca *ComponentAgent) deactivateNow(ctx context.Context, tr *Transition) error {
	ca.mu.Lock()
	if !ca.active {
		ca.mu.Unlock()
		return nil
	}
	ca.active = false
	node := ca.node
	ca.mu.Unlock()

	if vm, ok := ca.instance.(Deactivator); ok {
		return ca.ctx.router.invokeHook(tr, ca.def.Name, "deactivate", func() error {
			return vm.Deactivate(ctx, node)
		})
	}
	return nil
}
