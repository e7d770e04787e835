/*
Package navgraph provides a hierarchical navigation router for component
trees.

# Overview

A navgraph router maps URLs onto a tree of components rendered into named
viewports. Every navigation runs as a transition through a fixed pipeline
of phases, with guards that can deny or redirect it:

	canUnload -> canLoad -> unloading -> loading -> swap -> commit

Only one transition runs at a time. Requests made while one is running are
queued, and a newer request replaces the queued one. A guard that denies
rolls every viewport back to what it showed before.

# Basic Usage

Describe components and routes, create a router and navigate:

	type UserPage struct{ ID string }

	func (u *UserPage) Loading(ctx context.Context, p navgraph.Params, next, cur *navgraph.RouteNode) error {
	    u.ID = p["id"]
	    return nil
	}

	root := &navgraph.ComponentDefinition{
	    Name:      "app",
	    Viewports: []navgraph.ViewportConfig{{Default: "home"}},
	    Routes: []navgraph.RouteConfig{
	        {Path: []string{"", "home"}, Component: navgraph.ByName("home")},
	        {Path: []string{"users/:id"}, Component: navgraph.ByName("user")},
	    },
	}

	router, err := navgraph.New(root, navgraph.WithComponents(
	    &navgraph.ComponentDefinition{Name: "home"},
	    &navgraph.ComponentDefinition{Name: "user", Factory: func() any { return &UserPage{} }},
	))
	if err != nil {
	    log.Fatal(err)
	}
	if err := router.Start(ctx, true); err != nil {
	    log.Fatal(err)
	}
	defer router.Stop()

	ok, err := router.Load(ctx, "users/42")

Load reports false when a guard cancelled the navigation and an error when
it failed.

# Instructions

Navigation targets are written in a compact expression form:

	a/b              b loaded inside a
	a+b              a and b as siblings
	a/(b+c)          b and c inside a
	a(id=1,2)        parameters, named or positional
	a@side           a in the viewport named "side"
	../a             a relative to the parent context

Load also accepts component definitions, ComponentRef values and prepared
ViewportInstruction trees.

# Hooks

View-models opt into hooks by implementing CanLoader, Loader,
CanUnloader, Unloader, Activator and Deactivator. LifecycleHooks run for
every component in front of the view-model's own hooks. A CanLoad hook
may return RedirectTo to send the navigation elsewhere.

# Transition Plans

When a viewport keeps its component, the route's TransitionPlan decides
what happens:

  - PlanNone keeps the instance and runs no hooks
  - PlanInvokeLifecycles keeps the instance and runs the load hooks again
  - PlanReplace creates a new instance

# Events

Every transition publishes navigation.start followed by one of
navigation.end, navigation.cancel or navigation.error on the router's
event bus. Events carry the navigation id as correlation id.

# History

Committed transitions are written to a history.Location. Pass
WithJournal to also keep an append-only log of navigations in memory,
SQLite or Redis, and WithRestoreFromJournal to resume from it.
*/
package navgraph
