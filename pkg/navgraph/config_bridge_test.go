package navgraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/navgraph/pkg/navgraph/config"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
)

const routerYAML = `
history_strategy: replace
title_separator: " - "
max_redirects: 4
restore_on_error: true
journal:
  driver: memory
  session: docs
routes:
  - path: ["", "home"]
    component: home
    title: Home
  - path: ["old/:id"]
    redirect_to: "users/:id"
  - path: ["users/:id"]
    component: user
    title: User
    transition_plan: invoke-lifecycles
`

func TestOptionsFromConfig(t *testing.T) {
	cfg, err := config.FromYAML([]byte(routerYAML))
	require.NoError(t, err)

	opts, journal, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, journal)
	defer journal.Close()

	loc := history.NewMemoryLocation("/")
	home := &ComponentDefinition{Name: "home"}
	user := &ComponentDefinition{Name: "user"}
	root := &ComponentDefinition{Name: "app", Title: "App", Viewports: []ViewportConfig{{}}}

	r, err := New(root, append(opts, WithLogger(quietLogger()), WithLocation(loc), WithComponents(home, user))...)
	require.NoError(t, err)
	defer r.Stop()
	require.NoError(t, r.Start(testCtx(), true))

	ok, err := r.Load(testCtx(), "old/3")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, "/users/3", loc.Path())
	assert.Equal(t, 1, loc.Len(), "history_strategy replace")
	assert.Equal(t, "User - App", r.Title())

	last, err := journal.Last(testCtx(), "docs")
	require.NoError(t, err)
	assert.Equal(t, "/users/3", last.URL)

	route := r.RouteTree().Root.Children()[0].Route
	assert.Equal(t, PlanInvokeLifecycles, route.TransitionPlan)
}

func TestOptionsFromConfig_Invalid(t *testing.T) {
	cfg := config.Default()
	cfg.RoutingMode = "sometimes"

	_, _, err := OptionsFromConfig(cfg)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestRoutesFromConfig(t *testing.T) {
	routes := RoutesFromConfig([]config.RouteConfig{
		{
			ID:        "docs",
			Path:      []string{"docs"},
			Component: "docs",
			Routes:    []config.RouteConfig{{Path: []string{"intro"}, Component: "intro"}},
		},
		{Path: []string{"old"}, RedirectTo: "docs"},
	})

	require.Len(t, routes, 2)
	assert.Equal(t, "docs", routes[0].ID)
	assert.Equal(t, "docs", routes[0].Component.Name())
	require.Len(t, routes[0].Routes, 1)
	assert.Equal(t, "intro", routes[0].Routes[0].Component.Name())
	assert.True(t, routes[1].Component.IsZero())
	assert.Equal(t, "docs", routes[1].RedirectTo)

	assert.Nil(t, RoutesFromConfig(nil))
}
