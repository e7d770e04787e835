package navgraph

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/navgraph/pkg/navgraph/event"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
)

func testCtx() context.Context {
	return context.Background()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder collects hook invocations as "component.hook" strings.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

// gate blocks the "slow" user until released.
type gate struct {
	entered     chan struct{}
	release     chan struct{}
	enteredOnce sync.Once
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}), release: make(chan struct{})}
}

// view is a view-model implementing every hook.
type view struct {
	name   string
	rec    *recorder
	gate   *gate
	params Params
	guard  func(Params) Guard
}

func (v *view) CanLoad(ctx context.Context, params Params, next, current *RouteNode) (Guard, error) {
	v.rec.add(v.name + ".canLoad")
	if params["id"] == "slow" && v.gate != nil {
		v.gate.enteredOnce.Do(func() { close(v.gate.entered) })
		<-v.gate.release
	}
	if v.guard != nil {
		return v.guard(params), nil
	}
	return Allow(), nil
}

func (v *view) Loading(ctx context.Context, params Params, next, current *RouteNode) error {
	v.rec.add(v.name + ".loading")
	v.params = params
	return nil
}

func (v *view) CanUnload(ctx context.Context, next, current *RouteNode) (bool, error) {
	v.rec.add(v.name + ".canUnload")
	return true, nil
}

func (v *view) Unloading(ctx context.Context, next, current *RouteNode) error {
	v.rec.add(v.name + ".unloading")
	return nil
}

func (v *view) Activate(ctx context.Context, node *RouteNode) error {
	v.rec.add(v.name + ".activate")
	return nil
}

func (v *view) Deactivate(ctx context.Context, node *RouteNode) error {
	v.rec.add(v.name + ".deactivate")
	return nil
}

// testApp wires a router over a fixed component tree:
//
//	app (title App)
//	  "" | home      -> home (title Home)
//	  users/:id      -> user (denies id 13, blocks on id "slow")
//	  u/:id          -> redirect users/:id
//	  items/:id      -> item (invoke-lifecycles)
//	  admin          -> admin (redirects to login)
//	  login          -> login (title Login)
//	  shell          -> shell with viewports main and side (default menu)
//	    dash, menu
type testApp struct {
	t         *testing.T
	rec       *recorder
	gate      *gate
	loc       *history.MemoryLocation
	router    *Router
	events    *eventLog
	created   map[string]*atomic.Int32
	lastViews sync.Map
}

type appOptions struct {
	url      string
	fallback string
	opts     []Option
}

func newTestApp(t *testing.T, setup ...func(*appOptions)) *testApp {
	t.Helper()
	o := &appOptions{url: "/"}
	for _, fn := range setup {
		fn(o)
	}

	app := &testApp{
		t:       t,
		rec:     &recorder{},
		gate:    newGate(),
		loc:     history.NewMemoryLocation(o.url),
		created: make(map[string]*atomic.Int32),
	}

	guards := map[string]func(Params) Guard{
		"user": func(p Params) Guard {
			if p["id"] == "13" {
				return Deny()
			}
			return Allow()
		},
		"admin": func(Params) Guard { return RedirectTo("login") },
	}
	defs := make([]*ComponentDefinition, 0, 10)
	for _, name := range []string{"home", "user", "item", "admin", "login", "notfound", "dash", "menu"} {
		defs = append(defs, app.component(name, guards[name]))
	}
	shell := app.component("shell", nil)
	shell.Viewports = []ViewportConfig{{Name: "main"}, {Name: "side", Default: "menu"}}
	shell.Routes = []RouteConfig{
		{Path: []string{"dash"}, Component: ByName("dash")},
		{Path: []string{"menu"}, Component: ByName("menu")},
	}
	defs = append(defs, shell)

	root := &ComponentDefinition{
		Name:      "app",
		Title:     "App",
		Fallback:  o.fallback,
		Viewports: []ViewportConfig{{}},
		Routes: []RouteConfig{
			{Path: []string{"", "home"}, Component: ByName("home"), Title: "Home"},
			{Path: []string{"users/:id"}, Component: ByName("user"), Title: "User"},
			{Path: []string{"u/:id"}, RedirectTo: "users/:id"},
			{Path: []string{"items/:id"}, Component: ByName("item"), TransitionPlan: PlanInvokeLifecycles},
			{Path: []string{"admin"}, Component: ByName("admin")},
			{Path: []string{"login"}, Component: ByName("login"), Title: "Login"},
			{Path: []string{"shell"}, Component: ByName("shell")},
		},
	}

	opts := []Option{
		WithLogger(quietLogger()),
		WithLocation(app.loc),
		WithComponents(defs...),
	}
	r, err := New(root, append(opts, o.opts...)...)
	require.NoError(t, err)
	app.router = r
	app.events = newEventLog(r.Events())
	t.Cleanup(r.Stop)
	return app
}

func (a *testApp) component(name string, guard func(Params) Guard) *ComponentDefinition {
	counter := &atomic.Int32{}
	a.created[name] = counter
	return &ComponentDefinition{
		Name: name,
		Factory: func() any {
			counter.Add(1)
			v := &view{name: name, rec: a.rec, gate: a.gate, guard: guard}
			a.lastViews.Store(name, v)
			return v
		},
	}
}

// start performs the initial navigation and clears what it recorded.
func (a *testApp) start() {
	a.t.Helper()
	require.NoError(a.t, a.router.Start(testCtx(), true))
	a.rec.reset()
	a.events.reset()
}

func (a *testApp) load(instruction any, opts ...NavigationOption) bool {
	a.t.Helper()
	ok, err := a.router.Load(testCtx(), instruction, opts...)
	require.NoError(a.t, err)
	return ok
}

// top returns the first child of the committed root.
func (a *testApp) top() *RouteNode {
	children := a.router.RouteTree().Root.Children()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

func (a *testApp) view(name string) *view {
	v, ok := a.lastViews.Load(name)
	if !ok {
		return nil
	}
	return v.(*view)
}

func (a *testApp) instances(name string) int {
	return int(a.created[name].Load())
}

// recordedEvent is the part of a published event the tests look at.
type recordedEvent struct {
	Type          string
	CorrelationID string
	Data          any
}

// eventLog subscribes to every event of a synchronous bus.
type eventLog struct {
	mu     sync.Mutex
	events []recordedEvent
}

func newEventLog(bus event.Bus) *eventLog {
	l := &eventLog{}
	bus.SubscribeAll(event.HandlerFunc(func(_ context.Context, evt event.Event) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.events = append(l.events, recordedEvent{Type: evt.Type(), CorrelationID: evt.CorrelationID(), Data: evt.Data()})
		return nil
	}))
	return l
}

func (l *eventLog) all() []recordedEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]recordedEvent(nil), l.events...)
}

func (l *eventLog) types() []string {
	var out []string
	for _, e := range l.all() {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) count(eventType string) int {
	n := 0
	for _, e := range l.all() {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

func (l *eventLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = nil
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}
