package navgraph

import (
	"log/slog"
	"maps"
	"net/url"

	"github.com/randalmurphal/navgraph/pkg/navgraph/event"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
	"github.com/randalmurphal/navgraph/pkg/navgraph/observability"
)

// NavigationOptions tune a single navigation.
type NavigationOptions struct {
	// HistoryStrategy overrides the router default for api navigations.
	HistoryStrategy HistoryStrategy
	// Title overrides the computed document title.
	Title string
	// Context resolves relative instructions. Nil means the root.
	Context     *RouteContext
	QueryParams url.Values
	Fragment    string
	// State is stored with the history entry next to the router's own keys.
	State map[string]any
	// TransitionPlan overrides the plan of viewports that keep their
	// component. Setting it also forces a navigation to the current URL.
	TransitionPlan TransitionPlan
}

// NavigationOption configures one navigation.
type NavigationOption func(*NavigationOptions)

// WithHistory sets the history strategy of the navigation.
func WithHistory(strategy HistoryStrategy) NavigationOption {
	return func(o *NavigationOptions) {
		o.HistoryStrategy = strategy
	}
}

// WithTitle sets the document title of the navigation.
func WithTitle(title string) NavigationOption {
	return func(o *NavigationOptions) {
		o.Title = title
	}
}

// WithContext resolves the instruction relative to ctx.
func WithContext(ctx *RouteContext) NavigationOption {
	return func(o *NavigationOptions) {
		o.Context = ctx
	}
}

// WithQueryParams adds query parameters. Parameters in the path win.
func WithQueryParams(q url.Values) NavigationOption {
	return func(o *NavigationOptions) {
		o.QueryParams = cloneValues(q)
	}
}

// WithFragment sets the URL fragment.
func WithFragment(fragment string) NavigationOption {
	return func(o *NavigationOptions) {
		o.Fragment = fragment
	}
}

// WithState attaches state to the history entry.
func WithState(state map[string]any) NavigationOption {
	return func(o *NavigationOptions) {
		o.State = maps.Clone(state)
	}
}

// WithTransitionPlan overrides the plan of kept components. The override
// also applies to viewports whose path and params did not change, so
// loading the current URL with it reloads them.
func WithTransitionPlan(plan TransitionPlan) NavigationOption {
	return func(o *NavigationOptions) {
		o.TransitionPlan = plan
	}
}

// TitleBuilder computes the document title of a committed transition.
// Returning "" leaves the title unchanged.
type TitleBuilder func(tr *Transition) string

// routerConfig holds router configuration.
type routerConfig struct {
	logger          *slog.Logger
	metrics         observability.MetricsRecorder
	spans           observability.SpanManager
	bus             event.Bus
	location        history.Location
	components      []*ComponentDefinition
	routes          []RouteConfig
	routingMode     RoutingMode
	historyStrategy HistoryStrategy
	useHash         bool
	titleBuilder    TitleBuilder
	titleSeparator  string
	hooks           []LifecycleHooks
	restoreOnError  bool
	maxRedirects    int
	journal         history.Journal
	session         string
	restoreJournal  bool
}

func defaultRouterConfig() routerConfig {
	return routerConfig{
		logger:          slog.Default(),
		metrics:         observability.NoopMetrics{},
		spans:           observability.NoopSpanManager{},
		routingMode:     RoutingConfiguredOnly,
		historyStrategy: HistoryPush,
		titleSeparator:  " | ",
		restoreOnError:  true,
		maxRedirects:    10,
	}
}

// Option configures a Router.
type Option func(*routerConfig)

// WithLogger sets the router's logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *routerConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics enables OpenTelemetry metrics from the global meter
// provider.
func WithMetrics() Option {
	return func(c *routerConfig) {
		c.metrics = observability.NewMetricsRecorder()
	}
}

// WithMetricsRecorder sets a custom metrics recorder.
func WithMetricsRecorder(m observability.MetricsRecorder) Option {
	return func(c *routerConfig) {
		if m != nil {
			c.metrics = m
		}
	}
}

// WithTracing enables OpenTelemetry spans from the global tracer provider.
func WithTracing() Option {
	return func(c *routerConfig) {
		c.spans = observability.NewSpanManager()
	}
}

// WithEventBus publishes navigation events on bus instead of a private
// synchronous bus.
func WithEventBus(bus event.Bus) Option {
	return func(c *routerConfig) {
		c.bus = bus
	}
}

// WithLocation sets the location the router reads and writes. Default: an
// in-memory location at "/".
func WithLocation(loc history.Location) Option {
	return func(c *routerConfig) {
		c.location = loc
	}
}

// WithComponents registers components that can be referenced by name.
func WithComponents(defs ...*ComponentDefinition) Option {
	return func(c *routerConfig) {
		c.components = append(c.components, defs...)
	}
}

// WithRoutes adds top-level routes next to the root component's own.
func WithRoutes(routes ...RouteConfig) Option {
	return func(c *routerConfig) {
		c.routes = append(c.routes, routes...)
	}
}

// WithRoutingMode sets how names that no route matches are handled.
// Default: RoutingConfiguredOnly.
func WithRoutingMode(mode RoutingMode) Option {
	return func(c *routerConfig) {
		c.routingMode = mode
	}
}

// WithHistoryStrategy sets the default history strategy of api
// navigations. Default: HistoryPush.
func WithHistoryStrategy(strategy HistoryStrategy) Option {
	return func(c *routerConfig) {
		c.historyStrategy = strategy
	}
}

// WithHashRouting keeps the route in the URL fragment ("/#/a/b").
func WithHashRouting() Option {
	return func(c *routerConfig) {
		c.useHash = true
	}
}

// WithTitleBuilder replaces the default title computation.
func WithTitleBuilder(fn TitleBuilder) Option {
	return func(c *routerConfig) {
		c.titleBuilder = fn
	}
}

// WithTitleSeparator sets the separator between route titles. Default: " | ".
func WithTitleSeparator(sep string) Option {
	return func(c *routerConfig) {
		c.titleSeparator = sep
	}
}

// WithLifecycleHooks adds hooks that run for every routed component.
func WithLifecycleHooks(hooks ...LifecycleHooks) Option {
	return func(c *routerConfig) {
		c.hooks = append(c.hooks, hooks...)
	}
}

// WithRestoreOnError controls whether the previous URL is written back when
// a browser-triggered navigation fails with an unknown route.
// Default: true.
func WithRestoreOnError(restore bool) Option {
	return func(c *routerConfig) {
		c.restoreOnError = restore
	}
}

// WithMaxRedirects caps guard and route redirects per navigation.
// Default: 10.
func WithMaxRedirects(n int) Option {
	return func(c *routerConfig) {
		if n > 0 {
			c.maxRedirects = n
		}
	}
}

// WithJournal appends every committed navigation to journal under session.
func WithJournal(journal history.Journal, session string) Option {
	return func(c *routerConfig) {
		c.journal = journal
		c.session = session
	}
}

// WithRestoreFromJournal starts at the last journaled URL when the
// location has no path of its own. It requires WithJournal.
func WithRestoreFromJournal() Option {
	return func(c *routerConfig) {
		c.restoreJournal = true
	}
}
