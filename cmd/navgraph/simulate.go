package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/navgraph/pkg/navgraph"
	"github.com/randalmurphal/navgraph/pkg/navgraph/config"
	"github.com/randalmurphal/navgraph/pkg/navgraph/event"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate <url>...",
	Short: "Run navigations against the configured route table",
	Long: `Builds a router from --config, performs the initial navigation and then
loads every argument in order. "<" goes back and ">" goes forward in the
simulated history. Every router event and the resulting route tree are
printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		logger, err := newLogger(cmd)
		if err != nil {
			return err
		}
		initial, _ := cmd.Flags().GetString("initial")
		quiet, _ := cmd.Flags().GetBool("quiet")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		sim := simulation{
			out:     cmd.OutOrStdout(),
			cfg:     cfg,
			initial: initial,
			events:  !quiet,
			timeout: timeout,
		}
		opts := []navgraph.Option{navgraph.WithLogger(logger)}
		return sim.run(cmd.Context(), args, opts...)
	},
}

func init() {
	simulateCmd.Flags().String("initial", "/", "URL the simulated location starts at")
	simulateCmd.Flags().BoolP("quiet", "q", false, "Do not print router events")
	simulateCmd.Flags().Duration("timeout", 5*time.Second, "Time allowed for each navigation")
	rootCmd.AddCommand(simulateCmd)
}

type simulation struct {
	out     io.Writer
	cfg     config.RouterConfig
	initial string
	events  bool
	timeout time.Duration
}

func (s simulation) run(ctx context.Context, steps []string, extra ...navgraph.Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	// Events are written from the router's goroutines.
	s.out = &lockedWriter{w: s.out}

	opts, journal, err := navgraph.OptionsFromConfig(s.cfg)
	if err != nil {
		return err
	}
	if journal != nil {
		defer journal.Close()
	}

	loc := history.NewMemoryLocation(s.initial)
	root := &navgraph.ComponentDefinition{Name: "app", Viewports: []navgraph.ViewportConfig{{}}}
	opts = append(opts, navgraph.WithLocation(loc), navgraph.WithComponents(componentsFor(s.cfg.Routes)...))
	opts = append(opts, extra...)

	r, err := navgraph.New(root, opts...)
	if err != nil {
		return err
	}
	defer r.Stop()

	if s.events {
		sub := r.Events().SubscribeAll(event.HandlerFunc(func(_ context.Context, evt event.Event) error {
			fmt.Fprintf(s.out, "  [%s] #%s %s\n", evt.Type(), evt.CorrelationID(), evt.DataBytes())
			return nil
		}))
		defer sub.Unsubscribe()
	}

	fmt.Fprintf(s.out, "start %s\n", s.initial)
	if err := r.Start(ctx, true); err != nil {
		fmt.Fprintf(s.out, "  error: %v\n", err)
	}
	s.report(r, loc)

	var failed bool
	for _, step := range steps {
		if err := s.step(ctx, r, loc, step); err != nil {
			fmt.Fprintf(s.out, "  error: %v\n", err)
			failed = true
		}
		s.report(r, loc)
	}
	if failed {
		return errors.New("one or more navigations failed")
	}
	return nil
}

func (s simulation) step(ctx context.Context, r *navgraph.Router, loc *history.MemoryLocation, step string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	switch step {
	case "<", ">":
		fmt.Fprintf(s.out, "%s\n", map[string]string{"<": "back", ">": "forward"}[step])
		moved := loc.Back
		if step == ">" {
			moved = loc.Forward
		}
		if !moved() {
			fmt.Fprintln(s.out, "  no history entry")
			return nil
		}
		return waitIdle(ctx, r)
	default:
		fmt.Fprintf(s.out, "load %s\n", step)
		ok, err := r.Load(ctx, step)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(s.out, "  not committed")
		}
		return nil
	}
}

func (s simulation) report(r *navgraph.Router, loc *history.MemoryLocation) {
	fmt.Fprintf(s.out, "  url:   %s\n  title: %s\n  tree:  %s\n", loc.Path(), r.Title(), r.RouteTree())
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// waitIdle polls until the router has no transition in flight.
func waitIdle(ctx context.Context, r *navgraph.Router) error {
	tick := time.NewTicker(5 * time.Millisecond)
	defer tick.Stop()
	for r.IsNavigating() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tick.C:
		}
	}
	return nil
}

// componentsFor creates a definition per component name in routes,
// fallbacks included.
// Components with child routes get a default viewport to render them in.
func componentsFor(routes []config.RouteConfig) []*navgraph.ComponentDefinition {
	byName := make(map[string]*navgraph.ComponentDefinition)
	var order []*navgraph.ComponentDefinition
	get := func(name string) *navgraph.ComponentDefinition {
		def, ok := byName[name]
		if !ok {
			def = &navgraph.ComponentDefinition{Name: name}
			byName[name] = def
			order = append(order, def)
		}
		return def
	}
	var walk func([]config.RouteConfig)
	walk = func(routes []config.RouteConfig) {
		for _, rc := range routes {
			if rc.Component != "" {
				def := get(rc.Component)
				if len(rc.Routes) > 0 && len(def.Viewports) == 0 {
					def.Viewports = []navgraph.ViewportConfig{{}}
				}
			}
			if rc.Fallback != "" {
				get(rc.Fallback)
			}
			walk(rc.Routes)
		}
	}
	walk(routes)
	return order
}
