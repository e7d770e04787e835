package navgraph

import (
	"fmt"

	"github.com/randalmurphal/navgraph/pkg/navgraph/config"
	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
)

// OptionsFromConfig turns a declarative router config into router options.
// When the config selects a journal it is opened and returned; the caller
// owns it and must close it after the router stopped.
func OptionsFromConfig(cfg config.RouterConfig) ([]Option, history.Journal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	opts := []Option{
		WithHistoryStrategy(HistoryStrategy(cfg.HistoryStrategy)),
		WithRoutingMode(RoutingMode(cfg.RoutingMode)),
		WithRestoreOnError(cfg.RestoreOnError),
		WithRoutes(RoutesFromConfig(cfg.Routes)...),
	}
	if cfg.UseURLFragmentHash {
		opts = append(opts, WithHashRouting())
	}
	if cfg.TitleSeparator != "" {
		opts = append(opts, WithTitleSeparator(cfg.TitleSeparator))
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, WithMaxRedirects(cfg.MaxRedirects))
	}

	journal, err := cfg.Journal.OpenJournal()
	if err != nil {
		return nil, nil, fmt.Errorf("open journal: %w", err)
	}
	if journal != nil {
		session := cfg.Journal.Session
		if session == "" {
			session = "default"
		}
		opts = append(opts, WithJournal(journal, session))
		if cfg.Journal.Restore {
			opts = append(opts, WithRestoreFromJournal())
		}
	}
	return opts, journal, nil
}

// RoutesFromConfig converts declarative routes. Components are referenced
// by name and resolved through the component registry on first use.
func RoutesFromConfig(routes []config.RouteConfig) []RouteConfig {
	if len(routes) == 0 {
		return nil
	}
	out := make([]RouteConfig, 0, len(routes))
	for _, rc := range routes {
		route := RouteConfig{
			ID:             rc.ID,
			Path:           rc.Path,
			RedirectTo:     rc.RedirectTo,
			Title:          rc.Title,
			Viewport:       rc.Viewport,
			Fallback:       rc.Fallback,
			CaseSensitive:  rc.CaseSensitive,
			TransitionPlan: TransitionPlan(rc.TransitionPlan),
			Data:           rc.Data,
			Routes:         RoutesFromConfig(rc.Routes),
		}
		if rc.Component != "" {
			route.Component = ByName(rc.Component)
		}
		out = append(out, route)
	}
	return out
}
