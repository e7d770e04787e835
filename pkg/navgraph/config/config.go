package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/navgraph/pkg/navgraph/history"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid router config")

// Accepted values for enumerated settings.
var (
	HistoryStrategies = []string{"push", "replace", "none"}
	RoutingModes      = []string{"configured-only", "configured-first"}
	TransitionPlans   = []string{"", "none", "invoke-lifecycles", "replace"}
	JournalDrivers    = []string{"", "memory", "sqlite", "redis"}
)

// RouterConfig is the declarative form of a router setup.
type RouterConfig struct {
	HistoryStrategy    string        `mapstructure:"history_strategy" json:"history_strategy"`
	RoutingMode        string        `mapstructure:"routing_mode" json:"routing_mode"`
	UseURLFragmentHash bool          `mapstructure:"use_url_fragment_hash" json:"use_url_fragment_hash"`
	TitleSeparator     string        `mapstructure:"title_separator" json:"title_separator"`
	MaxRedirects       int           `mapstructure:"max_redirects" json:"max_redirects"`
	RestoreOnError     bool          `mapstructure:"restore_on_error" json:"restore_on_error"`
	Journal            JournalConfig `mapstructure:"journal" json:"journal"`
	Routes             []RouteConfig `mapstructure:"routes" json:"routes"`
}

// RouteConfig declares one route. Component names are resolved through the
// router's component registry.
type RouteConfig struct {
	ID             string         `mapstructure:"id" json:"id,omitempty"`
	Path           []string       `mapstructure:"path" json:"path"`
	Component      string         `mapstructure:"component" json:"component,omitempty"`
	Title          string         `mapstructure:"title" json:"title,omitempty"`
	RedirectTo     string         `mapstructure:"redirect_to" json:"redirect_to,omitempty"`
	Viewport       string         `mapstructure:"viewport" json:"viewport,omitempty"`
	Fallback       string         `mapstructure:"fallback" json:"fallback,omitempty"`
	CaseSensitive  bool           `mapstructure:"case_sensitive" json:"case_sensitive,omitempty"`
	TransitionPlan string         `mapstructure:"transition_plan" json:"transition_plan,omitempty"`
	Data           map[string]any `mapstructure:"data" json:"data,omitempty"`
	Routes         []RouteConfig  `mapstructure:"routes" json:"routes,omitempty"`
}

// JournalConfig selects and configures a navigation journal.
type JournalConfig struct {
	Driver   string        `mapstructure:"driver" json:"driver"`
	Session  string        `mapstructure:"session" json:"session"`
	Restore  bool          `mapstructure:"restore" json:"restore"`
	Path     string        `mapstructure:"path" json:"path,omitempty"`
	Address  string        `mapstructure:"address" json:"address,omitempty"`
	Password string        `mapstructure:"password" json:"password,omitempty"`
	DB       int           `mapstructure:"db" json:"db,omitempty"`
	Prefix   string        `mapstructure:"prefix" json:"prefix,omitempty"`
	TTL      time.Duration `mapstructure:"ttl" json:"ttl,omitempty"`
}

// Default returns the configuration used for unset fields.
func Default() RouterConfig {
	return RouterConfig{
		HistoryStrategy: "push",
		RoutingMode:     "configured-only",
		TitleSeparator:  " | ",
		MaxRedirects:    10,
		Journal:         JournalConfig{Session: "default"},
	}
}

// Validate checks enumerated values and route shapes.
func (c RouterConfig) Validate() error {
	if !oneOf(c.HistoryStrategy, HistoryStrategies) {
		return fmt.Errorf("%w: history_strategy %q (want one of %s)", ErrInvalidConfig, c.HistoryStrategy, strings.Join(HistoryStrategies, ", "))
	}
	if !oneOf(c.RoutingMode, RoutingModes) {
		return fmt.Errorf("%w: routing_mode %q (want one of %s)", ErrInvalidConfig, c.RoutingMode, strings.Join(RoutingModes, ", "))
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("%w: max_redirects must not be negative", ErrInvalidConfig)
	}
	if !oneOf(c.Journal.Driver, JournalDrivers) {
		return fmt.Errorf("%w: journal.driver %q", ErrInvalidConfig, c.Journal.Driver)
	}
	if c.Journal.Driver == "sqlite" && c.Journal.Path == "" {
		return fmt.Errorf("%w: journal.path is required for sqlite", ErrInvalidConfig)
	}
	if c.Journal.Driver == "redis" && c.Journal.Address == "" {
		return fmt.Errorf("%w: journal.address is required for redis", ErrInvalidConfig)
	}
	return validateRoutes(c.Routes, "routes")
}

func validateRoutes(routes []RouteConfig, where string) error {
	for i, r := range routes {
		loc := fmt.Sprintf("%s[%d]", where, i)
		if r.Component == "" && r.RedirectTo == "" {
			return fmt.Errorf("%w: %s needs a component or redirect_to", ErrInvalidConfig, loc)
		}
		if r.Component != "" && r.RedirectTo != "" {
			return fmt.Errorf("%w: %s cannot have both component and redirect_to", ErrInvalidConfig, loc)
		}
		if !oneOf(r.TransitionPlan, TransitionPlans) {
			return fmt.Errorf("%w: %s transition_plan %q", ErrInvalidConfig, loc, r.TransitionPlan)
		}
		if err := validateRoutes(r.Routes, loc+".routes"); err != nil {
			return err
		}
	}
	return nil
}

// OpenJournal creates the journal selected by the config, or returns nil
// when no driver is set.
func (j JournalConfig) OpenJournal() (history.Journal, error) {
	switch j.Driver {
	case "":
		return nil, nil
	case "memory":
		return history.NewMemoryJournal(), nil
	case "sqlite":
		return history.NewSQLiteJournal(j.Path)
	case "redis":
		var opts []history.RedisOption
		if j.Prefix != "" {
			opts = append(opts, history.WithPrefix(j.Prefix))
		}
		if j.TTL > 0 {
			opts = append(opts, history.WithTTL(j.TTL))
		}
		return history.NewRedisJournal(j.Address, j.Password, j.DB, opts...), nil
	default:
		return nil, fmt.Errorf("%w: journal.driver %q", ErrInvalidConfig, j.Driver)
	}
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}
