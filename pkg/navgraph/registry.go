package navgraph

import (
	"fmt"
	"sort"
	"sync"
)

// ComponentRegistry resolves component names and aliases to definitions.
// It is safe for concurrent use.
type ComponentRegistry struct {
	mu      sync.RWMutex
	entries map[string]*ComponentDefinition
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{entries: make(map[string]*ComponentDefinition)}
}

// Register adds a definition under its name and aliases.
// A name already taken by another definition is an error.
func (r *ComponentRegistry) Register(def *ComponentDefinition) error {
	if def == nil || def.Name == "" {
		return fmt.Errorf("%w: component definition needs a name", ErrInvalidRoute)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	names := append([]string{def.Name}, def.Aliases...)
	for _, name := range names {
		if existing, ok := r.entries[name]; ok && existing != def {
			return fmt.Errorf("%w: component name %q already registered", ErrInvalidRoute, name)
		}
	}
	for _, name := range names {
		r.entries[name] = def
	}
	return nil
}

// Get returns the definition registered under name.
func (r *ComponentRegistry) Get(name string) (*ComponentDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.entries[name]
	return def, ok
}

// Names returns every registered name and alias, sorted.
func (r *ComponentRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// contextKey identifies a cached route context: the viewport hosting the
// component and the route it was reached through.
type contextKey struct {
	agent *ViewportAgent
	route *RouteDefinition
}

// contextCache holds route contexts so that a component routed into the
// same viewport through the same route keeps its child viewports.
type contextCache struct {
	mu      sync.RWMutex
	entries map[contextKey]*RouteContext
}

func newContextCache() *contextCache {
	return &contextCache{entries: make(map[contextKey]*RouteContext)}
}

// getOrCreate returns the context for key, creating it with factory if it
// doesn't exist. The factory is called at most once per successful key.
func (c *contextCache) getOrCreate(key contextKey, factory func() (*RouteContext, error)) (*RouteContext, error) {
	c.mu.RLock()
	rc, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return rc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if rc, ok := c.entries[key]; ok {
		return rc, nil
	}
	rc, err := factory()
	if err != nil {
		return nil, err
	}
	c.entries[key] = rc
	return rc, nil
}

func (c *contextCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
