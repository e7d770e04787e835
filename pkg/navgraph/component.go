package navgraph

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"sync"
)

// ComponentDefinition describes a routable component.
type ComponentDefinition struct {
	// Name is the canonical component name used in URLs.
	Name string
	// Aliases are additional names the component can be referenced by.
	Aliases []string
	// Factory creates a fresh view-model for every activation. A nil
	// Factory gives the component no view-model, so only shared hooks run.
	Factory func() any
	// Viewports are the outlets the component renders its children into.
	Viewports []ViewportConfig
	// Routes are the child routes available inside the component.
	Routes []RouteConfig
	// Title is used when the component is routed without a route title.
	Title string
	// Fallback is the component or route id used for unknown child paths.
	Fallback string
}

// matches reports whether name refers to d.
func (d *ComponentDefinition) matches(name string) bool {
	return d != nil && (d.Name == name || slices.Contains(d.Aliases, name))
}

// ViewportConfig declares one outlet of a component.
type ViewportConfig struct {
	// Name defaults to DefaultViewport.
	Name string
	// UsedBy restricts the components the viewport accepts. Empty accepts all.
	UsedBy []string
	// Default is loaded when no instruction claims the viewport.
	Default string
	// Fallback is loaded for unknown paths targeting the viewport.
	Fallback string
}

func (v ViewportConfig) name() string {
	if v.Name == "" {
		return DefaultViewport
	}
	return v.Name
}

type refKind int

const (
	refNone refKind = iota
	refName
	refDefinition
	refInstance
	refLazy
)

// ComponentRef references a component by name, definition, live instance
// or lazy loader. The zero value references nothing.
type ComponentRef struct {
	kind     refKind
	name     string
	def      *ComponentDefinition
	instance any
	lazy     *lazyComponent
}

type lazyComponent struct {
	load func(ctx context.Context) (*ComponentDefinition, error)
	mu   sync.Mutex
	done bool
	def  *ComponentDefinition
	err  error
}

// ByName references a component by name. Names are resolved through the
// router's component registry or, in paths, through the route table.
func ByName(name string) ComponentRef {
	return ComponentRef{kind: refName, name: name}
}

// ByDefinition references a component definition directly.
func ByDefinition(def *ComponentDefinition) ComponentRef {
	return ComponentRef{kind: refDefinition, def: def}
}

// ComponentInstance references an existing view-model. The instance is used
// instead of calling the definition's Factory.
func ComponentInstance(def *ComponentDefinition, vm any) ComponentRef {
	return ComponentRef{kind: refInstance, def: def, instance: vm}
}

// Lazy references a component whose definition is produced on first use.
// The loader runs at most once per reference.
func Lazy(load func(ctx context.Context) (*ComponentDefinition, error)) ComponentRef {
	return ComponentRef{kind: refLazy, lazy: &lazyComponent{load: load}}
}

// IsZero reports whether the reference is empty.
func (r ComponentRef) IsZero() bool { return r.kind == refNone }

// Name returns the referenced name, the definition's name, or "" for an
// unresolved lazy reference.
func (r ComponentRef) Name() string {
	switch r.kind {
	case refName:
		return r.name
	case refDefinition, refInstance:
		if r.def != nil {
			return r.def.Name
		}
	case refLazy:
		if def := r.lazy.resolved(); def != nil {
			return def.Name
		}
	}
	return ""
}

// IsName reports whether r is a name reference.
func (r ComponentRef) IsName() bool { return r.kind == refName }

// Definition returns the referenced definition, if it is known without
// resolving anything.
func (r ComponentRef) Definition() *ComponentDefinition {
	switch r.kind {
	case refDefinition, refInstance:
		return r.def
	case refLazy:
		return r.lazy.resolved()
	}
	return nil
}

// Instance returns the view-model of an instance reference.
func (r ComponentRef) Instance() any { return r.instance }

// Equals compares references. Names compare by string, definitions by
// pointer, instances by identity and lazy references by their resolved
// definition (or by loader when unresolved). A name equals a definition it
// names.
func (r ComponentRef) Equals(other ComponentRef) bool {
	if r.kind == refInstance || other.kind == refInstance {
		return r.kind == other.kind && sameInstance(r.instance, other.instance)
	}
	if r.kind == refLazy && other.kind == refLazy && r.lazy == other.lazy {
		return true
	}
	switch {
	case r.kind == refNone || other.kind == refNone:
		return r.kind == other.kind
	case r.kind == refName && other.kind == refName:
		return r.name == other.name
	case r.kind == refName:
		return other.Definition().matches(r.name)
	case other.kind == refName:
		return r.Definition().matches(other.name)
	}
	a, b := r.Definition(), other.Definition()
	return a != nil && a == b
}

// String returns the name form of the reference.
func (r ComponentRef) String() string {
	if n := r.Name(); n != "" {
		return n
	}
	if r.kind == refLazy {
		return "<lazy>"
	}
	return ""
}

// resolve returns the definition r refers to.
func (r ComponentRef) resolve(ctx context.Context, components *ComponentRegistry) (*ComponentDefinition, error) {
	switch r.kind {
	case refName:
		if def, ok := components.Get(r.name); ok {
			return def, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrComponentNotFound, r.name)
	case refDefinition, refInstance:
		if r.def == nil {
			return nil, fmt.Errorf("%w: nil component definition", ErrInvalidInstruction)
		}
		return r.def, nil
	case refLazy:
		return r.lazy.get(ctx)
	default:
		return nil, fmt.Errorf("%w: empty component reference", ErrInvalidInstruction)
	}
}

func (l *lazyComponent) get(ctx context.Context) (*ComponentDefinition, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.done {
		l.def, l.err = l.load(ctx)
		if l.err == nil && l.def == nil {
			l.err = fmt.Errorf("%w: lazy loader returned no definition", ErrInvalidInstruction)
		}
		l.done = true
	}
	return l.def, l.err
}

// resolved returns the definition if the loader has already succeeded.
func (l *lazyComponent) resolved() *ComponentDefinition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.def
}

func sameInstance(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}
