package expr

import (
	"net/url"
	"strconv"
	"strings"
)

// Kind identifies the concrete type of a Node.
type Kind int

// Node kinds.
const (
	KindComposite Kind = iota
	KindScoped
	KindGroup
	KindSegment
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindComposite:
		return "CompositeSegment"
	case KindScoped:
		return "ScopedSegment"
	case KindGroup:
		return "SegmentGroup"
	case KindSegment:
		return "Segment"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a segment-level AST node.
type Node interface {
	Kind() Kind
	// Raw returns the exact input text the node was parsed from.
	Raw() string
}

// RouteExpression is the root of a parsed route.
type RouteExpression struct {
	raw             string
	IsAbsolute      bool
	Root            Node
	QueryParams     url.Values
	Fragment        string
	HasFragment     bool
	FragmentIsRoute bool
}

// Raw returns the route text without query and fragment, including a
// leading '/' for absolute routes.
func (r *RouteExpression) Raw() string { return r.raw }

// String renders the expression in normalized form.
func (r *RouteExpression) String() string {
	var sb strings.Builder
	sb.WriteString(r.raw)
	if len(r.QueryParams) > 0 {
		sb.WriteByte('?')
		sb.WriteString(r.QueryParams.Encode())
	}
	if r.HasFragment {
		sb.WriteByte('#')
		sb.WriteString(r.Fragment)
	}
	return sb.String()
}

// CompositeSegment is a list of siblings joined by '+'.
type CompositeSegment struct {
	raw      string
	Siblings []Node
}

func (*CompositeSegment) Kind() Kind    { return KindComposite }
func (c *CompositeSegment) Raw() string { return c.raw }

// ScopedSegment nests Right under Left ("left/right").
type ScopedSegment struct {
	raw   string
	Left  Node
	Right Node
}

func (*ScopedSegment) Kind() Kind    { return KindScoped }
func (s *ScopedSegment) Raw() string { return s.raw }

// SegmentGroup is a parenthesized composite.
type SegmentGroup struct {
	raw        string
	Expression Node
}

func (*SegmentGroup) Kind() Kind    { return KindGroup }
func (g *SegmentGroup) Raw() string { return g.raw }

// Segment is a single component reference.
type Segment struct {
	raw       string
	Component Component
	Action    Action
	Viewport  Viewport
	// Scoped is false when the segment ends with '!'.
	Scoped bool
}

func (*Segment) Kind() Kind    { return KindSegment }
func (s *Segment) Raw() string { return s.raw }

// Empty reports whether the segment is the placeholder for an empty route.
func (s *Segment) Empty() bool { return s.Component.Name == "" }

// emptySegment is the root of an empty route.
var emptySegment = &Segment{Scoped: true}

// Component is the component part of a segment.
type Component struct {
	Raw    string
	Name   string
	Params ParameterList
}

// IsDynamic reports whether the name is a route parameter placeholder
// (":id", "*rest").
func (c Component) IsDynamic() bool {
	return strings.HasPrefix(c.Name, ":") || strings.HasPrefix(c.Name, "*")
}

// ParameterName returns the placeholder name without its prefix or optional
// marker. It returns the name unchanged for static components.
func (c Component) ParameterName() string {
	if !c.IsDynamic() {
		return c.Name
	}
	return strings.TrimSuffix(c.Name[1:], "?")
}

// Action is the optional ".method(args)" part of a segment.
type Action struct {
	Raw    string
	Name   string
	Params ParameterList
}

// Viewport is the optional "@name" part of a segment.
type Viewport struct {
	Raw  string
	Name string
	Set  bool
}

// ParameterList is a parenthesized list of parameters.
type ParameterList struct {
	Raw    string
	Params []Parameter
}

// Map returns the parameters keyed by name, or nil when the list is empty.
func (p ParameterList) Map() map[string]string {
	if len(p.Params) == 0 {
		return nil
	}
	m := make(map[string]string, len(p.Params))
	for _, param := range p.Params {
		m[param.Key] = param.Value
	}
	return m
}

// Parameter is one key/value pair. Positional parameters have their index
// as key.
type Parameter struct {
	Raw   string
	Key   string
	Value string
}
