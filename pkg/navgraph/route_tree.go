package navgraph

import (
	"maps"
	"net/url"
	"strings"
)

// RouteNode is a resolved occupant of a viewport.
//
// Nodes belong to exactly one RouteTree. Fields are read-only for hooks;
// the router mutates nodes only while it resolves a transition.
type RouteNode struct {
	// ID is unique per router and increases monotonically.
	ID uint64
	// Path is the pattern of the route that matched.
	Path string
	// FinalPath is the concrete path the node consumed.
	FinalPath   string
	Context     *RouteContext
	Params      Params
	QueryParams url.Values
	Fragment    string
	Data        map[string]any
	// Viewport is the name of the viewport the node is loaded into.
	Viewport  string
	Title     string
	Component *ComponentDefinition
	// Route is the route definition that produced the node.
	Route *RouteDefinition

	instruction         *ViewportInstruction
	originalInstruction *ViewportInstruction
	finalized           bool
	children            []*RouteNode
	residue             []*ViewportInstruction
	version             int
	tree                *RouteTree
}

// Instruction returns the instruction the node serves.
func (n *RouteNode) Instruction() *ViewportInstruction { return n.instruction }

// Children returns the child nodes.
func (n *RouteNode) Children() []*RouteNode { return n.children }

// Residue returns the instructions still to be resolved below the node.
func (n *RouteNode) Residue() []*ViewportInstruction { return n.residue }

// Tree returns the tree the node belongs to.
func (n *RouteNode) Tree() *RouteTree { return n.tree }

// Version counts how many times the node was cloned.
func (n *RouteNode) Version() int { return n.version }

// IsRoot reports whether n is the root of its tree.
func (n *RouteNode) IsRoot() bool { return n.tree != nil && n.tree.Root == n }

// setTree points n and its descendants at tree.
func (n *RouteNode) setTree(tree *RouteTree) {
	n.tree = tree
	for _, child := range n.children {
		child.setTree(tree)
	}
}

// AppendChild adds child below n and moves it into n's tree.
func (n *RouteNode) AppendChild(child *RouteNode) {
	n.children = append(n.children, child)
	child.setTree(n.tree)
}

// ClearChildren detaches every child and resets their tree pointers.
func (n *RouteNode) ClearChildren() {
	for _, child := range n.children {
		child.setTree(nil)
	}
	n.children = nil
}

// Clone returns a structurally independent copy with an incremented
// version. If the owning context pointed at n it now points at the clone.
func (n *RouteNode) Clone() *RouteNode {
	c := &RouteNode{
		ID:                  n.ID,
		Path:                n.Path,
		FinalPath:           n.FinalPath,
		Context:             n.Context,
		Params:              n.Params.Clone(),
		QueryParams:         cloneValues(n.QueryParams),
		Fragment:            n.Fragment,
		Data:                maps.Clone(n.Data),
		Viewport:            n.Viewport,
		Title:               n.Title,
		Component:           n.Component,
		Route:               n.Route,
		instruction:         n.instruction,
		originalInstruction: n.originalInstruction,
		finalized:           n.finalized,
		residue:             append([]*ViewportInstruction(nil), n.residue...),
		version:             n.version + 1,
	}
	for _, child := range n.children {
		c.children = append(c.children, child.Clone())
	}
	if n.Context != nil && n.Context.Node() == n {
		n.Context.setNode(c)
	}
	return c
}

// Contains reports whether the instructions are represented at or below n.
// Instructions are matched against the children of the node whose context
// is the tree's context. With matchEndpoint, instructions that were
// recognized also match nodes produced by the same route.
func (n *RouteNode) Contains(instructions *ViewportInstructionTree, matchEndpoint bool) bool {
	if n.Context == instructions.Options.Context || (instructions.Options.Context == nil && n.IsRoot()) {
		want := instructions.Children
		for i := range n.children {
			for j, wantChild := range want {
				if i+j >= len(n.children) {
					break
				}
				child := n.children[i+j]
				served := child.originalInstruction
				if child.finalized || served == nil {
					served = child.instruction
				}
				if !(matchEndpoint && sameEndpoint(wantChild, served)) && !(served != nil && served.expanded().Contains(wantChild)) {
					break
				}
				if j+1 == len(want) {
					return true
				}
			}
		}
	}
	for _, child := range n.children {
		if child.Contains(instructions, matchEndpoint) {
			return true
		}
	}
	return false
}

func sameEndpoint(a, b *ViewportInstruction) bool {
	if a == nil || b == nil || a.RecognizedRoute == nil || b.RecognizedRoute == nil {
		return false
	}
	return a.RecognizedRoute.Route == b.RecognizedRoute.Route
}

// FinalizeInstruction rebuilds the node's instruction from its resolved
// children and marks it final.
func (n *RouteNode) FinalizeInstruction() *ViewportInstruction {
	n.finalized = true
	children := make([]*ViewportInstruction, len(n.children))
	for i, child := range n.children {
		children[i] = child.FinalizeInstruction()
	}
	vi := n.instruction.Clone()
	vi.Children = children
	n.instruction = vi
	return vi
}

// ComputeAbsolutePath returns the path from the root to n.
func (n *RouteNode) ComputeAbsolutePath() string {
	if n.Context == nil || n.Context.IsRoot() || n.instruction == nil {
		return ""
	}
	var parentPath string
	if parent := n.Context.Parent(); parent != nil && parent.Node() != nil {
		parentPath = parent.Node().ComputeAbsolutePath()
	}
	own := n.instruction.toURLComponent(false)
	switch {
	case parentPath == "":
		return own
	case own == "":
		return parentPath
	default:
		return parentPath + "/" + own
	}
}

// String describes the node for logs.
func (n *RouteNode) String() string {
	var sb strings.Builder
	sb.WriteString("RN(")
	if n.Component != nil {
		sb.WriteString("c:'")
		sb.WriteString(n.Component.Name)
		sb.WriteString("'")
	}
	if n.Path != "" {
		sb.WriteString(",path:'")
		sb.WriteString(n.Path)
		sb.WriteString("'")
	}
	if n.Viewport != "" {
		sb.WriteString(",vp:'")
		sb.WriteString(n.Viewport)
		sb.WriteString("'")
	}
	if len(n.children) > 0 {
		parts := make([]string, len(n.children))
		for i, child := range n.children {
			parts[i] = child.String()
		}
		sb.WriteString(",children:[")
		sb.WriteString(strings.Join(parts, ","))
		sb.WriteString("]")
	}
	sb.WriteString(")")
	return sb.String()
}

// RouteTree is a resolved navigation state.
type RouteTree struct {
	Options     NavigationOptions
	QueryParams url.Values
	Fragment    string
	Root        *RouteNode
}

func newRouteTree(opts NavigationOptions, root *RouteNode) *RouteTree {
	t := &RouteTree{Options: opts, Root: root}
	root.setTree(t)
	return t
}

// Contains reports whether the instructions are already represented.
func (t *RouteTree) Contains(instructions *ViewportInstructionTree, matchEndpoint bool) bool {
	return t.Root.Contains(instructions, matchEndpoint)
}

// Clone deep-clones the tree.
func (t *RouteTree) Clone() *RouteTree {
	c := &RouteTree{
		Options:     t.Options,
		QueryParams: cloneValues(t.QueryParams),
		Fragment:    t.Fragment,
		Root:        t.Root.Clone(),
	}
	c.Root.setTree(c)
	return c
}

// FinalizeInstructions converts the tree back into instructions.
func (t *RouteTree) FinalizeInstructions() *ViewportInstructionTree {
	children := make([]*ViewportInstruction, len(t.Root.children))
	for i, child := range t.Root.children {
		children[i] = child.FinalizeInstruction()
	}
	return &ViewportInstructionTree{
		Options:     t.Options,
		IsAbsolute:  true,
		Children:    children,
		QueryParams: cloneValues(t.QueryParams),
		Fragment:    t.Fragment,
	}
}

// String describes the tree for logs.
func (t *RouteTree) String() string {
	return "RT(" + t.Root.String() + ")"
}

// walk visits n and its descendants depth-first, parents first.
func (n *RouteNode) walk(fn func(*RouteNode)) {
	fn(n)
	for _, child := range n.children {
		child.walk(fn)
	}
}
