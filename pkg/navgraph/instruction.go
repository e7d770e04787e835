package navgraph

import (
	"encoding/json"
	"maps"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/randalmurphal/navgraph/pkg/navgraph/expr"
)

// RecognizedRoute is the outcome of matching an instruction against a
// context's route table.
type RecognizedRoute struct {
	Route  *RouteDefinition
	Params Params
	// Residue is the unmatched remainder of the path, or "".
	Residue string

	pattern string
}

// ViewportInstruction is the requested occupant of one viewport.
type ViewportInstruction struct {
	// Open and Close count the groups opened before and closed after this
	// instruction when serialized.
	Open, Close     int
	RecognizedRoute *RecognizedRoute
	Component       ComponentRef
	// Viewport is the target viewport. Empty means any available one.
	Viewport string
	Params   Params
	Children []*ViewportInstruction
}

// Clone returns a deep copy of the instruction and its children.
func (vi *ViewportInstruction) Clone() *ViewportInstruction {
	if vi == nil {
		return nil
	}
	c := *vi
	c.Params = vi.Params.Clone()
	c.Children = cloneInstructions(vi.Children)
	return &c
}

func cloneInstructions(in []*ViewportInstruction) []*ViewportInstruction {
	if len(in) == 0 {
		return nil
	}
	out := make([]*ViewportInstruction, len(in))
	for i, child := range in {
		out[i] = child.Clone()
	}
	return out
}

// Equals reports structural equality: component, viewport, params and
// children, recursively.
func (vi *ViewportInstruction) Equals(other *ViewportInstruction) bool {
	if vi == nil || other == nil {
		return vi == other
	}
	if len(vi.Children) != len(other.Children) {
		return false
	}
	if !vi.Component.Equals(other.Component) || vi.Viewport != other.Viewport || !vi.Params.Equal(other.Params) {
		return false
	}
	for i, child := range vi.Children {
		if !child.Equals(other.Children[i]) {
			return false
		}
	}
	return true
}

// Contains reports whether other is a prefix of vi: same component,
// compatible viewport and each of other's children contained by the child
// at the same position.
func (vi *ViewportInstruction) Contains(other *ViewportInstruction) bool {
	if len(vi.Children) < len(other.Children) {
		return false
	}
	if !vi.Component.Equals(other.Component) {
		return false
	}
	if vi.Viewport != "" && other.Viewport != "" && vi.Viewport != other.Viewport {
		return false
	}
	for i, child := range other.Children {
		if !vi.Children[i].Contains(child) {
			return false
		}
	}
	return true
}

// expanded returns a copy in which components naming a multi-segment path
// ("users/42") are nested one segment per level, the way a parsed path is.
func (vi *ViewportInstruction) expanded() *ViewportInstruction {
	children := make([]*ViewportInstruction, len(vi.Children))
	for i, child := range vi.Children {
		children[i] = child.expanded()
	}
	name := vi.Component.Name()
	if !vi.Component.IsName() || !strings.Contains(name, "/") {
		c := *vi
		c.Children = children
		return &c
	}
	parts := strings.Split(name, "/")
	leaf := &ViewportInstruction{
		Close:     vi.Close,
		Component: ByName(parts[len(parts)-1]),
		Viewport:  vi.Viewport,
		Params:    vi.Params,
		Children:  children,
	}
	for i := len(parts) - 2; i >= 0; i-- {
		leaf = &ViewportInstruction{Component: ByName(parts[i]), Children: []*ViewportInstruction{leaf}}
	}
	leaf.Open = vi.Open
	return leaf
}

// String renders the instruction in route-expression form.
func (vi *ViewportInstruction) String() string {
	return vi.toURLComponent(true)
}

func (vi *ViewportInstruction) toURLComponent(recursive bool) string {
	var sb strings.Builder
	component := encodePath(vi.Component.String())
	if component != "" {
		sb.WriteString(strings.Repeat("(", vi.Open))
		sb.WriteString(component)
		sb.WriteString(stringifyParams(vi.Params))
		if vi.Viewport != "" && vi.Viewport != DefaultViewport {
			sb.WriteByte('@')
			sb.WriteString(encodeName(vi.Viewport))
		}
		sb.WriteString(strings.Repeat(")", vi.Close))
	}
	if !recursive || len(vi.Children) == 0 {
		return sb.String()
	}
	children := make([]string, len(vi.Children))
	for i, child := range vi.Children {
		children[i] = child.toURLComponent(true)
	}
	joined := strings.Join(children, "+")
	if sb.Len() > 0 {
		sb.WriteByte('/')
		// Siblings below a component need a group unless they carry one.
		first, last := vi.Children[0], vi.Children[len(vi.Children)-1]
		if len(children) > 1 && (first.Open == 0 || last.Close == 0) {
			joined = "(" + joined + ")"
		}
	}
	sb.WriteString(joined)
	return sb.String()
}

// stringifyParams renders params as "(v0,v1,key=value)". Positional keys
// keep their index; named keys fill the remaining positions in sorted order.
func stringifyParams(params Params) string {
	if len(params) == 0 {
		return ""
	}
	var named []string
	maxIndex := -1
	for key := range params {
		if idx, err := strconv.Atoi(key); err == nil && idx >= 0 {
			maxIndex = max(maxIndex, idx)
		} else {
			named = append(named, key)
		}
	}
	sort.Strings(named)

	values := make([]string, 0, len(params))
	for i := 0; len(values) < len(params); i++ {
		if v, ok := params[strconv.Itoa(i)]; ok {
			values = append(values, encodeName(v))
			continue
		}
		if len(named) == 0 {
			if i > maxIndex {
				break
			}
			continue
		}
		key := named[0]
		named = named[1:]
		values = append(values, encodeName(key)+"="+encodeName(params[key]))
	}
	return "(" + strings.Join(values, ",") + ")"
}

// encodePath encodes each '/'-separated part of a component path.
func encodePath(p string) string {
	if !strings.Contains(p, "/") {
		return encodeName(p)
	}
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = encodeName(part)
	}
	return strings.Join(parts, "/")
}

// encodeName percent-encodes everything the route grammar reserves.
func encodeName(s string) string {
	if s == "." || s == ".." {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9',
			c == '-', c == '_', c == ':', c == '*', c == '$':
			sb.WriteByte(c)
		default:
			sb.WriteByte('%')
			sb.WriteByte("0123456789ABCDEF"[c>>4])
			sb.WriteByte("0123456789ABCDEF"[c&15])
		}
	}
	return sb.String()
}

// ViewportInstructionTree is a parsed or programmatically built
// navigation request.
type ViewportInstructionTree struct {
	Options     NavigationOptions
	IsAbsolute  bool
	Children    []*ViewportInstruction
	QueryParams url.Values
	Fragment    string
}

// Equals reports structural equality of the children. Query parameters and
// fragments are not compared.
func (t *ViewportInstructionTree) Equals(other *ViewportInstructionTree) bool {
	if t == nil || other == nil {
		return t == other
	}
	if len(t.Children) != len(other.Children) {
		return false
	}
	for i, child := range t.Children {
		if !child.Equals(other.Children[i]) {
			return false
		}
	}
	return true
}

// sameRequest reports whether t and other would navigate to the same URL.
func (t *ViewportInstructionTree) sameRequest(other *ViewportInstructionTree) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.ToURL(false) == other.ToURL(false)
}

// Clone returns a deep copy of the tree.
func (t *ViewportInstructionTree) Clone() *ViewportInstructionTree {
	c := *t
	c.Children = cloneInstructions(t.Children)
	c.QueryParams = cloneValues(t.QueryParams)
	c.Options.QueryParams = cloneValues(t.Options.QueryParams)
	c.Options.State = maps.Clone(t.Options.State)
	return &c
}

// ToPath renders the children joined by '+'.
func (t *ViewportInstructionTree) ToPath() string {
	parts := make([]string, len(t.Children))
	for i, child := range t.Children {
		parts[i] = child.toURLComponent(true)
	}
	return strings.Join(parts, "+")
}

// ToURL renders the tree as a rooted URL. With useHash the route is placed
// in the fragment ("/#/a/b?x=1") and the tree's own fragment is dropped.
func (t *ViewportInstructionTree) ToURL(useHash bool) string {
	var sb strings.Builder
	if useHash {
		sb.WriteString("/#")
	}
	sb.WriteByte('/')
	sb.WriteString(t.ToPath())
	if len(t.QueryParams) > 0 {
		sb.WriteByte('?')
		sb.WriteString(t.QueryParams.Encode())
	}
	if !useHash && t.Fragment != "" {
		sb.WriteByte('#')
		sb.WriteString(t.Fragment)
	}
	return sb.String()
}

// String renders the tree without a leading '/'.
func (t *ViewportInstructionTree) String() string {
	return strings.TrimPrefix(t.ToURL(false), "/")
}

// MarshalJSON encodes the tree as its URL.
func (t *ViewportInstructionTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.ToURL(false))
}

// ParseInstructions parses a route expression into an instruction tree.
// Query parameters and fragment from opts are merged with the ones in the
// path; the path wins on conflicts.
func ParseInstructions(path string, useHash bool, opts NavigationOptions) (*ViewportInstructionTree, error) {
	re, err := expr.Parse(path, useHash)
	if err != nil {
		return nil, err
	}
	return fromExpression(re, opts), nil
}

func fromExpression(re *expr.RouteExpression, opts NavigationOptions) *ViewportInstructionTree {
	fragment := opts.Fragment
	if re.HasFragment && !re.FragmentIsRoute {
		fragment = re.Fragment
	}
	return &ViewportInstructionTree{
		Options:     opts,
		IsAbsolute:  re.IsAbsolute,
		Children:    toInstructions(re.Root, 0, 0),
		QueryParams: mergeValues(opts.QueryParams, re.QueryParams),
		Fragment:    fragment,
	}
}

// toInstructions converts an expression node into instructions. open and
// close carry the group markers down to the first and last instruction.
func toInstructions(n expr.Node, open, close int) []*ViewportInstruction {
	switch n := n.(type) {
	case *expr.CompositeSegment:
		var out []*ViewportInstruction
		last := len(n.Siblings) - 1
		for i, sib := range n.Siblings {
			o, c := 0, 0
			if i == 0 {
				o = open
			}
			if i == last {
				c = close
			}
			out = append(out, toInstructions(sib, o, c)...)
		}
		return out
	case *expr.ScopedSegment:
		left := toInstructions(n.Left, open, 0)
		right := toInstructions(n.Right, 0, close)
		if len(left) == 0 {
			return right
		}
		cur := left[len(left)-1]
		for len(cur.Children) > 0 {
			cur = cur.Children[len(cur.Children)-1]
		}
		cur.Children = append(cur.Children, right...)
		return left
	case *expr.SegmentGroup:
		return toInstructions(n.Expression, open+1, close+1)
	case *expr.Segment:
		if n.Empty() {
			return nil
		}
		vp := ""
		if n.Viewport.Set {
			vp = n.Viewport.Name
		}
		return []*ViewportInstruction{{
			Open:      open,
			Close:     close,
			Component: ByName(n.Component.Name),
			Viewport:  vp,
			Params:    Params(n.Component.Params.Map()),
		}}
	}
	return nil
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = slices.Clone(vals)
	}
	return out
}

// mergeValues returns base overlaid with over. Keys present in over
// replace those in base.
func mergeValues(base, over url.Values) url.Values {
	if len(base) == 0 && len(over) == 0 {
		return nil
	}
	out := cloneValues(base)
	if out == nil {
		out = make(url.Values, len(over))
	}
	for k, vals := range over {
		out[k] = slices.Clone(vals)
	}
	return out
}

// paramsToValues turns leftover params into query parameters.
func paramsToValues(p Params) url.Values {
	if len(p) == 0 {
		return nil
	}
	v := make(url.Values, len(p))
	for k, val := range p {
		v.Set(k, val)
	}
	return v
}
