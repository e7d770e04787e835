package expr

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// reserved characters terminate bare names.
const reserved = "?#/+().@!=,&'~;"

// Parse parses a route expression. When fragmentIsRoute is true and the
// input contains '#', the fragment is parsed as the route.
func Parse(input string, fragmentIsRoute bool) (*RouteExpression, error) {
	path := input
	result := &RouteExpression{FragmentIsRoute: fragmentIsRoute}

	if i := strings.IndexByte(path, '#'); i >= 0 {
		fragment := decode(path[i+1:])
		result.Fragment = fragment
		result.HasFragment = true
		if fragmentIsRoute {
			path = fragment
			result.Fragment = ""
			result.HasFragment = false
		} else {
			path = path[:i]
		}
	}

	if i := strings.IndexByte(path, '?'); i >= 0 {
		q, err := url.ParseQuery(path[i+1:])
		if err != nil {
			return nil, &ParseError{Input: input, Pos: i + 1, Message: "invalid query string: " + err.Error()}
		}
		result.QueryParams = q
		path = path[:i]
	}
	if result.QueryParams == nil {
		result.QueryParams = url.Values{}
	}

	if path == "" {
		result.Root = emptySegment
		return result, nil
	}

	p := &parser{input: path}
	p.record()
	result.IsAbsolute = p.consumeOptional("/")
	if p.done() {
		// "/" alone is the empty absolute route.
		result.raw = p.playback()
		result.Root = emptySegment
		return result, nil
	}
	root, err := p.parseComposite()
	if err != nil {
		return nil, err
	}
	if !p.done() {
		return nil, p.errorf("unexpected %q", p.input[p.pos:p.pos+1])
	}
	result.raw = p.playback()
	result.Root = root
	return result, nil
}

// MustParse is like Parse but panics on error. Intended for literals in
// tests and route tables.
func MustParse(input string) *RouteExpression {
	r, err := Parse(input, false)
	if err != nil {
		panic(err)
	}
	return r
}

type parser struct {
	input string
	pos   int
	marks []int
}

func (p *parser) done() bool { return p.pos >= len(p.input) }

func (p *parser) startsWith(s string) bool {
	return strings.HasPrefix(p.input[p.pos:], s)
}

func (p *parser) atReserved() bool {
	return strings.IndexByte(reserved, p.input[p.pos]) >= 0
}

func (p *parser) consumeOptional(s string) bool {
	if p.startsWith(s) {
		p.pos += len(s)
		return true
	}
	return false
}

func (p *parser) consume(s string) error {
	if !p.consumeOptional(s) {
		return p.errorf("expected %q", s)
	}
	return nil
}

func (p *parser) record() { p.marks = append(p.marks, p.pos) }

// playback pops the last mark and returns the text consumed since.
func (p *parser) playback() string {
	start := p.marks[len(p.marks)-1]
	p.marks = p.marks[:len(p.marks)-1]
	return p.input[start:p.pos]
}

func (p *parser) discard() { p.marks = p.marks[:len(p.marks)-1] }

func (p *parser) name() string {
	p.record()
	for !p.done() && !p.atReserved() {
		p.pos++
	}
	return decode(p.playback())
}

func (p *parser) errorf(format string, args ...any) *ParseError {
	msg := fmt.Sprintf(format, args...)
	if p.done() {
		msg += " (unexpected end of input)"
	}
	return &ParseError{Input: p.input, Pos: p.pos, Message: msg}
}

func (p *parser) parseComposite() (Node, error) {
	p.record()
	appendMode := p.consumeOptional("+")
	var siblings []Node
	for {
		n, err := p.parseScoped()
		if err != nil {
			return nil, err
		}
		siblings = append(siblings, n)
		if !p.consumeOptional("+") {
			break
		}
	}
	if !appendMode && len(siblings) == 1 {
		p.discard()
		return siblings[0], nil
	}
	return &CompositeSegment{raw: p.playback(), Siblings: siblings}, nil
}

func (p *parser) parseScoped() (Node, error) {
	p.record()
	left, err := p.parseGroup()
	if err != nil {
		return nil, err
	}
	if p.consumeOptional("/") {
		right, err := p.parseScoped()
		if err != nil {
			return nil, err
		}
		return &ScopedSegment{raw: p.playback(), Left: left, Right: right}, nil
	}
	p.discard()
	return left, nil
}

func (p *parser) parseGroup() (Node, error) {
	p.record()
	if p.consumeOptional("(") {
		inner, err := p.parseComposite()
		if err != nil {
			return nil, err
		}
		if err := p.consume(")"); err != nil {
			return nil, err
		}
		return &SegmentGroup{raw: p.playback(), Expression: inner}, nil
	}
	p.discard()
	return p.parseSegment()
}

func (p *parser) parseSegment() (Node, error) {
	p.record()
	component, err := p.parseComponent()
	if err != nil {
		return nil, err
	}
	action, err := p.parseAction()
	if err != nil {
		return nil, err
	}
	viewport, err := p.parseViewport()
	if err != nil {
		return nil, err
	}
	scoped := !p.consumeOptional("!")
	return &Segment{
		raw:       p.playback(),
		Component: component,
		Action:    action,
		Viewport:  viewport,
		Scoped:    scoped,
	}, nil
}

func (p *parser) parseComponent() (Component, error) {
	p.record()
	var name string
	switch {
	case p.startsWith("../") || p.input[p.pos:] == "..":
		p.pos += 2
		name = ".."
	case p.startsWith("./") || p.input[p.pos:] == ".":
		p.pos++
		name = "."
	default:
		name = p.name()
	}
	if name == "" {
		p.discard()
		return Component{}, p.errorf("expected component name")
	}
	params, err := p.parseParams()
	if err != nil {
		p.discard()
		return Component{}, err
	}
	return Component{Raw: p.playback(), Name: name, Params: params}, nil
}

func (p *parser) parseAction() (Action, error) {
	p.record()
	var name string
	if p.consumeOptional(".") {
		name = p.name()
		if name == "" {
			p.discard()
			return Action{}, p.errorf("expected method name")
		}
	}
	params, err := p.parseParams()
	if err != nil {
		p.discard()
		return Action{}, err
	}
	return Action{Raw: p.playback(), Name: name, Params: params}, nil
}

func (p *parser) parseViewport() (Viewport, error) {
	p.record()
	if !p.consumeOptional("@") {
		return Viewport{Raw: p.playback()}, nil
	}
	name := p.name()
	if name == "" {
		p.discard()
		return Viewport{}, p.errorf("expected viewport name")
	}
	return Viewport{Raw: p.playback(), Name: name, Set: true}, nil
}

func (p *parser) parseParams() (ParameterList, error) {
	p.record()
	var params []Parameter
	if p.consumeOptional("(") {
		for {
			param, err := p.parseParam(len(params))
			if err != nil {
				p.discard()
				return ParameterList{}, err
			}
			params = append(params, param)
			if !p.consumeOptional(",") {
				break
			}
			if p.done() || p.startsWith(")") {
				break
			}
		}
		if err := p.consume(")"); err != nil {
			p.discard()
			return ParameterList{}, err
		}
	}
	return ParameterList{Raw: p.playback(), Params: params}, nil
}

func (p *parser) parseParam(index int) (Parameter, error) {
	p.record()
	key := p.name()
	if key == "" {
		p.discard()
		return Parameter{}, p.errorf("expected parameter key")
	}
	var value string
	if p.consumeOptional("=") {
		value = p.name()
		if value == "" {
			p.discard()
			return Parameter{}, p.errorf("expected parameter value")
		}
	} else {
		value = key
		key = strconv.Itoa(index)
	}
	return Parameter{Raw: p.playback(), Key: key, Value: value}, nil
}

func decode(s string) string {
	if d, err := url.PathUnescape(s); err == nil {
		return d
	}
	return s
}
