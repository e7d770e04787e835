// Package recognizer matches slash-separated paths against route patterns.
//
// Patterns are made of static segments, ":name" parameters, ":name?"
// optional parameters and a trailing "*name" catch-all:
//
//	users/:id
//	docs/*path
//	search/:term?
//
// Matching is by prefix. A path may have segments left over after the
// pattern is exhausted; they are returned as the residue so the caller can
// resolve them one level further down.
package recognizer

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// ErrInvalidPattern is returned by Add for malformed patterns.
var ErrInvalidPattern = errors.New("invalid route pattern")

type segmentKind int

const (
	segStatic segmentKind = iota
	segParam
	segOptional
	segStar
)

type segment struct {
	kind  segmentKind
	value string // literal for static segments, parameter name otherwise
}

// Endpoint is a registered pattern and the value it resolves to.
type Endpoint[T any] struct {
	Pattern       string
	CaseSensitive bool
	Handler       T

	segments []segment
	statics  int
	order    int
}

// ParamNames returns the parameter names declared by the pattern, in order.
func (e *Endpoint[T]) ParamNames() []string {
	var names []string
	for _, s := range e.segments {
		if s.kind != segStatic {
			names = append(names, s.value)
		}
	}
	return names
}

// Result is a successful match.
type Result[T any] struct {
	Endpoint *Endpoint[T]
	// Params holds the captured parameters. Optional parameters that did not
	// match are absent.
	Params map[string]string
	// Consumed is the number of path segments the pattern matched.
	Consumed int
	// Residue is the unmatched remainder of the path, without a leading '/'.
	Residue string
}

// Recognizer is a set of endpoints. It is safe for concurrent use.
type Recognizer[T any] struct {
	mu        sync.RWMutex
	endpoints []*Endpoint[T]
	cache     map[string]*Result[T]
}

// New creates an empty recognizer.
func New[T any]() *Recognizer[T] {
	return &Recognizer[T]{cache: make(map[string]*Result[T])}
}

// Add registers a pattern.
func (r *Recognizer[T]) Add(pattern string, caseSensitive bool, handler T) (*Endpoint[T], error) {
	segs, err := compile(pattern)
	if err != nil {
		return nil, err
	}
	statics := 0
	for _, s := range segs {
		if s.kind == segStatic {
			statics++
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ep := &Endpoint[T]{
		Pattern:       strings.Trim(pattern, "/"),
		CaseSensitive: caseSensitive,
		Handler:       handler,
		segments:      segs,
		statics:       statics,
		order:         len(r.endpoints),
	}
	r.endpoints = append(r.endpoints, ep)
	clear(r.cache)
	return ep, nil
}

// Len returns the number of registered endpoints.
func (r *Recognizer[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpoints)
}

// Recognize returns the best match for path, or nil.
//
// Among matching endpoints the one consuming the most segments wins, then
// the one with more static segments, then the one registered first.
func (r *Recognizer[T]) Recognize(path string) *Result[T] {
	path = strings.Trim(path, "/")

	r.mu.RLock()
	if res, ok := r.cache[path]; ok {
		r.mu.RUnlock()
		return res.copy()
	}
	endpoints := r.endpoints
	r.mu.RUnlock()

	parts := split(path)
	var best *Result[T]
	for _, ep := range endpoints {
		params := make(map[string]string)
		n, ok := match(ep, parts, 0, 0, params)
		if !ok {
			continue
		}
		if best == nil || better(ep, n, best) {
			best = &Result[T]{Endpoint: ep, Params: params, Consumed: n}
		}
	}
	if best != nil {
		best.Residue = strings.Join(parts[best.Consumed:], "/")
	}

	r.mu.Lock()
	r.cache[path] = best
	r.mu.Unlock()
	return best.copy()
}

func better[T any](ep *Endpoint[T], consumed int, cur *Result[T]) bool {
	if consumed != cur.Consumed {
		return consumed > cur.Consumed
	}
	if ep.statics != cur.Endpoint.statics {
		return ep.statics > cur.Endpoint.statics
	}
	return ep.order < cur.Endpoint.order
}

// match tries to match ep.segments[si:] against parts[pi:] and returns the
// total number of path segments consumed.
func match[T any](ep *Endpoint[T], parts []string, si, pi int, params map[string]string) (int, bool) {
	if si == len(ep.segments) {
		return pi, true
	}
	seg := ep.segments[si]
	switch seg.kind {
	case segStar:
		params[seg.value] = strings.Join(parts[pi:], "/")
		return len(parts), true
	case segOptional:
		if pi < len(parts) {
			params[seg.value] = parts[pi]
			if n, ok := match(ep, parts, si+1, pi+1, params); ok {
				return n, true
			}
			delete(params, seg.value)
		}
		return match(ep, parts, si+1, pi, params)
	case segParam:
		if pi >= len(parts) || parts[pi] == "" {
			return 0, false
		}
		params[seg.value] = parts[pi]
		return match(ep, parts, si+1, pi+1, params)
	default:
		if pi >= len(parts) {
			return 0, false
		}
		if ep.CaseSensitive {
			if parts[pi] != seg.value {
				return 0, false
			}
		} else if !strings.EqualFold(parts[pi], seg.value) {
			return 0, false
		}
		return match(ep, parts, si+1, pi+1, params)
	}
}

func compile(pattern string) ([]segment, error) {
	trimmed := strings.Trim(pattern, "/")
	parts := split(trimmed)
	segs := make([]segment, 0, len(parts))
	seen := make(map[string]bool)
	for i, p := range parts {
		var s segment
		switch {
		case p == "":
			return nil, fmt.Errorf("%w: empty segment in %q", ErrInvalidPattern, pattern)
		case strings.HasPrefix(p, "*"):
			if i != len(parts)-1 {
				return nil, fmt.Errorf("%w: catch-all must be last in %q", ErrInvalidPattern, pattern)
			}
			s = segment{kind: segStar, value: p[1:]}
		case strings.HasPrefix(p, ":") && strings.HasSuffix(p, "?"):
			s = segment{kind: segOptional, value: p[1 : len(p)-1]}
		case strings.HasPrefix(p, ":"):
			s = segment{kind: segParam, value: p[1:]}
		default:
			s = segment{kind: segStatic, value: p}
		}
		if s.kind != segStatic {
			if s.value == "" {
				return nil, fmt.Errorf("%w: unnamed parameter in %q", ErrInvalidPattern, pattern)
			}
			if seen[s.value] {
				return nil, fmt.Errorf("%w: duplicate parameter %q in %q", ErrInvalidPattern, s.value, pattern)
			}
			seen[s.value] = true
		}
		segs = append(segs, s)
	}
	return segs, nil
}

func split(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (r *Result[T]) copy() *Result[T] {
	if r == nil {
		return nil
	}
	params := make(map[string]string, len(r.Params))
	for k, v := range r.Params {
		params[k] = v
	}
	return &Result[T]{Endpoint: r.Endpoint, Params: params, Consumed: r.Consumed, Residue: r.Residue}
}
