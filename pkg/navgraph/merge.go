package navgraph

import "slices"

// mergeDistinct merges the previous and next child lists of a node into
// the order agents are swapped in.
//
// It walks prev. For each element whose key was not merged yet, it looks for
// the same key among the remaining next elements: if found, every next
// element up to and including the match is moved to the result (the prev
// element is superseded), otherwise the prev element is kept. The remaining
// next elements are appended last.
func mergeDistinct[T any, K comparable](prev, next []T, key func(T) K) []T {
	next = slices.Clone(next)
	merged := make([]T, 0, len(prev)+len(next))
	seen := make(map[K]bool, len(prev)+len(next))

	for _, p := range prev {
		k := key(p)
		if seen[k] {
			continue
		}
		i := slices.IndexFunc(next, func(n T) bool { return key(n) == k })
		if i < 0 {
			merged = append(merged, p)
			seen[k] = true
			continue
		}
		for _, n := range next[:i+1] {
			merged = append(merged, n)
			seen[key(n)] = true
		}
		next = next[i+1:]
	}
	return append(merged, next...)
}

// mergeNodes merges node lists by the viewport agent serving each node.
func mergeNodes(prev, next []*RouteNode) []*RouteNode {
	return mergeDistinct(prev, next, nodeAgent)
}

func nodeAgent(n *RouteNode) *ViewportAgent {
	return n.Context.agent
}
