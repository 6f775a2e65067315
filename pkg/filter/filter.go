// Package filter holds ready-made predicates for query pipes.
package filter

import (
	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/query"
)

// Constant accepts every hop or none
func Constant[T comparable](v bool) query.Predicate[T] {
	return func(query.Hop[T]) bool { return v }
}

// Not inverts a predicate
func Not[T comparable](p query.Predicate[T]) query.Predicate[T] {
	return func(h query.Hop[T]) bool { return !p(h) }
}

// And accepts a hop when every predicate does
func And[T comparable](ps ...query.Predicate[T]) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		for _, p := range ps {
			if !p(h) {
				return false
			}
		}
		return true
	}
}

// Or accepts a hop when any predicate does
func Or[T comparable](ps ...query.Predicate[T]) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		for _, p := range ps {
			if p(h) {
				return true
			}
		}
		return false
	}
}

// NodeValue accepts hops whose current node carries v
func NodeValue[T comparable](v T) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		got, ok := h.Graph.NodeValue(h.Node)
		return ok && got == v
	}
}

// EdgeValue accepts hops crossing an edge that carries v
func EdgeValue[T comparable](v T) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		if !h.Edge.Valid() {
			return false
		}
		got, ok := h.Graph.EdgeValue(h.Edge)
		return ok && got == v
	}
}

// NextValue accepts hops whose neighbor carries v
func NextValue[T comparable](v T) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		if !h.Next.Valid() {
			return false
		}
		got, ok := h.Graph.NodeValue(h.Next)
		return ok && got == v
	}
}

// NodeMatches accepts hops whose current node payload satisfies fn
func NodeMatches[T comparable](fn func(T) bool) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		v, ok := h.Graph.NodeValue(h.Node)
		return ok && fn(v)
	}
}

// Slot accepts hops whose neighbor sits at position i of the edge
func Slot[T comparable](i int) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		return slotOf(h) == i
	}
}

// slotOf returns the first position of the neighbor in the edge, or -1
func slotOf[T comparable](h query.Hop[T]) int {
	if !h.Edge.Valid() || !h.Next.Valid() {
		return -1
	}
	for i, n := range h.Graph.EdgeNodes(h.Edge) {
		if n == h.Next {
			return i
		}
	}
	return -1
}

// HasLabel accepts hops whose current node carries label
func HasLabel[T comparable](label model.LabelID) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		for _, l := range h.Graph.NodeLabels(h.Node) {
			if l == label {
				return true
			}
		}
		return false
	}
}

// DepthBelow accepts repeat candidates shallower than max
func DepthBelow[T comparable](max int) query.Predicate[T] {
	return func(h query.Hop[T]) bool {
		return h.Depth < max
	}
}
