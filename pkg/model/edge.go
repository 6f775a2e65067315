package model

// Edge is a snapshot of a stored hyperedge. Position 0 of Nodes is the
// nominal source, every later position a target.
type Edge[T any] struct {
	ID       EdgeID
	Value    T
	Nodes    []NodeID
	Props    []PropID
	Inverted bool // Swaps the incoming/outgoing reading of the edge
}

// IsIncoming reports whether the edge points into n
func (e *Edge[T]) IsIncoming(n NodeID) bool {
	return len(e.Nodes) > 0 && (e.Nodes[0] != n) != e.Inverted
}

// IsOutgoing reports whether the edge points away from n
func (e *Edge[T]) IsOutgoing(n NodeID) bool {
	return len(e.Nodes) > 0 && (e.Nodes[0] == n) != e.Inverted
}
