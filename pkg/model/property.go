package model

// Prop is a snapshot of a stored property. Every property has exactly
// one owner, a node or an edge.
type Prop[T any] struct {
	ID    PropID
	Value T
	Owner Ref
}
