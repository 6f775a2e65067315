package model

import (
	"fmt"
)

// ErrInvalidNodeID is returned when an operation is performed with an invalid node ID
type ErrInvalidNodeID struct {
	ID NodeID
}

func (e *ErrInvalidNodeID) Error() string {
	return fmt.Sprintf("invalid node ID: %d", e.ID)
}

// ErrInvalidEdgeID is returned when an operation is performed with an invalid edge ID
type ErrInvalidEdgeID struct {
	ID EdgeID
}

func (e *ErrInvalidEdgeID) Error() string {
	return fmt.Sprintf("invalid edge ID: %d", e.ID)
}

// ErrInvalidLabelID is returned when an operation is performed with an invalid label ID
type ErrInvalidLabelID struct {
	ID LabelID
}

func (e *ErrInvalidLabelID) Error() string {
	return fmt.Sprintf("invalid label ID: %d", e.ID)
}

// ErrInvalidPropID is returned when an operation is performed with an invalid property ID
type ErrInvalidPropID struct {
	ID PropID
}

func (e *ErrInvalidPropID) Error() string {
	return fmt.Sprintf("invalid property ID: %d", e.ID)
}

// ErrInvalidOwner is returned when a property is attached to something that is not a stored node or edge
type ErrInvalidOwner struct {
	Owner Ref
}

func (e *ErrInvalidOwner) Error() string {
	return fmt.Sprintf("invalid property owner: %s", e.Owner)
}

// ErrInvalidArity is returned when an edge is created with fewer than two nodes
type ErrInvalidArity struct {
	Count int
}

func (e *ErrInvalidArity) Error() string {
	return fmt.Sprintf("edge needs at least 2 nodes, got %d", e.Count)
}

// ErrIndexOutOfRange is returned when a node is attached to an edge past its last position
type ErrIndexOutOfRange struct {
	Index  int
	Length int
}

func (e *ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range for edge with %d nodes", e.Index, e.Length)
}

// ErrConcurrencyGuard is returned when a pipeline description is modified
// or re-entered while a state derived from it is still alive
type ErrConcurrencyGuard struct {
	Active int64
}

func (e *ErrConcurrencyGuard) Error() string {
	return fmt.Sprintf("pipeline in use by %d active state(s)", e.Active)
}
