package model

import "fmt"

// NodeID is a handle to a node in a graph store. The zero value is invalid.
type NodeID uint32

// EdgeID is a handle to an edge in a graph store. The zero value is invalid.
type EdgeID uint32

// LabelID is a handle to a label in a graph store. The zero value is invalid.
type LabelID uint32

// PropID is a handle to a property in a graph store. The zero value is invalid.
type PropID uint32

// Sentinel handles that never refer to a stored entity
const (
	NoNode  NodeID  = 0
	NoEdge  EdgeID  = 0
	NoLabel LabelID = 0
	NoProp  PropID  = 0
)

// Valid reports whether the handle is not the zero sentinel
func (id NodeID) Valid() bool { return id != NoNode }

// Valid reports whether the handle is not the zero sentinel
func (id EdgeID) Valid() bool { return id != NoEdge }

// Valid reports whether the handle is not the zero sentinel
func (id LabelID) Valid() bool { return id != NoLabel }

// Valid reports whether the handle is not the zero sentinel
func (id PropID) Valid() bool { return id != NoProp }

// Kind identifies which arena an entity lives in
type Kind uint8

const (
	KindLabel Kind = iota + 1
	KindNode
	KindEdge
	KindProp
)

// String returns the lowercase name of the kind
func (k Kind) String() string {
	switch k {
	case KindLabel:
		return "label"
	case KindNode:
		return "node"
	case KindEdge:
		return "edge"
	case KindProp:
		return "prop"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Ref is a reference to an entity of any kind
type Ref struct {
	Kind Kind
	ID   uint32
}

// NodeRef builds a reference to a node
func NodeRef(id NodeID) Ref { return Ref{Kind: KindNode, ID: uint32(id)} }

// EdgeRef builds a reference to an edge
func EdgeRef(id EdgeID) Ref { return Ref{Kind: KindEdge, ID: uint32(id)} }

// Node returns the node handle if the reference points at a node
func (r Ref) Node() (NodeID, bool) {
	if r.Kind != KindNode {
		return NoNode, false
	}
	return NodeID(r.ID), true
}

// Edge returns the edge handle if the reference points at an edge
func (r Ref) Edge() (EdgeID, bool) {
	if r.Kind != KindEdge {
		return NoEdge, false
	}
	return EdgeID(r.ID), true
}

func (r Ref) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}
