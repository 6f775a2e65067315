package model

// Node is a snapshot of a stored node and its relations
type Node[T any] struct {
	ID     NodeID
	Value  T
	Edges  []EdgeID  // Incident edges in attach order
	Labels []LabelID // Labels in attach order, no duplicates
	Props  []PropID
}

// Label is a snapshot of a stored label and its member nodes
type Label[T any] struct {
	ID    LabelID
	Value T
	Nodes []NodeID // Members in attach order, no duplicates
}
