package storage

import (
	"git.canoozie.net/riddling/pipegraph/pkg/model"
)

// Node returns a snapshot of a node and its relations
func (g *Graph[T]) Node(id model.NodeID) (model.Node[T], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.nodes.get(uint32(id))
	if !ok {
		return model.Node[T]{}, false
	}
	return model.Node[T]{
		ID:     id,
		Value:  rec.value,
		Edges:  cloneSlice(rec.edges),
		Labels: cloneSlice(rec.labels),
		Props:  cloneSlice(rec.props),
	}, true
}

// Edge returns a snapshot of an edge and its relations
func (g *Graph[T]) Edge(id model.EdgeID) (model.Edge[T], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.edges.get(uint32(id))
	if !ok {
		return model.Edge[T]{}, false
	}
	return model.Edge[T]{
		ID:       id,
		Value:    rec.value,
		Nodes:    cloneSlice(rec.nodes),
		Props:    cloneSlice(rec.props),
		Inverted: rec.inverted,
	}, true
}

// Label returns a snapshot of a label and its members
func (g *Graph[T]) Label(id model.LabelID) (model.Label[T], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.labels.get(uint32(id))
	if !ok {
		return model.Label[T]{}, false
	}
	return model.Label[T]{ID: id, Value: rec.value, Nodes: cloneSlice(rec.nodes)}, true
}

// Prop returns a snapshot of a property
func (g *Graph[T]) Prop(id model.PropID) (model.Prop[T], bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.props.get(uint32(id))
	if !ok {
		return model.Prop[T]{}, false
	}
	return model.Prop[T]{ID: id, Value: rec.value, Owner: rec.owner}, true
}

// NodeValue returns the payload of a node
func (g *Graph[T]) NodeValue(id model.NodeID) (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var zero T
	rec, ok := g.nodes.get(uint32(id))
	if !ok {
		return zero, false
	}
	return rec.value, true
}

// EdgeValue returns the payload of an edge
func (g *Graph[T]) EdgeValue(id model.EdgeID) (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var zero T
	rec, ok := g.edges.get(uint32(id))
	if !ok {
		return zero, false
	}
	return rec.value, true
}

// LabelValue returns the payload of a label
func (g *Graph[T]) LabelValue(id model.LabelID) (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var zero T
	rec, ok := g.labels.get(uint32(id))
	if !ok {
		return zero, false
	}
	return rec.value, true
}

// PropValue returns the payload of a property
func (g *Graph[T]) PropValue(id model.PropID) (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var zero T
	rec, ok := g.props.get(uint32(id))
	if !ok {
		return zero, false
	}
	return rec.value, true
}

// PropOwner returns the entity a property belongs to
func (g *Graph[T]) PropOwner(id model.PropID) (model.Ref, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.props.get(uint32(id))
	if !ok {
		return model.Ref{}, false
	}
	return rec.owner, true
}

// EdgeNodes returns a copy of an edge's ordered node list
func (g *Graph[T]) EdgeNodes(id model.EdgeID) []model.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.edges.get(uint32(id))
	if !ok {
		return nil
	}
	return cloneSlice(rec.nodes)
}

// EdgeInverted reports whether an edge has its direction swapped
func (g *Graph[T]) EdgeInverted(id model.EdgeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.edges.get(uint32(id))
	return ok && rec.inverted
}

// NodeEdges returns a copy of a node's incident edges
func (g *Graph[T]) NodeEdges(id model.NodeID) []model.EdgeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.nodes.get(uint32(id))
	if !ok {
		return nil
	}
	return cloneSlice(rec.edges)
}

// NodeLabels returns a copy of a node's labels
func (g *Graph[T]) NodeLabels(id model.NodeID) []model.LabelID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.nodes.get(uint32(id))
	if !ok {
		return nil
	}
	return cloneSlice(rec.labels)
}

// NodeProps returns a copy of a node's properties
func (g *Graph[T]) NodeProps(id model.NodeID) []model.PropID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.nodes.get(uint32(id))
	if !ok {
		return nil
	}
	return cloneSlice(rec.props)
}

// EdgeProps returns a copy of an edge's properties
func (g *Graph[T]) EdgeProps(id model.EdgeID) []model.PropID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.edges.get(uint32(id))
	if !ok {
		return nil
	}
	return cloneSlice(rec.props)
}

// LabelNodes returns a copy of a label's members
func (g *Graph[T]) LabelNodes(id model.LabelID) []model.NodeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.labels.get(uint32(id))
	if !ok {
		return nil
	}
	return cloneSlice(rec.nodes)
}

// HasNode reports whether the handle refers to a stored node
func (g *Graph[T]) HasNode(id model.NodeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.nodes.get(uint32(id))
	return ok
}

// HasEdge reports whether the handle refers to a stored edge
func (g *Graph[T]) HasEdge(id model.EdgeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.edges.get(uint32(id))
	return ok
}

// FindNode returns the first node whose payload equals value
func (g *Graph[T]) FindNode(value T) (model.NodeID, bool) {
	if g.filter != nil {
		if key, ok := payloadKey(value); ok && !g.filter.ContainsString(key) {
			return model.NoNode, false
		}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	for i := range g.nodes.items {
		if g.nodes.items[i].value == value {
			return model.NodeID(i + 1), true
		}
	}
	return model.NoNode, false
}

// FindLabel returns the first label whose payload equals value
func (g *Graph[T]) FindLabel(value T) (model.LabelID, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for i := range g.labels.items {
		if g.labels.items[i].value == value {
			return model.LabelID(i + 1), true
		}
	}
	return model.NoLabel, false
}

// FindEdges returns every edge whose payload equals value
func (g *Graph[T]) FindEdges(value T) []model.EdgeID {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []model.EdgeID
	for i := range g.edges.items {
		if g.edges.items[i].value == value {
			out = append(out, model.EdgeID(i+1))
		}
	}
	return out
}

// NodeCount returns the number of stored nodes
func (g *Graph[T]) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes.len()
}

// EdgeCount returns the number of stored edges
func (g *Graph[T]) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.edges.len()
}

// LabelCount returns the number of stored labels
func (g *Graph[T]) LabelCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.labels.len()
}

// PropCount returns the number of stored properties
func (g *Graph[T]) PropCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.props.len()
}

// Count returns the number of stored entities of a kind
func (g *Graph[T]) Count(kind model.Kind) int {
	switch kind {
	case model.KindNode:
		return g.NodeCount()
	case model.KindEdge:
		return g.EdgeCount()
	case model.KindLabel:
		return g.LabelCount()
	case model.KindProp:
		return g.PropCount()
	default:
		return 0
	}
}

// GraphStats holds entity counts
type GraphStats struct {
	Nodes  int `json:"nodes" yaml:"nodes"`
	Edges  int `json:"edges" yaml:"edges"`
	Labels int `json:"labels" yaml:"labels"`
	Props  int `json:"props" yaml:"props"`
}

// Stats returns the current entity counts
func (g *Graph[T]) Stats() GraphStats {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return GraphStats{
		Nodes:  g.nodes.len(),
		Edges:  g.edges.len(),
		Labels: g.labels.len(),
		Props:  g.props.len(),
	}
}
