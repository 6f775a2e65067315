package storage

import (
	"git.canoozie.net/riddling/pipegraph/pkg/model"
)

// Visitors take a snapshot under the read lock and release it before calling
// back, so a callback may read the graph. Returning false stops the walk.

// ForEachNode visits every node in creation order
func (g *Graph[T]) ForEachNode(fn func(id model.NodeID, value T) bool) {
	g.mu.RLock()
	values := make([]T, g.nodes.len())
	for i := range g.nodes.items {
		values[i] = g.nodes.items[i].value
	}
	g.mu.RUnlock()

	for i, v := range values {
		if !fn(model.NodeID(i+1), v) {
			return
		}
	}
}

// ForEachEdge visits every edge in creation order
func (g *Graph[T]) ForEachEdge(fn func(id model.EdgeID, value T) bool) {
	g.mu.RLock()
	values := make([]T, g.edges.len())
	for i := range g.edges.items {
		values[i] = g.edges.items[i].value
	}
	g.mu.RUnlock()

	for i, v := range values {
		if !fn(model.EdgeID(i+1), v) {
			return
		}
	}
}

// ForEachLabel visits every label in creation order
func (g *Graph[T]) ForEachLabel(fn func(id model.LabelID, value T) bool) {
	g.mu.RLock()
	values := make([]T, g.labels.len())
	for i := range g.labels.items {
		values[i] = g.labels.items[i].value
	}
	g.mu.RUnlock()

	for i, v := range values {
		if !fn(model.LabelID(i+1), v) {
			return
		}
	}
}

// ForEachProp visits every property in creation order
func (g *Graph[T]) ForEachProp(fn func(id model.PropID, value T, owner model.Ref) bool) {
	g.mu.RLock()
	props := cloneSlice(g.props.items)
	g.mu.RUnlock()

	for i, p := range props {
		if !fn(model.PropID(i+1), p.value, p.owner) {
			return
		}
	}
}

// ForEachEdgeOnNode visits a node's incident edges in attach order
func (g *Graph[T]) ForEachEdgeOnNode(node model.NodeID, fn func(model.EdgeID) bool) error {
	g.mu.RLock()
	rec, ok := g.nodes.get(uint32(node))
	if !ok {
		g.mu.RUnlock()
		return &model.ErrInvalidNodeID{ID: node}
	}
	edges := cloneSlice(rec.edges)
	g.mu.RUnlock()

	visitAll(edges, fn)
	return nil
}

// ForEachNodeInEdge visits an edge's nodes by position
func (g *Graph[T]) ForEachNodeInEdge(edge model.EdgeID, fn func(model.NodeID) bool) error {
	g.mu.RLock()
	rec, ok := g.edges.get(uint32(edge))
	if !ok {
		g.mu.RUnlock()
		return &model.ErrInvalidEdgeID{ID: edge}
	}
	nodes := cloneSlice(rec.nodes)
	g.mu.RUnlock()

	visitAll(nodes, fn)
	return nil
}

// ForEachLabelOnNode visits a node's labels
func (g *Graph[T]) ForEachLabelOnNode(node model.NodeID, fn func(model.LabelID) bool) error {
	g.mu.RLock()
	rec, ok := g.nodes.get(uint32(node))
	if !ok {
		g.mu.RUnlock()
		return &model.ErrInvalidNodeID{ID: node}
	}
	labels := cloneSlice(rec.labels)
	g.mu.RUnlock()

	visitAll(labels, fn)
	return nil
}

// ForEachNodeInLabel visits a label's members
func (g *Graph[T]) ForEachNodeInLabel(label model.LabelID, fn func(model.NodeID) bool) error {
	g.mu.RLock()
	rec, ok := g.labels.get(uint32(label))
	if !ok {
		g.mu.RUnlock()
		return &model.ErrInvalidLabelID{ID: label}
	}
	nodes := cloneSlice(rec.nodes)
	g.mu.RUnlock()

	visitAll(nodes, fn)
	return nil
}

// ForEachPropOnNode visits a node's properties
func (g *Graph[T]) ForEachPropOnNode(node model.NodeID, fn func(model.PropID) bool) error {
	g.mu.RLock()
	rec, ok := g.nodes.get(uint32(node))
	if !ok {
		g.mu.RUnlock()
		return &model.ErrInvalidNodeID{ID: node}
	}
	props := cloneSlice(rec.props)
	g.mu.RUnlock()

	visitAll(props, fn)
	return nil
}

// ForEachPropOnEdge visits an edge's properties
func (g *Graph[T]) ForEachPropOnEdge(edge model.EdgeID, fn func(model.PropID) bool) error {
	g.mu.RLock()
	rec, ok := g.edges.get(uint32(edge))
	if !ok {
		g.mu.RUnlock()
		return &model.ErrInvalidEdgeID{ID: edge}
	}
	props := cloneSlice(rec.props)
	g.mu.RUnlock()

	visitAll(props, fn)
	return nil
}

func visitAll[E any](items []E, fn func(E) bool) {
	for _, it := range items {
		if !fn(it) {
			return
		}
	}
}

// EdgeIsIncoming reports whether edge points into node. An edge points into
// every node except its source, unless it is inverted.
func (g *Graph[T]) EdgeIsIncoming(node model.NodeID, edge model.EdgeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.edges.get(uint32(edge))
	return ok && rec.direction().IsIncoming(node)
}

// EdgeIsOutgoing reports whether edge points away from node
func (g *Graph[T]) EdgeIsOutgoing(node model.NodeID, edge model.EdgeID) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.edges.get(uint32(edge))
	return ok && rec.direction().IsOutgoing(node)
}

// CollectEdges returns the incident edges of node accepted by keep. A nil
// keep accepts every edge.
func (g *Graph[T]) CollectEdges(node model.NodeID, keep func(model.EdgeID) bool) []model.EdgeID {
	var out []model.EdgeID
	_ = g.ForEachEdgeOnNode(node, func(e model.EdgeID) bool {
		if keep == nil || keep(e) {
			out = append(out, e)
		}
		return true
	})
	return out
}

// CollectNodes returns the nodes of edge accepted by keep, by position
func (g *Graph[T]) CollectNodes(edge model.EdgeID, keep func(model.NodeID) bool) []model.NodeID {
	var out []model.NodeID
	_ = g.ForEachNodeInEdge(edge, func(n model.NodeID) bool {
		if keep == nil || keep(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}
