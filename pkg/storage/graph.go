package storage

import (
	"sync"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
)

type nodeRecord[T any] struct {
	value  T
	edges  []model.EdgeID
	labels []model.LabelID
	props  []model.PropID
}

type edgeRecord[T any] struct {
	value    T
	nodes    []model.NodeID
	props    []model.PropID
	inverted bool
}

// direction views the record as an edge without copying its node list
func (r *edgeRecord[T]) direction() *model.Edge[T] {
	return &model.Edge[T]{Nodes: r.nodes, Inverted: r.inverted}
}

type labelRecord[T any] struct {
	value T
	nodes []model.NodeID
}

type propRecord[T any] struct {
	value T
	owner model.Ref
}

// Graph is an in-memory property graph. Entities are never deleted, so every
// handle it returns stays valid for the lifetime of the graph.
type Graph[T comparable] struct {
	mu     sync.RWMutex
	nodes  arena[nodeRecord[T]]
	edges  arena[edgeRecord[T]]
	labels arena[labelRecord[T]]
	props  arena[propRecord[T]]
	logger model.Logger
	filter *BloomFilter // Node payloads, nil when disabled
}

// GraphOption configures a Graph
type GraphOption func(*graphOptions)

type graphOptions struct {
	logger        model.Logger
	bloomExpected uint64
	bloomFPR      float64
}

// WithLogger sets the logger used by the graph
func WithLogger(logger model.Logger) GraphOption {
	return func(o *graphOptions) {
		o.logger = logger
	}
}

// WithBloomFilter sizes the node payload filter used by FindNode. An expected
// count of zero disables the filter. Only string payloads are filtered: their
// bytes are equal exactly when the payloads are.
func WithBloomFilter(expected uint64, falsePositiveRate float64) GraphOption {
	return func(o *graphOptions) {
		o.bloomExpected = expected
		o.bloomFPR = falsePositiveRate
	}
}

// NewGraph creates an empty graph
func NewGraph[T comparable](opts ...GraphOption) *Graph[T] {
	o := graphOptions{
		logger:        model.DefaultLoggerInstance,
		bloomExpected: 4096,
		bloomFPR:      0.01,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = model.NewNoOpLogger()
	}

	g := &Graph[T]{logger: o.logger}
	var zero T
	if _, ok := any(zero).(string); ok && o.bloomExpected > 0 {
		g.filter = NewBloomFilter(o.bloomFPR, o.bloomExpected)
	}
	return g
}

// Logger returns the logger attached to the graph
func (g *Graph[T]) Logger() model.Logger {
	return g.logger
}

// payloadKey returns the filter key of a string payload
func payloadKey[T any](v T) (string, bool) {
	s, ok := any(v).(string)
	return s, ok
}

// remember records a node payload in the filter
func (g *Graph[T]) remember(value T) {
	if g.filter == nil {
		return
	}
	if key, ok := payloadKey(value); ok {
		g.filter.AddString(key)
	}
}

// AddNode stores a new node and returns its handle
func (g *Graph[T]) AddNode(value T) model.NodeID {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := model.NodeID(g.nodes.add(nodeRecord[T]{value: value}))
	g.remember(value)
	return id
}

// AddLabel stores a new label and returns its handle
func (g *Graph[T]) AddLabel(value T) model.LabelID {
	g.mu.Lock()
	defer g.mu.Unlock()

	return model.LabelID(g.labels.add(labelRecord[T]{value: value}))
}

// AddEdge stores a new edge over the given nodes. Position 0 is the source.
func (g *Graph[T]) AddEdge(value T, nodes ...model.NodeID) (model.EdgeID, error) {
	return g.addEdge(value, false, nodes)
}

// AddInvertedEdge stores a new edge whose incoming/outgoing reading is swapped
func (g *Graph[T]) AddInvertedEdge(value T, nodes ...model.NodeID) (model.EdgeID, error) {
	return g.addEdge(value, true, nodes)
}

func (g *Graph[T]) addEdge(value T, inverted bool, nodes []model.NodeID) (model.EdgeID, error) {
	if len(nodes) < 2 {
		return model.NoEdge, &model.ErrInvalidArity{Count: len(nodes)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// Validate everything before touching any relation list
	for _, n := range nodes {
		if _, ok := g.nodes.get(uint32(n)); !ok {
			return model.NoEdge, &model.ErrInvalidNodeID{ID: n}
		}
	}

	id := model.EdgeID(g.edges.add(edgeRecord[T]{
		value:    value,
		nodes:    cloneSlice(nodes),
		inverted: inverted,
	}))
	for _, n := range nodes {
		rec, _ := g.nodes.get(uint32(n))
		rec.edges = appendUnique(rec.edges, id)
	}
	return id, nil
}

// AddProp stores a new property owned by a node or an edge
func (g *Graph[T]) AddProp(value T, owner model.Ref) (model.PropID, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch owner.Kind {
	case model.KindNode:
		rec, ok := g.nodes.get(owner.ID)
		if !ok {
			return model.NoProp, &model.ErrInvalidOwner{Owner: owner}
		}
		id := model.PropID(g.props.add(propRecord[T]{value: value, owner: owner}))
		rec.props = append(rec.props, id)
		return id, nil
	case model.KindEdge:
		rec, ok := g.edges.get(owner.ID)
		if !ok {
			return model.NoProp, &model.ErrInvalidOwner{Owner: owner}
		}
		id := model.PropID(g.props.add(propRecord[T]{value: value, owner: owner}))
		rec.props = append(rec.props, id)
		return id, nil
	default:
		return model.NoProp, &model.ErrInvalidOwner{Owner: owner}
	}
}

// AttachLabel links a node and a label. Attaching twice is a no-op.
func (g *Graph[T]) AttachLabel(node model.NodeID, label model.LabelID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes.get(uint32(node))
	if !ok {
		return &model.ErrInvalidNodeID{ID: node}
	}
	l, ok := g.labels.get(uint32(label))
	if !ok {
		return &model.ErrInvalidLabelID{ID: label}
	}
	n.labels = appendUnique(n.labels, label)
	l.nodes = appendUnique(l.nodes, node)
	return nil
}

// AttachEdge appends a node to the end of an edge's node list
func (g *Graph[T]) AttachEdge(node model.NodeID, edge model.EdgeID) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.edges.get(uint32(edge))
	if !ok {
		return &model.ErrInvalidEdgeID{ID: edge}
	}
	return g.attachEdgeLocked(node, edge, e, len(e.nodes))
}

// AttachEdgeAt inserts a node into an edge's node list at index. Index may
// equal the current length, which appends.
func (g *Graph[T]) AttachEdgeAt(node model.NodeID, edge model.EdgeID, index int) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	e, ok := g.edges.get(uint32(edge))
	if !ok {
		return &model.ErrInvalidEdgeID{ID: edge}
	}
	return g.attachEdgeLocked(node, edge, e, index)
}

func (g *Graph[T]) attachEdgeLocked(node model.NodeID, edge model.EdgeID, e *edgeRecord[T], index int) error {
	n, ok := g.nodes.get(uint32(node))
	if !ok {
		return &model.ErrInvalidNodeID{ID: node}
	}
	if index < 0 || index > len(e.nodes) {
		return &model.ErrIndexOutOfRange{Index: index, Length: len(e.nodes)}
	}

	nodes := make([]model.NodeID, 0, len(e.nodes)+1)
	nodes = append(nodes, e.nodes[:index]...)
	nodes = append(nodes, node)
	nodes = append(nodes, e.nodes[index:]...)
	e.nodes = nodes
	n.edges = appendUnique(n.edges, edge)
	return nil
}
