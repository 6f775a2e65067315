package query

import (
	"sync"

	"github.com/tidwall/btree"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

type markerEntry struct {
	name string
	id   MarkerID
}

// Engine binds queries to a graph and owns the marker names they use.
// Marker ids are handed out from 1 in order of first use and never change.
type Engine[T comparable] struct {
	graph  *storage.Graph[T]
	logger model.Logger

	mu      sync.Mutex
	markers *btree.BTreeG[markerEntry]
	names   []string // Indexed by id-1
}

// EngineOption configures an Engine
type EngineOption func(*engineOptions)

type engineOptions struct {
	logger model.Logger
}

// WithEngineLogger sets the logger used by the engine and its queries
func WithEngineLogger(logger model.Logger) EngineOption {
	return func(o *engineOptions) {
		o.logger = logger
	}
}

// NewEngine creates a query engine over g
func NewEngine[T comparable](g *storage.Graph[T], opts ...EngineOption) *Engine[T] {
	o := engineOptions{logger: g.Logger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = model.NewNoOpLogger()
	}

	return &Engine[T]{
		graph:  g,
		logger: o.logger,
		markers: btree.NewBTreeG[markerEntry](func(a, b markerEntry) bool {
			return a.name < b.name
		}),
	}
}

// Graph returns the graph queries run against
func (e *Engine[T]) Graph() *storage.Graph[T] {
	return e.graph
}

// Logger returns the engine logger
func (e *Engine[T]) Logger() model.Logger {
	return e.logger
}

// Query starts an empty query
func (e *Engine[T]) Query() *Query[T] {
	return &Query[T]{engine: e, pipeline: NewPipeline[T]()}
}

// V starts a query at the given nodes
func (e *Engine[T]) V(nodes ...model.NodeID) *Query[T] {
	return e.Query().V(nodes...)
}

// Marker returns the id for name, interning it on first use
func (e *Engine[T]) Marker(name string) MarkerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	if entry, ok := e.markers.Get(markerEntry{name: name}); ok {
		return entry.id
	}
	e.names = append(e.names, name)
	id := MarkerID(len(e.names))
	e.markers.Set(markerEntry{name: name, id: id})
	e.logger.Debug("interned marker %q as %d", name, id)
	return id
}

// LookupMarker returns the id for name without interning it
func (e *Engine[T]) LookupMarker(name string) (MarkerID, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.markers.Get(markerEntry{name: name})
	return entry.id, ok
}

// MarkerName returns the name interned as id
func (e *Engine[T]) MarkerName(id MarkerID) (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if id == 0 || int(id) > len(e.names) {
		return "", false
	}
	return e.names[id-1], true
}

// Markers returns every interned name in lexical order
func (e *Engine[T]) Markers() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, e.markers.Len())
	e.markers.Scan(func(entry markerEntry) bool {
		out = append(out, entry.name)
		return true
	})
	return out
}
