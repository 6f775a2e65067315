package query

import (
	"fmt"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// Query builds a pipeline one step at a time. Builder methods never fail on
// the spot: the first error is kept, later steps are ignored, and the error
// is reported by Err and Run.
type Query[T comparable] struct {
	engine   *Engine[T]
	pipeline *Pipeline[T]
	err      error
	cursor   *State[T]
}

// SubQuery receives a fresh query on the same engine and returns it with
// steps appended
type SubQuery[T comparable] func(*Query[T]) *Query[T]

// Engine returns the engine the query is bound to
func (q *Query[T]) Engine() *Engine[T] {
	return q.engine
}

// Graph returns the graph the query runs over
func (q *Query[T]) Graph() *storage.Graph[T] {
	return q.engine.graph
}

// Pipeline returns the pipeline built so far
func (q *Query[T]) Pipeline() *Pipeline[T] {
	return q.pipeline
}

// Err returns the first error raised while building the query
func (q *Query[T]) Err() error {
	return q.err
}

// Pipe appends a custom pipe
func (q *Query[T]) Pipe(p Pipe[T]) *Query[T] {
	if q.err != nil {
		return q
	}
	if err := q.pipeline.Append(p); err != nil {
		q.err = err
	}
	return q
}

// AddPipe appends a custom pipe and reports failure directly
func (q *Query[T]) AddPipe(p Pipe[T]) error {
	return q.pipeline.Append(p)
}

// V seeds the query with the given nodes
func (q *Query[T]) V(nodes ...model.NodeID) *Query[T] {
	return q.Pipe(Vertices[T](nodes...))
}

// VAll seeds the query with every node in the graph
func (q *Query[T]) VAll() *Query[T] {
	return q.Pipe(AllVertices[T]())
}

// VLabel seeds the query with the members of a label
func (q *Query[T]) VLabel(label model.LabelID) *Query[T] {
	return q.Pipe(LabelVertices[T](label))
}

// E follows every incident edge accepted by edge to every other node on it
// accepted by neighbor
func (q *Query[T]) E(edge, neighbor Predicate[T]) *Query[T] {
	return q.Pipe(Edges(EdgeAll, edge, neighbor))
}

// In walks incoming edges back to the nodes they come from
func (q *Query[T]) In(edge, neighbor Predicate[T]) *Query[T] {
	return q.Pipe(Edges(EdgeIncoming, edge, neighbor))
}

// Out walks outgoing edges to the nodes they point at
func (q *Query[T]) Out(edge, neighbor Predicate[T]) *Query[T] {
	return q.Pipe(Edges(EdgeOutgoing, edge, neighbor))
}

// Filter drops tokens rejected by pred
func (q *Query[T]) Filter(pred Predicate[T]) *Query[T] {
	return q.Pipe(Filter(pred))
}

// Unique drops tokens standing on a node already seen
func (q *Query[T]) Unique() *Query[T] {
	return q.Pipe(Unique[T]())
}

// Take stops after n results
func (q *Query[T]) Take(n int) *Query[T] {
	return q.Pipe(Take[T](n))
}

// As records the current node under name
func (q *Query[T]) As(name string) *Query[T] {
	return q.Pipe(Mark[T](q.engine.Marker(name)))
}

// Back returns to the node recorded under name
func (q *Query[T]) Back(name string) *Query[T] {
	return q.Pipe(Back[T](q.engine.Marker(name)))
}

// Except drops tokens standing on the node recorded under name
func (q *Query[T]) Except(name string) *Query[T] {
	return q.Pipe(Except[T](q.engine.Marker(name)))
}

// Merge emits one token per recorded name, in order
func (q *Query[T]) Merge(names ...string) *Query[T] {
	ids := make([]MarkerID, len(names))
	for i, name := range names {
		ids[i] = q.engine.Marker(name)
	}
	return q.Pipe(Merge[T](ids...))
}

// Optional replaces each token with the first result of body, or keeps it
// when body finds nothing
func (q *Query[T]) Optional(body SubQuery[T]) *Query[T] {
	pl, ok := q.subPipeline("optional", body)
	if !ok {
		return q
	}
	return q.Pipe(Optional(pl))
}

// RepeatBreadth expands each token through body level by level
func (q *Query[T]) RepeatBreadth(body SubQuery[T], repeat, emit Predicate[T]) *Query[T] {
	return q.repeat(TraversalTypeBFS, body, repeat, emit)
}

// RepeatDepth expands each token through body depth first
func (q *Query[T]) RepeatDepth(body SubQuery[T], repeat, emit Predicate[T]) *Query[T] {
	return q.repeat(TraversalTypeDFS, body, repeat, emit)
}

func (q *Query[T]) repeat(order TraversalType, body SubQuery[T], repeat, emit Predicate[T]) *Query[T] {
	pl, ok := q.subPipeline(string(order), body)
	if !ok {
		return q
	}
	p, err := Repeat(order, pl, repeat, emit)
	if err != nil {
		q.err = err
		return q
	}
	return q.Pipe(p)
}

// subPipeline runs a sub-query callback and checks what it returns
func (q *Query[T]) subPipeline(step string, body SubQuery[T]) (*Pipeline[T], bool) {
	if q.err != nil {
		return nil, false
	}
	if body == nil {
		q.err = fmt.Errorf("%s: %w", step, ErrNilSubquery)
		return nil, false
	}

	sub := body(q.engine.Query())
	switch {
	case sub == nil:
		q.err = fmt.Errorf("%s: %w", step, ErrNilSubquery)
	case sub.engine != q.engine:
		q.err = fmt.Errorf("%s: %w", step, ErrForeignEngine)
	case sub.err != nil:
		q.err = fmt.Errorf("%s: %w", step, sub.err)
	case sub.pipeline == q.pipeline:
		q.err = fmt.Errorf("%s: %w", step, &model.ErrConcurrencyGuard{Active: 1})
	default:
		return sub.pipeline, true
	}
	return nil, false
}

// Run executes the query from scratch and returns every result. It does not
// move the Next cursor.
func (q *Query[T]) Run() ([]*Token, error) {
	if q.err != nil {
		return nil, q.err
	}

	st := q.pipeline.NewState(q.engine.graph)
	defer st.Close()

	out := st.Drain()
	if q.engine.logger.IsLevelEnabled(model.LogLevelDebug) {
		q.engine.logger.Debug("query %v produced %d results in %d steps", q.pipeline.Names(), len(out), st.Steps())
	}
	return out, nil
}

// Nodes runs the query and returns the node of each result
func (q *Query[T]) Nodes() ([]model.NodeID, error) {
	toks, err := q.Run()
	if err != nil {
		return nil, err
	}
	out := make([]model.NodeID, len(toks))
	for i, tok := range toks {
		out[i] = tok.Node()
	}
	return out, nil
}

// Values runs the query and returns the payload of each result node
func (q *Query[T]) Values() ([]T, error) {
	nodes, err := q.Nodes()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(nodes))
	for _, n := range nodes {
		v, ok := q.engine.graph.NodeValue(n)
		if !ok {
			return nil, &model.ErrInvalidNodeID{ID: n}
		}
		out = append(out, v)
	}
	return out, nil
}

// Next returns the next result of the query's cursor. Once it reports false
// it keeps doing so until Reset; check Err to tell a build failure from
// exhaustion.
func (q *Query[T]) Next() (*Token, bool) {
	if q.err != nil {
		return nil, false
	}
	if q.cursor == nil {
		q.cursor = q.pipeline.NewState(q.engine.graph)
	}
	return q.cursor.Next()
}

// Done reports whether the cursor has run out of results or the query failed
// to build
func (q *Query[T]) Done() bool {
	if q.err != nil {
		return true
	}
	return q.cursor != nil && q.cursor.Exhausted()
}

// Reset discards the cursor so the query can be iterated again. A build
// error is kept since the pipeline it left behind is incomplete.
func (q *Query[T]) Reset() {
	if q.cursor != nil {
		q.cursor.Close()
		q.cursor = nil
	}
}
