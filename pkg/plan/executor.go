package plan

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"git.canoozie.net/riddling/pipegraph/pkg/filter"
	"git.canoozie.net/riddling/pipegraph/pkg/metrics"
	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/query"
	"git.canoozie.net/riddling/pipegraph/pkg/telemetry"
)

var (
	// ErrUnknownNode indicates that a plan names a node the graph does not hold
	ErrUnknownNode = errors.New("unknown node")
	// ErrUnknownLabel indicates that a plan names a label the graph does not hold
	ErrUnknownLabel = errors.New("unknown label")
)

// Result is the outcome of one plan run
type Result struct {
	RunID    uuid.UUID     `json:"run_id" yaml:"run_id"`
	Plan     string        `json:"plan,omitempty" yaml:"plan,omitempty"`
	Nodes    []string      `json:"nodes" yaml:"nodes"`
	Steps    int64         `json:"steps" yaml:"steps"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Executor compiles plans into queries and runs them against a string graph
type Executor struct {
	Engine    *query.Engine[string]
	Optimizer *Optimizer
	tracer    trace.Tracer
}

// NewExecutor creates a new plan executor
func NewExecutor(engine *query.Engine[string]) *Executor {
	return &Executor{
		Engine:    engine,
		Optimizer: NewOptimizer(),
		tracer:    telemetry.Tracer(),
	}
}

// SetMaxDepth sets the depth given to repeat steps that do not name one
func (e *Executor) SetMaxDepth(depth int) {
	if depth > 0 {
		e.Optimizer.DefaultMaxDepth = depth
	}
}

// Compile optimizes a plan and builds the matching query
func (e *Executor) Compile(p *Plan) (*query.Query[string], error) {
	optimized, err := e.Optimizer.Optimize(p)
	if err != nil {
		return nil, fmt.Errorf("optimization error: %w", err)
	}

	q := e.Engine.Query()
	if err := e.build(q, optimized.Steps); err != nil {
		return nil, err
	}
	if err := q.Err(); err != nil {
		return nil, err
	}
	return q, nil
}

// Execute runs a plan to completion, or until ctx is done
func (e *Executor) Execute(ctx context.Context, p *Plan) (*Result, error) {
	res := &Result{RunID: uuid.New()}
	if p != nil {
		res.Plan = p.Name
	}

	ctx, span := e.tracer.Start(ctx, "plan.Execute", trace.WithAttributes(
		attribute.String("plan.name", res.Plan),
		attribute.String("plan.run_id", res.RunID.String()),
	))
	defer span.End()

	start := time.Now()
	err := e.run(ctx, p, res)
	res.Duration = time.Since(start)
	metrics.ObserveRun(err, len(res.Nodes), res.Steps, res.Duration)

	logger := e.Engine.Logger()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn("plan %q run %s failed: %v", res.Plan, res.RunID, err)
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("plan.results", len(res.Nodes)),
		attribute.Int64("plan.steps", res.Steps),
	)
	if logger.IsLevelEnabled(model.LogLevelDebug) {
		logger.Debug("plan %q run %s returned %d nodes in %d steps (%s)", res.Plan, res.RunID, len(res.Nodes), res.Steps, res.Duration)
	}
	return res, nil
}

func (e *Executor) run(ctx context.Context, p *Plan, res *Result) error {
	q, err := e.Compile(p)
	if err != nil {
		return err
	}

	g := e.Engine.Graph()
	st := q.Pipeline().NewState(g)
	defer st.Close()

	res.Nodes = []string{}
	for {
		if err := ctx.Err(); err != nil {
			res.Steps = st.Steps()
			return err
		}
		tok, ok := st.Next()
		if !ok {
			break
		}
		name, ok := g.NodeValue(tok.Node())
		if !ok {
			return &model.ErrInvalidNodeID{ID: tok.Node()}
		}
		res.Nodes = append(res.Nodes, name)
	}
	res.Steps = st.Steps()
	return nil
}

func (e *Executor) build(q *query.Query[string], steps []Step) error {
	for i := range steps {
		if err := e.buildStep(q, &steps[i]); err != nil {
			return fmt.Errorf("step %d (%s): %w", i, steps[i].Op, err)
		}
	}
	return nil
}

func (e *Executor) buildStep(q *query.Query[string], s *Step) error {
	g := e.Engine.Graph()

	switch s.Op {
	case OpVertex:
		ids := make([]model.NodeID, 0, len(s.Nodes))
		for _, name := range s.Nodes {
			id, ok := g.FindNode(name)
			if !ok {
				return fmt.Errorf("%w: %q", ErrUnknownNode, name)
			}
			ids = append(ids, id)
		}
		q.V(ids...)
	case OpVertexAll:
		q.VAll()
	case OpVertexLabel:
		id, ok := g.FindLabel(s.Label)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownLabel, s.Label)
		}
		q.VLabel(id)
	case OpEdge, OpIn, OpOut:
		edge, err := edgePredicate(s)
		if err != nil {
			return err
		}
		neighbor, err := celPredicate(s.Neighbor)
		if err != nil {
			return err
		}
		switch s.Op {
		case OpIn:
			q.In(edge, neighbor)
		case OpOut:
			q.Out(edge, neighbor)
		default:
			q.E(edge, neighbor)
		}
	case OpFilter:
		pred, err := celPredicate(s.Where)
		if err != nil {
			return err
		}
		q.Filter(pred)
	case OpUnique:
		q.Unique()
	case OpTake:
		q.Take(*s.N)
	case OpAs:
		q.As(s.Name)
	case OpBack:
		q.Back(s.Name)
	case OpExcept:
		q.Except(s.Name)
	case OpMerge:
		q.Merge(s.Names...)
	case OpOptional:
		body, err := e.subQuery(s.Body)
		if err != nil {
			return err
		}
		q.Optional(body)
	case OpRepeatBreadth, OpRepeatDepth:
		body, err := e.subQuery(s.Body)
		if err != nil {
			return err
		}
		repeat, err := celPredicate(s.Repeat)
		if err != nil {
			return err
		}
		if s.MaxDepth > 0 {
			if repeat == nil {
				repeat = filter.DepthBelow[string](s.MaxDepth)
			} else {
				repeat = filter.And(repeat, filter.DepthBelow[string](s.MaxDepth))
			}
		}
		emit, err := celPredicate(s.Emit)
		if err != nil {
			return err
		}
		if s.Op == OpRepeatDepth {
			q.RepeatDepth(body, repeat, emit)
		} else {
			q.RepeatBreadth(body, repeat, emit)
		}
	case OpPass:
		q.Pipe(query.PassThrough[string]())
	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidPlan, s.Op)
	}
	return q.Err()
}

// subQuery builds a step body once so its errors surface before the builder
// callback runs
func (e *Executor) subQuery(steps []Step) (query.SubQuery[string], error) {
	body := e.Engine.Query()
	if err := e.build(body, steps); err != nil {
		return nil, err
	}
	return func(*query.Query[string]) *query.Query[string] {
		return body
	}, nil
}

func edgePredicate(s *Step) (query.Predicate[string], error) {
	where, err := celPredicate(s.Where)
	if err != nil {
		return nil, err
	}
	switch {
	case s.Edge == "":
		return where, nil
	case where == nil:
		return filter.EdgeValue(s.Edge), nil
	default:
		return filter.And(filter.EdgeValue(s.Edge), where), nil
	}
}

// celPredicate compiles a CEL source, or returns nil for an empty one
func celPredicate(source string) (query.Predicate[string], error) {
	if source == "" {
		return nil, nil
	}
	x, err := filter.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPlan, err)
	}
	return filter.Expr[string](x), nil
}
