package query

import (
	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// StepKind tells the interpreter what a pipe did with its input
type StepKind uint8

const (
	// StepPull asks for more upstream input
	StepPull StepKind = iota
	// StepEmit hands a token downstream
	StepEmit
	// StepDone means the pipe will never produce again
	StepDone
)

func (k StepKind) String() string {
	switch k {
	case StepPull:
		return "pull"
	case StepEmit:
		return "emit"
	case StepDone:
		return "done"
	default:
		return "unknown"
	}
}

// StepResult is the outcome of one Step call
type StepResult struct {
	Kind  StepKind
	Token *Token
}

// Emit builds a result carrying tok downstream
func Emit(tok *Token) StepResult {
	return StepResult{Kind: StepEmit, Token: tok}
}

// Pull builds a result asking for more input
func Pull() StepResult {
	return StepResult{Kind: StepPull}
}

// Done builds a result marking the pipe exhausted
func Done() StepResult {
	return StepResult{Kind: StepDone}
}

// Pipe describes one step of a pipeline. A Pipe is immutable once built and
// may back any number of states.
type Pipe[T comparable] interface {
	// Name identifies the pipe in logs and plans
	Name() string
	// Init creates the per-run state for this pipe
	Init() PipeState[T]
}

// PipeState is the mutable per-run part of a pipe
type PipeState[T comparable] interface {
	// Step feeds one input token, or nil to continue from buffered state
	Step(g *storage.Graph[T], in *Token) StepResult
	// Close releases any nested state
	Close()
}

// Hop is what predicates see. Fields that do not apply to the calling pipe
// are left zero.
type Hop[T comparable] struct {
	Graph *storage.Graph[T]
	Token *Token
	Node  model.NodeID // Current node
	Edge  model.EdgeID // Edge being crossed
	Next  model.NodeID // Neighbor on the far side of Edge
	Depth int          // Repeat depth of the candidate
}

// Predicate decides whether a hop is accepted
type Predicate[T comparable] func(Hop[T]) bool

// nester is implemented by pipes that run nested pipelines
type nester[T comparable] interface {
	bodies() []*Pipeline[T]
}

// stateFunc adapts a closure to PipeState for pipes without nested state
type stateFunc[T comparable] func(g *storage.Graph[T], in *Token) StepResult

func (f stateFunc[T]) Step(g *storage.Graph[T], in *Token) StepResult {
	return f(g, in)
}

func (f stateFunc[T]) Close() {}
