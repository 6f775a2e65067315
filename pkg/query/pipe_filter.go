package query

import (
	"fmt"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// filterPipe passes tokens whose hop satisfies a predicate
type filterPipe[T comparable] struct {
	pred Predicate[T]
}

// Filter returns a pipe that drops tokens rejected by pred
func Filter[T comparable](pred Predicate[T]) Pipe[T] {
	return &filterPipe[T]{pred: pred}
}

func (p *filterPipe[T]) Name() string { return "filter" }

func (p *filterPipe[T]) Init() PipeState[T] {
	pred := p.pred
	return stateFunc[T](func(g *storage.Graph[T], in *Token) StepResult {
		if in == nil {
			return Pull()
		}
		if pred != nil && !pred(Hop[T]{Graph: g, Token: in, Node: in.Node()}) {
			return Pull()
		}
		return Emit(in)
	})
}

// uniquePipe passes the first token to reach each node
type uniquePipe[T comparable] struct{}

// Unique returns a pipe that drops tokens standing on an already seen node
func Unique[T comparable]() Pipe[T] {
	return uniquePipe[T]{}
}

func (uniquePipe[T]) Name() string { return "unique" }

func (uniquePipe[T]) Init() PipeState[T] {
	seen := make(map[model.NodeID]struct{})
	return stateFunc[T](func(_ *storage.Graph[T], in *Token) StepResult {
		if in == nil {
			return Pull()
		}
		if _, ok := seen[in.Node()]; ok {
			return Pull()
		}
		seen[in.Node()] = struct{}{}
		return Emit(in)
	})
}

// takePipe passes at most n tokens
type takePipe[T comparable] struct {
	n int
}

// Take returns a pipe that finishes after passing n tokens
func Take[T comparable](n int) Pipe[T] {
	if n < 0 {
		n = 0
	}
	return &takePipe[T]{n: n}
}

func (p *takePipe[T]) Name() string { return fmt.Sprintf("take(%d)", p.n) }

func (p *takePipe[T]) Init() PipeState[T] {
	limit, count := p.n, 0
	return stateFunc[T](func(_ *storage.Graph[T], in *Token) StepResult {
		if count >= limit {
			return Done()
		}
		if in == nil {
			return Pull()
		}
		count++
		return Emit(in)
	})
}

// passPipe forwards tokens unchanged
type passPipe[T comparable] struct{}

// PassThrough returns a pipe that forwards every token unchanged
func PassThrough[T comparable]() Pipe[T] {
	return passPipe[T]{}
}

func (passPipe[T]) Name() string { return "pass" }

func (passPipe[T]) Init() PipeState[T] {
	return stateFunc[T](func(_ *storage.Graph[T], in *Token) StepResult {
		if in == nil {
			return Pull()
		}
		return Emit(in)
	})
}
