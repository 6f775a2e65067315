package query

import (
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// optionalPipe replaces a token with the first result of a nested pipeline,
// keeping the token when the nested pipeline finds nothing
type optionalPipe[T comparable] struct {
	body *Pipeline[T]
}

// Optional returns a pipe that runs body from each token
func Optional[T comparable](body *Pipeline[T]) Pipe[T] {
	return &optionalPipe[T]{body: body}
}

func (p *optionalPipe[T]) Name() string { return "optional" }

func (p *optionalPipe[T]) bodies() []*Pipeline[T] { return []*Pipeline[T]{p.body} }

func (p *optionalPipe[T]) Init() PipeState[T] {
	body := p.body
	return stateFunc[T](func(g *storage.Graph[T], in *Token) StepResult {
		if in == nil {
			return Pull()
		}
		inner := body.newState(g, &tokenSeedState[T]{tok: in})
		defer inner.Close()

		// Only the position carries over; markers set by the body stay inside it
		if out, ok := inner.Next(); ok {
			return Emit(in.WithNode(out.Node()))
		}
		return Emit(in)
	})
}
