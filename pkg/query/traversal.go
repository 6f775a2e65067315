package query

import (
	"fmt"

	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// TraversalType represents the expansion order of a repeat step
type TraversalType string

const (
	TraversalTypeBFS TraversalType = "BFS" // Breadth-First Search
	TraversalTypeDFS TraversalType = "DFS" // Depth-First Search
)

// repeatPipe expands tokens through a nested pipeline again and again.
// Each result is handed to repeat, which decides whether it is expanded
// further, and to emit, which decides whether it leaves the pipe.
type repeatPipe[T comparable] struct {
	order  TraversalType
	body   *Pipeline[T]
	repeat Predicate[T]
	emit   Predicate[T]
}

// Repeat returns a repeat step. A nil emit predicate emits exactly the
// results that are not expanded further. A nil repeat predicate never
// expands, so body runs once per input.
func Repeat[T comparable](order TraversalType, body *Pipeline[T], repeat, emit Predicate[T]) (Pipe[T], error) {
	switch order {
	case TraversalTypeBFS, TraversalTypeDFS:
	default:
		return nil, fmt.Errorf("unsupported traversal type: %s", order)
	}
	return &repeatPipe[T]{order: order, body: body, repeat: repeat, emit: emit}, nil
}

func (p *repeatPipe[T]) Name() string {
	if p.order == TraversalTypeDFS {
		return "repeat_depth"
	}
	return "repeat_breadth"
}

func (p *repeatPipe[T]) bodies() []*Pipeline[T] { return []*Pipeline[T]{p.body} }

func (p *repeatPipe[T]) Init() PipeState[T] {
	return &repeatState[T]{pipe: p}
}

// frame is one token being expanded, with its own run of the body
type frame[T comparable] struct {
	tok   *Token
	depth int
	inner *State[T]
}

type repeatState[T comparable] struct {
	pipe   *repeatPipe[T]
	frames []*frame[T] // Queue front or stack top, depending on order
}

func (s *repeatState[T]) Step(g *storage.Graph[T], in *Token) StepResult {
	if in != nil {
		s.push(g, in, 0)
	}

	for len(s.frames) > 0 {
		f := s.current()
		out, ok := f.inner.Next()
		if !ok {
			// Frame is exhausted, move on to the next one
			s.drop()
			continue
		}

		h := Hop[T]{Graph: g, Token: out, Node: out.Node(), Depth: f.depth + 1}
		again := s.pipe.repeat != nil && s.pipe.repeat(h)
		if again {
			s.push(g, out, f.depth+1)
		}

		emit := !again
		if s.pipe.emit != nil {
			emit = s.pipe.emit(h)
		}
		if emit {
			return Emit(out)
		}
	}
	return Pull()
}

// current returns the frame to pull from next
func (s *repeatState[T]) current() *frame[T] {
	if s.pipe.order == TraversalTypeDFS {
		return s.frames[len(s.frames)-1]
	}
	return s.frames[0]
}

// drop closes and removes the current frame
func (s *repeatState[T]) drop() {
	if s.pipe.order == TraversalTypeDFS {
		last := len(s.frames) - 1
		s.frames[last].inner.Close()
		s.frames[last] = nil
		s.frames = s.frames[:last]
		return
	}
	s.frames[0].inner.Close()
	s.frames[0] = nil
	s.frames = s.frames[1:]
}

// push adds a frame at the back of the queue or the top of the stack
func (s *repeatState[T]) push(g *storage.Graph[T], tok *Token, depth int) {
	s.frames = append(s.frames, &frame[T]{
		tok:   tok,
		depth: depth,
		inner: s.pipe.body.newState(g, &tokenSeedState[T]{tok: tok}),
	})
}

func (s *repeatState[T]) Close() {
	for _, f := range s.frames {
		f.inner.Close()
	}
	s.frames = nil
}
