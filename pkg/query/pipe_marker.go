package query

import (
	"fmt"

	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// markPipe records the current node under a marker
type markPipe[T comparable] struct {
	id MarkerID
}

// Mark returns a pipe that records each token's node under id
func Mark[T comparable](id MarkerID) Pipe[T] {
	return &markPipe[T]{id: id}
}

func (p *markPipe[T]) Name() string { return fmt.Sprintf("as(%d)", p.id) }

func (p *markPipe[T]) Init() PipeState[T] {
	id := p.id
	return stateFunc[T](func(_ *storage.Graph[T], in *Token) StepResult {
		if in == nil {
			return Pull()
		}
		return Emit(in.WithMarker(id, in.Node()))
	})
}

// backPipe moves tokens to a recorded node
type backPipe[T comparable] struct {
	id MarkerID
}

// Back returns a pipe that moves each token to the node recorded under id.
// Tokens without that marker are dropped.
func Back[T comparable](id MarkerID) Pipe[T] {
	return &backPipe[T]{id: id}
}

func (p *backPipe[T]) Name() string { return fmt.Sprintf("back(%d)", p.id) }

func (p *backPipe[T]) Init() PipeState[T] {
	id := p.id
	return stateFunc[T](func(_ *storage.Graph[T], in *Token) StepResult {
		if in == nil {
			return Pull()
		}
		n, ok := in.Marker(id)
		if !ok {
			return Pull()
		}
		return Emit(in.WithNode(n))
	})
}

// exceptPipe drops tokens standing on a recorded node
type exceptPipe[T comparable] struct {
	id MarkerID
}

// Except returns a pipe that drops tokens whose node is the one recorded
// under id. Tokens without that marker pass.
func Except[T comparable](id MarkerID) Pipe[T] {
	return &exceptPipe[T]{id: id}
}

func (p *exceptPipe[T]) Name() string { return fmt.Sprintf("except(%d)", p.id) }

func (p *exceptPipe[T]) Init() PipeState[T] {
	id := p.id
	return stateFunc[T](func(_ *storage.Graph[T], in *Token) StepResult {
		if in == nil {
			return Pull()
		}
		if n, ok := in.Marker(id); ok && n == in.Node() {
			return Pull()
		}
		return Emit(in)
	})
}

// mergePipe fans a token out to each recorded node in turn
type mergePipe[T comparable] struct {
	ids []MarkerID
}

// Merge returns a pipe that emits one token per listed marker the input has
// recorded, in list order
func Merge[T comparable](ids ...MarkerID) Pipe[T] {
	return &mergePipe[T]{ids: append([]MarkerID(nil), ids...)}
}

func (p *mergePipe[T]) Name() string { return fmt.Sprintf("merge(%d)", len(p.ids)) }

func (p *mergePipe[T]) Init() PipeState[T] {
	return &mergeState[T]{ids: p.ids}
}

type mergeState[T comparable] struct {
	ids  []MarkerID
	cur  *Token
	next int
}

func (s *mergeState[T]) Step(_ *storage.Graph[T], in *Token) StepResult {
	if in != nil {
		s.cur = in
		s.next = 0
	}
	if s.cur == nil {
		return Pull()
	}
	for s.next < len(s.ids) {
		id := s.ids[s.next]
		s.next++
		if n, ok := s.cur.Marker(id); ok {
			return Emit(s.cur.WithNode(n))
		}
	}
	s.cur = nil
	return Pull()
}

func (s *mergeState[T]) Close() {}
