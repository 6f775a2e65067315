package query

import (
	"sync"
	"sync/atomic"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// Pipeline is an ordered list of pipes. States derived from it hold it in
// use; while any state is alive the pipe list cannot change.
type Pipeline[T comparable] struct {
	mu     sync.Mutex
	pipes  []Pipe[T]
	active atomic.Int64
}

// NewPipeline creates a pipeline from the given pipes
func NewPipeline[T comparable](pipes ...Pipe[T]) *Pipeline[T] {
	pl := &Pipeline[T]{}
	for _, p := range pipes {
		pl.pipes = append(pl.pipes, p)
	}
	return pl
}

// Append adds a pipe to the end of the pipeline
func (pl *Pipeline[T]) Append(p Pipe[T]) error {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	if n := pl.active.Load(); n > 0 {
		return &model.ErrConcurrencyGuard{Active: n}
	}
	if n, ok := p.(nester[T]); ok && nestsPipeline(n, pl) {
		// The pipe would start a state of this pipeline from inside itself
		return &model.ErrConcurrencyGuard{Active: 1}
	}
	pl.pipes = append(pl.pipes, p)
	return nil
}

func nestsPipeline[T comparable](n nester[T], target *Pipeline[T]) bool {
	for _, body := range n.bodies() {
		if body == target {
			return true
		}
		for _, p := range body.snapshot() {
			if inner, ok := p.(nester[T]); ok && nestsPipeline(inner, target) {
				return true
			}
		}
	}
	return false
}

func (pl *Pipeline[T]) snapshot() []Pipe[T] {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	out := make([]Pipe[T], len(pl.pipes))
	copy(out, pl.pipes)
	return out
}

// Len returns the number of pipes
func (pl *Pipeline[T]) Len() int {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return len(pl.pipes)
}

// Names returns the pipe names in order
func (pl *Pipeline[T]) Names() []string {
	pipes := pl.snapshot()
	names := make([]string, len(pipes))
	for i, p := range pipes {
		names[i] = p.Name()
	}
	return names
}

// Active returns the number of live states derived from the pipeline
func (pl *Pipeline[T]) Active() int64 {
	return pl.active.Load()
}

// NewState starts a run of the pipeline over g. The caller must Close it.
func (pl *Pipeline[T]) NewState(g *storage.Graph[T]) *State[T] {
	return pl.newState(g, nil)
}

// newState starts a run, optionally fronted by a head state
func (pl *Pipeline[T]) newState(g *storage.Graph[T], head PipeState[T]) *State[T] {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	pl.active.Add(1)
	s := &State[T]{pipeline: pl, graph: g}
	if head != nil {
		s.pipes = append(s.pipes, head)
	}
	for _, p := range pl.pipes {
		s.pipes = append(s.pipes, p.Init())
	}
	s.pc = len(s.pipes)
	return s
}

// State is one run of a pipeline. It yields results one at a time and can
// only move forward.
type State[T comparable] struct {
	pipeline *Pipeline[T]
	graph    *storage.Graph[T]
	pipes    []PipeState[T]
	carry    *Token
	pc       int // 1-based cursor into pipes
	done     int // Pipes [0, done) are exhausted
	steps    int64
	closed   bool
}

// Next runs the interpreter until a token reaches the end of the pipeline
// or every pipe is exhausted
func (s *State[T]) Next() (*Token, bool) {
	last := len(s.pipes)
	for s.done < last {
		res := s.pipes[s.pc-1].Step(s.graph, s.carry)
		s.carry = nil
		s.steps++

		switch res.Kind {
		case StepPull:
			if s.pc-1 > s.done {
				s.pc--
				continue
			}
			s.done = s.pc
		case StepDone:
			s.done = s.pc
		case StepEmit:
			s.carry = res.Token
		}

		s.pc++
		if s.pc > last {
			out := s.carry
			s.carry = nil
			s.pc--
			if out != nil {
				return out, true
			}
		}
	}
	return nil, false
}

// Exhausted reports whether the state can produce nothing more
func (s *State[T]) Exhausted() bool {
	return s.done >= len(s.pipes)
}

// Drain collects every remaining result
func (s *State[T]) Drain() []*Token {
	var out []*Token
	for {
		tok, ok := s.Next()
		if !ok {
			return out
		}
		out = append(out, tok)
	}
}

// Steps returns the number of pipe steps taken so far
func (s *State[T]) Steps() int64 {
	return s.steps
}

// Close releases the state and its nested states. Closing twice is a no-op.
func (s *State[T]) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, p := range s.pipes {
		p.Close()
	}
	s.pipes = nil
	s.done = 0
	s.pc = 0
	s.pipeline.active.Add(-1)
}
