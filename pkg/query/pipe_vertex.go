package query

import (
	"fmt"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// vertexPipe emits one token per listed node, then finishes
type vertexPipe[T comparable] struct {
	nodes []model.NodeID
}

// Vertices returns a seed pipe over a fixed node list
func Vertices[T comparable](nodes ...model.NodeID) Pipe[T] {
	return &vertexPipe[T]{nodes: append([]model.NodeID(nil), nodes...)}
}

func (p *vertexPipe[T]) Name() string { return fmt.Sprintf("v(%d)", len(p.nodes)) }

func (p *vertexPipe[T]) Init() PipeState[T] {
	return &listSeedState[T]{nodes: p.nodes}
}

type listSeedState[T comparable] struct {
	nodes  []model.NodeID
	next   int
	loaded bool
	load   func(g *storage.Graph[T]) []model.NodeID
}

func (s *listSeedState[T]) Step(g *storage.Graph[T], _ *Token) StepResult {
	if !s.loaded && s.load != nil {
		s.nodes = s.load(g)
		s.loaded = true
	}
	if s.next >= len(s.nodes) {
		return Done()
	}
	n := s.nodes[s.next]
	s.next++
	return Emit(NewToken(n))
}

func (s *listSeedState[T]) Close() {}

// allVerticesPipe emits every node in the graph at the time of the first step
type allVerticesPipe[T comparable] struct{}

// AllVertices returns a seed pipe over every node in the graph
func AllVertices[T comparable]() Pipe[T] {
	return allVerticesPipe[T]{}
}

func (allVerticesPipe[T]) Name() string { return "v(*)" }

func (allVerticesPipe[T]) Init() PipeState[T] {
	return &listSeedState[T]{load: func(g *storage.Graph[T]) []model.NodeID {
		nodes := make([]model.NodeID, 0, g.NodeCount())
		g.ForEachNode(func(id model.NodeID, _ T) bool {
			nodes = append(nodes, id)
			return true
		})
		return nodes
	}}
}

// labelPipe emits every member of a label
type labelPipe[T comparable] struct {
	label model.LabelID
}

// LabelVertices returns a seed pipe over the members of a label
func LabelVertices[T comparable](label model.LabelID) Pipe[T] {
	return &labelPipe[T]{label: label}
}

func (p *labelPipe[T]) Name() string { return fmt.Sprintf("label(%d)", p.label) }

func (p *labelPipe[T]) Init() PipeState[T] {
	label := p.label
	return &listSeedState[T]{load: func(g *storage.Graph[T]) []model.NodeID {
		return g.LabelNodes(label)
	}}
}

// tokenSeedState feeds a single prepared token into a nested pipeline. It
// keeps the token's markers, unlike the node seeds.
type tokenSeedState[T comparable] struct {
	tok *Token
}

func (s *tokenSeedState[T]) Step(_ *storage.Graph[T], _ *Token) StepResult {
	if s.tok == nil {
		return Done()
	}
	tok := s.tok
	s.tok = nil
	return Emit(tok)
}

func (s *tokenSeedState[T]) Close() {}
