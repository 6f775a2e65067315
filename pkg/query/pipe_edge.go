package query

import (
	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// EdgeMode selects which incident edges an edge step follows
type EdgeMode uint8

const (
	// EdgeAll follows every incident edge to every other node on it
	EdgeAll EdgeMode = iota
	// EdgeIncoming follows edges pointing into the current node
	EdgeIncoming
	// EdgeOutgoing follows edges pointing away from the current node
	EdgeOutgoing
)

func (m EdgeMode) String() string {
	switch m {
	case EdgeIncoming:
		return "in"
	case EdgeOutgoing:
		return "out"
	default:
		return "e"
	}
}

// edgePipe moves tokens across incident edges
type edgePipe[T comparable] struct {
	mode     EdgeMode
	edge     Predicate[T]
	neighbor Predicate[T]
}

// Edges returns an edge step. Either predicate may be nil to accept everything.
func Edges[T comparable](mode EdgeMode, edge, neighbor Predicate[T]) Pipe[T] {
	return &edgePipe[T]{mode: mode, edge: edge, neighbor: neighbor}
}

func (p *edgePipe[T]) Name() string { return p.mode.String() }

func (p *edgePipe[T]) Init() PipeState[T] {
	return &edgeState[T]{pipe: p}
}

type edgeState[T comparable] struct {
	pipe  *edgePipe[T]
	cur   *Token
	edges []model.EdgeID
	edge  model.EdgeID
	nodes []model.NodeID
}

func (s *edgeState[T]) Step(g *storage.Graph[T], in *Token) StepResult {
	if in == nil && len(s.edges) == 0 && len(s.nodes) == 0 {
		return Pull()
	}

	if in != nil {
		s.cur = in
		s.nodes = nil
		s.edges = s.collectEdges(g, in)
	}

	for len(s.nodes) == 0 {
		if len(s.edges) == 0 {
			return Pull()
		}
		s.edge = s.edges[0]
		s.edges = s.edges[1:]
		s.nodes = s.collectNeighbors(g, s.edge)
	}

	next := s.nodes[0]
	s.nodes = s.nodes[1:]
	return Emit(s.cur.WithNode(next))
}

func (s *edgeState[T]) collectEdges(g *storage.Graph[T], tok *Token) []model.EdgeID {
	n := tok.Node()
	return g.CollectEdges(n, func(e model.EdgeID) bool {
		switch s.pipe.mode {
		case EdgeIncoming:
			if !g.EdgeIsIncoming(n, e) {
				return false
			}
		case EdgeOutgoing:
			if !g.EdgeIsOutgoing(n, e) {
				return false
			}
		}
		if s.pipe.edge == nil {
			return true
		}
		return s.pipe.edge(Hop[T]{Graph: g, Token: tok, Node: n, Edge: e})
	})
}

func (s *edgeState[T]) collectNeighbors(g *storage.Graph[T], e model.EdgeID) []model.NodeID {
	n := s.cur.Node()
	return g.CollectNodes(e, func(next model.NodeID) bool {
		switch s.pipe.mode {
		case EdgeIncoming:
			// Walk against the edge: keep the nodes it points away from
			if g.EdgeIsIncoming(next, e) {
				return false
			}
		case EdgeOutgoing:
			if g.EdgeIsOutgoing(next, e) {
				return false
			}
		default:
			if next == n {
				return false
			}
		}
		if s.pipe.neighbor == nil {
			return true
		}
		return s.pipe.neighbor(Hop[T]{Graph: g, Token: s.cur, Node: n, Edge: e, Next: next})
	})
}

func (s *edgeState[T]) Close() {}
