package query

import (
	"sort"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
)

// MarkerID is an interned marker name. Zero never names a marker.
type MarkerID uint32

// Token is one path in flight through a pipeline: the node it stands on and
// the waypoints recorded along the way. Tokens are never mutated once built.
type Token struct {
	node    model.NodeID
	markers map[MarkerID]model.NodeID
}

// NewToken creates a token positioned at node with no markers
func NewToken(node model.NodeID) *Token {
	return &Token{node: node}
}

// Node returns the node the token stands on
func (t *Token) Node() model.NodeID {
	return t.node
}

// WithNode returns a copy of the token moved to node
func (t *Token) WithNode(node model.NodeID) *Token {
	// markers is never written after construction, so it can be shared
	return &Token{node: node, markers: t.markers}
}

// WithMarker returns a copy of the token with node recorded under id
func (t *Token) WithMarker(id MarkerID, node model.NodeID) *Token {
	markers := make(map[MarkerID]model.NodeID, len(t.markers)+1)
	for k, v := range t.markers {
		markers[k] = v
	}
	markers[id] = node
	return &Token{node: t.node, markers: markers}
}

// Marker returns the node recorded under id
func (t *Token) Marker(id MarkerID) (model.NodeID, bool) {
	n, ok := t.markers[id]
	return n, ok
}

// MarkerIDs returns the recorded marker ids in ascending order
func (t *Token) MarkerIDs() []MarkerID {
	ids := make([]MarkerID, 0, len(t.markers))
	for id := range t.markers {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
