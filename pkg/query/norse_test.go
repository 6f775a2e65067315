package query_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/query"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

// norse is a small genealogy of the Norse gods. Every "parents" edge is
// {child, mother, father}; every "married" edge is {husband, wife}.
type norse struct {
	g      *storage.Graph[string]
	engine *query.Engine[string]
}

func buildNorse(t testing.TB) *norse {
	t.Helper()

	g := storage.NewGraph[string](storage.WithLogger(model.NewNoOpLogger()))
	node := func(name string) model.NodeID {
		return g.AddNode(name)
	}
	edge := func(value string, names ...string) model.EdgeID {
		ids := make([]model.NodeID, len(names))
		for i, name := range names {
			id, ok := g.FindNode(name)
			require.True(t, ok, "missing node %s", name)
			ids[i] = id
		}
		e, err := g.AddEdge(value, ids...)
		require.NoError(t, err)
		return e
	}

	audumbla := node("audumbla")
	_, err := g.AddProp("animal", model.NodeRef(audumbla))
	require.NoError(t, err)
	_, err = g.AddProp("cow", model.NodeRef(audumbla))
	require.NoError(t, err)

	node("tyr")
	node("mimir")
	node("bestla")
	node("burr")
	node("buri")
	creator := edge("creator", "buri", "audumbla")
	_, err = g.AddProp("licked-into-being", model.EdgeRef(creator))
	require.NoError(t, err)
	edge("married", "burr", "bestla")

	node("fjorgynn")
	node("fjorgynn_wife")

	for _, son := range []string{"vili", "ve", "hoenir", "odin"} {
		node(son)
		edge("parents", son, "bestla", "burr")
	}

	node("jord")
	node("frigg")
	edge("parents", "frigg", "fjorgynn_wife", "fjorgynn")
	edge("married", "odin", "frigg")

	node("nanna")
	node("baldr")
	node("hodr")
	edge("parents", "hodr", "frigg", "odin")
	node("bragi")
	edge("parents", "bragi", "frigg", "odin")
	node("idunn")
	edge("married", "baldr", "nanna")
	node("forseti")
	edge("parents", "forseti", "nanna", "baldr")

	node("sif")
	node("thor")
	edge("parents", "thor", "jord", "odin")
	node("jarnsaxa")
	edge("married", "thor", "sif")

	node("skadi")
	node("njord")
	node("ullr")
	edge("parents", "ullr", "sif", "odin")
	node("modi")
	edge("parents", "modi", "sif", "thor")
	node("thrud")
	edge("parents", "thrud", "sif", "thor")
	node("magni")
	edge("parents", "magni", "jarnsaxa", "thor")

	node("gerdr")
	node("freyr")
	edge("parents", "freyr", "skadi", "njord")
	node("freya")
	edge("parents", "freya", "skadi", "njord")
	node("odr")
	edge("married", "freyr", "gerdr")
	edge("married", "odr", "freya")

	return &norse{g: g, engine: query.NewEngine(g)}
}

// id returns the node named name
func (n *norse) id(t testing.TB, name string) model.NodeID {
	t.Helper()
	id, ok := n.g.FindNode(name)
	require.True(t, ok, "missing node %s", name)
	return id
}

func (n *norse) ids(t testing.TB, names ...string) []model.NodeID {
	t.Helper()
	out := make([]model.NodeID, len(names))
	for i, name := range names {
		out[i] = n.id(t, name)
	}
	return out
}

// names maps tokens to node payloads
func (n *norse) names(t testing.TB, toks []*query.Token) []string {
	t.Helper()
	out := make([]string, len(toks))
	for i, tok := range toks {
		v, ok := n.g.NodeValue(tok.Node())
		require.True(t, ok)
		out[i] = v
	}
	return out
}

func (n *norse) run(t testing.TB, q *query.Query[string]) []string {
	t.Helper()
	toks, err := q.Run()
	require.NoError(t, err)
	return n.names(t, toks)
}

// edgeIs accepts edges carrying value
func edgeIs(value string) query.Predicate[string] {
	return func(h query.Hop[string]) bool {
		v, ok := h.Graph.EdgeValue(h.Edge)
		return ok && v == value
	}
}

func nodeIs(value string) query.Predicate[string] {
	return func(h query.Hop[string]) bool {
		v, ok := h.Graph.NodeValue(h.Node)
		return ok && v == value
	}
}
