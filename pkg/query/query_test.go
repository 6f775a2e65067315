package query_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/query"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

func TestEmptyQuery(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.Query()

	assert.Equal(t, n.g, q.Engine().Graph())
	assert.Same(t, n.g, q.Graph())
	assert.Equal(t, 0, q.Pipeline().Len())

	toks, err := q.Run()
	require.NoError(t, err)
	assert.Empty(t, toks)
}

func TestPassThroughWithoutSeed(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.Query()
	require.NoError(t, q.AddPipe(query.PassThrough[string]()))

	assert.Equal(t, 1, q.Pipeline().Len())
	assert.Empty(t, n.run(t, q))
}

func TestVertexSeeds(t *testing.T) {
	n := buildNorse(t)

	single := n.engine.V(n.id(t, "thor"))
	assert.Equal(t, []string{"thor"}, n.run(t, single))
	// Run is repeatable
	assert.Equal(t, []string{"thor"}, n.run(t, single))

	multi := n.engine.V(n.ids(t, "thor", "odin", "jord")...)
	assert.Equal(t, []string{"thor", "odin", "jord"}, n.run(t, multi))

	thor := n.id(t, "thor")
	repeated := n.engine.V(thor, thor, thor, thor, thor)
	assert.Len(t, n.run(t, repeated), 5)
}

func TestVAllAndVLabel(t *testing.T) {
	n := buildNorse(t)

	all := n.run(t, n.engine.Query().VAll())
	assert.Len(t, all, n.g.NodeCount())
	assert.Equal(t, "audumbla", all[0])

	aesir := n.g.AddLabel("aesir")
	for _, name := range []string{"odin", "thor", "frigg"} {
		require.NoError(t, n.g.AttachLabel(n.id(t, name), aesir))
	}
	assert.Equal(t, []string{"odin", "thor", "frigg"}, n.run(t, n.engine.Query().VLabel(aesir)))
}

func TestQueryAsGenerator(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.ids(t, "thor", "odin")...)
	defer q.Reset()

	assert.False(t, q.Done())

	tok, ok := q.Next()
	require.True(t, ok)
	assert.Equal(t, n.id(t, "thor"), tok.Node())
	assert.False(t, q.Done())

	// Run does not disturb the cursor
	assert.Len(t, n.run(t, q), 2)

	tok, ok = q.Next()
	require.True(t, ok)
	assert.Equal(t, n.id(t, "odin"), tok.Node())
	assert.False(t, q.Done())

	_, ok = q.Next()
	assert.False(t, ok)
	assert.True(t, q.Done())

	_, ok = q.Next()
	assert.False(t, ok)
	assert.True(t, q.Done())
}

func TestModifyDuringGeneratorRun(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.Query()
	require.NoError(t, q.AddPipe(query.PassThrough[string]()))

	_, _ = q.Next()

	err := q.AddPipe(query.PassThrough[string]())
	var guard *model.ErrConcurrencyGuard
	require.ErrorAs(t, err, &guard)
	assert.Equal(t, int64(1), guard.Active)
	assert.Equal(t, 1, q.Pipeline().Len())

	// The fluent form records the error instead
	q.Unique()
	require.ErrorAs(t, q.Err(), &guard)
	_, err = q.Run()
	require.ErrorAs(t, err, &guard)

	// Reset releases the cursor but the build error stays
	q.Reset()
	require.ErrorAs(t, q.Err(), &guard)
	assert.True(t, q.Done())
	require.NoError(t, q.AddPipe(query.PassThrough[string]()))
	assert.Equal(t, 2, q.Pipeline().Len())

	_, ok := q.Next()
	assert.False(t, ok)
	q.Reset()
	assert.Equal(t, int64(0), q.Pipeline().Active())
}

func TestEdgeStepWithDirectionPredicate(t *testing.T) {
	n := buildNorse(t)
	outgoingParents := func(h query.Hop[string]) bool {
		return h.Graph.EdgeIsOutgoing(h.Node, h.Edge) && edgeIs("parents")(h)
	}

	q := n.engine.V(n.id(t, "thor")).E(outgoingParents, nil)
	assert.Equal(t, 2, q.Pipeline().Len())
	assert.Equal(t, []string{"jord", "odin"}, n.run(t, q))
}

func TestEdgeStepBySlot(t *testing.T) {
	n := buildNorse(t)
	outgoingParents := func(h query.Hop[string]) bool {
		return h.Graph.EdgeIsOutgoing(h.Node, h.Edge) && edgeIs("parents")(h)
	}
	slot := func(i int) query.Predicate[string] {
		return func(h query.Hop[string]) bool {
			nodes := h.Graph.EdgeNodes(h.Edge)
			return len(nodes) > i && nodes[i] == h.Next
		}
	}

	mom := n.engine.V(n.id(t, "thor")).E(outgoingParents, slot(1))
	dad := n.engine.V(n.id(t, "thor")).E(outgoingParents, slot(2))

	assert.Equal(t, []string{"jord"}, n.run(t, mom))
	assert.Equal(t, []string{"odin"}, n.run(t, dad))
}

func TestInAndOut(t *testing.T) {
	n := buildNorse(t)

	children := n.engine.V(n.id(t, "thor")).In(edgeIs("parents"), nil)
	assert.Equal(t, []string{"modi", "thrud", "magni"}, n.run(t, children))

	parents := n.engine.V(n.id(t, "thor")).Out(edgeIs("parents"), nil)
	assert.Equal(t, []string{"jord", "odin"}, n.run(t, parents))
}

func TestInvertedEdgeSwapsDirection(t *testing.T) {
	g := storage.NewGraph[string](storage.WithLogger(model.NewNoOpLogger()))
	a := g.AddNode("a")
	b := g.AddNode("b")
	_, err := g.AddInvertedEdge("link", a, b)
	require.NoError(t, err)

	engine := query.NewEngine(g)
	out, err := engine.V(a).Out(nil, nil).Nodes()
	require.NoError(t, err)
	assert.Empty(t, out)

	in, err := engine.V(a).In(nil, nil).Nodes()
	require.NoError(t, err)
	assert.Equal(t, []model.NodeID{b}, in)

	all, err := engine.V(b).E(nil, nil).Nodes()
	require.NoError(t, err)
	assert.Equal(t, []model.NodeID{a}, all)
}

func TestFilter(t *testing.T) {
	n := buildNorse(t)
	notO := func(h query.Hop[string]) bool {
		v, _ := h.Graph.NodeValue(h.Node)
		return !strings.HasPrefix(v, "o")
	}
	q := n.engine.V(n.ids(t, "thor", "odin", "odr")...).Filter(notO)
	assert.Equal(t, []string{"thor"}, n.run(t, q))

	byToken := func(h query.Hop[string]) bool {
		v, _ := h.Graph.NodeValue(h.Token.Node())
		return v[0] != 'o'
	}
	q = n.engine.V(n.ids(t, "thor", "odin", "odr")...).Filter(byToken)
	assert.Equal(t, []string{"thor"}, n.run(t, q))
}

func TestUnique(t *testing.T) {
	n := buildNorse(t)
	thor := n.id(t, "thor")
	assert.Equal(t, []string{"thor"}, n.run(t, n.engine.V(thor, thor, thor, thor, thor).Unique()))

	q := n.engine.V(thor).Out(edgeIs("parents"), nil).In(edgeIs("parents"), nil)
	siblings := n.run(t, q)
	if diff := cmp.Diff([]string{"thor", "hodr", "bragi", "thor", "ullr"}, siblings); diff != "" {
		t.Errorf("siblings mismatch (-want +got):\n%s", diff)
	}

	q = q.Unique()
	assert.Equal(t, 4, q.Pipeline().Len())
	assert.Equal(t, []string{"thor", "hodr", "bragi", "ullr"}, n.run(t, q))
}

func TestTake(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "odin")).In(edgeIs("parents"), nil).Take(2)
	assert.Equal(t, []string{"hodr", "bragi"}, n.run(t, q))

	none := n.engine.V(n.id(t, "odin")).In(edgeIs("parents"), nil).Take(0)
	assert.Empty(t, n.run(t, none))

	more := n.engine.V(n.id(t, "odin")).Take(10)
	assert.Equal(t, []string{"odin"}, n.run(t, more))
}

func TestMarkers(t *testing.T) {
	n := buildNorse(t)

	q := n.engine.V(n.id(t, "thor")).As("me")
	assert.Equal(t, []string{"thor"}, n.run(t, q))

	siblings := n.engine.V(n.id(t, "thor")).
		As("me").
		Out(edgeIs("parents"), nil).
		In(edgeIs("parents"), nil).
		Unique().
		Except("me")
	assert.Equal(t, 6, siblings.Pipeline().Len())
	assert.Equal(t, []string{"hodr", "bragi", "ullr"}, n.run(t, siblings))
}

func TestBack(t *testing.T) {
	n := buildNorse(t)

	q := n.engine.V(n.id(t, "fjorgynn")).
		In(edgeIs("parents"), nil).
		As("me").
		In(edgeIs("parents"), nil).
		Out(edgeIs("parents"), nil).
		Out(edgeIs("parents"), nil).
		Filter(nodeIs("bestla")).
		Back("me").
		Unique()

	// frigg is the daughter of fjorgynn who had children with one of bestla's sons
	assert.Equal(t, []string{"frigg"}, n.run(t, q))
}

func TestBackWithoutMarkerDrops(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "thor")).Back("nowhere")
	assert.Empty(t, n.run(t, q))
}

func TestExceptWithoutMarkerPasses(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "thor")).Except("nowhere")
	assert.Equal(t, []string{"thor"}, n.run(t, q))
}

func TestMerge(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "thor")).
		As("child").
		Out(edgeIs("parents"), nil).
		Take(1).
		As("mom").
		Merge("child", "missing", "mom")

	assert.Equal(t, []string{"thor", "jord"}, n.run(t, q))
}

func TestMarkerInterning(t *testing.T) {
	n := buildNorse(t)

	me := n.engine.Marker("me")
	other := n.engine.Marker("other")
	assert.Equal(t, query.MarkerID(1), me)
	assert.Equal(t, query.MarkerID(2), other)
	assert.Equal(t, me, n.engine.Marker("me"))

	id, ok := n.engine.LookupMarker("other")
	require.True(t, ok)
	assert.Equal(t, other, id)
	_, ok = n.engine.LookupMarker("absent")
	assert.False(t, ok)

	name, ok := n.engine.MarkerName(2)
	require.True(t, ok)
	assert.Equal(t, "other", name)

	n.engine.Marker("alpha")
	assert.Equal(t, []string{"alpha", "me", "other"}, n.engine.Markers())
}

func TestOptional(t *testing.T) {
	n := buildNorse(t)

	empty := n.engine.V(n.id(t, "thor")).Optional(func(q *query.Query[string]) *query.Query[string] {
		return q.Out(edgeIs("creator"), nil)
	})
	assert.Equal(t, 2, empty.Pipeline().Len())
	// thor has no creator, he has parents
	assert.Equal(t, []string{"thor"}, n.run(t, empty))

	exists := n.engine.V(n.id(t, "thor")).Optional(func(q *query.Query[string]) *query.Query[string] {
		return q.Out(edgeIs("parents"), nil)
	})
	assert.Equal(t, []string{"jord"}, n.run(t, exists))

	mixed := n.engine.V(n.ids(t, "buri", "thor")...).Optional(func(q *query.Query[string]) *query.Query[string] {
		return q.Out(edgeIs("creator"), nil)
	})
	assert.Equal(t, []string{"audumbla", "thor"}, n.run(t, mixed))
}

func TestOptionalKeepsMarkers(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "thor")).
		As("me").
		Optional(func(q *query.Query[string]) *query.Query[string] {
			return q.Out(edgeIs("parents"), nil)
		}).
		Back("me")
	assert.Equal(t, []string{"thor"}, n.run(t, q))
}

func TestOptionalDropsBodyMarkers(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "thor")).
		As("me").
		Optional(func(q *query.Query[string]) *query.Query[string] {
			return q.Out(edgeIs("parents"), nil).As("parent")
		})
	assert.Equal(t, []string{"jord"}, n.run(t, q))

	assert.Empty(t, n.run(t, q.Back("parent")))
	assert.Equal(t, []string{"thor"}, n.run(t, n.engine.V(n.id(t, "thor")).
		As("me").
		Optional(func(q *query.Query[string]) *query.Query[string] {
			return q.Out(edgeIs("parents"), nil).As("parent")
		}).
		Merge("parent", "me")))
}

func TestSubqueryErrors(t *testing.T) {
	n := buildNorse(t)
	other := query.NewEngine(n.g)

	q := n.engine.V(n.id(t, "thor")).Optional(func(*query.Query[string]) *query.Query[string] {
		return nil
	})
	assert.True(t, errors.Is(q.Err(), query.ErrNilSubquery))

	q = n.engine.V(n.id(t, "thor")).Optional(func(*query.Query[string]) *query.Query[string] {
		return other.Query().Out(nil, nil)
	})
	assert.True(t, errors.Is(q.Err(), query.ErrForeignEngine))
	_, err := q.Run()
	assert.ErrorIs(t, err, query.ErrForeignEngine)

	var self *query.Query[string]
	self = n.engine.V(n.id(t, "thor"))
	self.Optional(func(*query.Query[string]) *query.Query[string] {
		return self
	})
	var guard *model.ErrConcurrencyGuard
	assert.ErrorAs(t, self.Err(), &guard)
}

func TestNestedBodyCannotContainParent(t *testing.T) {
	n := buildNorse(t)
	outer := n.engine.V(n.id(t, "thor"))
	inner := query.NewPipeline[string](query.Optional(outer.Pipeline()))

	err := outer.AddPipe(query.Optional(inner))
	var guard *model.ErrConcurrencyGuard
	assert.ErrorAs(t, err, &guard)
}

func TestValues(t *testing.T) {
	n := buildNorse(t)
	values, err := n.engine.V(n.id(t, "thor")).Out(edgeIs("parents"), nil).Values()
	require.NoError(t, err)
	assert.Equal(t, []string{"jord", "odin"}, values)
}

func TestBuildErrorEndsCursor(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "thor")).Optional(func(*query.Query[string]) *query.Query[string] {
		return nil
	})
	require.ErrorIs(t, q.Err(), query.ErrNilSubquery)
	assert.True(t, q.Done())

	steps := 0
	for !q.Done() && steps < 10 {
		q.Next()
		steps++
	}
	assert.Zero(t, steps)

	_, ok := q.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, q.Err(), query.ErrNilSubquery)
}

func TestResetKeepsBuildError(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "thor")).
		Optional(func(*query.Query[string]) *query.Query[string] { return nil }).
		Out(edgeIs("parents"), nil)
	require.ErrorIs(t, q.Err(), query.ErrNilSubquery)
	// Nothing after the failed step was appended
	assert.Equal(t, 1, q.Pipeline().Len())

	q.Reset()
	assert.ErrorIs(t, q.Err(), query.ErrNilSubquery)
	assert.True(t, q.Done())

	_, err := q.Values()
	assert.ErrorIs(t, err, query.ErrNilSubquery)
	_, err = q.Run()
	assert.ErrorIs(t, err, query.ErrNilSubquery)
}

func TestIndependentCursors(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.ids(t, "thor", "odin", "buri")...).Out(edgeIs("parents"), nil)
	want := n.run(t, q)
	require.NotEmpty(t, want)

	a := q.Pipeline().NewState(n.g)
	defer a.Close()
	b := q.Pipeline().NewState(n.g)
	defer b.Close()

	first, ok := a.Next()
	require.True(t, ok)

	// Draining b and running the query leave a where it was
	assert.Equal(t, want, n.names(t, b.Drain()))
	assert.True(t, b.Exhausted())
	assert.Equal(t, want, n.run(t, q))
	assert.False(t, a.Exhausted())

	rest := a.Drain()
	got := n.names(t, append([]*query.Token{first}, rest...))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cursor a mismatch (-want +got):\n%s", diff)
	}
}

func TestInterleavedCursors(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.Query().VAll().Out(nil, nil)
	want := n.run(t, q)

	a := q.Pipeline().NewState(n.g)
	defer a.Close()
	b := q.Pipeline().NewState(n.g)
	defer b.Close()

	var gotA, gotB []*query.Token
	for !a.Exhausted() || !b.Exhausted() {
		if tok, ok := a.Next(); ok {
			gotA = append(gotA, tok)
		}
		if tok, ok := b.Next(); ok {
			gotB = append(gotB, tok)
		}
	}
	assert.Equal(t, want, n.names(t, gotA))
	assert.Equal(t, want, n.names(t, gotB))
}

func TestResetReplaysSequence(t *testing.T) {
	n := buildNorse(t)
	q := n.engine.V(n.id(t, "thor")).
		RepeatBreadth(func(q *query.Query[string]) *query.Query[string] {
			return q.Out(edgeIs("parents"), nil)
		}, always, always)
	defer q.Reset()

	drain := func() []string {
		var out []*query.Token
		for {
			tok, ok := q.Next()
			if !ok {
				break
			}
			out = append(out, tok)
		}
		require.NoError(t, q.Err())
		return n.names(t, out)
	}

	first := drain()
	require.NotEmpty(t, first)
	assert.True(t, q.Done())

	q.Reset()
	assert.False(t, q.Done())
	second := drain()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("replay mismatch (-first +second):\n%s", diff)
	}
}
