package filter_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.canoozie.net/riddling/pipegraph/pkg/filter"
	"git.canoozie.net/riddling/pipegraph/pkg/model"
	"git.canoozie.net/riddling/pipegraph/pkg/query"
	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

type family struct {
	g                 *storage.Graph[string]
	odin, frigg, hodr model.NodeID
	parents           model.EdgeID
	aesir             model.LabelID
}

func newFamily(t *testing.T) *family {
	t.Helper()
	g := storage.NewGraph[string](storage.WithLogger(model.NewNoOpLogger()))
	f := &family{
		g:     g,
		odin:  g.AddNode("odin"),
		frigg: g.AddNode("frigg"),
		hodr:  g.AddNode("hodr"),
		aesir: g.AddLabel("aesir"),
	}
	var err error
	f.parents, err = g.AddEdge("parents", f.hodr, f.frigg, f.odin)
	require.NoError(t, err)
	require.NoError(t, g.AttachLabel(f.odin, f.aesir))
	_, err = g.AddProp("allfather", model.NodeRef(f.odin))
	require.NoError(t, err)
	return f
}

// hop from the child across the parents edge to a parent
func (f *family) hop(next model.NodeID) query.Hop[string] {
	return query.Hop[string]{Graph: f.g, Node: f.hodr, Edge: f.parents, Next: next}
}

func TestCombinators(t *testing.T) {
	f := newFamily(t)
	h := f.hop(f.odin)
	yes := filter.Constant[string](true)
	no := filter.Constant[string](false)

	assert.True(t, yes(h))
	assert.False(t, no(h))
	assert.True(t, filter.Not(no)(h))
	assert.True(t, filter.And(yes, yes)(h))
	assert.False(t, filter.And(yes, no)(h))
	assert.True(t, filter.And[string]()(h))
	assert.True(t, filter.Or(no, yes)(h))
	assert.False(t, filter.Or(no, no)(h))
	assert.False(t, filter.Or[string]()(h))
}

func TestValuePredicates(t *testing.T) {
	f := newFamily(t)
	h := f.hop(f.odin)

	assert.True(t, filter.NodeValue("hodr")(h))
	assert.False(t, filter.NodeValue("odin")(h))
	assert.True(t, filter.EdgeValue("parents")(h))
	assert.False(t, filter.EdgeValue("married")(h))
	assert.True(t, filter.NextValue("odin")(h))
	assert.False(t, filter.NextValue("frigg")(h))
	assert.True(t, filter.NodeMatches(func(v string) bool { return strings.HasPrefix(v, "h") })(h))

	noEdge := query.Hop[string]{Graph: f.g, Node: f.hodr}
	assert.False(t, filter.EdgeValue("parents")(noEdge))
	assert.False(t, filter.NextValue("odin")(noEdge))
}

func TestSlot(t *testing.T) {
	f := newFamily(t)

	assert.True(t, filter.Slot[string](1)(f.hop(f.frigg)))
	assert.True(t, filter.Slot[string](2)(f.hop(f.odin)))
	assert.False(t, filter.Slot[string](1)(f.hop(f.odin)))
	assert.True(t, filter.Slot[string](-1)(query.Hop[string]{Graph: f.g, Node: f.hodr}))
}

func TestHasLabelAndDepth(t *testing.T) {
	f := newFamily(t)

	assert.True(t, filter.HasLabel[string](f.aesir)(query.Hop[string]{Graph: f.g, Node: f.odin}))
	assert.False(t, filter.HasLabel[string](f.aesir)(query.Hop[string]{Graph: f.g, Node: f.frigg}))

	below := filter.DepthBelow[string](2)
	assert.True(t, below(query.Hop[string]{Graph: f.g, Depth: 1}))
	assert.False(t, below(query.Hop[string]{Graph: f.g, Depth: 2}))
}

func TestExpr(t *testing.T) {
	f := newFamily(t)

	tests := []struct {
		name   string
		source string
		hop    query.Hop[string]
		want   bool
	}{
		{"node payload", "node.startsWith('h')", f.hop(f.odin), true},
		{"edge payload", "edge == 'parents'", f.hop(f.odin), true},
		{"neighbor payload", "next == 'frigg'", f.hop(f.frigg), true},
		{"slot", "slot == 2", f.hop(f.odin), true},
		{"depth", "depth < 3", query.Hop[string]{Graph: f.g, Node: f.odin, Depth: 2}, true},
		{"labels", "'aesir' in labels", query.Hop[string]{Graph: f.g, Node: f.odin}, true},
		{"missing label", "'aesir' in labels", query.Hop[string]{Graph: f.g, Node: f.hodr}, false},
		{"props", "props == ['allfather']", query.Hop[string]{Graph: f.g, Node: f.odin}, true},
		{"absent edge is null", "edge == null", query.Hop[string]{Graph: f.g, Node: f.odin}, true},
		{"absent slot", "slot == -1", query.Hop[string]{Graph: f.g, Node: f.odin}, true},
		{"runtime error rejects", "int(node) > 0", f.hop(f.odin), false},
		{"non bool rejects", "node", f.hop(f.odin), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, err := filter.Compile(tt.source)
			require.NoError(t, err)
			assert.Equal(t, tt.source, x.String())
			assert.Equal(t, tt.want, filter.Expr[string](x)(tt.hop))
		})
	}
}

func TestCompileErrors(t *testing.T) {
	_, err := filter.Compile("node ==")
	assert.Error(t, err)

	_, err = filter.Compile("unknown_var == 1")
	assert.Error(t, err)

	assert.Panics(t, func() { filter.MustCompile("(((") })
}

func TestExprInPipeline(t *testing.T) {
	f := newFamily(t)
	eng := query.NewEngine(f.g)

	got, err := eng.V(f.hodr).
		Out(filter.EdgeValue("parents"), filter.Expr[string](filter.MustCompile("slot == 2"))).
		Values()
	require.NoError(t, err)
	assert.Equal(t, []string{"odin"}, got)
}
