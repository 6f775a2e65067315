package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

func TestObserveRun(t *testing.T) {
	okBefore := testutil.ToFloat64(QueryRuns.WithLabelValues("ok"))
	errBefore := testutil.ToFloat64(QueryRuns.WithLabelValues("error"))
	resultsBefore := testutil.ToFloat64(QueryResults)
	stepsBefore := testutil.ToFloat64(QuerySteps)

	ObserveRun(nil, 3, 17, time.Millisecond)
	ObserveRun(errors.New("boom"), 0, 0, 0)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(QueryRuns.WithLabelValues("ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(QueryRuns.WithLabelValues("error")))
	assert.Equal(t, resultsBefore+3, testutil.ToFloat64(QueryResults))
	assert.Equal(t, stepsBefore+17, testutil.ToFloat64(QuerySteps))
}

func TestObserveGraph(t *testing.T) {
	ObserveGraph(storage.GraphStats{Nodes: 4, Edges: 2, Labels: 1, Props: 0})

	assert.Equal(t, 4.0, testutil.ToFloat64(GraphEntities.WithLabelValues("node")))
	assert.Equal(t, 2.0, testutil.ToFloat64(GraphEntities.WithLabelValues("edge")))
	assert.Equal(t, 1.0, testutil.ToFloat64(GraphEntities.WithLabelValues("label")))
	assert.Equal(t, 0.0, testutil.ToFloat64(GraphEntities.WithLabelValues("prop")))
}
