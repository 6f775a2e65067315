// Package metrics exposes Prometheus collectors for query execution and
// graph size.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"git.canoozie.net/riddling/pipegraph/pkg/storage"
)

var (
	// QueryRuns counts plan executions by outcome
	QueryRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pipegraph_query_runs_total",
		Help: "Total query executions by result",
	}, []string{"result"})

	// QueryResults counts tokens that reached the end of a pipeline
	QueryResults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipegraph_query_results_total",
		Help: "Total results produced by queries",
	})

	// QuerySteps counts interpreter steps
	QuerySteps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pipegraph_query_steps_total",
		Help: "Total pipe steps taken by the interpreter",
	})

	// QueryDuration tracks query latency
	QueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pipegraph_query_duration_seconds",
		Help:    "Query execution duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	})

	// GraphEntities reports the size of the loaded graph by entity kind
	GraphEntities = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "pipegraph_graph_entities",
		Help: "Number of stored entities by kind",
	}, []string{"kind"})
)

// ObserveRun records one finished query
func ObserveRun(err error, results int, steps int64, elapsed time.Duration) {
	if err != nil {
		QueryRuns.WithLabelValues("error").Inc()
		return
	}
	QueryRuns.WithLabelValues("ok").Inc()
	QueryResults.Add(float64(results))
	QuerySteps.Add(float64(steps))
	QueryDuration.Observe(elapsed.Seconds())
}

// ObserveGraph publishes entity counts
func ObserveGraph(stats storage.GraphStats) {
	GraphEntities.WithLabelValues("node").Set(float64(stats.Nodes))
	GraphEntities.WithLabelValues("edge").Set(float64(stats.Edges))
	GraphEntities.WithLabelValues("label").Set(float64(stats.Labels))
	GraphEntities.WithLabelValues("prop").Set(float64(stats.Props))
}
