// Package metrics instruments the binder the way
// michaelbomholt665-code-watch/internal/shared/observability instruments
// its parser and graph stages: promauto-registered counters and
// histograms, exposed through a small Recorder so callers that don't run
// a Prometheus registry can simply pass nil.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	symbolsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pynder_symbols_created_total",
		Help: "Total number of symbols created across all bound files.",
	})

	flowNodesCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pynder_flow_nodes_created_total",
		Help: "Total number of flow-graph nodes created, by kind.",
	}, []string{"kind"})

	deferredTasksEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pynder_deferred_tasks_enqueued_total",
		Help: "Total number of function/lambda bodies deferred for later binding.",
	})

	deferredQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pynder_deferred_queue_depth",
		Help: "Current depth of the deferred binding queue.",
	})

	bindDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pynder_bind_seconds",
		Help:    "Wall-clock time to bind one file.",
		Buckets: prometheus.DefBuckets,
	})

	diagnosticsEmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pynder_diagnostics_emitted_total",
		Help: "Total number of diagnostics emitted, by severity.",
	}, []string{"severity"})
)

// A Recorder is the binder's optional metrics collaborator. A nil
// *Recorder is valid and records nothing, the same "optional
// collaborator" shape resolve.FileInfo.ImportLookup already uses.
type Recorder struct {
	runID string
}

// New returns a Recorder tagged with runID (typically a uuid.New()
// string) for correlating this bind's metrics with its logs.
func New(runID string) *Recorder {
	return &Recorder{runID: runID}
}

func (r *Recorder) RunID() string {
	if r == nil {
		return ""
	}
	return r.runID
}

func (r *Recorder) SymbolCreated() {
	if r == nil {
		return
	}
	symbolsCreated.Inc()
}

func (r *Recorder) FlowNodeCreated(kind string) {
	if r == nil {
		return
	}
	flowNodesCreated.WithLabelValues(kind).Inc()
}

func (r *Recorder) DeferredTaskEnqueued(queueDepth int) {
	if r == nil {
		return
	}
	deferredTasksEnqueued.Inc()
	deferredQueueDepth.Set(float64(queueDepth))
}

func (r *Recorder) DeferredTaskDrained(queueDepth int) {
	if r == nil {
		return
	}
	deferredQueueDepth.Set(float64(queueDepth))
}

func (r *Recorder) ObserveBindDuration(d time.Duration) {
	if r == nil {
		return
	}
	bindDuration.Observe(d.Seconds())
}

func (r *Recorder) DiagnosticEmitted(severity string) {
	if r == nil {
		return
	}
	diagnosticsEmitted.WithLabelValues(severity).Inc()
}
