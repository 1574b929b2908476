package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilRecorderIsANoOp(t *testing.T) {
	var r *Recorder
	r.SymbolCreated()
	r.FlowNodeCreated("assignment")
	r.DeferredTaskEnqueued(3)
	r.DeferredTaskDrained(2)
	r.ObserveBindDuration(time.Millisecond)
	r.DiagnosticEmitted("error")
	if got := r.RunID(); got != "" {
		t.Fatalf("expected empty run id from a nil recorder, got %q", got)
	}
}

func TestRecorderTagsRunID(t *testing.T) {
	r := New("run-123")
	if got := r.RunID(); got != "run-123" {
		t.Fatalf("expected run-123, got %q", got)
	}
}

func TestRecorderIncrementsCounters(t *testing.T) {
	r := New("run-counters")

	before := testutil.ToFloat64(symbolsCreated)
	r.SymbolCreated()
	if after := testutil.ToFloat64(symbolsCreated); after != before+1 {
		t.Fatalf("expected symbolsCreated to increment by 1, got %v -> %v", before, after)
	}

	r.FlowNodeCreated("call")
	if got := testutil.ToFloat64(flowNodesCreated.WithLabelValues("call")); got < 1 {
		t.Fatalf("expected flowNodesCreated{kind=call} to be at least 1, got %v", got)
	}

	r.DiagnosticEmitted("warning")
	if got := testutil.ToFloat64(diagnosticsEmitted.WithLabelValues("warning")); got < 1 {
		t.Fatalf("expected diagnosticsEmitted{severity=warning} to be at least 1, got %v", got)
	}
}
