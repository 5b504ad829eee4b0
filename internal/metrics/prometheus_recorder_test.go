package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncNoteResult(ResultCompiled)
	pr.IncNoteResult(ResultSkipped)
	pr.ObservePublishDuration(2*time.Second, true)
	pr.IncPublishOutcome("success")
	pr.AddPublishedFiles("created", 4)
	pr.SetPendingEvents(7)
	// Basic scrape to ensure metrics encode without panic
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) == 0 {
		t.Fatalf("expected metrics, got none")
	}
}

func TestPrometheusRecorder_NilRegistryAllocatesOne(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncPublishOutcome("noop")
}
