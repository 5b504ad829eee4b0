package metrics

import (
	"testing"
	"time"
)

func TestNoopRecorder_AllMethodsAreSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveBuildDuration(time.Second)
	r.IncNoteResult(ResultCompiled)
	r.ObservePublishDuration(time.Second, true)
	r.IncPublishOutcome("success")
	r.AddPublishedFiles("created", 3)
	r.SetPendingEvents(2)
}

func TestNilPrometheusRecorder_MethodsAreSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveBuildDuration(time.Second)
	pr.IncNoteResult(ResultSkipped)
	pr.ObservePublishDuration(time.Second, false)
	pr.IncPublishOutcome("failed")
	pr.AddPublishedFiles("deleted", 1)
	pr.SetPendingEvents(0)
}
