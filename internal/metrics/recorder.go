package metrics

import "time"

// ResultLabel enumerates per-note compile outcomes for counters.
type ResultLabel string

const (
	ResultCompiled ResultLabel = "compiled"
	ResultSkipped  ResultLabel = "skipped"
	ResultFailed   ResultLabel = "failed"
)

// Publish outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
	OutcomeNoop    = "noop"
)

// Published file action labels.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Recorder defines observability hooks for build and publish metrics.
// Implementations may forward to Prometheus or stay in memory. All methods
// must be safe on the zero value so injection stays optional.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncNoteResult(result ResultLabel)
	ObservePublishDuration(d time.Duration, success bool)
	IncPublishOutcome(outcome string)       // outcome: success|failed|noop
	AddPublishedFiles(action string, n int) // action: created|updated|deleted
	SetPendingEvents(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not
// configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncNoteResult(ResultLabel)                  {}
func (NoopRecorder) ObservePublishDuration(time.Duration, bool) {}
func (NoopRecorder) IncPublishOutcome(string)                   {}
func (NoopRecorder) AddPublishedFiles(string, int)              {}
func (NoopRecorder) SetPendingEvents(int)                       {}
