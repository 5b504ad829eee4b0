package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	buildDuration   prom.Histogram
	noteResults     *prom.CounterVec
	publishDuration *prom.HistogramVec
	publishOutcome  *prom.CounterVec
	publishedFiles  *prom.CounterVec
	pendingEvents   prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics
// (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "gardenbuilder",
			Name:      "build_duration_seconds",
			Help:      "Total garden build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.noteResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gardenbuilder",
			Name:      "note_results_total",
			Help:      "Per-note compile results by outcome",
		}, []string{"result"})
		pr.publishDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "gardenbuilder",
			Name:      "publish_duration_seconds",
			Help:      "Duration of publish runs",
			Buckets:   prom.DefBuckets,
		}, []string{"result"})
		pr.publishOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gardenbuilder",
			Name:      "publish_outcomes_total",
			Help:      "Publish run outcomes by final status",
		}, []string{"outcome"})
		pr.publishedFiles = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "gardenbuilder",
			Name:      "published_files_total",
			Help:      "Files written to the garden repository by action",
		}, []string{"action"})
		pr.pendingEvents = prom.NewGauge(prom.GaugeOpts{
			Namespace: "gardenbuilder",
			Name:      "pending_vault_events",
			Help:      "Vault change events waiting for the next sync",
		})
		reg.MustRegister(pr.buildDuration, pr.noteResults, pr.publishDuration, pr.publishOutcome, pr.publishedFiles, pr.pendingEvents)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncNoteResult(result ResultLabel) {
	if p == nil || p.noteResults == nil {
		return
	}
	p.noteResults.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) ObservePublishDuration(d time.Duration, success bool) {
	if p == nil || p.publishDuration == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.publishDuration.WithLabelValues(res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncPublishOutcome(outcome string) {
	if p == nil || p.publishOutcome == nil {
		return
	}
	p.publishOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) AddPublishedFiles(action string, n int) {
	if p == nil || p.publishedFiles == nil || n <= 0 {
		return
	}
	p.publishedFiles.WithLabelValues(action).Add(float64(n))
}

func (p *PrometheusRecorder) SetPendingEvents(n int) {
	if p == nil || p.pendingEvents == nil {
		return
	}
	p.pendingEvents.Set(float64(n))
}
