// Package metrics provides Prometheus metrics for the regeneration pipeline
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline metrics
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasgrid_runs_total",
			Help: "Total number of pipeline runs by outcome",
		},
		[]string{"model", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "atlasgrid_stage_duration_seconds",
			Help:    "Time spent in each pipeline stage",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"model", "stage"},
	)

	RequestsCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasgrid_requests_coalesced_total",
			Help: "Pending regeneration requests replaced by a newer one before dispatch",
		},
		[]string{"model"},
	)

	Triangles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "atlasgrid_published_triangles",
			Help: "Triangle count of the currently published assembly",
		},
		[]string{"model"},
	)

	// Cache metrics
	CacheBuilds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasgrid_cache_builds_total",
			Help: "Geometry cache invocations by result",
		},
		[]string{"result"},
	)

	// Export metrics
	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "atlasgrid_exports_total",
			Help: "STEP export attempts by outcome",
		},
		[]string{"status"},
	)

	ExportDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "atlasgrid_export_duration_seconds",
			Help:    "Duration of STEP exports",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)
)

// PipelineMetrics records metrics for runs of a single model family.
type PipelineMetrics struct {
	model string
}

// NewPipelineMetrics creates a recorder for the named model family.
func NewPipelineMetrics(model string) *PipelineMetrics {
	return &PipelineMetrics{model: model}
}

// RecordStage records the duration of one pipeline stage.
func (m *PipelineMetrics) RecordStage(stage string, d time.Duration) {
	StageDuration.WithLabelValues(m.model, stage).Observe(d.Seconds())
}

// RecordRun records the outcome of a run.
func (m *PipelineMetrics) RecordRun(status string) {
	RunsTotal.WithLabelValues(m.model, status).Inc()
}

// RecordPublished records the size of a newly published assembly.
func (m *PipelineMetrics) RecordPublished(triangles int) {
	Triangles.WithLabelValues(m.model).Set(float64(triangles))
}

// RecordCoalesced records a pending request being overwritten.
func (m *PipelineMetrics) RecordCoalesced() {
	RequestsCoalesced.WithLabelValues(m.model).Inc()
}

// RecordCacheBuild records a geometry cache result.
func RecordCacheBuild(result string) {
	CacheBuilds.WithLabelValues(result).Inc()
}

// RecordExport records an export attempt.
func RecordExport(status string, d time.Duration) {
	ExportsTotal.WithLabelValues(status).Inc()
	if d > 0 {
		ExportDuration.Observe(d.Seconds())
	}
}

// Timer is a helper for measuring duration
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the elapsed time since the timer was created
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
