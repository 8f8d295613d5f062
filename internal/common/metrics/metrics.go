// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

var (
	ValuationLineItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_line_items_total",
			Help: "Line items appraised, by whether the catalog priced them",
		},
		[]string{"task_type", "priced"},
	)

	AssessmentLevelResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assessment_level_resolutions_total",
			Help: "Assessment level lookups by building category and outcome",
		},
		[]string{"category", "resolved"},
	)

	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "valuation_catalog_entries",
			Help: "Priced (construction type, usage) combinations in the loaded catalog",
		},
	)

	CatalogLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "valuation_catalog_loads_total",
			Help: "Catalog load attempts by source and result",
		},
		[]string{"source", "result"},
	)
)

// RecordLineItems counts priced and unpriced line items of one job.
func RecordLineItems(taskType string, total, unpriced int) {
	if priced := total - unpriced; priced > 0 {
		ValuationLineItems.WithLabelValues(taskType, "true").Add(float64(priced))
	}
	if unpriced > 0 {
		ValuationLineItems.WithLabelValues(taskType, "false").Add(float64(unpriced))
	}
}

func RecordLevelResolution(category string, resolved bool) {
	if category == "" {
		category = "unset"
	}
	label := "false"
	if resolved {
		label = "true"
	}
	AssessmentLevelResolutions.WithLabelValues(category, label).Inc()
}
