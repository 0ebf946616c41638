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

	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_intents_classified_total",
			Help: "Total number of retained intents by type",
		},
		[]string{"intent"},
	)

	SegmentsPerMessage = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "travel_segments_per_message",
			Help:    "Number of segments a message was split into",
			Buckets: []float64{1, 2, 3, 4, 6, 8},
		},
	)

	PlanExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_plan_executions_total",
			Help: "Total number of plan executions by final status",
		},
		[]string{"status"},
	)

	PlanStepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "travel_plan_step_duration_seconds",
			Help:    "Duration of plan steps in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"tool", "outcome"},
	)

	ToolCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "travel_tool_cache_lookups_total",
			Help: "Tool result cache lookups by outcome",
		},
		[]string{"tool", "result"},
	)
)

// Step outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
	OutcomeCached  = "cached"
)

// Cache lookup label values.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)
