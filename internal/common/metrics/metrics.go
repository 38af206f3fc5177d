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

	MessagesAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "messages_analyzed_total",
			Help: "Total chat messages run through the analysis pipeline",
		},
		[]string{"outcome"}, // updated | below_threshold | fallback
	)

	PreferenceUpdates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "preference_updates_total",
			Help: "Total member preference merges applied to group profiles",
		},
		[]string{"source"}, // message | join | decay
	)

	CapabilityErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capability_errors_total",
			Help: "Errors from injected capabilities that triggered a degrade path",
		},
		[]string{"capability"}, // search | completion
	)

	RestaurantsScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurants_scored_total",
			Help: "Total candidate restaurants scored by the recommendation engine",
		},
	)
)
