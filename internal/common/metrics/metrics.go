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

	MatchRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_match_runs_total",
			Help: "Match runs by outcome (assigned, no_candidates, error code)",
		},
		[]string{"outcome"},
	)

	MatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_match_duration_seconds",
			Help:    "End-to-end duration of a match run",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	ShortlistSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dispatch_shortlist_size",
			Help:    "Number of candidates shortlisted per run",
			Buckets: []float64{0, 1, 2, 3, 5, 10},
		},
	)

	CommitConflicts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dispatch_commit_conflicts_total",
			Help: "Assignments lost to a concurrent writer",
		},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dispatch_notifications_total",
			Help: "Notification deliveries by channel and status",
		},
		[]string{"channel", "status"},
	)
)
