package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Stage metrics
	StagesCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_stages_completed_total",
			Help: "Total number of workflow stages completed",
		},
		[]string{"stage", "status"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swarm_stage_duration_seconds",
			Help:    "Stage execution duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"stage"},
	)

	// Dispatch metrics
	DispatchFanout = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swarm_dispatch_fanout_subtopics",
			Help:    "Number of subtopics dispatched per research stage",
			Buckets: []float64{1, 2, 3, 5, 8, 13},
		},
	)

	WorkerExecutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_worker_executions_total",
			Help: "Total number of researcher worker executions",
		},
		[]string{"worker", "status"},
	)

	// External service metrics
	ModelCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_model_calls_total",
			Help: "Total number of language model invocations",
		},
		[]string{"stage", "status"},
	)

	SearchCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swarm_search_calls_total",
			Help: "Total number of web search invocations",
		},
		[]string{"status"},
	)

	ReportsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "swarm_reports_published_total",
			Help: "Total number of Markdown reports written to disk",
		},
	)
)
