package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Task Queue Metrics
var (
	// TasksEnqueued tracks tasks pushed to the queue by task name and transport
	// (queue or inline fallback)
	TasksEnqueued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_enqueued_total",
			Help: "Total tasks scheduled by task name and transport",
		},
		[]string{"task", "transport"},
	)

	// TasksProcessed tracks completed task executions by task name and status
	TasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tasks_processed_total",
			Help: "Total task executions by task name and status",
		},
		[]string{"task", "status"},
	)

	// TaskDuration tracks task execution latency in seconds
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_duration_seconds",
			Help:    "Task execution duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"task"},
	)

	// QueueFallbacks tracks how often scheduling fell back to inline execution
	QueueFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "task_queue_fallbacks_total",
			Help: "Total inline fallbacks because the task queue was unavailable",
		},
	)
)

// Scoring Metrics
var (
	// ScoreRecomputations tracks score recomputation runs by outcome
	ScoreRecomputations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_recomputations_total",
			Help: "Total project score recomputations by status",
		},
		[]string{"status"},
	)

	// RecommendationRefreshes tracks recommendation regenerations by outcome
	RecommendationRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendation_refreshes_total",
			Help: "Total recommendation refreshes by status",
		},
		[]string{"status"},
	)
)

// Notification Metrics
var (
	// NotificationsSent tracks notification dispatches by status
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Total notifications dispatched by status",
		},
		[]string{"status"},
	)
)
