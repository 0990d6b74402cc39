package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queueLength = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "docsdb_task_queue_length",
			Help: "Number of tasks waiting in a queue, including delayed tasks",
		},
		[]string{"queue"},
	)

	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "docsdb_tasks_processed_total",
			Help: "Total number of task runs by outcome",
		},
		[]string{"task", "status"},
	)

	taskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "docsdb_task_duration_seconds",
			Help:    "Time spent running tasks",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"task"},
	)
)
