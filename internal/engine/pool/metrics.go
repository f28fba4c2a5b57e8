package pool

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/seantiz/lunar/internal/model"
)

var (
	tasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunar_pool_tasks_total",
			Help: "Total number of tasks that reached a terminal outcome, by engine and status.",
		},
		[]string{"engine", "status"},
	)

	taskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lunar_pool_task_duration_seconds",
			Help:    "Duration from task start to terminal outcome, in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"engine"},
	)

	queuedTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lunar_pool_queued_tasks",
			Help: "Number of accepted tasks waiting for a worker.",
		},
		[]string{"engine"},
	)

	activeTasks = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "lunar_pool_active_tasks",
			Help: "Number of tasks currently executing.",
		},
		[]string{"engine"},
	)

	rejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunar_pool_rejected_total",
			Help: "Total number of rejected submissions.",
		},
		[]string{"engine"},
	)

	faultsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lunar_pool_faults_total",
			Help: "Total number of fire-and-forget task failures routed to the fault hook.",
		},
		[]string{"engine"},
	)
)

func init() {
	prometheus.MustRegister(tasksTotal)
	prometheus.MustRegister(taskDuration)
	prometheus.MustRegister(queuedTasks)
	prometheus.MustRegister(activeTasks)
	prometheus.MustRegister(rejectedTotal)
	prometheus.MustRegister(faultsTotal)
}

// initMetrics pre-initializes the label combinations of an engine so they
// appear in /metrics with value 0 before the first observation.
func initMetrics(engine string) {
	for _, status := range []string{model.StatusCompleted, model.StatusFailed, model.StatusCancelled} {
		tasksTotal.WithLabelValues(engine, status)
	}
	queuedTasks.WithLabelValues(engine).Set(0)
	activeTasks.WithLabelValues(engine).Set(0)
	rejectedTotal.WithLabelValues(engine)
	faultsTotal.WithLabelValues(engine)
}
