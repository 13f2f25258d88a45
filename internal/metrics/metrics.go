package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crossposter"

var (
	once sync.Once

	admissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "admission_decisions_total",
			Help:      "Admission control verdicts by rule.",
		},
		[]string{"verdict", "rule"},
	)

	destinations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "destinations_total",
			Help:      "Destination transitions by outcome and strategy.",
		},
		[]string{"outcome", "strategy"},
	)

	cycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cycles_total",
			Help:      "Scheduler cycles by branch taken.",
		},
		[]string{"branch"},
	)

	taskErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_errors_total",
			Help:      "Tasks aborted by an unexpected error.",
		},
	)

	replyJobs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reply_jobs_total",
			Help:      "Deferred reply jobs by status.",
		},
		[]string{"status"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(admissions, destinations, cycles, taskErrors, replyJobs)
	})
}

func ObserveAdmission(allowed bool, rule string) {
	verdict := "denied"
	if allowed {
		verdict = "allowed"
	}
	admissions.WithLabelValues(verdict, rule).Inc()
}

func ObserveDestination(outcome, strategy string) {
	destinations.WithLabelValues(outcome, strategy).Inc()
}

func ObserveCycle(branch string) {
	cycles.WithLabelValues(branch).Inc()
}

func IncTaskErrors() {
	taskErrors.Inc()
}

func ObserveReplyJob(status string) {
	replyJobs.WithLabelValues(status).Inc()
}
