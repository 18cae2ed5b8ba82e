package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// WorkerMetrics instruments the polling worker: per-job poll sessions,
// terminal outcomes and reconcile passes.
type WorkerMetrics struct {
	registry *prometheus.Registry

	pollTotal         *prometheus.CounterVec
	pollDuration      *prometheus.HistogramVec
	pollInFlight      prometheus.Gauge
	jobsFinishedTotal *prometheus.CounterVec
	reconcileDuration *prometheus.HistogramVec
	resultsTotal      *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	pollTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "worker",
			Name:      "poll_sessions_total",
			Help:      "Total finished poll sessions by status.",
		},
		[]string{"service", "status"},
	)
	pollDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rka",
			Subsystem: "worker",
			Name:      "poll_session_duration_seconds",
			Help:      "Poll session duration in seconds by status.",
			Buckets:   []float64{1, 10, 60, 300, 900, 1800, 3600, 7200},
		},
		[]string{"service", "status"},
	)
	pollInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rka",
			Subsystem: "worker",
			Name:      "poll_sessions_in_flight",
			Help:      "Number of jobs currently being polled.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	jobsFinishedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "worker",
			Name:      "jobs_finished_total",
			Help:      "Total jobs that reached a terminal state, by state.",
		},
		[]string{"service", "state"},
	)
	reconcileDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rka",
			Subsystem: "worker",
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of one reconcile pass over outstanding jobs.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	resultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "worker",
			Name:      "result_lines_total",
			Help:      "Total processed output lines by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(pollTotal, pollDuration, pollInFlight, jobsFinishedTotal, reconcileDuration, resultsTotal)

	return &WorkerMetrics{
		registry:          registry,
		pollTotal:         pollTotal,
		pollDuration:      pollDuration,
		pollInFlight:      pollInFlight,
		jobsFinishedTotal: jobsFinishedTotal,
		reconcileDuration: reconcileDuration,
		resultsTotal:      resultsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartPoll() {
	m.pollInFlight.Inc()
}

func (m *WorkerMetrics) FinishPoll(service string, duration time.Duration, err error) {
	m.pollInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.pollTotal.WithLabelValues(service, status).Inc()
	m.pollDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordJobFinished(service, state string) {
	m.jobsFinishedTotal.WithLabelValues(service, state).Inc()
}

func (m *WorkerMetrics) ObserveReconcile(service string, duration time.Duration) {
	m.reconcileDuration.WithLabelValues(service).Observe(duration.Seconds())
}

func (m *WorkerMetrics) RecordResultLines(service string, stored, skipped, failed int) {
	if stored > 0 {
		m.resultsTotal.WithLabelValues(service, "stored").Add(float64(stored))
	}
	if skipped > 0 {
		m.resultsTotal.WithLabelValues(service, "skipped").Add(float64(skipped))
	}
	if failed > 0 {
		m.resultsTotal.WithLabelValues(service, "failed").Add(float64(failed))
	}
}
