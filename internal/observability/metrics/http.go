package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTPServerMetrics instruments the api service: request traffic plus
// the batch-pipeline counters the operators actually watch (submitted
// jobs, estimated spend, processed results).
type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	jobsSubmittedTotal *prometheus.CounterVec
	itemsSubmitted     *prometheus.CounterVec
	estimatedCostUSD   *prometheus.CounterVec
	resultsTotal       *prometheus.CounterVec
	syncRecordsTotal   *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "rka",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "rka",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	jobsSubmittedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "batch",
			Name:      "jobs_submitted_total",
			Help:      "Total batch jobs submitted to the provider.",
		},
		[]string{"service", "kind"},
	)
	itemsSubmitted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "batch",
			Name:      "items_submitted_total",
			Help:      "Total analysis requests submitted inside batch jobs.",
		},
		[]string{"service", "kind"},
	)
	estimatedCostUSD := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "batch",
			Name:      "estimated_cost_usd_total",
			Help:      "Accumulated pre-submission cost estimates in USD.",
		},
		[]string{"service", "kind"},
	)
	resultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "results",
			Name:      "lines_total",
			Help:      "Total processed output lines by outcome.",
		},
		[]string{"service", "outcome"},
	)
	syncRecordsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rka",
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Total ingested parliamentary records by type.",
		},
		[]string{"service", "record"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		jobsSubmittedTotal,
		itemsSubmitted,
		estimatedCostUSD,
		resultsTotal,
		syncRecordsTotal,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		jobsSubmittedTotal: jobsSubmittedTotal,
		itemsSubmitted:     itemsSubmitted,
		estimatedCostUSD:   estimatedCostUSD,
		resultsTotal:       resultsTotal,
		syncRecordsTotal:   syncRecordsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/analysis/jobs/"):
		return "/v1/analysis/jobs/{job_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordSubmission(service, kind string, jobs, items int, costUSD float64) {
	m.jobsSubmittedTotal.WithLabelValues(service, kind).Add(float64(jobs))
	m.itemsSubmitted.WithLabelValues(service, kind).Add(float64(items))
	if costUSD > 0 {
		m.estimatedCostUSD.WithLabelValues(service, kind).Add(costUSD)
	}
}

func (m *HTTPServerMetrics) RecordResultLines(service string, stored, skipped, failed int) {
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

func (m *HTTPServerMetrics) RecordSyncRecords(service string, members, motions, votes, speeches int) {
	m.syncRecordsTotal.WithLabelValues(service, "members").Add(float64(members))
	m.syncRecordsTotal.WithLabelValues(service, "motions").Add(float64(motions))
	m.syncRecordsTotal.WithLabelValues(service, "votes").Add(float64(votes))
	m.syncRecordsTotal.WithLabelValues(service, "speeches").Add(float64(speeches))
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}
