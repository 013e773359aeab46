// Package metrics exposes Prometheus instrumentation for uploads, analysis
// tasks and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "renal"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Counters
	uploads        *prometheus.CounterVec
	tasksSubmitted *prometheus.CounterVec
	tasksFinished  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec

	// Gauges
	queueDepth prometheus.Gauge

	// Histograms
	taskDuration *prometheus.HistogramVec
	httpDuration *prometheus.HistogramVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uploads_total",
				Help:      "Total number of slide uploads by result",
			},
			[]string{"result"},
		),
		tasksSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_tasks_dispatched_total",
				Help:      "Total number of analysis tasks handed to the worker pool",
			},
			[]string{"analysis_type"},
		),
		tasksFinished: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "analysis_tasks_finished_total",
				Help:      "Total number of analysis tasks that reached a terminal state",
			},
			[]string{"analysis_type", "status"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "analysis_queue_depth",
				Help:      "Number of analysis jobs waiting for a worker",
			},
		),
		taskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "analysis_task_duration_seconds",
				Help:      "Analysis task execution duration in seconds",
				Buckets:   []float64{.1, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"analysis_type"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.uploads,
		m.tasksSubmitted,
		m.tasksFinished,
		m.httpRequests,
		m.queueDepth,
		m.taskDuration,
		m.httpDuration,
	)

	return m
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// JobSubmitted records a job accepted by the worker pool.
func (m *Metrics) JobSubmitted(jobType string) {
	m.tasksSubmitted.WithLabelValues(jobType).Inc()
}

// JobFinished records a job that reached a terminal state.
func (m *Metrics) JobFinished(jobType, status string, elapsed time.Duration) {
	m.tasksFinished.WithLabelValues(jobType, status).Inc()
	m.taskDuration.WithLabelValues(jobType).Observe(elapsed.Seconds())
}

// QueueDepth records the number of jobs waiting for a worker.
func (m *Metrics) QueueDepth(n int) {
	m.queueDepth.Set(float64(n))
}

// UploadFinished records the outcome of an upload.
func (m *Metrics) UploadFinished(result string) {
	m.uploads.WithLabelValues(result).Inc()
}

// ObserveHTTP records one served request. route is the matched route
// pattern, never the raw path.
func (m *Metrics) ObserveHTTP(method, route string, code int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
