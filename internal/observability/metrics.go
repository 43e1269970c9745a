package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "maintenance"

// Metrics exposes Prometheus collectors for the HTTP surface and the request workflow.
// A nil *Metrics is a valid no-op recorder.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	errorsByCode *prometheus.CounterVec

	requestsCreated     *prometheus.CounterVec
	workflowTransitions *prometheus.CounterVec
	workflowFailures    *prometheus.CounterVec
	equipmentScrapped   prometheus.Counter
}

// NewMetrics registers all collectors on a private registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		errorsByCode: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_code_total",
				Help:      "Total number of error responses by error code",
			},
			[]string{"route", "method", "code"},
		),
		requestsCreated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_created_total",
				Help:      "Total number of maintenance requests created",
			},
			[]string{"type"},
		),
		workflowTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_operations_total",
				Help:      "Total number of successful workflow operations",
			},
			[]string{"operation", "status"},
		),
		workflowFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "workflow_failures_total",
				Help:      "Total number of rejected workflow operations by failure kind",
			},
			[]string{"operation", "kind"},
		),
		equipmentScrapped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "equipment_scrapped_total",
				Help:      "Total number of equipment items marked as scrapped",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.errorsByCode,
		m.requestsCreated,
		m.workflowTransitions,
		m.workflowFailures,
		m.equipmentScrapped,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest observes a completed HTTP request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError counts an error response by its code.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errorsByCode.WithLabelValues(route, method, code).Inc()
}

// RecordRequestCreated counts a new maintenance request.
func (m *Metrics) RecordRequestCreated(requestType string) {
	if m == nil {
		return
	}
	m.requestsCreated.WithLabelValues(requestType).Inc()
}

// RecordWorkflowOperation counts a successful operation and the status it left the request in.
func (m *Metrics) RecordWorkflowOperation(operation, status string) {
	if m == nil {
		return
	}
	m.workflowTransitions.WithLabelValues(operation, status).Inc()
}

// RecordWorkflowFailure counts an operation rejected by the engine.
func (m *Metrics) RecordWorkflowFailure(operation, kind string) {
	if m == nil {
		return
	}
	m.workflowFailures.WithLabelValues(operation, kind).Inc()
}

// RecordEquipmentScrapped counts equipment taken out of service.
func (m *Metrics) RecordEquipmentScrapped() {
	if m == nil {
		return
	}
	m.equipmentScrapped.Inc()
}
