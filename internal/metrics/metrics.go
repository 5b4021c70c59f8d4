package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	// RequestLatency tracks HTTP request latency by endpoint and method
	RequestLatency *prometheus.HistogramVec
	// HTTPRequestsTotal counts HTTP requests
	HTTPRequestsTotal *prometheus.CounterVec
	// HTTPRequestsInFlight gauges HTTP requests being processed
	HTTPRequestsInFlight prometheus.Gauge
	// VendorCalls counts vendor API calls by operation and outcome
	VendorCalls *prometheus.CounterVec
	// ReportsGenerated counts completed report generations
	ReportsGenerated prometheus.Counter
	// ReportVehicles counts vehicles processed by reports, by outcome
	ReportVehicles *prometheus.CounterVec
	// ReportRows tracks row counts of generated reports
	ReportRows prometheus.Histogram
	// ErrorCounter counts errors by type and endpoint
	ErrorCounter *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(namespace string) *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		RequestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_latency_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"endpoint", "method", "status"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"endpoint", "method", "status"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		VendorCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "vendor_calls_total",
				Help:      "Total number of vendor API calls",
			},
			[]string{"operation", "outcome"},
		),
		ReportsGenerated: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_generated_total",
				Help:      "Total number of generated reports",
			},
		),
		ReportVehicles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_vehicles_total",
				Help:      "Vehicles processed by report generation",
			},
			[]string{"outcome"},
		),
		ReportRows: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "report_rows",
				Help:      "Row counts of generated reports",
				Buckets:   []float64{1, 10, 50, 100, 500, 1000, 5000},
			},
		),
		ErrorCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of errors by type",
			},
			[]string{"type", "endpoint", "method"},
		),
	}

	registry.MustRegister(
		m.RequestLatency,
		m.HTTPRequestsTotal,
		m.HTTPRequestsInFlight,
		m.VendorCalls,
		m.ReportsGenerated,
		m.ReportVehicles,
		m.ReportRows,
		m.ErrorCounter,
	)

	return m
}

// Handler returns the Prometheus scrape handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequestLatency records a request latency observation.
func (m *Metrics) RecordRequestLatency(endpoint, method, status string, seconds float64) {
	m.RequestLatency.WithLabelValues(endpoint, method, status).Observe(seconds)
}

// RecordHTTPRequest counts a completed request.
func (m *Metrics) RecordHTTPRequest(endpoint, method, status string) {
	m.HTTPRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// IncHTTPRequestsInFlight increments the in-flight gauge.
func (m *Metrics) IncHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight gauge.
func (m *Metrics) DecHTTPRequestsInFlight() {
	m.HTTPRequestsInFlight.Dec()
}

// RecordVendorCall counts one vendor API call.
func (m *Metrics) RecordVendorCall(operation, outcome string) {
	m.VendorCalls.WithLabelValues(operation, outcome).Inc()
}

// RecordReport records the outcome of one report generation.
func (m *Metrics) RecordReport(vehicles, failed, rows int) {
	m.ReportsGenerated.Inc()
	m.ReportVehicles.WithLabelValues("ok").Add(float64(vehicles - failed))
	m.ReportVehicles.WithLabelValues("error").Add(float64(failed))
	m.ReportRows.Observe(float64(rows))
}

// RecordError counts an error occurrence.
func (m *Metrics) RecordError(errorType, endpoint, method string) {
	m.ErrorCounter.WithLabelValues(errorType, endpoint, method).Inc()
}
