// Package metrics defines the Prometheus collectors of the smart-agen API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector. A nil *Metrics is valid and records nothing,
// so tests and tools can skip instrumentation.
type Metrics struct {
	DriverAssignments *prometheus.CounterVec
	DocumentUploads   *prometheus.CounterVec
	DashboardCache    *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		DriverAssignments: f.NewCounterVec(prometheus.CounterOpts{
			Name: "smart_agen_driver_assignments_total",
			Help: "Driver reassignments by mode and outcome",
		}, []string{"mode", "outcome"}),
		DocumentUploads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "smart_agen_document_uploads_total",
			Help: "Document uploads by kind and outcome",
		}, []string{"kind", "outcome"}),
		DashboardCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "smart_agen_dashboard_cache_total",
			Help: "Dashboard cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smart_agen_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern, method and status",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route", "method", "status"}),
	}
}

// IncAssignment records one AssignDriver call.
func (m *Metrics) IncAssignment(mode, outcome string) {
	if m == nil {
		return
	}
	m.DriverAssignments.WithLabelValues(mode, outcome).Inc()
}

// IncUpload records one document upload.
func (m *Metrics) IncUpload(kind, outcome string) {
	if m == nil {
		return
	}
	m.DocumentUploads.WithLabelValues(kind, outcome).Inc()
}

// IncDashboardCache records a dashboard cache lookup.
func (m *Metrics) IncDashboardCache(result string) {
	if m == nil {
		return
	}
	m.DashboardCache.WithLabelValues(result).Inc()
}

// ObserveHTTP records the duration of one request.
// Call with time.Now() taken at the start of the request.
func (m *Metrics) ObserveHTTP(route, method string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}
