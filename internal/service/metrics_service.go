package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP, storage and the complaint workflow.
type MetricsService struct {
	registry            *prometheus.Registry
	handler             http.Handler
	requestDuration     *prometheus.HistogramVec
	requestTotal        *prometheus.CounterVec
	dbQueryDuration     *prometheus.HistogramVec
	complaintsSubmitted *prometheus.CounterVec
	complaintsUpdated   *prometheus.CounterVec
	readAcks            prometheus.Counter
	exports             *prometheus.CounterVec
	loginThrottled      prometheus.Counter
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	complaintsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaints_submitted_total",
		Help: "Complaints submitted by reporters",
	}, []string{"priority"})

	complaintsUpdated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaints_staff_updates_total",
		Help: "Staff updates applied to complaints, by resulting status",
	}, []string{"status"})

	readAcks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "complaints_read_acknowledged_total",
		Help: "Unread complaints acknowledged by their reporter",
	})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "complaints_exports_total",
		Help: "Admin complaint exports by format",
	}, []string{"format"})

	loginThrottled := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "auth_login_throttled_total",
		Help: "Login attempts rejected by the rate limiter",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, dbQueryDuration, complaintsSubmitted, complaintsUpdated, readAcks, exports, loginThrottled, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:            registry,
		handler:             handler,
		requestDuration:     requestDuration,
		requestTotal:        requestTotal,
		dbQueryDuration:     dbQueryDuration,
		complaintsSubmitted: complaintsSubmitted,
		complaintsUpdated:   complaintsUpdated,
		readAcks:            readAcks,
		exports:             exports,
		loginThrottled:      loginThrottled,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordComplaintSubmitted counts a new complaint.
func (m *MetricsService) RecordComplaintSubmitted(priority string) {
	if m == nil {
		return
	}
	m.complaintsSubmitted.WithLabelValues(priority).Inc()
}

// RecordComplaintUpdated counts a staff update.
func (m *MetricsService) RecordComplaintUpdated(status string) {
	if m == nil {
		return
	}
	m.complaintsUpdated.WithLabelValues(status).Inc()
}

// RecordReadAcknowledged counts a reporter clearing an unread flag.
func (m *MetricsService) RecordReadAcknowledged() {
	if m == nil {
		return
	}
	m.readAcks.Inc()
}

// RecordExport counts an admin export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// RecordLoginThrottled counts a rejected login attempt.
func (m *MetricsService) RecordLoginThrottled() {
	if m == nil {
		return
	}
	m.loginThrottled.Inc()
}
