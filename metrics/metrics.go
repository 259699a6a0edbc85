package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes
const (
	OutcomeOK       = "ok"
	OutcomeInvalid  = "invalid"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

var (
	// OverlayOperations counts overlay operations by name and outcome
	OverlayOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "overlay_operations_total",
		Help: "Total number of overlay operations",
	}, []string{"operation", "outcome"})

	// OverlayOperationDuration tracks how long overlay operations take, store round trips included
	OverlayOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "overlay_operation_duration_seconds",
		Help:    "Duration of overlay operations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	// HTTPRequestDuration tracks HTTP request latency by method and status code
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "overlay_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "code"})

	// OverlaysStored tracks the overlay count last reported by the store
	OverlaysStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "overlay_store_overlays",
		Help: "Number of overlays in the store at the last check",
	})

	// HealthCheckFailures tracks health check failures
	HealthCheckFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "overlay_health_check_failures_total",
		Help: "Total number of health check failures",
	})
)

// RecordOperation counts one overlay operation and observes its duration
func RecordOperation(operation, outcome string, d time.Duration) {
	OverlayOperations.WithLabelValues(operation, outcome).Inc()
	OverlayOperationDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// ObserveHTTPRequest records the latency of a served HTTP request
func ObserveHTTPRequest(method string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, strconv.Itoa(status)).Observe(d.Seconds())
}

// SetOverlaysStored sets the stored overlay gauge
func SetOverlaysStored(count int) {
	OverlaysStored.Set(float64(count))
}

// RecordHealthCheckFailure increments the health check failure counter
func RecordHealthCheckFailure() {
	HealthCheckFailures.Inc()
}
