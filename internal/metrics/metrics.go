// Package metrics provides Prometheus metrics for the /dm/* backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "data_manager_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "data_manager_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	previewBytesServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "data_manager_preview_bytes_total",
			Help: "Bytes served by the preview endpoint",
		},
		[]string{"source"},
	)

	fileOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "data_manager_file_operations_total",
			Help: "Create and delete operations",
		},
		[]string{"operation", "source", "status"},
	)

	sshSessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "data_manager_ssh_sessions_active",
			Help: "Number of open SSH sessions",
		},
	)

	sshConnectsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "data_manager_ssh_connects_total",
			Help: "SSH connection attempts",
		},
		[]string{"result"},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordHTTPRequest records an HTTP request metric.
func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPreview counts bytes served from source ("local" or "remote").
func RecordPreview(source string, bytes int64) {
	previewBytesServed.WithLabelValues(source).Add(float64(bytes))
}

// RecordFileOperation counts a create/delete outcome.
func RecordFileOperation(operation, source string, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	fileOperationsTotal.WithLabelValues(operation, source, status).Inc()
}

// RecordSSHConnect counts a connect attempt.
func RecordSSHConnect(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	sshConnectsTotal.WithLabelValues(result).Inc()
}

// SetSSHSessionsActive sets the open session gauge.
func SetSSHSessionsActive(n int) {
	sshSessionsActive.Set(float64(n))
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// Middleware returns HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		RecordHTTPRequest(r.Method, r.URL.Path, rw.statusCode, time.Since(start))
	})
}
