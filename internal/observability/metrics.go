package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "grievance_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	httpErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_http_errors_total",
		Help: "API errors by error code",
	}, []string{"method", "path", "code"})

	complaintTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_complaint_transitions_total",
		Help: "Complaint status updates by target status",
	}, []string{"status"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grievance_login_attempts_total",
		Help: "Login attempts by method and result",
	}, []string{"method", "result"})
)

// ObserveHTTPRequest records a completed request. path should be the route pattern, not the raw URL.
func ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ObserveError counts an error response by its API error code.
func ObserveError(method, path, code string) {
	httpErrorsTotal.WithLabelValues(method, path, code).Inc()
}

// ObserveStatusTransition counts a persisted complaint status update.
func ObserveStatusTransition(status string) {
	complaintTransitions.WithLabelValues(status).Inc()
}

// ObserveLogin counts a login attempt; method is "password" or "google".
func ObserveLogin(method, result string) {
	loginAttempts.WithLabelValues(method, result).Inc()
}
