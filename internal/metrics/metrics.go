// Package metrics provides Prometheus metrics for commonground.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GuardResolutions counts session resolutions by outcome: "ok" or the
	// failure kind.
	GuardResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commonground",
			Name:      "guard_resolutions_total",
			Help:      "Total number of session resolutions by outcome",
		},
		[]string{"outcome"},
	)

	// GuardDuration measures how long a resolution takes, store lookups included.
	GuardDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "commonground",
			Name:      "guard_resolution_duration_seconds",
			Help:      "Duration of session resolutions in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	// AccessDenied counts requests the enforcer rejected.
	AccessDenied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commonground",
			Name:      "access_denied_total",
			Help:      "Requests rejected by the enforcer",
		},
		[]string{"status"},
	)

	// SessionsTotal counts session lifecycle events.
	SessionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commonground",
			Name:      "sessions_total",
			Help:      "Session lifecycle events",
		},
		[]string{"backend", "event"},
	)

	// LoginAttempts counts login attempts by result.
	LoginAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commonground",
			Name:      "login_attempts_total",
			Help:      "Login attempts by result",
		},
		[]string{"result"},
	)

	// RateLimited counts requests rejected by the per client limiter.
	RateLimited = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "commonground",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
	)

	// FileOperations counts file store calls by operation and result.
	FileOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "commonground",
			Name:      "file_operations_total",
			Help:      "File store operations",
		},
		[]string{"operation", "result"},
	)

	// FileBytesStored tracks bytes written to the file store.
	FileBytesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "commonground",
			Name:      "file_bytes_stored_total",
			Help:      "Bytes written to the file store",
		},
	)
)

// RecordResolution records one guard resolution.
func RecordResolution(outcome string, seconds float64) {
	GuardResolutions.WithLabelValues(outcome).Inc()
	GuardDuration.Observe(seconds)
}

// RecordSessionEvent records n session events ("created", "revoked", "purged").
func RecordSessionEvent(backend, event string, n int64) {
	if n <= 0 {
		return
	}
	SessionsTotal.WithLabelValues(backend, event).Add(float64(n))
}

// RecordFileOperation records a file store call.
func RecordFileOperation(operation, result string) {
	FileOperations.WithLabelValues(operation, result).Inc()
}
