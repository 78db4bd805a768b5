package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eira_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eira_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Business metrics
	MessagesAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eira_messages_appended_total",
			Help: "Total messages appended to the local log",
		},
		[]string{"role"},
	)

	SyncFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eira_sync_failures_total",
			Help: "Total remote sync operations that failed",
		},
		[]string{"op"}, // "insert", "delete", "load"
	)

	SessionsCleared = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "eira_sessions_cleared_total",
			Help: "Total chat sessions cleared",
		},
	)

	AccountDeletions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eira_account_deletions_total",
			Help: "Total account deletion attempts by terminal outcome",
		},
		[]string{"outcome"}, // "deleted", "fallback", "degraded", "no_user"
	)

	// Rate limit metrics
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eira_rate_limit_hits_total",
			Help: "Total rate limit hits",
		},
		[]string{"endpoint"},
	)
)
