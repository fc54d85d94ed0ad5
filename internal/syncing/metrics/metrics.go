package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsProcessed tracks terminal processing results per kind
	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_events_processed_total",
			Help: "Total number of events resolved to a terminal state",
		},
		[]string{"result"},
	)

	// DeliveryAttempts tracks individual provider calls
	DeliveryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_delivery_attempts_total",
			Help: "Total number of provider delivery attempts",
		},
		[]string{"outcome"}, // success, retryable, permanent
	)

	// DeliveryLatency tracks per-attempt provider call latency
	DeliveryLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "crmsync_delivery_latency_seconds",
			Help:    "Provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	// DeadLetters tracks quarantined events per failure kind
	DeadLetters = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crmsync_dead_letters_total",
			Help: "Total number of events routed to the dead-letter topic",
		},
		[]string{"kind"}, // transform, permanent_failure, exhausted, decode, store
	)

	// IdempotencySkips tracks duplicate events suppressed by the guard
	IdempotencySkips = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crmsync_idempotency_skips_total",
			Help: "Total number of events skipped as already processed",
		},
	)

	// OffsetCommits tracks committed broker offsets
	OffsetCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "crmsync_offset_commits_total",
			Help: "Total number of committed broker offsets",
		},
	)
)
