// Package metrics exposes Prometheus counters for the bot's event handling.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suretto_gateway_events_total",
			Help: "Gateway events accepted for processing, by type",
		},
		[]string{"type"},
	)

	ThreadsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suretto_threads_created_total",
			Help: "Forum threads created from trigger messages",
		},
	)

	ThreadsSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suretto_threads_skipped_total",
			Help: "Forum creations skipped because the user already has a thread",
		},
	)

	ThreadsDeleted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suretto_threads_deleted_total",
			Help: "Threads deleted by the cascade on source message deletion",
		},
	)

	RoutingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suretto_routing_failures_total",
			Help: "Trigger messages dropped because no eligible forum was found",
		},
	)

	PlatformErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "suretto_platform_errors_total",
			Help: "Discord API failures, by operation",
		},
		[]string{"op"},
	)

	PersistenceFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "suretto_persistence_failures_total",
			Help: "Link store flush or mutation failures",
		},
	)
)
