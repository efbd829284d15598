package replication

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for replicated keyed arrays. Every series is labelled with
// the component name.

var (
	// mutations counts successful structural or value mutations by operation.
	mutations = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "keyedarray_mutations_total",
		Help: "The total number of successful keyed array mutations",
	}, []string{"component", "op"})

	// rejected counts mutations refused by the authority gate.
	rejected = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "keyedarray_rejected_mutations_total",
		Help: "The total number of keyed array mutations rejected for lack of authority",
	}, []string{"component", "op"})

	// reconciles counts applied payloads by outcome (rebuilt, values, clean, stale).
	reconciles = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "keyedarray_reconcile_total",
		Help: "The total number of replicated payloads applied, by reconcile outcome",
	}, []string{"component", "result"})

	// applyErrors counts payloads that could not be decoded.
	applyErrors = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
		Name: "keyedarray_apply_errors_total",
		Help: "The total number of replicated payloads that failed to apply",
	}, []string{"component"})

	// payloadBytes measures encoded payload sizes in each direction.
	payloadBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{ //nolint:gochecknoglobals
		Name:    "keyedarray_payload_bytes",
		Help:    "The size of encoded keyed array payloads",
		Buckets: prometheus.ExponentialBuckets(64, 4, 8), //nolint:mnd
	}, []string{"component", "direction"})
)
