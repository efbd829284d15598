package spans

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// spanWithoutTracerCounter counts spans requested from a context that has no
// tracer, which points at a missing WithTracer call.
var spanWithoutTracerCounter = promauto.NewCounterVec( //nolint:gochecknoglobals
	prometheus.CounterOpts{
		Namespace: "keyedarray",
		Subsystem: "spans",
		Name:      "without_tracer_total",
		Help:      "Total number of span executions without a tracer in context",
	},
	[]string{"span_name"},
)
