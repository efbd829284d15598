package spans

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

type contextKey string

// TracerKey is the context key holding the tracer used by Start and friends.
const TracerKey contextKey = "tracer"

// WithTracer stores tracer in ctx. Spans started from a context without a
// tracer run their function without tracing.
//
//	ctx = spans.WithTracer(ctx, otel.Tracer("keyedarray"))
func WithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, TracerKey, tracer)
}

// TracerFromContext returns the tracer stored by WithTracer.
func TracerFromContext(ctx context.Context) (trace.Tracer, bool) {
	if ctx == nil {
		return nil, false
	}

	tracer, ok := ctx.Value(TracerKey).(trace.Tracer)
	if !ok || tracer == nil {
		return nil, false
	}

	return tracer, true
}
