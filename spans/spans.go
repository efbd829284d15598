// Package spans wraps functions in OpenTelemetry spans. The tracer comes from
// the context (see WithTracer); without one the function runs untraced.
package spans

import (
	"context"

	"github.com/amp-labs/keyed-array/zero"
	"go.opentelemetry.io/otel/trace"
)

// Start prepares a span around a function that returns nothing.
//
//	spans.Start(ctx, "notify").Enter(func(ctx context.Context, span trace.Span) {
//	    fire(ctx)
//	})
func Start(ctx context.Context, name string, opts ...Option) *StartOrchestrator {
	return &StartOrchestrator{ctx: ctx, name: name, opts: opts}
}

// StartValErr prepares a span around a function returning a value and an
// error. A returned error is recorded on the span with an Error status.
//
//	changed, err := spans.StartValErr[bool](ctx, "apply",
//	    spans.WithAttribute("component", attribute.StringValue(name)),
//	).Enter(func(ctx context.Context, span trace.Span) (bool, error) {
//	    return apply(ctx, payload)
//	})
func StartValErr[Value any](ctx context.Context, name string, opts ...Option) *StartValueErrorOrchestrator[Value] {
	return &StartValueErrorOrchestrator[Value]{ctx: ctx, name: name, opts: opts}
}

// StartOrchestrator runs a function with no results inside a span.
type StartOrchestrator struct {
	ctx  context.Context //nolint:containedctx
	name string
	opts []Option
}

// Enter runs f. Panics are recorded on the span and re-raised.
func (o *StartOrchestrator) Enter(f func(ctx context.Context, span trace.Span)) {
	if f == nil {
		return
	}

	_, _ = invoke(o.ctx, o.name, func(ctx context.Context, span trace.Span) (struct{}, error) {
		f(ctx, span)

		return struct{}{}, nil
	}, o.opts...)
}

// StartValueErrorOrchestrator runs a function returning (T, error) inside a span.
type StartValueErrorOrchestrator[T any] struct {
	ctx  context.Context //nolint:containedctx
	name string
	opts []Option
}

// Enter runs f and returns its results.
func (o *StartValueErrorOrchestrator[T]) Enter(f func(ctx context.Context, span trace.Span) (T, error)) (T, error) {
	if f == nil {
		return zero.Value[T](), nil
	}

	return invoke(o.ctx, o.name, f, o.opts...)
}
