package spans

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a span started by Start or StartValErr.
type Option func(*runner)

type runner struct {
	spanName string
	success  string
	failure  string
	spanKind trace.SpanKind
	sso      []trace.SpanStartOption
}

func newRunner(name string, opts ...Option) *runner {
	r := &runner{
		spanName: name,
		spanKind: trace.SpanKindInternal,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	return r
}

func (r *runner) setErrorStatus(span trace.Span, err error) {
	if len(r.failure) > 0 {
		span.SetStatus(codes.Error, fmt.Sprintf("%s: %s", r.failure, err.Error()))
	} else {
		span.SetStatus(codes.Error, err.Error())
	}
}

func (r *runner) setSuccessStatus(span trace.Span) {
	if len(r.success) > 0 {
		span.SetStatus(codes.Ok, r.success)
	} else {
		span.SetStatus(codes.Ok, "ok")
	}
}

// invoke runs call inside a span when ctx carries a tracer. Without one it
// counts the gap and runs call directly.
func invoke[T any](
	ctx context.Context, name string,
	call func(ctx context.Context, span trace.Span) (T, error), opts ...Option,
) (val T, err error) {
	tracer, found := TracerFromContext(ctx)
	if !found {
		spanWithoutTracerCounter.WithLabelValues(name).Inc()

		return call(ctx, trace.SpanFromContext(ctx))
	}

	r := newRunner(name, opts...)

	start := make([]trace.SpanStartOption, 0, len(r.sso)+1)
	start = append(start, r.sso...)
	start = append(start, trace.WithSpanKind(r.spanKind))

	ctx, span := tracer.Start(ctx, r.spanName, start...) //nolint:spancheck
	defer span.End()

	defer func() {
		if recovered := recover(); recovered != nil {
			span.SetAttributes(attribute.Bool("panic", true))
			r.setErrorStatus(span, fmt.Errorf("panic: %v", recovered)) //nolint:err113

			panic(recovered)
		}
	}()

	val, err = call(ctx, span)
	if err != nil {
		span.RecordError(err)
		r.setErrorStatus(span, err)
	} else {
		r.setSuccessStatus(span)
	}

	return val, err
}

// WithAttribute adds an attribute to the span when it starts.
func WithAttribute(key attribute.Key, value attribute.Value) Option {
	return func(r *runner) {
		r.sso = append(r.sso, trace.WithAttributes(attribute.KeyValue{Key: key, Value: value}))
	}
}

// WithSpanKind sets the span kind. The default is SpanKindInternal.
func WithSpanKind(kind trace.SpanKind) Option {
	return func(r *runner) {
		r.spanKind = kind
	}
}

// WithSuccessMessage sets the Ok status description. The default is "ok".
func WithSuccessMessage(description string) Option {
	return func(r *runner) {
		r.success = description
	}
}

// WithErrorMessage prefixes the Error status description.
func WithErrorMessage(description string) Option {
	return func(r *runner) {
		r.failure = description
	}
}
