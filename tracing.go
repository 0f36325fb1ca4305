package redux

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// startSpan is a no-op when no tracer is configured, so callers don't need
// a nil check, grounded on the same middleware-wrapping shape as
// WithOTelActionSpans: one span per dispatched action/event, named after
// its dynamic type.
func (s *Store[S]) startSpan(ctx context.Context, kind string, item any) (context.Context, trace.Span) {
	if s.opts.Tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.opts.Tracer.Start(ctx, fmt.Sprintf("redux.%s.%T", kind, item))
}

// endSpan records err on span, if any, and ends it. A no-op span (no
// tracer configured) tolerates both calls harmlessly.
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
