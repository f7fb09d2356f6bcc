package tracing

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/triad/internal/mvc"
)

// MiddlewareConfig configures the tracing middleware.
type MiddlewareConfig struct {
	// Tracer creates the spans. If nil, the middleware is a pass-through.
	Tracer trace.Tracer
}

// NewTracingMiddleware creates middleware that wraps each dispatch step in a span.
//
// The step's context already carries the caller's span when the step was
// dispatched with a Now call, so the new span becomes its child. A step drained
// from the frame stack instead links to the span that scheduled it.
func NewTracingMiddleware(cfg MiddlewareConfig) mvc.Middleware {
	if cfg.Tracer == nil {
		return func(next mvc.Handler) mvc.Handler {
			return next
		}
	}

	return func(next mvc.Handler) mvc.Handler {
		return mvc.HandlerFunc(func(ctx context.Context, inv *mvc.Invocation) {
			opts := []trace.SpanStartOption{
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.String(AttrEnvelopeID, inv.EnvelopeID),
					attribute.String(AttrKind, inv.Kind.String()),
					attribute.String(AttrRole, inv.Role.String()),
					attribute.String(AttrTiming, inv.Timing.String()),
					attribute.Int(AttrDepth, inv.Depth),
				),
			}
			if link := schedulingLink(ctx, inv.SpanContext); link != nil {
				opts = append(opts, trace.WithLinks(*link))
			}

			ctx, span := cfg.Tracer.Start(ctx, SpanPrefixDispatch+inv.Kind.String(), opts...)
			defer func() {
				if r := recover(); r != nil {
					span.AddEvent(EventPanicked)
					span.SetStatus(codes.Error, fmt.Sprint(r))
					span.End()
					panic(r)
				}
				span.SetAttributes(attribute.String(AttrOutcome, inv.Outcome.String()))
				span.SetStatus(codes.Ok, "")
				span.End()
			}()

			next.Handle(ctx, inv)
		})
	}
}

// schedulingLink returns a link to sc when it is not already the parent in ctx.
func schedulingLink(ctx context.Context, sc trace.SpanContext) *trace.Link {
	if !sc.IsValid() || sc.Equal(trace.SpanContextFromContext(ctx)) {
		return nil
	}
	return &trace.Link{SpanContext: sc}
}
