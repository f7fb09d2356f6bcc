package mvc

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/triad/internal/log"
	"github.com/zjrosen/triad/internal/pubsub"
)

// Outcome records what the innermost handler did with an Invocation.
type Outcome int

const (
	OutcomePending    Outcome = iota // not yet dispatched
	OutcomeHandled                   // a role's ProcessCommand ran
	OutcomeTranslated                // a notification became a command
	OutcomeAbsorbed                  // a notification was dropped by its translator
	OutcomeIgnored                   // the owning role is nil
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeHandled:
		return "handled"
	case OutcomeTranslated:
		return "translated"
	case OutcomeAbsorbed:
		return "absorbed"
	case OutcomeIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// Invocation describes one dispatch step as seen by middleware. Outcome is set by
// the innermost handler and is valid after next.Handle returns.
type Invocation struct {
	EnvelopeID  string
	Kind        Kind
	Role        Role
	Timing      Timing
	Depth       int
	Payload     any
	SpanContext trace.SpanContext
	Outcome     Outcome

	envelope any
}

// Handler processes one Invocation.
type Handler interface {
	Handle(ctx context.Context, inv *Invocation)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, inv *Invocation)

// Handle calls f(ctx, inv).
func (f HandlerFunc) Handle(ctx context.Context, inv *Invocation) {
	f(ctx, inv)
}

// Middleware wraps a Handler to add additional behavior.
type Middleware func(Handler) Handler

// ChainMiddleware applies middlewares to a handler in reverse order.
// The first middleware in the list will be the outermost wrapper:
// ChainMiddleware(h, a, b) results in a(b(h)).
func ChainMiddleware(handler Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

// ===========================================================================
// Logging Middleware
// ===========================================================================

// NewLoggingMiddleware creates a middleware that logs every dispatch step.
func NewLoggingMiddleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, inv *Invocation) {
			start := time.Now()
			next.Handle(ctx, inv)

			log.Debug(log.CatDispatch, "dispatched",
				"envelope_id", inv.EnvelopeID,
				"kind", inv.Kind.String(),
				"timing", inv.Timing.String(),
				"depth", inv.Depth,
				"outcome", inv.Outcome.String(),
				"duration", time.Since(start),
			)
		})
	}
}

// ===========================================================================
// Slow Handler Middleware
// ===========================================================================

// DefaultSlowHandlerThreshold is the default threshold for slow handler warnings.
const DefaultSlowHandlerThreshold = 100 * time.Millisecond

// SlowHandlerMiddlewareConfig configures the slow handler middleware.
type SlowHandlerMiddlewareConfig struct {
	WarningThreshold time.Duration
}

// NewSlowHandlerMiddleware creates a middleware that logs a warning when a step
// exceeds the configured threshold. The measured time includes any nested Now
// dispatch. Slow handlers are never aborted.
func NewSlowHandlerMiddleware(cfg SlowHandlerMiddlewareConfig) Middleware {
	threshold := cfg.WarningThreshold
	if threshold <= 0 {
		threshold = DefaultSlowHandlerThreshold
	}

	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, inv *Invocation) {
			start := time.Now()
			next.Handle(ctx, inv)

			if duration := time.Since(start); duration > threshold {
				log.Warn(log.CatDispatch, "handler exceeded time threshold",
					"envelope_id", inv.EnvelopeID,
					"kind", inv.Kind.String(),
					"duration", duration,
					"threshold", threshold,
				)
			}
		})
	}
}

// ===========================================================================
// Event Log Middleware
// ===========================================================================

// EventLogMiddlewareConfig configures the event log middleware.
type EventLogMiddlewareConfig struct {
	// EventBus receives a DispatchEvent per step. If nil, the middleware is a no-op.
	EventBus pubsub.Publisher[any]
}

// NewEventLogMiddleware creates a middleware that publishes a DispatchEvent for
// every dispatch step once the step completes.
func NewEventLogMiddleware(cfg EventLogMiddlewareConfig) Middleware {
	return func(next Handler) Handler {
		if cfg.EventBus == nil {
			return next
		}
		return HandlerFunc(func(ctx context.Context, inv *Invocation) {
			start := time.Now()
			next.Handle(ctx, inv)

			cfg.EventBus.Publish(pubsub.DispatchedEvent, DispatchEvent{
				EnvelopeID: inv.EnvelopeID,
				Kind:       inv.Kind,
				Role:       inv.Role,
				Timing:     inv.Timing,
				Depth:      inv.Depth,
				Outcome:    inv.Outcome,
				Duration:   time.Since(start),
				Timestamp:  time.Now(),
				TraceID:    traceID(inv.SpanContext),
			})
		})
	}
}

func traceID(sc trace.SpanContext) string {
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
