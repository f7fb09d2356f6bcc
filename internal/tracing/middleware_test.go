package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/triad/internal/mvc"
	"github.com/zjrosen/triad/internal/testutil"
)

func newRecorder() (*tracetest.SpanRecorder, MiddlewareConfig) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, MiddlewareConfig{Tracer: tp.Tracer("test")}
}

func spansByName(spans []sdktrace.ReadOnlySpan) map[string]sdktrace.ReadOnlySpan {
	m := make(map[string]sdktrace.ReadOnlySpan, len(spans))
	for _, s := range spans {
		m[s.Name()] = s
	}
	return m
}

func attr(span sdktrace.ReadOnlySpan, key string) attribute.Value {
	for _, kv := range span.Attributes() {
		if string(kv.Key) == key {
			return kv.Value
		}
	}
	return attribute.Value{}
}

func TestTracingMiddleware_NilTracerPassesThrough(t *testing.T) {
	sys, journal := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(NewTracingMiddleware(MiddlewareConfig{}))).
		Build()

	sys.ProcessInput("a")

	require.Equal(t, []string{"controller:a"}, journal.Entries())
}

func TestTracingMiddleware_NowNestsUnderCaller(t *testing.T) {
	recorder, cfg := newRecorder()

	sys, _ := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(NewTracingMiddleware(cfg))).
		OnController("a", func(tok *testutil.ControllerToken) {
			tok.ManipulateModelNow("m")
		}).
		Build()

	sys.ProcessInput("a")

	spans := spansByName(recorder.Ended())
	require.Len(t, spans, 3)

	ctrl := spans["dispatch.controller_command"]
	translate := spans["dispatch.controller_manipulates_model"]
	model := spans["dispatch.model_command"]
	require.NotNil(t, ctrl)
	require.NotNil(t, translate)
	require.NotNil(t, model)

	require.False(t, ctrl.Parent().IsValid(), "input step is a root span")
	require.Equal(t, ctrl.SpanContext().SpanID(), translate.Parent().SpanID())
	require.Equal(t, translate.SpanContext().SpanID(), model.Parent().SpanID())
	require.Equal(t, ctrl.SpanContext().TraceID(), model.SpanContext().TraceID())
	require.Empty(t, model.Links())

	require.Equal(t, "handled", attr(ctrl, AttrOutcome).AsString())
	require.Equal(t, "translated", attr(translate, AttrOutcome).AsString())
	require.Equal(t, "now", attr(model, AttrTiming).AsString())
	require.Equal(t, int64(3), attr(model, AttrDepth).AsInt64())
	require.Equal(t, codes.Ok, model.Status().Code)
}

func TestTracingMiddleware_NextLinksToScheduler(t *testing.T) {
	recorder, cfg := newRecorder()

	sys, _ := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(NewTracingMiddleware(cfg))).
		OnController("a", func(tok *testutil.ControllerToken) {
			tok.ExecCommandNext("b")
		}).
		Build()

	sys.ProcessInput("a")

	ended := recorder.Ended()
	require.Len(t, ended, 2)
	first, second := ended[0], ended[1]
	require.Equal(t, "input", attr(first, AttrTiming).AsString())
	require.Equal(t, "next", attr(second, AttrTiming).AsString())

	require.False(t, second.Parent().IsValid(), "deferred step starts its own trace")
	require.Len(t, second.Links(), 1)
	require.Equal(t, first.SpanContext().SpanID(), second.Links()[0].SpanContext.SpanID())
}

func TestTracingMiddleware_PanicMarksSpan(t *testing.T) {
	recorder, cfg := newRecorder()

	sys, _ := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(NewTracingMiddleware(cfg))).
		OnController("boom", func(*testutil.ControllerToken) {
			panic("boom")
		}).
		Build()

	require.PanicsWithValue(t, "boom", func() { sys.ProcessInput("boom") })

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	require.Equal(t, codes.Error, ended[0].Status().Code)
	require.Equal(t, "boom", ended[0].Status().Description)
	require.Len(t, ended[0].Events(), 1)
	require.Equal(t, EventPanicked, ended[0].Events()[0].Name)
}

func TestTracingMiddleware_BaseContextSpanIsParent(t *testing.T) {
	recorder, cfg := newRecorder()
	ctx, root := cfg.Tracer.Start(context.Background(), "session")

	sys, _ := testutil.NewBuilder(t).
		WithOptions(
			mvc.WithContext(ctx),
			mvc.WithMiddleware(NewTracingMiddleware(cfg)),
		).
		Build()

	sys.ProcessInput("a")
	root.End()

	spans := spansByName(recorder.Ended())
	require.Equal(t, root.SpanContext().SpanID(), spans["dispatch.controller_command"].Parent().SpanID())
	require.Empty(t, spans["dispatch.controller_command"].Links())
}
