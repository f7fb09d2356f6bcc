package mvc_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/triad/internal/log"
	"github.com/zjrosen/triad/internal/mvc"
	"github.com/zjrosen/triad/internal/pubsub"
	"github.com/zjrosen/triad/internal/testutil"
)

func TestChainMiddleware_FirstIsOutermost(t *testing.T) {
	var order []string
	mark := func(name string) mvc.Middleware {
		return func(next mvc.Handler) mvc.Handler {
			return mvc.HandlerFunc(func(ctx context.Context, inv *mvc.Invocation) {
				order = append(order, name+">")
				next.Handle(ctx, inv)
				order = append(order, "<"+name)
			})
		}
	}

	h := mvc.ChainMiddleware(mvc.HandlerFunc(func(context.Context, *mvc.Invocation) {
		order = append(order, "handler")
	}), mark("a"), mark("b"))
	h.Handle(context.Background(), &mvc.Invocation{})

	require.Equal(t, []string{"a>", "b>", "handler", "<b", "<a"}, order)
}

func TestMiddleware_SeesEveryStep(t *testing.T) {
	var invs []*mvc.Invocation
	record := func(next mvc.Handler) mvc.Handler {
		return mvc.HandlerFunc(func(ctx context.Context, inv *mvc.Invocation) {
			invs = append(invs, inv)
			next.Handle(ctx, inv)
		})
	}

	sys, _ := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(record)).
		OnController("a", func(tok *testutil.ControllerToken) {
			tok.ManipulateModelNow("m")
			tok.ExecCommandNext("b")
		}).
		Build()

	sys.ProcessInput("a")

	require.Len(t, invs, 4)

	type step struct {
		kind    mvc.Kind
		role    mvc.Role
		timing  mvc.Timing
		depth   int
		outcome mvc.Outcome
	}
	var got []step
	for _, inv := range invs {
		got = append(got, step{inv.Kind, inv.Role, inv.Timing, inv.Depth, inv.Outcome})
	}
	require.Equal(t, []step{
		{mvc.KindControllerCommand, mvc.RoleController, mvc.TimingInput, 1, mvc.OutcomeHandled},
		{mvc.KindControllerManipulatesModel, mvc.RoleModel, mvc.TimingNow, 2, mvc.OutcomeTranslated},
		{mvc.KindModelCommand, mvc.RoleModel, mvc.TimingNow, 3, mvc.OutcomeHandled},
		{mvc.KindControllerCommand, mvc.RoleController, mvc.TimingNext, 1, mvc.OutcomeHandled},
	}, got)

	require.Equal(t, "a", invs[0].Payload)
	require.Equal(t, "m", invs[2].Payload)

	ids := make(map[string]struct{})
	for _, inv := range invs {
		require.NotEmpty(t, inv.EnvelopeID)
		ids[inv.EnvelopeID] = struct{}{}
	}
	require.Len(t, ids, 4, "every step gets its own envelope")
}

func TestLoggingMiddleware_LogsOutcome(t *testing.T) {
	var buf bytes.Buffer
	cleanup := log.InitWriter(&buf)
	defer cleanup()

	sys, _ := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(mvc.NewLoggingMiddleware())).
		Build()

	sys.ProcessInput("a")

	out := buf.String()
	require.Contains(t, out, "[dispatch] dispatched")
	require.Contains(t, out, "kind=controller_command")
	require.Contains(t, out, "timing=input")
	require.Contains(t, out, "outcome=handled")
}

func TestSlowHandlerMiddleware_WarnsOverThreshold(t *testing.T) {
	var buf bytes.Buffer
	cleanup := log.InitWriter(&buf)
	defer cleanup()

	sys, _ := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(mvc.NewSlowHandlerMiddleware(mvc.SlowHandlerMiddlewareConfig{
			WarningThreshold: time.Millisecond,
		}))).
		OnController("slow", func(*testutil.ControllerToken) {
			time.Sleep(5 * time.Millisecond)
		}).
		Build()

	sys.ProcessInput("fast")
	require.NotContains(t, buf.String(), "exceeded")

	sys.ProcessInput("slow")
	require.Contains(t, buf.String(), "handler exceeded time threshold")
	require.Contains(t, buf.String(), "[WARN]")
}

func TestEventLogMiddleware_PublishesDispatchEvents(t *testing.T) {
	broker := pubsub.NewBroker[any]()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx, pubsub.DispatchedEvent)

	sys, _ := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(mvc.NewEventLogMiddleware(mvc.EventLogMiddlewareConfig{EventBus: broker}))).
		OnController("a", func(tok *testutil.ControllerToken) {
			tok.ManipulateModelNow("drop")
		}).
		ModelTranslator(func(string) (string, bool) { return "", false }).
		Build()

	sys.ProcessInput("a")

	var got []mvc.DispatchEvent
	for range 2 {
		select {
		case ev := <-events:
			require.Equal(t, pubsub.DispatchedEvent, ev.Type)
			de, ok := ev.Payload.(mvc.DispatchEvent)
			require.True(t, ok)
			got = append(got, de)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for dispatch event")
		}
	}

	// Events are published on completion, so the nested step comes first.
	require.Equal(t, mvc.KindControllerManipulatesModel, got[0].Kind)
	require.Equal(t, mvc.OutcomeAbsorbed, got[0].Outcome)
	require.Equal(t, 2, got[0].Depth)
	require.Equal(t, mvc.KindControllerCommand, got[1].Kind)
	require.Equal(t, mvc.OutcomeHandled, got[1].Outcome)
	require.Empty(t, got[1].TraceID)
}

func TestEventLogMiddleware_NilBusPassesThrough(t *testing.T) {
	sys, journal := testutil.NewBuilder(t).
		WithOptions(mvc.WithMiddleware(mvc.NewEventLogMiddleware(mvc.EventLogMiddlewareConfig{}))).
		Build()

	sys.ProcessInput("a")

	require.Equal(t, []string{"controller:a"}, journal.Entries())
}
