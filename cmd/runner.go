package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/triad/internal/cachemanager"
	"github.com/zjrosen/triad/internal/config"
	"github.com/zjrosen/triad/internal/flags"
	"github.com/zjrosen/triad/internal/log"
	"github.com/zjrosen/triad/internal/metrics"
	"github.com/zjrosen/triad/internal/mvc"
	"github.com/zjrosen/triad/internal/pubsub"
	"github.com/zjrosen/triad/internal/tally"
	"github.com/zjrosen/triad/internal/tracing"
)

// runner feeds scripts to fresh tally boards. Every board shares the same
// middleware stack, so metrics accumulate across runs in watch mode.
type runner struct {
	board        tally.Options
	maxDepth     int
	middleware   []mvc.Middleware
	collector    *metrics.Collector
	abortOnDepth bool
}

// newRunner assembles the middleware stack from cfg. tracer and bus may be nil.
func newRunner(c config.Config, tracer trace.Tracer, bus pubsub.Publisher[any]) *runner {
	features := flags.New(c.Flags)
	r := &runner{
		board:        tally.Options{Width: c.Output.Width, Plain: c.Output.Plain},
		maxDepth:     c.Dispatch.MaxDepth,
		abortOnDepth: features.Enabled(flags.FlagAbortOnDepth),
	}
	if features.Enabled(flags.FlagRenderCache) {
		r.board.Cache = cachemanager.NewInMemoryCacheManager[string, string]("boards",
			cachemanager.DefaultExpiration, cachemanager.DefaultCleanupInterval)
	}

	// Outermost first: the span must be active before anything else observes the step.
	r.middleware = []mvc.Middleware{
		tracing.NewTracingMiddleware(tracing.MiddlewareConfig{Tracer: tracer}),
		mvc.NewLoggingMiddleware(),
		mvc.NewSlowHandlerMiddleware(mvc.SlowHandlerMiddlewareConfig{
			WarningThreshold: c.Dispatch.SlowHandlerThreshold,
		}),
	}
	if c.Metrics.Enabled {
		r.collector = metrics.NewCollector()
		r.middleware = append(r.middleware, r.collector.Middleware())
	}
	if bus != nil {
		r.middleware = append(r.middleware, mvc.NewEventLogMiddleware(mvc.EventLogMiddlewareConfig{EventBus: bus}))
	}
	return r
}

// run feeds script to a new board line by line, writing paints to out. Unless the
// abort-on-depth flag is off, a DepthExceededError stops the run and is returned
// with the offending line.
func (r *runner) run(ctx context.Context, script io.Reader, out io.Writer) (err error) {
	sys := tally.New(r.board,
		mvc.WithContext(ctx),
		mvc.WithMaxDepth(r.maxDepth),
		mvc.WithMiddleware(r.middleware...),
	)
	sys.RedirectOutputTarget(out)

	line := 0
	defer func() {
		rec := recover()
		if rec == nil {
			return
		}
		var depthErr *mvc.DepthExceededError
		if e, ok := rec.(error); ok && r.abortOnDepth && errors.As(e, &depthErr) {
			log.ErrorErr(log.CatDispatch, "script aborted", depthErr, "line", line)
			err = fmt.Errorf("line %d: %w", line, depthErr)
			return
		}
		panic(rec)
	}()

	scanner := bufio.NewScanner(script)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line++
		sys.ProcessInput(tally.Input(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	log.Debug(log.CatTally, "script finished", "lines", line, "paints", sys.View().(*tally.View).Paints())
	return nil
}

// writeSummary prints the dispatch metrics, if they are being collected.
func (r *runner) writeSummary(w io.Writer) error {
	if r.collector == nil {
		return nil
	}
	return r.collector.WriteSummary(w)
}

// printEvents writes each dispatch event as one line until events is closed.
func printEvents(w io.Writer, events <-chan pubsub.Event[any]) {
	for ev := range events {
		de, ok := ev.Payload.(mvc.DispatchEvent)
		if !ok {
			continue
		}
		_, _ = fmt.Fprintf(w, "%s depth=%d timing=%s outcome=%s id=%s\n",
			de.Kind, de.Depth, de.Timing, de.Outcome, de.EnvelopeID)
	}
}
