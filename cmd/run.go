package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/triad/internal/config"
	"github.com/zjrosen/triad/internal/log"
	"github.com/zjrosen/triad/internal/pubsub"
	"github.com/zjrosen/triad/internal/tracing"
	"github.com/zjrosen/triad/internal/watcher"
)

var runCmd = &cobra.Command{
	Use:   "run [script]",
	Short: "Run a tally script",
	Long: `Feed each line of a script to a tally board and print what the board renders.
With no script, or with "-", lines are read from stdin.

Script lines:
  add <name> [n]        increase a counter (default 1)
  sub <name> [n]        decrease a counter; it may not go below zero
  reset <name>          set an existing counter to zero
  show                  render the board
  batch <line>; <line>  run several lines as one, rendering once
  quiet / loud          stop / resume rendering after changes
  # comment             ignored

Example:
  triad run scores.tally
  triad run --watch --metrics scores.tally
  printf 'add a 2\nsub a\n' | triad run --plain`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRun,
}

var (
	runDebug    bool
	runMaxDepth int
	runWatch    bool
	runMetrics  bool
	runPlain    bool
	runWidth    int
	runEvents   bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runDebug, "debug", false, "write a debug log (log.path, default triad.log)")
	runCmd.Flags().IntVar(&runMaxDepth, "max-depth", 0, "abort when handlers nest deeper than this (0 = unlimited)")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "re-run the script whenever it changes")
	runCmd.Flags().BoolVar(&runMetrics, "metrics", false, "print a dispatch metrics summary to stderr after each run")
	runCmd.Flags().BoolVar(&runPlain, "plain", false, "render without colors")
	runCmd.Flags().IntVar(&runWidth, "width", 0, "board width in cells (default output.width)")
	runCmd.Flags().BoolVar(&runEvents, "events", false, "print every dispatch step to stderr")
}

// effectiveConfig layers the run flags over the loaded config.
func effectiveConfig(cmd *cobra.Command, base config.Config) config.Config {
	c := base
	if runDebug {
		c.Log.Enabled = true
	}
	if cmd.Flags().Changed("max-depth") {
		c.Dispatch.MaxDepth = runMaxDepth
	}
	if runMetrics {
		c.Metrics.Enabled = true
	}
	if runPlain {
		c.Output.Plain = true
	}
	if cmd.Flags().Changed("width") {
		c.Output.Width = runWidth
	}
	if c.Tracing.Enabled && c.Tracing.Exporter == "file" && c.Tracing.FilePath == "" {
		c.Tracing.FilePath = config.DefaultTracesFilePath()
	}
	return c
}

func runRun(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	c := effectiveConfig(cmd, cfg)
	if err := config.Validate(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.Log.Enabled {
		cleanup, err := log.Init(c.Log.Path)
		if err != nil {
			return fmt.Errorf("initializing log: %w", err)
		}
		defer cleanup()
		level, _ := log.ParseLevel(c.Log.Level)
		log.SetMinLevel(level)
	}

	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.ErrorErr(log.CatTrace, "Error shutting down tracing", err)
		}
	}()
	var tracer trace.Tracer
	if provider.Enabled() {
		tracer = provider.Tracer()
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var bus pubsub.Publisher[any]
	if runEvents {
		broker := pubsub.NewBroker[any]()
		events := broker.Subscribe(ctx, pubsub.DispatchedEvent)
		done := make(chan struct{})
		go func() {
			defer close(done)
			printEvents(cmd.ErrOrStderr(), events)
		}()
		defer func() {
			broker.Close()
			<-done
		}()
		bus = broker
	}
	r := newRunner(c, tracer, bus)

	path := "-"
	if len(args) == 1 {
		path = args[0]
	}
	if runWatch {
		if path == "-" {
			return errors.New("--watch needs a script file")
		}
		return watchScript(ctx, r, c, path, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	return runOnce(ctx, r, path, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func runOnce(ctx context.Context, r *runner, path string, stdin io.Reader, stdout, stderr io.Writer) error {
	script, err := readScript(path, stdin)
	if err != nil {
		return err
	}
	if err := r.run(ctx, bytes.NewReader(script), stdout); err != nil {
		return err
	}
	return r.writeSummary(stderr)
}

func readScript(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) // #nosec G304 -- the script path is the user's argument
	if err != nil {
		return nil, fmt.Errorf("reading script: %w", err)
	}
	return data, nil
}

// watchScript runs the script, then re-runs it on every save until ctx is done.
// When metrics.listen is set the shared registry is served on /metrics meanwhile.
func watchScript(ctx context.Context, r *runner, c config.Config, path string, stdout, stderr io.Writer) error {
	if c.Metrics.Listen != "" && r.collector != nil {
		srv, err := serveMetrics(c.Metrics.Listen, r.collector.Handler())
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	w, err := watcher.New(watcher.DefaultConfig(path))
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}

	for {
		if err := runOnce(ctx, r, path, nil, stdout, stderr); err != nil {
			// Keep watching; the next save may fix the script.
			_, _ = fmt.Fprintf(stderr, "error: %v\n", err)
		}
		_, _ = fmt.Fprintf(stderr, "watching %s (ctrl+c to stop)\n", path)

		select {
		case <-ctx.Done():
			return nil
		case changed := <-changes:
			log.Info(log.CatWatcher, "Script changed, re-running", "path", changed)
		}
	}
}

func serveMetrics(addr string, handler http.Handler) (*http.Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info(log.CatMetrics, "Serving metrics", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.ErrorErr(log.CatMetrics, "Metrics server stopped", err)
		}
	}()
	return srv, nil
}
