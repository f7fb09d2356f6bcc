// Package metrics counts dispatch steps with Prometheus collectors.
package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zjrosen/triad/internal/mvc"
)

const namespace = "triad"

// Collector holds the dispatch metrics on a private registry.
type Collector struct {
	registry *prometheus.Registry

	steps    *prometheus.CounterVec
	duration *prometheus.HistogramVec
	maxDepth prometheus.Gauge

	deepest int
}

// NewCollector creates a Collector and registers its metrics.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dispatch_steps_total",
				Help:      "Total number of dispatch steps",
			},
			[]string{"kind", "timing", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "dispatch_step_duration_seconds",
				Help:      "Duration of dispatch steps, including nested Now dispatch",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 10, 6),
			},
			[]string{"kind"},
		),
		maxDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_max_depth",
			Help:      "Deepest handler nesting observed",
		}),
	}
	c.registry.MustRegister(c.steps, c.duration, c.maxDepth)
	return c
}

// Registry returns the registry holding the dispatch metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Middleware records every dispatch step. Like the System it wraps, it is not
// safe for concurrent dispatch; scraping the registry concurrently is fine.
func (c *Collector) Middleware() mvc.Middleware {
	return func(next mvc.Handler) mvc.Handler {
		return mvc.HandlerFunc(func(ctx context.Context, inv *mvc.Invocation) {
			if inv.Depth > c.deepest {
				c.deepest = inv.Depth
				c.maxDepth.Set(float64(inv.Depth))
			}

			start := time.Now()
			next.Handle(ctx, inv)

			c.duration.WithLabelValues(inv.Kind.String()).Observe(time.Since(start).Seconds())
			c.steps.WithLabelValues(inv.Kind.String(), inv.Timing.String(), inv.Outcome.String()).Inc()
		})
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// WriteSummary prints one line per kind, timing and outcome combination, followed
// by the deepest nesting seen.
func (c *Collector) WriteSummary(w io.Writer) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range families {
		if mf.GetName() != namespace+"_dispatch_steps_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if _, err := fmt.Fprintf(w, "%-30s %-6s %-10s %4.0f\n",
				labels["kind"], labels["timing"], labels["outcome"], m.GetCounter().GetValue()); err != nil {
				return err
			}
		}
	}
	_, err = fmt.Fprintf(w, "max depth: %d\n", c.deepest)
	return err
}
