package resolve

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/neovate-digital/namesys/name"
)

// Metrics counts strategy probes and measures their latency.
//
// Register once per process (e.g. against prometheus.DefaultRegisterer)
// and instrument each strategy before handing it to a chain.
type Metrics struct {
	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates and registers the resolver metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "namesys",
			Subsystem: "resolve",
			Name:      "attempts_total",
			Help:      "Number of strategy probes, by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "namesys",
			Subsystem: "resolve",
			Name:      "duration_seconds",
			Help:      "Latency of strategy probes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"strategy"}),
	}
	reg.MustRegister(m.attempts, m.duration)
	return m
}

// Instrument wraps s so every probe is counted and timed.
func (m *Metrics) Instrument(s Strategy) Strategy {
	return &instrumented{inner: s, metrics: m}
}

type instrumented struct {
	inner   Strategy
	metrics *Metrics
}

func (i *instrumented) Name() string { return i.inner.Name() }

func (i *instrumented) Resolve(ctx context.Context, n name.Name) (*Result, error) {
	start := time.Now()
	res, err := i.inner.Resolve(ctx, n)
	i.metrics.duration.WithLabelValues(i.inner.Name()).Observe(time.Since(start).Seconds())
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	i.metrics.attempts.WithLabelValues(i.inner.Name(), outcome).Inc()
	return res, err
}
