// Package observability provides Prometheus instrumentation for a Lattice
// engine, exposed as lifecycle hooks.
package observability

import (
	"context"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	stepsStarted    *prometheus.CounterVec
	stepsCompleted  *prometheus.CounterVec
	stepsFailed     *prometheus.CounterVec
	computeDuration *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with the given
// registerer. Pass prometheus.DefaultRegisterer for the global registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		stepsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_steps_started_total",
				Help: "Total number of column step computations started",
			},
			[]string{"column"},
		),
		stepsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_steps_completed_total",
				Help: "Total number of column step computations completed",
			},
			[]string{"column"},
		),
		stepsFailed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lattice_steps_failed_total",
				Help: "Total number of column step computations that failed",
			},
			[]string{"column"},
		),
		computeDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lattice_compute_duration_seconds",
				Help:    "Duration of column compute invocations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"column"},
		),
	}
	reg.MustRegister(m.stepsStarted, m.stepsCompleted, m.stepsFailed, m.computeDuration)
	return m
}

// Hooks returns lifecycle hooks that record into the collectors. Attach
// with lattice.WithHooks.
func (m *Metrics) Hooks() domain.Hooks {
	return domain.Hooks{
		OnColumnStart: func(ctx context.Context, column string, step int) {
			m.stepsStarted.WithLabelValues(column).Inc()
		},
		OnColumnDone: func(ctx context.Context, column string, step int, elapsed time.Duration, err error) {
			m.computeDuration.WithLabelValues(column).Observe(elapsed.Seconds())
			if err != nil {
				m.stepsFailed.WithLabelValues(column).Inc()
				return
			}
			m.stepsCompleted.WithLabelValues(column).Inc()
		},
	}
}
