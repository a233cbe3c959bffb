package observability_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/observability"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name, column string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "column" && l.GetValue() == column {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestMetrics_CountsComputedSteps(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	echo := ports.CompleterFunc(func(ctx context.Context, messages []domain.Message) (string, error) {
		return "ok", nil
	})

	eng, err := lattice.New([]lattice.DerivedSpec{{
		Name:      "assistant",
		Completer: echo,
		Dependencies: []domain.Dependency{
			domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest),
		},
	}}, lattice.WithHooks(metrics.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, eng.Push(ctx, "user", "one"))
	require.NoError(t, eng.Push(ctx, "user", "two"))
	require.NoError(t, eng.Run(ctx).Wait())

	assert.Equal(t, float64(2), counterValue(t, reg, "lattice_steps_started_total", "assistant"))
	assert.Equal(t, float64(2), counterValue(t, reg, "lattice_steps_completed_total", "assistant"))
	assert.Equal(t, float64(0), counterValue(t, reg, "lattice_steps_failed_total", "assistant"))
}

func TestMetrics_CountsFailures(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := observability.NewMetrics(reg)

	failing := ports.CompleterFunc(func(ctx context.Context, messages []domain.Message) (string, error) {
		return "", context.DeadlineExceeded
	})

	eng, err := lattice.New([]lattice.DerivedSpec{{
		Name:      "assistant",
		Completer: failing,
		Dependencies: []domain.Dependency{
			domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest),
		},
	}}, lattice.WithHooks(metrics.Hooks()))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, eng.Push(ctx, "user", "boom"))
	require.Error(t, eng.Run(ctx).Wait())

	assert.Equal(t, float64(1), counterValue(t, reg, "lattice_steps_failed_total", "assistant"))
	assert.Equal(t, float64(0), counterValue(t, reg, "lattice_steps_completed_total", "assistant"))
}
