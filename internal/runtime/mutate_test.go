package runtime_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/lattice/internal/runtime"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// upperCompleter replies with the last message uppercased.
var upperCompleter = ports.CompleterFunc(func(ctx context.Context, messages []domain.Message) (string, error) {
	if len(messages) == 0 {
		return "", nil
	}
	return strings.ToUpper(messages[len(messages)-1].Content), nil
})

// chatFlow builds user -> assistant and runs the given source values
// through it.
func chatFlow(t *testing.T, values ...string) *runtime.Flow {
	t.Helper()
	assistant := newDerived(t, "assistant", echoCompleter,
		domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest))
	flow, err := runtime.New(memory.NewProvider(), nil, []*runtime.Derived{assistant})
	require.NoError(t, err)

	if len(values) > 0 {
		pushAll(t, flow, "user", values...)
		require.NoError(t, flow.Run(context.Background()).Wait())
	}
	return flow
}

func TestAddColumn_BackfillsPastSteps(t *testing.T) {
	flow := chatFlow(t, "one", "two")
	ctx := context.Background()

	critic := newDerived(t, "critic", echoCompleter,
		domain.FromDerived("assistant", domain.TemporalCurrent, domain.CardinalityLatest))
	require.NoError(t, flow.AddColumn(critic))

	// Nothing is computed eagerly.
	n, err := flow.Len(ctx, "critic")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// The next run backfills the new column without recomputing the others.
	events := collect(t, flow.Run(ctx))
	for _, ev := range events {
		assert.Equal(t, "critic", ev.Column, "only the new column needs computing")
	}

	n, err = flow.Len(ctx, "critic")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok, err := flow.Value(ctx, "critic", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "echo:echo:two", got)
}

func TestAddColumn_AutoRegistersSource(t *testing.T) {
	flow := chatFlow(t)

	mood := newDerived(t, "mood", echoCompleter,
		domain.FromSource("weather", domain.TemporalCurrent, domain.CardinalityLatest))
	require.NoError(t, flow.AddColumn(mood))

	assert.Contains(t, flow.Columns(), "weather")
	require.NoError(t, flow.Push(context.Background(), "weather", "sunny"))
}

func TestAddColumn_MissingDerivedDependencyFails(t *testing.T) {
	flow := chatFlow(t)

	orphan := newDerived(t, "orphan", echoCompleter,
		domain.FromDerived("nonexistent", domain.TemporalCurrent, domain.CardinalityLatest))
	err := flow.AddColumn(orphan)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDependencyNotFound)
}

func TestAddColumn_DuplicateNameFails(t *testing.T) {
	flow := chatFlow(t)

	double := newDerived(t, "assistant", echoCompleter,
		domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest))
	err := flow.AddColumn(double)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDuplicateColumn)
}

func TestRemoveColumn(t *testing.T) {
	t.Run("source is rejected", func(t *testing.T) {
		flow := chatFlow(t)
		err := flow.RemoveColumn("user")
		assert.ErrorIs(t, err, domain.ErrCannotRemoveSource)
	})

	t.Run("column with dependents is rejected", func(t *testing.T) {
		flow := chatFlow(t)
		critic := newDerived(t, "critic", echoCompleter,
			domain.FromDerived("assistant", domain.TemporalCurrent, domain.CardinalityLatest))
		require.NoError(t, flow.AddColumn(critic))

		err := flow.RemoveColumn("assistant")
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrHasDependents)

		// Removing the dependent first unblocks the removal.
		require.NoError(t, flow.RemoveColumn("critic"))
		require.NoError(t, flow.RemoveColumn("assistant"))
		assert.NotContains(t, flow.Columns(), "assistant")
	})

	t.Run("unknown column", func(t *testing.T) {
		flow := chatFlow(t)
		err := flow.RemoveColumn("ghost")
		assert.ErrorIs(t, err, domain.ErrColumnNotFound)
	})
}

func TestReplaceColumn_CascadesInvalidation(t *testing.T) {
	// user -> summary -> report, plus an unrelated sibling of summary.
	summary := newDerived(t, "summary", echoCompleter,
		domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest))
	report := newDerived(t, "report", echoCompleter,
		domain.FromDerived("summary", domain.TemporalCurrent, domain.CardinalityLatest))
	sidecar := newDerived(t, "sidecar", echoCompleter,
		domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest))

	flow, err := runtime.New(memory.NewProvider(), nil, []*runtime.Derived{summary, report, sidecar})
	require.NoError(t, err)

	ctx := context.Background()
	pushAll(t, flow, "user", "facts", "more facts")
	require.NoError(t, flow.Run(ctx).Wait())

	sidecarBefore, _, err := flow.Value(ctx, "sidecar", 1)
	require.NoError(t, err)

	shout := newDerived(t, "summary", upperCompleter,
		domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest))
	require.NoError(t, flow.ReplaceColumn(ctx, "summary", shout))

	// The replaced column and its downstream cone are cleared.
	for _, name := range []string{"summary", "report"} {
		n, err := flow.Len(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, 0, n, "column %s must be invalidated", name)
	}
	// Unrelated columns keep their history.
	n, err := flow.Len(ctx, "sidecar")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The next run recomputes the cone under the new definition.
	require.NoError(t, flow.Run(ctx).Wait())
	got, ok, err := flow.Value(ctx, "summary", 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "FACTS", got)

	sidecarAfter, _, err := flow.Value(ctx, "sidecar", 1)
	require.NoError(t, err)
	assert.Equal(t, sidecarBefore, sidecarAfter)
}

func TestReplaceColumn_Validation(t *testing.T) {
	flow := chatFlow(t, "hello")
	ctx := context.Background()

	t.Run("name mismatch", func(t *testing.T) {
		other := newDerived(t, "other", echoCompleter,
			domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest))
		err := flow.ReplaceColumn(ctx, "assistant", other)
		assert.ErrorIs(t, err, domain.ErrNameMismatch)
	})

	t.Run("unknown column", func(t *testing.T) {
		ghost := newDerived(t, "ghost", echoCompleter,
			domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest))
		err := flow.ReplaceColumn(ctx, "ghost", ghost)
		assert.ErrorIs(t, err, domain.ErrColumnNotFound)
	})

	t.Run("source cannot be replaced", func(t *testing.T) {
		impostor := newDerived(t, "user", echoCompleter,
			domain.FromSource("other", domain.TemporalCurrent, domain.CardinalityLatest))
		err := flow.ReplaceColumn(ctx, "user", impostor)
		assert.ErrorIs(t, err, domain.ErrCannotReplaceSource)
	})

	t.Run("dangling derived dependency", func(t *testing.T) {
		broken := newDerived(t, "assistant", echoCompleter,
			domain.FromDerived("nonexistent", domain.TemporalCurrent, domain.CardinalityLatest))
		err := flow.ReplaceColumn(ctx, "assistant", broken)
		assert.ErrorIs(t, err, domain.ErrDependencyNotFound)
	})
}

func TestDependents_IncludesPreviousTemporalEdges(t *testing.T) {
	// memory reads digest's previous step: still a dependent for
	// removal-safety purposes.
	digest := newDerived(t, "digest", echoCompleter,
		domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest))
	recall := newDerived(t, "recall", echoCompleter,
		domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest),
		domain.FromDerived("digest", domain.TemporalPrevious, domain.CardinalityAll))

	flow, err := runtime.New(memory.NewProvider(), nil, []*runtime.Derived{digest, recall})
	require.NoError(t, err)

	deps, err := flow.Dependents("digest")
	require.NoError(t, err)
	assert.Equal(t, []string{"recall"}, deps)

	_, err = flow.Dependents("ghost")
	assert.ErrorIs(t, err, domain.ErrColumnNotFound)
}
