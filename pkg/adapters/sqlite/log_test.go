package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/sqlite"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSqliteLog_Contract(t *testing.T) {
	provider, err := sqlite.Open(filepath.Join(t.TempDir(), "lattice.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	tests.LogContractTest(t, func(t *testing.T, name string) ports.Log {
		log, err := provider.Open(name)
		require.NoError(t, err)
		return log
	})
}

func TestSqliteLog_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lattice.db")
	ctx := context.Background()

	provider, err := sqlite.Open(path)
	require.NoError(t, err)

	log, err := provider.Open("chat")
	require.NoError(t, err)
	require.NoError(t, log.Push(ctx, "hello"))
	require.NoError(t, log.Push(ctx, "world"))
	require.NoError(t, provider.Close())

	reopened, err := sqlite.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	log, err = reopened.Open("chat")
	require.NoError(t, err)

	n, err := log.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, ok, err := log.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "world", got)
}
