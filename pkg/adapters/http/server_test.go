package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/internal/logging"
	latticehttp "github.com/aretw0/lattice/pkg/adapters/http"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) nethttp.Handler {
	t.Helper()
	echo := ports.CompleterFunc(func(ctx context.Context, messages []domain.Message) (string, error) {
		return "echo: " + messages[len(messages)-1].Content, nil
	})
	eng, err := lattice.New([]lattice.DerivedSpec{{
		Name:      "assistant",
		Completer: echo,
		Dependencies: []domain.Dependency{
			domain.FromSource("user", domain.TemporalCurrent, domain.CardinalityLatest),
		},
	}})
	require.NoError(t, err)
	return latticehttp.NewHandler(eng, logging.NewNop())
}

func TestPushThenRunThenValue(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	// Push a value to the source column.
	resp, err := nethttp.Post(srv.URL+"/columns/user/values", "application/json",
		bytes.NewBufferString(`{"value":"Hello"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)

	var pushed struct {
		Column string `json:"column"`
		Step   int    `json:"step"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pushed))
	assert.Equal(t, "user", pushed.Column)
	assert.Equal(t, 0, pushed.Step)

	// The derived step does not exist until a run computes it.
	before, err := nethttp.Get(srv.URL + "/columns/assistant/values/0")
	require.NoError(t, err)
	before.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, before.StatusCode)

	// Run and collect the SSE stream.
	run, err := nethttp.Post(srv.URL+"/run", "application/json", nil)
	require.NoError(t, err)
	defer run.Body.Close()
	require.Equal(t, "text/event-stream", run.Header.Get("Content-Type"))
	assert.NotEmpty(t, run.Header.Get("X-Run-Id"))

	body, err := io.ReadAll(run.Body)
	require.NoError(t, err)
	events := sseEventNames(string(body))
	assert.Equal(t, []string{"run", "start", "value", "done"}, events)

	// The computed value is now readable.
	after, err := nethttp.Get(srv.URL + "/columns/assistant/values/0")
	require.NoError(t, err)
	defer after.Body.Close()
	require.Equal(t, nethttp.StatusOK, after.StatusCode)

	var got struct {
		Value string `json:"value"`
	}
	require.NoError(t, json.NewDecoder(after.Body).Decode(&got))
	assert.Equal(t, "echo: Hello", got.Value)
}

func TestPushUnknownColumnFails(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	resp, err := nethttp.Post(srv.URL+"/columns/nope/values", "application/json",
		bytes.NewBufferString(`{"value":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
}

func TestGraphReportsColumnsAndLevels(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	resp, err := nethttp.Get(srv.URL + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	var graph struct {
		Columns []struct {
			Name       string   `json:"name"`
			Dependents []string `json:"dependents"`
		} `json:"columns"`
		Levels [][]string `json:"levels"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&graph))

	names := make([]string, 0, len(graph.Columns))
	for _, c := range graph.Columns {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"user", "assistant"}, names)
	assert.Equal(t, [][]string{{"assistant"}}, graph.Levels)
}

func TestDependents(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	resp, err := nethttp.Get(srv.URL + "/columns/user/dependents")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)

	var got struct {
		Dependents []string `json:"dependents"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	assert.Equal(t, []string{"assistant"}, got.Dependents)

	missing, err := nethttp.Get(srv.URL + "/columns/nope/dependents")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, missing.StatusCode)
}

func TestHealthz(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t))
	defer srv.Close()

	resp, err := nethttp.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
}

// sseEventNames extracts the "event:" names from a raw SSE body, in
// order.
func sseEventNames(body string) []string {
	var names []string
	for _, line := range strings.Split(body, "\n") {
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
		}
	}
	return names
}
