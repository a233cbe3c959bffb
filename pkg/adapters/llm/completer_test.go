package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/llm"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplete_SendsConversationAndReturnsReply(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"Hi there!"}}]}`)
	}))
	defer srv.Close()

	client := llm.New(srv.URL, "test-model", llm.WithAPIKey("secret"))
	value, err := client.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Hello"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Hi there!", value)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, "test-model", gotBody["model"])

	messages, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	first := messages[0].(map[string]any)
	assert.Equal(t, "user", first["role"])
	assert.Equal(t, "Hello", first["content"])
}

func TestComplete_SurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limited","type":"rate_limit_error"}}`)
	}))
	defer srv.Close()

	client := llm.New(srv.URL, "test-model")
	_, err := client.Complete(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Hello"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Contains(t, err.Error(), "429")
}

func TestStream_YieldsDeltasUntilDone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, true, body["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	client := llm.New(srv.URL, "test-model")
	stream, err := client.Stream(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Hello"},
	})
	require.NoError(t, err)

	ctx := context.Background()
	var fragments []string
	for {
		fragment, ok, err := stream.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		fragments = append(fragments, fragment)
	}
	assert.Equal(t, []string{"Hel", "lo"}, fragments)

	// Exhausted streams keep reporting done.
	_, ok, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestStream_SurfacesChunkErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"overloaded\",\"type\":\"server_error\"}}\n\n")
	}))
	defer srv.Close()

	client := llm.New(srv.URL, "test-model")
	stream, err := client.Stream(context.Background(), []domain.Message{
		{Role: domain.RoleUser, Content: "Hello"},
	})
	require.NoError(t, err)

	_, _, err = stream.Next(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded")
}
