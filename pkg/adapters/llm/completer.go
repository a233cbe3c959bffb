// Package llm provides a ports.Completer backed by an OpenAI-compatible
// chat completions endpoint. It supports both blocking completion and
// incremental streaming via server-sent events.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

const defaultTimeout = 120 * time.Second

// Client calls a chat completions API. Any provider exposing the
// OpenAI-compatible /chat/completions shape works.
type Client struct {
	baseURL   string
	apiKey    string
	model     string
	maxTokens int
	http      *http.Client
}

var (
	_ ports.Completer       = (*Client)(nil)
	_ ports.StreamCompleter = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithMaxTokens caps the length of each produced value.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		c.maxTokens = n
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a Client targeting the given base URL and model. The base
// URL is the API root, e.g. "https://api.openai.com/v1".
func New(baseURL, model string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type chatChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Complete sends the conversation and returns the model's reply.
func (c *Client) Complete(ctx context.Context, messages []domain.Message) (string, error) {
	resp, err := c.post(ctx, messages, false)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading completion response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("decoding completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("completion api error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("completion response has no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Stream sends the conversation with streaming enabled and returns a
// pull-based iterator over the reply fragments.
func (c *Client) Stream(ctx context.Context, messages []domain.Message) (ports.Stream, error) {
	resp, err := c.post(ctx, messages, true)
	if err != nil {
		return nil, err
	}
	return &sseStream{body: resp.Body, scanner: bufio.NewScanner(resp.Body)}, nil
}

func (c *Client) post(ctx context.Context, messages []domain.Message, stream bool) (*http.Response, error) {
	payload, err := json.Marshal(chatRequest{
		Model:     c.model,
		Messages:  toWire(messages),
		MaxTokens: c.maxTokens,
		Stream:    stream,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		var parsed chatResponse
		if json.Unmarshal(body, &parsed) == nil && parsed.Error != nil {
			return nil, fmt.Errorf("completion api error: status %d: %s", resp.StatusCode, parsed.Error.Message)
		}
		return nil, fmt.Errorf("completion api error: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func toWire(messages []domain.Message) []chatMessage {
	wire := make([]chatMessage, len(messages))
	for i, m := range messages {
		wire[i] = chatMessage{Role: string(m.Role), Content: m.Content}
	}
	return wire
}

// sseStream reads "data:" lines from a server-sent events body and
// yields the content delta of each chunk. The stream ends at the
// [DONE] sentinel or EOF.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	closed  bool
}

func (s *sseStream) Next(ctx context.Context) (string, bool, error) {
	if s.closed {
		return "", false, nil
	}
	for s.scanner.Scan() {
		if err := ctx.Err(); err != nil {
			s.close()
			return "", false, err
		}
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			s.close()
			return "", false, nil
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			s.close()
			return "", false, fmt.Errorf("decoding stream chunk: %w", err)
		}
		if chunk.Error != nil {
			s.close()
			return "", false, fmt.Errorf("completion api error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, true, nil
	}
	err := s.scanner.Err()
	s.close()
	if err != nil {
		return "", false, fmt.Errorf("reading stream: %w", err)
	}
	return "", false, nil
}

func (s *sseStream) close() {
	if !s.closed {
		s.closed = true
		s.body.Close()
	}
}
