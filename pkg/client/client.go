// Package client is a small HTTP client for a running larder server, used
// by the interactive CLI commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/papercomputeco/larder/api"
	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/usage"
)

// Upstream provider calls are bounded server side; this only guards
// against a hung server.
const defaultTimeout = 2 * time.Minute

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the larder HTTP API.
type Client struct {
	target string
	http   *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// New creates a Client for the server at target (e.g. "http://localhost:3000").
func New(target string, opts ...Option) *Client {
	c := &Client{
		target: strings.TrimRight(target, "/"),
		http:   &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Chat sends a message and returns the reply with the updated history.
func (c *Client) Chat(ctx context.Context, message string) (*api.ChatResponse, error) {
	var resp api.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat", api.ChatRequest{Message: message}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// History returns the most recent conversation turns.
func (c *Client) History(ctx context.Context) ([]llm.Message, error) {
	var resp api.HistoryResponse
	if err := c.do(ctx, http.MethodGet, "/conversation", nil, &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// ClearConversation resets the server conversation and returns its
// confirmation message.
func (c *Client) ClearConversation(ctx context.Context) (string, error) {
	var resp api.MessageResponse
	if err := c.do(ctx, http.MethodPost, "/conversation/clear", nil, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Usage returns the per-provider request counters.
func (c *Client) Usage(ctx context.Context) (usage.Snapshot, error) {
	var raw map[string]json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/usage", nil, &raw); err != nil {
		return nil, err
	}

	snap := make(usage.Snapshot, len(raw))
	for name, body := range raw {
		if name == "success" {
			continue
		}

		var counter usage.Counter
		if err := json.Unmarshal(body, &counter); err != nil {
			return nil, fmt.Errorf("decoding usage for %s: %w", name, err)
		}
		snap[name] = counter
	}

	return snap, nil
}

// ImportIngredients adds ingredients in one batch and returns how many
// were stored.
func (c *Client) ImportIngredients(ctx context.Context, ingredients []api.IngredientRequest) (int, error) {
	var resp api.ImportResponse
	if err := c.do(ctx, http.MethodPost, "/ingredients/import", api.ImportRequest{Ingredients: ingredients}, &resp); err != nil {
		return 0, err
	}
	return len(resp.Imported), nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.target+path, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to %s: %w", c.target, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr api.ErrorResponse
		_ = json.Unmarshal(respBody, &apiErr)
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
