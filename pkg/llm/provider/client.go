package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/logger"
	"github.com/papercomputeco/larder/pkg/utils"
)

// DefaultTimeout bounds every upstream request.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response body is kept for logs.
const maxErrorBody = 512

// Recorder is notified after every successful provider request.
type Recorder interface {
	Record(provider string)
}

// Client sends message sequences to upstream providers.
type Client struct {
	httpClient *http.Client
	recorder   Recorder
	logger     *slog.Logger
}

// ClientOption configures a Client created with NewClient.
type ClientOption func(*Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRecorder sets the usage recorder notified on success.
func WithRecorder(r Recorder) ClientOption {
	return func(c *Client) {
		c.recorder = r
	}
}

// WithLogger sets the client logger. Defaults to logger.Nop().
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a provider Client.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Send performs one request against the provider described by d and returns
// the generated reply text. Every failure is returned as *RequestError.
func (c *Client) Send(ctx context.Context, d llm.Descriptor, messages []llm.Message) (string, error) {
	reply, err := c.send(ctx, d, messages)
	if err != nil {
		c.logger.Warn("provider request failed",
			"provider", d.Name,
			"model", d.Model,
			"error", err,
		)
		return "", &RequestError{Provider: d.Name, Err: err}
	}

	if c.recorder != nil {
		c.recorder.Record(d.Name)
	}

	return reply, nil
}

func (c *Client) send(ctx context.Context, d llm.Descriptor, messages []llm.Message) (string, error) {
	prov, err := New(d.Family)
	if err != nil {
		return "", err
	}

	payload, err := prov.BuildPayload(d, messages)
	if err != nil {
		return "", fmt.Errorf("building payload: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.Endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	for k, v := range prov.BuildHeaders(d) {
		req.Header.Set(k, v)
	}

	c.logger.Debug("sending provider request",
		"provider", d.Name,
		"model", d.Model,
		"message_count", len(messages),
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	c.logger.Debug("received provider response",
		"provider", d.Name,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{
			StatusCode: resp.StatusCode,
			Body:       utils.Truncate(string(respBody), maxErrorBody),
		}
	}

	return prov.ExtractReply(respBody)
}
