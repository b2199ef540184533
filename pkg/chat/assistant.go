// Package chat implements the food assistant conversation flow: it records
// the user's message, sends a bounded context window to the configured
// provider and degrades to a canned reply when the provider is unavailable.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/papercomputeco/larder/pkg/conversation"
	"github.com/papercomputeco/larder/pkg/eventstream"
	"github.com/papercomputeco/larder/pkg/llm"
	"github.com/papercomputeco/larder/pkg/logger"
)

// Sender performs one provider request.
type Sender interface {
	Send(ctx context.Context, d llm.Descriptor, messages []llm.Message) (string, error)
}

// ProviderSource chooses the provider for the next request.
type ProviderSource interface {
	Available() llm.Descriptor
}

// Config holds the Assistant collaborators.
type Config struct {
	// Store is the conversation history. Required.
	Store *conversation.Store

	// Providers chooses the upstream provider. Required.
	Providers ProviderSource

	// Sender performs the upstream request. Required.
	Sender Sender

	// Rules is the fallback table. Defaults to DefaultRules.
	Rules []Rule

	// Publisher receives one event per resolved request. Optional.
	Publisher eventstream.Publisher

	// Tracer records one span per request. Defaults to a no-op tracer.
	Tracer trace.Tracer

	Logger *slog.Logger
}

// Reply is the outcome of a chat request.
type Reply struct {
	Text string

	// Fallback is true when Text is a canned reply rather than provider output.
	Fallback bool

	// Category is the fallback rule that produced Text, empty on success.
	Category Category
}

// Assistant orchestrates chat requests against a single shared conversation.
type Assistant struct {
	// mu serializes requests so that each user turn is immediately followed
	// by its assistant turn in the history.
	mu sync.Mutex

	store     *conversation.Store
	providers ProviderSource
	sender    Sender
	rules     []Rule
	publisher eventstream.Publisher
	tracer    trace.Tracer
	logger    *slog.Logger
}

// New creates an Assistant.
func New(c Config) (*Assistant, error) {
	if c.Store == nil {
		return nil, errors.New("conversation store is required")
	}
	if c.Providers == nil {
		return nil, errors.New("provider source is required")
	}
	if c.Sender == nil {
		return nil, errors.New("sender is required")
	}

	rules := c.Rules
	if len(rules) == 0 {
		rules = DefaultRules
	}

	l := c.Logger
	if l == nil {
		l = logger.Nop()
	}

	tracer := c.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	return &Assistant{
		store:     c.Store,
		providers: c.Providers,
		sender:    c.Sender,
		rules:     rules,
		publisher: c.Publisher,
		tracer:    tracer,
		logger:    l,
	}, nil
}

// Handle answers a user message. Provider failures never surface as errors:
// a fallback reply is recorded and returned instead. The only error is a
// *ValidationError for a blank message, in which case nothing is recorded.
func (a *Assistant) Handle(ctx context.Context, message string) (Reply, error) {
	if strings.TrimSpace(message) == "" {
		return Reply{}, &ValidationError{Field: "message", Reason: "message is required"}
	}

	started := time.Now()

	ctx, span := a.tracer.Start(ctx, "chat.handle")
	defer span.End()

	a.mu.Lock()
	a.store.Append(llm.NewMessage(llm.RoleUser, message))

	window := BuildWindow(a.store.RecentWindow(WindowSize))
	d := a.providers.Available()

	a.logger.Debug("dispatching chat request",
		"provider", d.Name,
		"model", d.Model,
		"window", len(window),
	)

	span.SetAttributes(
		attribute.String("larder.provider", d.Name),
		attribute.Int("larder.window", len(window)),
	)

	var reply Reply
	text, err := a.sender.Send(ctx, d, window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider unavailable")
		rule := SelectFallback(a.rules, message)
		a.logger.Warn("provider unavailable, using fallback reply",
			"provider", d.Name,
			"category", rule.Category,
			"error", err,
		)
		reply = Reply{Text: rule.Reply, Fallback: true, Category: rule.Category}
	} else {
		reply = Reply{Text: text}
	}

	a.store.Append(llm.NewMessage(llm.RoleAssistant, reply.Text))
	a.mu.Unlock()

	span.SetAttributes(attribute.Bool("larder.fallback", reply.Fallback))

	a.publish(ctx, d, message, reply, started)

	return reply, nil
}

// History returns up to n of the most recent turns.
func (a *Assistant) History(n int) []llm.Message {
	return a.store.RecentWindow(n)
}

// Clear resets the conversation. It waits for an in-flight request to finish.
func (a *Assistant) Clear() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.store.Clear()
}

func (a *Assistant) publish(ctx context.Context, d llm.Descriptor, message string, reply Reply, started time.Time) {
	if a.publisher == nil {
		return
	}

	completed := time.Now()
	event := eventstream.NewTurnResolvedEvent(
		eventstream.EventSource{
			Provider: d.Name,
			Model:    d.Model,
		},
		eventstream.TurnMeta{
			UserMessage:      message,
			Reply:            reply.Text,
			Fallback:         reply.Fallback,
			FallbackCategory: string(reply.Category),
			StartedAt:        started.UTC(),
			CompletedAt:      completed.UTC(),
			DurationMs:       completed.Sub(started).Milliseconds(),
		},
	)

	if err := a.publisher.PublishTurn(ctx, event); err != nil {
		a.logger.Warn("failed to publish turn event",
			"event_id", event.EventID,
			"error", err,
		)
	}
}
