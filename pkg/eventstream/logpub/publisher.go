// Package logpub provides an eventstream publisher that writes turn events
// to a structured logger. It is the default when no broker is configured.
package logpub

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/larder/pkg/eventstream"
)

// Publisher logs every turn event at debug level.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher creates a Publisher writing to l.
func NewPublisher(l *slog.Logger) *Publisher {
	return &Publisher{logger: l}
}

// PublishTurn validates input and logs the event.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnResolvedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	p.logger.DebugContext(ctx, "chat turn resolved",
		"event_id", event.EventID,
		"provider", event.Source.Provider,
		"fallback", event.Turn.Fallback,
		"fallback_category", event.Turn.FallbackCategory,
		"duration_ms", event.Turn.DurationMs,
	)

	return nil
}

// Close is a no-op.
func (p *Publisher) Close() error {
	return nil
}
