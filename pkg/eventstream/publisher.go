// Package eventstream publishes resolved chat turns to an event stream backend.
package eventstream

import "context"

// Publisher publishes turn events to an event stream backend.
type Publisher interface {
	PublishTurn(ctx context.Context, event *TurnResolvedEvent) error
	Close() error
}
