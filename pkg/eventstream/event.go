package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnResolved is emitted after a chat turn has been resolved,
	// either by the provider or by a fallback reply.
	EventTypeTurnResolved = "larder.chat.resolved"
)

// TurnResolvedEvent is a transport-neutral event payload for one resolved
// chat request.
type TurnResolvedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Turn          TurnMeta    `json:"turn"`
}

// EventSource identifies the provider the request was dispatched to.
type EventSource struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
}

// TurnMeta captures the user message, the reply and how it was produced.
type TurnMeta struct {
	UserMessage      string    `json:"user_message"`
	Reply            string    `json:"reply"`
	Fallback         bool      `json:"fallback"`
	FallbackCategory string    `json:"fallback_category,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	CompletedAt      time.Time `json:"completed_at"`
	DurationMs       int64     `json:"duration_ms"`
}

// NewTurnResolvedEvent stamps a new event with a random ID and the current time.
func NewTurnResolvedEvent(source EventSource, turn TurnMeta) *TurnResolvedEvent {
	return &TurnResolvedEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     EventTypeTurnResolved,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        source,
		Turn:          turn,
	}
}
