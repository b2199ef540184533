// Package llm holds the provider-agnostic chat types shared by the
// conversation store, the provider request builders and the chat assistant.
package llm

import "strings"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// Message is a single turn in a conversation. Messages are values and are
// never mutated once appended to a history.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// NewMessage creates a message with the given role and content.
func NewMessage(role Role, content string) Message {
	return Message{
		Role:    role,
		Content: content,
	}
}

// IsBlank reports whether the message carries no visible text.
func (m Message) IsBlank() bool {
	return strings.TrimSpace(m.Content) == ""
}
