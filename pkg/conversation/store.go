// Package conversation holds the in-memory, ordered chat history for the
// assistant's single conversation.
package conversation

import (
	"sync"

	"github.com/papercomputeco/larder/pkg/llm"
)

// ClearedMessage is returned by Clear.
const ClearedMessage = "Conversation cleared!"

// Store is an append-only sequence of turns in chronological order. Turns
// are only ever removed all at once by Clear. History is lost when the
// process exits.
type Store struct {
	// mu guards turns; every read returns a copy.
	mu sync.RWMutex

	turns []llm.Message
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Append adds a turn to the end of the history.
func (s *Store) Append(turn llm.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, turn)
}

// RecentWindow returns the last n turns, or fewer if the history is shorter,
// in their original order.
func (s *Store) RecentWindow(n int) []llm.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if n <= 0 {
		return []llm.Message{}
	}

	start := max(len(s.turns)-n, 0)

	window := make([]llm.Message, len(s.turns)-start)
	copy(window, s.turns[start:])
	return window
}

// Len returns the number of stored turns.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.turns)
}

// Clear drops every turn and returns a confirmation message. Clearing an
// empty store is a no-op.
func (s *Store) Clear() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = nil
	return ClearedMessage
}
