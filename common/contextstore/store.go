// Package contextstore keeps per-conversation rolling message history so
// agents can feed prior turns back into the completion API.
package contextstore

import (
	"context"
	"time"
)

// Entry is one turn of a conversation.
type Entry struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Store persists rolling conversation history. Implementations trim each
// conversation to a fixed window, dropping the oldest turns first.
type Store interface {
	// Append adds a turn to a conversation's history.
	Append(ctx context.Context, conversationID string, entry Entry) error

	// History returns a conversation's turns, oldest first.
	History(ctx context.Context, conversationID string) ([]Entry, error)

	// Clear drops a conversation's history.
	Clear(ctx context.Context, conversationID string) error

	// Close releases any resources held by the store.
	Close() error
}
