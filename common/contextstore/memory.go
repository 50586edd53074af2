package contextstore

import (
	"context"
	"sync"
)

// memoryStore is the in-process fallback used when Redis is disabled.
// History does not survive a restart, matching the original agents'
// process-local memory files.
type memoryStore struct {
	mu            sync.RWMutex
	conversations map[string][]Entry
	window        int
}

// NewMemory returns an in-memory Store trimming each conversation to window
// entries.
func NewMemory(window int) Store {
	if window <= 0 {
		window = 20
	}
	return &memoryStore{
		conversations: make(map[string][]Entry),
		window:        window,
	}
}

func (s *memoryStore) Append(_ context.Context, conversationID string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	history := append(s.conversations[conversationID], entry)
	if len(history) > s.window {
		history = history[len(history)-s.window:]
	}
	s.conversations[conversationID] = history
	return nil
}

func (s *memoryStore) History(_ context.Context, conversationID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.conversations[conversationID]
	out := make([]Entry, len(history))
	copy(out, history)
	return out, nil
}

func (s *memoryStore) Clear(_ context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conversations, conversationID)
	return nil
}

func (s *memoryStore) Close() error { return nil }
