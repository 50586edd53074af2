package store

import (
	"context"
	"strings"
	"sync"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// memoryStore is the in-process fallback used when Redis is disabled.
// Notes do not survive a restart.
type memoryStore struct {
	mu    sync.RWMutex
	notes map[string]chatproto.Note
}

// NewMemory returns an in-memory Store.
func NewMemory() Store {
	return &memoryStore{notes: make(map[string]chatproto.Note)}
}

func (s *memoryStore) Save(_ context.Context, note chatproto.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes[note.ID] = note
	return nil
}

func (s *memoryStore) List(_ context.Context, limit int) ([]chatproto.Note, error) {
	s.mu.RLock()
	notes := make([]chatproto.Note, 0, len(s.notes))
	for _, note := range s.notes {
		notes = append(notes, note)
	}
	s.mu.RUnlock()

	newestFirst(notes)
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

func (s *memoryStore) Search(_ context.Context, query string) ([]chatproto.Note, error) {
	q := strings.ToLower(query)

	s.mu.RLock()
	var found []chatproto.Note
	for _, note := range s.notes {
		if matches(note, q) {
			found = append(found, note)
		}
	}
	s.mu.RUnlock()

	newestFirst(found)
	return found, nil
}

func (s *memoryStore) Delete(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notes[id]; !ok {
		return false, nil
	}
	delete(s.notes, id)
	return true, nil
}

func (s *memoryStore) Close() error { return nil }
