// Package store persists the notes agent's notes. Redis keeps them across
// restarts; the in-memory implementation covers bus-less and test runs.
package store

import (
	"context"
	"sort"
	"strings"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// Store persists notes keyed by ID.
type Store interface {
	// Save writes a note, overwriting any existing note with the same ID.
	Save(ctx context.Context, note chatproto.Note) error

	// List returns up to limit notes, newest first.
	List(ctx context.Context, limit int) ([]chatproto.Note, error)

	// Search returns the notes whose title, content, tags or category
	// contain the query, newest first.
	Search(ctx context.Context, query string) ([]chatproto.Note, error)

	// Delete removes a note, reporting whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// Close releases any resources held by the store.
	Close() error
}

// matches reports whether a note's searchable fields contain the
// lower-cased query.
func matches(note chatproto.Note, query string) bool {
	if strings.Contains(strings.ToLower(note.Title), query) ||
		strings.Contains(strings.ToLower(note.Content), query) ||
		strings.Contains(strings.ToLower(note.Category), query) {
		return true
	}
	for _, tag := range note.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

// newestFirst orders notes by update time, newest first.
func newestFirst(notes []chatproto.Note) {
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].UpdatedAt.After(notes[j].UpdatedAt)
	})
}
