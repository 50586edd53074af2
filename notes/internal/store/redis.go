package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

// notesKey is the hash all notes live in, one field per note ID.
const notesKey = "vocal:notes"

// redisStore keeps the notes in a single Redis hash. The corpus is one
// person's notes, so whole-hash reads stay cheap and searching happens
// client-side.
type redisStore struct {
	client *redis.Client
}

// NewRedis connects to Redis and returns a Store backed by it.
func NewRedis(redisURL string) (Store, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &redisStore{client: client}, nil
}

func (s *redisStore) Save(ctx context.Context, note chatproto.Note) error {
	data, err := json.Marshal(note)
	if err != nil {
		return fmt.Errorf("marshal note: %w", err)
	}
	if err := s.client.HSet(ctx, notesKey, note.ID, data).Err(); err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	return nil
}

func (s *redisStore) List(ctx context.Context, limit int) ([]chatproto.Note, error) {
	notes, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	newestFirst(notes)
	if limit > 0 && len(notes) > limit {
		notes = notes[:limit]
	}
	return notes, nil
}

func (s *redisStore) Search(ctx context.Context, query string) ([]chatproto.Note, error) {
	notes, err := s.all(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	found := notes[:0]
	for _, note := range notes {
		if matches(note, q) {
			found = append(found, note)
		}
	}
	newestFirst(found)
	return found, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) (bool, error) {
	removed, err := s.client.HDel(ctx, notesKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	return removed > 0, nil
}

func (s *redisStore) Close() error {
	return s.client.Close()
}

func (s *redisStore) all(ctx context.Context) ([]chatproto.Note, error) {
	values, err := s.client.HGetAll(ctx, notesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}

	notes := make([]chatproto.Note, 0, len(values))
	for _, v := range values {
		var note chatproto.Note
		if err := json.Unmarshal([]byte(v), &note); err != nil {
			return nil, fmt.Errorf("parse stored note: %w", err)
		}
		notes = append(notes, note)
	}
	return notes, nil
}
