package contextstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps conversation history in Redis lists, one list per
// conversation, trimmed to the configured window and expired after ttl.
type redisStore struct {
	client *redis.Client
	window int
	ttl    time.Duration
}

// NewRedis connects to Redis and returns a Store backed by it.
func NewRedis(redisURL string, window int, ttl time.Duration) (Store, error) {
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

	if window <= 0 {
		window = 20
	}

	return &redisStore{client: client, window: window, ttl: ttl}, nil
}

func conversationKey(conversationID string) string {
	return "vocal:conversation:" + conversationID
}

func (s *redisStore) Append(ctx context.Context, conversationID string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	key := conversationKey(conversationID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	// Keep only the newest window entries.
	pipe.LTrim(ctx, key, int64(-s.window), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *redisStore) History(ctx context.Context, conversationID string) ([]Entry, error) {
	values, err := s.client.LRange(ctx, conversationKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for _, v := range values {
		var e Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("parse history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *redisStore) Clear(ctx context.Context, conversationID string) error {
	return s.client.Del(ctx, conversationKey(conversationID)).Err()
}

func (s *redisStore) Close() error {
	return s.client.Close()
}
