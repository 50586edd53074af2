package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vocal-agents/vocal-stack/common/chatproto"
)

func testStores(t *testing.T) map[string]Store {
	t.Helper()

	mr := miniredis.RunT(t)
	redisStore, err := NewRedis("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { redisStore.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"redis":  redisStore,
	}
}

func note(id, title, content string, age time.Duration, tags ...string) chatproto.Note {
	now := time.Now().UTC().Add(-age)
	return chatproto.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		Tags:      tags,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestSaveAndList(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, s.Save(ctx, note("n1", "Shopping List", "milk, eggs", 2*time.Hour)))
			require.NoError(t, s.Save(ctx, note("n2", "Project Ideas", "voice memos", time.Hour)))

			notes, err := s.List(ctx, 10)
			require.NoError(t, err)
			require.Len(t, notes, 2)
			// Newest first.
			assert.Equal(t, "Project Ideas", notes[0].Title)
			assert.Equal(t, "Shopping List", notes[1].Title)
		})
	}
}

func TestListHonorsLimit(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 7; i++ {
				n := note(fmt.Sprintf("n%d", i), fmt.Sprintf("Note %d", i), "", time.Duration(i)*time.Minute)
				require.NoError(t, s.Save(ctx, n))
			}

			notes, err := s.List(ctx, 3)
			require.NoError(t, err)
			require.Len(t, notes, 3)
			assert.Equal(t, "Note 0", notes[0].Title)
		})
	}
}

func TestSearchMatchesTitleContentAndTags(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, note("n1", "Meeting Notes", "discussed the launch", time.Hour, "work")))
			require.NoError(t, s.Save(ctx, note("n2", "Recipes", "pasta with LAUNCH sauce", 2*time.Hour)))
			require.NoError(t, s.Save(ctx, note("n3", "Gift ideas", "book for dad", 3*time.Hour, "family")))

			byContent, err := s.Search(ctx, "launch")
			require.NoError(t, err)
			assert.Len(t, byContent, 2)

			byTag, err := s.Search(ctx, "family")
			require.NoError(t, err)
			require.Len(t, byTag, 1)
			assert.Equal(t, "Gift ideas", byTag[0].Title)

			none, err := s.Search(ctx, "no such thing")
			require.NoError(t, err)
			assert.Empty(t, none)
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, note("n1", "Temp", "", 0)))

			existed, err := s.Delete(ctx, "n1")
			require.NoError(t, err)
			assert.True(t, existed)

			existed, err = s.Delete(ctx, "n1")
			require.NoError(t, err)
			assert.False(t, existed)

			notes, err := s.List(ctx, 10)
			require.NoError(t, err)
			assert.Empty(t, notes)
		})
	}
}

func TestSaveOverwritesByID(t *testing.T) {
	for name, s := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.Save(ctx, note("n1", "Draft", "v1", time.Hour)))
			require.NoError(t, s.Save(ctx, note("n1", "Draft", "v2", 0)))

			notes, err := s.List(ctx, 10)
			require.NoError(t, err)
			require.Len(t, notes, 1)
			assert.Equal(t, "v2", notes[0].Content)
		})
	}
}
