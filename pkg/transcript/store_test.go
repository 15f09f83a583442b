package transcript

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "transcript.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndMessages(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx, "s1", "gemini:gemini-2.5-flash"))
	require.NoError(t, s.Record(ctx, "s1", "user", "open example.com"))
	require.NoError(t, s.Record(ctx, "s1", "assistant", "Done"))

	msgs, err := s.Messages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "open example.com", msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.False(t, msgs[1].CreatedAt.IsZero())

	empty, err := s.Messages(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSessionsOrderedByActivity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	clock := time.UnixMilli(1_700_000_000_000)
	s.now = func() time.Time { return clock }

	require.NoError(t, s.StartSession(ctx, "old", "m"))
	require.NoError(t, s.Record(ctx, "old", "user", "a"))
	clock = clock.Add(time.Minute)
	require.NoError(t, s.Record(ctx, "new", "user", "b"))
	require.NoError(t, s.Record(ctx, "new", "assistant", "c"))

	sessions, err := s.Sessions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, 2, sessions[0].Messages)
	assert.Equal(t, "old", sessions[1].ID)
	assert.Equal(t, "m", sessions[1].Model)
	assert.Equal(t, 1, sessions[1].Messages)

	limited, err := s.Sessions(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStartSessionIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.StartSession(ctx, "s", "first"))
	require.NoError(t, s.StartSession(ctx, "s", "second"))

	sessions, err := s.Sessions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "first", sessions[0].Model)
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "t.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Record(context.Background(), "s", "user", "persisted"))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	msgs, err := s.Messages(context.Background(), "s")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "persisted", msgs[0].Content)
}
