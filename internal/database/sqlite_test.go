package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempStore(t *testing.T) *SQLite {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "uno.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite("  ")
	assert.Error(t, err)
}

func TestOpenDisabled(t *testing.T) {
	store, err := Open(context.Background(), config.DatabaseConfig{})
	require.NoError(t, err)
	assert.Nil(t, store)

	_, err = Open(context.Background(), config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestRecordRoundRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	gameID := uuid.New()
	ended := time.Date(2026, time.March, 14, 20, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordRound(ctx, RoundRecord{
		GameID: gameID, Code: "ab12cd34", Round: 1, Winner: "alice", Points: 84,
		Scores: map[string]int{"alice": 84, "bob": 0}, EndedAt: ended,
	}))
	require.NoError(t, store.RecordRound(ctx, RoundRecord{
		GameID: gameID, Code: "ab12cd34", Round: 2, Winner: "bob", Points: 30,
		Scores: map[string]int{"alice": 84, "bob": 30}, EndedAt: ended.Add(time.Minute),
	}))

	rounds, err := store.RoundsForGame(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, "alice", rounds[0].Winner)
	assert.Equal(t, 84, rounds[0].Points)
	assert.Equal(t, "ab12cd34", rounds[0].Code)
	assert.Equal(t, ended, rounds[0].EndedAt)
	assert.Equal(t, map[string]int{"alice": 84, "bob": 30}, rounds[1].Scores)
	assert.False(t, rounds[1].Finished)

	// re-recording a round overwrites it and marks the match complete
	require.NoError(t, store.RecordRound(ctx, RoundRecord{
		GameID: gameID, Code: "ab12cd34", Round: 2, Winner: "bob", Points: 31,
		Scores: map[string]int{"alice": 84, "bob": 31}, Finished: true, EndedAt: ended.Add(time.Minute),
	}))
	rounds, err = store.RoundsForGame(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.Equal(t, 31, rounds[1].Points)
	assert.True(t, rounds[1].Finished)
	assert.False(t, rounds[0].Finished)

	none, err := store.RoundsForGame(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordRoundAfterActions(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	gameID := uuid.New()
	ended := time.Date(2026, time.March, 14, 20, 0, 0, 0, time.UTC)

	// the historian usually creates the game row first, without a code
	require.NoError(t, store.RecordActions(ctx, []cache.ActionRecord{
		{GameID: gameID, ActionIndex: 1, Actor: "alice", ActionType: "join", Timestamp: 1},
	}))
	require.NoError(t, store.RecordRound(ctx, RoundRecord{
		GameID: gameID, Code: "ab12cd34", Round: 1, Winner: "alice", Points: 12,
		Scores: map[string]int{"alice": 12, "bob": 0}, Finished: true, EndedAt: ended,
	}))

	rounds, err := store.RoundsForGame(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, "ab12cd34", rounds[0].Code)
	assert.True(t, rounds[0].Finished)
}

func TestRecordRoundKeepsCompletedStatus(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	gameID := uuid.New()
	ended := time.Date(2026, time.March, 14, 20, 0, 0, 0, time.UTC)

	// round 2 finished the match but its write landed before round 1's
	require.NoError(t, store.RecordRound(ctx, RoundRecord{
		GameID: gameID, Code: "ab12cd34", Round: 2, Winner: "bob", Points: 40,
		Scores: map[string]int{"alice": 20, "bob": 40}, Finished: true, EndedAt: ended.Add(time.Minute),
	}))
	require.NoError(t, store.RecordRound(ctx, RoundRecord{
		GameID: gameID, Code: "ab12cd34", Round: 1, Winner: "alice", Points: 20,
		Scores: map[string]int{"alice": 20, "bob": 0}, EndedAt: ended,
	}))

	rounds, err := store.RoundsForGame(ctx, gameID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.False(t, rounds[0].Finished)
	assert.True(t, rounds[1].Finished)
}

func TestRecordActions(t *testing.T) {
	ctx := context.Background()
	store := openTempStore(t)
	gameID := uuid.New()

	batch := []cache.ActionRecord{
		{GameID: gameID, ActionIndex: 1, Actor: "alice", ActionType: "join", Timestamp: 1},
		{GameID: gameID, ActionIndex: 2, Actor: "alice", ActionType: "play_card",
			ActionPayload: map[string]interface{}{"card_index": 0}, Timestamp: 2},
	}
	require.NoError(t, store.RecordActions(ctx, batch))
	// duplicates from a redelivered batch are ignored
	require.NoError(t, store.RecordActions(ctx, batch))
	require.NoError(t, store.RecordActions(ctx, nil))

	n, err := store.ActionCount(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
