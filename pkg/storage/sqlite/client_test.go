package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haven-labs/coachbot-go/pkg/access"
	"github.com/haven-labs/coachbot-go/pkg/history"
	"github.com/haven-labs/coachbot-go/pkg/schema"
	sqliteStore "github.com/haven-labs/coachbot-go/pkg/storage/sqlite"
)

func setupSQLiteTest(t *testing.T) (*sqliteStore.Client, func()) {
	dbPath := filepath.Join(t.TempDir(), "coachbot_test.db")

	client, err := sqliteStore.NewClient(&sqliteStore.Config{DBPath: dbPath})
	require.NoError(t, err)
	require.NotNil(t, client)

	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup
}

func TestProfileStore_GetMissing(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	profile, err := client.Profiles().Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, "nobody", profile.UserID)
	assert.Empty(t, profile.Fields)
	assert.Empty(t, profile.Summary)
}

func TestProfileStore_SaveAndGet(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	profiles := client.Profiles()

	saved, err := profiles.Save(ctx, "user1", map[string]string{
		schema.FieldAge:        "35",
		schema.FieldOccupation: "nurse",
	})
	require.NoError(t, err)
	assert.Equal(t, "Age: 35; Work: nurse", saved.Summary)

	got, err := profiles.Get(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "35", got.Fields[schema.FieldAge])
	assert.Equal(t, "nurse", got.Fields[schema.FieldOccupation])
	assert.Equal(t, saved.Summary, got.Summary)
}

func TestProfileStore_SaveMergesShallow(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	profiles := client.Profiles()

	_, err := profiles.Save(ctx, "user1", map[string]string{schema.FieldAge: "35"})
	require.NoError(t, err)

	// A later save with different fields keeps the earlier ones.
	updated, err := profiles.Save(ctx, "user1", map[string]string{schema.FieldOccupation: "nurse"})
	require.NoError(t, err)
	assert.Equal(t, "35", updated.Fields[schema.FieldAge])
	assert.Equal(t, "nurse", updated.Fields[schema.FieldOccupation])
}

func TestProfileStore_SummaryFastPath(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()

	summary, err := client.Profiles().Summary(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, summary)

	_, err = client.Profiles().Save(ctx, "user1", map[string]string{schema.FieldAge: "35"})
	require.NoError(t, err)

	summary, err = client.Profiles().Summary(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, "Age: 35", summary)
}

func TestProfileStore_Delete(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	profiles := client.Profiles()

	_, err := profiles.Save(ctx, "user1", map[string]string{schema.FieldAge: "35"})
	require.NoError(t, err)

	require.NoError(t, profiles.Delete(ctx, "user1"))

	got, err := profiles.Get(ctx, "user1")
	require.NoError(t, err)
	assert.Empty(t, got.Fields)

	// Deleting again is a no-op.
	assert.NoError(t, profiles.Delete(ctx, "user1"))
}

func TestHistoryStore_AppendAndRecent(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	store := client.History()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		err := store.Append(ctx, &history.Entry{
			UserID:      "user1",
			UserMessage: fmt.Sprintf("message %d", i),
			BotReply:    fmt.Sprintf("reply %d", i),
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	turns, err := store.Recent(ctx, "user1", 3)
	require.NoError(t, err)
	require.Len(t, turns, 6)

	// Oldest of the window first, newest last.
	assert.Equal(t, "message 2", turns[0].Content)
	assert.Equal(t, "user", turns[0].Role)
	assert.Equal(t, "reply 4", turns[5].Content)
	assert.Equal(t, "assistant", turns[5].Role)
}

func TestHistoryStore_RecentEntriesWindowBound(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	store := client.History()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 20; i++ {
		require.NoError(t, store.Append(ctx, &history.Entry{
			UserID:      "user1",
			UserMessage: fmt.Sprintf("message %d", i),
			BotReply:    "reply",
			Timestamp:   base.Add(time.Duration(i) * time.Minute),
		}))
	}

	entries, err := store.RecentEntries(ctx, "user1", 15)
	require.NoError(t, err)
	require.Len(t, entries, 15)
	assert.Equal(t, "message 5", entries[0].UserMessage)
	assert.Equal(t, "message 19", entries[14].UserMessage)
}

func TestHistoryStore_GeneratesIDs(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	entry := &history.Entry{UserID: "user1", UserMessage: "hello", BotReply: "hi"}
	require.NoError(t, client.History().Append(context.Background(), entry))
	assert.NotZero(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestHistoryStore_StatsAndPurge(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	store := client.History()

	stats, err := store.Stats(ctx, "user1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalMessages)
	assert.True(t, stats.FirstSeen.IsZero())

	first := time.Now().UTC().Add(-time.Hour)
	last := time.Now().UTC()
	require.NoError(t, store.Append(ctx, &history.Entry{
		UserID: "user1", UserMessage: "a", BotReply: "b", Timestamp: first}))
	require.NoError(t, store.Append(ctx, &history.Entry{
		UserID: "user1", UserMessage: "c", BotReply: "d", Timestamp: last}))

	stats, err = store.Stats(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalMessages)
	assert.WithinDuration(t, first, stats.FirstSeen, time.Second)
	assert.WithinDuration(t, last, stats.LastSeen, time.Second)

	require.NoError(t, store.Purge(ctx, "user1"))
	stats, err = store.Stats(ctx, "user1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalMessages)
}

func TestStateStore_Lifecycle(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	states := client.States()

	// Unknown user yields nil.
	status, err := states.Get(ctx, "user1")
	require.NoError(t, err)
	assert.Nil(t, status)

	created, err := states.Create(ctx, "user1")
	require.NoError(t, err)
	assert.Equal(t, access.StateAwaitingCode, created.State)

	require.NoError(t, states.SetCode(ctx, "user1", "EARLY2026"))
	require.NoError(t, states.SetState(ctx, "user1", access.StateAwaitingApproval))
	require.NoError(t, states.Approve(ctx, "user1"))
	require.NoError(t, states.SetState(ctx, "user1", access.StateActive))

	status, err = states.Get(ctx, "user1")
	require.NoError(t, err)
	require.NotNil(t, status)
	assert.Equal(t, access.StateActive, status.State)
	assert.Equal(t, "EARLY2026", status.Code)
	assert.True(t, status.Approved)
}

func TestStateStore_Counters(t *testing.T) {
	client, cleanup := setupSQLiteTest(t)
	defer cleanup()

	ctx := context.Background()
	states := client.States()

	_, err := states.Create(ctx, "user1")
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		got, err := states.BumpCodeAttempts(ctx, "user1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	for want := 1; want <= 10; want++ {
		got, err := states.BumpMessageCount(ctx, "user1")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
