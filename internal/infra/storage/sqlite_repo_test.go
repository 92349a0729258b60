package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) (*SQLiteSaveRepository, *SQLiteEventRepository) {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "factory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLiteSaveRepository(db), NewSQLiteEventRepository(db)
}

func TestSaveRepositoryUpsertGet(t *testing.T) {
	ctx := context.Background()
	saves, _ := testDB(t)

	_, err := saves.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrSaveNotFound)

	require.NoError(t, saves.Upsert(ctx, SaveRecord{SessionID: "alice", State: []byte(`{"capital":100}`)}))

	record, err := saves.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", record.SessionID)
	assert.JSONEq(t, `{"capital":100}`, string(record.State))
	assert.False(t, record.UpdatedAt.IsZero())

	// Upsert replaces in place.
	require.NoError(t, saves.Upsert(ctx, SaveRecord{SessionID: "alice", State: []byte(`{"capital":200}`)}))
	record, err = saves.Get(ctx, "alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"capital":200}`, string(record.State))
}

func TestSaveRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	saves, _ := testDB(t)

	require.NoError(t, saves.Upsert(ctx, SaveRecord{SessionID: "alice", State: []byte(`{}`)}))
	require.NoError(t, saves.Delete(ctx, "alice"))

	_, err := saves.Get(ctx, "alice")
	assert.ErrorIs(t, err, ErrSaveNotFound)
}

func TestEventRepositoryAppendAndQuery(t *testing.T) {
	ctx := context.Background()
	_, eventsRepo := testDB(t)

	base := time.Now().UTC().Truncate(time.Second)
	rows := []SimEvent{
		{ID: "e1", SessionID: "alice", Timestamp: base, EventType: "TICK", Year: 1975, Month: 1, Payload: []byte(`{}`)},
		{ID: "e2", SessionID: "alice", Timestamp: base.Add(time.Second), EventType: "BRAND_BOUGHT", Year: 1975, Month: 1, Payload: []byte(`{"brand_id":"mits"}`)},
		{ID: "e3", SessionID: "bob", Timestamp: base.Add(2 * time.Second), EventType: "TICK", Year: 1970, Month: 1, Payload: []byte(`{}`)},
	}
	for _, row := range rows {
		require.NoError(t, eventsRepo.Append(ctx, row))
	}

	bySession, err := eventsRepo.GetBySession(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, bySession, 2)
	assert.Equal(t, "e1", bySession[0].ID)
	assert.Equal(t, "e2", bySession[1].ID)
	assert.Equal(t, 1975, bySession[0].Year)

	byType, err := eventsRepo.GetByType(ctx, "alice", "TICK")
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "e1", byType[0].ID)

	empty, err := eventsRepo.GetBySession(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEventRepositoryRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	_, eventsRepo := testDB(t)

	ev := SimEvent{ID: "e1", SessionID: "alice", Timestamp: time.Now(), EventType: "TICK", Payload: []byte(`{}`)}
	require.NoError(t, eventsRepo.Append(ctx, ev))
	assert.Error(t, eventsRepo.Append(ctx, ev))
}
