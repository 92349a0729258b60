package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trg-labs/retro-factory/server/internal/domain/player"
	"github.com/trg-labs/retro-factory/server/internal/infra/cache"
)

func testSaveStore(t *testing.T) *SaveStore {
	t.Helper()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "factory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSaveStore(NewSQLiteSaveRepository(db), cache.NewSnapshotCache(cache.NewMemory()))
}

func TestSaveStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := testSaveStore(t)

	st := player.NewGameState("alice", 1_000_000)
	st.Year, st.Month = 1975, 6
	st.AddBrand("mits")
	st.EnsureEntry("mits", "altair_8800").Quantity = 1000
	st.TotalUnitsProduced = 42

	require.NoError(t, store.Save(ctx, st))

	loaded, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", loaded.SessionID)
	assert.Equal(t, 1975, loaded.Year)
	assert.Equal(t, 6, loaded.Month)
	assert.Equal(t, int64(1_000_000), loaded.Capital)
	assert.True(t, loaded.Owns("mits"))
	assert.Equal(t, 1000, loaded.Entry("mits", "altair_8800").Quantity)
	assert.Equal(t, int64(42), loaded.TotalUnitsProduced)
}

func TestSaveStoreRejectsGuest(t *testing.T) {
	ctx := context.Background()
	store := testSaveStore(t)

	err := store.Save(ctx, player.NewGameState(GuestSessionID, 0))
	assert.ErrorIs(t, err, ErrGuestSession)

	_, err = store.Load(ctx, GuestSessionID)
	assert.ErrorIs(t, err, ErrGuestSession)

	err = store.Save(ctx, player.NewGameState("", 0))
	assert.ErrorIs(t, err, ErrGuestSession)
}

func TestSaveStoreMissingSession(t *testing.T) {
	ctx := context.Background()
	store := testSaveStore(t)

	_, err := store.Load(ctx, "nobody")
	assert.ErrorIs(t, err, ErrSaveNotFound)
}

func TestSaveStoreOverwrite(t *testing.T) {
	ctx := context.Background()
	store := testSaveStore(t)

	st := player.NewGameState("alice", 500_000)
	require.NoError(t, store.Save(ctx, st))

	st.Capital = 750_000
	require.NoError(t, store.Save(ctx, st))

	loaded, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(750_000), loaded.Capital)
}

func TestSaveStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := testSaveStore(t)

	require.NoError(t, store.Save(ctx, player.NewGameState("alice", 0)))
	require.NoError(t, store.Delete(ctx, "alice"))

	_, err := store.Load(ctx, "alice")
	assert.ErrorIs(t, err, ErrSaveNotFound)
}

func TestSaveStoreWithoutCache(t *testing.T) {
	ctx := context.Background()
	db, err := InitSQLite(filepath.Join(t.TempDir(), "factory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	store := NewSaveStore(NewSQLiteSaveRepository(db), nil)

	require.NoError(t, store.Save(ctx, player.NewGameState("alice", 100)))
	loaded, err := store.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(100), loaded.Capital)
}
