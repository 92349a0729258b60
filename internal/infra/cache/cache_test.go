package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySetGetDel(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, m.Set(ctx, "k", "v", 0))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, m.Del(ctx, "k"))
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryExpiration(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	require.NoError(t, m.Set(ctx, "k", "v", 10*time.Millisecond))

	_, err := m.Get(ctx, "k")
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestSnapshotCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewSnapshotCache(NewMemory())

	require.NoError(t, c.SetSnapshot(ctx, "alice", []byte(`{"capital":100}`)))

	data, err := c.GetSnapshot(ctx, "alice")
	require.NoError(t, err)
	assert.JSONEq(t, `{"capital":100}`, string(data))

	// Sessions are isolated by key.
	_, err = c.GetSnapshot(ctx, "bob")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.Invalidate(ctx, "alice"))
	_, err = c.GetSnapshot(ctx, "alice")
	assert.ErrorIs(t, err, ErrMiss)
}
