// Package cache provides snapshot caching for quick save reads.
// The backing store remains the source of truth.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// KeyValue is an interface for cache backends. It allows
// swapping the in-memory store for Redis without touching callers.
type KeyValue interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, expiration time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// ErrMiss is returned when a key is absent or expired.
var ErrMiss = fmt.Errorf("cache: miss")

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// Memory is a process-local KeyValue implementation.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return "", ErrMiss
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", ErrMiss
	}
	return entry.value, nil
}

func (m *Memory) Set(_ context.Context, key string, value string, expiration time.Duration) error {
	entry := memoryEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, key := range keys {
		delete(m.entries, key)
	}
	m.mu.Unlock()
	return nil
}

// SnapshotCache provides fast access to serialized game state snapshots.
type SnapshotCache struct {
	client     KeyValue
	expiration time.Duration
}

// NewSnapshotCache creates a new snapshot cache instance.
func NewSnapshotCache(client KeyValue) *SnapshotCache {
	return &SnapshotCache{
		client:     client,
		expiration: 15 * time.Minute,
	}
}

// SetSnapshot caches the serialized state for a session.
func (c *SnapshotCache) SetSnapshot(ctx context.Context, sessionID string, state []byte) error {
	return c.client.Set(ctx, c.snapshotKey(sessionID), string(state), c.expiration)
}

// GetSnapshot retrieves the cached state for a session.
// Returns ErrMiss when the session has no cached snapshot.
func (c *SnapshotCache) GetSnapshot(ctx context.Context, sessionID string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.snapshotKey(sessionID))
	if err != nil {
		return nil, err
	}
	return []byte(data), nil
}

// Invalidate removes the cached snapshot for a session.
func (c *SnapshotCache) Invalidate(ctx context.Context, sessionID string) error {
	return c.client.Del(ctx, c.snapshotKey(sessionID))
}

func (c *SnapshotCache) snapshotKey(sessionID string) string {
	return fmt.Sprintf("session:%s:snapshot", sessionID)
}
