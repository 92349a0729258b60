package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/trg-labs/retro-factory/server/internal/domain/player"
	"github.com/trg-labs/retro-factory/server/internal/infra/cache"
	"github.com/trg-labs/retro-factory/server/internal/platform/metrics"
)

// ErrGuestSession is returned when an anonymous session attempts to persist.
var ErrGuestSession = errors.New("guest sessions cannot be saved")

// GuestSessionID is the session identifier assigned before login.
const GuestSessionID = "guest"

// SaveStore persists game state through a SaveRepository with a
// read-through snapshot cache in front of it.
type SaveStore struct {
	repo  SaveRepository
	cache *cache.SnapshotCache
}

// NewSaveStore creates a save store. The cache may be nil.
func NewSaveStore(repo SaveRepository, snapshots *cache.SnapshotCache) *SaveStore {
	return &SaveStore{repo: repo, cache: snapshots}
}

// Save serializes the game state and upserts it under its session id.
func (s *SaveStore) Save(ctx context.Context, state *player.GameState) error {
	if state.SessionID == "" || state.SessionID == GuestSessionID {
		return ErrGuestSession
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal game state: %w", err)
	}

	if err := s.repo.Upsert(ctx, SaveRecord{SessionID: state.SessionID, State: data}); err != nil {
		return err
	}
	metrics.Get().RecordSave()

	if s.cache != nil {
		_ = s.cache.SetSnapshot(ctx, state.SessionID, data)
	}
	return nil
}

// Load returns the saved game state for a session, consulting the
// snapshot cache before the repository.
func (s *SaveStore) Load(ctx context.Context, sessionID string) (*player.GameState, error) {
	if sessionID == "" || sessionID == GuestSessionID {
		return nil, ErrGuestSession
	}

	if s.cache != nil {
		if data, err := s.cache.GetSnapshot(ctx, sessionID); err == nil {
			if state, err := decodeState(data); err == nil {
				metrics.Get().RecordLoad()
				return state, nil
			}
		}
	}

	record, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state, err := decodeState(record.State)
	if err != nil {
		return nil, err
	}
	metrics.Get().RecordLoad()

	if s.cache != nil {
		_ = s.cache.SetSnapshot(ctx, sessionID, record.State)
	}
	return state, nil
}

// Delete removes a save and its cached snapshot.
func (s *SaveStore) Delete(ctx context.Context, sessionID string) error {
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, sessionID)
	}
	return s.repo.Delete(ctx, sessionID)
}

func decodeState(data []byte) (*player.GameState, error) {
	var state player.GameState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game state: %w", err)
	}
	return &state, nil
}
