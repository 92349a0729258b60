// Package storage provides the persistence layer for the factory server.
// This package implements the repository pattern to keep the simulation
// core free of database concerns.
package storage

import (
	"context"
	"errors"
	"time"
)

// ErrSaveNotFound is returned when a session has no stored snapshot.
var ErrSaveNotFound = errors.New("save not found")

// SaveRecord is one persisted session snapshot. State is the JSON-encoded
// game state; storage treats it as opaque.
type SaveRecord struct {
	SessionID string    `json:"session_id" db:"session_id"`
	State     []byte    `json:"state" db:"state"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SimEvent mirrors the simulation event structure for persistence. The
// events package should NOT import this; the adapter in cmd translates.
type SimEvent struct {
	ID        string    `json:"id" db:"id"`
	SessionID string    `json:"session_id" db:"session_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	EventType string    `json:"event_type" db:"event_type"`
	Year      int       `json:"year" db:"year"`
	Month     int       `json:"month" db:"month"`
	Payload   []byte    `json:"payload" db:"payload"`
}

// SaveRepository persists session snapshots keyed by session id.
type SaveRepository interface {
	// Upsert inserts or replaces the snapshot for a session.
	Upsert(ctx context.Context, record SaveRecord) error

	// Get retrieves the snapshot for a session; ErrSaveNotFound if absent.
	Get(ctx context.Context, sessionID string) (*SaveRecord, error)

	// Delete removes a session's snapshot.
	Delete(ctx context.Context, sessionID string) error
}

// EventRepository persists the immutable simulation event history.
type EventRepository interface {
	// Append adds a new event to the history.
	Append(ctx context.Context, event SimEvent) error

	// GetBySession retrieves all events for a session in append order.
	GetBySession(ctx context.Context, sessionID string) ([]SimEvent, error)

	// GetByType retrieves a session's events of one type.
	GetByType(ctx context.Context, sessionID, eventType string) ([]SimEvent, error)
}
