package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SQLiteSaveRepository implements SaveRepository for SQLite.
type SQLiteSaveRepository struct {
	db *sql.DB
}

func NewSQLiteSaveRepository(db *sql.DB) *SQLiteSaveRepository {
	return &SQLiteSaveRepository{db: db}
}

func (r *SQLiteSaveRepository) Upsert(ctx context.Context, record SaveRecord) error {
	query := `
		INSERT INTO saves (session_id, state, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state=excluded.state,
			updated_at=excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, record.SessionID, string(record.State), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert save: %w", err)
	}
	return nil
}

func (r *SQLiteSaveRepository) Get(ctx context.Context, sessionID string) (*SaveRecord, error) {
	query := `SELECT session_id, state, updated_at FROM saves WHERE session_id = ?`

	var record SaveRecord
	var state string
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&record.SessionID, &state, &record.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get save: %w", err)
	}
	record.State = []byte(state)
	return &record, nil
}

func (r *SQLiteSaveRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM saves WHERE session_id = ?`, sessionID)
	return err
}

// SQLiteEventRepository implements EventRepository for SQLite.
type SQLiteEventRepository struct {
	db *sql.DB
}

func NewSQLiteEventRepository(db *sql.DB) *SQLiteEventRepository {
	return &SQLiteEventRepository{db: db}
}

func (r *SQLiteEventRepository) Append(ctx context.Context, event SimEvent) error {
	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, year, month, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.SessionID, event.Timestamp, event.EventType,
		event.Year, event.Month, string(event.Payload),
	)
	if err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

func (r *SQLiteEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]SimEvent, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []SimEvent
	for rows.Next() {
		var e SimEvent
		var payload string
		err := rows.Scan(&e.ID, &e.SessionID, &e.Timestamp, &e.EventType, &e.Year, &e.Month, &payload)
		if err != nil {
			return nil, err
		}
		e.Payload = []byte(payload)
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *SQLiteEventRepository) GetBySession(ctx context.Context, sessionID string) ([]SimEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, year, month, payload FROM events WHERE session_id = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *SQLiteEventRepository) GetByType(ctx context.Context, sessionID, eventType string) ([]SimEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, year, month, payload FROM events WHERE session_id = ? AND event_type = ? ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}
