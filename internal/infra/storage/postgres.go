package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// OpenPostgres connects to a PostgreSQL instance and ensures the schema exists.
func OpenPostgres(url string) (*sql.DB, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	if err := createPostgresSchemas(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func createPostgresSchemas(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS saves (
			session_id TEXT PRIMARY KEY,
			state TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			event_type TEXT NOT NULL,
			year INTEGER NOT NULL,
			month INTEGER NOT NULL,
			payload TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_events_type ON events(session_id, event_type)`,
	}
	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create postgres schema: %w", err)
		}
	}
	return nil
}

// PostgresSaveRepository implements SaveRepository for PostgreSQL.
type PostgresSaveRepository struct {
	db *sql.DB
}

func NewPostgresSaveRepository(db *sql.DB) *PostgresSaveRepository {
	return &PostgresSaveRepository{db: db}
}

func (r *PostgresSaveRepository) Upsert(ctx context.Context, record SaveRecord) error {
	query := `
		INSERT INTO saves (session_id, state, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET
			state = EXCLUDED.state,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query, record.SessionID, string(record.State), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert save: %w", err)
	}
	return nil
}

func (r *PostgresSaveRepository) Get(ctx context.Context, sessionID string) (*SaveRecord, error) {
	query := `SELECT session_id, state, updated_at FROM saves WHERE session_id = $1`

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

func (r *PostgresSaveRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM saves WHERE session_id = $1`, sessionID)
	return err
}

// PostgresEventRepository implements EventRepository for PostgreSQL.
type PostgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) *PostgresEventRepository {
	return &PostgresEventRepository{db: db}
}

func (r *PostgresEventRepository) Append(ctx context.Context, event SimEvent) error {
	query := `
		INSERT INTO events (id, session_id, timestamp, event_type, year, month, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
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

func (r *PostgresEventRepository) getMany(ctx context.Context, query string, args ...interface{}) ([]SimEvent, error) {
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

func (r *PostgresEventRepository) GetBySession(ctx context.Context, sessionID string) ([]SimEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, year, month, payload FROM events WHERE session_id = $1 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID)
}

func (r *PostgresEventRepository) GetByType(ctx context.Context, sessionID, eventType string) ([]SimEvent, error) {
	query := `SELECT id, session_id, timestamp, event_type, year, month, payload FROM events WHERE session_id = $1 AND event_type = $2 ORDER BY timestamp ASC`
	return r.getMany(ctx, query, sessionID, eventType)
}
