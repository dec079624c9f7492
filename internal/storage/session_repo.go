package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// SessionRecord is one persisted conversation: the full message list,
// citation metadata included, stored in a single keyed slot.
type SessionRecord struct {
	ID        string
	Messages  string // JSON array of messages
	UpdatedAt time.Time
}

// SessionStore defines the interface for conversation-state persistence.
type SessionStore interface {
	// Save inserts or replaces the message list for a session.
	Save(ctx context.Context, id, messages string) error
	// Get returns a session. Returns nil and ErrNotFound if not found.
	Get(ctx context.Context, id string) (*SessionRecord, error)
	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}

// SessionRepo provides methods for session operations.
// It implements the SessionStore interface.
type SessionRepo struct {
	db *sql.DB
}

// NewSessionRepo creates a new SessionRepo.
func NewSessionRepo(db *sql.DB) *SessionRepo {
	return &SessionRepo{db: db}
}

// Save inserts or replaces the message list for a session.
func (r *SessionRepo) Save(ctx context.Context, id, messages string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, messages, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(id) DO UPDATE SET messages = excluded.messages, updated_at = CURRENT_TIMESTAMP`,
		id, messages,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Get returns a session by ID. Returns nil and ErrNotFound if not found.
func (r *SessionRepo) Get(ctx context.Context, id string) (*SessionRecord, error) {
	var record SessionRecord
	var updatedAtStr string

	err := r.db.QueryRowContext(ctx,
		"SELECT id, messages, updated_at FROM sessions WHERE id = ?",
		id,
	).Scan(&record.ID, &record.Messages, &updatedAtStr)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	record.UpdatedAt, err = time.Parse("2006-01-02 15:04:05", updatedAtStr)
	if err != nil {
		// SQLite may include fractional seconds depending on how the row was written.
		record.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAtStr)
	}

	return &record, nil
}

// Delete removes a session by ID.
func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
