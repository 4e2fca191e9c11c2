package store

import (
	"context"
	"database/sql"
	"fmt"
)

// MeetingStatus is the closed set of terminal/pending states for a meeting
// record.
type MeetingStatus string

const (
	MeetingPending   MeetingStatus = "pending"
	MeetingApproved  MeetingStatus = "approved"
	MeetingDismissed MeetingStatus = "dismissed"
)

// MeetingRecord is inserted when an analysis is surfaced and updated when
// the user acts on the preview.
type MeetingRecord struct {
	EventID     string
	Title       string
	ProcessedAt int64
	Status      MeetingStatus
	TaskIDs     string // JSON-encoded []string, empty when absent
}

// MeetingStore is the interface consumed by the meeting-sync orchestrator
// and preview engine.
type MeetingStore interface {
	Insert(ctx context.Context, rec MeetingRecord) error
	IsProcessed(ctx context.Context, eventID string) (bool, error)
	UpdateStatus(ctx context.Context, eventID string, status MeetingStatus, taskIDs string) error
	Get(ctx context.Context, eventID string) (MeetingRecord, bool, error)
	Close() error
}

// SQLMeetingStore is a SQLite-backed MeetingStore.
type SQLMeetingStore struct {
	db *sql.DB
}

// NewMeetingStore opens the meeting store file and ensures its schema exists.
func NewMeetingStore(path string) (*SQLMeetingStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS meetings (
		event_id     TEXT PRIMARY KEY,
		title        TEXT NOT NULL,
		processed_at INTEGER NOT NULL,
		status       TEXT NOT NULL,
		task_ids     TEXT NOT NULL DEFAULT ''
	);`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create meetings: %w", err)
	}
	return &SQLMeetingStore{db: db}, nil
}

// Insert creates a meeting record. Idempotency relies on
// the caller checking IsProcessed before calling Insert; the primary key
// still guards against a raw duplicate insert.
func (s *SQLMeetingStore) Insert(ctx context.Context, rec MeetingRecord) error {
	const q = `
	INSERT INTO meetings (event_id, title, processed_at, status, task_ids)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(event_id) DO NOTHING;`
	_, err := s.db.ExecContext(ctx, q, rec.EventID, rec.Title, rec.ProcessedAt, string(rec.Status), rec.TaskIDs)
	if err != nil {
		return fmt.Errorf("store: insert meeting %s: %w", rec.EventID, err)
	}
	return nil
}

// IsProcessed returns true iff any record exists for eventID, regardless of
// its status — pending, approved, or dismissed all count.
func (s *SQLMeetingStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM meetings WHERE event_id = ?`, eventID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("store: check processed %s: %w", eventID, err)
	}
	return count > 0, nil
}

// UpdateStatus transitions a meeting record's status. Both pending->approved
// and pending->dismissed are terminal.
func (s *SQLMeetingStore) UpdateStatus(ctx context.Context, eventID string, status MeetingStatus, taskIDs string) error {
	const q = `UPDATE meetings SET status = ?, task_ids = ? WHERE event_id = ?`
	res, err := s.db.ExecContext(ctx, q, string(status), taskIDs, eventID)
	if err != nil {
		return fmt.Errorf("store: update meeting %s: %w", eventID, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: meeting %s not found", eventID)
	}
	return nil
}

// Get returns the meeting record for eventID, or ok=false if none exists.
func (s *SQLMeetingStore) Get(ctx context.Context, eventID string) (MeetingRecord, bool, error) {
	const q = `SELECT event_id, title, processed_at, status, task_ids FROM meetings WHERE event_id = ?`
	row := s.db.QueryRowContext(ctx, q, eventID)

	var rec MeetingRecord
	var status string
	if err := row.Scan(&rec.EventID, &rec.Title, &rec.ProcessedAt, &status, &rec.TaskIDs); err != nil {
		if err == sql.ErrNoRows {
			return MeetingRecord{}, false, nil
		}
		return MeetingRecord{}, false, fmt.Errorf("store: get meeting %s: %w", eventID, err)
	}
	rec.Status = MeetingStatus(status)
	return rec, true, nil
}

// Close closes the underlying database file deterministically.
func (s *SQLMeetingStore) Close() error {
	return s.db.Close()
}
