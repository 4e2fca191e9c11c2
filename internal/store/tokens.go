package store

import (
	"context"
	"database/sql"
	"fmt"
)

// TokenRecord is an OAuth token record. Invariant: if a record exists,
// RefreshToken is non-empty.
type TokenRecord struct {
	SubjectID    string
	AccessToken  string
	RefreshToken string
	ExpiryMS     int64
	Scope        string
}

// TokenStore is the interface consumed by the OAuth broker. The concrete
// implementation is *SQLTokenStore; testutil.MockTokenStore stands in for
// it in tests.
type TokenStore interface {
	Upsert(ctx context.Context, rec TokenRecord) error
	Get(ctx context.Context, subjectID string) (TokenRecord, bool, error)
	Delete(ctx context.Context, subjectID string) error
	Close() error
}

// SQLTokenStore is a SQLite-backed TokenStore.
type SQLTokenStore struct {
	db *sql.DB
}

// NewTokenStore opens the token store file and ensures its schema exists.
func NewTokenStore(path string) (*SQLTokenStore, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	const schema = `
	CREATE TABLE IF NOT EXISTS oauth_tokens (
		subject_id    TEXT PRIMARY KEY,
		access_token  TEXT NOT NULL,
		refresh_token TEXT NOT NULL,
		expiry_ms     INTEGER NOT NULL,
		scope         TEXT NOT NULL
	);`
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: create oauth_tokens: %w", err)
	}
	return &SQLTokenStore{db: db}, nil
}

// Upsert replaces all fields of the token record for rec.SubjectID.
func (s *SQLTokenStore) Upsert(ctx context.Context, rec TokenRecord) error {
	const q = `
	INSERT INTO oauth_tokens (subject_id, access_token, refresh_token, expiry_ms, scope)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(subject_id) DO UPDATE SET
		access_token = excluded.access_token,
		refresh_token = excluded.refresh_token,
		expiry_ms = excluded.expiry_ms,
		scope = excluded.scope;`
	_, err := s.db.ExecContext(ctx, q, rec.SubjectID, rec.AccessToken, rec.RefreshToken, rec.ExpiryMS, rec.Scope)
	if err != nil {
		return fmt.Errorf("store: upsert token %s: %w", rec.SubjectID, err)
	}
	return nil
}

// Get returns the token record for subjectID, or ok=false if none exists.
func (s *SQLTokenStore) Get(ctx context.Context, subjectID string) (TokenRecord, bool, error) {
	const q = `SELECT subject_id, access_token, refresh_token, expiry_ms, scope FROM oauth_tokens WHERE subject_id = ?`
	row := s.db.QueryRowContext(ctx, q, subjectID)

	var rec TokenRecord
	if err := row.Scan(&rec.SubjectID, &rec.AccessToken, &rec.RefreshToken, &rec.ExpiryMS, &rec.Scope); err != nil {
		if err == sql.ErrNoRows {
			return TokenRecord{}, false, nil
		}
		return TokenRecord{}, false, fmt.Errorf("store: get token %s: %w", subjectID, err)
	}
	return rec, true, nil
}

// Delete removes the token record for subjectID unconditionally.
func (s *SQLTokenStore) Delete(ctx context.Context, subjectID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM oauth_tokens WHERE subject_id = ?`, subjectID)
	if err != nil {
		return fmt.Errorf("store: delete token %s: %w", subjectID, err)
	}
	return nil
}

// Close closes the underlying database file deterministically.
func (s *SQLTokenStore) Close() error {
	return s.db.Close()
}
