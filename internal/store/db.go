// Package store provides embedded, file-backed persistence for OAuth token
// records and meeting dedup records. Both stores are backed by a
// single local SQLite file opened in WAL journaling mode, so writes survive
// a crash without needing an external database server.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if necessary) a SQLite database file at path, in WAL
// mode, and returns the raw handle. Callers wrap it in TokenStore/
// MeetingStore.
func Open(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite serializes writers; avoid pool contention on a single file.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: ping %s: %w", path, err)
	}
	return db, nil
}
