package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists sessions in a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		remote_addr TEXT NOT NULL,
		schema_version INTEGER NOT NULL DEFAULT 0,
		connected_at TIMESTAMP NOT NULL,
		disconnected_at TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_connected_at ON sessions(connected_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// SaveSession implements Store.
func (s *SQLiteStore) SaveSession(sess *Session) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO sessions (id, remote_addr, schema_version, connected_at, disconnected_at)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.RemoteAddr, sess.SchemaVersion, sess.ConnectedAt, sess.DisconnectedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// UpdateSchemaVersion implements Store.
func (s *SQLiteStore) UpdateSchemaVersion(id string, version int) error {
	_, err := s.db.Exec(`UPDATE sessions SET schema_version = ? WHERE id = ?`, version, id)
	if err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

// CloseSession implements Store.
func (s *SQLiteStore) CloseSession(id string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE sessions SET disconnected_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// RecentSessions implements Store.
func (s *SQLiteStore) RecentSessions(limit int) ([]*Session, error) {
	if limit < 1 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT id, remote_addr, schema_version, connected_at, disconnected_at
		FROM sessions ORDER BY connected_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanSessions(rows *sql.Rows) ([]*Session, error) {
	var sessions []*Session
	for rows.Next() {
		var sess Session
		var disconnected sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.RemoteAddr, &sess.SchemaVersion,
			&sess.ConnectedAt, &disconnected); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if disconnected.Valid {
			t := disconnected.Time
			sess.DisconnectedAt = &t
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}
