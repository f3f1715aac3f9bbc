package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore persists sessions in a MySQL database, for deployments that
// already run one.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore connects using a DSN like user:pass@tcp(host:3306)/sechub?parseTime=true
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := &MySQLStore{db: db}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func (s *MySQLStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id VARCHAR(64) PRIMARY KEY,
		remote_addr VARCHAR(255) NOT NULL,
		schema_version INT NOT NULL DEFAULT 0,
		connected_at DATETIME NOT NULL,
		disconnected_at DATETIME NULL,
		INDEX idx_sessions_connected_at (connected_at)
	)`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// SaveSession implements Store.
func (s *MySQLStore) SaveSession(sess *Session) error {
	_, err := s.db.Exec(`
		REPLACE INTO sessions (id, remote_addr, schema_version, connected_at, disconnected_at)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.RemoteAddr, sess.SchemaVersion, sess.ConnectedAt, sess.DisconnectedAt)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// UpdateSchemaVersion implements Store.
func (s *MySQLStore) UpdateSchemaVersion(id string, version int) error {
	_, err := s.db.Exec(`UPDATE sessions SET schema_version = ? WHERE id = ?`, version, id)
	if err != nil {
		return fmt.Errorf("failed to update schema version: %w", err)
	}
	return nil
}

// CloseSession implements Store.
func (s *MySQLStore) CloseSession(id string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE sessions SET disconnected_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// RecentSessions implements Store.
func (s *MySQLStore) RecentSessions(limit int) ([]*Session, error) {
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
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
