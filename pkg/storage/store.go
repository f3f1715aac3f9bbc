// Package storage persists a session audit trail (who connected, at which
// schema version, for how long) for the status API. Persistence is
// best-effort: the gateway runs fine with a nil store.
package storage

import "time"

// Session is one persisted connection record.
type Session struct {
	ID             string     `json:"id"`
	RemoteAddr     string     `json:"remoteAddr"`
	SchemaVersion  int        `json:"schemaVersion"`
	ConnectedAt    time.Time  `json:"connectedAt"`
	DisconnectedAt *time.Time `json:"disconnectedAt,omitempty"`
}

// Store defines the session persistence operations.
type Store interface {
	// SaveSession inserts or replaces a session row.
	SaveSession(s *Session) error
	// UpdateSchemaVersion records the negotiated schema version.
	UpdateSchemaVersion(id string, version int) error
	// CloseSession stamps the disconnect time.
	CloseSession(id string, at time.Time) error
	// RecentSessions returns up to limit sessions, most recent first.
	RecentSessions(limit int) ([]*Session, error)
	// Close releases the underlying database.
	Close() error
}
