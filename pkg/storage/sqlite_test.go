package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sechub/pkg/config"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	store, err := NewStore(config.DatabaseConfig{
		Type: "sqlite",
		Path: filepath.Join(t.TempDir(), "sessions.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSessionLifecycle(t *testing.T) {
	store := newTestStore(t)

	connected := time.Now().Truncate(time.Second)
	require.NoError(t, store.SaveSession(&Session{
		ID:          "s1",
		RemoteAddr:  "192.168.1.50:52000",
		ConnectedAt: connected,
	}))

	require.NoError(t, store.UpdateSchemaVersion("s1", 5))
	require.NoError(t, store.CloseSession("s1", connected.Add(time.Minute)))

	sessions, err := store.RecentSessions(10)
	require.NoError(t, err)
	require.Len(t, sessions, 1)

	s := sessions[0]
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, "192.168.1.50:52000", s.RemoteAddr)
	assert.Equal(t, 5, s.SchemaVersion)
	require.NotNil(t, s.DisconnectedAt)
}

func TestRecentSessionsOrderAndLimit(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i, id := range []string{"old", "mid", "new"} {
		require.NoError(t, store.SaveSession(&Session{
			ID:          id,
			RemoteAddr:  "10.0.0.1:1",
			ConnectedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	sessions, err := store.RecentSessions(2)
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.Equal(t, "mid", sessions[1].ID)
}

func TestUpdateUnknownSessionIsNoop(t *testing.T) {
	store := newTestStore(t)
	assert.NoError(t, store.UpdateSchemaVersion("missing", 3))
	assert.NoError(t, store.CloseSession("missing", time.Now()))
}

func TestStoreFactoryRejectsUnknownType(t *testing.T) {
	_, err := NewStore(config.DatabaseConfig{Type: "postgres"})
	assert.Error(t, err)
}
