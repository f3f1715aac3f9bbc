package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":3000", cfg.Address)
	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, "sim", cfg.Driver.Mode)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	content := `
address: ":4000"
logging:
  level: debug
  format: json
database:
  type: sqlite
  path: /tmp/test-sessions.db
limits:
  commands_per_second: 10
  command_burst: 20
  send_queue_size: 32
driver:
  mode: sim
  sim:
    stations: 2
    devices: 3
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Address)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, float64(10), cfg.Limits.CommandsPerSecond)
	assert.Equal(t, 2, cfg.Driver.Sim.Stations)
	assert.Equal(t, 3, cfg.Driver.Sim.Devices)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/gateway.yaml")
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SECHUB_ADDR", ":5000")
	t.Setenv("SECHUB_LOG_LEVEL", "warn")
	t.Setenv("SECHUB_DB_TYPE", "sqlite")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Address)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Address = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Database.Type = "postgres"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Limits.CommandsPerSecond = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Driver.Mode = "hardware"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())
}
