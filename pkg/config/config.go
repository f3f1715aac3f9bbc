package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig represents the gateway configuration
type ServerConfig struct {
	Address  string         `yaml:"address"`
	TLS      TLSConfig      `yaml:"tls"`
	Logging  LoggingConfig  `yaml:"logging"`
	Database DatabaseConfig `yaml:"database"`
	Limits   LimitsConfig   `yaml:"limits"`
	Driver   DriverConfig   `yaml:"driver"`
}

// TLSConfig represents TLS listener settings
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig represents session persistence settings
type DatabaseConfig struct {
	Type string `yaml:"type"` // sqlite | mysql
	Path string `yaml:"path"` // file path for sqlite, DSN for mysql
}

// LimitsConfig bounds per-connection resource usage
type LimitsConfig struct {
	CommandsPerSecond float64 `yaml:"commands_per_second"`
	CommandBurst      int     `yaml:"command_burst"`
	SendQueueSize     int     `yaml:"send_queue_size"`
}

// DriverConfig selects and configures the device driver backend
type DriverConfig struct {
	Mode string    `yaml:"mode"` // sim is the only in-repo backend
	Sim  SimConfig `yaml:"sim"`
}

// SimConfig configures the simulated driver
type SimConfig struct {
	Stations int `yaml:"stations"`
	Devices  int `yaml:"devices"` // per station
}

// DefaultConfig returns default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Address: ":3000",
		TLS: TLSConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Database: DatabaseConfig{
			Type: "sqlite",
			Path: "./sessions.db",
		},
		Limits: LimitsConfig{
			CommandsPerSecond: 50,
			CommandBurst:      100,
			SendQueueSize:     256,
		},
		Driver: DriverConfig{
			Mode: "sim",
			Sim: SimConfig{
				Stations: 1,
				Devices:  2,
			},
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*ServerConfig, error) {
	config := DefaultConfig()

	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

func loadFromFile(path string, config *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, config)
}

func applyEnvOverrides(config *ServerConfig) {
	if addr := os.Getenv("SECHUB_ADDR"); addr != "" {
		config.Address = addr
	}

	if logLevel := os.Getenv("SECHUB_LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("SECHUB_LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}

	if dbType := os.Getenv("SECHUB_DB_TYPE"); dbType != "" {
		config.Database.Type = dbType
	}

	if dbPath := os.Getenv("SECHUB_DB_PATH"); dbPath != "" {
		config.Database.Path = dbPath
	}

	if tlsEnabled := os.Getenv("SECHUB_TLS_ENABLED"); tlsEnabled != "" {
		config.TLS.Enabled = tlsEnabled == "true"
	}

	if certFile := os.Getenv("SECHUB_TLS_CERT_FILE"); certFile != "" {
		config.TLS.CertFile = certFile
	}

	if keyFile := os.Getenv("SECHUB_TLS_KEY_FILE"); keyFile != "" {
		config.TLS.KeyFile = keyFile
	}

	if rate := os.Getenv("SECHUB_COMMANDS_PER_SECOND"); rate != "" {
		if val, err := strconv.ParseFloat(rate, 64); err == nil {
			config.Limits.CommandsPerSecond = val
		}
	}
}

// Validate validates the configuration
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	if c.TLS.Enabled {
		if c.TLS.CertFile == "" || c.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert/key files not provided")
		}

		if _, err := os.Stat(c.TLS.CertFile); err != nil {
			return fmt.Errorf("certificate file not found: %w", err)
		}

		if _, err := os.Stat(c.TLS.KeyFile); err != nil {
			return fmt.Errorf("key file not found: %w", err)
		}
	}

	switch c.Database.Type {
	case "sqlite", "mysql", "":
	default:
		return fmt.Errorf("unsupported database type: %s", c.Database.Type)
	}

	if c.Limits.CommandsPerSecond <= 0 {
		return fmt.Errorf("commands_per_second must be positive")
	}

	if c.Limits.SendQueueSize < 1 {
		return fmt.Errorf("send_queue_size must be at least 1")
	}

	if c.Driver.Mode != "sim" {
		return fmt.Errorf("unsupported driver mode: %s", c.Driver.Mode)
	}

	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}

// String returns a string representation of the configuration (for logging)
func (c *ServerConfig) String() string {
	return fmt.Sprintf("Config{Address: %s, DB: %s, TLS: %v, LogLevel: %s, Driver: %s}",
		c.Address, c.Database.Type, c.TLS.Enabled, c.Logging.Level, c.Driver.Mode)
}
