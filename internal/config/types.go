// Package config loads runtime configuration for provgate. Settings are
// layered (highest to lowest precedence): CLI flags > environment variables
// (PROVGATE_ prefix) > provgate.yaml > built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/provgate/pkg/gate"
)

// Store backends.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// StoreConfig selects and parameterizes the governance database.
type StoreConfig struct {
	// Backend is "sqlite" or "postgres".
	Backend string `koanf:"backend"`

	// Path is the SQLite database file (":memory:" is accepted).
	Path string `koanf:"path"`

	// DSN is the Postgres connection string. Supports ${VAR} expansion so
	// credentials can stay out of the config file.
	DSN string `koanf:"dsn"`
}

// ServerConfig holds the HTTP API listen settings.
type ServerConfig struct {
	Addr string `koanf:"addr"`
}

// Config is the full runtime configuration.
type Config struct {
	Store  StoreConfig `koanf:"store"`
	Server ServerConfig `koanf:"server"`

	// Gate holds the compliance thresholds passed through to the gate.
	Gate gate.Config `koanf:"gate"`

	// LabelColumn names the dataset column used for class balance metrics.
	LabelColumn string `koanf:"label_column"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Output is the CLI output format: auto, text, or json.
	Output string `koanf:"output"`

	Verbose bool `koanf:"verbose"`
}

// Validate checks the configuration for values that would fail later in a
// less obvious place.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (expected %s or %s)",
			c.Store.Backend, BackendSQLite, BackendPostgres)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}

	return c.Gate.Validate()
}
