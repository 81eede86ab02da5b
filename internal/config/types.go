// Package config provides shared configuration types for doctable.
// This package is decoupled from CLI concerns and can be used by the HTTP
// server and other components that need the store or datasource settings.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/leapstack-labs/doctable/pkg/core"
	"github.com/leapstack-labs/doctable/pkg/store"
)

// StoreConfig holds document store configuration.
type StoreConfig struct {
	Type string `koanf:"type"` // sqlite, postgres, memory

	// File-based stores (SQLite)
	Path string `koanf:"path"`

	// Network stores
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds store-specific configuration (e.g., SQLite pragmas, pool sizes)
	Params map[string]any `koanf:"params"`
}

// Validate checks if the store configuration is valid.
// It uses the store registry to determine which store types are available.
func (s *StoreConfig) Validate() error {
	if s.Type == "" {
		return fmt.Errorf("store type is required")
	}

	if !store.IsRegistered(strings.ToLower(s.Type)) {
		return &store.UnknownStoreError{
			Type:      s.Type,
			Available: store.ListStores(),
		}
	}
	return nil
}

// ToCore converts the configuration into the form stores connect with.
func (s *StoreConfig) ToCore() core.StoreConfig {
	return core.StoreConfig{
		Type:     strings.ToLower(s.Type),
		Path:     s.Path,
		Host:     s.Host,
		Port:     s.Port,
		Database: s.Database,
		Username: s.User,
		Password: s.Password,
		Options:  s.Options,
		Params:   s.Params,
	}
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port              int           `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// DatasourceConfig holds query execution settings.
type DatasourceConfig struct {
	ConnectAttempts   int           `koanf:"connect_attempts"`
	ConnectRetryDelay time.Duration `koanf:"connect_retry_delay"`
	DefaultLimit      int64         `koanf:"default_limit"`
	MaxLimit          int64         `koanf:"max_limit"`
}

// Validate rejects non-positive limits and a default above the maximum.
func (d *DatasourceConfig) Validate() error {
	if d.DefaultLimit <= 0 {
		return fmt.Errorf("datasource.default_limit must be positive, got %d", d.DefaultLimit)
	}
	if d.MaxLimit <= 0 {
		return fmt.Errorf("datasource.max_limit must be positive, got %d", d.MaxLimit)
	}
	if d.DefaultLimit > d.MaxLimit {
		return fmt.Errorf("datasource.default_limit (%d) exceeds datasource.max_limit (%d)", d.DefaultLimit, d.MaxLimit)
	}
	if d.ConnectAttempts <= 0 {
		return fmt.Errorf("datasource.connect_attempts must be positive, got %d", d.ConnectAttempts)
	}
	return nil
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level string `koanf:"level"` // debug, info, warn, error
	File  string `koanf:"file"`  // optional rotated log file
}
