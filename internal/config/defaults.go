package config

import (
	"time"

	"github.com/leapstack-labs/doctable/pkg/core"
)

// Default configuration values.
const (
	DefaultStoreType         = "sqlite"
	DefaultStorePath         = "doctable.db"
	DefaultServerPort        = 8080
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultConnectAttempts   = 5
	DefaultConnectRetryDelay = time.Second
	DefaultLimit             = core.DefaultLimit
	DefaultMaxLimit          = core.MaxLimit
	DefaultLogLevel          = "info"
)

// DefaultCORSOrigins allows any origin.
var DefaultCORSOrigins = []string{"*"}

// ApplyStoreDefaults applies default values to a StoreConfig based on the store type.
func ApplyStoreDefaults(s *StoreConfig) {
	if s == nil {
		return
	}
	if s.Type == "" {
		s.Type = DefaultStoreType
	}

	switch s.Type {
	case "sqlite":
		if s.Path == "" {
			s.Path = DefaultStorePath
		}
	case "postgres":
		if s.Port == 0 {
			s.Port = 5432
		}
	}
}

// ApplyDatasourceDefaults fills zero-valued datasource settings.
func ApplyDatasourceDefaults(d *DatasourceConfig) {
	if d == nil {
		return
	}
	if d.ConnectAttempts == 0 {
		d.ConnectAttempts = DefaultConnectAttempts
	}
	if d.ConnectRetryDelay == 0 {
		d.ConnectRetryDelay = DefaultConnectRetryDelay
	}
	if d.DefaultLimit == 0 {
		d.DefaultLimit = DefaultLimit
	}
	if d.MaxLimit == 0 {
		d.MaxLimit = DefaultMaxLimit
	}
}

// ApplyServerDefaults fills zero-valued server settings.
func ApplyServerDefaults(s *ServerConfig) {
	if s == nil {
		return
	}
	if s.Port == 0 {
		s.Port = DefaultServerPort
	}
	if s.ReadHeaderTimeout == 0 {
		s.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if len(s.CORSOrigins) == 0 {
		s.CORSOrigins = append([]string(nil), DefaultCORSOrigins...)
	}
}
