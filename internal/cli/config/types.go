// Package config provides configuration management for the doctable CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields and functionality. The shared types are
// re-exported here via type aliases for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/doctable/internal/config"
)

// StoreConfig is an alias for the shared store configuration.
type StoreConfig = sharedcfg.StoreConfig

// ServerConfig is an alias for the shared server configuration.
type ServerConfig = sharedcfg.ServerConfig

// DatasourceConfig is an alias for the shared datasource configuration.
type DatasourceConfig = sharedcfg.DatasourceConfig

// LoggingConfig is an alias for the shared logging configuration.
type LoggingConfig = sharedcfg.LoggingConfig

// Config holds all CLI configuration options.
type Config struct {
	// URL of a running doctable server. Empty means commands use the
	// configured store in-process.
	URL string `koanf:"url"`

	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Server       ServerConfig         `koanf:"server"`
	Store        *StoreConfig         `koanf:"store"`
	Datasource   DatasourceConfig     `koanf:"datasource"`
	Logging      LoggingConfig        `koanf:"logging"`
	Environments map[string]EnvConfig `koanf:"environments"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	URL   string       `koanf:"url"`
	Store *StoreConfig `koanf:"store"`
}

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Default configuration values.
const (
	DefaultOutput = OutputTable
	EnvPrefix     = "DOCTABLE_"
)
