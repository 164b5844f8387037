/*
Package config loads server configuration.

Defaults first, then an optional YAML file, then environment variable
overrides. Flags in cmd/server layer on top of the result, so the
precedence a deployment sees is defaults < file < env < flags.
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable holding the config file
// path when -config is not passed.
const EnvConfigPath = "COMPANY_REGISTRY_CONFIG"

// Config defines the full server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Export  ExportConfig  `yaml:"export"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig selects and parameterizes the storage backend.
type StorageConfig struct {
	// Backend is one of: memory, sqlite, csv, gsheets.
	Backend string `yaml:"backend"`
	// MaxRowsPerShard is the storage shard ceiling (header slot included).
	MaxRowsPerShard int          `yaml:"max_rows_per_shard"`
	SQLite          SQLiteConfig `yaml:"sqlite"`
	CSV             CSVConfig    `yaml:"csv"`
	Sheets          SheetsConfig `yaml:"sheets"`
}

type SQLiteConfig struct {
	Path string `yaml:"path"`
}

type CSVConfig struct {
	Dir string `yaml:"dir"`
}

type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// ExportConfig parameterizes the export engine.
type ExportConfig struct {
	// MaxRowsPerSheet is the per-output-sheet data row ceiling.
	MaxRowsPerSheet int `yaml:"max_rows_per_sheet"`
	// UTCOffsetMinutes fixes the zone "today" exports and creation
	// timestamps are computed in. 330 = UTC+5:30, the original
	// deployment's zone.
	UTCOffsetMinutes int `yaml:"utc_offset_minutes"`
}

// Load reads configuration from an optional YAML file and environment
// variables. An empty path falls back to $COMPANY_REGISTRY_CONFIG.
func Load(path string) (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend:         "memory",
			MaxRowsPerShard: 50000,
			SQLite:          SQLiteConfig{Path: "registry.db"},
			CSV:             CSVConfig{Dir: "./data"},
		},
		Export: ExportConfig{
			MaxRowsPerSheet:  1048575,
			UTCOffsetMinutes: 330,
		},
	}

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if backend := os.Getenv("COMPANY_REGISTRY_BACKEND"); backend != "" {
		cfg.Storage.Backend = backend
	}
	if portStr := os.Getenv("COMPANY_REGISTRY_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid COMPANY_REGISTRY_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if id := os.Getenv("COMPANY_REGISTRY_SPREADSHEET_ID"); id != "" {
		cfg.Storage.Sheets.SpreadsheetID = id
	}
	if creds := os.Getenv("COMPANY_REGISTRY_CREDENTIALS"); creds != "" {
		cfg.Storage.Sheets.CredentialsFile = creds
	}

	return cfg, nil
}

// Location converts the configured UTC offset into a *time.Location.
func (c Config) Location() *time.Location {
	return time.FixedZone("export", c.Export.UTCOffsetMinutes*60)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
