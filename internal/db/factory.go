package db

import (
	"fmt"
	"strings"
)

const (
	DefaultSQLitePath = ".bootbench/history.db"
	DefaultFilePath   = ".bootbench/history.json"
)

// StoreConfig holds configuration for the storage backend
type StoreConfig struct {
	Type             string // "file", "sqlite" or "postgres"
	ConnectionString string // File path for file and SQLite stores, DSN for Postgres
}

// NewStore creates a new Store instance based on the provided configuration
func NewStore(config StoreConfig) (Store, error) {
	switch strings.ToLower(config.Type) {
	case "postgres", "postgresql":
		if config.ConnectionString == "" {
			return nil, fmt.Errorf("postgres connection string is required")
		}
		return NewPostgresStore(config.ConnectionString)
	case "file", "json":
		if config.ConnectionString == "" {
			config.ConnectionString = DefaultFilePath
		}
		return NewFileStore(config.ConnectionString)
	case "sqlite", "sqlite3", "":
		if config.ConnectionString == "" {
			config.ConnectionString = DefaultSQLitePath
		}
		return newSQLiteAt(config.ConnectionString)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", config.Type)
	}
}
