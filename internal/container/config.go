// Package container provides dependency injection and lifecycle management
// for the exemption tracker following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Storage configuration
	Storage StorageConfig

	// Server configuration
	Server ServerConfig

	// Events configuration
	Events EventsConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration

	// BusyTimeout is how long a writer waits on a locked database
	BusyTimeout time.Duration
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// DocumentDir is the base directory for uploaded documents
	DocumentDir string

	// ExportDir keeps a copy of every exported workbook when ArchiveExports is set
	ExportDir      string
	ArchiveExports bool

	// MaxUploadSize caps a single document upload, in bytes
	MaxUploadSize int64

	// InspectPDFPages enables page counting of uploaded PDFs
	InspectPDFPages bool

	// MaxPDFPages rejects PDFs longer than this when inspecting. Zero disables the check.
	MaxPDFPages int

	// ExportRetention prunes archived workbooks older than this on PruneSchedule. Zero disables pruning.
	ExportRetention time.Duration
	PruneSchedule   string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Mode         string
	CORSOrigins  []string
}

// EventsConfig holds domain event settings.
type EventsConfig struct {
	// AuditLog subscribes a handler that logs every domain event
	AuditLog bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/exemptions.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			BusyTimeout:     5 * time.Second,
		},
		Storage: StorageConfig{
			DocumentDir:     "data/documents",
			ExportDir:       "data/exports",
			MaxUploadSize:   20 << 20,
			InspectPDFPages: true,
			MaxPDFPages:     500,
			PruneSchedule:   "@daily",
		},
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			Mode:         "release",
			CORSOrigins:  []string{"*"},
		},
		Events: EventsConfig{
			AuditLog: true,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Storage.DocumentDir == "" {
		return fmt.Errorf("storage.document_dir is required")
	}
	if c.Storage.ArchiveExports && c.Storage.ExportDir == "" {
		return fmt.Errorf("storage.export_dir is required when archiving exports")
	}
	if c.Storage.ExportRetention > 0 && c.Storage.PruneSchedule == "" {
		return fmt.Errorf("storage.prune_schedule is required when export retention is set")
	}

	return nil
}
