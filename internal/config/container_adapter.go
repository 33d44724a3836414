package config

import (
	"github.com/garyjia/exemption-tracker/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
			BusyTimeout:     c.Database.BusyTimeout,
		},
		Storage: container.StorageConfig{
			DocumentDir:     c.Storage.DocumentDir,
			ExportDir:       c.Storage.ExportDir,
			ArchiveExports:  c.Storage.ArchiveExports,
			MaxUploadSize:   c.Storage.MaxUploadSize,
			InspectPDFPages: c.Storage.InspectPDFPages,
			MaxPDFPages:     c.Storage.MaxPDFPages,
			ExportRetention: c.Storage.ExportRetention,
			PruneSchedule:   c.Storage.PruneSchedule,
		},
		Server: container.ServerConfig{
			Host:         c.Server.Host,
			Port:         c.Server.Port,
			ReadTimeout:  c.Server.ReadTimeout,
			WriteTimeout: c.Server.WriteTimeout,
			Mode:         c.Server.Mode,
			CORSOrigins:  c.Server.CORSOrigins,
		},
		Events: container.EventsConfig{
			AuditLog: c.Events.AuditLog,
		},
	}
}
