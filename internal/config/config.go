package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Events   EventsConfig   `mapstructure:"events"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Mode         string        `mapstructure:"mode"`
	CORSOrigins  []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	BusyTimeout     time.Duration `mapstructure:"busy_timeout"`
}

// StorageConfig holds document and export storage configuration
type StorageConfig struct {
	DocumentDir     string `mapstructure:"document_dir"`
	ExportDir       string `mapstructure:"export_dir"`
	ArchiveExports  bool   `mapstructure:"archive_exports"`
	MaxUploadSize   int64  `mapstructure:"max_upload_size"`
	MaxPDFPages     int    `mapstructure:"max_pdf_pages"`
	InspectPDFPages bool   `mapstructure:"inspect_pdf_pages"`

	// ExportRetention removes archived workbooks older than this on PruneSchedule. Zero keeps them.
	ExportRetention time.Duration `mapstructure:"export_retention"`
	PruneSchedule   string        `mapstructure:"prune_schedule"`
}

// EventsConfig holds domain event configuration
type EventsConfig struct {
	AuditLog bool `mapstructure:"audit_log"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// envPrefix namespaces environment overrides, e.g. EXEMPTION_SERVER_PORT
const envPrefix = "EXEMPTION"

// Load loads configuration from file and environment variables.
// A missing config file is tolerated when configPath is empty; defaults and
// environment variables then provide every value.
func Load(configPath string, envFiles ...string) (*Config, error) {
	if err := loadDotEnv(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadDotEnv reads KEY=VALUE files into the process environment.
// Variables already set are kept, and absent files are skipped.
func loadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := gotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.path", "data/exemptions.db")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.busy_timeout", 5*time.Second)

	// Storage defaults
	v.SetDefault("storage.document_dir", "data/documents")
	v.SetDefault("storage.export_dir", "data/exports")
	v.SetDefault("storage.archive_exports", false)
	v.SetDefault("storage.max_upload_size", 20<<20)
	v.SetDefault("storage.max_pdf_pages", 500)
	v.SetDefault("storage.inspect_pdf_pages", true)
	v.SetDefault("storage.export_retention", 0)
	v.SetDefault("storage.prune_schedule", "@daily")

	// Events defaults
	v.SetDefault("events.audit_log", true)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds the short, unprefixed names used by deployments
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("database.path", envPrefix+"_DATABASE_PATH", "DATABASE_PATH")
	_ = v.BindEnv("storage.document_dir", envPrefix+"_STORAGE_DOCUMENT_DIR", "DOCUMENT_DIR")
	_ = v.BindEnv("logger.level", envPrefix+"_LOGGER_LEVEL", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Storage.DocumentDir == "" {
		return fmt.Errorf("storage.document_dir is required")
	}
	if c.Storage.ArchiveExports && c.Storage.ExportDir == "" {
		return fmt.Errorf("storage.export_dir is required when storage.archive_exports is set")
	}
	if c.Storage.MaxUploadSize <= 0 {
		return fmt.Errorf("storage.max_upload_size must be positive")
	}
	if c.Storage.ExportRetention < 0 {
		return fmt.Errorf("storage.export_retention must not be negative")
	}
	if c.Storage.ArchiveExports && c.Storage.ExportRetention > 0 {
		if _, err := cron.ParseStandard(c.Storage.PruneSchedule); err != nil {
			return fmt.Errorf("storage.prune_schedule is invalid: %w", err)
		}
	}

	switch c.Logger.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logger.format must be json or console, got %q", c.Logger.Format)
	}

	return nil
}
