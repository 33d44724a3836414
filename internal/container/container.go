package container

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/exemption-tracker/internal/application/dispatcher"
	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/application/service"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/scheduler"
	httpapi "github.com/garyjia/exemption-tracker/internal/interfaces/http"
	"github.com/garyjia/exemption-tracker/pkg/database"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *database.DB
	sqlDB        *sql.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - Storage and documents
	storage   *StorageBundle
	inspector port.DocumentInspector
	exporters map[service.ExportFormat]port.RequestExporter

	// Background maintenance, nil when no job is configured
	scheduler *scheduler.Scheduler

	// Application
	dispatcher dispatcher.Dispatcher
	services   *ServiceBundle

	// Interfaces
	httpServer *httpapi.Server

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Project  port.ProjectRepository
	Contract port.ContractRepository
	Request  port.RequestRepository
	LineItem port.LineItemRepository
	History  port.StageHistoryRepository
	Document port.DocumentRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Project  service.ProjectService
	Contract service.ContractService
	Request  service.RequestService
	Document service.DocumentService
	Export   service.ExportService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Database, migrations and repositories
// 2. Storage, PDF inspector and exporter
// 3. Event dispatcher
// 4. Application services
// 5. HTTP server
// 6. Maintenance scheduler
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized", zap.String("path", c.config.Database.Path))

	// Step 2: Initialize storage
	if err := c.initStorage(); err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized",
		zap.String("document_dir", c.config.Storage.DocumentDir),
		zap.Bool("inspect_pdf_pages", c.inspector != nil),
		zap.Bool("archive_exports", c.storage.ExportArchive != nil),
	)

	// Step 3: Initialize dispatcher
	if err := c.initDispatcher(); err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher initialized", zap.Bool("audit_log", c.config.Events.AuditLog))

	// Step 4: Initialize services
	if err := c.initServices(); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Services initialized")

	// Step 5: Initialize HTTP server
	if err := c.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}
	c.logger.Info("HTTP server initialized", zap.String("address", c.httpServer.Address()))

	// Step 6: Start maintenance scheduler
	if err := c.initScheduler(); err != nil {
		return fmt.Errorf("failed to initialize scheduler: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	// Step 1: Stop scheduler, waiting for a running job (reverse of step 6)
	if c.scheduler != nil {
		c.scheduler.Stop()
	}

	// Step 2: Stop HTTP server (reverse of step 5)
	if c.httpServer != nil {
		if err := c.httpServer.Stop(); err != nil {
			c.logger.Error("Failed to stop HTTP server", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop http server: %w", err))
		}
	}

	// Step 3: Close dispatcher, waiting for in-flight handlers (reverse of step 3)
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 4: Close database (reverse of step 1)
	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}
	notInitialized := ComponentHealth{Healthy: false, Message: "not initialized"}

	if c.sqlDB != nil {
		if err := c.sqlDB.Ping(); err != nil {
			set("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	} else {
		set("database", notInitialized)
	}

	if c.dispatcher != nil {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", notInitialized)
	}

	if c.repositories != nil {
		set("repositories", ComponentHealth{Healthy: true})
	} else {
		set("repositories", notInitialized)
	}

	if c.storage != nil {
		set("storage", ComponentHealth{Healthy: true, Message: c.config.Storage.DocumentDir})
	} else {
		set("storage", notInitialized)
	}

	if c.scheduler != nil {
		set("scheduler", ComponentHealth{Healthy: true, Message: fmt.Sprintf("job count: %d", c.scheduler.Jobs())})
	}

	return status
}

// initDatabase opens the database, applies migrations and builds the repositories.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.DB
	c.sqlDB = dbBundle.SqlDB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.sqlDB, c.logger)
	if err != nil {
		return err
	}
	c.repositories = repos

	return nil
}

// initStorage creates document storage, the PDF inspector and the exporter.
func (c *Container) initStorage() error {
	bundle, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.storage = bundle
	c.inspector = ProvideDocumentInspector(&c.config.Storage, c.logger)
	c.exporters = ProvideExporters(c.logger)

	return nil
}

// initDispatcher creates the event dispatcher.
func (c *Container) initDispatcher() error {
	disp, err := ProvideDispatcher(&c.config.Events, c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	return nil
}

// initServices creates all application services.
func (c *Container) initServices() error {
	services, err := ProvideServices(&ServiceDeps{
		Repos:     c.repositories,
		TxManager: c.db,
		Storage:   c.storage,
		Inspector: c.inspector,
		Exporters: c.exporters,
		Publisher: c.dispatcher,
		Logger:    c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	return nil
}

// initHTTPServer creates the HTTP API. It is started separately via HTTPServer().Start.
func (c *Container) initHTTPServer() error {
	server, err := ProvideHTTPServer(c.config, c.services, c.pingDatabase, c.logger)
	if err != nil {
		return err
	}
	c.httpServer = server

	return nil
}

// initScheduler starts the maintenance scheduler when a job is configured.
func (c *Container) initScheduler() error {
	sched, err := ProvideScheduler(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	if sched == nil {
		return nil
	}

	sched.Start()
	c.scheduler = sched
	c.logger.Info("Scheduler initialized",
		zap.Duration("export_retention", c.config.Storage.ExportRetention),
		zap.String("prune_schedule", c.config.Storage.PruneSchedule))

	return nil
}

func (c *Container) pingDatabase() error {
	if c.sqlDB == nil {
		return fmt.Errorf("database not initialized")
	}
	return c.sqlDB.Ping()
}

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns the repository bundle.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Storage returns the storage bundle.
func (c *Container) Storage() *StorageBundle {
	return c.storage
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Scheduler returns the maintenance scheduler, nil when no job is configured.
func (c *Container) Scheduler() *scheduler.Scheduler {
	return c.scheduler
}

// Services returns the service bundle.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// HTTPServer returns the HTTP API server.
func (c *Container) HTTPServer() *httpapi.Server {
	return c.httpServer
}

// Logger returns the container logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container configuration.
func (c *Container) Config() *Config {
	return c.config
}

// zapLoggerAdapter adapts zap.Logger to the key-value Logger interfaces used by
// the services, the dispatcher and the HTTP layer.
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Info(msg, fields...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	fields := convertToZapFields(keysAndValues...)
	a.logger.Error(msg, fields...)
}

// convertToZapFields converts key-value pairs to zap fields.
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}
