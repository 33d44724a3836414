package container

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/exemption-tracker/internal/application/dispatcher"
	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/application/service"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/export"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/pdf"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/repository"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/scheduler"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/storage"
	httpapi "github.com/garyjia/exemption-tracker/internal/interfaces/http"
	"github.com/garyjia/exemption-tracker/migrations"
	"github.com/garyjia/exemption-tracker/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	SqlDB          *sql.DB
	TransactionMgr *sqlite.DB
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	FileStorage   port.FileStorage
	FolderManager port.FolderManager

	// ExportArchive is nil unless exports are archived
	ExportArchive port.FileStorage
}

// ProvideDatabase opens the database and applies the embedded migrations.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).Run(migrations.FS, "."); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		SqlDB:          db.DB,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(sqlDB *sql.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Project:  repository.NewProjectRepository(sqlDB, logger),
		Contract: repository.NewContractRepository(sqlDB, logger),
		Request:  repository.NewRequestRepository(sqlDB, logger),
		LineItem: repository.NewLineItemRepository(sqlDB, logger),
		History:  repository.NewStageHistoryRepository(sqlDB, logger),
		Document: repository.NewDocumentRepository(sqlDB, logger),
	}, nil
}

// ProvideStorage creates document storage, the request folder manager and the export archive.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	bundle := &StorageBundle{
		FileStorage:   storage.NewLocalFileStorage(cfg.DocumentDir, logger),
		FolderManager: storage.NewLocalFolderManager(cfg.DocumentDir, logger),
	}
	if cfg.ArchiveExports {
		bundle.ExportArchive = storage.NewLocalFileStorage(cfg.ExportDir, logger)
	}
	return bundle, nil
}

// ProvideDocumentInspector creates the PDF inspector, or nil when inspection is disabled.
func ProvideDocumentInspector(cfg *StorageConfig, logger *zap.Logger) port.DocumentInspector {
	if cfg == nil || !cfg.InspectPDFPages {
		return nil
	}
	return pdf.NewInspector(cfg.MaxPDFPages, logger)
}

// ProvideExporters creates one exporter per supported download format.
func ProvideExporters(logger *zap.Logger) map[service.ExportFormat]port.RequestExporter {
	return map[service.ExportFormat]port.RequestExporter{
		service.ExportXLSX: export.NewWorkbookExporter(logger),
		service.ExportPDF:  export.NewReportExporter(logger),
	}
}

// pruneJobName identifies the export retention job in the scheduler
const pruneJobName = "prune_exports"

// ProvideScheduler creates the maintenance scheduler, or nil when no job is configured.
// Archived exports older than the retention period are pruned on the configured schedule.
func ProvideScheduler(cfg *StorageConfig, logger *zap.Logger) (*scheduler.Scheduler, error) {
	if cfg == nil || !cfg.ArchiveExports || cfg.ExportRetention <= 0 {
		return nil, nil
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	pruner := storage.NewExportPruner(cfg.ExportDir, cfg.ExportRetention, logger)
	sched := scheduler.New(10*time.Minute, logger)
	if err := sched.Add(pruneJobName, cfg.PruneSchedule, func(ctx context.Context) error {
		_, err := pruner.Prune(ctx)
		return err
	}); err != nil {
		return nil, err
	}
	return sched, nil
}

// ProvideDispatcher creates the event dispatcher and subscribes the audit log when enabled.
func ProvideDispatcher(cfg *EventsConfig, logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	adapter := &zapLoggerAdapter{logger: logger}
	disp := dispatcher.NewDispatcher(dispatcher.WithLogger(adapter))

	if cfg != nil && cfg.AuditLog {
		disp.SubscribeAll("audit_log", dispatcher.AuditLogHandler(adapter))
	}
	return disp, nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos     *RepositoryBundle
	TxManager port.TransactionManager
	Storage   *StorageBundle
	Inspector port.DocumentInspector
	Exporters map[service.ExportFormat]port.RequestExporter
	Publisher service.EventPublisher
	Logger    *zap.Logger
}

// ProvideServices creates all application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Storage == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if len(deps.Exporters) == 0 {
		return nil, fmt.Errorf("exporters are required")
	}
	if deps.Publisher == nil {
		return nil, fmt.Errorf("event publisher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serviceLogger := &zapLoggerAdapter{logger: deps.Logger}

	requests := service.NewRequestService(
		deps.Repos.Contract,
		deps.Repos.Request,
		deps.Repos.LineItem,
		deps.Repos.History,
		deps.Storage.FolderManager,
		deps.TxManager,
		deps.Publisher,
		serviceLogger,
	)

	return &ServiceBundle{
		Project:  service.NewProjectService(deps.Repos.Project, serviceLogger),
		Contract: service.NewContractService(deps.Repos.Project, deps.Repos.Contract, serviceLogger),
		Request:  requests,
		Document: service.NewDocumentService(
			deps.Repos.Request,
			deps.Repos.Document,
			deps.Storage.FileStorage,
			deps.Storage.FolderManager,
			deps.Inspector,
			deps.Publisher,
			serviceLogger,
		),
		Export: service.NewExportService(requests, deps.Exporters, deps.Storage.ExportArchive, serviceLogger),
	}, nil
}

// ProvideHTTPServer creates the HTTP API over the application services.
func ProvideHTTPServer(cfg *Config, services *ServiceBundle, health func() error, logger *zap.Logger) (*httpapi.Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if services == nil {
		return nil, fmt.Errorf("services are required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	serverCfg := httpapi.ServerConfig{
		Host:          cfg.Server.Host,
		Port:          cfg.Server.Port,
		ReadTimeout:   cfg.Server.ReadTimeout,
		WriteTimeout:  cfg.Server.WriteTimeout,
		Mode:          cfg.Server.Mode,
		MaxUploadSize: cfg.Storage.MaxUploadSize,
		CORSOrigins:   cfg.Server.CORSOrigins,
	}

	return httpapi.NewServer(serverCfg, httpapi.Services{
		Projects:    services.Project,
		Contracts:   services.Contract,
		Requests:    services.Request,
		Documents:   services.Document,
		Exports:     services.Export,
		HealthCheck: health,
	}, &zapLoggerAdapter{logger: logger}), nil
}
