// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/garyjia/exemption-tracker/internal/application/service"
)

const requestIDHeader = "X-Request-ID"

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	Mode          string
	MaxUploadSize int64
	CORSOrigins   []string
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:          "0.0.0.0",
		Port:          8080,
		ReadTimeout:   30 * time.Second,
		WriteTimeout:  30 * time.Second,
		Mode:          gin.ReleaseMode,
		MaxUploadSize: 20 << 20,
		CORSOrigins:   []string{"*"},
	}
}

// Services bundles the application services exposed over HTTP
type Services struct {
	Projects  service.ProjectService
	Contracts service.ContractService
	Requests  service.RequestService
	Documents service.DocumentService
	Exports   service.ExportService

	// HealthCheck reports whether the backing stores are reachable. Optional.
	HealthCheck func() error
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	services   Services
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, logger Logger) *Server {
	if config.Mode == "" {
		config.Mode = gin.ReleaseMode
	}
	gin.SetMode(config.Mode)

	router := gin.New()
	if config.MaxUploadSize > 0 {
		router.MaxMultipartMemory = config.MaxUploadSize
	}

	server := &Server{
		config:   config,
		router:   router,
		services: services,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(cors.New(corsConfig(s.config.CORSOrigins)))
}

// corsConfig allows every origin when origins is empty or contains "*"
func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization", requestIDHeader)
	cfg.ExposeHeaders = []string{"Content-Disposition", requestIDHeader}

	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}

// requestIDMiddleware echoes the caller's request id or assigns a new one
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString("request_id"),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.services, s.config.MaxUploadSize, s.logger)

	s.router.GET("/health", handlers.HealthCheck)

	api := s.router.Group("/api")
	{
		// Line-item calculator
		tax := api.Group("/tax")
		tax.GET("/custom-duties", handlers.ListCustomDuties)
		tax.GET("/constraints", handlers.GetConstraints)
		tax.POST("/recalculate", handlers.Recalculate)
		tax.POST("/validate", handlers.ValidateItem)
		tax.POST("/custom-duty-change", handlers.ChangeCustomDuty)
		tax.POST("/it-ic-change", handlers.ChangeItIc)
		tax.POST("/sort", handlers.SortItems)

		// Stage resolver
		api.GET("/stages", handlers.ListStages)

		// Projects
		api.GET("/projects", handlers.ListProjects)
		api.POST("/projects", handlers.CreateProject)
		api.GET("/projects/:id", handlers.GetProject)
		api.PUT("/projects/:id", handlers.UpdateProject)
		api.DELETE("/projects/:id", handlers.DeleteProject)

		// Contracts
		api.GET("/projects/:id/contracts", handlers.ListContracts)
		api.POST("/projects/:id/contracts", handlers.CreateContract)
		api.GET("/contracts/:id", handlers.GetContract)
		api.PUT("/contracts/:id", handlers.UpdateContract)
		api.DELETE("/contracts/:id", handlers.DeleteContract)

		// Exemption requests
		api.GET("/contracts/:id/requests", handlers.ListRequests)
		api.POST("/contracts/:id/requests", handlers.CreateRequest)
		api.GET("/requests/:id", handlers.GetRequest)
		api.PUT("/requests/:id", handlers.UpdateRequest)
		api.DELETE("/requests/:id", handlers.DeleteRequest)
		api.GET("/requests/:id/progress", handlers.GetProgress)
		api.POST("/requests/:id/advance", handlers.AdvanceRequest)
		api.POST("/requests/:id/return", handlers.ReturnRequest)
		api.GET("/requests/:id/history", handlers.GetHistory)
		api.GET("/requests/:id/export", handlers.ExportRequest)

		// Documents
		api.GET("/requests/:id/documents", handlers.ListDocuments)
		api.POST("/requests/:id/documents", handlers.UploadDocument)
		api.GET("/documents/:id", handlers.GetDocument)
		api.GET("/documents/:id/download", handlers.DownloadDocument)
		api.PATCH("/documents/:id", handlers.RenameDocument)
		api.DELETE("/documents/:id", handlers.RemoveDocument)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
