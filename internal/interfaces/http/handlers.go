package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/exemption-tracker/internal/application/service"
	"github.com/garyjia/exemption-tracker/internal/domain/workflow"
)

const apiVersion = "1.0.0"

// Handlers contains all HTTP request handlers
type Handlers struct {
	projects      service.ProjectService
	contracts     service.ContractService
	requests      service.RequestService
	documents     service.DocumentService
	exports       service.ExportService
	healthCheck   func() error
	maxUploadSize int64
	logger        Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(services Services, maxUploadSize int64, logger Logger) *Handlers {
	return &Handlers{
		projects:      services.Projects,
		contracts:     services.Contracts,
		requests:      services.Requests,
		documents:     services.Documents,
		exports:       services.Exports,
		healthCheck:   services.HealthCheck,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ListQuery represents paging query parameters
type ListQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   apiVersion,
	}

	if h.healthCheck != nil {
		if err := h.healthCheck(); err != nil {
			h.logger.Error("Health check failed", "error", err)
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{
				Success: false,
				Data:    response,
				Error:   err.Error(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    response,
	})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{Success: true, Data: data})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// fail maps service errors onto status codes
func (h *Handlers) fail(c *gin.Context, action string, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, Response{
			Success: false,
			Error:   service.ErrValidation.Error(),
			Details: verr,
		})
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, workflow.ErrInvalidTransition), errors.Is(err, workflow.ErrInvalidState):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "action", action, "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to " + action,
		})
	}
}

// pathID parses the :id parameter, writing a 400 response when it is not a positive integer
func (h *Handlers) pathID(c *gin.Context, kind string) (int64, bool) {
	idStr := c.Param("id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		h.logger.Error("Invalid "+kind+" ID", "id", idStr)
		badRequest(c, "invalid "+kind+" ID")
		return 0, false
	}
	return id, true
}

// bindFlex decodes the body into a flexObject. An empty body yields an empty object.
func bindFlex(c *gin.Context) (flexObject, bool) {
	var obj flexObject
	if err := json.NewDecoder(c.Request.Body).Decode(&obj); err != nil {
		if errors.Is(err, io.EOF) {
			return flexObject{}, true
		}
		badRequest(c, "invalid request body")
		return nil, false
	}
	if obj == nil {
		obj = flexObject{}
	}
	return obj, true
}

// bindOptionalJSON decodes the body into dst, accepting an empty body
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid request body")
		return false
	}
	return true
}

// ListStages handles GET /api/stages?current=...
func (h *Handlers) ListStages(c *gin.Context) {
	current := c.Query("current")
	ok(c, http.StatusOK, gin.H{
		"current_index": workflow.ResolveStageIndex(current),
		"stages":        workflow.ClassifyStages(current),
	})
}
