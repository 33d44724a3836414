package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/exemption-tracker/internal/application/service"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
)

// ListRequests handles GET /api/contracts/:id/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	contractID, valid := h.pathID(c, "contract")
	if !valid {
		return
	}

	requests, err := h.requests.ListByContract(c.Request.Context(), contractID)
	if err != nil {
		h.fail(c, "list requests", err)
		return
	}
	ok(c, http.StatusOK, requests)
}

// CreateRequest handles POST /api/contracts/:id/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	contractID, valid := h.pathID(c, "contract")
	if !valid {
		return
	}

	body, valid := bindFlex(c)
	if !valid {
		return
	}

	req, err := h.requests.Create(c.Request.Context(), contractID, toRequestInput(body))
	if err != nil {
		h.fail(c, "create request", err)
		return
	}
	ok(c, http.StatusCreated, req)
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	req, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get request", err)
		return
	}
	ok(c, http.StatusOK, req)
}

// UpdateRequest handles PUT /api/requests/:id
func (h *Handlers) UpdateRequest(c *gin.Context) {
	id, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	body, valid := bindFlex(c)
	if !valid {
		return
	}

	req, err := h.requests.Update(c.Request.Context(), id, toRequestInput(body))
	if err != nil {
		h.fail(c, "update request", err)
		return
	}
	ok(c, http.StatusOK, req)
}

// DeleteRequest handles DELETE /api/requests/:id
func (h *Handlers) DeleteRequest(c *gin.Context) {
	id, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	if err := h.requests.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete request", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "status": "deleted"})
}

// GetProgress handles GET /api/requests/:id/progress
func (h *Handlers) GetProgress(c *gin.Context) {
	id, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	progress, err := h.requests.Progress(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get progress", err)
		return
	}
	ok(c, http.StatusOK, progress)
}

// AdvanceRequest handles POST /api/requests/:id/advance
func (h *Handlers) AdvanceRequest(c *gin.Context) {
	h.moveRequest(c, "advance request", h.requests.Advance)
}

// ReturnRequest handles POST /api/requests/:id/return
func (h *Handlers) ReturnRequest(c *gin.Context) {
	h.moveRequest(c, "return request", h.requests.Return)
}

func (h *Handlers) moveRequest(c *gin.Context, action string, move func(ctx context.Context, id int64, in service.StageActionInput) (*entity.ExemptionRequest, error)) {
	id, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	var in service.StageActionInput
	if !bindOptionalJSON(c, &in) {
		return
	}

	req, err := move(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, action, err)
		return
	}

	h.logger.Info("Request stage changed", "request_id", id, "stage", req.CurrentStage, "action", action)
	ok(c, http.StatusOK, req)
}

// GetHistory handles GET /api/requests/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	history, err := h.requests.History(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get history", err)
		return
	}
	ok(c, http.StatusOK, history)
}

// ExportRequest handles GET /api/requests/:id/export?format=xlsx|pdf
func (h *Handlers) ExportRequest(c *gin.Context) {
	id, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		h.fail(c, "export request", err)
		return
	}

	file, err := h.exports.ExportRequest(c.Request.Context(), id, format)
	if err != nil {
		h.fail(c, "export request", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
