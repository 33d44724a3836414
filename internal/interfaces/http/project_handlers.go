package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/exemption-tracker/internal/application/service"
)

// ListProjects handles GET /api/projects
func (h *Handlers) ListProjects(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		badRequest(c, "invalid query parameters")
		return
	}

	projects, err := h.projects.List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, "list projects", err)
		return
	}
	ok(c, http.StatusOK, projects)
}

// CreateProject handles POST /api/projects
func (h *Handlers) CreateProject(c *gin.Context) {
	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	project, err := h.projects.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, "create project", err)
		return
	}
	ok(c, http.StatusCreated, project)
}

// GetProject handles GET /api/projects/:id
func (h *Handlers) GetProject(c *gin.Context) {
	id, valid := h.pathID(c, "project")
	if !valid {
		return
	}

	project, err := h.projects.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get project", err)
		return
	}
	ok(c, http.StatusOK, project)
}

// UpdateProject handles PUT /api/projects/:id
func (h *Handlers) UpdateProject(c *gin.Context) {
	id, valid := h.pathID(c, "project")
	if !valid {
		return
	}

	var in service.ProjectInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	project, err := h.projects.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "update project", err)
		return
	}
	ok(c, http.StatusOK, project)
}

// DeleteProject handles DELETE /api/projects/:id
func (h *Handlers) DeleteProject(c *gin.Context) {
	id, valid := h.pathID(c, "project")
	if !valid {
		return
	}

	if err := h.projects.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete project", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "status": "deleted"})
}

// ListContracts handles GET /api/projects/:id/contracts
func (h *Handlers) ListContracts(c *gin.Context) {
	projectID, valid := h.pathID(c, "project")
	if !valid {
		return
	}

	contracts, err := h.contracts.ListByProject(c.Request.Context(), projectID)
	if err != nil {
		h.fail(c, "list contracts", err)
		return
	}
	ok(c, http.StatusOK, contracts)
}

// CreateContract handles POST /api/projects/:id/contracts
func (h *Handlers) CreateContract(c *gin.Context) {
	projectID, valid := h.pathID(c, "project")
	if !valid {
		return
	}

	var in service.ContractInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), projectID, in)
	if err != nil {
		h.fail(c, "create contract", err)
		return
	}
	ok(c, http.StatusCreated, contract)
}

// GetContract handles GET /api/contracts/:id
func (h *Handlers) GetContract(c *gin.Context) {
	id, valid := h.pathID(c, "contract")
	if !valid {
		return
	}

	contract, err := h.contracts.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get contract", err)
		return
	}
	ok(c, http.StatusOK, contract)
}

// UpdateContract handles PUT /api/contracts/:id
func (h *Handlers) UpdateContract(c *gin.Context) {
	id, valid := h.pathID(c, "contract")
	if !valid {
		return
	}

	var in service.ContractInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	contract, err := h.contracts.Update(c.Request.Context(), id, in)
	if err != nil {
		h.fail(c, "update contract", err)
		return
	}
	ok(c, http.StatusOK, contract)
}

// DeleteContract handles DELETE /api/contracts/:id
func (h *Handlers) DeleteContract(c *gin.Context) {
	id, valid := h.pathID(c, "contract")
	if !valid {
		return
	}

	if err := h.contracts.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete contract", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "status": "deleted"})
}
