package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the allowance for form boundaries and headers on top of the file size
const multipartOverhead = 64 << 10

// RenameRequest is the body of PATCH /api/documents/:id
type RenameRequest struct {
	FileName string `json:"file_name"`
	NewName  string `json:"new_name"`
}

// ListDocuments handles GET /api/requests/:id/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	requestID, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	docs, err := h.documents.List(c.Request.Context(), requestID)
	if err != nil {
		h.fail(c, "list documents", err)
		return
	}
	ok(c, http.StatusOK, docs)
}

// UploadDocument handles POST /api/requests/:id/documents (multipart field "file")
func (h *Handlers) UploadDocument(c *gin.Context) {
	requestID, valid := h.pathID(c, "request")
	if !valid {
		return
	}

	if h.maxUploadSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+multipartOverhead)
	}

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.tooLarge(c)
			return
		}
		h.logger.Error("Invalid upload", "request_id", requestID, "error", err)
		badRequest(c, "a file is required in the \"file\" form field")
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		h.tooLarge(c)
		return
	}

	file, err := header.Open()
	if err != nil {
		h.fail(c, "read upload", err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, "read upload", err)
		return
	}

	doc, err := h.documents.Upload(c.Request.Context(), requestID, header.Filename, content)
	if err != nil {
		h.fail(c, "upload document", err)
		return
	}
	ok(c, http.StatusCreated, doc)
}

// GetDocument handles GET /api/documents/:id
func (h *Handlers) GetDocument(c *gin.Context) {
	id, valid := h.pathID(c, "document")
	if !valid {
		return
	}

	doc, err := h.documents.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get document", err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// DownloadDocument handles GET /api/documents/:id/download
func (h *Handlers) DownloadDocument(c *gin.Context) {
	id, valid := h.pathID(c, "document")
	if !valid {
		return
	}

	file, err := h.documents.Open(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "download document", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.MimeType, file.Content)
}

// RenameDocument handles PATCH /api/documents/:id
func (h *Handlers) RenameDocument(c *gin.Context) {
	id, valid := h.pathID(c, "document")
	if !valid {
		return
	}

	var req RenameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	name := req.NewName
	if name == "" {
		name = req.FileName
	}

	doc, err := h.documents.Rename(c.Request.Context(), id, name)
	if err != nil {
		h.fail(c, "rename document", err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// RemoveDocument handles DELETE /api/documents/:id
func (h *Handlers) RemoveDocument(c *gin.Context) {
	id, valid := h.pathID(c, "document")
	if !valid {
		return
	}

	if err := h.documents.Remove(c.Request.Context(), id); err != nil {
		h.fail(c, "remove document", err)
		return
	}
	ok(c, http.StatusOK, gin.H{"id": id, "status": "removed"})
}

func (h *Handlers) tooLarge(c *gin.Context) {
	c.JSON(http.StatusRequestEntityTooLarge, Response{
		Success: false,
		Error:   fmt.Sprintf("file exceeds %d bytes", h.maxUploadSize),
	})
}
