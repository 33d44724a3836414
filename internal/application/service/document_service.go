package service

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/event"
)

const pdfMimeType = "application/pdf"

// DocumentService manages the supporting documents of a request
type DocumentService interface {
	// Upload stores content under a generated key and records the document
	Upload(ctx context.Context, requestID int64, fileName string, content []byte) (*entity.Document, error)

	// Remove deletes the document record and its stored file
	Remove(ctx context.Context, id int64) error

	// Rename changes the display name. The original extension is kept when the new name has none.
	Rename(ctx context.Context, id int64, newName string) (*entity.Document, error)

	List(ctx context.Context, requestID int64) ([]*entity.Document, error)
	Get(ctx context.Context, id int64) (*entity.Document, error)

	// Open reads the stored content of a document
	Open(ctx context.Context, id int64) (*entity.DocumentFile, error)
}

type documentServiceImpl struct {
	requestRepo  port.RequestRepository
	documentRepo port.DocumentRepository
	storage      port.FileStorage
	folders      port.FolderManager
	inspector    port.DocumentInspector
	publisher    EventPublisher
	logger       Logger
}

// NewDocumentService creates a new DocumentService. inspector may be nil.
func NewDocumentService(
	requestRepo port.RequestRepository,
	documentRepo port.DocumentRepository,
	storage port.FileStorage,
	folders port.FolderManager,
	inspector port.DocumentInspector,
	publisher EventPublisher,
	logger Logger,
) DocumentService {
	return &documentServiceImpl{
		requestRepo:  requestRepo,
		documentRepo: documentRepo,
		storage:      storage,
		folders:      folders,
		inspector:    inspector,
		publisher:    publisher,
		logger:       logger,
	}
}

// DocumentURL is the download path of a document
func DocumentURL(id int64) string {
	return fmt.Sprintf("/api/documents/%d/download", id)
}

// DetectMimeType guesses the content type from the extension, then from the content
func DetectMimeType(fileName string, content []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(fileName))); t != "" {
		if i := strings.Index(t, ";"); i >= 0 {
			t = t[:i]
		}
		return t
	}
	t := http.DetectContentType(content)
	if i := strings.Index(t, ";"); i >= 0 {
		t = t[:i]
	}
	return t
}

func (s *documentServiceImpl) Upload(ctx context.Context, requestID int64, fileName string, content []byte) (*entity.Document, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, notFound("request", requestID)
	}

	verr := &ValidationError{}
	fileName = strings.TrimSpace(filepath.Base(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		verr.addField("file_name", "file name is required")
	}
	if len(content) == 0 {
		verr.addField("file", "file is empty")
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	doc := &entity.Document{
		RequestID: requestID,
		FileName:  fileName,
		MimeType:  DetectMimeType(fileName, content),
		FileSize:  int64(len(content)),
		CreatedAt: time.Now(),
	}

	// Only the page limit rejects a PDF; unreadable ones are stored without a page count
	if doc.IsPDF() && s.inspector != nil {
		pages, err := s.inspector.PageCount(ctx, content)
		switch {
		case errors.Is(err, port.ErrTooManyPages):
			s.logger.Info("Document rejected", "request_id", requestID, "file_name", fileName, "pages", pages)
			verr.addField("file", err.Error())
			return nil, verr
		case err != nil:
			s.logger.Error("Failed to read PDF page count", "error", err, "file_name", fileName)
		default:
			doc.PageCount = pages
		}
	}

	folder := s.folders.SanitizeName(RequestFolderName(requestID))
	doc.StorageKey = folder + "/" + uuid.NewString() + strings.ToLower(filepath.Ext(fileName))

	if err := s.storage.Save(ctx, doc.StorageKey, content); err != nil {
		s.logger.Error("Failed to store document", "error", err, "request_id", requestID, "file_name", fileName)
		return nil, fmt.Errorf("store document: %w", err)
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		s.logger.Error("Failed to record document", "error", err, "request_id", requestID)
		if delErr := s.storage.Delete(ctx, doc.StorageKey); delErr != nil {
			s.logger.Error("Failed to clean up stored document", "error", delErr, "storage_key", doc.StorageKey)
		}
		return nil, fmt.Errorf("create document: %w", err)
	}
	doc.URL = DocumentURL(doc.ID)

	s.logger.Info("Document uploaded",
		"id", doc.ID,
		"request_id", requestID,
		"file_name", fileName,
		"size", doc.FileSize,
		"pages", doc.PageCount)

	s.publish(ctx, event.TypeDocumentUploaded, req, doc)
	return doc, nil
}

func (s *documentServiceImpl) Get(ctx context.Context, id int64) (*entity.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, fmt.Errorf("get document: %w", err)
	}
	if doc == nil {
		return nil, notFound("document", id)
	}
	doc.URL = DocumentURL(doc.ID)
	return doc, nil
}

func (s *documentServiceImpl) Remove(ctx context.Context, id int64) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.documentRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete document", "error", err, "id", id)
		return fmt.Errorf("delete document: %w", err)
	}

	if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
		s.logger.Error("Failed to delete stored document", "error", err, "storage_key", doc.StorageKey)
	}

	s.logger.Info("Document removed", "id", id, "request_id", doc.RequestID)

	if req, err := s.requestRepo.GetByID(ctx, doc.RequestID); err == nil && req != nil {
		s.publish(ctx, event.TypeDocumentRemoved, req, doc)
	}
	return nil
}

func (s *documentServiceImpl) Rename(ctx context.Context, id int64, newName string) (*entity.Document, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" || strings.ContainsAny(newName, `/\`) {
		verr := &ValidationError{}
		verr.addField("new_name", "a plain file name is required")
		return nil, verr
	}

	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if filepath.Ext(newName) == "" {
		newName += filepath.Ext(doc.FileName)
	}

	if err := s.documentRepo.Rename(ctx, id, newName); err != nil {
		s.logger.Error("Failed to rename document", "error", err, "id", id)
		return nil, fmt.Errorf("rename document: %w", err)
	}

	s.logger.Info("Document renamed", "id", id, "old_name", doc.FileName, "new_name", newName)
	doc.FileName = newName
	return doc, nil
}

func (s *documentServiceImpl) List(ctx context.Context, requestID int64) ([]*entity.Document, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, notFound("request", requestID)
	}

	docs, err := s.documentRepo.GetByRequestID(ctx, requestID)
	if err != nil {
		s.logger.Error("Failed to list documents", "error", err, "request_id", requestID)
		return nil, fmt.Errorf("list documents: %w", err)
	}
	for _, d := range docs {
		d.URL = DocumentURL(d.ID)
	}
	return docs, nil
}

func (s *documentServiceImpl) Open(ctx context.Context, id int64) (*entity.DocumentFile, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := s.storage.Read(ctx, doc.StorageKey)
	if err != nil {
		s.logger.Error("Failed to read stored document", "error", err, "id", id)
		return nil, fmt.Errorf("read document: %w", err)
	}

	return &entity.DocumentFile{
		Content:  content,
		FileName: doc.FileName,
		MimeType: doc.MimeType,
		Size:     int64(len(content)),
	}, nil
}

func (s *documentServiceImpl) publish(ctx context.Context, t event.Type, req *entity.ExemptionRequest, doc *entity.Document) {
	if s.publisher == nil {
		return
	}
	s.publisher.DispatchAsync(context.WithoutCancel(ctx), event.NewEvent(t, req.ID, req.Reference, map[string]interface{}{
		"document_id": doc.ID,
		"file_name":   doc.FileName,
		"size":        doc.FileSize,
	}))
}
