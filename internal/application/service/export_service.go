package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/workflow"
	"github.com/garyjia/exemption-tracker/pkg/utils"
)

// ExportFormat selects the rendition of an exported request
type ExportFormat string

const (
	ExportXLSX ExportFormat = "xlsx"
	ExportPDF  ExportFormat = "pdf"
)

var exportContentTypes = map[ExportFormat]string{
	ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	ExportPDF:  "application/pdf",
}

// ParseExportFormat maps a query value onto a format. Empty selects the workbook.
func ParseExportFormat(s string) (ExportFormat, error) {
	switch f := ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return ExportXLSX, nil
	case ExportXLSX, ExportPDF:
		return f, nil
	default:
		verr := &ValidationError{}
		verr.addField("format", fmt.Sprintf("unsupported export format %q", s))
		return "", verr
	}
}

// ExportedFile is a rendered request ready for download
type ExportedFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

// ExportService renders requests into downloadable files
type ExportService interface {
	ExportRequest(ctx context.Context, requestID int64, format ExportFormat) (*ExportedFile, error)
}

type exportServiceImpl struct {
	requests  RequestService
	exporters map[ExportFormat]port.RequestExporter
	archive   port.FileStorage
	logger    Logger
}

// NewExportService creates a new ExportService with one exporter per supported format.
// When archive is non-nil every rendered file is also kept there.
func NewExportService(requests RequestService, exporters map[ExportFormat]port.RequestExporter, archive port.FileStorage, logger Logger) ExportService {
	return &exportServiceImpl{
		requests:  requests,
		exporters: exporters,
		archive:   archive,
		logger:    logger,
	}
}

func (s *exportServiceImpl) ExportRequest(ctx context.Context, requestID int64, format ExportFormat) (*ExportedFile, error) {
	if format == "" {
		format = ExportXLSX
	}
	exporter, ok := s.exporters[format]
	if !ok {
		verr := &ValidationError{}
		verr.addField("format", fmt.Sprintf("unsupported export format %q", format))
		return nil, verr
	}

	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	content, err := exporter.Export(ctx, req, workflow.ClassifyStages(req.CurrentStage))
	if err != nil {
		s.logger.Error("Failed to export request", "error", err, "request_id", requestID, "format", format)
		return nil, fmt.Errorf("export request: %w", err)
	}

	name := utils.SanitizeFileName(req.Reference)
	if name == "" {
		name = RequestFolderName(requestID)
	}
	ext := "." + string(format)
	fileName := name + ext

	if s.archive != nil {
		archived := fmt.Sprintf("%s_%s%s", name, time.Now().Format("20060102_150405"), ext)
		if err := s.archive.Save(ctx, archived, content); err != nil {
			s.logger.Error("Failed to archive export", "error", err, "request_id", requestID)
		}
	}

	s.logger.Info("Request exported", "request_id", requestID, "file_name", fileName, "size", len(content))
	return &ExportedFile{FileName: fileName, ContentType: exportContentTypes[format], Content: content}, nil
}
