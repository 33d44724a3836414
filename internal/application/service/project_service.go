package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/pkg/utils"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// ProjectInput carries the editable fields of a project
type ProjectInput struct {
	Name        string `json:"name"`
	Reference   string `json:"reference"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

func (in ProjectInput) validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(in.Name) == "" {
		verr.addField("name", "name is required")
	}
	if ref := strings.TrimSpace(in.Reference); ref == "" {
		verr.addField("reference", "reference is required")
	} else if err := utils.ValidateReference(ref); err != nil {
		verr.addField("reference", err.Error())
	}
	if in.Status != "" && !entity.IsValidProjectStatus(in.Status) {
		verr.addField("status", fmt.Sprintf("unknown status %q", in.Status))
	}
	return verr.orNil()
}

// ProjectService manages projects
type ProjectService interface {
	Create(ctx context.Context, in ProjectInput) (*entity.Project, error)
	Get(ctx context.Context, id int64) (*entity.Project, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Project, error)
	Update(ctx context.Context, id int64, in ProjectInput) (*entity.Project, error)
	Delete(ctx context.Context, id int64) error
}

type projectServiceImpl struct {
	projectRepo port.ProjectRepository
	logger      Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo port.ProjectRepository, logger Logger) ProjectService {
	return &projectServiceImpl{
		projectRepo: projectRepo,
		logger:      logger,
	}
}

func (s *projectServiceImpl) Create(ctx context.Context, in ProjectInput) (*entity.Project, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	status := in.Status
	if status == "" {
		status = entity.ProjectStatusActive
	}

	now := time.Now()
	project := &entity.Project{
		Name:        strings.TrimSpace(in.Name),
		Reference:   strings.TrimSpace(in.Reference),
		Description: in.Description,
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.projectRepo.Create(ctx, project); err != nil {
		s.logger.Error("Failed to create project", "error", err, "reference", project.Reference)
		return nil, fmt.Errorf("create project: %w", err)
	}

	s.logger.Info("Project created", "id", project.ID, "reference", project.Reference)
	return project, nil
}

func (s *projectServiceImpl) Get(ctx context.Context, id int64) (*entity.Project, error) {
	project, err := s.projectRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get project", "error", err, "id", id)
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, notFound("project", id)
	}
	return project, nil
}

func (s *projectServiceImpl) List(ctx context.Context, limit, offset int) ([]*entity.Project, error) {
	limit, offset = normalizePage(limit, offset)

	projects, err := s.projectRepo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("Failed to list projects", "error", err, "limit", limit, "offset", offset)
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

func (s *projectServiceImpl) Update(ctx context.Context, id int64, in ProjectInput) (*entity.Project, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	project, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	project.Name = strings.TrimSpace(in.Name)
	project.Reference = strings.TrimSpace(in.Reference)
	project.Description = in.Description
	if in.Status != "" {
		project.Status = in.Status
	}
	project.UpdatedAt = time.Now()

	if err := s.projectRepo.Update(ctx, project); err != nil {
		s.logger.Error("Failed to update project", "error", err, "id", id)
		return nil, fmt.Errorf("update project: %w", err)
	}

	s.logger.Info("Project updated", "id", id)
	return project, nil
}

func (s *projectServiceImpl) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.projectRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete project", "error", err, "id", id)
		return fmt.Errorf("delete project: %w", err)
	}

	s.logger.Info("Project deleted", "id", id)
	return nil
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
