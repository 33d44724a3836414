package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// ProjectRepository implements port.ProjectRepository
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) port.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new project
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	query := `
		INSERT INTO projects (name, reference, description, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		project.Name,
		project.Reference,
		project.Description,
		project.Status,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create project", zap.String("reference", project.Reference), zap.Error(err))
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	project.ID = id
	return nil
}

// GetByID retrieves a project by ID
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	query := `
		SELECT id, name, reference, description, status, created_at, updated_at
		FROM projects
		WHERE id = ?
	`

	project, err := scanProject(sqlite.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get project by ID", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

// List retrieves projects, newest first
func (r *ProjectRepository) List(ctx context.Context, limit, offset int) ([]*entity.Project, error) {
	query := `
		SELECT id, name, reference, description, status, created_at, updated_at
		FROM projects
		ORDER BY id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := sqlite.ExecutorFor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []*entity.Project{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	return projects, rows.Err()
}

// Update updates a project
func (r *ProjectRepository) Update(ctx context.Context, project *entity.Project) error {
	query := `
		UPDATE projects
		SET name = ?, reference = ?, description = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		project.Name,
		project.Reference,
		project.Description,
		project.Status,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update project", zap.Int64("id", project.ID), zap.Error(err))
		return fmt.Errorf("failed to update project: %w", err)
	}
	return nil
}

// Delete removes a project; contracts and everything below cascade
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	_, err := sqlite.ExecutorFor(ctx, r.db).ExecContext(ctx, "DELETE FROM projects WHERE id = ?", id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func scanProject(row scanner) (*entity.Project, error) {
	var project entity.Project
	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Reference,
		&project.Description,
		&project.Status,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// Verify interface compliance
var _ port.ProjectRepository = (*ProjectRepository)(nil)
