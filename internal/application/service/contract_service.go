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

// ContractInput carries the editable fields of a contract
type ContractInput struct {
	Reference string     `json:"reference"`
	Title     string     `json:"title"`
	Supplier  string     `json:"supplier"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	SignedAt  *time.Time `json:"signed_at"`
}

func (in ContractInput) validate() error {
	verr := &ValidationError{}
	if ref := strings.TrimSpace(in.Reference); ref == "" {
		verr.addField("reference", "reference is required")
	} else if err := utils.ValidateReference(ref); err != nil {
		verr.addField("reference", err.Error())
	}
	if strings.TrimSpace(in.Title) == "" {
		verr.addField("title", "title is required")
	}
	if in.Amount < 0 {
		verr.addField("amount", "amount cannot be negative")
	}
	if c := strings.ToUpper(strings.TrimSpace(in.Currency)); c != "" {
		if err := utils.ValidateCurrency(c); err != nil {
			verr.addField("currency", err.Error())
		}
	}
	return verr.orNil()
}

// ContractService manages the contracts of a project
type ContractService interface {
	Create(ctx context.Context, projectID int64, in ContractInput) (*entity.Contract, error)
	Get(ctx context.Context, id int64) (*entity.Contract, error)
	ListByProject(ctx context.Context, projectID int64) ([]*entity.Contract, error)
	Update(ctx context.Context, id int64, in ContractInput) (*entity.Contract, error)
	Delete(ctx context.Context, id int64) error
}

type contractServiceImpl struct {
	projectRepo  port.ProjectRepository
	contractRepo port.ContractRepository
	logger       Logger
}

// NewContractService creates a new ContractService
func NewContractService(projectRepo port.ProjectRepository, contractRepo port.ContractRepository, logger Logger) ContractService {
	return &contractServiceImpl{
		projectRepo:  projectRepo,
		contractRepo: contractRepo,
		logger:       logger,
	}
}

func (s *contractServiceImpl) Create(ctx context.Context, projectID int64, in ContractInput) (*entity.Contract, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}

	now := time.Now()
	contract := &entity.Contract{
		ProjectID: projectID,
		CreatedAt: now,
	}
	applyContractInput(contract, in, now)

	if err := s.contractRepo.Create(ctx, contract); err != nil {
		s.logger.Error("Failed to create contract", "error", err, "project_id", projectID)
		return nil, fmt.Errorf("create contract: %w", err)
	}

	s.logger.Info("Contract created", "id", contract.ID, "project_id", projectID, "reference", contract.Reference)
	return contract, nil
}

func (s *contractServiceImpl) Get(ctx context.Context, id int64) (*entity.Contract, error) {
	contract, err := s.contractRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get contract", "error", err, "id", id)
		return nil, fmt.Errorf("get contract: %w", err)
	}
	if contract == nil {
		return nil, notFound("contract", id)
	}
	return contract, nil
}

func (s *contractServiceImpl) ListByProject(ctx context.Context, projectID int64) ([]*entity.Contract, error) {
	project, err := s.projectRepo.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if project == nil {
		return nil, notFound("project", projectID)
	}

	contracts, err := s.contractRepo.ListByProject(ctx, projectID)
	if err != nil {
		s.logger.Error("Failed to list contracts", "error", err, "project_id", projectID)
		return nil, fmt.Errorf("list contracts: %w", err)
	}
	return contracts, nil
}

func (s *contractServiceImpl) Update(ctx context.Context, id int64, in ContractInput) (*entity.Contract, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	contract, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	applyContractInput(contract, in, time.Now())

	if err := s.contractRepo.Update(ctx, contract); err != nil {
		s.logger.Error("Failed to update contract", "error", err, "id", id)
		return nil, fmt.Errorf("update contract: %w", err)
	}

	s.logger.Info("Contract updated", "id", id)
	return contract, nil
}

func (s *contractServiceImpl) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.contractRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete contract", "error", err, "id", id)
		return fmt.Errorf("delete contract: %w", err)
	}

	s.logger.Info("Contract deleted", "id", id)
	return nil
}

func applyContractInput(c *entity.Contract, in ContractInput, now time.Time) {
	c.Reference = strings.TrimSpace(in.Reference)
	c.Title = strings.TrimSpace(in.Title)
	c.Supplier = strings.TrimSpace(in.Supplier)
	c.Amount = in.Amount
	c.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	if c.Currency == "" {
		c.Currency = entity.DefaultCurrency
	}
	c.SignedAt = in.SignedAt
	c.UpdatedAt = now
}
