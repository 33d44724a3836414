package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/exemption-tracker/internal/application/port"
	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/event"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
	"github.com/garyjia/exemption-tracker/internal/domain/workflow"
	"github.com/garyjia/exemption-tracker/pkg/utils"
)

// RequestInput carries the editable fields of an exemption request
type RequestInput struct {
	Reference   string               `json:"reference"`
	Title       string               `json:"title"`
	TaxCategory taxation.TaxCategory `json:"tax_category"`
	Items       []taxation.LineItem  `json:"items"`
}

// StageActionInput identifies who moved a request and why
type StageActionInput struct {
	Actor   string `json:"actor"`
	Comment string `json:"comment"`
}

// RequestProgress is the pipeline view of a request
type RequestProgress struct {
	RequestID        int64                    `json:"request_id"`
	CurrentStage     string                   `json:"current_stage"`
	CurrentIndex     int                      `json:"current_index"`
	Stages           []workflow.StageProgress `json:"stages"`
	PermittedActions []workflow.Trigger       `json:"permitted_actions"`
}

// RequestService manages exemption requests and their stage pipeline
type RequestService interface {
	Create(ctx context.Context, contractID int64, in RequestInput) (*entity.ExemptionRequest, error)
	Get(ctx context.Context, id int64) (*entity.ExemptionRequest, error)
	ListByContract(ctx context.Context, contractID int64) ([]*entity.ExemptionRequest, error)
	Update(ctx context.Context, id int64, in RequestInput) (*entity.ExemptionRequest, error)
	Delete(ctx context.Context, id int64) error

	// Progress classifies every pipeline stage against the stored current stage
	Progress(ctx context.Context, id int64) (*RequestProgress, error)

	// Advance moves the request to the next stage and records it in the history
	Advance(ctx context.Context, id int64, in StageActionInput) (*entity.ExemptionRequest, error)

	// Return moves the request back one stage and records it in the history
	Return(ctx context.Context, id int64, in StageActionInput) (*entity.ExemptionRequest, error)

	History(ctx context.Context, id int64) ([]*entity.StageHistory, error)
}

type requestServiceImpl struct {
	contractRepo port.ContractRepository
	requestRepo  port.RequestRepository
	itemRepo     port.LineItemRepository
	historyRepo  port.StageHistoryRepository
	folders      port.FolderManager
	txManager    port.TransactionManager
	publisher    EventPublisher
	logger       Logger
}

// NewRequestService creates a new RequestService
func NewRequestService(
	contractRepo port.ContractRepository,
	requestRepo port.RequestRepository,
	itemRepo port.LineItemRepository,
	historyRepo port.StageHistoryRepository,
	folders port.FolderManager,
	txManager port.TransactionManager,
	publisher EventPublisher,
	logger Logger,
) RequestService {
	return &requestServiceImpl{
		contractRepo: contractRepo,
		requestRepo:  requestRepo,
		itemRepo:     itemRepo,
		historyRepo:  historyRepo,
		folders:      folders,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
	}
}

// PrepareItems drops blank rows, clears fields that do not belong to the category,
// recalculates every item and validates it for saving.
// Item error indexes refer to positions in the submitted slice.
func PrepareItems(items []taxation.LineItem, category taxation.TaxCategory) ([]taxation.LineItem, []ItemErrors) {
	prepared := make([]taxation.LineItem, 0, len(items))
	var itemErrs []ItemErrors

	for i, item := range items {
		if item.IsBlank() {
			continue
		}

		switch category {
		case taxation.CategoryImportation:
			item.IssueDate = ""
			item.NatureOfOperation = ""
		case taxation.CategoryLocalAcquisition:
			item.ItIc = taxation.ItIcNone
			item.TariffPosition = ""
		}
		item.Label = strings.TrimSpace(item.Label)

		item = item.Recalculated(category)
		if result := taxation.ValidateForSave(item, category); !result.OK() {
			itemErrs = append(itemErrs, ItemErrors{Index: i, Errors: result.Errors})
		}
		prepared = append(prepared, item)
	}

	return prepared, itemErrs
}

func (s *requestServiceImpl) validateInput(ctx context.Context, in RequestInput, selfID int64) ([]taxation.LineItem, error) {
	verr := &ValidationError{}

	reference := strings.TrimSpace(in.Reference)
	if reference == "" {
		verr.addField("reference", "reference is required")
	} else if err := utils.ValidateReference(reference); err != nil {
		verr.addField("reference", err.Error())
	}
	if !in.TaxCategory.IsValid() {
		verr.addField("tax_category", fmt.Sprintf("must be %q or %q", taxation.CategoryLocalAcquisition, taxation.CategoryImportation))
		return nil, verr
	}

	if reference != "" {
		existing, err := s.requestRepo.GetByReference(ctx, reference)
		if err != nil {
			return nil, fmt.Errorf("check reference: %w", err)
		}
		if existing != nil && existing.ID != selfID {
			verr.addField("reference", fmt.Sprintf("reference %q is already in use", reference))
		}
	}

	items, itemErrs := PrepareItems(in.Items, in.TaxCategory)
	verr.Items = itemErrs
	if len(itemErrs) == 0 && !taxation.SummarizeItems(items).IsFinite() {
		verr.addField("items", "line item amounts are too large to total")
	}

	if err := verr.orNil(); err != nil {
		return nil, err
	}
	return items, nil
}

func (s *requestServiceImpl) Create(ctx context.Context, contractID int64, in RequestInput) (*entity.ExemptionRequest, error) {
	contract, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	if contract == nil {
		return nil, notFound("contract", contractID)
	}

	items, err := s.validateInput(ctx, in, 0)
	if err != nil {
		s.logger.Info("Request rejected", "contract_id", contractID, "error", err)
		return nil, err
	}

	now := time.Now()
	req := &entity.ExemptionRequest{
		ContractID:   contractID,
		Reference:    strings.TrimSpace(in.Reference),
		Title:        strings.TrimSpace(in.Title),
		TaxCategory:  in.TaxCategory,
		CurrentStage: workflow.StageApplicationSubmission.String(),
		Items:        items,
		Summary:      taxation.SummarizeItems(items),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		if err := s.itemRepo.ReplaceForRequest(txCtx, req.ID, items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		history := &entity.StageHistory{
			RequestID: req.ID,
			NewStage:  req.CurrentStage,
			Action:    entity.ActionCreated,
			Timestamp: now,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to create request", "error", err, "contract_id", contractID, "reference", req.Reference)
		return nil, err
	}

	s.logger.Info("Request created", "id", req.ID, "reference", req.Reference, "items", len(items))
	s.publish(ctx, event.TypeRequestCreated, req, map[string]interface{}{
		"contract_id":  contractID,
		"tax_category": req.TaxCategory.String(),
		"item_count":   len(items),
	})
	return req, nil
}

func (s *requestServiceImpl) Get(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.itemRepo.GetByRequestID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get items", "error", err, "request_id", id)
		return nil, fmt.Errorf("get items: %w", err)
	}
	req.Items = items
	req.Summary = taxation.SummarizeItems(items)
	return req, nil
}

func (s *requestServiceImpl) getRequest(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
	req, err := s.requestRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get request", "error", err, "id", id)
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, notFound("request", id)
	}
	return req, nil
}

func (s *requestServiceImpl) ListByContract(ctx context.Context, contractID int64) ([]*entity.ExemptionRequest, error) {
	contract, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, fmt.Errorf("get contract: %w", err)
	}
	if contract == nil {
		return nil, notFound("contract", contractID)
	}

	requests, err := s.requestRepo.ListByContract(ctx, contractID)
	if err != nil {
		s.logger.Error("Failed to list requests", "error", err, "contract_id", contractID)
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

func (s *requestServiceImpl) Update(ctx context.Context, id int64, in RequestInput) (*entity.ExemptionRequest, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.validateInput(ctx, in, id)
	if err != nil {
		s.logger.Info("Request update rejected", "id", id, "error", err)
		return nil, err
	}

	req.Reference = strings.TrimSpace(in.Reference)
	req.Title = strings.TrimSpace(in.Title)
	req.TaxCategory = in.TaxCategory
	req.Items = items
	req.Summary = taxation.SummarizeItems(items)
	req.UpdatedAt = time.Now()

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requestRepo.Update(txCtx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}
		if err := s.itemRepo.ReplaceForRequest(txCtx, id, items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to update request", "error", err, "id", id)
		return nil, err
	}

	s.logger.Info("Request updated", "id", id, "items", len(items))
	s.publish(ctx, event.TypeRequestUpdated, req, map[string]interface{}{
		"item_count": len(items),
	})
	return req, nil
}

func (s *requestServiceImpl) Delete(ctx context.Context, id int64) error {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requestRepo.Delete(ctx, id); err != nil {
		s.logger.Error("Failed to delete request", "error", err, "id", id)
		return fmt.Errorf("delete request: %w", err)
	}

	// document rows cascade with the request; their files go with the folder
	if s.folders != nil {
		if err := s.folders.Delete(ctx, RequestFolderName(id)); err != nil {
			s.logger.Error("Failed to delete request folder", "error", err, "id", id)
		}
	}

	s.logger.Info("Request deleted", "id", id)
	s.publish(ctx, event.TypeRequestDeleted, req, nil)
	return nil
}

func (s *requestServiceImpl) Progress(ctx context.Context, id int64) (*RequestProgress, error) {
	req, err := s.getRequest(ctx, id)
	if err != nil {
		return nil, err
	}

	return &RequestProgress{
		RequestID:        id,
		CurrentStage:     req.CurrentStage,
		CurrentIndex:     workflow.ResolveStageIndex(req.CurrentStage),
		Stages:           workflow.ClassifyStages(req.CurrentStage),
		PermittedActions: workflow.NewPipelineMachine(req.CurrentStage).PermittedTriggers(),
	}, nil
}

func (s *requestServiceImpl) Advance(ctx context.Context, id int64, in StageActionInput) (*entity.ExemptionRequest, error) {
	return s.move(ctx, id, workflow.TriggerAdvance, entity.ActionAdvanced, in)
}

func (s *requestServiceImpl) Return(ctx context.Context, id int64, in StageActionInput) (*entity.ExemptionRequest, error) {
	return s.move(ctx, id, workflow.TriggerReturn, entity.ActionReturned, in)
}

func (s *requestServiceImpl) move(ctx context.Context, id int64, trigger workflow.Trigger, action string, in StageActionInput) (*entity.ExemptionRequest, error) {
	var (
		req      *entity.ExemptionRequest
		previous string
	)

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		req, err = s.getRequest(txCtx, id)
		if err != nil {
			return err
		}
		previous = req.CurrentStage

		next, err := workflow.Transition(txCtx, previous, trigger)
		if err != nil {
			return err
		}

		if err := s.requestRepo.UpdateStage(txCtx, id, next.String()); err != nil {
			return fmt.Errorf("update stage: %w", err)
		}

		now := time.Now()
		history := &entity.StageHistory{
			RequestID:     id,
			PreviousStage: previous,
			NewStage:      next.String(),
			Action:        action,
			Actor:         strings.TrimSpace(in.Actor),
			Comment:       strings.TrimSpace(in.Comment),
			Timestamp:     now,
		}
		if err := s.historyRepo.Create(txCtx, history); err != nil {
			return fmt.Errorf("create history: %w", err)
		}

		req.CurrentStage = next.String()
		req.UpdatedAt = now
		return nil
	})
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) || errors.Is(err, workflow.ErrInvalidState) || errors.Is(err, ErrNotFound) {
			s.logger.Info("Stage change refused", "id", id, "trigger", trigger, "error", err)
		} else {
			s.logger.Error("Failed to change stage", "error", err, "id", id, "trigger", trigger)
		}
		return nil, err
	}

	s.logger.Info("Stage changed", "id", id, "previous_stage", previous, "new_stage", req.CurrentStage)
	s.publish(ctx, event.TypeRequestStageChanged, req, map[string]interface{}{
		"previous_stage": previous,
		"new_stage":      req.CurrentStage,
		"action":         action,
		"actor":          in.Actor,
	})
	return req, nil
}

func (s *requestServiceImpl) History(ctx context.Context, id int64) ([]*entity.StageHistory, error) {
	if _, err := s.getRequest(ctx, id); err != nil {
		return nil, err
	}

	history, err := s.historyRepo.GetByRequestID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get history", "error", err, "request_id", id)
		return nil, fmt.Errorf("get history: %w", err)
	}
	return history, nil
}

func (s *requestServiceImpl) publish(ctx context.Context, t event.Type, req *entity.ExemptionRequest, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["current_stage"] = req.CurrentStage
	s.publisher.DispatchAsync(context.WithoutCancel(ctx), event.NewEvent(t, req.ID, req.Reference, payload))
}

// RequestFolderName is the storage folder holding a request's documents
func RequestFolderName(requestID int64) string {
	return fmt.Sprintf("request_%d", requestID)
}
