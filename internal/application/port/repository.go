package port

import (
	"context"

	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
)

// ProjectRepository defines persistence operations for Project
type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	GetByID(ctx context.Context, id int64) (*entity.Project, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Project, error)
	Update(ctx context.Context, project *entity.Project) error
	Delete(ctx context.Context, id int64) error
}

// ContractRepository defines persistence operations for Contract
type ContractRepository interface {
	Create(ctx context.Context, contract *entity.Contract) error
	GetByID(ctx context.Context, id int64) (*entity.Contract, error)
	ListByProject(ctx context.Context, projectID int64) ([]*entity.Contract, error)
	Update(ctx context.Context, contract *entity.Contract) error
	Delete(ctx context.Context, id int64) error
}

// RequestRepository defines persistence operations for ExemptionRequest.
// Items are stored separately through LineItemRepository.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.ExemptionRequest) error
	GetByID(ctx context.Context, id int64) (*entity.ExemptionRequest, error)
	GetByReference(ctx context.Context, reference string) (*entity.ExemptionRequest, error)
	ListByContract(ctx context.Context, contractID int64) ([]*entity.ExemptionRequest, error)
	Update(ctx context.Context, req *entity.ExemptionRequest) error
	UpdateStage(ctx context.Context, id int64, stage string) error
	Delete(ctx context.Context, id int64) error
}

// LineItemRepository stores the ordered line items of a request
type LineItemRepository interface {
	// ReplaceForRequest deletes the request's items and inserts items in order
	ReplaceForRequest(ctx context.Context, requestID int64, items []taxation.LineItem) error
	GetByRequestID(ctx context.Context, requestID int64) ([]taxation.LineItem, error)
}

// StageHistoryRepository defines persistence operations for StageHistory
type StageHistoryRepository interface {
	Create(ctx context.Context, history *entity.StageHistory) error
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.StageHistory, error)
}

// DocumentRepository defines persistence operations for Document
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, id int64) (*entity.Document, error)
	GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Document, error)
	Rename(ctx context.Context, id int64, fileName string) error
	Delete(ctx context.Context, id int64) error
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
