package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/event"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
)

// Mock repositories
type mockProjectRepo struct {
	createFunc  func(ctx context.Context, project *entity.Project) error
	getByIDFunc func(ctx context.Context, id int64) (*entity.Project, error)
	listFunc    func(ctx context.Context, limit, offset int) ([]*entity.Project, error)
	updateFunc  func(ctx context.Context, project *entity.Project) error
	deleteFunc  func(ctx context.Context, id int64) error
}

func (m *mockProjectRepo) Create(ctx context.Context, project *entity.Project) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, project)
	}
	project.ID = 1
	return nil
}

func (m *mockProjectRepo) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Project{ID: id, Name: "Project", Reference: "PRJ-1", Status: entity.ProjectStatusActive}, nil
}

func (m *mockProjectRepo) List(ctx context.Context, limit, offset int) ([]*entity.Project, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return []*entity.Project{}, nil
}

func (m *mockProjectRepo) Update(ctx context.Context, project *entity.Project) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, project)
	}
	return nil
}

func (m *mockProjectRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockContractRepo struct {
	createFunc        func(ctx context.Context, contract *entity.Contract) error
	getByIDFunc       func(ctx context.Context, id int64) (*entity.Contract, error)
	listByProjectFunc func(ctx context.Context, projectID int64) ([]*entity.Contract, error)
	updateFunc        func(ctx context.Context, contract *entity.Contract) error
	deleteFunc        func(ctx context.Context, id int64) error
}

func (m *mockContractRepo) Create(ctx context.Context, contract *entity.Contract) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, contract)
	}
	contract.ID = 1
	return nil
}

func (m *mockContractRepo) GetByID(ctx context.Context, id int64) (*entity.Contract, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.Contract{ID: id, ProjectID: 1, Reference: "CTR-1", Title: "Supply", Currency: "USD"}, nil
}

func (m *mockContractRepo) ListByProject(ctx context.Context, projectID int64) ([]*entity.Contract, error) {
	if m.listByProjectFunc != nil {
		return m.listByProjectFunc(ctx, projectID)
	}
	return []*entity.Contract{}, nil
}

func (m *mockContractRepo) Update(ctx context.Context, contract *entity.Contract) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, contract)
	}
	return nil
}

func (m *mockContractRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockRequestRepo struct {
	createFunc         func(ctx context.Context, req *entity.ExemptionRequest) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.ExemptionRequest, error)
	getByReferenceFunc func(ctx context.Context, reference string) (*entity.ExemptionRequest, error)
	listByContractFunc func(ctx context.Context, contractID int64) ([]*entity.ExemptionRequest, error)
	updateFunc         func(ctx context.Context, req *entity.ExemptionRequest) error
	updateStageFunc    func(ctx context.Context, id int64, stage string) error
	deleteFunc         func(ctx context.Context, id int64) error
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.ExemptionRequest) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	req.ID = 1
	return nil
}

func (m *mockRequestRepo) GetByID(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &entity.ExemptionRequest{
		ID:           id,
		ContractID:   1,
		Reference:    "REQ-1",
		TaxCategory:  taxation.CategoryLocalAcquisition,
		CurrentStage: "Application Submission",
	}, nil
}

func (m *mockRequestRepo) GetByReference(ctx context.Context, reference string) (*entity.ExemptionRequest, error) {
	if m.getByReferenceFunc != nil {
		return m.getByReferenceFunc(ctx, reference)
	}
	return nil, nil
}

func (m *mockRequestRepo) ListByContract(ctx context.Context, contractID int64) ([]*entity.ExemptionRequest, error) {
	if m.listByContractFunc != nil {
		return m.listByContractFunc(ctx, contractID)
	}
	return []*entity.ExemptionRequest{}, nil
}

func (m *mockRequestRepo) Update(ctx context.Context, req *entity.ExemptionRequest) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, req)
	}
	return nil
}

func (m *mockRequestRepo) UpdateStage(ctx context.Context, id int64, stage string) error {
	if m.updateStageFunc != nil {
		return m.updateStageFunc(ctx, id, stage)
	}
	return nil
}

func (m *mockRequestRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockLineItemRepo struct {
	replaceFunc        func(ctx context.Context, requestID int64, items []taxation.LineItem) error
	getByRequestIDFunc func(ctx context.Context, requestID int64) ([]taxation.LineItem, error)
}

func (m *mockLineItemRepo) ReplaceForRequest(ctx context.Context, requestID int64, items []taxation.LineItem) error {
	if m.replaceFunc != nil {
		return m.replaceFunc(ctx, requestID, items)
	}
	return nil
}

func (m *mockLineItemRepo) GetByRequestID(ctx context.Context, requestID int64) ([]taxation.LineItem, error) {
	if m.getByRequestIDFunc != nil {
		return m.getByRequestIDFunc(ctx, requestID)
	}
	return []taxation.LineItem{}, nil
}

type mockHistoryRepo struct {
	createFunc         func(ctx context.Context, history *entity.StageHistory) error
	getByRequestIDFunc func(ctx context.Context, requestID int64) ([]*entity.StageHistory, error)
}

func (m *mockHistoryRepo) Create(ctx context.Context, history *entity.StageHistory) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, history)
	}
	return nil
}

func (m *mockHistoryRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.StageHistory, error) {
	if m.getByRequestIDFunc != nil {
		return m.getByRequestIDFunc(ctx, requestID)
	}
	return []*entity.StageHistory{}, nil
}

type mockDocumentRepo struct {
	createFunc         func(ctx context.Context, doc *entity.Document) error
	getByIDFunc        func(ctx context.Context, id int64) (*entity.Document, error)
	getByRequestIDFunc func(ctx context.Context, requestID int64) ([]*entity.Document, error)
	renameFunc         func(ctx context.Context, id int64, fileName string) error
	deleteFunc         func(ctx context.Context, id int64) error
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, doc)
	}
	doc.ID = 1
	return nil
}

func (m *mockDocumentRepo) GetByID(ctx context.Context, id int64) (*entity.Document, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockDocumentRepo) GetByRequestID(ctx context.Context, requestID int64) ([]*entity.Document, error) {
	if m.getByRequestIDFunc != nil {
		return m.getByRequestIDFunc(ctx, requestID)
	}
	return []*entity.Document{}, nil
}

func (m *mockDocumentRepo) Rename(ctx context.Context, id int64, fileName string) error {
	if m.renameFunc != nil {
		return m.renameFunc(ctx, id, fileName)
	}
	return nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

type mockTxManager struct {
	withTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.withTransactionFunc != nil {
		return m.withTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// memStorage is an in-memory FileStorage
type memStorage struct {
	mu      sync.Mutex
	files   map[string][]byte
	deleted []string
	saveErr error
}

func newMemStorage() *memStorage {
	return &memStorage{files: make(map[string][]byte)}
}

func (m *memStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), content...)
	return nil
}

func (m *memStorage) Read(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path)
	}
	return content, nil
}

func (m *memStorage) Exists(ctx context.Context, path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[path]
	return ok
}

func (m *memStorage) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
	m.deleted = append(m.deleted, path)
	return nil
}

func (m *memStorage) GetFullPath(relativePath string) string {
	return "/mem/" + relativePath
}

type mockFolders struct {
	deleted []string
}

func (m *mockFolders) CreateFolder(ctx context.Context, name string) (string, error) {
	return m.GetPath(name), nil
}

func (m *mockFolders) GetPath(name string) string {
	return "/mem/" + name
}

func (m *mockFolders) Exists(name string) bool {
	return false
}

func (m *mockFolders) Delete(ctx context.Context, name string) error {
	m.deleted = append(m.deleted, name)
	return nil
}

func (m *mockFolders) SanitizeName(name string) string {
	return name
}

type mockPublisher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockPublisher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockPublisher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}
