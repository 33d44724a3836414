package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
	"github.com/garyjia/exemption-tracker/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/exemption-tracker/migrations"
	"github.com/garyjia/exemption-tracker/pkg/database"
)

type testStore struct {
	tx        *sqlite.DB
	projects  *ProjectRepository
	contracts *ContractRepository
	requests  *RequestRepository
	items     *LineItemRepository
	history   *StageHistoryRepository
	documents *DocumentRepository
}

func newTestStore(t *testing.T) *testStore {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{Path: filepath.Join(t.TempDir(), "repo.db")}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.NewMigrator(db, logger).Run(migrations.FS, "."))

	return &testStore{
		tx:        sqlite.NewDB(db.DB, logger),
		projects:  NewProjectRepository(db.DB, logger).(*ProjectRepository),
		contracts: NewContractRepository(db.DB, logger).(*ContractRepository),
		requests:  NewRequestRepository(db.DB, logger).(*RequestRepository),
		items:     NewLineItemRepository(db.DB, logger).(*LineItemRepository),
		history:   NewStageHistoryRepository(db.DB, logger).(*StageHistoryRepository),
		documents: NewDocumentRepository(db.DB, logger).(*DocumentRepository),
	}
}

func (s *testStore) seedRequest(t *testing.T, reference string) *entity.ExemptionRequest {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	project := &entity.Project{Name: "Roads", Reference: "PRJ-" + reference, Status: entity.ProjectStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.projects.Create(ctx, project))

	contract := &entity.Contract{ProjectID: project.ID, Reference: "CTR-1", Title: "Asphalt", Currency: "USD", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.contracts.Create(ctx, contract))

	req := &entity.ExemptionRequest{
		ContractID:   contract.ID,
		Reference:    reference,
		Title:        "Bitumen",
		TaxCategory:  taxation.CategoryImportation,
		CurrentStage: "Application Submission",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, s.requests.Create(ctx, req))
	return req
}

func TestProjectRepository_CRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	project := &entity.Project{Name: "Water", Reference: "PRJ-W", Status: entity.ProjectStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.projects.Create(ctx, project))
	require.NotZero(t, project.ID)

	got, err := s.projects.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRJ-W", got.Reference)

	project.Status = entity.ProjectStatusClosed
	require.NoError(t, s.projects.Update(ctx, project))

	list, err := s.projects.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entity.ProjectStatusClosed, list[0].Status)

	require.NoError(t, s.projects.Delete(ctx, project.ID))
	got, err = s.projects.GetByID(ctx, project.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestContractRepository_SignedAt(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	project := &entity.Project{Name: "p", Reference: "PRJ-1", Status: entity.ProjectStatusActive, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.projects.Create(ctx, project))

	signed := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	withDate := &entity.Contract{ProjectID: project.ID, Reference: "CTR-A", Title: "a", Currency: "EUR", SignedAt: &signed, CreatedAt: now, UpdatedAt: now}
	withoutDate := &entity.Contract{ProjectID: project.ID, Reference: "CTR-B", Title: "b", Currency: "USD", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, s.contracts.Create(ctx, withDate))
	require.NoError(t, s.contracts.Create(ctx, withoutDate))

	list, err := s.contracts.ListByProject(ctx, project.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].SignedAt)
	assert.True(t, signed.Equal(*list[0].SignedAt))
	assert.Nil(t, list[1].SignedAt)
}

func TestLineItemRepository_ReplaceKeepsOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	req := s.seedRequest(t, "REQ-1")

	first := []taxation.LineItem{
		{Label: "a", Quantity: 1, UnitPrice: 10, TaxRate: 16, CustomDuty: taxation.DutyTVAImportation, ItIc: taxation.ItIcIC, Total: 10, TaxAmount: 1.6, VatIncluded: 11.6},
		{Label: "b", Quantity: 2, UnitPrice: 5, CustomDuty: taxation.DutyDroitsEntree, ItIc: taxation.ItIcIT, TariffPosition: "2713.20", Total: 10, VatIncluded: 10},
	}
	require.NoError(t, s.items.ReplaceForRequest(ctx, req.ID, first))

	got, err := s.items.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, first, got)

	second := []taxation.LineItem{{Label: "c", Quantity: 1, UnitPrice: 1}}
	require.NoError(t, s.items.ReplaceForRequest(ctx, req.ID, second))

	got, err = s.items.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, second, got)
}

func TestTransaction_RollbackLeavesNothing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	req := s.seedRequest(t, "REQ-1")

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.requests.UpdateStage(txCtx, req.ID, "Secretariat Review"); err != nil {
			return err
		}
		if err := s.history.Create(txCtx, &entity.StageHistory{RequestID: req.ID, NewStage: "Secretariat Review", Action: entity.ActionAdvanced, Timestamp: time.Now()}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := s.requests.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Application Submission", got.CurrentStage)

	history, err := s.history.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestRequestRepository_Lookups(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	req := s.seedRequest(t, "REQ-9")

	got, err := s.requests.GetByReference(ctx, "REQ-9")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, taxation.CategoryImportation, got.TaxCategory)

	missing, err := s.requests.GetByReference(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := s.requests.ListByContract(ctx, req.ContractID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	assert.Error(t, s.requests.UpdateStage(ctx, 9999, "Title Generation"))
}

func TestRequestRepository_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	req := s.seedRequest(t, "REQ-1")

	require.NoError(t, s.items.ReplaceForRequest(ctx, req.ID, []taxation.LineItem{{Label: "x"}}))
	require.NoError(t, s.history.Create(ctx, &entity.StageHistory{RequestID: req.ID, NewStage: "Application Submission", Action: entity.ActionCreated, Timestamp: time.Now()}))
	doc := &entity.Document{RequestID: req.ID, StorageKey: "request_1/a.pdf", FileName: "a.pdf", MimeType: "application/pdf", FileSize: 3, PageCount: 2, CreatedAt: time.Now()}
	require.NoError(t, s.documents.Create(ctx, doc))

	require.NoError(t, s.requests.Delete(ctx, req.ID))

	items, err := s.items.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, items)

	history, err := s.history.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	got, err := s.documents.GetByID(ctx, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestDocumentRepository_Rename(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	req := s.seedRequest(t, "REQ-1")

	doc := &entity.Document{RequestID: req.ID, StorageKey: "request_1/b.pdf", FileName: "b.pdf", CreatedAt: time.Now()}
	require.NoError(t, s.documents.Create(ctx, doc))
	require.NoError(t, s.documents.Rename(ctx, doc.ID, "invoice.pdf"))

	docs, err := s.documents.GetByRequestID(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "invoice.pdf", docs[0].FileName)
	assert.Equal(t, "request_1/b.pdf", docs[0].StorageKey)
}
