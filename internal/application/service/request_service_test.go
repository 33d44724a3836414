package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/exemption-tracker/internal/domain/entity"
	"github.com/garyjia/exemption-tracker/internal/domain/event"
	"github.com/garyjia/exemption-tracker/internal/domain/taxation"
	"github.com/garyjia/exemption-tracker/internal/domain/workflow"
)

type requestFixture struct {
	contracts *mockContractRepo
	requests  *mockRequestRepo
	items     *mockLineItemRepo
	history   *mockHistoryRepo
	folders   *mockFolders
	publisher *mockPublisher
	service   RequestService
}

func newRequestFixture() *requestFixture {
	f := &requestFixture{
		contracts: &mockContractRepo{},
		requests:  &mockRequestRepo{},
		items:     &mockLineItemRepo{},
		history:   &mockHistoryRepo{},
		folders:   &mockFolders{},
		publisher: &mockPublisher{},
	}
	f.service = NewRequestService(f.contracts, f.requests, f.items, f.history, f.folders, &mockTxManager{}, f.publisher, &mockLogger{})
	return f
}

func localItem(label string) taxation.LineItem {
	return taxation.LineItem{
		Label:      label,
		Quantity:   10,
		UnitPrice:  5,
		TaxRate:    16,
		CustomDuty: taxation.DutyTVA,
		IssueDate:  "2024-03-01",
	}
}

func TestPrepareItems(t *testing.T) {
	items := []taxation.LineItem{
		localItem("  Laptops "),
		{},
		{Label: "Cables", Quantity: 2, UnitPrice: 3, TaxRate: 10, CustomDuty: taxation.DutyTVA, IssueDate: "2024-03-01"},
	}

	prepared, itemErrs := PrepareItems(items, taxation.CategoryLocalAcquisition)

	require.Len(t, prepared, 2, "blank row should be dropped")
	assert.Equal(t, "Laptops", prepared[0].Label)
	assert.Equal(t, 58.0, prepared[0].VatIncluded)

	require.Len(t, itemErrs, 1)
	assert.Equal(t, 2, itemErrs[0].Index, "index refers to the submitted position")
	assert.Equal(t, taxation.TaxRateConstraintViolated, itemErrs[0].Errors[0].Kind)
}

func TestPrepareItems_ClearsForeignCategoryFields(t *testing.T) {
	local := localItem("Desk")
	local.ItIc = taxation.ItIcIT
	local.TariffPosition = "8471.30"

	prepared, _ := PrepareItems([]taxation.LineItem{local}, taxation.CategoryLocalAcquisition)
	require.Len(t, prepared, 1)
	assert.Equal(t, taxation.ItIcNone, prepared[0].ItIc)
	assert.Empty(t, prepared[0].TariffPosition)
	assert.Equal(t, 8.0, prepared[0].TaxAmount, "IT flag must not zero tax outside importation")

	imp := taxation.LineItem{
		Label:             "Generator",
		Quantity:          4,
		UnitPrice:         100,
		CustomDuty:        taxation.DutyDroitsEntree,
		ItIc:              taxation.ItIcIT,
		IssueDate:         "2024-03-01",
		NatureOfOperation: "purchase",
	}
	prepared, itemErrs := PrepareItems([]taxation.LineItem{imp}, taxation.CategoryImportation)
	require.Len(t, prepared, 1)
	assert.Empty(t, itemErrs)
	assert.Empty(t, prepared[0].IssueDate)
	assert.Empty(t, prepared[0].NatureOfOperation)
	assert.Equal(t, 400.0, prepared[0].VatIncluded)
}

// hugeImportItem is valid on its own but its VAT-inclusive amount sits at the top of the float range
func hugeImportItem(label string) taxation.LineItem {
	return taxation.LineItem{
		Label:      label,
		Quantity:   1,
		UnitPrice:  1e308,
		CustomDuty: taxation.DutyDroitsEntree,
		ItIc:       taxation.ItIcIT,
	}
}

func TestPrepareItems_RejectsUnknownItIc(t *testing.T) {
	item := taxation.LineItem{Label: "Pumps", Quantity: 1, UnitPrice: 10, TaxRate: 5, CustomDuty: taxation.DutyDroitsEntree, ItIc: "XX"}

	prepared, itemErrs := PrepareItems([]taxation.LineItem{item}, taxation.CategoryImportation)

	require.Len(t, prepared, 1)
	require.Len(t, itemErrs, 1)
	var kinds []taxation.ErrorKind
	for _, e := range itemErrs[0].Errors {
		kinds = append(kinds, e.Kind)
	}
	assert.Contains(t, kinds, taxation.ItIcInvalid)
}

func TestPrepareItems_RejectsOverflowingAmounts(t *testing.T) {
	item := taxation.LineItem{Label: "Bulk", Quantity: 1e200, UnitPrice: 1e200, CustomDuty: taxation.DutyDroitsEntree, ItIc: taxation.ItIcIT}

	_, itemErrs := PrepareItems([]taxation.LineItem{item}, taxation.CategoryImportation)

	require.Len(t, itemErrs, 1)
	require.Len(t, itemErrs[0].Errors, 1)
	assert.Equal(t, taxation.AmountOutOfRange, itemErrs[0].Errors[0].Kind)

	_, itemErrs = PrepareItems([]taxation.LineItem{hugeImportItem("Turbine")}, taxation.CategoryImportation)
	assert.Empty(t, itemErrs, "a single item at the top of the range is still finite")
}

func TestRequestService_Create(t *testing.T) {
	f := newRequestFixture()

	var (
		savedItems []taxation.LineItem
		history    *entity.StageHistory
	)
	f.requests.createFunc = func(ctx context.Context, req *entity.ExemptionRequest) error {
		req.ID = 42
		return nil
	}
	f.items.replaceFunc = func(ctx context.Context, requestID int64, items []taxation.LineItem) error {
		assert.Equal(t, int64(42), requestID)
		savedItems = items
		return nil
	}
	f.history.createFunc = func(ctx context.Context, h *entity.StageHistory) error {
		history = h
		return nil
	}

	req, err := f.service.Create(context.Background(), 7, RequestInput{
		Reference:   " REQ-2024/001 ",
		Title:       "Laptops",
		TaxCategory: taxation.CategoryLocalAcquisition,
		Items:       []taxation.LineItem{localItem("Laptops"), {}},
	})

	require.NoError(t, err)
	assert.Equal(t, int64(42), req.ID)
	assert.Equal(t, "REQ-2024/001", req.Reference)
	assert.Equal(t, workflow.StageApplicationSubmission.String(), req.CurrentStage)
	assert.Len(t, savedItems, 1)
	assert.Equal(t, taxation.Summary{ItemCount: 1, Total: 50, TaxAmount: 8, VatIncluded: 58}, req.Summary)

	require.NotNil(t, history)
	assert.Equal(t, entity.ActionCreated, history.Action)
	assert.Equal(t, req.CurrentStage, history.NewStage)

	assert.Equal(t, []event.Type{event.TypeRequestCreated}, f.publisher.types())
}

func TestRequestService_Create_RejectsInvalidItemsWithoutPersisting(t *testing.T) {
	f := newRequestFixture()

	persisted := false
	f.requests.createFunc = func(ctx context.Context, req *entity.ExemptionRequest) error {
		persisted = true
		return nil
	}
	f.items.replaceFunc = func(ctx context.Context, requestID int64, items []taxation.LineItem) error {
		persisted = true
		return nil
	}

	bad := localItem("Laptops")
	bad.CustomDuty = ""

	_, err := f.service.Create(context.Background(), 1, RequestInput{
		Reference:   "REQ-1",
		TaxCategory: taxation.CategoryLocalAcquisition,
		Items:       []taxation.LineItem{localItem("ok"), bad},
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Items, 1)
	assert.Equal(t, 1, verr.Items[0].Index)
	assert.Equal(t, taxation.CustomDutyRequired, verr.Items[0].Errors[0].Kind)

	assert.False(t, persisted)
	assert.Empty(t, f.publisher.types())
}

func TestRequestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name      string
		in        RequestInput
		existing  *entity.ExemptionRequest
		wantField string
	}{
		{
			name:      "missing reference",
			in:        RequestInput{TaxCategory: taxation.CategoryImportation},
			wantField: "reference",
		},
		{
			name:      "malformed reference",
			in:        RequestInput{Reference: "#bad ref", TaxCategory: taxation.CategoryImportation},
			wantField: "reference",
		},
		{
			name:      "unknown category",
			in:        RequestInput{Reference: "REQ-1", TaxCategory: "export"},
			wantField: "tax_category",
		},
		{
			name:      "duplicate reference",
			in:        RequestInput{Reference: "REQ-1", TaxCategory: taxation.CategoryImportation},
			existing:  &entity.ExemptionRequest{ID: 99, Reference: "REQ-1"},
			wantField: "reference",
		},
		{
			name: "totals overflow",
			in: RequestInput{
				Reference:   "REQ-1",
				TaxCategory: taxation.CategoryImportation,
				Items:       []taxation.LineItem{hugeImportItem("Turbine A"), hugeImportItem("Turbine B")},
			},
			wantField: "items",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestFixture()
			f.requests.getByReferenceFunc = func(ctx context.Context, reference string) (*entity.ExemptionRequest, error) {
				return tt.existing, nil
			}

			_, err := f.service.Create(context.Background(), 1, tt.in)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "error = %v", err)
			require.NotEmpty(t, verr.Fields)
			assert.Equal(t, tt.wantField, verr.Fields[0].Field)
		})
	}
}

func TestRequestService_Create_ContractNotFound(t *testing.T) {
	f := newRequestFixture()
	f.contracts.getByIDFunc = func(ctx context.Context, id int64) (*entity.Contract, error) {
		return nil, nil
	}

	_, err := f.service.Create(context.Background(), 5, RequestInput{Reference: "REQ-1", TaxCategory: taxation.CategoryImportation})

	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRequestService_Create_TransactionFailure(t *testing.T) {
	f := newRequestFixture()
	f.history.createFunc = func(ctx context.Context, h *entity.StageHistory) error {
		return errors.New("disk full")
	}

	_, err := f.service.Create(context.Background(), 1, RequestInput{
		Reference:   "REQ-1",
		TaxCategory: taxation.CategoryLocalAcquisition,
		Items:       []taxation.LineItem{localItem("Laptops")},
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, f.publisher.types())
}

func TestRequestService_Update_AllowsOwnReference(t *testing.T) {
	f := newRequestFixture()
	f.requests.getByReferenceFunc = func(ctx context.Context, reference string) (*entity.ExemptionRequest, error) {
		return &entity.ExemptionRequest{ID: 3, Reference: reference}, nil
	}

	var updated *entity.ExemptionRequest
	f.requests.updateFunc = func(ctx context.Context, req *entity.ExemptionRequest) error {
		updated = req
		return nil
	}

	req, err := f.service.Update(context.Background(), 3, RequestInput{
		Reference:   "REQ-1",
		Title:       "Renamed",
		TaxCategory: taxation.CategoryLocalAcquisition,
		Items:       []taxation.LineItem{localItem("a"), localItem("b")},
	})

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "Renamed", req.Title)
	assert.Equal(t, 2, req.Summary.ItemCount)
	assert.Equal(t, []event.Type{event.TypeRequestUpdated}, f.publisher.types())
}

func TestRequestService_Get(t *testing.T) {
	f := newRequestFixture()
	f.items.getByRequestIDFunc = func(ctx context.Context, requestID int64) ([]taxation.LineItem, error) {
		return []taxation.LineItem{{Total: 50, TaxAmount: 8, VatIncluded: 58}}, nil
	}

	req, err := f.service.Get(context.Background(), 1)

	require.NoError(t, err)
	assert.Len(t, req.Items, 1)
	assert.Equal(t, 58.0, req.Summary.VatIncluded)

	f.requests.getByIDFunc = func(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
		return nil, nil
	}
	_, err = f.service.Get(context.Background(), 2)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRequestService_Advance(t *testing.T) {
	f := newRequestFixture()
	f.requests.getByIDFunc = func(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
		return &entity.ExemptionRequest{ID: id, Reference: "REQ-1", CurrentStage: "Financial Review"}, nil
	}

	var storedStage string
	f.requests.updateStageFunc = func(ctx context.Context, id int64, stage string) error {
		storedStage = stage
		return nil
	}
	var history *entity.StageHistory
	f.history.createFunc = func(ctx context.Context, h *entity.StageHistory) error {
		history = h
		return nil
	}

	req, err := f.service.Advance(context.Background(), 1, StageActionInput{Actor: " alice ", Comment: "ok"})

	require.NoError(t, err)
	assert.Equal(t, "Calculation Notes Transmission", req.CurrentStage)
	assert.Equal(t, req.CurrentStage, storedStage)

	require.NotNil(t, history)
	assert.Equal(t, "Financial Review", history.PreviousStage)
	assert.Equal(t, "Calculation Notes Transmission", history.NewStage)
	assert.Equal(t, entity.ActionAdvanced, history.Action)
	assert.Equal(t, "alice", history.Actor)

	assert.Equal(t, []event.Type{event.TypeRequestStageChanged}, f.publisher.types())
}

func TestRequestService_Return(t *testing.T) {
	f := newRequestFixture()
	f.requests.getByIDFunc = func(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
		return &entity.ExemptionRequest{ID: id, CurrentStage: "Coordinator Review"}, nil
	}

	req, err := f.service.Return(context.Background(), 1, StageActionInput{})

	require.NoError(t, err)
	assert.Equal(t, "Secretariat Review", req.CurrentStage)
}

func TestRequestService_StageChangeRefused(t *testing.T) {
	tests := []struct {
		name    string
		stage   string
		move    func(RequestService) error
		wantErr error
	}{
		{
			name:  "advance past title generation",
			stage: "Title Generation",
			move: func(s RequestService) error {
				_, err := s.Advance(context.Background(), 1, StageActionInput{})
				return err
			},
			wantErr: workflow.ErrInvalidTransition,
		},
		{
			name:  "return from first stage",
			stage: "Application Submission",
			move: func(s RequestService) error {
				_, err := s.Return(context.Background(), 1, StageActionInput{})
				return err
			},
			wantErr: workflow.ErrInvalidTransition,
		},
		{
			name:  "unknown stored stage",
			stage: "Archived",
			move: func(s RequestService) error {
				_, err := s.Advance(context.Background(), 1, StageActionInput{})
				return err
			},
			wantErr: workflow.ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRequestFixture()
			f.requests.getByIDFunc = func(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
				return &entity.ExemptionRequest{ID: id, CurrentStage: tt.stage}, nil
			}
			f.requests.updateStageFunc = func(ctx context.Context, id int64, stage string) error {
				t.Fatal("stage must not be stored")
				return nil
			}

			err := tt.move(f.service)

			assert.True(t, errors.Is(err, tt.wantErr), "error = %v", err)
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestRequestService_Progress(t *testing.T) {
	f := newRequestFixture()
	f.requests.getByIDFunc = func(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
		return &entity.ExemptionRequest{ID: id, CurrentStage: "  financial review "}, nil
	}

	progress, err := f.service.Progress(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, 3, progress.CurrentIndex)
	require.Len(t, progress.Stages, len(workflow.Stages))
	assert.Equal(t, workflow.StatusCompleted, progress.Stages[2].Status)
	assert.Equal(t, workflow.StatusCurrent, progress.Stages[3].Status)
	assert.Equal(t, workflow.StatusPending, progress.Stages[4].Status)
	assert.Equal(t, []workflow.Trigger{workflow.TriggerAdvance, workflow.TriggerReturn}, progress.PermittedActions)
}

func TestRequestService_Delete(t *testing.T) {
	f := newRequestFixture()

	var deletedID int64
	f.requests.deleteFunc = func(ctx context.Context, id int64) error {
		deletedID = id
		return nil
	}

	require.NoError(t, f.service.Delete(context.Background(), 8))

	assert.Equal(t, int64(8), deletedID)
	assert.Equal(t, []string{"request_8"}, f.folders.deleted)
	assert.Equal(t, []event.Type{event.TypeRequestDeleted}, f.publisher.types())
}

func TestRequestService_History_NotFound(t *testing.T) {
	f := newRequestFixture()
	f.requests.getByIDFunc = func(ctx context.Context, id int64) (*entity.ExemptionRequest, error) {
		return nil, nil
	}

	_, err := f.service.History(context.Background(), 1)

	assert.True(t, errors.Is(err, ErrNotFound))
}
