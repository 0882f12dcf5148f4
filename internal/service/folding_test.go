package service

import (
	"testing"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newFoldingFixture() (*foldingService, *MockFoldingRepository, *MockProductionRepository, *recordingPublisher) {
	records := new(MockFoldingRepository)
	orders := new(MockProductionRepository)
	events := &recordingPublisher{}
	svc := NewFoldingService(records, orders, events, nil).(*foldingService)
	return svc, records, orders, events
}

func TestCreateFoldingRecordDerivesStatus(t *testing.T) {
	tests := []struct {
		name              string
		checked, rejected string
		status            string
		want              models.QCStatus
	}{
		{name: "clean batch", checked: "100", rejected: "0", want: models.QCPass},
		{name: "some rejects", checked: "90", rejected: "10", want: models.QCPartial},
		{name: "nothing passed", checked: "0", rejected: "60", want: models.QCFail},
		{name: "explicit status wins", checked: "90", rejected: "10", status: "pass", want: models.QCPass},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, tenantID := tenantContext()
			svc, records, _, events := newFoldingFixture()

			records.On("Create", mock.Anything, mock.AnythingOfType("*models.FoldingRecord")).Return(nil)

			record, err := svc.Create(ctx, FoldingRequest{
				BatchNumber:    "B-0042",
				InputMeters:    dec("100"),
				CheckedMeters:  dec(tt.checked),
				RejectedMeters: dec(tt.rejected),
				QCStatus:       tt.status,
			})

			require.NoError(t, err)
			assert.Equal(t, tt.want, record.QCStatus)
			assert.Equal(t, tenantID, record.TenantID)
			assert.NotNil(t, record.Defects)
			assert.False(t, record.CheckedAt.IsZero())
			assert.Equal(t, []string{messaging.EventFoldingRecorded}, events.types())
		})
	}
}

func TestCreateFoldingRecordEnforcesMeters(t *testing.T) {
	ctx, _ := tenantContext()
	svc, records, orders, _ := newFoldingFixture()
	orderID := uuid.New()

	_, err := svc.Create(ctx, FoldingRequest{
		OrderID:        &orderID,
		BatchNumber:    "B-0043",
		InputMeters:    dec("100"),
		CheckedMeters:  dec("95"),
		RejectedMeters: dec("5.01"),
	})

	require.Error(t, err)
	apiErr := api.AsError(err)
	assert.Equal(t, 400, apiErr.StatusCode)
	assert.Equal(t, models.ErrMetersExceedInput.Error(), apiErr.Message)
	orders.AssertNotCalled(t, "FindOrder", mock.Anything, mock.Anything)
	records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateFoldingRecordRequiresExistingOrder(t *testing.T) {
	ctx, _ := tenantContext()
	svc, records, orders, _ := newFoldingFixture()
	orderID := uuid.New()

	orders.On("FindOrder", mock.Anything, orderID).Return((*models.ProductionOrder)(nil), repository.ErrNotFound)

	_, err := svc.Create(ctx, FoldingRequest{
		OrderID:       &orderID,
		BatchNumber:   "B-0044",
		InputMeters:   dec("100"),
		CheckedMeters: dec("100"),
	})

	require.Error(t, err)
	assert.Equal(t, 400, api.AsError(err).StatusCode)
	records.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateFoldingRecordRevalidatesMergedMeters(t *testing.T) {
	ctx, tenantID := tenantContext()
	svc, records, _, _ := newFoldingFixture()
	record := &models.FoldingRecord{
		Base:           models.Base{ID: uuid.New(), TenantID: tenantID},
		BatchNumber:    "B-1",
		InputMeters:    dec("100"),
		CheckedMeters:  dec("80"),
		RejectedMeters: dec("10"),
		QCStatus:       models.QCPartial,
	}

	records.On("FindByID", mock.Anything, record.ID).Return(record, nil)

	tooMuch := dec("25")
	_, err := svc.Update(ctx, record.ID, UpdateFoldingRequest{RejectedMeters: &tooMuch})
	require.Error(t, err)
	assert.Equal(t, 400, api.AsError(err).StatusCode)
	records.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateFoldingRecordRederivesStatus(t *testing.T) {
	ctx, tenantID := tenantContext()
	svc, records, _, _ := newFoldingFixture()
	record := &models.FoldingRecord{
		Base:           models.Base{ID: uuid.New(), TenantID: tenantID},
		BatchNumber:    "B-2",
		InputMeters:    dec("100"),
		CheckedMeters:  dec("80"),
		RejectedMeters: dec("10"),
		QCStatus:       models.QCPartial,
	}

	records.On("FindByID", mock.Anything, record.ID).Return(record, nil)
	records.On("Update", mock.Anything, record).Return(nil)

	zero := dec("0")
	updated, err := svc.Update(ctx, record.ID, UpdateFoldingRequest{RejectedMeters: &zero})

	require.NoError(t, err)
	assert.Equal(t, models.QCPass, updated.QCStatus)
}

func TestFoldingOrderSummary(t *testing.T) {
	ctx, tenantID := tenantContext()
	svc, records, orders, _ := newFoldingFixture()
	order := newTestOrder(tenantID, "500")

	orders.On("FindOrder", mock.Anything, order.ID).Return(order, nil)
	records.On("ListByOrder", mock.Anything, order.ID).Return([]models.FoldingRecord{
		{InputMeters: dec("200"), CheckedMeters: dec("190"), RejectedMeters: dec("10"), QCStatus: models.QCPartial},
		{InputMeters: dec("300"), CheckedMeters: dec("300"), RejectedMeters: dec("0"), QCStatus: models.QCPass},
	}, nil)

	summary, err := svc.OrderSummary(ctx, order.ID)

	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.Records)
	assert.True(t, summary.InputMeters.Equal(dec("500")))
	assert.True(t, summary.RejectionRate.Equal(dec("2")))
	assert.Equal(t, int64(1), summary.ByStatus[models.QCPass])
}
