package service

import (
	"testing"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type dispatchFixture struct {
	svc        *dispatchService
	dispatches *MockDispatchRepository
	customers  *MockCustomerRepository
	orders     *MockProductionRepository
	events     *recordingPublisher
	index      *stubIndexer
}

func newDispatchFixture() *dispatchFixture {
	f := &dispatchFixture{
		dispatches: new(MockDispatchRepository),
		customers:  new(MockCustomerRepository),
		orders:     new(MockProductionRepository),
		events:     &recordingPublisher{},
		index:      &stubIndexer{},
	}
	svc := NewDispatchService(f.dispatches, f.customers, f.orders, f.events, f.index).(*dispatchService)
	svc.now = func() time.Time { return fixedNow }
	f.svc = svc
	return f
}

func TestCreateDispatchComputesTotals(t *testing.T) {
	ctx, tenantID := tenantContext()
	f := newDispatchFixture()
	customer := &models.Customer{Base: models.Base{ID: uuid.New(), TenantID: tenantID}, Name: "Bharat Garments"}

	f.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.dispatches.On("Create", mock.Anything, mock.AnythingOfType("*models.Dispatch")).Return(nil)

	dispatch, err := f.svc.Create(ctx, CreateDispatchRequest{
		CustomerID:    customer.ID,
		VehicleNumber: " gj05 ab 1234 ",
		DriverPhone:   "+91 98765 43210",
		Items: []DispatchItemRequest{
			{Description: "Printed rayon", Meters: dec("1200.5"), Rolls: 12, Rate: dec("85")},
			{Description: "Dyed cotton", Meters: dec("300"), Rolls: 3, Rate: dec("110.25")},
		},
	})

	require.NoError(t, err)
	assert.Contains(t, dispatch.DispatchNumber, "DS-20260418-")
	assert.Equal(t, models.DispatchPending, dispatch.Status)
	assert.Equal(t, "GJ05 AB 1234", dispatch.VehicleNumber)
	assert.Equal(t, "+919876543210", dispatch.DriverPhone)
	assert.True(t, dispatch.TotalMeters.Equal(dec("1500.5")))
	assert.True(t, dispatch.TotalAmount.Equal(dec("135117.5")))
	assert.Equal(t, 15, dispatch.TotalRolls)
	assert.Equal(t, customer, dispatch.Customer)
	assert.Equal(t, 1, f.index.dispatches)
}

func TestCreateDispatchValidation(t *testing.T) {
	ctx, _ := tenantContext()
	f := newDispatchFixture()

	tests := []struct {
		name string
		req  CreateDispatchRequest
	}{
		{name: "no items", req: CreateDispatchRequest{CustomerID: uuid.New()}},
		{name: "no customer", req: CreateDispatchRequest{Items: []DispatchItemRequest{{Description: "x", Meters: dec("1")}}}},
		{name: "zero meters", req: CreateDispatchRequest{CustomerID: uuid.New(), Items: []DispatchItemRequest{{Description: "x", Meters: dec("0")}}}},
		{name: "bad phone", req: CreateDispatchRequest{CustomerID: uuid.New(), DriverPhone: "12", Items: []DispatchItemRequest{{Description: "x", Meters: dec("1")}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, 400, api.AsError(err).StatusCode)
		})
	}
	f.dispatches.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateDispatchUnknownCustomer(t *testing.T) {
	ctx, _ := tenantContext()
	f := newDispatchFixture()
	id := uuid.New()

	f.customers.On("FindByID", mock.Anything, id).Return((*models.Customer)(nil), repository.ErrNotFound)

	_, err := f.svc.Create(ctx, CreateDispatchRequest{
		CustomerID: id,
		Items:      []DispatchItemRequest{{Description: "Greige", Meters: dec("10")}},
	})

	require.Error(t, err)
	assert.Equal(t, 400, api.AsError(err).StatusCode)
}

func TestUpdateDispatchStatus(t *testing.T) {
	tests := []struct {
		from, to models.DispatchStatus
		allowed  bool
	}{
		{models.DispatchPending, models.DispatchDispatched, true},
		{models.DispatchPending, models.DispatchCancelled, true},
		{models.DispatchDispatched, models.DispatchDelivered, true},
		{models.DispatchPending, models.DispatchDelivered, false},
		{models.DispatchDelivered, models.DispatchCancelled, false},
		{models.DispatchCancelled, models.DispatchPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			ctx, tenantID := tenantContext()
			f := newDispatchFixture()
			dispatch := &models.Dispatch{Base: models.Base{ID: uuid.New(), TenantID: tenantID}, DispatchNumber: "DS-1", Status: tt.from}

			f.dispatches.On("FindByID", mock.Anything, dispatch.ID).Return(dispatch, nil)
			f.dispatches.On("Update", mock.Anything, dispatch).Return(nil)

			updated, err := f.svc.UpdateStatus(ctx, dispatch.ID, DispatchStatusRequest{Status: string(tt.to)})

			if !tt.allowed {
				require.Error(t, err)
				assert.Equal(t, "INVALID_TRANSITION", api.AsError(err).Code)
				f.dispatches.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.to, updated.Status)
			assert.Equal(t, []string{messaging.EventDispatchChanged}, f.events.types())
			switch tt.to {
			case models.DispatchDispatched:
				assert.Equal(t, fixedNow, *updated.DispatchedAt)
			case models.DispatchDelivered:
				assert.Equal(t, fixedNow, *updated.DeliveredAt)
			}
		})
	}
}

func TestDeleteDispatchOnlyWhenPending(t *testing.T) {
	ctx, tenantID := tenantContext()
	f := newDispatchFixture()
	shipped := &models.Dispatch{Base: models.Base{ID: uuid.New(), TenantID: tenantID}, Status: models.DispatchDispatched}

	f.dispatches.On("FindByID", mock.Anything, shipped.ID).Return(shipped, nil)

	err := f.svc.Delete(ctx, shipped.ID)

	require.Error(t, err)
	assert.Equal(t, 409, api.AsError(err).StatusCode)
	f.dispatches.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
