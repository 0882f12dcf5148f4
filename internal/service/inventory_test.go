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

type inventoryFixture struct {
	svc       InventoryService
	tx        *fakeTx
	items     *MockInventoryRepository
	suppliers *MockSupplierRepository
	events    *recordingPublisher
}

func newInventoryFixture() *inventoryFixture {
	f := &inventoryFixture{
		tx:        &fakeTx{},
		items:     new(MockInventoryRepository),
		suppliers: new(MockSupplierRepository),
		events:    &recordingPublisher{},
	}
	f.svc = NewInventoryService(f.tx, f.items, f.suppliers, f.events, nil)
	return f
}

func stockItem(tenantID uuid.UUID, qty string) *models.InventoryItem {
	return &models.InventoryItem{
		Base:         models.Base{ID: uuid.New(), TenantID: tenantID},
		SKU:          "DYE-RED-01",
		Name:         "Reactive red",
		Category:     models.CategoryDye,
		Unit:         "kg",
		Quantity:     dec(qty),
		ReorderLevel: dec("20"),
		UnitCost:     dec("450"),
	}
}

func TestCreateItemBooksOpeningBalance(t *testing.T) {
	ctx, tenantID := tenantContext()
	f := newInventoryFixture()

	f.items.On("SKUExists", mock.Anything, "DYE-RED-01", uuid.Nil).Return(false, nil)
	f.items.On("CreateItem", mock.Anything, mock.AnythingOfType("*models.InventoryItem")).Return(nil)
	f.items.On("CreateMovement", mock.Anything, mock.MatchedBy(func(m *models.StockMovement) bool {
		return m.Type == models.MovementIn && m.Quantity.Equal(dec("75")) && m.BalanceAfter.Equal(dec("75"))
	})).Return(nil)

	item, err := f.svc.CreateItem(ctx, CreateItemRequest{
		SKU:      " DYE-RED-01 ",
		Name:     "Reactive red",
		Category: string(models.CategoryDye),
		Unit:     "kg",
		Quantity: dec("75"),
	})

	require.NoError(t, err)
	assert.Equal(t, tenantID, item.TenantID)
	assert.Equal(t, "DYE-RED-01", item.SKU)
	f.items.AssertExpectations(t)
}

func TestCreateItemWithoutStockSkipsMovement(t *testing.T) {
	ctx, _ := tenantContext()
	f := newInventoryFixture()

	f.items.On("SKUExists", mock.Anything, "CHEM-1", uuid.Nil).Return(false, nil)
	f.items.On("CreateItem", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CreateItem(ctx, CreateItemRequest{SKU: "CHEM-1", Name: "Soda ash", Category: "chemical"})

	require.NoError(t, err)
	f.items.AssertNotCalled(t, "CreateMovement", mock.Anything, mock.Anything)
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	ctx, _ := tenantContext()
	f := newInventoryFixture()

	f.items.On("SKUExists", mock.Anything, "CHEM-1", uuid.Nil).Return(true, nil)

	_, err := f.svc.CreateItem(ctx, CreateItemRequest{SKU: "CHEM-1", Name: "Soda ash", Category: "chemical"})

	require.Error(t, err)
	assert.Equal(t, 409, api.AsError(err).StatusCode)
}

func TestRecordMovement(t *testing.T) {
	tests := []struct {
		name        string
		stock       string
		req         MovementRequest
		wantBalance string
		wantStatus  int
		wantCode    string
	}{
		{name: "in adds", stock: "50", req: MovementRequest{Type: "in", Quantity: dec("25")}, wantBalance: "75"},
		{name: "out subtracts", stock: "50", req: MovementRequest{Type: "out", Quantity: dec("50")}, wantBalance: "0"},
		{name: "adjustment sets", stock: "50", req: MovementRequest{Type: "adjustment", Quantity: dec("12.5")}, wantBalance: "12.5"},
		{name: "adjustment to zero", stock: "50", req: MovementRequest{Type: "adjustment", Quantity: dec("0")}, wantBalance: "0"},
		{name: "out below zero", stock: "10", req: MovementRequest{Type: "out", Quantity: dec("10.01")}, wantStatus: 409, wantCode: "INSUFFICIENT_STOCK"},
		{name: "zero in", stock: "10", req: MovementRequest{Type: "in", Quantity: dec("0")}, wantStatus: 400, wantCode: "VALIDATION_ERROR"},
		{name: "unknown type", stock: "10", req: MovementRequest{Type: "transfer", Quantity: dec("1")}, wantStatus: 400, wantCode: "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, tenantID := tenantContext()
			f := newInventoryFixture()
			item := stockItem(tenantID, tt.stock)

			f.items.On("FindItemForUpdate", mock.Anything, item.ID).Return(item, nil)
			f.items.On("UpdateItem", mock.Anything, item).Return(nil)
			f.items.On("CreateMovement", mock.Anything, mock.AnythingOfType("*models.StockMovement")).Return(nil)

			movement, err := f.svc.RecordMovement(ctx, item.ID, tt.req)

			if tt.wantStatus != 0 {
				require.Error(t, err)
				apiErr := api.AsError(err)
				assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				f.items.AssertNotCalled(t, "UpdateItem", mock.Anything, mock.Anything)
				f.items.AssertNotCalled(t, "CreateMovement", mock.Anything, mock.Anything)
				assert.Empty(t, f.events.types())
				return
			}

			require.NoError(t, err)
			assert.True(t, movement.BalanceAfter.Equal(dec(tt.wantBalance)), "balance %s", movement.BalanceAfter)
			assert.True(t, item.Quantity.Equal(dec(tt.wantBalance)))
			assert.Equal(t, "supervisor", movement.CreatedBy)
			assert.Equal(t, []string{messaging.EventStockMoved}, f.events.types())
		})
	}
}

func TestRecordMovementItemNotFound(t *testing.T) {
	ctx, _ := tenantContext()
	f := newInventoryFixture()
	id := uuid.New()

	f.items.On("FindItemForUpdate", mock.Anything, id).Return((*models.InventoryItem)(nil), repository.ErrNotFound)

	_, err := f.svc.RecordMovement(ctx, id, MovementRequest{Type: "in", Quantity: dec("1")})

	require.Error(t, err)
	assert.Equal(t, 404, api.AsError(err).StatusCode)
}
