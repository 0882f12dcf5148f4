package service

import (
	"context"
	"net/http"
	"strings"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CreateItemRequest adds an item to inventory. A positive opening quantity
// is booked as an inward movement.
type CreateItemRequest struct {
	SKU          string          `json:"sku" validate:"required,max=50"`
	Name         string          `json:"name" validate:"required,max=200"`
	Category     string          `json:"category" validate:"required,oneof=grey_fabric finished_fabric dye chemical packing_material other"`
	Unit         string          `json:"unit" validate:"max=20"`
	Quantity     decimal.Decimal `json:"quantity" validate:"gte=0"`
	ReorderLevel decimal.Decimal `json:"reorder_level" validate:"gte=0"`
	UnitCost     decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	Location     string          `json:"location" validate:"max=100"`
	SupplierID   *uuid.UUID      `json:"supplier_id"`
}

// UpdateItemRequest changes item master data. Quantity only changes through
// movements.
type UpdateItemRequest struct {
	SKU          *string          `json:"sku" validate:"omitempty,max=50"`
	Name         *string          `json:"name" validate:"omitempty,max=200"`
	Category     *string          `json:"category" validate:"omitempty,oneof=grey_fabric finished_fabric dye chemical packing_material other"`
	Unit         *string          `json:"unit" validate:"omitempty,max=20"`
	ReorderLevel *decimal.Decimal `json:"reorder_level" validate:"omitempty,gte=0"`
	UnitCost     *decimal.Decimal `json:"unit_cost" validate:"omitempty,gte=0"`
	Location     *string          `json:"location" validate:"omitempty,max=100"`
	SupplierID   *uuid.UUID       `json:"supplier_id"`
}

// MovementRequest books a stock movement
type MovementRequest struct {
	Type      string          `json:"type" validate:"required,oneof=in out adjustment"`
	Quantity  decimal.Decimal `json:"quantity" validate:"gte=0"`
	Reference string          `json:"reference" validate:"max=100"`
	Notes     string          `json:"notes"`
}

// InventoryService manages stock items and their ledger
type InventoryService interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*models.InventoryItem, error)
	GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filter repository.ItemFilter) ([]models.InventoryItem, int64, error)
	UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*models.InventoryItem, error)
	DeleteItem(ctx context.Context, id uuid.UUID) error
	RecordMovement(ctx context.Context, itemID uuid.UUID, req MovementRequest) (*models.StockMovement, error)
	ListMovements(ctx context.Context, itemID uuid.UUID, page models.Page) ([]models.StockMovement, int64, error)
	LowStock(ctx context.Context) ([]models.InventoryItem, error)
}

type inventoryService struct {
	tx        repository.Transactor
	items     repository.InventoryRepository
	suppliers repository.SupplierRepository
	events    messaging.Publisher
	metrics   *metrics.Metrics
}

// NewInventoryService creates a new inventory service
func NewInventoryService(
	tx repository.Transactor,
	items repository.InventoryRepository,
	suppliers repository.SupplierRepository,
	events messaging.Publisher,
	m *metrics.Metrics,
) InventoryService {
	return &inventoryService{tx: tx, items: items, suppliers: suppliers, events: events, metrics: m}
}

func (s *inventoryService) CreateItem(ctx context.Context, req CreateItemRequest) (*models.InventoryItem, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	sku := strings.TrimSpace(req.SKU)
	if err := s.checkSKU(ctx, sku, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
		return nil, err
	}

	item := &models.InventoryItem{
		Base:         models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)},
		SKU:          sku,
		Name:         req.Name,
		Category:     models.ItemCategory(req.Category),
		Unit:         defaultString(req.Unit, "meter"),
		Quantity:     req.Quantity.Round(2),
		ReorderLevel: req.ReorderLevel.Round(2),
		UnitCost:     req.UnitCost.Round(2),
		Location:     req.Location,
		SupplierID:   req.SupplierID,
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.items.CreateItem(ctx, item); err != nil {
			return err
		}
		if !item.Quantity.IsPositive() {
			return nil
		}
		return s.items.CreateMovement(ctx, &models.StockMovement{
			Base:         models.Base{ID: uuid.New(), TenantID: item.TenantID},
			ItemID:       item.ID,
			Type:         models.MovementIn,
			Quantity:     item.Quantity,
			BalanceAfter: item.Quantity,
			Reference:    "opening balance",
			CreatedBy:    appctx.Username(ctx),
		})
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	item, err := s.items.FindItem(ctx, id)
	if err != nil {
		return nil, notFound(err, "inventory item")
	}
	return item, nil
}

func (s *inventoryService) ListItems(ctx context.Context, filter repository.ItemFilter) ([]models.InventoryItem, int64, error) {
	return s.items.ListItems(ctx, filter)
}

func (s *inventoryService) UpdateItem(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*models.InventoryItem, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SKU != nil {
		sku := strings.TrimSpace(*req.SKU)
		if sku != item.SKU {
			if err := s.checkSKU(ctx, sku, item.ID); err != nil {
				return nil, err
			}
			item.SKU = sku
		}
	}
	if req.SupplierID != nil {
		if err := s.checkSupplier(ctx, req.SupplierID); err != nil {
			return nil, err
		}
		item.SupplierID = req.SupplierID
	}
	if req.Name != nil {
		item.Name = *req.Name
	}
	if req.Category != nil {
		item.Category = models.ItemCategory(*req.Category)
	}
	if req.Unit != nil {
		item.Unit = *req.Unit
	}
	if req.ReorderLevel != nil {
		item.ReorderLevel = req.ReorderLevel.Round(2)
	}
	if req.UnitCost != nil {
		item.UnitCost = req.UnitCost.Round(2)
	}
	if req.Location != nil {
		item.Location = *req.Location
	}

	if err := s.items.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *inventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return notFound(s.items.DeleteItem(ctx, id), "inventory item")
}

// RecordMovement books a movement under a row lock on the item so concurrent
// movements serialise and the ledger balance never goes negative.
func (s *inventoryService) RecordMovement(ctx context.Context, itemID uuid.UUID, req MovementRequest) (*models.StockMovement, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	kind := models.MovementType(req.Type)
	qty := req.Quantity.Round(2)
	if kind != models.MovementAdjustment && !qty.IsPositive() {
		return nil, api.NewValidationError("quantity must be greater than 0 for %s movements", kind)
	}

	var (
		movement *models.StockMovement
		item     *models.InventoryItem
	)
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		it, err := s.items.FindItemForUpdate(ctx, itemID)
		if err != nil {
			return notFound(err, "inventory item")
		}

		var balance decimal.Decimal
		switch kind {
		case models.MovementIn:
			balance = it.Quantity.Add(qty)
		case models.MovementOut:
			balance = it.Quantity.Sub(qty)
			if balance.IsNegative() {
				return api.NewError(
					"insufficient stock: "+it.Quantity.String()+" "+it.Unit+" available",
					http.StatusConflict,
					"INSUFFICIENT_STOCK",
				)
			}
		default:
			balance = qty
		}

		it.Quantity = balance
		if err := s.items.UpdateItem(ctx, it); err != nil {
			return err
		}
		m := &models.StockMovement{
			Base:         models.Base{ID: uuid.New(), TenantID: it.TenantID},
			ItemID:       it.ID,
			Type:         kind,
			Quantity:     qty,
			BalanceAfter: balance,
			Reference:    req.Reference,
			Notes:        req.Notes,
			CreatedBy:    appctx.Username(ctx),
		}
		if err := s.items.CreateMovement(ctx, m); err != nil {
			return err
		}
		movement, item = m, it
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.StockMovements)
	log.Info().
		Str("item_id", item.ID.String()).
		Str("type", string(kind)).
		Str("quantity", qty.String()).
		Str("balance", movement.BalanceAfter.String()).
		Msg("Stock movement recorded")

	publish(ctx, s.events, messaging.EventStockMoved, item.TenantID, map[string]interface{}{
		"item_id":       item.ID,
		"sku":           item.SKU,
		"type":          kind,
		"quantity":      qty,
		"balance_after": movement.BalanceAfter,
		"low_stock":     item.IsLow(),
	})
	return movement, nil
}

func (s *inventoryService) ListMovements(ctx context.Context, itemID uuid.UUID, page models.Page) ([]models.StockMovement, int64, error) {
	if _, err := s.GetItem(ctx, itemID); err != nil {
		return nil, 0, err
	}
	return s.items.ListMovements(ctx, itemID, page)
}

func (s *inventoryService) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	return s.items.LowStock(ctx)
}

func (s *inventoryService) checkSKU(ctx context.Context, sku string, excludeID uuid.UUID) error {
	exists, err := s.items.SKUExists(ctx, sku, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return api.NewConflictError("sku %s already exists", sku)
	}
	return nil
}

func (s *inventoryService) checkSupplier(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.suppliers.FindByID(ctx, *id); err != nil {
		return mustExist(err, "supplier")
	}
	return nil
}
