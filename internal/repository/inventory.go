package repository

import (
	"context"

	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ItemFilter narrows an inventory listing
type ItemFilter struct {
	Category string
	Query    string
	Page     models.Page
}

// InventoryRepository defines data access for inventory items and their
// stock ledger
type InventoryRepository interface {
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	UpdateItem(ctx context.Context, item *models.InventoryItem) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
	FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, int64, error)
	SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error)
	LowStock(ctx context.Context) ([]models.InventoryItem, error)
	LowStockByTenant(ctx context.Context) (map[uuid.UUID][]models.InventoryItem, error)
	CreateMovement(ctx context.Context, movement *models.StockMovement) error
	ListMovements(ctx context.Context, itemID uuid.UUID, page models.Page) ([]models.StockMovement, int64, error)
}

type inventoryRepository struct {
	db *gorm.DB
}

// NewInventoryRepository creates a new inventory repository
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	return translate(conn(ctx, r.db).Create(item).Error, "failed to create inventory item")
}

func (r *inventoryRepository) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	return translate(conn(ctx, r.db).Save(item).Error, "failed to update inventory item")
}

func (r *inventoryRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	return deleteByID[models.InventoryItem](ctx, r.db, id, "failed to delete inventory item")
}

func (r *inventoryRepository) FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	return findByID[models.InventoryItem](ctx, r.db, id, "failed to get inventory item")
}

// FindItemForUpdate locks the item row for the rest of the transaction
func (r *inventoryRepository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, translate(err, "failed to lock inventory item")
	}
	return &item, nil
}

func (r *inventoryRepository) ListItems(ctx context.Context, filter ItemFilter) ([]models.InventoryItem, int64, error) {
	q := conn(ctx, r.db).Model(&models.InventoryItem{})
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("(name ILIKE ? OR sku ILIKE ?)", like, like)
	}

	items := []models.InventoryItem{}
	total, err := paginate(q, filter.Page, "name", &items)
	if err != nil {
		return nil, 0, translate(err, "failed to list inventory items")
	}
	return items, total, nil
}

func (r *inventoryRepository) SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	return existsBy[models.InventoryItem](ctx, r.db, "sku", sku, excludeID)
}

func (r *inventoryRepository) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	if err := conn(ctx, r.db).Where("quantity <= reorder_level").Order("name").Find(&items).Error; err != nil {
		return nil, translate(err, "failed to list low stock items")
	}
	return items, nil
}

// LowStockByTenant groups low items of every tenant. The caller's context
// must bypass the tenant guard.
func (r *inventoryRepository) LowStockByTenant(ctx context.Context) (map[uuid.UUID][]models.InventoryItem, error) {
	var items []models.InventoryItem
	if err := conn(ctx, r.db).Where("quantity <= reorder_level").Order("tenant_id, name").Find(&items).Error; err != nil {
		return nil, translate(err, "failed to scan low stock items")
	}
	out := make(map[uuid.UUID][]models.InventoryItem)
	for _, item := range items {
		out[item.TenantID] = append(out[item.TenantID], item)
	}
	return out, nil
}

func (r *inventoryRepository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return translate(conn(ctx, r.db).Create(movement).Error, "failed to create stock movement")
}

func (r *inventoryRepository) ListMovements(ctx context.Context, itemID uuid.UUID, page models.Page) ([]models.StockMovement, int64, error) {
	q := conn(ctx, r.db).Model(&models.StockMovement{}).Where("item_id = ?", itemID)
	movements := []models.StockMovement{}
	total, err := paginate(q, page, "created_at DESC", &movements)
	if err != nil {
		return nil, 0, translate(err, "failed to list stock movements")
	}
	return movements, total, nil
}
