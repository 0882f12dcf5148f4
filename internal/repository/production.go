package repository

import (
	"context"

	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderFilter narrows a production order listing
type OrderFilter struct {
	Status     string
	Stage      string
	CustomerID *uuid.UUID
	Page       models.Page
}

// ProductionRepository defines data access for production orders, their
// stages and stage logs
type ProductionRepository interface {
	CreateOrder(ctx context.Context, order *models.ProductionOrder) error
	UpdateOrder(ctx context.Context, order *models.ProductionOrder) error
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error)
	FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.ProductionOrder, int64, error)
	OrderNumberExists(ctx context.Context, number string, excludeID uuid.UUID) (bool, error)
	UpdateStage(ctx context.Context, stage *models.ProductionStage) error
	CreateLog(ctx context.Context, log *models.StageLog) error
	ListLogs(ctx context.Context, orderID uuid.UUID) ([]models.StageLog, error)
}

type productionRepository struct {
	db *gorm.DB
}

// NewProductionRepository creates a new production repository
func NewProductionRepository(db *gorm.DB) ProductionRepository {
	return &productionRepository{db: db}
}

// CreateOrder inserts the order together with its stages
func (r *productionRepository) CreateOrder(ctx context.Context, order *models.ProductionOrder) error {
	err := conn(ctx, r.db).Omit("Customer").Create(order).Error
	return translate(err, "failed to create production order")
}

// UpdateOrder saves order columns only; stages are written with UpdateStage
func (r *productionRepository) UpdateOrder(ctx context.Context, order *models.ProductionOrder) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Save(order).Error
	return translate(err, "failed to update production order")
}

// DeleteOrder removes the order with its stages and logs
func (r *productionRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	db := conn(ctx, r.db)
	if err := db.Where("order_id = ?", id).Delete(&models.StageLog{}).Error; err != nil {
		return translate(err, "failed to delete stage logs")
	}
	if err := db.Where("order_id = ?", id).Delete(&models.ProductionStage{}).Error; err != nil {
		return translate(err, "failed to delete stages")
	}
	return deleteByID[models.ProductionOrder](ctx, r.db, id, "failed to delete production order")
}

func orderedStages(db *gorm.DB) *gorm.DB {
	return db.Order("sequence")
}

// FindOrder gets an order with its customer and its stages in sequence order
func (r *productionRepository) FindOrder(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := conn(ctx, r.db).
		Preload("Customer").
		Preload("Stages", orderedStages).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translate(err, "failed to get production order")
	}
	return &order, nil
}

// FindOrderForUpdate locks the order row for the rest of the transaction
func (r *productionRepository) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error) {
	var order models.ProductionOrder
	err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, translate(err, "failed to lock production order")
	}
	if err := conn(ctx, r.db).Where("order_id = ?", id).Order("sequence").Find(&order.Stages).Error; err != nil {
		return nil, translate(err, "failed to load stages")
	}
	return &order, nil
}

func (r *productionRepository) ListOrders(ctx context.Context, filter OrderFilter) ([]models.ProductionOrder, int64, error) {
	q := conn(ctx, r.db).Model(&models.ProductionOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Stage != "" {
		q = q.Where("current_stage = ?", filter.Stage)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}

	orders := []models.ProductionOrder{}
	total, err := paginate(q, filter.Page, "created_at DESC", &orders, "Customer")
	if err != nil {
		return nil, 0, translate(err, "failed to list production orders")
	}
	return orders, total, nil
}

func (r *productionRepository) OrderNumberExists(ctx context.Context, number string, excludeID uuid.UUID) (bool, error) {
	return existsBy[models.ProductionOrder](ctx, r.db, "order_number", number, excludeID)
}

func (r *productionRepository) UpdateStage(ctx context.Context, stage *models.ProductionStage) error {
	return translate(conn(ctx, r.db).Save(stage).Error, "failed to update stage")
}

func (r *productionRepository) CreateLog(ctx context.Context, log *models.StageLog) error {
	return translate(conn(ctx, r.db).Create(log).Error, "failed to create stage log")
}

func (r *productionRepository) ListLogs(ctx context.Context, orderID uuid.UUID) ([]models.StageLog, error) {
	logs := []models.StageLog{}
	err := conn(ctx, r.db).Where("order_id = ?", orderID).Order("changed_at, created_at").Find(&logs).Error
	if err != nil {
		return nil, translate(err, "failed to list stage logs")
	}
	return logs, nil
}

// FoldingFilter narrows a folding record listing
type FoldingFilter struct {
	OrderID  *uuid.UUID
	QCStatus string
	Batch    string
	Page     models.Page
}

// FoldingRepository defines data access for folding/checking records
type FoldingRepository interface {
	Create(ctx context.Context, record *models.FoldingRecord) error
	Update(ctx context.Context, record *models.FoldingRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FoldingRecord, error)
	List(ctx context.Context, filter FoldingFilter) ([]models.FoldingRecord, int64, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FoldingRecord, error)
}

type foldingRepository struct {
	db *gorm.DB
}

// NewFoldingRepository creates a new folding repository
func NewFoldingRepository(db *gorm.DB) FoldingRepository {
	return &foldingRepository{db: db}
}

func (r *foldingRepository) Create(ctx context.Context, record *models.FoldingRecord) error {
	return translate(conn(ctx, r.db).Create(record).Error, "failed to create folding record")
}

func (r *foldingRepository) Update(ctx context.Context, record *models.FoldingRecord) error {
	return translate(conn(ctx, r.db).Save(record).Error, "failed to update folding record")
}

func (r *foldingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID[models.FoldingRecord](ctx, r.db, id, "failed to delete folding record")
}

func (r *foldingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FoldingRecord, error) {
	return findByID[models.FoldingRecord](ctx, r.db, id, "failed to get folding record")
}

func (r *foldingRepository) List(ctx context.Context, filter FoldingFilter) ([]models.FoldingRecord, int64, error) {
	q := conn(ctx, r.db).Model(&models.FoldingRecord{})
	if filter.OrderID != nil {
		q = q.Where("order_id = ?", *filter.OrderID)
	}
	if filter.QCStatus != "" {
		q = q.Where("qc_status = ?", filter.QCStatus)
	}
	if filter.Batch != "" {
		q = q.Where("batch_number = ?", filter.Batch)
	}

	records := []models.FoldingRecord{}
	total, err := paginate(q, filter.Page, "checked_at DESC", &records)
	if err != nil {
		return nil, 0, translate(err, "failed to list folding records")
	}
	return records, total, nil
}

func (r *foldingRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FoldingRecord, error) {
	records := []models.FoldingRecord{}
	if err := conn(ctx, r.db).Where("order_id = ?", orderID).Order("checked_at").Find(&records).Error; err != nil {
		return nil, translate(err, "failed to list folding records of order")
	}
	return records, nil
}
