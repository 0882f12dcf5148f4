package repository

import (
	"context"

	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DispatchFilter narrows a dispatch listing
type DispatchFilter struct {
	Status     string
	CustomerID *uuid.UUID
	Page       models.Page
}

// DispatchRepository defines data access for dispatches and their items
type DispatchRepository interface {
	Create(ctx context.Context, dispatch *models.Dispatch) error
	Update(ctx context.Context, dispatch *models.Dispatch) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Dispatch, error)
	List(ctx context.Context, filter DispatchFilter) ([]models.Dispatch, int64, error)
	NumberExists(ctx context.Context, number string, excludeID uuid.UUID) (bool, error)
	CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
}

type dispatchRepository struct {
	db *gorm.DB
}

// NewDispatchRepository creates a new dispatch repository
func NewDispatchRepository(db *gorm.DB) DispatchRepository {
	return &dispatchRepository{db: db}
}

// Create inserts the dispatch together with its items
func (r *dispatchRepository) Create(ctx context.Context, dispatch *models.Dispatch) error {
	return translate(conn(ctx, r.db).Omit("Customer").Create(dispatch).Error, "failed to create dispatch")
}

func (r *dispatchRepository) Update(ctx context.Context, dispatch *models.Dispatch) error {
	return translate(conn(ctx, r.db).Omit(clause.Associations).Save(dispatch).Error, "failed to update dispatch")
}

func (r *dispatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := conn(ctx, r.db).Where("dispatch_id = ?", id).Delete(&models.DispatchItem{}).Error; err != nil {
		return translate(err, "failed to delete dispatch items")
	}
	return deleteByID[models.Dispatch](ctx, r.db, id, "failed to delete dispatch")
}

func (r *dispatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dispatch, error) {
	return findByID[models.Dispatch](ctx, r.db, id, "failed to get dispatch", "Customer", "Items")
}

func (r *dispatchRepository) List(ctx context.Context, filter DispatchFilter) ([]models.Dispatch, int64, error) {
	q := conn(ctx, r.db).Model(&models.Dispatch{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.CustomerID != nil {
		q = q.Where("customer_id = ?", *filter.CustomerID)
	}

	dispatches := []models.Dispatch{}
	total, err := paginate(q, filter.Page, "created_at DESC", &dispatches, "Customer")
	if err != nil {
		return nil, 0, translate(err, "failed to list dispatches")
	}
	return dispatches, total, nil
}

func (r *dispatchRepository) NumberExists(ctx context.Context, number string, excludeID uuid.UUID) (bool, error) {
	return existsBy[models.Dispatch](ctx, r.db, "dispatch_number", number, excludeID)
}

func (r *dispatchRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	var n int64
	err := conn(ctx, r.db).Model(&models.Dispatch{}).Where("customer_id = ?", customerID).Count(&n).Error
	return n, translate(err, "failed to count dispatches of customer")
}
