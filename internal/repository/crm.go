package repository

import (
	"context"

	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerRepository defines data access for customers
type CustomerRepository interface {
	Create(ctx context.Context, customer *models.Customer) error
	Update(ctx context.Context, customer *models.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	List(ctx context.Context, query string, page models.Page) ([]models.Customer, int64, error)
	NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) Create(ctx context.Context, customer *models.Customer) error {
	return translate(conn(ctx, r.db).Create(customer).Error, "failed to create customer")
}

func (r *customerRepository) Update(ctx context.Context, customer *models.Customer) error {
	return translate(conn(ctx, r.db).Save(customer).Error, "failed to update customer")
}

func (r *customerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID[models.Customer](ctx, r.db, id, "failed to delete customer")
}

func (r *customerRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return findByID[models.Customer](ctx, r.db, id, "failed to get customer")
}

func (r *customerRepository) List(ctx context.Context, query string, page models.Page) ([]models.Customer, int64, error) {
	q := conn(ctx, r.db).Model(&models.Customer{})
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("(name ILIKE ? OR city ILIKE ? OR contact_person ILIKE ?)", like, like, like)
	}
	customers := []models.Customer{}
	total, err := paginate(q, page, "name", &customers)
	if err != nil {
		return nil, 0, translate(err, "failed to list customers")
	}
	return customers, total, nil
}

func (r *customerRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	return existsBy[models.Customer](ctx, r.db, "name", name, excludeID)
}

// SupplierRepository defines data access for suppliers
type SupplierRepository interface {
	Create(ctx context.Context, supplier *models.Supplier) error
	Update(ctx context.Context, supplier *models.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	List(ctx context.Context, query string, page models.Page) ([]models.Supplier, int64, error)
	NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error)
}

type supplierRepository struct {
	db *gorm.DB
}

// NewSupplierRepository creates a new supplier repository
func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

func (r *supplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	return translate(conn(ctx, r.db).Create(supplier).Error, "failed to create supplier")
}

func (r *supplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	return translate(conn(ctx, r.db).Save(supplier).Error, "failed to update supplier")
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID[models.Supplier](ctx, r.db, id, "failed to delete supplier")
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	return findByID[models.Supplier](ctx, r.db, id, "failed to get supplier")
}

func (r *supplierRepository) List(ctx context.Context, query string, page models.Page) ([]models.Supplier, int64, error) {
	q := conn(ctx, r.db).Model(&models.Supplier{})
	if query != "" {
		like := "%" + query + "%"
		q = q.Where("(name ILIKE ? OR city ILIKE ? OR supply_category ILIKE ?)", like, like, like)
	}
	suppliers := []models.Supplier{}
	total, err := paginate(q, page, "name", &suppliers)
	if err != nil {
		return nil, 0, translate(err, "failed to list suppliers")
	}
	return suppliers, total, nil
}

func (r *supplierRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	return existsBy[models.Supplier](ctx, r.db, "name", name, excludeID)
}
