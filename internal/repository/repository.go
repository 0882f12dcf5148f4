package repository

import (
	"context"

	"example.com/textile/erp/internal/database"
	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type txKey struct{}

// Transactor runs a function inside a database transaction. Repositories
// called with the context passed to fn join that transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a transactor on db
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithTransaction implements Transactor. Nested calls reuse the outer transaction.
func (t *gormTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// paginate counts q and loads one page of it into dest. Preloads apply to
// the page query only.
func paginate(q *gorm.DB, page models.Page, order string, dest interface{}, preloads ...string) (int64, error) {
	page = page.Normalize()
	base := q.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return 0, err
	}
	if total == 0 {
		return 0, nil
	}
	find := base.Order(order).Offset(page.Offset()).Limit(page.PageSize)
	for _, p := range preloads {
		find = find.Preload(p)
	}
	return total, find.Find(dest).Error
}

func findByID[T any](ctx context.Context, db *gorm.DB, id uuid.UUID, msg string, preloads ...string) (*T, error) {
	var out T
	q := conn(ctx, db)
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.Where("id = ?", id).First(&out).Error; err != nil {
		return nil, translate(err, msg)
	}
	return &out, nil
}

func deleteByID[T any](ctx context.Context, db *gorm.DB, id uuid.UUID, msg string) error {
	var model T
	res := conn(ctx, db).Where("id = ?", id).Delete(&model)
	if res.Error != nil {
		return translate(res.Error, msg)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func existsBy[T any](ctx context.Context, db *gorm.DB, column, value string, excludeID uuid.UUID) (bool, error) {
	var model T
	var n int64
	q := conn(ctx, db).Model(&model).Where(column+" = ?", value)
	if excludeID != uuid.Nil {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, translate(err, "failed to check uniqueness of "+column)
	}
	return n > 0, nil
}

// Repositories groups every repository of the service
type Repositories struct {
	Tx         Transactor
	Tenants    TenantRepository
	Users      UserRepository
	Roles      RoleRepository
	Production ProductionRepository
	Folding    FoldingRepository
	Inventory  InventoryRepository
	Dispatches DispatchRepository
	Employees  EmployeeRepository
	Attendance AttendanceRepository
	Customers  CustomerRepository
	Suppliers  SupplierRepository
	Reports    ReportRepository
	ReportData ReportDataRepository
	Analytics  AnalyticsRepository
}

// NewRepositories creates every repository on one connection
func NewRepositories(db database.DB) *Repositories {
	g := db.DB()
	return &Repositories{
		Tx:         NewTransactor(g),
		Tenants:    NewTenantRepository(g),
		Users:      NewUserRepository(g),
		Roles:      NewRoleRepository(g),
		Production: NewProductionRepository(g),
		Folding:    NewFoldingRepository(g),
		Inventory:  NewInventoryRepository(g),
		Dispatches: NewDispatchRepository(g),
		Employees:  NewEmployeeRepository(g),
		Attendance: NewAttendanceRepository(g),
		Customers:  NewCustomerRepository(g),
		Suppliers:  NewSupplierRepository(g),
		Reports:    NewReportRepository(g),
		ReportData: NewReportDataRepository(g),
		Analytics:  NewAnalyticsRepository(g),
	}
}
