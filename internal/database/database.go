package database

import (
	"context"
	"time"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/models"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DB is an interface for database operations
type DB interface {
	DB() *gorm.DB
	Ping(ctx context.Context) error
	Close() error
}

// GormDatabase implements the DB interface for GORM
type GormDatabase struct {
	db *gorm.DB
}

// Connect opens the Postgres connection, configures the pool and installs
// the tenant guard and metrics callbacks.
func Connect(cfg config.DatabaseConfig, m *metrics.Metrics) (DB, error) {
	logLevel := logger.Silent
	if cfg.LogQueries {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logLevel),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get DB instance")
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := db.Use(NewTenantGuardPlugin()); err != nil {
		return nil, errors.Wrap(err, "failed to install tenant guard")
	}
	if m != nil {
		if err := RegisterMetricsHooks(db, m); err != nil {
			return nil, errors.Wrap(err, "failed to register metrics hooks")
		}
	}

	log.Info().
		Int("max_open_conns", cfg.MaxOpenConns).
		Int("max_idle_conns", cfg.MaxIdleConns).
		Msg("Connected to database")

	return &GormDatabase{db: db}, nil
}

// DB returns the underlying gorm.DB instance
func (d *GormDatabase) DB() *gorm.DB {
	return d.db
}

// Ping checks the connection is alive
func (d *GormDatabase) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

// Close closes the database connection
func (d *GormDatabase) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// uniqueIndexes are per-tenant uniqueness rules that ignore soft-deleted rows
var uniqueIndexes = []struct {
	name, table, columns string
}{
	{"idx_roles_tenant_name", "roles", "tenant_id, name"},
	{"idx_users_tenant_username", "users", "tenant_id, username"},
	{"idx_customers_tenant_name", "customers", "tenant_id, name"},
	{"idx_suppliers_tenant_name", "suppliers", "tenant_id, name"},
	{"idx_production_orders_tenant_number", "production_orders", "tenant_id, order_number"},
	{"idx_production_stages_order_name", "production_stages", "order_id, name"},
	{"idx_inventory_items_tenant_sku", "inventory_items", "tenant_id, sku"},
	{"idx_dispatches_tenant_number", "dispatches", "tenant_id, dispatch_number"},
	{"idx_employees_tenant_code", "employees", "tenant_id, employee_code"},
	{"idx_attendances_employee_date", "attendances", "tenant_id, employee_id, date"},
}

// AutoMigrate creates or updates every table and the per-tenant unique indexes
func AutoMigrate(db DB) error {
	gormDB := db.DB().WithContext(appctx.WithoutTenantScope(context.Background()))

	if err := gormDB.AutoMigrate(models.AllModels()...); err != nil {
		return errors.Wrap(err, "failed to migrate table structures")
	}

	for _, idx := range uniqueIndexes {
		stmt := "CREATE UNIQUE INDEX IF NOT EXISTS " + idx.name + " ON " + idx.table +
			" (" + idx.columns + ") WHERE deleted_at IS NULL"
		if err := gormDB.Exec(stmt).Error; err != nil {
			return errors.Wrapf(err, "failed to create index %s", idx.name)
		}
	}
	return nil
}
