package repository

import (
	"context"
	"time"

	"example.com/textile/erp/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatusStat aggregates production orders of one status
type OrderStatusStat struct {
	Status    models.StageStatus `json:"status"`
	Count     int64              `json:"count"`
	Planned   decimal.Decimal    `json:"planned_quantity"`
	Completed decimal.Decimal    `json:"completed_quantity"`
}

// CategoryStat aggregates inventory items of one category
type CategoryStat struct {
	Category   models.ItemCategory `json:"category"`
	Items      int64               `json:"items"`
	StockValue decimal.Decimal     `json:"stock_value"`
	LowStock   int64               `json:"low_stock"`
}

// DispatchStatusStat aggregates dispatches of one status
type DispatchStatusStat struct {
	Status models.DispatchStatus `json:"status"`
	Count  int64                 `json:"count"`
	Meters decimal.Decimal       `json:"meters"`
	Amount decimal.Decimal       `json:"amount"`
}

// QCStatusStat aggregates folding records of one QC status
type QCStatusStat struct {
	QCStatus models.QCStatus `json:"qc_status"`
	Count    int64           `json:"count"`
	Input    decimal.Decimal `json:"input_meters"`
	Checked  decimal.Decimal `json:"checked_meters"`
	Rejected decimal.Decimal `json:"rejected_meters"`
}

// AttendanceStatusStat counts attendance marks of one status
type AttendanceStatusStat struct {
	Status models.AttendanceStatus `json:"status"`
	Count  int64                   `json:"count"`
}

// ActiveStat counts records by their active flag
type ActiveStat struct {
	Active bool  `json:"active"`
	Count  int64 `json:"count"`
}

// StageStatusCount counts stages by name and status
type StageStatusCount struct {
	Stage  models.StageName   `json:"stage"`
	Status models.StageStatus `json:"status"`
	Count  int64              `json:"count"`
}

// MonthlyDispatch aggregates dispatches of one calendar month
type MonthlyDispatch struct {
	Month  int             `json:"month"`
	Count  int64           `json:"count"`
	Meters decimal.Decimal `json:"meters"`
	Amount decimal.Decimal `json:"amount"`
}

// AnalyticsRepository runs grouped aggregate queries for the dashboard
type AnalyticsRepository interface {
	OrderStats(ctx context.Context) ([]OrderStatusStat, error)
	InventoryStats(ctx context.Context) ([]CategoryStat, error)
	DispatchStats(ctx context.Context) ([]DispatchStatusStat, error)
	QCStats(ctx context.Context) ([]QCStatusStat, error)
	AttendanceStats(ctx context.Context, day time.Time) ([]AttendanceStatusStat, error)
	EmployeeStats(ctx context.Context) ([]ActiveStat, error)
	CustomerStats(ctx context.Context) ([]ActiveStat, error)
	SupplierStats(ctx context.Context) ([]ActiveStat, error)
	StageStatusCounts(ctx context.Context) ([]StageStatusCount, error)
	DispatchMonthly(ctx context.Context, year int) ([]MonthlyDispatch, error)
}

type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository creates a new analytics repository
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepository{db: db}
}

func (r *analyticsRepository) OrderStats(ctx context.Context) ([]OrderStatusStat, error) {
	var rows []OrderStatusStat
	err := conn(ctx, r.db).Model(&models.ProductionOrder{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(planned_quantity), 0) AS planned, COALESCE(SUM(completed_quantity), 0) AS completed").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, translate(err, "failed to aggregate production orders")
}

func (r *analyticsRepository) InventoryStats(ctx context.Context) ([]CategoryStat, error) {
	var rows []CategoryStat
	err := conn(ctx, r.db).Model(&models.InventoryItem{}).
		Select("category, COUNT(*) AS items, COALESCE(SUM(quantity * unit_cost), 0) AS stock_value, COUNT(*) FILTER (WHERE quantity <= reorder_level) AS low_stock").
		Group("category").
		Order("category").
		Scan(&rows).Error
	return rows, translate(err, "failed to aggregate inventory")
}

func (r *analyticsRepository) DispatchStats(ctx context.Context) ([]DispatchStatusStat, error) {
	var rows []DispatchStatusStat
	err := conn(ctx, r.db).Model(&models.Dispatch{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(total_meters), 0) AS meters, COALESCE(SUM(total_amount), 0) AS amount").
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, translate(err, "failed to aggregate dispatches")
}

func (r *analyticsRepository) QCStats(ctx context.Context) ([]QCStatusStat, error) {
	var rows []QCStatusStat
	err := conn(ctx, r.db).Model(&models.FoldingRecord{}).
		Select("qc_status, COUNT(*) AS count, COALESCE(SUM(input_meters), 0) AS input, COALESCE(SUM(checked_meters), 0) AS checked, COALESCE(SUM(rejected_meters), 0) AS rejected").
		Group("qc_status").
		Order("qc_status").
		Scan(&rows).Error
	return rows, translate(err, "failed to aggregate folding records")
}

func (r *analyticsRepository) AttendanceStats(ctx context.Context, day time.Time) ([]AttendanceStatusStat, error) {
	var rows []AttendanceStatusStat
	err := conn(ctx, r.db).Model(&models.Attendance{}).
		Select("status, COUNT(*) AS count").
		Where("date = ?", day).
		Group("status").
		Order("status").
		Scan(&rows).Error
	return rows, translate(err, "failed to aggregate attendance")
}

func (r *analyticsRepository) EmployeeStats(ctx context.Context) ([]ActiveStat, error) {
	return r.activeStats(ctx, &models.Employee{}, "employees")
}

func (r *analyticsRepository) CustomerStats(ctx context.Context) ([]ActiveStat, error) {
	return r.activeStats(ctx, &models.Customer{}, "customers")
}

func (r *analyticsRepository) SupplierStats(ctx context.Context) ([]ActiveStat, error) {
	return r.activeStats(ctx, &models.Supplier{}, "suppliers")
}

func (r *analyticsRepository) activeStats(ctx context.Context, model interface{}, name string) ([]ActiveStat, error) {
	var rows []ActiveStat
	err := conn(ctx, r.db).Model(model).
		Select("active, COUNT(*) AS count").
		Group("active").
		Scan(&rows).Error
	return rows, translate(err, "failed to aggregate "+name)
}

func (r *analyticsRepository) StageStatusCounts(ctx context.Context) ([]StageStatusCount, error) {
	var rows []StageStatusCount
	err := conn(ctx, r.db).Model(&models.ProductionStage{}).
		Select("name AS stage, status, COUNT(*) AS count").
		Group("name, status, sequence").
		Order("sequence, status").
		Scan(&rows).Error
	return rows, translate(err, "failed to aggregate stages")
}

func (r *analyticsRepository) DispatchMonthly(ctx context.Context, year int) ([]MonthlyDispatch, error) {
	from := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(1, 0, 0)

	var rows []MonthlyDispatch
	err := conn(ctx, r.db).Model(&models.Dispatch{}).
		Select("EXTRACT(MONTH FROM COALESCE(dispatched_at, created_at))::int AS month, COUNT(*) AS count, COALESCE(SUM(total_meters), 0) AS meters, COALESCE(SUM(total_amount), 0) AS amount").
		Where("status <> ?", models.DispatchCancelled).
		Where("COALESCE(dispatched_at, created_at) >= ? AND COALESCE(dispatched_at, created_at) < ?", from, to).
		Group("month").
		Order("month").
		Scan(&rows).Error
	return rows, translate(err, "failed to aggregate monthly dispatches")
}
