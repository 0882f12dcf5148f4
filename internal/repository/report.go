package repository

import (
	"context"
	"time"

	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReportRepository defines data access for report schedules and runs
type ReportRepository interface {
	CreateSchedule(ctx context.Context, schedule *models.ReportSchedule) error
	UpdateSchedule(ctx context.Context, schedule *models.ReportSchedule) error
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	FindSchedule(ctx context.Context, id uuid.UUID) (*models.ReportSchedule, error)
	ListSchedules(ctx context.Context, page models.Page) ([]models.ReportSchedule, int64, error)
	DueSchedules(ctx context.Context, now time.Time) ([]models.ReportSchedule, error)
	CreateRun(ctx context.Context, run *models.ReportRun) error
	FindRun(ctx context.Context, id uuid.UUID) (*models.ReportRun, error)
	ListRuns(ctx context.Context, scheduleID *uuid.UUID, page models.Page) ([]models.ReportRun, int64, error)
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) CreateSchedule(ctx context.Context, schedule *models.ReportSchedule) error {
	return translate(conn(ctx, r.db).Create(schedule).Error, "failed to create report schedule")
}

func (r *reportRepository) UpdateSchedule(ctx context.Context, schedule *models.ReportSchedule) error {
	return translate(conn(ctx, r.db).Save(schedule).Error, "failed to update report schedule")
}

func (r *reportRepository) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return deleteByID[models.ReportSchedule](ctx, r.db, id, "failed to delete report schedule")
}

func (r *reportRepository) FindSchedule(ctx context.Context, id uuid.UUID) (*models.ReportSchedule, error) {
	return findByID[models.ReportSchedule](ctx, r.db, id, "failed to get report schedule")
}

func (r *reportRepository) ListSchedules(ctx context.Context, page models.Page) ([]models.ReportSchedule, int64, error) {
	schedules := []models.ReportSchedule{}
	total, err := paginate(conn(ctx, r.db).Model(&models.ReportSchedule{}), page, "name", &schedules)
	if err != nil {
		return nil, 0, translate(err, "failed to list report schedules")
	}
	return schedules, total, nil
}

// DueSchedules returns active schedules whose next run is not after now.
// Called by the worker with a context that bypasses the tenant guard.
func (r *reportRepository) DueSchedules(ctx context.Context, now time.Time) ([]models.ReportSchedule, error) {
	schedules := []models.ReportSchedule{}
	err := conn(ctx, r.db).
		Where("active = ? AND next_run_at <= ?", true, now).
		Order("next_run_at").
		Find(&schedules).Error
	if err != nil {
		return nil, translate(err, "failed to list due report schedules")
	}
	return schedules, nil
}

func (r *reportRepository) CreateRun(ctx context.Context, run *models.ReportRun) error {
	return translate(conn(ctx, r.db).Create(run).Error, "failed to create report run")
}

func (r *reportRepository) FindRun(ctx context.Context, id uuid.UUID) (*models.ReportRun, error) {
	return findByID[models.ReportRun](ctx, r.db, id, "failed to get report run")
}

func (r *reportRepository) ListRuns(ctx context.Context, scheduleID *uuid.UUID, page models.Page) ([]models.ReportRun, int64, error) {
	q := conn(ctx, r.db).Model(&models.ReportRun{})
	if scheduleID != nil {
		q = q.Where("schedule_id = ?", *scheduleID)
	}
	runs := []models.ReportRun{}
	total, err := paginate(q, page, "generated_at DESC", &runs)
	if err != nil {
		return nil, 0, translate(err, "failed to list report runs")
	}
	return runs, total, nil
}

// ReportDataRepository loads the rows that go into generated reports
type ReportDataRepository interface {
	Orders(ctx context.Context, from, to time.Time) ([]models.ProductionOrder, error)
	FoldingRecords(ctx context.Context, from, to time.Time) ([]models.FoldingRecord, error)
	Items(ctx context.Context) ([]models.InventoryItem, error)
	Dispatches(ctx context.Context, from, to time.Time) ([]models.Dispatch, error)
	Employees(ctx context.Context) ([]models.Employee, error)
	Attendance(ctx context.Context, from, to time.Time) ([]models.Attendance, error)
}

type reportDataRepository struct {
	db *gorm.DB
}

// NewReportDataRepository creates a new report data repository
func NewReportDataRepository(db *gorm.DB) ReportDataRepository {
	return &reportDataRepository{db: db}
}

func (r *reportDataRepository) Orders(ctx context.Context, from, to time.Time) ([]models.ProductionOrder, error) {
	orders := []models.ProductionOrder{}
	err := conn(ctx, r.db).
		Preload("Customer").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at").
		Find(&orders).Error
	return orders, translate(err, "failed to load production orders for report")
}

func (r *reportDataRepository) FoldingRecords(ctx context.Context, from, to time.Time) ([]models.FoldingRecord, error) {
	records := []models.FoldingRecord{}
	err := conn(ctx, r.db).
		Where("checked_at >= ? AND checked_at < ?", from, to).
		Order("checked_at").
		Find(&records).Error
	return records, translate(err, "failed to load folding records for report")
}

func (r *reportDataRepository) Items(ctx context.Context) ([]models.InventoryItem, error) {
	items := []models.InventoryItem{}
	err := conn(ctx, r.db).Order("category, name").Find(&items).Error
	return items, translate(err, "failed to load inventory for report")
}

func (r *reportDataRepository) Dispatches(ctx context.Context, from, to time.Time) ([]models.Dispatch, error) {
	dispatches := []models.Dispatch{}
	err := conn(ctx, r.db).
		Preload("Customer").
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at").
		Find(&dispatches).Error
	return dispatches, translate(err, "failed to load dispatches for report")
}

func (r *reportDataRepository) Employees(ctx context.Context) ([]models.Employee, error) {
	employees := []models.Employee{}
	err := conn(ctx, r.db).Order("employee_code").Find(&employees).Error
	return employees, translate(err, "failed to load employees for report")
}

func (r *reportDataRepository) Attendance(ctx context.Context, from, to time.Time) ([]models.Attendance, error) {
	rows := []models.Attendance{}
	err := conn(ctx, r.db).Where("date >= ? AND date < ?", from, to).Find(&rows).Error
	return rows, translate(err, "failed to load attendance for report")
}
