package repository

import (
	"context"
	"time"

	"example.com/textile/erp/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EmployeeFilter narrows an employee listing
type EmployeeFilter struct {
	Department string
	Active     *bool
	Page       models.Page
}

// EmployeeRepository defines data access for employees
type EmployeeRepository interface {
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]models.Employee, int64, error)
	ListAll(ctx context.Context) ([]models.Employee, error)
	CodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error)
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository creates a new employee repository
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	return translate(conn(ctx, r.db).Create(employee).Error, "failed to create employee")
}

func (r *employeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	return translate(conn(ctx, r.db).Save(employee).Error, "failed to update employee")
}

func (r *employeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return deleteByID[models.Employee](ctx, r.db, id, "failed to delete employee")
}

func (r *employeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	return findByID[models.Employee](ctx, r.db, id, "failed to get employee")
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]models.Employee, int64, error) {
	q := conn(ctx, r.db).Model(&models.Employee{})
	if filter.Department != "" {
		q = q.Where("department = ?", filter.Department)
	}
	if filter.Active != nil {
		q = q.Where("active = ?", *filter.Active)
	}

	employees := []models.Employee{}
	total, err := paginate(q, filter.Page, "employee_code", &employees)
	if err != nil {
		return nil, 0, translate(err, "failed to list employees")
	}
	return employees, total, nil
}

func (r *employeeRepository) ListAll(ctx context.Context) ([]models.Employee, error) {
	employees := []models.Employee{}
	if err := conn(ctx, r.db).Order("employee_code").Find(&employees).Error; err != nil {
		return nil, translate(err, "failed to list employees")
	}
	return employees, nil
}

func (r *employeeRepository) CodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	return existsBy[models.Employee](ctx, r.db, "employee_code", code, excludeID)
}

// AttendanceFilter narrows an attendance listing. From and To are inclusive dates.
type AttendanceFilter struct {
	EmployeeID *uuid.UUID
	From       *time.Time
	To         *time.Time
	Page       models.Page
}

// AttendanceRepository defines data access for attendance days
type AttendanceRepository interface {
	Upsert(ctx context.Context, attendance *models.Attendance) error
	List(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, int64, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]models.Attendance, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db: db}
}

// Upsert writes the employee-day, replacing an existing mark for that day
func (r *attendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) error {
	var existing models.Attendance
	err := conn(ctx, r.db).
		Where("employee_id = ? AND date = ?", attendance.EmployeeID, attendance.Date).
		First(&existing).Error
	switch translate(err, "failed to get attendance") {
	case nil:
		attendance.ID = existing.ID
		attendance.CreatedAt = existing.CreatedAt
		return translate(conn(ctx, r.db).Omit(clause.Associations).Save(attendance).Error, "failed to update attendance")
	case ErrNotFound:
		return translate(conn(ctx, r.db).Omit(clause.Associations).Create(attendance).Error, "failed to create attendance")
	default:
		return translate(err, "failed to get attendance")
	}
}

func (r *attendanceRepository) List(ctx context.Context, filter AttendanceFilter) ([]models.Attendance, int64, error) {
	q := conn(ctx, r.db).Model(&models.Attendance{})
	if filter.EmployeeID != nil {
		q = q.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.From != nil {
		q = q.Where("date >= ?", *filter.From)
	}
	if filter.To != nil {
		q = q.Where("date <= ?", *filter.To)
	}

	rows := []models.Attendance{}
	total, err := paginate(q, filter.Page, "date DESC", &rows, "Employee")
	if err != nil {
		return nil, 0, translate(err, "failed to list attendance")
	}
	return rows, total, nil
}

// ListBetween returns attendance rows with from <= date < to
func (r *attendanceRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Attendance, error) {
	rows := []models.Attendance{}
	err := conn(ctx, r.db).Where("date >= ? AND date < ?", from, to).Order("date").Find(&rows).Error
	if err != nil {
		return nil, translate(err, "failed to list attendance")
	}
	return rows, nil
}
