package service

import (
	"context"
	"strings"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// EmployeeRequest creates an employee
type EmployeeRequest struct {
	EmployeeCode string          `json:"employee_code" validate:"required,max=30"`
	FullName     string          `json:"full_name" validate:"required,max=200"`
	Department   string          `json:"department" validate:"max=100"`
	Designation  string          `json:"designation" validate:"max=100"`
	Phone        string          `json:"phone" validate:"omitempty,phone"`
	Email        string          `json:"email" validate:"omitempty,email"`
	JoinedOn     *time.Time      `json:"joined_on"`
	DailyWage    decimal.Decimal `json:"daily_wage" validate:"gte=0"`
	Active       *bool           `json:"active"`
}

// UpdateEmployeeRequest changes the supplied fields of an employee
type UpdateEmployeeRequest struct {
	EmployeeCode *string          `json:"employee_code" validate:"omitempty,max=30"`
	FullName     *string          `json:"full_name" validate:"omitempty,max=200"`
	Department   *string          `json:"department" validate:"omitempty,max=100"`
	Designation  *string          `json:"designation" validate:"omitempty,max=100"`
	Phone        *string          `json:"phone" validate:"omitempty,phone"`
	Email        *string          `json:"email" validate:"omitempty,email"`
	JoinedOn     *time.Time       `json:"joined_on"`
	DailyWage    *decimal.Decimal `json:"daily_wage" validate:"omitempty,gte=0"`
	Active       *bool            `json:"active"`
}

// AttendanceRequest marks one employee-day
type AttendanceRequest struct {
	EmployeeID    uuid.UUID       `json:"employee_id" validate:"required"`
	Date          string          `json:"date" validate:"required,datetime=2006-01-02"`
	Status        string          `json:"status" validate:"required,oneof=present absent half_day leave"`
	CheckIn       *time.Time      `json:"check_in"`
	CheckOut      *time.Time      `json:"check_out"`
	OvertimeHours decimal.Decimal `json:"overtime_hours" validate:"gte=0,lte=24"`
	Notes         string          `json:"notes"`
}

// HRService manages employees and their attendance
type HRService interface {
	CreateEmployee(ctx context.Context, req EmployeeRequest) (*models.Employee, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	ListEmployees(ctx context.Context, filter repository.EmployeeFilter) ([]models.Employee, int64, error)
	UpdateEmployee(ctx context.Context, id uuid.UUID, req UpdateEmployeeRequest) (*models.Employee, error)
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
	MarkAttendance(ctx context.Context, req AttendanceRequest) (*models.Attendance, error)
	ListAttendance(ctx context.Context, filter repository.AttendanceFilter) ([]models.Attendance, int64, error)
	MonthlySummary(ctx context.Context, month string) ([]models.AttendanceSummary, error)
}

type hrService struct {
	employees  repository.EmployeeRepository
	attendance repository.AttendanceRepository
}

// NewHRService creates a new HR service
func NewHRService(employees repository.EmployeeRepository, attendance repository.AttendanceRepository) HRService {
	return &hrService{employees: employees, attendance: attendance}
}

func (s *hrService) CreateEmployee(ctx context.Context, req EmployeeRequest) (*models.Employee, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	code := strings.TrimSpace(req.EmployeeCode)
	if err := s.checkCode(ctx, code, uuid.Nil); err != nil {
		return nil, err
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		Base:         models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)},
		EmployeeCode: code,
		FullName:     req.FullName,
		Department:   req.Department,
		Designation:  req.Designation,
		Phone:        phone,
		Email:        req.Email,
		JoinedOn:     req.JoinedOn,
		DailyWage:    req.DailyWage.Round(2),
		Active:       boolOr(req.Active, true),
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *hrService) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	employee, err := s.employees.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	return employee, nil
}

func (s *hrService) ListEmployees(ctx context.Context, filter repository.EmployeeFilter) ([]models.Employee, int64, error) {
	return s.employees.List(ctx, filter)
}

func (s *hrService) UpdateEmployee(ctx context.Context, id uuid.UUID, req UpdateEmployeeRequest) (*models.Employee, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	employee, err := s.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.EmployeeCode != nil {
		code := strings.TrimSpace(*req.EmployeeCode)
		if code != employee.EmployeeCode {
			if err := s.checkCode(ctx, code, employee.ID); err != nil {
				return nil, err
			}
			employee.EmployeeCode = code
		}
	}
	if req.Phone != nil {
		phone, err := normalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		employee.Phone = phone
	}
	if req.FullName != nil {
		employee.FullName = *req.FullName
	}
	if req.Department != nil {
		employee.Department = *req.Department
	}
	if req.Designation != nil {
		employee.Designation = *req.Designation
	}
	if req.Email != nil {
		employee.Email = *req.Email
	}
	if req.JoinedOn != nil {
		employee.JoinedOn = req.JoinedOn
	}
	if req.DailyWage != nil {
		employee.DailyWage = req.DailyWage.Round(2)
	}
	if req.Active != nil {
		employee.Active = *req.Active
	}

	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, err
	}
	return employee, nil
}

func (s *hrService) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	return notFound(s.employees.Delete(ctx, id), "employee")
}

// MarkAttendance creates or replaces the mark of an employee-day
func (s *hrService) MarkAttendance(ctx context.Context, req AttendanceRequest) (*models.Attendance, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	day, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, api.NewValidationError("date must be formatted as YYYY-MM-DD")
	}
	status := models.AttendanceStatus(req.Status)

	switch status {
	case models.AttendanceAbsent, models.AttendanceLeave:
		if req.CheckIn != nil || req.CheckOut != nil {
			return nil, api.NewValidationError("%s must not carry check-in or check-out times", status)
		}
	}
	if req.CheckIn != nil && req.CheckOut != nil && !req.CheckOut.After(*req.CheckIn) {
		return nil, api.NewValidationError("check_out must be after check_in")
	}

	employee, err := s.employees.FindByID(ctx, req.EmployeeID)
	if err != nil {
		return nil, mustExist(err, "employee")
	}

	mark := &models.Attendance{
		Base:          models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)},
		EmployeeID:    employee.ID,
		Date:          day,
		Status:        status,
		CheckIn:       req.CheckIn,
		CheckOut:      req.CheckOut,
		OvertimeHours: req.OvertimeHours.Round(2),
		Notes:         req.Notes,
	}
	if err := s.attendance.Upsert(ctx, mark); err != nil {
		return nil, err
	}
	mark.Employee = employee
	return mark, nil
}

func (s *hrService) ListAttendance(ctx context.Context, filter repository.AttendanceFilter) ([]models.Attendance, int64, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, api.NewValidationError("to must not be before from")
	}
	return s.attendance.List(ctx, filter)
}

// MonthlySummary counts marks per employee for a YYYY-MM month
func (s *hrService) MonthlySummary(ctx context.Context, month string) ([]models.AttendanceSummary, error) {
	from, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, api.NewValidationError("month must be formatted as YYYY-MM")
	}
	to := from.AddDate(0, 1, 0)

	employees, err := s.employees.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.attendance.ListBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return models.SummarizeAttendance(employees, rows), nil
}

func (s *hrService) checkCode(ctx context.Context, code string, excludeID uuid.UUID) error {
	exists, err := s.employees.CodeExists(ctx, code, excludeID)
	if err != nil {
		return err
	}
	if exists {
		return api.NewConflictError("employee code %s already exists", code)
	}
	return nil
}
