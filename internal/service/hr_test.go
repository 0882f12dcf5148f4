package service

import (
	"testing"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMarkAttendance(t *testing.T) {
	checkIn := time.Date(2026, 4, 17, 8, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 4, 17, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		req        func(employeeID uuid.UUID) AttendanceRequest
		wantStatus int
	}{
		{
			name: "present with times",
			req: func(id uuid.UUID) AttendanceRequest {
				return AttendanceRequest{EmployeeID: id, Date: "2026-04-17", Status: "present", CheckIn: &checkIn, CheckOut: &checkOut, OvertimeHours: dec("1.5")}
			},
		},
		{
			name: "leave without times",
			req: func(id uuid.UUID) AttendanceRequest {
				return AttendanceRequest{EmployeeID: id, Date: "2026-04-17", Status: "leave"}
			},
		},
		{
			name: "absent with check-in",
			req: func(id uuid.UUID) AttendanceRequest {
				return AttendanceRequest{EmployeeID: id, Date: "2026-04-17", Status: "absent", CheckIn: &checkIn}
			},
			wantStatus: 400,
		},
		{
			name: "check-out before check-in",
			req: func(id uuid.UUID) AttendanceRequest {
				return AttendanceRequest{EmployeeID: id, Date: "2026-04-17", Status: "present", CheckIn: &checkOut, CheckOut: &checkIn}
			},
			wantStatus: 400,
		},
		{
			name: "bad date",
			req: func(id uuid.UUID) AttendanceRequest {
				return AttendanceRequest{EmployeeID: id, Date: "17/04/2026", Status: "present"}
			},
			wantStatus: 400,
		},
		{
			name: "overtime above a day",
			req: func(id uuid.UUID) AttendanceRequest {
				return AttendanceRequest{EmployeeID: id, Date: "2026-04-17", Status: "present", OvertimeHours: dec("25")}
			},
			wantStatus: 400,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, tenantID := tenantContext()
			employees := new(MockEmployeeRepository)
			attendance := new(MockAttendanceRepository)
			svc := NewHRService(employees, attendance)
			employee := &models.Employee{Base: models.Base{ID: uuid.New(), TenantID: tenantID}, EmployeeCode: "E-7", FullName: "Meena"}

			employees.On("FindByID", mock.Anything, employee.ID).Return(employee, nil)
			attendance.On("Upsert", mock.Anything, mock.AnythingOfType("*models.Attendance")).Return(nil)

			mark, err := svc.MarkAttendance(ctx, tt.req(employee.ID))

			if tt.wantStatus != 0 {
				require.Error(t, err)
				assert.Equal(t, tt.wantStatus, api.AsError(err).StatusCode)
				attendance.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC), mark.Date)
			assert.Equal(t, tenantID, mark.TenantID)
			assert.Equal(t, employee, mark.Employee)
		})
	}
}

func TestMarkAttendanceUnknownEmployee(t *testing.T) {
	ctx, _ := tenantContext()
	employees := new(MockEmployeeRepository)
	svc := NewHRService(employees, new(MockAttendanceRepository))
	id := uuid.New()

	employees.On("FindByID", mock.Anything, id).Return((*models.Employee)(nil), repository.ErrNotFound)

	_, err := svc.MarkAttendance(ctx, AttendanceRequest{EmployeeID: id, Date: "2026-04-17", Status: "present"})

	require.Error(t, err)
	assert.Equal(t, 400, api.AsError(err).StatusCode)
}

func TestMonthlySummary(t *testing.T) {
	ctx, tenantID := tenantContext()
	employees := new(MockEmployeeRepository)
	attendance := new(MockAttendanceRepository)
	svc := NewHRService(employees, attendance)
	a := models.Employee{Base: models.Base{ID: uuid.New(), TenantID: tenantID}, EmployeeCode: "E-1", FullName: "Anil"}
	b := models.Employee{Base: models.Base{ID: uuid.New(), TenantID: tenantID}, EmployeeCode: "E-2", FullName: "Bina"}

	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	employees.On("ListAll", mock.Anything).Return([]models.Employee{a, b}, nil)
	attendance.On("ListBetween", mock.Anything, from, to).Return([]models.Attendance{
		{EmployeeID: a.ID, Status: models.AttendancePresent, OvertimeHours: dec("2")},
		{EmployeeID: a.ID, Status: models.AttendanceHalfDay, OvertimeHours: dec("0")},
		{EmployeeID: a.ID, Status: models.AttendanceAbsent, OvertimeHours: dec("0")},
	}, nil)

	rows, err := svc.MonthlySummary(ctx, "2026-03")

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.True(t, rows[0].PayableDays.Equal(dec("1.5")))
	assert.True(t, rows[0].Overtime.Equal(dec("2")))
	assert.Equal(t, 1, rows[0].Counts[models.AttendanceAbsent])
	assert.True(t, rows[1].PayableDays.IsZero())
	assert.Equal(t, 0, rows[1].Counts[models.AttendancePresent])

	_, err = svc.MonthlySummary(ctx, "March")
	require.Error(t, err)
	assert.Equal(t, 400, api.AsError(err).StatusCode)
}
