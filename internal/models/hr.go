package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee is a worker on the plant payroll
type Employee struct {
	Base
	EmployeeCode string          `gorm:"size:30;not null" json:"employee_code"`
	FullName     string          `gorm:"size:200;not null" json:"full_name"`
	Department   string          `gorm:"size:100;index" json:"department"`
	Designation  string          `gorm:"size:100" json:"designation"`
	Phone        string          `gorm:"size:20" json:"phone"`
	Email        string          `gorm:"size:200" json:"email"`
	JoinedOn     *time.Time      `gorm:"type:date" json:"joined_on,omitempty"`
	DailyWage    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"daily_wage"`
	Active       bool            `gorm:"not null" json:"active"`
}

// AttendanceStatus is the presence mark of an employee for a day
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceHalfDay AttendanceStatus = "half_day"
	AttendanceLeave   AttendanceStatus = "leave"
)

// AllAttendanceStatuses lists attendance statuses in reporting order
var AllAttendanceStatuses = []AttendanceStatus{AttendancePresent, AttendanceAbsent, AttendanceHalfDay, AttendanceLeave}

// Attendance is one employee-day
type Attendance struct {
	Base
	EmployeeID    uuid.UUID        `gorm:"type:uuid;not null;index" json:"employee_id"`
	Employee      *Employee        `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Date          time.Time        `gorm:"type:date;not null;index" json:"date"`
	Status        AttendanceStatus `gorm:"size:20;not null" json:"status"`
	CheckIn       *time.Time       `json:"check_in,omitempty"`
	CheckOut      *time.Time       `json:"check_out,omitempty"`
	OvertimeHours decimal.Decimal  `gorm:"type:numeric(5,2);not null" json:"overtime_hours"`
	Notes         string           `gorm:"type:text" json:"notes"`
}

// AttendanceSummary counts one employee's marks over a period
type AttendanceSummary struct {
	EmployeeID   uuid.UUID                `json:"employee_id"`
	EmployeeCode string                   `json:"employee_code"`
	FullName     string                   `json:"full_name"`
	Counts       map[AttendanceStatus]int `json:"counts"`
	PayableDays  decimal.Decimal          `json:"payable_days"`
	Overtime     decimal.Decimal          `json:"overtime_hours"`
}

var half = decimal.NewFromFloat(0.5)

// SummarizeAttendance groups attendance rows per employee. Employees without
// rows still appear with zero counts.
func SummarizeAttendance(employees []Employee, rows []Attendance) []AttendanceSummary {
	index := make(map[uuid.UUID]int, len(employees))
	out := make([]AttendanceSummary, 0, len(employees))
	for _, e := range employees {
		index[e.ID] = len(out)
		counts := make(map[AttendanceStatus]int, len(AllAttendanceStatuses))
		for _, s := range AllAttendanceStatuses {
			counts[s] = 0
		}
		out = append(out, AttendanceSummary{
			EmployeeID:   e.ID,
			EmployeeCode: e.EmployeeCode,
			FullName:     e.FullName,
			Counts:       counts,
			PayableDays:  decimal.Zero,
			Overtime:     decimal.Zero,
		})
	}
	for _, r := range rows {
		i, ok := index[r.EmployeeID]
		if !ok {
			continue
		}
		s := &out[i]
		s.Counts[r.Status]++
		s.Overtime = s.Overtime.Add(r.OvertimeHours)
		switch r.Status {
		case AttendancePresent:
			s.PayableDays = s.PayableDays.Add(decimal.NewFromInt(1))
		case AttendanceHalfDay:
			s.PayableDays = s.PayableDays.Add(half)
		}
	}
	return out
}
