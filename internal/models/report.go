package models

import (
	"time"

	"github.com/google/uuid"
)

// ReportType names a report the ERP can generate
type ReportType string

const (
	ReportProductionSummary ReportType = "production_summary"
	ReportQCSummary         ReportType = "qc_summary"
	ReportInventoryStock    ReportType = "inventory_stock"
	ReportDispatchSummary   ReportType = "dispatch_summary"
	ReportAttendanceSummary ReportType = "attendance_summary"
)

// AllReportTypes lists every report type
var AllReportTypes = []ReportType{
	ReportProductionSummary,
	ReportQCSummary,
	ReportInventoryStock,
	ReportDispatchSummary,
	ReportAttendanceSummary,
}

// IsValidReportType reports whether t names a known report
func IsValidReportType(t string) bool {
	for _, v := range AllReportTypes {
		if string(v) == t {
			return true
		}
	}
	return false
}

// Frequency is how often a schedule fires
type Frequency string

const (
	FrequencyDaily   Frequency = "daily"
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// ReportSchedule fires a report at a fixed time of day, week or month (UTC)
type ReportSchedule struct {
	Base
	Name       string     `gorm:"size:200;not null" json:"name"`
	ReportType ReportType `gorm:"size:50;not null" json:"report_type"`
	Frequency  Frequency  `gorm:"size:20;not null" json:"frequency"`
	Hour       int        `gorm:"not null" json:"hour"`
	Weekday    int        `gorm:"not null" json:"weekday"`
	DayOfMonth int        `gorm:"not null" json:"day_of_month"`
	Recipients []string   `gorm:"serializer:json;type:jsonb" json:"recipients"`
	Active     bool       `gorm:"not null;index" json:"active"`
	LastRunAt  *time.Time `json:"last_run_at,omitempty"`
	NextRunAt  time.Time  `gorm:"not null;index" json:"next_run_at"`
}

// NextRun returns the first firing time strictly after the given instant
func (s *ReportSchedule) NextRun(after time.Time) time.Time {
	after = after.UTC()
	switch s.Frequency {
	case FrequencyWeekly:
		candidate := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, 0, 0, 0, time.UTC)
		delta := (s.Weekday - int(candidate.Weekday()) + 7) % 7
		candidate = candidate.AddDate(0, 0, delta)
		if !candidate.After(after) {
			candidate = candidate.AddDate(0, 0, 7)
		}
		return candidate
	case FrequencyMonthly:
		candidate := time.Date(after.Year(), after.Month(), s.DayOfMonth, s.Hour, 0, 0, 0, time.UTC)
		if !candidate.After(after) {
			candidate = time.Date(after.Year(), after.Month()+1, s.DayOfMonth, s.Hour, 0, 0, 0, time.UTC)
		}
		return candidate
	default:
		candidate := time.Date(after.Year(), after.Month(), after.Day(), s.Hour, 0, 0, 0, time.UTC)
		if !candidate.After(after) {
			candidate = candidate.AddDate(0, 0, 1)
		}
		return candidate
	}
}

// ReportPeriod returns the data window a run at runAt covers
func ReportPeriod(freq Frequency, runAt time.Time) (time.Time, time.Time) {
	runAt = runAt.UTC()
	switch freq {
	case FrequencyDaily:
		return runAt.Add(-24 * time.Hour), runAt
	case FrequencyWeekly:
		return runAt.AddDate(0, 0, -7), runAt
	case FrequencyMonthly:
		to := time.Date(runAt.Year(), runAt.Month(), 1, 0, 0, 0, 0, time.UTC)
		return to.AddDate(0, -1, 0), to
	default:
		return runAt.AddDate(0, 0, -30), runAt
	}
}

// RunStatus is the outcome of a report run
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// ReportRun is one generated report
type ReportRun struct {
	Base
	ScheduleID  *uuid.UUID `gorm:"type:uuid;index" json:"schedule_id,omitempty"`
	ReportType  ReportType `gorm:"size:50;not null" json:"report_type"`
	Status      RunStatus  `gorm:"size:20;not null" json:"status"`
	ObjectKey   string     `gorm:"size:300" json:"object_key"`
	RowCount    int        `gorm:"not null" json:"row_count"`
	Error       string     `gorm:"type:text" json:"error,omitempty"`
	PeriodFrom  time.Time  `gorm:"not null" json:"period_from"`
	PeriodTo    time.Time  `gorm:"not null" json:"period_to"`
	GeneratedAt time.Time  `gorm:"not null" json:"generated_at"`
}
