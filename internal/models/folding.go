package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QCStatus classifies a batch of checked material
type QCStatus string

const (
	QCPass    QCStatus = "pass"
	QCFail    QCStatus = "fail"
	QCPartial QCStatus = "partial"
)

// AllQCStatuses lists the QC statuses in reporting order
var AllQCStatuses = []QCStatus{QCPass, QCFail, QCPartial}

// IsValidQCStatus reports whether s names a known QC status
func IsValidQCStatus(s string) bool {
	for _, v := range AllQCStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

// Meter validation errors
var (
	ErrNegativeMeters    = errors.New("meters must not be negative")
	ErrNoInputMeters     = errors.New("input meters must be greater than zero")
	ErrMetersExceedInput = errors.New("checked + rejected meters exceed input meters")
)

// FoldingRecord is the outcome of folding and checking a batch of fabric
type FoldingRecord struct {
	Base
	OrderID        *uuid.UUID      `gorm:"type:uuid;index" json:"order_id,omitempty"`
	BatchNumber    string          `gorm:"size:50;not null;index" json:"batch_number"`
	InputMeters    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"input_meters"`
	CheckedMeters  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"checked_meters"`
	RejectedMeters decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"rejected_meters"`
	QCStatus       QCStatus        `gorm:"size:20;not null;index" json:"qc_status"`
	Defects        []string        `gorm:"serializer:json;type:jsonb" json:"defects"`
	Inspector      string          `gorm:"size:100" json:"inspector"`
	Shift          string          `gorm:"size:20" json:"shift"`
	CheckedAt      time.Time       `gorm:"not null" json:"checked_at"`
}

// ValidateMeters enforces checked + rejected <= input on non-negative meters
func ValidateMeters(input, checked, rejected decimal.Decimal) error {
	if input.IsNegative() || checked.IsNegative() || rejected.IsNegative() {
		return ErrNegativeMeters
	}
	if !input.IsPositive() {
		return ErrNoInputMeters
	}
	if checked.Add(rejected).GreaterThan(input) {
		return ErrMetersExceedInput
	}
	return nil
}

// DeriveQCStatus classifies a batch from its meters when no status was given
func DeriveQCStatus(checked, rejected decimal.Decimal) QCStatus {
	switch {
	case checked.IsZero():
		return QCFail
	case rejected.IsZero():
		return QCPass
	default:
		return QCPartial
	}
}

// Validate checks the record's meter invariant
func (f *FoldingRecord) Validate() error {
	return ValidateMeters(f.InputMeters, f.CheckedMeters, f.RejectedMeters)
}

// FoldingSummary aggregates folding records, typically of one order
type FoldingSummary struct {
	Records        int64              `json:"records"`
	InputMeters    decimal.Decimal    `json:"input_meters"`
	CheckedMeters  decimal.Decimal    `json:"checked_meters"`
	RejectedMeters decimal.Decimal    `json:"rejected_meters"`
	ByStatus       map[QCStatus]int64 `json:"by_status"`
	RejectionRate  decimal.Decimal    `json:"rejection_rate"`
}

// SummarizeFolding totals a set of folding records
func SummarizeFolding(records []FoldingRecord) FoldingSummary {
	sum := FoldingSummary{
		InputMeters:    decimal.Zero,
		CheckedMeters:  decimal.Zero,
		RejectedMeters: decimal.Zero,
		ByStatus:       map[QCStatus]int64{QCPass: 0, QCFail: 0, QCPartial: 0},
		RejectionRate:  decimal.Zero,
	}
	for _, r := range records {
		sum.Records++
		sum.InputMeters = sum.InputMeters.Add(r.InputMeters)
		sum.CheckedMeters = sum.CheckedMeters.Add(r.CheckedMeters)
		sum.RejectedMeters = sum.RejectedMeters.Add(r.RejectedMeters)
		sum.ByStatus[r.QCStatus]++
	}
	if sum.InputMeters.IsPositive() {
		sum.RejectionRate = sum.RejectedMeters.Div(sum.InputMeters).Mul(hundred).Round(2)
	}
	return sum
}

// PassesQCGate reports whether the records allow quality control to complete:
// at least one record, and not all of them failed.
func PassesQCGate(records []FoldingRecord) bool {
	for _, r := range records {
		if r.QCStatus != QCFail {
			return true
		}
	}
	return false
}
