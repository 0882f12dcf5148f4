package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base holds the columns shared by every tenant-owned table
type Base struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate assigns a primary key when the caller did not
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Page describes a requested window of a list
type Page struct {
	Page     int
	PageSize int
}

// Normalize clamps the page to sane bounds
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
	return p
}

// Offset returns the row offset of the page
func (p Page) Offset() int {
	n := p.Normalize()
	return (n.Page - 1) * n.PageSize
}

// AllModels returns every model managed by migrations, parents first
func AllModels() []interface{} {
	return []interface{}{
		&Tenant{},
		&Role{},
		&User{},
		&Customer{},
		&Supplier{},
		&ProductionOrder{},
		&ProductionStage{},
		&StageLog{},
		&FoldingRecord{},
		&InventoryItem{},
		&StockMovement{},
		&Dispatch{},
		&DispatchItem{},
		&Employee{},
		&Attendance{},
		&ReportSchedule{},
		&ReportRun{},
	}
}
