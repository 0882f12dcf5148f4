package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemCategory groups inventory items
type ItemCategory string

const (
	CategoryGreyFabric      ItemCategory = "grey_fabric"
	CategoryFinishedFabric  ItemCategory = "finished_fabric"
	CategoryDye             ItemCategory = "dye"
	CategoryChemical        ItemCategory = "chemical"
	CategoryPackingMaterial ItemCategory = "packing_material"
	CategoryOther           ItemCategory = "other"
)

// InventoryItem is a stocked material
type InventoryItem struct {
	Base
	SKU          string          `gorm:"size:50;not null" json:"sku"`
	Name         string          `gorm:"size:200;not null" json:"name"`
	Category     ItemCategory    `gorm:"size:30;not null;index" json:"category"`
	Unit         string          `gorm:"size:20;not null" json:"unit"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"quantity"`
	ReorderLevel decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"reorder_level"`
	UnitCost     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"unit_cost"`
	Location     string          `gorm:"size:100" json:"location"`
	SupplierID   *uuid.UUID      `gorm:"type:uuid;index" json:"supplier_id,omitempty"`
}

// IsLow reports whether stock is at or below the reorder level
func (i *InventoryItem) IsLow() bool {
	return i.Quantity.LessThanOrEqual(i.ReorderLevel)
}

// StockValue is quantity times unit cost
func (i *InventoryItem) StockValue() decimal.Decimal {
	return i.Quantity.Mul(i.UnitCost)
}

// MovementType describes how a stock movement changes the balance
type MovementType string

const (
	MovementIn         MovementType = "in"
	MovementOut        MovementType = "out"
	MovementAdjustment MovementType = "adjustment"
)

// StockMovement is an entry in an item's stock ledger
type StockMovement struct {
	Base
	ItemID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"item_id"`
	Type         MovementType    `gorm:"size:20;not null" json:"type"`
	Quantity     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"quantity"`
	BalanceAfter decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"balance_after"`
	Reference    string          `gorm:"size:100" json:"reference"`
	Notes        string          `gorm:"type:text" json:"notes"`
	CreatedBy    string          `gorm:"size:100" json:"created_by"`
}
