package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DispatchStatus tracks a shipment from the plant to the customer
type DispatchStatus string

const (
	DispatchPending    DispatchStatus = "pending"
	DispatchDispatched DispatchStatus = "dispatched"
	DispatchDelivered  DispatchStatus = "delivered"
	DispatchCancelled  DispatchStatus = "cancelled"
)

// AllDispatchStatuses lists dispatch statuses in reporting order
var AllDispatchStatuses = []DispatchStatus{DispatchPending, DispatchDispatched, DispatchDelivered, DispatchCancelled}

var dispatchTransitions = map[DispatchStatus][]DispatchStatus{
	DispatchPending:    {DispatchDispatched, DispatchCancelled},
	DispatchDispatched: {DispatchDelivered},
}

// CanDispatchTransition reports whether a dispatch may move between statuses
func CanDispatchTransition(from, to DispatchStatus) bool {
	for _, allowed := range dispatchTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Dispatch is a shipment of finished goods, invoiced to a customer
type Dispatch struct {
	Base
	DispatchNumber string          `gorm:"size:50;not null" json:"dispatch_number"`
	OrderID        *uuid.UUID      `gorm:"type:uuid;index" json:"order_id,omitempty"`
	CustomerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer       *Customer       `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	InvoiceNumber  string          `gorm:"size:50" json:"invoice_number"`
	Status         DispatchStatus  `gorm:"size:20;not null;index" json:"status"`
	VehicleNumber  string          `gorm:"size:30" json:"vehicle_number"`
	DriverName     string          `gorm:"size:100" json:"driver_name"`
	DriverPhone    string          `gorm:"size:20" json:"driver_phone"`
	TotalMeters    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_meters"`
	TotalRolls     int             `gorm:"not null" json:"total_rolls"`
	TotalAmount    decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"total_amount"`
	DispatchedAt   *time.Time      `json:"dispatched_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	Items          []DispatchItem  `gorm:"foreignKey:DispatchID" json:"items,omitempty"`
}

// DispatchItem is one line of a dispatch
type DispatchItem struct {
	Base
	DispatchID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"dispatch_id"`
	Description string          `gorm:"size:200;not null" json:"description"`
	Meters      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"meters"`
	Rolls       int             `gorm:"not null" json:"rolls"`
	Rate        decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"rate"`
	Amount      decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
}

// ComputeTotals sets line amounts and the dispatch totals from its items
func (d *Dispatch) ComputeTotals() {
	d.TotalMeters = decimal.Zero
	d.TotalAmount = decimal.Zero
	d.TotalRolls = 0
	for i := range d.Items {
		d.Items[i].Amount = d.Items[i].Meters.Mul(d.Items[i].Rate).Round(2)
		d.TotalMeters = d.TotalMeters.Add(d.Items[i].Meters)
		d.TotalAmount = d.TotalAmount.Add(d.Items[i].Amount)
		d.TotalRolls += d.Items[i].Rolls
	}
}
