package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StageName identifies a processing step of a production order
type StageName string

const (
	StageGreyFabricInward StageName = "grey_fabric_inward"
	StagePreProcessing    StageName = "pre_processing"
	StageDyeing           StageName = "dyeing"
	StagePrinting         StageName = "printing"
	StageWashing          StageName = "washing"
	StageFixing           StageName = "fixing"
	StageFinishing        StageName = "finishing"
	StageQualityControl   StageName = "quality_control"
	StageCuttingPacking   StageName = "cutting_packing"
	StageDispatchInvoice  StageName = "dispatch_invoice"
)

// StageSequence is the fixed processing order of every production order
var StageSequence = []StageName{
	StageGreyFabricInward,
	StagePreProcessing,
	StageDyeing,
	StagePrinting,
	StageWashing,
	StageFixing,
	StageFinishing,
	StageQualityControl,
	StageCuttingPacking,
	StageDispatchInvoice,
}

// IsValidStage reports whether name is part of StageSequence
func IsValidStage(name string) bool {
	for _, s := range StageSequence {
		if string(s) == name {
			return true
		}
	}
	return false
}

// StageStatus is the state of a stage, and by derivation of an order
type StageStatus string

const (
	StatusPending    StageStatus = "pending"
	StatusInProgress StageStatus = "in_progress"
	StatusCompleted  StageStatus = "completed"
	StatusOnHold     StageStatus = "on_hold"
	StatusRejected   StageStatus = "rejected"
	StatusCancelled  StageStatus = "cancelled"
)

// AllStageStatuses lists the statuses in reporting order
var AllStageStatuses = []StageStatus{
	StatusPending,
	StatusInProgress,
	StatusCompleted,
	StatusOnHold,
	StatusRejected,
	StatusCancelled,
}

// IsValidStageStatus reports whether s names a known status
func IsValidStageStatus(s string) bool {
	for _, v := range AllStageStatuses {
		if string(v) == s {
			return true
		}
	}
	return false
}

var stageTransitions = map[StageStatus][]StageStatus{
	StatusPending:    {StatusInProgress, StatusOnHold, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusOnHold, StatusRejected, StatusCancelled},
	StatusOnHold:     {StatusInProgress, StatusCancelled},
	StatusRejected:   {StatusInProgress, StatusCancelled},
}

// CanTransition reports whether a stage may move from one status to another
func CanTransition(from, to StageStatus) bool {
	for _, allowed := range stageTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s
func (s StageStatus) IsTerminal() bool {
	return len(stageTransitions[s]) == 0
}

// OrderPriority ranks production orders for the floor
type OrderPriority string

const (
	PriorityLow    OrderPriority = "low"
	PriorityNormal OrderPriority = "normal"
	PriorityHigh   OrderPriority = "high"
	PriorityUrgent OrderPriority = "urgent"
)

// ProductionOrder is a manufacturing work order tracked through StageSequence
type ProductionOrder struct {
	Base
	OrderNumber       string            `gorm:"size:50;not null" json:"order_number"`
	CustomerID        *uuid.UUID        `gorm:"type:uuid;index" json:"customer_id,omitempty"`
	Customer          *Customer         `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	FabricType        string            `gorm:"size:100" json:"fabric_type"`
	Color             string            `gorm:"size:100" json:"color"`
	Design            string            `gorm:"size:100" json:"design"`
	PlannedQuantity   decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"planned_quantity"`
	CompletedQuantity decimal.Decimal   `gorm:"type:numeric(14,2);not null" json:"completed_quantity"`
	Unit              string            `gorm:"size:20;not null" json:"unit"`
	Status            StageStatus       `gorm:"size:20;not null;index" json:"status"`
	Priority          OrderPriority     `gorm:"size:20;not null" json:"priority"`
	DueDate           *time.Time        `json:"due_date,omitempty"`
	Progress          decimal.Decimal   `gorm:"type:numeric(5,2);not null" json:"progress"`
	CurrentStage      StageName         `gorm:"size:50" json:"current_stage"`
	Notes             string            `gorm:"type:text" json:"notes"`
	Stages            []ProductionStage `gorm:"foreignKey:OrderID" json:"stages,omitempty"`
}

// ProductionStage is one processing step of an order
type ProductionStage struct {
	Base
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	Name            StageName       `gorm:"size:50;not null" json:"name"`
	Sequence        int             `gorm:"not null" json:"sequence"`
	Status          StageStatus     `gorm:"size:20;not null;index" json:"status"`
	PlannedQuantity decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"planned_quantity"`
	ActualQuantity  decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"actual_quantity"`
	StartedAt       *time.Time      `json:"started_at,omitempty"`
	CompletedAt     *time.Time      `json:"completed_at,omitempty"`
	AssignedTo      string          `gorm:"size:100" json:"assigned_to"`
	Remarks         string          `gorm:"type:text" json:"remarks"`
}

// StageLog records one status change of a stage
type StageLog struct {
	Base
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"order_id"`
	StageID    uuid.UUID       `gorm:"type:uuid;not null" json:"stage_id"`
	Stage      StageName       `gorm:"size:50;not null" json:"stage"`
	FromStatus StageStatus     `gorm:"size:20;not null" json:"from_status"`
	ToStatus   StageStatus     `gorm:"size:20;not null" json:"to_status"`
	Quantity   decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"quantity"`
	Remarks    string          `gorm:"type:text" json:"remarks"`
	ChangedBy  string          `gorm:"size:100" json:"changed_by"`
	ChangedAt  time.Time       `gorm:"not null" json:"changed_at"`
}

// NewStages builds the pending stage list for a new order
func NewStages(tenantID, orderID uuid.UUID, planned decimal.Decimal) []ProductionStage {
	stages := make([]ProductionStage, 0, len(StageSequence))
	for i, name := range StageSequence {
		stages = append(stages, ProductionStage{
			Base:            Base{ID: uuid.New(), TenantID: tenantID},
			OrderID:         orderID,
			Name:            name,
			Sequence:        i + 1,
			Status:          StatusPending,
			PlannedQuantity: planned,
			ActualQuantity:  decimal.Zero,
		})
	}
	return stages
}

// Stage returns the named stage of the order
func (o *ProductionOrder) Stage(name StageName) (*ProductionStage, bool) {
	for i := range o.Stages {
		if o.Stages[i].Name == name {
			return &o.Stages[i], true
		}
	}
	return nil, false
}

// PredecessorsSettled reports whether every stage before the given one is
// completed or cancelled.
func (o *ProductionOrder) PredecessorsSettled(stage *ProductionStage) bool {
	for _, s := range o.Stages {
		if s.Sequence >= stage.Sequence {
			continue
		}
		if s.Status != StatusCompleted && s.Status != StatusCancelled {
			return false
		}
	}
	return true
}

var hundred = decimal.NewFromInt(100)

// Recalculate refreshes progress, completed quantity, current stage and
// status from the stages.
func (o *ProductionOrder) Recalculate() {
	o.Progress = StageProgress(o.Stages)
	o.CompletedQuantity = decimal.Zero
	o.CurrentStage = ""

	last := -1
	for _, s := range o.Stages {
		if s.Status == StatusCompleted && s.Sequence > last {
			last = s.Sequence
			o.CompletedQuantity = s.ActualQuantity
		}
	}
	current := 0
	for _, s := range o.Stages {
		if s.Status == StatusCompleted || s.Status == StatusCancelled {
			continue
		}
		if current == 0 || s.Sequence < current {
			current = s.Sequence
			o.CurrentStage = s.Name
		}
	}
	o.Status = DeriveOrderStatus(o.Stages)
}

// StageProgress is the completed share of planned quantity across
// non-cancelled stages, as a percentage rounded to two decimals.
func StageProgress(stages []ProductionStage) decimal.Decimal {
	total := decimal.Zero
	done := decimal.Zero
	for _, s := range stages {
		if s.Status == StatusCancelled {
			continue
		}
		total = total.Add(s.PlannedQuantity)
		if s.Status == StatusCompleted {
			done = done.Add(decimal.Min(s.ActualQuantity, s.PlannedQuantity))
		}
	}
	if !total.IsPositive() {
		return decimal.Zero
	}
	pct := done.Div(total).Mul(hundred).Round(2)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	if pct.IsNegative() {
		return decimal.Zero
	}
	return pct
}

// DeriveOrderStatus folds stage statuses into a single order status
func DeriveOrderStatus(stages []ProductionStage) StageStatus {
	if len(stages) == 0 {
		return StatusPending
	}
	counts := make(map[StageStatus]int)
	for _, s := range stages {
		counts[s.Status]++
	}
	active := len(stages) - counts[StatusCancelled]
	switch {
	case active == 0:
		return StatusCancelled
	case counts[StatusCompleted] == active:
		return StatusCompleted
	case counts[StatusInProgress] > 0 || counts[StatusRejected] > 0:
		return StatusInProgress
	case counts[StatusOnHold] > 0:
		return StatusOnHold
	case counts[StatusCompleted] > 0:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// IsClosed reports whether the order no longer accepts changes
func (o *ProductionOrder) IsClosed() bool {
	return o.Status == StatusCompleted || o.Status == StatusCancelled
}

// HasStarted reports whether any stage has left pending
func (o *ProductionOrder) HasStarted() bool {
	for _, s := range o.Stages {
		if s.Status != StatusPending {
			return true
		}
	}
	return false
}
