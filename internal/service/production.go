package service

import (
	"context"
	"strings"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/search"
	"example.com/textile/erp/internal/tracing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CreateOrderRequest opens a production order
type CreateOrderRequest struct {
	OrderNumber     string          `json:"order_number" validate:"max=50"`
	CustomerID      *uuid.UUID      `json:"customer_id"`
	FabricType      string          `json:"fabric_type" validate:"required,max=100"`
	Color           string          `json:"color" validate:"max=100"`
	Design          string          `json:"design" validate:"max=100"`
	PlannedQuantity decimal.Decimal `json:"planned_quantity" validate:"gt=0"`
	Unit            string          `json:"unit" validate:"max=20"`
	Priority        string          `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	DueDate         *time.Time      `json:"due_date"`
	Notes           string          `json:"notes"`
}

// UpdateOrderRequest changes order metadata. Stage data is changed through
// UpdateStage only.
type UpdateOrderRequest struct {
	CustomerID *uuid.UUID `json:"customer_id"`
	FabricType *string    `json:"fabric_type" validate:"omitempty,max=100"`
	Color      *string    `json:"color" validate:"omitempty,max=100"`
	Design     *string    `json:"design" validate:"omitempty,max=100"`
	Priority   *string    `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	DueDate    *time.Time `json:"due_date"`
	Notes      *string    `json:"notes"`
}

// StageUpdateRequest moves a stage to a new status
type StageUpdateRequest struct {
	Status         string           `json:"status" validate:"required,stage_status"`
	ActualQuantity *decimal.Decimal `json:"actual_quantity" validate:"omitempty,gte=0"`
	Remarks        string           `json:"remarks"`
	AssignedTo     *string          `json:"assigned_to" validate:"omitempty,max=100"`
}

// StageChangedEvent is published after a stage transition is committed
type StageChangedEvent struct {
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	Stage       models.StageName   `json:"stage"`
	From        models.StageStatus `json:"from"`
	To          models.StageStatus `json:"to"`
	OrderStatus models.StageStatus `json:"order_status"`
	Progress    decimal.Decimal    `json:"progress"`
	ChangedBy   string             `json:"changed_by"`
}

// ProductionService manages production orders and their stages
type ProductionService interface {
	CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.ProductionOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error)
	ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.ProductionOrder, int64, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*models.ProductionOrder, error)
	DeleteOrder(ctx context.Context, id uuid.UUID) error
	CancelOrder(ctx context.Context, id uuid.UUID, remarks string) (*models.ProductionOrder, error)
	UpdateStage(ctx context.Context, orderID uuid.UUID, stage string, req StageUpdateRequest) (*models.ProductionOrder, error)
	ListLogs(ctx context.Context, orderID uuid.UUID) ([]models.StageLog, error)
}

type productionService struct {
	tx        repository.Transactor
	orders    repository.ProductionRepository
	folding   repository.FoldingRepository
	customers repository.CustomerRepository
	events    messaging.Publisher
	index     search.Indexer
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewProductionService creates a new production service
func NewProductionService(
	tx repository.Transactor,
	orders repository.ProductionRepository,
	folding repository.FoldingRepository,
	customers repository.CustomerRepository,
	events messaging.Publisher,
	index search.Indexer,
	m *metrics.Metrics,
) ProductionService {
	return &productionService{
		tx:        tx,
		orders:    orders,
		folding:   folding,
		customers: customers,
		events:    events,
		index:     index,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *productionService) CreateOrder(ctx context.Context, req CreateOrderRequest) (*models.ProductionOrder, error) {
	defer tracing.StartSegment(ctx, "ProductionService.CreateOrder")()

	if err := validate(req); err != nil {
		return nil, err
	}

	number := strings.TrimSpace(req.OrderNumber)
	if number == "" {
		number = documentNumber("PO", s.now())
	} else {
		exists, err := s.orders.OrderNumberExists(ctx, number, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, api.NewConflictError("order number %s already exists", number)
		}
	}

	if req.CustomerID != nil {
		if _, err := s.customers.FindByID(ctx, *req.CustomerID); err != nil {
			return nil, mustExist(err, "customer")
		}
	}

	tenantID := appctx.TenantID(ctx)
	orderID := uuid.New()
	order := &models.ProductionOrder{
		Base:              models.Base{ID: orderID, TenantID: tenantID},
		OrderNumber:       number,
		CustomerID:        req.CustomerID,
		FabricType:        req.FabricType,
		Color:             req.Color,
		Design:            req.Design,
		PlannedQuantity:   req.PlannedQuantity.Round(2),
		CompletedQuantity: decimal.Zero,
		Unit:              defaultString(req.Unit, "meter"),
		Priority:          models.OrderPriority(defaultString(req.Priority, string(models.PriorityNormal))),
		DueDate:           req.DueDate,
		Notes:             req.Notes,
	}
	order.Stages = models.NewStages(tenantID, orderID, order.PlannedQuantity)
	order.Recalculate()

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	log.Info().
		Str("order_id", order.ID.String()).
		Str("order_number", order.OrderNumber).
		Msg("Production order created")

	publish(ctx, s.events, messaging.EventOrderCreated, tenantID, map[string]interface{}{
		"order_id":         order.ID,
		"order_number":     order.OrderNumber,
		"planned_quantity": order.PlannedQuantity,
	})
	s.reindex(ctx, order)
	return order, nil
}

func (s *productionService) GetOrder(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error) {
	order, err := s.orders.FindOrder(ctx, id)
	if err != nil {
		return nil, notFound(err, "production order")
	}
	return order, nil
}

func (s *productionService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.ProductionOrder, int64, error) {
	if filter.Status != "" && !models.IsValidStageStatus(filter.Status) {
		return nil, 0, api.NewValidationError("unknown status %s", filter.Status)
	}
	if filter.Stage != "" && !models.IsValidStage(filter.Stage) {
		return nil, 0, api.NewValidationError("unknown stage %s", filter.Stage)
	}
	return s.orders.ListOrders(ctx, filter)
}

func (s *productionService) UpdateOrder(ctx context.Context, id uuid.UUID, req UpdateOrderRequest) (*models.ProductionOrder, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsClosed() {
		return nil, api.NewConflictError("production order is %s and can no longer be changed", order.Status)
	}

	if req.CustomerID != nil {
		if _, err := s.customers.FindByID(ctx, *req.CustomerID); err != nil {
			return nil, mustExist(err, "customer")
		}
		order.CustomerID = req.CustomerID
		order.Customer = nil
	}
	if req.FabricType != nil {
		order.FabricType = *req.FabricType
	}
	if req.Color != nil {
		order.Color = *req.Color
	}
	if req.Design != nil {
		order.Design = *req.Design
	}
	if req.Priority != nil {
		order.Priority = models.OrderPriority(*req.Priority)
	}
	if req.DueDate != nil {
		order.DueDate = req.DueDate
	}
	if req.Notes != nil {
		order.Notes = *req.Notes
	}

	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		return nil, err
	}
	s.reindex(ctx, order)
	return order, nil
}

func (s *productionService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.HasStarted() {
		return api.NewConflictError("production order %s has started and cannot be deleted", order.OrderNumber)
	}
	return s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.orders.DeleteOrder(ctx, id)
	})
}

func (s *productionService) CancelOrder(ctx context.Context, id uuid.UUID, remarks string) (*models.ProductionOrder, error) {
	var order *models.ProductionOrder
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindOrderForUpdate(ctx, id)
		if err != nil {
			return notFound(err, "production order")
		}
		if o.IsClosed() {
			return api.NewConflictError("production order is already %s", o.Status)
		}

		now := s.now().UTC()
		for i := range o.Stages {
			stage := &o.Stages[i]
			if stage.Status == models.StatusCompleted || stage.Status == models.StatusCancelled {
				continue
			}
			from := stage.Status
			stage.Status = models.StatusCancelled
			if remarks != "" {
				stage.Remarks = remarks
			}
			if err := s.orders.UpdateStage(ctx, stage); err != nil {
				return err
			}
			if err := s.orders.CreateLog(ctx, s.stageLog(ctx, o, stage, from, remarks, now)); err != nil {
				return err
			}
		}

		o.Recalculate()
		if err := s.orders.UpdateOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("order_id", order.ID.String()).Msg("Production order cancelled")
	publish(ctx, s.events, messaging.EventStageChanged, order.TenantID, StageChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		To:          models.StatusCancelled,
		OrderStatus: order.Status,
		Progress:    order.Progress,
		ChangedBy:   appctx.Username(ctx),
	})
	s.reindex(ctx, order)
	return order, nil
}

// UpdateStage applies a stage transition and everything that follows from it
// in one transaction: the gates, the log entry and the order roll-up.
func (s *productionService) UpdateStage(ctx context.Context, orderID uuid.UUID, stageName string, req StageUpdateRequest) (*models.ProductionOrder, error) {
	defer tracing.StartSegment(ctx, "ProductionService.UpdateStage")()

	if !models.IsValidStage(stageName) {
		return nil, api.NewNotFoundError("stage " + stageName)
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	var (
		order *models.ProductionOrder
		from  models.StageStatus
	)
	to := models.StageStatus(req.Status)
	name := models.StageName(stageName)

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		o, err := s.orders.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return notFound(err, "production order")
		}
		stage, ok := o.Stage(name)
		if !ok {
			return api.NewNotFoundError("stage " + stageName)
		}

		from = stage.Status
		if !models.CanTransition(from, to) {
			return api.NewTransitionError(string(from), string(to))
		}
		if to == models.StatusInProgress && !o.PredecessorsSettled(stage) {
			return api.NewConflictError("stages before %s must be completed or cancelled first", name)
		}
		if name == models.StageQualityControl && to == models.StatusCompleted {
			records, err := s.folding.ListByOrder(ctx, o.ID)
			if err != nil {
				return err
			}
			if !models.PassesQCGate(records) {
				return api.NewConflictError("quality control needs at least one folding record that did not fail")
			}
		}

		if req.ActualQuantity != nil {
			qty := req.ActualQuantity.Round(2)
			if qty.IsNegative() {
				return api.NewValidationError("actual_quantity must not be negative")
			}
			if qty.GreaterThan(stage.PlannedQuantity) {
				return api.NewValidationError("actual_quantity %s exceeds planned quantity %s", qty, stage.PlannedQuantity)
			}
			stage.ActualQuantity = qty
		} else if to == models.StatusCompleted && stage.ActualQuantity.IsZero() {
			stage.ActualQuantity = stage.PlannedQuantity
		}

		now := s.now().UTC()
		switch to {
		case models.StatusInProgress:
			if stage.StartedAt == nil {
				stage.StartedAt = &now
			}
		case models.StatusCompleted:
			stage.CompletedAt = &now
		}
		stage.Status = to
		if req.Remarks != "" {
			stage.Remarks = req.Remarks
		}
		if req.AssignedTo != nil {
			stage.AssignedTo = *req.AssignedTo
		}

		if err := s.orders.UpdateStage(ctx, stage); err != nil {
			return err
		}
		if err := s.orders.CreateLog(ctx, s.stageLog(ctx, o, stage, from, req.Remarks, now)); err != nil {
			return err
		}

		o.Recalculate()
		if err := s.orders.UpdateOrder(ctx, o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.StageTransitions)
	log.Info().
		Str("order_id", order.ID.String()).
		Str("stage", stageName).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("progress", order.Progress.String()).
		Msg("Stage updated")

	publish(ctx, s.events, messaging.EventStageChanged, order.TenantID, StageChangedEvent{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Stage:       name,
		From:        from,
		To:          to,
		OrderStatus: order.Status,
		Progress:    order.Progress,
		ChangedBy:   appctx.Username(ctx),
	})
	s.reindex(ctx, order)
	return order, nil
}

func (s *productionService) ListLogs(ctx context.Context, orderID uuid.UUID) ([]models.StageLog, error) {
	if _, err := s.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.orders.ListLogs(ctx, orderID)
}

func (s *productionService) stageLog(ctx context.Context, o *models.ProductionOrder, stage *models.ProductionStage, from models.StageStatus, remarks string, at time.Time) *models.StageLog {
	return &models.StageLog{
		Base:       models.Base{ID: uuid.New(), TenantID: o.TenantID},
		OrderID:    o.ID,
		StageID:    stage.ID,
		Stage:      stage.Name,
		FromStatus: from,
		ToStatus:   stage.Status,
		Quantity:   stage.ActualQuantity,
		Remarks:    remarks,
		ChangedBy:  appctx.Username(ctx),
		ChangedAt:  at,
	}
}

// reindex keeps the search index current. It runs after commit and only logs
// failures.
func (s *productionService) reindex(ctx context.Context, order *models.ProductionOrder) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexProductionOrder(ctx, order); err != nil {
		log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("Failed to index production order")
	}
}

func defaultString(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
