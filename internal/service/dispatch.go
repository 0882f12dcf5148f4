package service

import (
	"context"
	"strings"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/search"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// DispatchItemRequest is one line of a new dispatch
type DispatchItemRequest struct {
	Description string          `json:"description" validate:"required,max=200"`
	Meters      decimal.Decimal `json:"meters" validate:"gt=0"`
	Rolls       int             `json:"rolls" validate:"gte=0"`
	Rate        decimal.Decimal `json:"rate" validate:"gte=0"`
}

// CreateDispatchRequest creates a pending dispatch
type CreateDispatchRequest struct {
	DispatchNumber string                `json:"dispatch_number" validate:"max=50"`
	OrderID        *uuid.UUID            `json:"order_id"`
	CustomerID     uuid.UUID             `json:"customer_id" validate:"required"`
	InvoiceNumber  string                `json:"invoice_number" validate:"max=50"`
	VehicleNumber  string                `json:"vehicle_number" validate:"max=30"`
	DriverName     string                `json:"driver_name" validate:"max=100"`
	DriverPhone    string                `json:"driver_phone" validate:"omitempty,phone"`
	Items          []DispatchItemRequest `json:"items" validate:"required,min=1,dive"`
}

// DispatchStatusRequest moves a dispatch to a new status
type DispatchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending dispatched delivered cancelled"`
}

// DispatchService manages shipments to customers
type DispatchService interface {
	Create(ctx context.Context, req CreateDispatchRequest) (*models.Dispatch, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Dispatch, error)
	List(ctx context.Context, filter repository.DispatchFilter) ([]models.Dispatch, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req DispatchStatusRequest) (*models.Dispatch, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type dispatchService struct {
	dispatches repository.DispatchRepository
	customers  repository.CustomerRepository
	orders     repository.ProductionRepository
	events     messaging.Publisher
	index      search.Indexer
	now        func() time.Time
}

// NewDispatchService creates a new dispatch service
func NewDispatchService(
	dispatches repository.DispatchRepository,
	customers repository.CustomerRepository,
	orders repository.ProductionRepository,
	events messaging.Publisher,
	index search.Indexer,
) DispatchService {
	return &dispatchService{
		dispatches: dispatches,
		customers:  customers,
		orders:     orders,
		events:     events,
		index:      index,
		now:        time.Now,
	}
}

func (s *dispatchService) Create(ctx context.Context, req CreateDispatchRequest) (*models.Dispatch, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	phone, err := normalizePhone(req.DriverPhone)
	if err != nil {
		return nil, err
	}

	customer, err := s.customers.FindByID(ctx, req.CustomerID)
	if err != nil {
		return nil, mustExist(err, "customer")
	}
	if req.OrderID != nil {
		if _, err := s.orders.FindOrder(ctx, *req.OrderID); err != nil {
			return nil, mustExist(err, "production order")
		}
	}

	number := strings.TrimSpace(req.DispatchNumber)
	if number == "" {
		number = documentNumber("DS", s.now())
	} else {
		exists, err := s.dispatches.NumberExists(ctx, number, uuid.Nil)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, api.NewConflictError("dispatch number %s already exists", number)
		}
	}

	tenantID := appctx.TenantID(ctx)
	dispatchID := uuid.New()
	dispatch := &models.Dispatch{
		Base:           models.Base{ID: dispatchID, TenantID: tenantID},
		DispatchNumber: number,
		OrderID:        req.OrderID,
		CustomerID:     customer.ID,
		InvoiceNumber:  req.InvoiceNumber,
		Status:         models.DispatchPending,
		VehicleNumber:  strings.ToUpper(strings.TrimSpace(req.VehicleNumber)),
		DriverName:     req.DriverName,
		DriverPhone:    phone,
	}
	for _, it := range req.Items {
		dispatch.Items = append(dispatch.Items, models.DispatchItem{
			Base:        models.Base{ID: uuid.New(), TenantID: tenantID},
			DispatchID:  dispatchID,
			Description: it.Description,
			Meters:      it.Meters.Round(2),
			Rolls:       it.Rolls,
			Rate:        it.Rate.Round(2),
		})
	}
	dispatch.ComputeTotals()

	if err := s.dispatches.Create(ctx, dispatch); err != nil {
		return nil, err
	}
	dispatch.Customer = customer

	log.Info().
		Str("dispatch_id", dispatch.ID.String()).
		Str("dispatch_number", dispatch.DispatchNumber).
		Str("total_meters", dispatch.TotalMeters.String()).
		Msg("Dispatch created")
	s.reindex(ctx, dispatch)
	return dispatch, nil
}

func (s *dispatchService) Get(ctx context.Context, id uuid.UUID) (*models.Dispatch, error) {
	dispatch, err := s.dispatches.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "dispatch")
	}
	return dispatch, nil
}

func (s *dispatchService) List(ctx context.Context, filter repository.DispatchFilter) ([]models.Dispatch, int64, error) {
	return s.dispatches.List(ctx, filter)
}

func (s *dispatchService) UpdateStatus(ctx context.Context, id uuid.UUID, req DispatchStatusRequest) (*models.Dispatch, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	dispatch, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := dispatch.Status
	to := models.DispatchStatus(req.Status)
	if !models.CanDispatchTransition(from, to) {
		return nil, api.NewTransitionError(string(from), string(to))
	}

	now := s.now().UTC()
	switch to {
	case models.DispatchDispatched:
		dispatch.DispatchedAt = &now
	case models.DispatchDelivered:
		dispatch.DeliveredAt = &now
	}
	dispatch.Status = to

	if err := s.dispatches.Update(ctx, dispatch); err != nil {
		return nil, err
	}

	publish(ctx, s.events, messaging.EventDispatchChanged, dispatch.TenantID, map[string]interface{}{
		"dispatch_id":     dispatch.ID,
		"dispatch_number": dispatch.DispatchNumber,
		"customer_id":     dispatch.CustomerID,
		"from":            from,
		"to":              to,
		"changed_by":      appctx.Username(ctx),
	})
	s.reindex(ctx, dispatch)
	return dispatch, nil
}

func (s *dispatchService) Delete(ctx context.Context, id uuid.UUID) error {
	dispatch, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if dispatch.Status != models.DispatchPending {
		return api.NewConflictError("only pending dispatches can be deleted")
	}
	return s.dispatches.Delete(ctx, id)
}

func (s *dispatchService) reindex(ctx context.Context, dispatch *models.Dispatch) {
	if s.index == nil {
		return
	}
	if err := s.index.IndexDispatch(ctx, dispatch); err != nil {
		log.Warn().Err(err).Str("dispatch_id", dispatch.ID.String()).Msg("Failed to index dispatch")
	}
}
