package service

import (
	"context"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FoldingRequest records a folding and checking batch
type FoldingRequest struct {
	OrderID        *uuid.UUID      `json:"order_id"`
	BatchNumber    string          `json:"batch_number" validate:"required,max=50"`
	InputMeters    decimal.Decimal `json:"input_meters"`
	CheckedMeters  decimal.Decimal `json:"checked_meters"`
	RejectedMeters decimal.Decimal `json:"rejected_meters"`
	QCStatus       string          `json:"qc_status" validate:"omitempty,qc_status"`
	Defects        []string        `json:"defects" validate:"omitempty,dive,max=100"`
	Inspector      string          `json:"inspector" validate:"max=100"`
	Shift          string          `json:"shift" validate:"max=20"`
	CheckedAt      *time.Time      `json:"checked_at"`
}

// UpdateFoldingRequest changes the supplied fields of a folding record
type UpdateFoldingRequest struct {
	BatchNumber    *string          `json:"batch_number" validate:"omitempty,max=50"`
	InputMeters    *decimal.Decimal `json:"input_meters"`
	CheckedMeters  *decimal.Decimal `json:"checked_meters"`
	RejectedMeters *decimal.Decimal `json:"rejected_meters"`
	QCStatus       *string          `json:"qc_status" validate:"omitempty,qc_status"`
	Defects        []string         `json:"defects" validate:"omitempty,dive,max=100"`
	Inspector      *string          `json:"inspector" validate:"omitempty,max=100"`
	Shift          *string          `json:"shift" validate:"omitempty,max=20"`
	CheckedAt      *time.Time       `json:"checked_at"`
}

// FoldingService records folding and QC results
type FoldingService interface {
	Create(ctx context.Context, req FoldingRequest) (*models.FoldingRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*models.FoldingRecord, error)
	List(ctx context.Context, filter repository.FoldingFilter) ([]models.FoldingRecord, int64, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateFoldingRequest) (*models.FoldingRecord, error)
	Delete(ctx context.Context, id uuid.UUID) error
	OrderSummary(ctx context.Context, orderID uuid.UUID) (*models.FoldingSummary, error)
}

type foldingService struct {
	records repository.FoldingRepository
	orders  repository.ProductionRepository
	events  messaging.Publisher
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewFoldingService creates a new folding service
func NewFoldingService(records repository.FoldingRepository, orders repository.ProductionRepository, events messaging.Publisher, m *metrics.Metrics) FoldingService {
	return &foldingService{records: records, orders: orders, events: events, metrics: m, now: time.Now}
}

func (s *foldingService) Create(ctx context.Context, req FoldingRequest) (*models.FoldingRecord, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	input := req.InputMeters.Round(2)
	checked := req.CheckedMeters.Round(2)
	rejected := req.RejectedMeters.Round(2)
	if err := models.ValidateMeters(input, checked, rejected); err != nil {
		return nil, api.NewValidationError("%s", err.Error())
	}

	if req.OrderID != nil {
		if _, err := s.orders.FindOrder(ctx, *req.OrderID); err != nil {
			return nil, mustExist(err, "production order")
		}
	}

	record := &models.FoldingRecord{
		Base:           models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)},
		OrderID:        req.OrderID,
		BatchNumber:    req.BatchNumber,
		InputMeters:    input,
		CheckedMeters:  checked,
		RejectedMeters: rejected,
		QCStatus:       qcStatusOf(req.QCStatus, checked, rejected),
		Defects:        nonNil(req.Defects),
		Inspector:      req.Inspector,
		Shift:          req.Shift,
		CheckedAt:      s.checkedAt(req.CheckedAt),
	}
	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	s.metrics.IncrementCounter(metrics.FoldingRecords)
	publish(ctx, s.events, messaging.EventFoldingRecorded, record.TenantID, map[string]interface{}{
		"record_id":       record.ID,
		"order_id":        record.OrderID,
		"batch_number":    record.BatchNumber,
		"qc_status":       record.QCStatus,
		"rejected_meters": record.RejectedMeters,
	})
	return record, nil
}

func (s *foldingService) Get(ctx context.Context, id uuid.UUID) (*models.FoldingRecord, error) {
	record, err := s.records.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "folding record")
	}
	return record, nil
}

func (s *foldingService) List(ctx context.Context, filter repository.FoldingFilter) ([]models.FoldingRecord, int64, error) {
	if filter.QCStatus != "" && !models.IsValidQCStatus(filter.QCStatus) {
		return nil, 0, api.NewValidationError("qc_status must be one of pass, fail, partial")
	}
	return s.records.List(ctx, filter)
}

// Update merges the request into the stored record and re-validates the
// meters of the result. A status is re-derived when meters change and none
// was supplied.
func (s *foldingService) Update(ctx context.Context, id uuid.UUID, req UpdateFoldingRequest) (*models.FoldingRecord, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	record, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	metersChanged := false
	if req.InputMeters != nil {
		record.InputMeters = req.InputMeters.Round(2)
		metersChanged = true
	}
	if req.CheckedMeters != nil {
		record.CheckedMeters = req.CheckedMeters.Round(2)
		metersChanged = true
	}
	if req.RejectedMeters != nil {
		record.RejectedMeters = req.RejectedMeters.Round(2)
		metersChanged = true
	}
	if err := record.Validate(); err != nil {
		return nil, api.NewValidationError("%s", err.Error())
	}

	switch {
	case req.QCStatus != nil:
		record.QCStatus = models.QCStatus(*req.QCStatus)
	case metersChanged:
		record.QCStatus = models.DeriveQCStatus(record.CheckedMeters, record.RejectedMeters)
	}
	if req.BatchNumber != nil {
		record.BatchNumber = *req.BatchNumber
	}
	if req.Defects != nil {
		record.Defects = req.Defects
	}
	if req.Inspector != nil {
		record.Inspector = *req.Inspector
	}
	if req.Shift != nil {
		record.Shift = *req.Shift
	}
	if req.CheckedAt != nil {
		record.CheckedAt = req.CheckedAt.UTC()
	}

	if err := s.records.Update(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *foldingService) Delete(ctx context.Context, id uuid.UUID) error {
	return notFound(s.records.Delete(ctx, id), "folding record")
}

func (s *foldingService) OrderSummary(ctx context.Context, orderID uuid.UUID) (*models.FoldingSummary, error) {
	if _, err := s.orders.FindOrder(ctx, orderID); err != nil {
		return nil, notFound(err, "production order")
	}
	records, err := s.records.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	summary := models.SummarizeFolding(records)
	return &summary, nil
}

func (s *foldingService) checkedAt(t *time.Time) time.Time {
	if t == nil || t.IsZero() {
		return s.now().UTC()
	}
	return t.UTC()
}

func qcStatusOf(supplied string, checked, rejected decimal.Decimal) models.QCStatus {
	if supplied != "" {
		return models.QCStatus(supplied)
	}
	return models.DeriveQCStatus(checked, rejected)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
