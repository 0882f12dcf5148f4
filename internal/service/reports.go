package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/cache"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/storage"
	"example.com/textile/erp/internal/tracing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// XLSXContentType is the media type of generated workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const adHocPeriod = 30 * 24 * time.Hour

// ReportGenerator renders a report of one type for a period
type ReportGenerator interface {
	Generate(ctx context.Context, reportType models.ReportType, from, to time.Time) ([]byte, int, error)
}

// ScheduleRequest creates or replaces a report schedule
type ScheduleRequest struct {
	Name       string   `json:"name" validate:"required,max=200"`
	ReportType string   `json:"report_type" validate:"required,report_type"`
	Frequency  string   `json:"frequency" validate:"required,oneof=daily weekly monthly"`
	Hour       int      `json:"hour" validate:"gte=0,lte=23"`
	Weekday    int      `json:"weekday" validate:"gte=0,lte=6"`
	DayOfMonth int      `json:"day_of_month" validate:"gte=0,lte=28"`
	Recipients []string `json:"recipients" validate:"omitempty,dive,email"`
	Active     *bool    `json:"active"`
}

// ReportRequestedCommand asks the worker to generate a report
type ReportRequestedCommand struct {
	ReportType string     `json:"report_type"`
	ScheduleID *uuid.UUID `json:"schedule_id,omitempty"`
	From       *time.Time `json:"from,omitempty"`
	To         *time.Time `json:"to,omitempty"`
	Recipients []string   `json:"recipients,omitempty"`
}

// ReportGeneratedEvent is published after a report file is stored
type ReportGeneratedEvent struct {
	RunID      uuid.UUID         `json:"run_id"`
	ScheduleID *uuid.UUID        `json:"schedule_id,omitempty"`
	ReportType models.ReportType `json:"report_type"`
	ObjectKey  string            `json:"object_key"`
	RowCount   int               `json:"row_count"`
	PeriodFrom time.Time         `json:"period_from"`
	PeriodTo   time.Time         `json:"period_to"`
	Recipients []string          `json:"recipients"`
}

// Download is a presigned link to a stored report
type Download struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Export is a workbook generated on demand
type Export struct {
	Filename string
	Data     []byte
	Rows     int
}

// ReportService manages report schedules, runs and exports. It also carries
// the worker entry points.
type ReportService interface {
	CreateSchedule(ctx context.Context, req ScheduleRequest) (*models.ReportSchedule, error)
	GetSchedule(ctx context.Context, id uuid.UUID) (*models.ReportSchedule, error)
	ListSchedules(ctx context.Context, page models.Page) ([]models.ReportSchedule, int64, error)
	UpdateSchedule(ctx context.Context, id uuid.UUID, req ScheduleRequest) (*models.ReportSchedule, error)
	DeleteSchedule(ctx context.Context, id uuid.UUID) error
	RunSchedule(ctx context.Context, id uuid.UUID) (*models.ReportRun, error)
	RequestRun(ctx context.Context, id uuid.UUID) error
	ListRuns(ctx context.Context, scheduleID *uuid.UUID, page models.Page) ([]models.ReportRun, int64, error)
	DownloadURL(ctx context.Context, runID uuid.UUID) (*Download, error)
	Export(ctx context.Context, reportType string, from, to *time.Time) (*Export, error)

	RunDue(ctx context.Context) (int, error)
	ScanLowStock(ctx context.Context) (int, error)
	HandleCommand(ctx context.Context, env messaging.Envelope) error
}

type reportService struct {
	reports   repository.ReportRepository
	inventory repository.InventoryRepository
	generator ReportGenerator
	store     storage.ObjectStore
	locker    cache.Locker
	events    messaging.Publisher
	commands  messaging.CommandSender
	cfg       config.ReportsConfig
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	reports repository.ReportRepository,
	inventory repository.InventoryRepository,
	generator ReportGenerator,
	store storage.ObjectStore,
	locker cache.Locker,
	events messaging.Publisher,
	commands messaging.CommandSender,
	cfg config.ReportsConfig,
	m *metrics.Metrics,
) ReportService {
	return &reportService{
		reports:   reports,
		inventory: inventory,
		generator: generator,
		store:     store,
		locker:    locker,
		events:    events,
		commands:  commands,
		cfg:       cfg,
		metrics:   m,
		now:       time.Now,
	}
}

func (s *reportService) CreateSchedule(ctx context.Context, req ScheduleRequest) (*models.ReportSchedule, error) {
	schedule := &models.ReportSchedule{Base: models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)}}
	if err := s.applySchedule(schedule, req); err != nil {
		return nil, err
	}
	if err := s.reports.CreateSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *reportService) GetSchedule(ctx context.Context, id uuid.UUID) (*models.ReportSchedule, error) {
	schedule, err := s.reports.FindSchedule(ctx, id)
	if err != nil {
		return nil, notFound(err, "report schedule")
	}
	return schedule, nil
}

func (s *reportService) ListSchedules(ctx context.Context, page models.Page) ([]models.ReportSchedule, int64, error) {
	return s.reports.ListSchedules(ctx, page)
}

func (s *reportService) UpdateSchedule(ctx context.Context, id uuid.UUID, req ScheduleRequest) (*models.ReportSchedule, error) {
	schedule, err := s.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applySchedule(schedule, req); err != nil {
		return nil, err
	}
	if err := s.reports.UpdateSchedule(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *reportService) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return notFound(s.reports.DeleteSchedule(ctx, id), "report schedule")
}

// applySchedule copies req onto schedule and recomputes next_run_at
func (s *reportService) applySchedule(schedule *models.ReportSchedule, req ScheduleRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	freq := models.Frequency(req.Frequency)
	if freq == models.FrequencyMonthly && req.DayOfMonth < 1 {
		return api.NewValidationError("day_of_month must be between 1 and 28 for monthly schedules")
	}

	schedule.Name = req.Name
	schedule.ReportType = models.ReportType(req.ReportType)
	schedule.Frequency = freq
	schedule.Hour = req.Hour
	schedule.Weekday = req.Weekday
	schedule.DayOfMonth = req.DayOfMonth
	schedule.Recipients = nonNil(req.Recipients)
	schedule.Active = boolOr(req.Active, true)
	schedule.NextRunAt = schedule.NextRun(s.now())
	return nil
}

// RunSchedule generates the schedule's report now. The regular cadence is
// left untouched.
func (s *reportService) RunSchedule(ctx context.Context, id uuid.UUID) (*models.ReportRun, error) {
	schedule, err := s.GetSchedule(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	from, to := models.ReportPeriod(schedule.Frequency, now)
	run, err := s.generate(ctx, schedule.TenantID, &schedule.ID, schedule.ReportType, from, to, schedule.Recipients)
	if err != nil {
		return nil, err
	}

	schedule.LastRunAt = &now
	if err := s.reports.UpdateSchedule(ctx, schedule); err != nil {
		log.Warn().Err(err).Str("schedule_id", schedule.ID.String()).Msg("Failed to record schedule run")
	}
	return run, nil
}

// RequestRun queues a schedule run for the worker instead of generating the
// report inside the request.
func (s *reportService) RequestRun(ctx context.Context, id uuid.UUID) error {
	schedule, err := s.GetSchedule(ctx, id)
	if err != nil {
		return err
	}
	cmd := ReportRequestedCommand{ReportType: string(schedule.ReportType), ScheduleID: &schedule.ID}
	if err := s.commands.SendCommand(ctx, messaging.CommandReportRequested, schedule.TenantID, cmd); err != nil {
		if errors.Is(err, messaging.ErrNotConfigured) {
			return api.NewError("report queue is not configured", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
		}
		return err
	}
	log.Info().Str("schedule_id", schedule.ID.String()).Msg("Report run queued")
	return nil
}

func (s *reportService) ListRuns(ctx context.Context, scheduleID *uuid.UUID, page models.Page) ([]models.ReportRun, int64, error) {
	return s.reports.ListRuns(ctx, scheduleID, page)
}

func (s *reportService) DownloadURL(ctx context.Context, runID uuid.UUID) (*Download, error) {
	run, err := s.reports.FindRun(ctx, runID)
	if err != nil {
		return nil, notFound(err, "report run")
	}
	if run.Status != models.RunSuccess || run.ObjectKey == "" {
		return nil, api.NewConflictError("report run has no stored file")
	}

	filename := fmt.Sprintf("%s_%s.xlsx", run.ReportType, run.PeriodTo.Format("20060102"))
	url, err := s.store.PresignedURL(ctx, run.ObjectKey, filename, s.cfg.DownloadURLTTL)
	if err != nil {
		if errors.Is(err, storage.ErrNotConfigured) {
			return nil, api.NewError("report storage is not configured", http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
		}
		return nil, err
	}
	return &Download{URL: url, ExpiresAt: s.now().UTC().Add(s.cfg.DownloadURLTTL)}, nil
}

// Export renders a workbook for the window [from, to). Missing bounds default
// to the 30 days before to.
func (s *reportService) Export(ctx context.Context, reportType string, from, to *time.Time) (*Export, error) {
	defer tracing.StartSegment(ctx, "ReportService.Export")()

	if !models.IsValidReportType(reportType) {
		return nil, api.NewValidationError("unknown report type %s", reportType)
	}
	start, end := s.window(from, to)
	if !end.After(start) {
		return nil, api.NewValidationError("to must be after from")
	}

	data, rows, err := s.generator.Generate(ctx, models.ReportType(reportType), start, end)
	if err != nil {
		return nil, err
	}
	return &Export{
		Filename: fmt.Sprintf("%s_%s_%s.xlsx", reportType, start.Format("20060102"), end.Format("20060102")),
		Data:     data,
		Rows:     rows,
	}, nil
}

func (s *reportService) window(from, to *time.Time) (time.Time, time.Time) {
	end := s.now().UTC()
	if to != nil {
		end = to.UTC()
	}
	start := end.Add(-adHocPeriod)
	if from != nil {
		start = from.UTC()
	}
	return start, end
}

// generate renders, stores and records one run. Generation or storage
// failures are recorded on the run rather than returned; only a failure to
// record the run itself is an error.
func (s *reportService) generate(
	ctx context.Context,
	tenantID uuid.UUID,
	scheduleID *uuid.UUID,
	reportType models.ReportType,
	from, to time.Time,
	recipients []string,
) (*models.ReportRun, error) {
	started := s.now()
	run := &models.ReportRun{
		Base:        models.Base{ID: uuid.New(), TenantID: tenantID},
		ScheduleID:  scheduleID,
		ReportType:  reportType,
		PeriodFrom:  from,
		PeriodTo:    to,
		GeneratedAt: started.UTC(),
	}

	data, rows, err := s.generator.Generate(ctx, reportType, from, to)
	if err == nil {
		key := storage.ReportKey(tenantID, string(reportType), run.ID)
		err = s.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), XLSXContentType)
		if err == nil {
			run.ObjectKey = key
		}
	}
	if err != nil {
		run.Status = models.RunFailed
		run.Error = err.Error()
	} else {
		run.Status = models.RunSuccess
		run.RowCount = rows
	}
	s.metrics.RecordDuration("reports."+string(reportType), s.now().Sub(started))
	s.metrics.RecordResult("reports.runs", err != nil)

	if err := s.reports.CreateRun(ctx, run); err != nil {
		return nil, err
	}

	logger := log.With().
		Str("tenant_id", tenantID.String()).
		Str("run_id", run.ID.String()).
		Str("report_type", string(reportType)).
		Logger()
	if run.Status == models.RunFailed {
		s.metrics.IncrementCounter(metrics.ReportsFailed)
		logger.Error().Str("reason", run.Error).Msg("Report run failed")
		return run, nil
	}

	s.metrics.IncrementCounter(metrics.ReportsGenerated)
	logger.Info().Int("rows", rows).Str("object_key", run.ObjectKey).Msg("Report generated")
	publish(ctx, s.events, messaging.EventReportGenerated, tenantID, ReportGeneratedEvent{
		RunID:      run.ID,
		ScheduleID: scheduleID,
		ReportType: reportType,
		ObjectKey:  run.ObjectKey,
		RowCount:   rows,
		PeriodFrom: from,
		PeriodTo:   to,
		Recipients: nonNil(recipients),
	})
	return run, nil
}

// RunDue fires every due schedule across tenants. Each schedule is guarded
// by a distributed lock and re-checked under it, so concurrent workers run
// it once.
func (s *reportService) RunDue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	due, err := s.reports.DueSchedules(appctx.WithoutTenantScope(ctx), now)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, schedule := range due {
		if ctx.Err() != nil {
			return ran, ctx.Err()
		}
		ok, err := s.runLocked(ctx, schedule, now)
		if err != nil {
			log.Error().Err(err).Str("schedule_id", schedule.ID.String()).Msg("Scheduled report failed")
			continue
		}
		if ok {
			ran++
		}
	}
	return ran, nil
}

func (s *reportService) runLocked(ctx context.Context, due models.ReportSchedule, now time.Time) (bool, error) {
	lock, err := s.locker.Obtain(ctx, cache.ScheduleLockKey(due.ID), s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, cache.ErrLockNotObtained) {
			log.Debug().Str("schedule_id", due.ID.String()).Msg("Schedule locked by another worker")
			return false, nil
		}
		return false, err
	}
	defer func() {
		if err := lock.Release(ctx); err != nil {
			log.Warn().Err(err).Str("schedule_id", due.ID.String()).Msg("Failed to release schedule lock")
		}
	}()

	tctx := appctx.WithTenant(ctx, due.TenantID)
	schedule, err := s.reports.FindSchedule(tctx, due.ID)
	if err != nil {
		return false, err
	}
	if !schedule.Active || schedule.NextRunAt.After(now) {
		return false, nil
	}

	from, to := models.ReportPeriod(schedule.Frequency, now)
	if _, err := s.generate(tctx, schedule.TenantID, &schedule.ID, schedule.ReportType, from, to, schedule.Recipients); err != nil {
		return false, err
	}

	schedule.LastRunAt = &now
	schedule.NextRunAt = schedule.NextRun(now)
	if err := s.reports.UpdateSchedule(tctx, schedule); err != nil {
		return false, err
	}
	return true, nil
}

// LowStockItem is one entry of a low-stock event
type LowStockItem struct {
	ItemID       uuid.UUID `json:"item_id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Quantity     string    `json:"quantity"`
	ReorderLevel string    `json:"reorder_level"`
	Unit         string    `json:"unit"`
}

// ScanLowStock publishes one inventory.low_stock event per tenant holding low
// items and returns the number of tenants notified.
func (s *reportService) ScanLowStock(ctx context.Context) (int, error) {
	byTenant, err := s.inventory.LowStockByTenant(appctx.WithoutTenantScope(ctx))
	if err != nil {
		return 0, err
	}
	for tenantID, items := range byTenant {
		entries := make([]LowStockItem, 0, len(items))
		for _, it := range items {
			entries = append(entries, LowStockItem{
				ItemID:       it.ID,
				SKU:          it.SKU,
				Name:         it.Name,
				Quantity:     it.Quantity.String(),
				ReorderLevel: it.ReorderLevel.String(),
				Unit:         it.Unit,
			})
		}
		publish(ctx, s.events, messaging.EventLowStock, tenantID, map[string]interface{}{"items": entries})
	}
	return len(byTenant), nil
}

// HandleCommand processes a report.requested command from the queue.
// Failures that redelivery cannot fix are returned as messaging.Permanent.
func (s *reportService) HandleCommand(ctx context.Context, env messaging.Envelope) error {
	if env.Type != messaging.CommandReportRequested {
		return messaging.Permanent(fmt.Errorf("unknown command %q", env.Type))
	}
	if env.TenantID == uuid.Nil {
		return messaging.Permanent(fmt.Errorf("%s command %s has no tenant", env.Type, env.ID))
	}
	var cmd ReportRequestedCommand
	if err := json.Unmarshal(env.Payload, &cmd); err != nil {
		return messaging.Permanent(fmt.Errorf("invalid %s payload: %w", env.Type, err))
	}

	ctx = appctx.WithTenant(ctx, env.TenantID)
	if cmd.ScheduleID != nil {
		_, err := s.RunSchedule(ctx, *cmd.ScheduleID)
		return commandFailure(err)
	}
	if !models.IsValidReportType(cmd.ReportType) {
		return messaging.Permanent(fmt.Errorf("unknown report type %q", cmd.ReportType))
	}
	from, to := s.window(cmd.From, cmd.To)
	_, err := s.generate(ctx, env.TenantID, nil, models.ReportType(cmd.ReportType), from, to, cmd.Recipients)
	return commandFailure(err)
}

// commandFailure marks client errors such as a missing schedule as permanent
func commandFailure(err error) error {
	var apiErr *api.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
		return messaging.Permanent(err)
	}
	return err
}
