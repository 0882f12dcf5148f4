package service

import (
	"context"
	"errors"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/cache"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/tracing"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// ProductionTotals summarises production orders
type ProductionTotals struct {
	Orders            int64                        `json:"orders"`
	PlannedQuantity   decimal.Decimal              `json:"planned_quantity"`
	CompletedQuantity decimal.Decimal              `json:"completed_quantity"`
	ByStatus          []repository.OrderStatusStat `json:"by_status"`
}

// InventoryTotals summarises stock
type InventoryTotals struct {
	Items      int64                     `json:"items"`
	StockValue decimal.Decimal           `json:"stock_value"`
	LowStock   int64                     `json:"low_stock"`
	ByCategory []repository.CategoryStat `json:"by_category"`
}

// DispatchTotals summarises dispatches
type DispatchTotals struct {
	Dispatches int64                           `json:"dispatches"`
	Meters     decimal.Decimal                 `json:"meters"`
	Amount     decimal.Decimal                 `json:"amount"`
	ByStatus   []repository.DispatchStatusStat `json:"by_status"`
}

// QCTotals summarises folding and checking
type QCTotals struct {
	Records        int64                     `json:"records"`
	InputMeters    decimal.Decimal           `json:"input_meters"`
	CheckedMeters  decimal.Decimal           `json:"checked_meters"`
	RejectedMeters decimal.Decimal           `json:"rejected_meters"`
	ByStatus       []repository.QCStatusStat `json:"by_status"`
}

// HRTotals summarises the workforce and today's attendance
type HRTotals struct {
	Employees       int64                             `json:"employees"`
	ActiveEmployees int64                             `json:"active_employees"`
	PresentToday    int64                             `json:"present_today"`
	HalfDayToday    int64                             `json:"half_day_today"`
	AbsentToday     int64                             `json:"absent_today"`
	LeaveToday      int64                             `json:"leave_today"`
	Today           []repository.AttendanceStatusStat `json:"today"`
}

// CRMTotals counts customers and suppliers
type CRMTotals struct {
	Customers       int64 `json:"customers"`
	ActiveCustomers int64 `json:"active_customers"`
	Suppliers       int64 `json:"suppliers"`
	ActiveSuppliers int64 `json:"active_suppliers"`
}

// Dashboard is the tenant overview
type Dashboard struct {
	Production  ProductionTotals `json:"production"`
	Inventory   InventoryTotals  `json:"inventory"`
	Dispatch    DispatchTotals   `json:"dispatch"`
	QC          QCTotals         `json:"qc"`
	HR          HRTotals         `json:"hr"`
	CRM         CRMTotals        `json:"crm"`
	GeneratedAt time.Time        `json:"generated_at"`
}

// DashboardAggregates are the grouped rows a dashboard is built from
type DashboardAggregates struct {
	Orders     []repository.OrderStatusStat
	Inventory  []repository.CategoryStat
	Dispatches []repository.DispatchStatusStat
	QC         []repository.QCStatusStat
	Attendance []repository.AttendanceStatusStat
	Employees  []repository.ActiveStat
	Customers  []repository.ActiveStat
	Suppliers  []repository.ActiveStat
}

// BuildDashboard derives every total from its per-group rows, so a total
// always equals the sum of its breakdown.
func BuildDashboard(a DashboardAggregates, at time.Time) *Dashboard {
	d := &Dashboard{GeneratedAt: at.UTC()}

	d.Production = ProductionTotals{
		PlannedQuantity:   decimal.Zero,
		CompletedQuantity: decimal.Zero,
		ByStatus:          nonNilRows(a.Orders),
	}
	for _, r := range a.Orders {
		d.Production.Orders += r.Count
		d.Production.PlannedQuantity = d.Production.PlannedQuantity.Add(r.Planned)
		d.Production.CompletedQuantity = d.Production.CompletedQuantity.Add(r.Completed)
	}

	d.Inventory = InventoryTotals{StockValue: decimal.Zero, ByCategory: nonNilRows(a.Inventory)}
	for _, r := range a.Inventory {
		d.Inventory.Items += r.Items
		d.Inventory.StockValue = d.Inventory.StockValue.Add(r.StockValue)
		d.Inventory.LowStock += r.LowStock
	}

	d.Dispatch = DispatchTotals{Meters: decimal.Zero, Amount: decimal.Zero, ByStatus: nonNilRows(a.Dispatches)}
	for _, r := range a.Dispatches {
		d.Dispatch.Dispatches += r.Count
		d.Dispatch.Meters = d.Dispatch.Meters.Add(r.Meters)
		d.Dispatch.Amount = d.Dispatch.Amount.Add(r.Amount)
	}

	d.QC = QCTotals{
		InputMeters:    decimal.Zero,
		CheckedMeters:  decimal.Zero,
		RejectedMeters: decimal.Zero,
		ByStatus:       nonNilRows(a.QC),
	}
	for _, r := range a.QC {
		d.QC.Records += r.Count
		d.QC.InputMeters = d.QC.InputMeters.Add(r.Input)
		d.QC.CheckedMeters = d.QC.CheckedMeters.Add(r.Checked)
		d.QC.RejectedMeters = d.QC.RejectedMeters.Add(r.Rejected)
	}

	d.HR.Today = nonNilRows(a.Attendance)
	d.HR.Employees, d.HR.ActiveEmployees = countActive(a.Employees)
	for _, r := range a.Attendance {
		switch r.Status {
		case models.AttendancePresent:
			d.HR.PresentToday += r.Count
		case models.AttendanceHalfDay:
			d.HR.HalfDayToday += r.Count
		case models.AttendanceAbsent:
			d.HR.AbsentToday += r.Count
		case models.AttendanceLeave:
			d.HR.LeaveToday += r.Count
		}
	}

	d.CRM.Customers, d.CRM.ActiveCustomers = countActive(a.Customers)
	d.CRM.Suppliers, d.CRM.ActiveSuppliers = countActive(a.Suppliers)
	return d
}

func countActive(rows []repository.ActiveStat) (total, active int64) {
	for _, r := range rows {
		total += r.Count
		if r.Active {
			active += r.Count
		}
	}
	return total, active
}

func nonNilRows[T any](rows []T) []T {
	if rows == nil {
		return []T{}
	}
	return rows
}

// DashboardService serves the dashboard and analytics views
type DashboardService interface {
	Summary(ctx context.Context) (*Dashboard, error)
	StageBreakdown(ctx context.Context) ([]repository.StageStatusCount, error)
	DispatchMonthly(ctx context.Context, year int) ([]repository.MonthlyDispatch, error)
}

type dashboardService struct {
	analytics repository.AnalyticsRepository
	cache     cache.Cache
	ttl       time.Duration
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(analytics repository.AnalyticsRepository, c cache.Cache, ttl time.Duration, m *metrics.Metrics) DashboardService {
	return &dashboardService{analytics: analytics, cache: c, ttl: ttl, metrics: m, now: time.Now}
}

// Summary returns the cached dashboard or rebuilds it from aggregates
// fetched concurrently.
func (s *dashboardService) Summary(ctx context.Context) (*Dashboard, error) {
	defer tracing.StartSegment(ctx, "DashboardService.Summary")()

	key := cache.DashboardKey(appctx.TenantID(ctx))
	var cached Dashboard
	err := s.cache.Get(ctx, key, &cached)
	switch {
	case err == nil:
		s.metrics.IncrementCounter(metrics.CacheHits)
		return &cached, nil
	case errors.Is(err, cache.ErrCacheMiss):
		s.metrics.IncrementCounter(metrics.CacheMisses)
	default:
		log.Warn().Err(err).Str("key", key).Msg("Failed to read dashboard cache")
	}

	now := s.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var a DashboardAggregates
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { a.Orders, err = s.analytics.OrderStats(gctx); return })
	g.Go(func() (err error) { a.Inventory, err = s.analytics.InventoryStats(gctx); return })
	g.Go(func() (err error) { a.Dispatches, err = s.analytics.DispatchStats(gctx); return })
	g.Go(func() (err error) { a.QC, err = s.analytics.QCStats(gctx); return })
	g.Go(func() (err error) { a.Attendance, err = s.analytics.AttendanceStats(gctx, today); return })
	g.Go(func() (err error) { a.Employees, err = s.analytics.EmployeeStats(gctx); return })
	g.Go(func() (err error) { a.Customers, err = s.analytics.CustomerStats(gctx); return })
	g.Go(func() (err error) { a.Suppliers, err = s.analytics.SupplierStats(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	dashboard := BuildDashboard(a, now)
	if err := s.cache.Set(ctx, key, dashboard, s.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("Failed to cache dashboard")
	}
	return dashboard, nil
}

func (s *dashboardService) StageBreakdown(ctx context.Context) ([]repository.StageStatusCount, error) {
	rows, err := s.analytics.StageStatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	return nonNilRows(rows), nil
}

func (s *dashboardService) DispatchMonthly(ctx context.Context, year int) ([]repository.MonthlyDispatch, error) {
	if year == 0 {
		year = s.now().UTC().Year()
	}
	if year < 2000 || year > 2100 {
		return nil, api.NewValidationError("year must be between 2000 and 2100")
	}
	rows, err := s.analytics.DispatchMonthly(ctx, year)
	if err != nil {
		return nil, err
	}

	// Every month appears, months without dispatches as zeros
	byMonth := make(map[int]repository.MonthlyDispatch, len(rows))
	for _, r := range rows {
		byMonth[r.Month] = r
	}
	out := make([]repository.MonthlyDispatch, 0, 12)
	for m := 1; m <= 12; m++ {
		if r, ok := byMonth[m]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, repository.MonthlyDispatch{Month: m, Meters: decimal.Zero, Amount: decimal.Zero})
	}
	return out, nil
}
