package api

import (
	"context"
	"time"

	"example.com/textile/erp/internal/auth"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockAuthService is a mock implementation of service.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, req service.LoginRequest) (*service.LoginResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*service.LoginResponse), args.Error(1)
}

func (m *MockAuthService) VerifyTwoFactor(ctx context.Context, req service.VerifyTwoFactorRequest) (*service.LoginResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*service.LoginResponse), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(*auth.Claims), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	args := m.Called(ctx, claims)
	return args.Error(0)
}

func (m *MockAuthService) Me(ctx context.Context) (*models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, req service.ChangePasswordRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthService) SetupTwoFactor(ctx context.Context) (*auth.TOTPKey, error) {
	args := m.Called(ctx)
	return args.Get(0).(*auth.TOTPKey), args.Error(1)
}

func (m *MockAuthService) EnableTwoFactor(ctx context.Context, req service.CodeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

func (m *MockAuthService) DisableTwoFactor(ctx context.Context, req service.CodeRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}

// MockProductionService is a mock implementation of service.ProductionService
type MockProductionService struct {
	mock.Mock
}

func (m *MockProductionService) CreateOrder(ctx context.Context, req service.CreateOrderRequest) (*models.ProductionOrder, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockProductionService) GetOrder(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockProductionService) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.ProductionOrder, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.ProductionOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductionService) UpdateOrder(ctx context.Context, id uuid.UUID, req service.UpdateOrderRequest) (*models.ProductionOrder, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockProductionService) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductionService) CancelOrder(ctx context.Context, id uuid.UUID, remarks string) (*models.ProductionOrder, error) {
	args := m.Called(ctx, id, remarks)
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockProductionService) UpdateStage(ctx context.Context, orderID uuid.UUID, stage string, req service.StageUpdateRequest) (*models.ProductionOrder, error) {
	args := m.Called(ctx, orderID, stage, req)
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockProductionService) ListLogs(ctx context.Context, orderID uuid.UUID) ([]models.StageLog, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.StageLog), args.Error(1)
}

// MockInventoryService is a mock implementation of service.InventoryService
type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) CreateItem(ctx context.Context, req service.CreateItemRequest) (*models.InventoryItem, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) GetItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) ListItems(ctx context.Context, filter repository.ItemFilter) ([]models.InventoryItem, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.InventoryItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryService) UpdateItem(ctx context.Context, id uuid.UUID, req service.UpdateItemRequest) (*models.InventoryItem, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryService) DeleteItem(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInventoryService) RecordMovement(ctx context.Context, itemID uuid.UUID, req service.MovementRequest) (*models.StockMovement, error) {
	args := m.Called(ctx, itemID, req)
	return args.Get(0).(*models.StockMovement), args.Error(1)
}

func (m *MockInventoryService) ListMovements(ctx context.Context, itemID uuid.UUID, page models.Page) ([]models.StockMovement, int64, error) {
	args := m.Called(ctx, itemID, page)
	return args.Get(0).([]models.StockMovement), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryService) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.InventoryItem), args.Error(1)
}

// MockReportService is a mock implementation of service.ReportService
type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) CreateSchedule(ctx context.Context, req service.ScheduleRequest) (*models.ReportSchedule, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(*models.ReportSchedule), args.Error(1)
}

func (m *MockReportService) GetSchedule(ctx context.Context, id uuid.UUID) (*models.ReportSchedule, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.ReportSchedule), args.Error(1)
}

func (m *MockReportService) ListSchedules(ctx context.Context, page models.Page) ([]models.ReportSchedule, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]models.ReportSchedule), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportService) UpdateSchedule(ctx context.Context, id uuid.UUID, req service.ScheduleRequest) (*models.ReportSchedule, error) {
	args := m.Called(ctx, id, req)
	return args.Get(0).(*models.ReportSchedule), args.Error(1)
}

func (m *MockReportService) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReportService) RunSchedule(ctx context.Context, id uuid.UUID) (*models.ReportRun, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.ReportRun), args.Error(1)
}

func (m *MockReportService) RequestRun(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReportService) ListRuns(ctx context.Context, scheduleID *uuid.UUID, page models.Page) ([]models.ReportRun, int64, error) {
	args := m.Called(ctx, scheduleID, page)
	return args.Get(0).([]models.ReportRun), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportService) DownloadURL(ctx context.Context, runID uuid.UUID) (*service.Download, error) {
	args := m.Called(ctx, runID)
	return args.Get(0).(*service.Download), args.Error(1)
}

func (m *MockReportService) Export(ctx context.Context, reportType string, from, to *time.Time) (*service.Export, error) {
	args := m.Called(ctx, reportType, from, to)
	return args.Get(0).(*service.Export), args.Error(1)
}

func (m *MockReportService) RunDue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockReportService) ScanLowStock(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockReportService) HandleCommand(ctx context.Context, env messaging.Envelope) error {
	args := m.Called(ctx, env)
	return args.Error(0)
}

// MockSearchService is a mock implementation of service.SearchService
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, query, kind string) ([]service.SearchHit, error) {
	args := m.Called(ctx, query, kind)
	return args.Get(0).([]service.SearchHit), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
