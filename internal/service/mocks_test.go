package service

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"example.com/textile/erp/internal/cache"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// Mock repositories for testing

type MockTenantRepository struct {
	mock.Mock
}

func (m *MockTenantRepository) Create(ctx context.Context, tenant *models.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *MockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantRepository) FindBySlug(ctx context.Context, slug string) (*models.Tenant, error) {
	args := m.Called(ctx, slug)
	return args.Get(0).(*models.Tenant), args.Error(1)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, tenantID uuid.UUID, username string) (*models.User, error) {
	args := m.Called(ctx, tenantID, username)
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, username, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context, page models.Page) ([]models.User, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) CountByRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	args := m.Called(ctx, roleID)
	return args.Get(0).(int64), args.Error(1)
}

type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) Create(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Update(ctx context.Context, role *models.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *MockRoleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRoleRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	args := m.Called(ctx, name)
	return args.Get(0).(*models.Role), args.Error(1)
}

func (m *MockRoleRepository) ExistsByName(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoleRepository) List(ctx context.Context) ([]models.Role, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Role), args.Error(1)
}

type MockProductionRepository struct {
	mock.Mock
}

func (m *MockProductionRepository) CreateOrder(ctx context.Context, order *models.ProductionOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockProductionRepository) UpdateOrder(ctx context.Context, order *models.ProductionOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockProductionRepository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockProductionRepository) FindOrder(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockProductionRepository) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.ProductionOrder, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.ProductionOrder), args.Error(1)
}

func (m *MockProductionRepository) ListOrders(ctx context.Context, filter repository.OrderFilter) ([]models.ProductionOrder, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.ProductionOrder), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductionRepository) OrderNumberExists(ctx context.Context, number string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, number, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductionRepository) UpdateStage(ctx context.Context, stage *models.ProductionStage) error {
	args := m.Called(ctx, stage)
	return args.Error(0)
}

func (m *MockProductionRepository) CreateLog(ctx context.Context, log *models.StageLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockProductionRepository) ListLogs(ctx context.Context, orderID uuid.UUID) ([]models.StageLog, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.StageLog), args.Error(1)
}

type MockFoldingRepository struct {
	mock.Mock
}

func (m *MockFoldingRepository) Create(ctx context.Context, record *models.FoldingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFoldingRepository) Update(ctx context.Context, record *models.FoldingRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockFoldingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFoldingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.FoldingRecord, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.FoldingRecord), args.Error(1)
}

func (m *MockFoldingRepository) List(ctx context.Context, filter repository.FoldingFilter) ([]models.FoldingRecord, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.FoldingRecord), args.Get(1).(int64), args.Error(2)
}

func (m *MockFoldingRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.FoldingRecord, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.FoldingRecord), args.Error(1)
}

type MockInventoryRepository struct {
	mock.Mock
}

func (m *MockInventoryRepository) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryRepository) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockInventoryRepository) DeleteItem(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockInventoryRepository) FindItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) FindItemForUpdate(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) ListItems(ctx context.Context, filter repository.ItemFilter) ([]models.InventoryItem, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.InventoryItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockInventoryRepository) SKUExists(ctx context.Context, sku string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, sku, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInventoryRepository) LowStock(ctx context.Context) ([]models.InventoryItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) LowStockByTenant(ctx context.Context) (map[uuid.UUID][]models.InventoryItem, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[uuid.UUID][]models.InventoryItem), args.Error(1)
}

func (m *MockInventoryRepository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockInventoryRepository) ListMovements(ctx context.Context, itemID uuid.UUID, page models.Page) ([]models.StockMovement, int64, error) {
	args := m.Called(ctx, itemID, page)
	return args.Get(0).([]models.StockMovement), args.Get(1).(int64), args.Error(2)
}

type MockDispatchRepository struct {
	mock.Mock
}

func (m *MockDispatchRepository) Create(ctx context.Context, dispatch *models.Dispatch) error {
	args := m.Called(ctx, dispatch)
	return args.Error(0)
}

func (m *MockDispatchRepository) Update(ctx context.Context, dispatch *models.Dispatch) error {
	args := m.Called(ctx, dispatch)
	return args.Error(0)
}

func (m *MockDispatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDispatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Dispatch, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Dispatch), args.Error(1)
}

func (m *MockDispatchRepository) List(ctx context.Context, filter repository.DispatchFilter) ([]models.Dispatch, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Dispatch), args.Get(1).(int64), args.Error(2)
}

func (m *MockDispatchRepository) NumberExists(ctx context.Context, number string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, number, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockDispatchRepository) CountByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).(int64), args.Error(1)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Update(ctx context.Context, customer *models.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, query string, page models.Page) ([]models.Customer, int64, error) {
	args := m.Called(ctx, query, page)
	return args.Get(0).([]models.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) Create(ctx context.Context, supplier *models.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) Update(ctx context.Context, supplier *models.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

func (m *MockSupplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) List(ctx context.Context, query string, page models.Page) ([]models.Supplier, int64, error) {
	args := m.Called(ctx, query, page)
	return args.Get(0).([]models.Supplier), args.Get(1).(int64), args.Error(2)
}

func (m *MockSupplierRepository) NameExists(ctx context.Context, name string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, name, excludeID)
	return args.Bool(0), args.Error(1)
}

type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *MockEmployeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	args := m.Called(ctx, employee)
	return args.Error(0)
}

func (m *MockEmployeeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockEmployeeRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) List(ctx context.Context, filter repository.EmployeeFilter) ([]models.Employee, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Employee), args.Get(1).(int64), args.Error(2)
}

func (m *MockEmployeeRepository) ListAll(ctx context.Context) ([]models.Employee, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Employee), args.Error(1)
}

func (m *MockEmployeeRepository) CodeExists(ctx context.Context, code string, excludeID uuid.UUID) (bool, error) {
	args := m.Called(ctx, code, excludeID)
	return args.Bool(0), args.Error(1)
}

type MockAttendanceRepository struct {
	mock.Mock
}

func (m *MockAttendanceRepository) Upsert(ctx context.Context, attendance *models.Attendance) error {
	args := m.Called(ctx, attendance)
	return args.Error(0)
}

func (m *MockAttendanceRepository) List(ctx context.Context, filter repository.AttendanceFilter) ([]models.Attendance, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]models.Attendance), args.Get(1).(int64), args.Error(2)
}

func (m *MockAttendanceRepository) ListBetween(ctx context.Context, from, to time.Time) ([]models.Attendance, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]models.Attendance), args.Error(1)
}

type MockAnalyticsRepository struct {
	mock.Mock
}

func (m *MockAnalyticsRepository) OrderStats(ctx context.Context) ([]repository.OrderStatusStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.OrderStatusStat), args.Error(1)
}

func (m *MockAnalyticsRepository) InventoryStats(ctx context.Context) ([]repository.CategoryStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.CategoryStat), args.Error(1)
}

func (m *MockAnalyticsRepository) DispatchStats(ctx context.Context) ([]repository.DispatchStatusStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.DispatchStatusStat), args.Error(1)
}

func (m *MockAnalyticsRepository) QCStats(ctx context.Context) ([]repository.QCStatusStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.QCStatusStat), args.Error(1)
}

func (m *MockAnalyticsRepository) AttendanceStats(ctx context.Context, day time.Time) ([]repository.AttendanceStatusStat, error) {
	args := m.Called(ctx, day)
	return args.Get(0).([]repository.AttendanceStatusStat), args.Error(1)
}

func (m *MockAnalyticsRepository) EmployeeStats(ctx context.Context) ([]repository.ActiveStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.ActiveStat), args.Error(1)
}

func (m *MockAnalyticsRepository) CustomerStats(ctx context.Context) ([]repository.ActiveStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.ActiveStat), args.Error(1)
}

func (m *MockAnalyticsRepository) SupplierStats(ctx context.Context) ([]repository.ActiveStat, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.ActiveStat), args.Error(1)
}

func (m *MockAnalyticsRepository) StageStatusCounts(ctx context.Context) ([]repository.StageStatusCount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]repository.StageStatusCount), args.Error(1)
}

func (m *MockAnalyticsRepository) DispatchMonthly(ctx context.Context, year int) ([]repository.MonthlyDispatch, error) {
	args := m.Called(ctx, year)
	return args.Get(0).([]repository.MonthlyDispatch), args.Error(1)
}

type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) CreateSchedule(ctx context.Context, schedule *models.ReportSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockReportRepository) UpdateSchedule(ctx context.Context, schedule *models.ReportSchedule) error {
	args := m.Called(ctx, schedule)
	return args.Error(0)
}

func (m *MockReportRepository) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReportRepository) FindSchedule(ctx context.Context, id uuid.UUID) (*models.ReportSchedule, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.ReportSchedule), args.Error(1)
}

func (m *MockReportRepository) ListSchedules(ctx context.Context, page models.Page) ([]models.ReportSchedule, int64, error) {
	args := m.Called(ctx, page)
	return args.Get(0).([]models.ReportSchedule), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportRepository) DueSchedules(ctx context.Context, now time.Time) ([]models.ReportSchedule, error) {
	args := m.Called(ctx, now)
	return args.Get(0).([]models.ReportSchedule), args.Error(1)
}

func (m *MockReportRepository) CreateRun(ctx context.Context, run *models.ReportRun) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockReportRepository) FindRun(ctx context.Context, id uuid.UUID) (*models.ReportRun, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(*models.ReportRun), args.Error(1)
}

func (m *MockReportRepository) ListRuns(ctx context.Context, scheduleID *uuid.UUID, page models.Page) ([]models.ReportRun, int64, error) {
	args := m.Called(ctx, scheduleID, page)
	return args.Get(0).([]models.ReportRun), args.Get(1).(int64), args.Error(2)
}

// Fakes for infrastructure collaborators

// fakeTx runs fn inline. rolledBack records whether fn failed.
type fakeTx struct {
	calls      int
	rolledBack bool
}

func (t *fakeTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	err := fn(ctx)
	if err != nil {
		t.rolledBack = true
	}
	return err
}

type publishedEvent struct {
	Type     string
	TenantID uuid.UUID
	Payload  interface{}
}

type recordingPublisher struct {
	mu       sync.Mutex
	events   []publishedEvent
	commands []publishedEvent
	sendErr  error
}

func (p *recordingPublisher) SendCommand(_ context.Context, commandType string, tenantID uuid.UUID, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sendErr != nil {
		return p.sendErr
	}
	p.commands = append(p.commands, publishedEvent{Type: commandType, TenantID: tenantID, Payload: payload})
	return nil
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, tenantID uuid.UUID, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Type: eventType, TenantID: tenantID, Payload: payload})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// memoryCache stores JSON like the Redis cache does
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.data[key]
	if !ok {
		return cache.ErrCacheMiss
	}
	return json.Unmarshal(raw, value)
}

func (c *memoryCache) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *memoryCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *memoryCache) Increment(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var n int64
	if raw, ok := c.data[key]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	n++
	c.data[key], _ = json.Marshal(n)
	return n, nil
}

// memoryLocker grants each key to one holder at a time
type memoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemoryLocker() *memoryLocker {
	return &memoryLocker{held: map[string]bool{}}
}

func (l *memoryLocker) Obtain(_ context.Context, key string, _ time.Duration) (cache.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, cache.ErrLockNotObtained
	}
	l.held[key] = true
	return &memoryLock{locker: l, key: key}, nil
}

type memoryLock struct {
	locker *memoryLocker
	key    string
}

func (l *memoryLock) Release(context.Context) error {
	l.locker.mu.Lock()
	defer l.locker.mu.Unlock()
	delete(l.locker.held, l.key)
	return nil
}

type memoryStore struct {
	objects map[string][]byte
	err     error
}

func (s *memoryStore) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if s.err != nil {
		return s.err
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	if s.objects == nil {
		s.objects = map[string][]byte{}
	}
	s.objects[key] = data
	return nil
}

func (s *memoryStore) PresignedURL(_ context.Context, key, filename string, _ time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://files.example.com/" + key + "?filename=" + filename, nil
}

type stubGenerator struct {
	data []byte
	rows int
	err  error
}

func (g *stubGenerator) Generate(context.Context, models.ReportType, time.Time, time.Time) ([]byte, int, error) {
	return g.data, g.rows, g.err
}

type stubIndexer struct {
	orders     int
	dispatches int
	docs       []map[string]interface{}
	err        error
}

func (i *stubIndexer) IndexProductionOrder(context.Context, *models.ProductionOrder) error {
	i.orders++
	return nil
}

func (i *stubIndexer) IndexDispatch(context.Context, *models.Dispatch) error {
	i.dispatches++
	return nil
}

func (i *stubIndexer) Search(context.Context, uuid.UUID, string, string, int) ([]map[string]interface{}, error) {
	return i.docs, i.err
}
