package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"example.com/textile/erp/config"
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/auth"
	"example.com/textile/erp/internal/cache"
	"example.com/textile/erp/internal/messaging"
	"example.com/textile/erp/internal/metrics"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/search"
	"example.com/textile/erp/internal/storage"
	"example.com/textile/erp/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Dependencies are the collaborators shared by the services
type Dependencies struct {
	Config    config.Config
	Repos     *repository.Repositories
	Cache     cache.Cache
	Locker    cache.Locker
	Tokens    *auth.TokenManager
	Events    messaging.Publisher
	Commands  messaging.CommandSender
	Index     search.Indexer
	Store     storage.ObjectStore
	Generator ReportGenerator
	Metrics   *metrics.Metrics
}

// Services groups every service of the ERP
type Services struct {
	Auth       AuthService
	Users      UserService
	Roles      RoleService
	Production ProductionService
	Folding    FoldingService
	Inventory  InventoryService
	Dispatch   DispatchService
	HR         HRService
	CRM        CRMService
	Dashboard  DashboardService
	Reports    ReportService
	Search     SearchService
}

// NewServices wires every service from d
func NewServices(d Dependencies) *Services {
	r := d.Repos
	return &Services{
		Auth:       NewAuthService(r.Tenants, r.Users, d.Tokens, d.Cache, d.Config.Auth, d.Metrics),
		Users:      NewUserService(r.Users, r.Roles, d.Cache, d.Config.Auth),
		Roles:      NewRoleService(r.Roles, r.Users, d.Cache, d.Config.Auth),
		Production: NewProductionService(r.Tx, r.Production, r.Folding, r.Customers, d.Events, d.Index, d.Metrics),
		Folding:    NewFoldingService(r.Folding, r.Production, d.Events, d.Metrics),
		Inventory:  NewInventoryService(r.Tx, r.Inventory, r.Suppliers, d.Events, d.Metrics),
		Dispatch:   NewDispatchService(r.Dispatches, r.Customers, r.Production, d.Events, d.Index),
		HR:         NewHRService(r.Employees, r.Attendance),
		CRM:        NewCRMService(r.Customers, r.Suppliers, r.Dispatches),
		Dashboard:  NewDashboardService(r.Analytics, d.Cache, d.Config.Reports.DashboardTTL, d.Metrics),
		Reports:    NewReportService(r.Reports, r.Inventory, d.Generator, d.Store, d.Locker, d.Events, d.Commands, d.Config.Reports, d.Metrics),
		Search:     NewSearchService(d.Index),
	}
}

// validate checks a request's validate tags and reports failures as 400
func validate(req interface{}) error {
	if err := validation.Struct(req); err != nil {
		return api.NewValidationError("%s", validation.Message(err))
	}
	return nil
}

// notFound converts repository.ErrNotFound into a named 404 and passes other
// errors through
func notFound(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return api.NewNotFoundError(resource)
	}
	return err
}

// mustExist converts repository.ErrNotFound on a referenced record into a 400
func mustExist(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return api.NewValidationError("%s not found", resource)
	}
	return err
}

// publish emits an event after the change is committed. Failures are logged,
// never returned.
func publish(ctx context.Context, events messaging.Publisher, eventType string, tenantID uuid.UUID, payload interface{}) {
	if events == nil {
		return
	}
	if err := events.Publish(ctx, eventType, tenantID, payload); err != nil {
		log.Warn().Err(err).Str("type", eventType).Msg("Failed to publish event")
	}
}

// documentNumber generates numbers such as PO-20260418-3FA2C1
func documentNumber(prefix string, now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("%s-%s-%s", prefix, now.UTC().Format("20060102"), suffix)
}

// normalizePhone returns the E.164 form of a non-empty phone
func normalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", nil
	}
	normalized, err := validation.NormalizePhone(phone)
	if err != nil {
		return "", api.NewValidationError("%s", err.Error())
	}
	return normalized, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
