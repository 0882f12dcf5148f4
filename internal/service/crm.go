package service

import (
	"context"
	"strings"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/appctx"
	"example.com/textile/erp/internal/models"
	"example.com/textile/erp/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CustomerRequest creates or replaces a customer
type CustomerRequest struct {
	Name          string          `json:"name" validate:"required,max=200"`
	ContactPerson string          `json:"contact_person" validate:"max=200"`
	Email         string          `json:"email" validate:"omitempty,email"`
	Phone         string          `json:"phone" validate:"omitempty,phone"`
	Address       string          `json:"address"`
	City          string          `json:"city" validate:"max=100"`
	TaxNumber     string          `json:"tax_number" validate:"max=50"`
	CreditLimit   decimal.Decimal `json:"credit_limit" validate:"gte=0"`
	Active        *bool           `json:"active"`
}

// SupplierRequest creates or replaces a supplier
type SupplierRequest struct {
	Name           string `json:"name" validate:"required,max=200"`
	ContactPerson  string `json:"contact_person" validate:"max=200"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone" validate:"omitempty,phone"`
	Address        string `json:"address"`
	City           string `json:"city" validate:"max=100"`
	TaxNumber      string `json:"tax_number" validate:"max=50"`
	SupplyCategory string `json:"supply_category" validate:"max=50"`
	Active         *bool  `json:"active"`
}

// CRMService manages customers and suppliers
type CRMService interface {
	CreateCustomer(ctx context.Context, req CustomerRequest) (*models.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error)
	ListCustomers(ctx context.Context, query string, page models.Page) ([]models.Customer, int64, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, req CustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error

	CreateSupplier(ctx context.Context, req SupplierRequest) (*models.Supplier, error)
	GetSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error)
	ListSuppliers(ctx context.Context, query string, page models.Page) ([]models.Supplier, int64, error)
	UpdateSupplier(ctx context.Context, id uuid.UUID, req SupplierRequest) (*models.Supplier, error)
	DeleteSupplier(ctx context.Context, id uuid.UUID) error
}

type crmService struct {
	customers  repository.CustomerRepository
	suppliers  repository.SupplierRepository
	dispatches repository.DispatchRepository
}

// NewCRMService creates a new CRM service
func NewCRMService(customers repository.CustomerRepository, suppliers repository.SupplierRepository, dispatches repository.DispatchRepository) CRMService {
	return &crmService{customers: customers, suppliers: suppliers, dispatches: dispatches}
}

func (s *crmService) CreateCustomer(ctx context.Context, req CustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{Base: models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)}}
	if err := s.applyCustomer(ctx, customer, req); err != nil {
		return nil, err
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *crmService) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	customer, err := s.customers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "customer")
	}
	return customer, nil
}

func (s *crmService) ListCustomers(ctx context.Context, query string, page models.Page) ([]models.Customer, int64, error) {
	return s.customers.List(ctx, strings.TrimSpace(query), page)
}

func (s *crmService) UpdateCustomer(ctx context.Context, id uuid.UUID, req CustomerRequest) (*models.Customer, error) {
	customer, err := s.GetCustomer(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyCustomer(ctx, customer, req); err != nil {
		return nil, err
	}
	if err := s.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *crmService) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return err
	}
	n, err := s.dispatches.CountByCustomer(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return api.NewConflictError("customer is referenced by %d dispatch(es)", n)
	}
	return notFound(s.customers.Delete(ctx, id), "customer")
}

func (s *crmService) applyCustomer(ctx context.Context, c *models.Customer, req CustomerRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.customers.NameExists(ctx, name, c.ID)
	if err != nil {
		return err
	}
	if exists {
		return api.NewConflictError("customer %s already exists", name)
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return err
	}

	c.Name = name
	c.ContactPerson = req.ContactPerson
	c.Email = req.Email
	c.Phone = phone
	c.Address = req.Address
	c.City = req.City
	c.TaxNumber = req.TaxNumber
	c.CreditLimit = req.CreditLimit.Round(2)
	c.Active = boolOr(req.Active, true)
	return nil
}

func (s *crmService) CreateSupplier(ctx context.Context, req SupplierRequest) (*models.Supplier, error) {
	supplier := &models.Supplier{Base: models.Base{ID: uuid.New(), TenantID: appctx.TenantID(ctx)}}
	if err := s.applySupplier(ctx, supplier, req); err != nil {
		return nil, err
	}
	if err := s.suppliers.Create(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *crmService) GetSupplier(ctx context.Context, id uuid.UUID) (*models.Supplier, error) {
	supplier, err := s.suppliers.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "supplier")
	}
	return supplier, nil
}

func (s *crmService) ListSuppliers(ctx context.Context, query string, page models.Page) ([]models.Supplier, int64, error) {
	return s.suppliers.List(ctx, strings.TrimSpace(query), page)
}

func (s *crmService) UpdateSupplier(ctx context.Context, id uuid.UUID, req SupplierRequest) (*models.Supplier, error) {
	supplier, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applySupplier(ctx, supplier, req); err != nil {
		return nil, err
	}
	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return nil, err
	}
	return supplier, nil
}

func (s *crmService) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	return notFound(s.suppliers.Delete(ctx, id), "supplier")
}

func (s *crmService) applySupplier(ctx context.Context, sp *models.Supplier, req SupplierRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	name := strings.TrimSpace(req.Name)
	exists, err := s.suppliers.NameExists(ctx, name, sp.ID)
	if err != nil {
		return err
	}
	if exists {
		return api.NewConflictError("supplier %s already exists", name)
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return err
	}

	sp.Name = name
	sp.ContactPerson = req.ContactPerson
	sp.Email = req.Email
	sp.Phone = phone
	sp.Address = req.Address
	sp.City = req.City
	sp.TaxNumber = req.TaxNumber
	sp.SupplyCategory = req.SupplyCategory
	sp.Active = boolOr(req.Active, true)
	return nil
}
