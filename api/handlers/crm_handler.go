package handlers

import (
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
)

// CRMHandler handles customers and suppliers
type CRMHandler struct {
	service service.CRMService
}

// NewCRMHandler creates a new CRMHandler instance
func NewCRMHandler(svc service.CRMService) *CRMHandler {
	return &CRMHandler{service: svc}
}

func (h *CRMHandler) CreateCustomer(c *gin.Context) {
	var req service.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.service.CreateCustomer(c.Request.Context(), req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.Created(c, customer)
}

func (h *CRMHandler) ListCustomers(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	customers, total, err := h.service.ListCustomers(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, customers, page, total)
}

func (h *CRMHandler) GetCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	customer, err := h.service.GetCustomer(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, customer)
}

func (h *CRMHandler) UpdateCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.CustomerRequest
	if !bindJSON(c, &req) {
		return
	}
	customer, err := h.service.UpdateCustomer(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, customer)
}

func (h *CRMHandler) DeleteCustomer(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteCustomer(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}

func (h *CRMHandler) CreateSupplier(c *gin.Context) {
	var req service.SupplierRequest
	if !bindJSON(c, &req) {
		return
	}
	supplier, err := h.service.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.Created(c, supplier)
}

func (h *CRMHandler) ListSuppliers(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	suppliers, total, err := h.service.ListSuppliers(c.Request.Context(), c.Query("q"), page)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, suppliers, page, total)
}

func (h *CRMHandler) GetSupplier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	supplier, err := h.service.GetSupplier(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, supplier)
}

func (h *CRMHandler) UpdateSupplier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.SupplierRequest
	if !bindJSON(c, &req) {
		return
	}
	supplier, err := h.service.UpdateSupplier(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, supplier)
}

func (h *CRMHandler) DeleteSupplier(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteSupplier(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}
