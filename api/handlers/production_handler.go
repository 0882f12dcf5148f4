package handlers

import (
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/service"
	"example.com/textile/erp/internal/tracing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ProductionHandler handles production orders, stage progression and
// folding/checking records
type ProductionHandler struct {
	production service.ProductionService
	folding    service.FoldingService
}

// NewProductionHandler creates a new ProductionHandler instance
func NewProductionHandler(production service.ProductionService, folding service.FoldingService) *ProductionHandler {
	return &ProductionHandler{production: production, folding: folding}
}

type cancelOrderRequest struct {
	Remarks string `json:"remarks"`
}

func (h *ProductionHandler) CreateOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.production.CreateOrder(c.Request.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("order_number", req.OrderNumber).Msg("Failed to create production order")
		api.WriteError(c, err)
		return
	}
	api.Created(c, order)
}

func (h *ProductionHandler) ListOrders(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}
	filter := repository.OrderFilter{
		Status:     c.Query("status"),
		Stage:      c.Query("stage"),
		CustomerID: customerID,
		Page:       page,
	}
	orders, total, err := h.production.ListOrders(c.Request.Context(), filter)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, orders, page, total)
}

func (h *ProductionHandler) GetOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	order, err := h.production.GetOrder(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, order)
}

func (h *ProductionHandler) UpdateOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateOrderRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.production.UpdateOrder(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, order)
}

func (h *ProductionHandler) DeleteOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.production.DeleteOrder(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}

func (h *ProductionHandler) CancelOrder(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req cancelOrderRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.production.CancelOrder(c.Request.Context(), id, req.Remarks)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, order)
}

// UpdateStage moves one stage of an order through its status allow-list
func (h *ProductionHandler) UpdateStage(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.StageUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	stage := c.Param("stage")
	tracing.AddAttribute(c.Request.Context(), "stage", stage)
	order, err := h.production.UpdateStage(c.Request.Context(), id, stage, req)
	if err != nil {
		log.Warn().Err(err).
			Str("order_id", id.String()).
			Str("stage", stage).
			Str("status", req.Status).
			Msg("Stage update rejected")
		api.WriteError(c, err)
		return
	}
	api.OK(c, order)
}

func (h *ProductionHandler) ListLogs(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	logs, err := h.production.ListLogs(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, logs)
}

func (h *ProductionHandler) CreateFolding(c *gin.Context) {
	var req service.FoldingRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.folding.Create(c.Request.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("batch", req.BatchNumber).Msg("Failed to record folding")
		api.WriteError(c, err)
		return
	}
	api.Created(c, record)
}

func (h *ProductionHandler) ListFolding(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	orderID, ok := queryID(c, "order_id")
	if !ok {
		return
	}
	filter := repository.FoldingFilter{
		OrderID:  orderID,
		QCStatus: c.Query("qc_status"),
		Batch:    c.Query("batch"),
		Page:     page,
	}
	records, total, err := h.folding.List(c.Request.Context(), filter)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, records, page, total)
}

func (h *ProductionHandler) GetFolding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	record, err := h.folding.Get(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, record)
}

func (h *ProductionHandler) UpdateFolding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateFoldingRequest
	if !bindJSON(c, &req) {
		return
	}
	record, err := h.folding.Update(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, record)
}

func (h *ProductionHandler) DeleteFolding(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.folding.Delete(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}

// FoldingSummary totals the QC results of one order
func (h *ProductionHandler) FoldingSummary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	summary, err := h.folding.OrderSummary(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, summary)
}
