package handlers

import (
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// InventoryHandler handles stock items and the stock ledger
type InventoryHandler struct {
	service service.InventoryService
}

// NewInventoryHandler creates a new InventoryHandler instance
func NewInventoryHandler(svc service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: svc}
}

func (h *InventoryHandler) CreateItem(c *gin.Context) {
	var req service.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.CreateItem(c.Request.Context(), req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.Created(c, item)
}

func (h *InventoryHandler) ListItems(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	filter := repository.ItemFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
		Page:     page,
	}
	items, total, err := h.service.ListItems(c.Request.Context(), filter)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, items, page, total)
}

func (h *InventoryHandler) GetItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	item, err := h.service.GetItem(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, item)
}

func (h *InventoryHandler) UpdateItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.service.UpdateItem(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, item)
}

func (h *InventoryHandler) DeleteItem(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteItem(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}

// RecordMovement books stock in, out or an absolute adjustment
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.MovementRequest
	if !bindJSON(c, &req) {
		return
	}
	movement, err := h.service.RecordMovement(c.Request.Context(), id, req)
	if err != nil {
		log.Warn().Err(err).Str("item_id", id.String()).Str("type", req.Type).Msg("Stock movement rejected")
		api.WriteError(c, err)
		return
	}
	api.Created(c, movement)
}

func (h *InventoryHandler) ListMovements(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	page, ok := queryPage(c)
	if !ok {
		return
	}
	movements, total, err := h.service.ListMovements(c.Request.Context(), id, page)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, movements, page, total)
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	items, err := h.service.LowStock(c.Request.Context())
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, items)
}
