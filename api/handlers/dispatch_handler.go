package handlers

import (
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// DispatchHandler handles outgoing dispatches
type DispatchHandler struct {
	service service.DispatchService
}

// NewDispatchHandler creates a new DispatchHandler instance
func NewDispatchHandler(svc service.DispatchService) *DispatchHandler {
	return &DispatchHandler{service: svc}
}

func (h *DispatchHandler) Create(c *gin.Context) {
	var req service.CreateDispatchRequest
	if !bindJSON(c, &req) {
		return
	}
	dispatch, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		log.Warn().Err(err).Str("customer_id", req.CustomerID.String()).Msg("Failed to create dispatch")
		api.WriteError(c, err)
		return
	}
	api.Created(c, dispatch)
}

func (h *DispatchHandler) List(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	customerID, ok := queryID(c, "customer_id")
	if !ok {
		return
	}
	filter := repository.DispatchFilter{
		Status:     c.Query("status"),
		CustomerID: customerID,
		Page:       page,
	}
	dispatches, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, dispatches, page, total)
}

func (h *DispatchHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	dispatch, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, dispatch)
}

func (h *DispatchHandler) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.DispatchStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	dispatch, err := h.service.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, dispatch)
}

func (h *DispatchHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}
