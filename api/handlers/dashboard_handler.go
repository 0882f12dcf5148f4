package handlers

import (
	"strconv"
	"time"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the dashboard and analytics breakdowns
type DashboardHandler struct {
	service service.DashboardService
	now     func() time.Time
}

// NewDashboardHandler creates a new DashboardHandler instance
func NewDashboardHandler(svc service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc, now: time.Now}
}

func (h *DashboardHandler) Summary(c *gin.Context) {
	dashboard, err := h.service.Summary(c.Request.Context())
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, dashboard)
}

func (h *DashboardHandler) StageBreakdown(c *gin.Context) {
	rows, err := h.service.StageBreakdown(c.Request.Context())
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, rows)
}

// DispatchMonthly defaults to the current year
func (h *DashboardHandler) DispatchMonthly(c *gin.Context) {
	year := h.now().UTC().Year()
	if raw := c.Query("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			api.WriteError(c, api.NewValidationError("invalid year"))
			return
		}
		year = y
	}
	rows, err := h.service.DispatchMonthly(c.Request.Context(), year)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, gin.H{"year": year, "months": rows})
}
