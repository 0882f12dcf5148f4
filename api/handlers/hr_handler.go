package handlers

import (
	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/repository"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
)

// HRHandler handles employees and attendance
type HRHandler struct {
	service service.HRService
}

// NewHRHandler creates a new HRHandler instance
func NewHRHandler(svc service.HRService) *HRHandler {
	return &HRHandler{service: svc}
}

func (h *HRHandler) CreateEmployee(c *gin.Context) {
	var req service.EmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	employee, err := h.service.CreateEmployee(c.Request.Context(), req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.Created(c, employee)
}

func (h *HRHandler) ListEmployees(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	active, ok := queryBool(c, "active")
	if !ok {
		return
	}
	filter := repository.EmployeeFilter{
		Department: c.Query("department"),
		Active:     active,
		Page:       page,
	}
	employees, total, err := h.service.ListEmployees(c.Request.Context(), filter)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, employees, page, total)
}

func (h *HRHandler) GetEmployee(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	employee, err := h.service.GetEmployee(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, employee)
}

func (h *HRHandler) UpdateEmployee(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateEmployeeRequest
	if !bindJSON(c, &req) {
		return
	}
	employee, err := h.service.UpdateEmployee(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, employee)
}

func (h *HRHandler) DeleteEmployee(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteEmployee(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}

// MarkAttendance upserts one employee day
func (h *HRHandler) MarkAttendance(c *gin.Context) {
	var req service.AttendanceRequest
	if !bindJSON(c, &req) {
		return
	}
	mark, err := h.service.MarkAttendance(c.Request.Context(), req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, mark)
}

func (h *HRHandler) ListAttendance(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	employeeID, ok := queryID(c, "employee_id")
	if !ok {
		return
	}
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}
	filter := repository.AttendanceFilter{
		EmployeeID: employeeID,
		From:       from,
		To:         to,
		Page:       page,
	}
	marks, total, err := h.service.ListAttendance(c.Request.Context(), filter)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, marks, page, total)
}

// MonthlySummary returns payable days per employee for ?month=YYYY-MM
func (h *HRHandler) MonthlySummary(c *gin.Context) {
	rows, err := h.service.MonthlySummary(c.Request.Context(), c.Query("month"))
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, rows)
}
