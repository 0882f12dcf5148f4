package handlers

import (
	"fmt"
	"net/http"

	"example.com/textile/erp/internal/api"
	"example.com/textile/erp/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler handles report schedules, runs and exports
type ReportHandler struct {
	service service.ReportService
}

// NewReportHandler creates a new ReportHandler instance
func NewReportHandler(svc service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

func (h *ReportHandler) CreateSchedule(c *gin.Context) {
	var req service.ScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.service.CreateSchedule(c.Request.Context(), req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.Created(c, schedule)
}

func (h *ReportHandler) ListSchedules(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	schedules, total, err := h.service.ListSchedules(c.Request.Context(), page)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, schedules, page, total)
}

func (h *ReportHandler) GetSchedule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	schedule, err := h.service.GetSchedule(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, schedule)
}

func (h *ReportHandler) UpdateSchedule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req service.ScheduleRequest
	if !bindJSON(c, &req) {
		return
	}
	schedule, err := h.service.UpdateSchedule(c.Request.Context(), id, req)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, schedule)
}

func (h *ReportHandler) DeleteSchedule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteSchedule(c.Request.Context(), id); err != nil {
		api.WriteError(c, err)
		return
	}
	api.NoContent(c)
}

// RunSchedule generates a schedule's report now without moving its cadence.
// With async=true the run is queued for the worker and 202 is returned.
func (h *ReportHandler) RunSchedule(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	async, ok := queryBool(c, "async")
	if !ok {
		return
	}
	if async != nil && *async {
		if err := h.service.RequestRun(c.Request.Context(), id); err != nil {
			api.WriteError(c, err)
			return
		}
		api.Accepted(c, gin.H{"schedule_id": id, "queued": true})
		return
	}

	run, err := h.service.RunSchedule(c.Request.Context(), id)
	if err != nil {
		log.Error().Err(err).Str("schedule_id", id.String()).Msg("Manual report run failed")
		api.WriteError(c, err)
		return
	}
	api.Created(c, run)
}

func (h *ReportHandler) ListRuns(c *gin.Context) {
	page, ok := queryPage(c)
	if !ok {
		return
	}
	scheduleID, ok := queryID(c, "schedule_id")
	if !ok {
		return
	}
	runs, total, err := h.service.ListRuns(c.Request.Context(), scheduleID, page)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	list(c, runs, page, total)
}

func (h *ReportHandler) Download(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	download, err := h.service.DownloadURL(c.Request.Context(), id)
	if err != nil {
		api.WriteError(c, err)
		return
	}
	api.OK(c, download)
}

// Export streams a workbook generated on demand
func (h *ReportHandler) Export(c *gin.Context) {
	from, ok := queryTime(c, "from")
	if !ok {
		return
	}
	to, ok := queryTime(c, "to")
	if !ok {
		return
	}

	export, err := h.service.Export(c.Request.Context(), c.Param("type"), from, to)
	if err != nil {
		api.WriteError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Header("X-Report-Rows", fmt.Sprint(export.Rows))
	c.Data(http.StatusOK, xlsxContentType, export.Data)
}
