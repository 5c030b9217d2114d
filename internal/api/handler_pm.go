package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/pm"
)

// ListPMTasks handles GET /api/pm-tasks. The status and date query filters
// are mutually exclusive; statuses are matched against the derived status,
// not the stored one.
func (h *Handler) ListPMTasks(c *gin.Context) {
	statusParam := c.Query("status")
	dateParam := c.Query("date")
	if statusParam != "" && dateParam != "" {
		respondError(c, fault.Validationf("status and date filters are mutually exclusive"))
		return
	}

	f := pm.FilterNone()
	switch {
	case statusParam != "":
		status := pm.Status(statusParam)
		if !status.Valid() {
			respondError(c, fault.Validationf("unknown task status %q", statusParam))
			return
		}
		f = pm.FilterByStatus(status)
	case dateParam != "":
		date, err := time.Parse("2006-01-02", dateParam)
		if err != nil {
			respondError(c, fault.Validationf("invalid date %q, use YYYY-MM-DD", dateParam))
			return
		}
		f = pm.FilterByDate(date)
	}

	c.JSON(http.StatusOK, h.scheduler.List(f, h.now()))
}

type scheduleTaskRequest struct {
	MachineID string   `json:"machineId" binding:"required"`
	Activity  string   `json:"activity" binding:"required"`
	Frequency string   `json:"frequency" binding:"required"`
	Assignee  string   `json:"assignee"`
	DueDate   string   `json:"dueDate" binding:"required"`
	Checklist []string `json:"checklist"`
}

// SchedulePMTask handles POST /api/pm-tasks.
func (h *Handler) SchedulePMTask(c *gin.Context) {
	var req scheduleTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	dueDate, err := time.Parse(time.RFC3339, req.DueDate)
	if err != nil {
		respondError(c, fault.Validationf("invalid due date %q, use RFC3339", req.DueDate))
		return
	}

	task, err := h.scheduler.Schedule(req.MachineID, req.Activity, pm.Frequency(req.Frequency), req.Assignee, dueDate, req.Checklist)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

// StartPMTask handles POST /api/pm-tasks/{id}/start.
func (h *Handler) StartPMTask(c *gin.Context) {
	task, err := h.scheduler.MarkInProgress(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CompletePMTask handles POST /api/pm-tasks/{id}/complete. Completion is
// terminal and queues the snapshot for archival.
func (h *Handler) CompletePMTask(c *gin.Context) {
	task, err := h.scheduler.MarkCompleted(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// ListPMTaskHistory handles GET /api/pm-tasks/history.
func (h *Handler) ListPMTaskHistory(c *gin.Context) {
	rows, err := h.store.ListPMTaskHistory(c.Request.Context(), c.Query("machine_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
