package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"mouldtrack-backend/internal/breakdown"
	"mouldtrack-backend/internal/fault"
)

// ListBreakdowns handles GET /api/breakdowns with optional status and
// machine_id query filters.
func (h *Handler) ListBreakdowns(c *gin.Context) {
	f := breakdown.Filter{
		MachineID: c.Query("machine_id"),
	}
	if s := c.Query("status"); s != "" {
		status := breakdown.Status(s)
		if status != breakdown.StatusOpen && status != breakdown.StatusClosed {
			respondError(c, fault.Validationf("unknown breakdown status %q", s))
			return
		}
		f.Status = status
	}
	c.JSON(http.StatusOK, h.ledger.List(f))
}

type reportBreakdownRequest struct {
	MachineID        string   `json:"machineId" binding:"required"`
	RootCause        string   `json:"rootCause" binding:"required"`
	CorrectiveAction string   `json:"correctiveAction"`
	SparesUsed       []string `json:"sparesUsed"`
}

// ReportBreakdown handles POST /api/breakdowns. Reporting opens a ticket and
// forces the machine into Breakdown.
func (h *Handler) ReportBreakdown(c *gin.Context) {
	var req reportBreakdownRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	ev, err := h.ledger.Report(req.MachineID, req.RootCause, req.CorrectiveAction, req.SparesUsed)
	if err != nil {
		respondError(c, err)
		return
	}

	h.persistMachine(c.Request.Context(), req.MachineID)
	c.JSON(http.StatusCreated, ev)
}

// CloseBreakdown handles POST /api/breakdowns/{id}/close. Closing stamps the
// downtime end, returns the machine to Running and queues the event for
// archival.
func (h *Handler) CloseBreakdown(c *gin.Context) {
	ev, err := h.ledger.Close(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	h.persistMachine(c.Request.Context(), ev.MachineID)
	c.JSON(http.StatusOK, ev)
}

type kpiResponse struct {
	MTTR           string `json:"mttr"`
	MTBF           string `json:"mtbf"`
	AvgRecurrence  string `json:"avgRecurrence"`
	OpenBreakdowns int    `json:"openBreakdowns"`
}

// GetBreakdownKPIs handles GET /api/breakdowns/kpis. Undefined figures come
// back as "N/A" rather than a misleading zero.
func (h *Handler) GetBreakdownKPIs(c *gin.Context) {
	k := h.ledger.KPIs()

	resp := kpiResponse{
		MTTR:           "N/A",
		MTBF:           "N/A",
		AvgRecurrence:  "N/A",
		OpenBreakdowns: k.OpenBreakdowns,
	}
	if k.MTTRDefined {
		resp.MTTR = fmt.Sprintf("%.1fh", k.MTTR.Hours())
	}
	if k.MTBFDefined {
		resp.MTBF = fmt.Sprintf("%.1fh", k.MTBF.Hours())
	}
	if k.AvgRecDefined {
		resp.AvgRecurrence = fmt.Sprintf("%.2f", k.AvgRecurrence)
	}
	c.JSON(http.StatusOK, resp)
}

// ListBreakdownHistory handles GET /api/breakdowns/history: the archived
// (closed and persisted) events, newest first.
func (h *Handler) ListBreakdownHistory(c *gin.Context) {
	rows, err := h.store.ListBreakdownHistory(c.Request.Context(), c.Query("machine_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
