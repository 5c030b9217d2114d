package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/recommend"
)

type recommendRequest struct {
	MachineHistory      string  `json:"machineHistory" binding:"required"`
	PMSchedule          string  `json:"preventativeMaintenanceSchedule"`
	CostPerHourDowntime float64 `json:"costOfDowntime"`
}

// GenerateRecommendations handles POST /api/recommendations by forwarding
// the material to the external advisory service. The report is opaque text;
// nothing in it feeds back into machine state.
func (h *Handler) GenerateRecommendations(c *gin.Context) {
	var req recommendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	out, err := h.recommend.Generate(c.Request.Context(), recommend.Input{
		MachineHistory:      req.MachineHistory,
		PMSchedule:          req.PMSchedule,
		CostPerHourDowntime: req.CostPerHourDowntime,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
