package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/model"
)

// conditionScore maps an inspection rating to its score contribution.
func conditionScore(rating string) (int, error) {
	switch rating {
	case "Good":
		return 100, nil
	case "Fair":
		return 65, nil
	case "Poor":
		return 30, nil
	}
	return 0, fault.Validationf("unknown condition rating %q", rating)
}

type healthCheckRequest struct {
	MachineID        string `json:"machineId" binding:"required"`
	InsertWear       string `json:"insertWear" binding:"required"`
	CoolingCondition string `json:"coolingCondition" binding:"required"`
	CavityPolish     string `json:"cavityPolish" binding:"required"`
	OilLevel         int    `json:"oilLevel"`
	Comments         string `json:"comments"`
}

// SubmitHealthCheck handles POST /api/health-checks. The health score is
// derived from the three condition ratings, pushed into the live registry
// and the raw check is persisted for the trend chart.
func (h *Handler) SubmitHealthCheck(c *gin.Context) {
	var req healthCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	total := 0
	for _, rating := range []string{req.InsertWear, req.CoolingCondition, req.CavityPolish} {
		score, err := conditionScore(rating)
		if err != nil {
			respondError(c, err)
			return
		}
		total += score
	}
	healthScore := total / 3

	m, err := h.registry.UpdateHealth(req.MachineID, healthScore, req.OilLevel)
	if err != nil {
		respondError(c, err)
		return
	}

	hc := model.HealthCheck{
		MachineID:        req.MachineID,
		InsertWear:       req.InsertWear,
		CoolingCondition: req.CoolingCondition,
		CavityPolish:     req.CavityPolish,
		Comments:         req.Comments,
		HealthScore:      healthScore,
		OilLevel:         req.OilLevel,
		SubmittedAt:      h.now().UTC(),
	}
	if err := h.store.RecordHealthCheck(c.Request.Context(), hc); err != nil {
		respondError(c, err)
		return
	}

	h.persistMachine(c.Request.Context(), req.MachineID)
	c.JSON(http.StatusCreated, gin.H{"machine": m, "healthScore": healthScore})
}

// ListHealthChecks handles GET /api/health-checks.
func (h *Handler) ListHealthChecks(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, fault.Validationf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	checks, err := h.store.ListHealthChecks(c.Request.Context(), c.Query("machine_id"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, checks)
}

// GetHealthHistory handles GET /api/health-history: per-month average health
// scores for the trend chart.
func (h *Handler) GetHealthHistory(c *gin.Context) {
	months := 8
	if raw := c.Query("months"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(c, fault.Validationf("invalid months %q", raw))
			return
		}
		months = n
	}

	points, err := h.store.MonthlyHealthAverages(c.Request.Context(), months, h.now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, points)
}
