package api

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/machine"
)

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.List())
}

// GetMachine handles GET /api/machines/{id}.
func (h *Handler) GetMachine(c *gin.Context) {
	m, err := h.registry.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

type utilizationResponse struct {
	MachineID   string  `json:"machineId"`
	Utilization float64 `json:"utilization"`
}

// GetUtilization handles GET /api/machines/{id}/utilization.
func (h *Handler) GetUtilization(c *gin.Context) {
	id := c.Param("id")
	ratio, err := h.registry.Utilization(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, utilizationResponse{MachineID: id, Utilization: ratio})
}

type registerMachineRequest struct {
	ID               string `json:"id" binding:"required"`
	Name             string `json:"name" binding:"required"`
	Model            string `json:"model"`
	Status           string `json:"status"`
	StrokeCount      int64  `json:"strokeCount"`
	UtilizationLimit int64  `json:"utilizationLimit"`
	HealthScore      int    `json:"healthScore"`
	OilLevel         int    `json:"oilLevel"`
}

// RegisterMachine handles POST /api/machines. The machine enters the live
// registry and is persisted to the master table.
func (h *Handler) RegisterMachine(c *gin.Context) {
	var req registerMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	status := machine.Status(req.Status)
	if req.Status == "" {
		status = machine.StatusIdle
	}

	m := machine.Machine{
		ID:               req.ID,
		Name:             req.Name,
		Model:            req.Model,
		Status:           status,
		StrokeCount:      req.StrokeCount,
		UtilizationLimit: req.UtilizationLimit,
		HealthScore:      req.HealthScore,
		OilLevel:         req.OilLevel,
	}
	if err := h.registry.Register(m); err != nil {
		respondError(c, err)
		return
	}

	h.persistMachine(c.Request.Context(), req.ID)
	c.JSON(http.StatusCreated, m)
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetMachineStatus handles PATCH /api/machines/{id}/status: the operator
// transition surface. Breakdown entry and recovery go through the breakdown
// endpoints instead.
func (h *Handler) SetMachineStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	m, err := h.registry.SetStatus(c.Param("id"), machine.Status(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}

	h.persistMachine(c.Request.Context(), m.ID)
	c.JSON(http.StatusOK, m)
}

// persistMachine flushes a registry snapshot to the master table. The live
// state is authoritative, so a write failure is logged rather than surfaced.
func (h *Handler) persistMachine(ctx context.Context, id string) {
	m, err := h.registry.Get(id)
	if err != nil {
		return
	}
	if err := h.store.SaveMachineState(ctx, m); err != nil {
		log.Printf("Error persisting machine %s: %v", id, err)
	}
}

type statsResponse struct {
	Machines       machine.Stats `json:"machines"`
	OpenBreakdowns int           `json:"openBreakdowns"`
	PendingPMTasks int           `json:"pendingPmTasks"`
	GeneratedAt    time.Time     `json:"generatedAt"`
}

// GetStats handles GET /api/stats for the dashboard header cards.
func (h *Handler) GetStats(c *gin.Context) {
	now := h.now()
	c.JSON(http.StatusOK, statsResponse{
		Machines:       h.registry.Stats(),
		OpenBreakdowns: h.ledger.OpenCount(),
		PendingPMTasks: h.scheduler.PendingCount(now),
		GeneratedAt:    now.UTC(),
	})
}
