package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/model"
)

// ListAssets handles GET /api/assets.
func (h *Handler) ListAssets(c *gin.Context) {
	assets, err := h.store.ListAssets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assets)
}

type putAssetRequest struct {
	SerialNo              string     `json:"serialNo" binding:"required"`
	Name                  string     `json:"name" binding:"required"`
	Category              string     `json:"category" binding:"required"`
	Status                string     `json:"status" binding:"required"`
	Location              string     `json:"location"`
	PurchaseDate          *time.Time `json:"purchaseDate"`
	Value                 float64    `json:"value"`
	ServiceIntervalMonths int        `json:"serviceIntervalMonths"`
	NextServiceDate       *time.Time `json:"nextServiceDate"`
	ExpiryDate            *time.Time `json:"expiryDate"`
}

// PutAsset handles PUT /api/assets, creating or replacing an asset row.
func (h *Handler) PutAsset(c *gin.Context) {
	var req putAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	asset := model.Asset{
		SerialNo:              req.SerialNo,
		Name:                  req.Name,
		Category:              req.Category,
		Status:                req.Status,
		Location:              req.Location,
		Value:                 req.Value,
		ServiceIntervalMonths: req.ServiceIntervalMonths,
		NextServiceDate:       req.NextServiceDate,
		ExpiryDate:            req.ExpiryDate,
	}
	if req.PurchaseDate != nil {
		asset.PurchaseDate = *req.PurchaseDate
	}

	if err := h.store.UpsertAsset(c.Request.Context(), asset); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, asset)
}

// DeleteAsset handles DELETE /api/assets/{serial_no}.
func (h *Handler) DeleteAsset(c *gin.Context) {
	if err := h.store.DeleteAsset(c.Request.Context(), c.Param("serial_no")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListMoulds handles GET /api/moulds.
func (h *Handler) ListMoulds(c *gin.Context) {
	moulds, err := h.store.ListMoulds(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, moulds)
}

type putMouldRequest struct {
	ID                   string `json:"id" binding:"required"`
	Model                string `json:"model" binding:"required"`
	OEM                  string `json:"oem"`
	StrokeLife           int64  `json:"strokeLife" binding:"required"`
	UtilizationThreshold int64  `json:"utilizationThreshold"`
}

// PutMould handles PUT /api/moulds.
func (h *Handler) PutMould(c *gin.Context) {
	var req putMouldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	mould := model.Mould{
		ID:                   req.ID,
		Model:                req.Model,
		OEM:                  req.OEM,
		StrokeLife:           req.StrokeLife,
		UtilizationThreshold: req.UtilizationThreshold,
	}
	if err := h.store.UpsertMould(c.Request.Context(), mould); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, mould)
}

// DeleteMould handles DELETE /api/moulds/{id}.
func (h *Handler) DeleteMould(c *gin.Context) {
	if err := h.store.DeleteMould(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListTeamMembers handles GET /api/team.
func (h *Handler) ListTeamMembers(c *gin.Context) {
	members, err := h.store.ListTeamMembers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

type putTeamMemberRequest struct {
	ID         string `json:"id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department"`
}

// PutTeamMember handles PUT /api/team.
func (h *Handler) PutTeamMember(c *gin.Context) {
	var req putTeamMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, fault.Validationf("invalid request: %v", err))
		return
	}

	member := model.TeamMember{
		ID:         req.ID,
		Name:       req.Name,
		Role:       req.Role,
		Department: req.Department,
	}
	if err := h.store.UpsertTeamMember(c.Request.Context(), member); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

// DeleteTeamMember handles DELETE /api/team/{id}.
func (h *Handler) DeleteTeamMember(c *gin.Context) {
	if err := h.store.DeleteTeamMember(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
