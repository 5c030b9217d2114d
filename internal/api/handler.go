package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"mouldtrack-backend/internal/breakdown"
	"mouldtrack-backend/internal/fault"
	"mouldtrack-backend/internal/machine"
	"mouldtrack-backend/internal/pm"
	"mouldtrack-backend/internal/recommend"
	"mouldtrack-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	registry  *machine.Registry
	ledger    *breakdown.Ledger
	scheduler *pm.Scheduler
	store     store.Store
	recommend *recommend.Client
	webpush   *webpush.Options
	now       func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(registry *machine.Registry, ledger *breakdown.Ledger, scheduler *pm.Scheduler, s store.Store, rec *recommend.Client, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		registry:  registry,
		ledger:    ledger,
		scheduler: scheduler,
		store:     s,
		recommend: rec,
		webpush:   webpushOptions,
		now:       time.Now,
	}
}

// respondError maps domain errors onto HTTP statuses: rejected input is 400,
// unknown ids are 404, disallowed transitions are 409 and missing
// configuration is 422.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, fault.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, fault.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	case errors.Is(err, fault.ErrInvalidState):
		status = http.StatusConflict
	case errors.Is(err, fault.ErrConfiguration):
		status = http.StatusUnprocessableEntity
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
