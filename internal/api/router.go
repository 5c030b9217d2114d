package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mouldtrack-backend/config"
	"mouldtrack-backend/internal/breakdown"
	"mouldtrack-backend/internal/machine"
	"mouldtrack-backend/internal/mw"
	"mouldtrack-backend/internal/pm"
	"mouldtrack-backend/internal/recommend"
	"mouldtrack-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, registry *machine.Registry, ledger *breakdown.Ledger, scheduler *pm.Scheduler, s store.Store, rec *recommend.Client, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(registry, ledger, scheduler, s, rec, webpushOptions)

	rateLimiter := mw.NewClientRateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), 5, cfg.Server.RequestIPHeader)
	cache := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds) * time.Second)

	api := r.Group("/api")
	api.Use(rateLimiter.Middleware())
	{
		// Machine lifecycle
		api.GET("/machines", handler.ListMachines)
		api.POST("/machines", handler.RegisterMachine)
		api.GET("/machines/:id", handler.GetMachine)
		api.GET("/machines/:id/utilization", handler.GetUtilization)
		api.PATCH("/machines/:id/status", handler.SetMachineStatus)

		// Breakdown ledger
		api.GET("/breakdowns", handler.ListBreakdowns)
		api.POST("/breakdowns", handler.ReportBreakdown)
		api.POST("/breakdowns/:id/close", handler.CloseBreakdown)
		api.GET("/breakdowns/kpis", handler.GetBreakdownKPIs)
		api.GET("/breakdowns/history", handler.ListBreakdownHistory)

		// Preventive maintenance
		api.GET("/pm-tasks", handler.ListPMTasks)
		api.POST("/pm-tasks", handler.SchedulePMTask)
		api.POST("/pm-tasks/:id/start", handler.StartPMTask)
		api.POST("/pm-tasks/:id/complete", handler.CompletePMTask)
		api.GET("/pm-tasks/history", handler.ListPMTaskHistory)

		// Mould health
		api.POST("/health-checks", handler.SubmitHealthCheck)
		api.GET("/health-checks", handler.ListHealthChecks)

		// Recommendations
		api.POST("/recommendations", handler.GenerateRecommendations)

		// Push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)

		// Dashboard reads and master data share a response cache. Reads
		// age out on the TTL; a successful mutation flushes the lot.
		cached := api.Group("")
		cached.Use(cache.Middleware())
		{
			cached.GET("/stats", handler.GetStats)
			cached.GET("/health-history", handler.GetHealthHistory)

			cached.GET("/assets", handler.ListAssets)
			cached.PUT("/assets", handler.PutAsset)
			cached.DELETE("/assets/:serial_no", handler.DeleteAsset)
			cached.GET("/moulds", handler.ListMoulds)
			cached.PUT("/moulds", handler.PutMould)
			cached.DELETE("/moulds/:id", handler.DeleteMould)
			cached.GET("/team", handler.ListTeamMembers)
			cached.PUT("/team", handler.PutTeamMember)
			cached.DELETE("/team/:id", handler.DeleteTeamMember)
		}
	}

	return r
}
