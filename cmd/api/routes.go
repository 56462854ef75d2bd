package main

import (
	"database/sql"
	"time"

	"voice-campaign-platform/internal/audit"
	"voice-campaign-platform/internal/auth"
	"voice-campaign-platform/internal/campaign"
	"voice-campaign-platform/internal/report"
	"voice-campaign-platform/internal/webhook"
	"voice-campaign-platform/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type routeDeps struct {
	authManager *auth.Manager
	authMW      gin.HandlerFunc
	webhook     webhook.Handler
	campaign    campaign.Handler
	report      report.Handler
	trail       audit.Handler
	db          *sql.DB
	redis       *redis.Client
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, deps routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if err := utils.HealthCheck(c.Request.Context(), deps.db, 2*time.Second); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "postgres": err.Error()})
			return
		}
		if err := deps.redis.Ping(c.Request.Context()).Err(); err != nil {
			c.JSON(503, gin.H{"status": "degraded", "redis": err.Error()})
			return
		}
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Provider webhook (public; authenticated by the per-process shared
	// secret the provider echoes back in x-vapi-secret).
	r.POST("/vapi-webhook", deps.webhook.Handle)

	// protected API group
	v1 := r.Group("/v1")
	{
		v1.POST("/auth/login", auth.LoginHandler(deps.authManager))

		protected := v1.Group("")
		protected.Use(deps.authMW)
		{
			protected.POST("/campaigns/trigger", deps.campaign.Trigger)
			protected.GET("/reports/calls", deps.report.Download)
			protected.GET("/audit/events", deps.trail.Recent)
		}
	}
}
