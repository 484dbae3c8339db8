package api

import (
	"github.com/flexprice/billingcore/internal/api/cron"
	v1 "github.com/flexprice/billingcore/internal/api/v1"
	"github.com/flexprice/billingcore/internal/config"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/rest/middleware"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Handlers struct {
	Health         *v1.HealthHandler
	Proration      *v1.ProrationHandler
	UsageThreshold *v1.UsageThresholdHandler
	Dunning        *v1.DunningHandler

	CronDunning        *cron.DunningHandler
	CronUsageThreshold *cron.UsageThresholdHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger, sentryService *sentry.Service) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(
		middleware.CORSMiddleware,
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.PyroscopeMiddleware(cfg),
		middleware.LoggingMiddleware(logger),
		middleware.ErrorHandler(logger, sentryService),
	)

	router.GET("/health", handlers.Health.Health)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1Group := router.Group("/v1")
	v1Group.Use(middleware.TenantMiddleware)

	subscriptions := v1Group.Group("/subscriptions")
	{
		subscriptions.POST("/:id/change-plan/preview", handlers.Proration.PreviewPlanChange)
		subscriptions.POST("/:id/usage-thresholds/test", handlers.UsageThreshold.TestThreshold)
		subscriptions.POST("/:id/usage-thresholds/evaluate", handlers.UsageThreshold.EvaluateSubscription)
	}

	usageThresholds := v1Group.Group("/usage-thresholds")
	{
		usageThresholds.GET("/:id/status", handlers.UsageThreshold.GetStatus)
	}

	dunningCampaigns := v1Group.Group("/dunning-campaigns")
	{
		dunningCampaigns.POST("/:id/preview", handlers.Dunning.PreviewCampaign)
		dunningCampaigns.POST("/:id/execute", handlers.Dunning.ExecuteCampaign)
	}

	// Cron routes
	cronGroup := v1Group.Group("/cron")
	{
		cronGroup.POST("/dunning/run", handlers.CronDunning.RunCampaigns)
		cronGroup.POST("/usage-thresholds/evaluate", handlers.CronUsageThreshold.EvaluateThresholds)
	}

	return router
}
