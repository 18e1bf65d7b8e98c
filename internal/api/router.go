package api

import (
	v1 "github.com/flexprice/payhook/internal/api/v1"
	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/logger"
	"github.com/flexprice/payhook/internal/rest/middleware"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// MaxWebhookBodyBytes caps inbound webhook bodies
const MaxWebhookBodyBytes = 1 << 20

type Handlers struct {
	Health         *v1.HealthHandler
	PaymentWebhook *v1.PaymentWebhookHandler
}

func NewRouter(handlers Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	router := gin.Default()
	router.Use(
		middleware.RequestIDMiddleware,
		middleware.SentryMiddleware(cfg),
		middleware.ErrorHandler(),
	)

	// Health check
	router.GET("/health", handlers.Health.Health)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers, cfg)

	logger.Infow("registered api routes",
		"rate_limit", cfg.Webhook.Inbound.RateLimit,
		"rate_burst", cfg.Webhook.Inbound.RateBurst,
	)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers, cfg *config.Configuration) {
	router.GET("/health", handlers.Health.Health)

	// Inbound payment webhooks
	webhooks := router.Group("/webhooks")
	webhooks.Use(
		middleware.RateLimitMiddleware(cfg),
		middleware.MaxBodyMiddleware(MaxWebhookBodyBytes),
	)
	{
		webhooks.POST("/payments", handlers.PaymentWebhook.HandlePaymentWebhook)
	}
}
