package main

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	_ "github.com/flexprice/payhook/docs/swagger"
	"github.com/flexprice/payhook/internal/api"
	v1 "github.com/flexprice/payhook/internal/api/v1"
	"github.com/flexprice/payhook/internal/cache"
	"github.com/flexprice/payhook/internal/config"
	"github.com/flexprice/payhook/internal/httpclient"
	"github.com/flexprice/payhook/internal/logger"
	pubsubRouter "github.com/flexprice/payhook/internal/pubsub/router"
	"github.com/flexprice/payhook/internal/sentry"
	"github.com/flexprice/payhook/internal/types"
	"github.com/flexprice/payhook/internal/webhook"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Payhook API
// @version 1.0
// @description Receives signed payment webhooks and fans them out to internal subscribers
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	// Initialize Fx application
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Monitoring
			sentry.NewSentryService,

			// Cache
			cache.Initialize,

			// HTTP Client
			httpclient.NewDefaultClient,

			// PubSub
			pubsubRouter.NewRouter,
		),
	)

	// Webhook module
	opts = append(opts, webhook.Module)

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			sentry.RegisterHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideHandlers(
	logger *logger.Logger,
	webhookService *webhook.WebhookService,
) api.Handlers {
	return api.Handlers{
		Health:         v1.NewHealthHandler(logger),
		PaymentWebhook: v1.NewPaymentWebhookHandler(webhookService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger) *gin.Engine {
	return api.NewRouter(handlers, cfg, logger)
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	webhookService *webhook.WebhookService,
	router *pubsubRouter.Router,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	// appended first so it runs after the router and server hooks on shutdown
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return webhookService.Stop()
		},
	})

	switch mode {
	case types.ModeLocal:
		startAPIServer(lc, r, cfg, log)
		startMessageRouter(lc, router, webhookService, log)
	case types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeConsumer:
		startMessageRouter(lc, router, webhookService, log)
	case types.ModeAWSLambdaAPI:
		startAWSLambdaAPI(lc, r, log)
	default:
		log.Fatalf("Unknown deployment mode: %s", mode)
	}

}

func startAPIServer(
	lc fx.Lifecycle,
	r *gin.Engine,
	cfg *config.Configuration,
	log *logger.Logger,
) {
	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := r.Run(cfg.Server.Address); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return nil
		},
	})
}

func startAWSLambdaAPI(lc fx.Lifecycle, r *gin.Engine, log *logger.Logger) {
	ginLambda := ginadapter.New(r)
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting AWS Lambda API handler")
			go lambda.Start(ginLambda.ProxyWithContext)
			return nil
		},
	})
}

func startMessageRouter(
	lc fx.Lifecycle,
	router *pubsubRouter.Router,
	webhookService *webhook.WebhookService,
	logger *logger.Logger,
) {
	// Register handlers before starting the router
	webhookService.RegisterHandler(router)

	runCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("starting message router")
			go func() {
				if err := router.Run(runCtx); err != nil {
					logger.Errorw("message router failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("stopping message router")
			cancel()
			return router.Close()
		},
	})
}
