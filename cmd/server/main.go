package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/flexprice/billingcore/internal/api"
	"github.com/flexprice/billingcore/internal/api/cron"
	v1 "github.com/flexprice/billingcore/internal/api/v1"
	"github.com/flexprice/billingcore/internal/cache"
	"github.com/flexprice/billingcore/internal/clickhouse"
	"github.com/flexprice/billingcore/internal/config"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/publisher"
	"github.com/flexprice/billingcore/internal/pubsub"
	"github.com/flexprice/billingcore/internal/pyroscope"
	"github.com/flexprice/billingcore/internal/repository"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/flexprice/billingcore/internal/service"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/flexprice/billingcore/internal/validator"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
)

// @title Billing Core API
// @version 1.0
// @description Proration previews, usage thresholds and dunning
// @BasePath /v1
// @schemes http https

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			provideCache,

			// Clickhouse
			clickhouse.NewClickHouseStore,

			// Producers
			publisher.NewPubSub,
			publisher.NewEventPublisher,
		),
		sentry.Module(),
		pyroscope.Module(),
		postgres.Module(),
		repository.Module(),
	)

	// Service layer
	opts = append(opts, service.Module())

	// API
	opts = append(opts,
		fx.Provide(
			provideHandlers,
			provideRouter,
		),
		fx.Invoke(
			registerCloseHooks,
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideCache(cfg *config.Configuration) cache.Cache {
	return cache.NewInMemoryCache(cfg)
}

func provideHandlers(
	logger *logger.Logger,
	sentryService *sentry.Service,
	prorationService service.ProrationService,
	usageThresholdService service.UsageThresholdService,
	dunningService service.DunningService,
) api.Handlers {
	return api.Handlers{
		Health:             v1.NewHealthHandler(logger),
		Proration:          v1.NewProrationHandler(prorationService, logger),
		UsageThreshold:     v1.NewUsageThresholdHandler(usageThresholdService, logger),
		Dunning:            v1.NewDunningHandler(dunningService, logger),
		CronDunning:        cron.NewDunningHandler(dunningService, sentryService, logger),
		CronUsageThreshold: cron.NewUsageThresholdHandler(usageThresholdService, sentryService, logger),
	}
}

func provideRouter(handlers api.Handlers, cfg *config.Configuration, logger *logger.Logger, sentryService *sentry.Service) *gin.Engine {
	if cfg.Deployment.Mode != types.ModeLocal {
		gin.SetMode(gin.ReleaseMode)
	}
	return api.NewRouter(handlers, cfg, logger, sentryService)
}

// registerCloseHooks releases connections once the server has stopped
func registerCloseHooks(
	lc fx.Lifecycle,
	db *postgres.DB,
	store *clickhouse.ClickHouseStore,
	ps pubsub.PubSub,
	log *logger.Logger,
) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing pubsub and database connections")
			if err := ps.Close(); err != nil {
				log.Errorw("failed to close pubsub", "error", err)
			}
			if err := store.Close(); err != nil {
				log.Errorw("failed to close clickhouse", "error", err)
			}
			db.Close()
			return nil
		},
	})
}

func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	r *gin.Engine,
	log *logger.Logger,
) {
	mode := cfg.Deployment.Mode
	if mode == "" {
		mode = types.ModeLocal
	}

	switch mode {
	case types.ModeLocal, types.ModeAPI:
		startAPIServer(lc, r, cfg, log)
	case types.ModeAWSLambdaAPI:
		startAWSLambdaAPI(r)
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
	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: r,
	}

	log.Info("Registering API server start hook")
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Infow("Starting API server...", "address", cfg.Server.Address)
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down server...")
			return srv.Shutdown(ctx)
		},
	})
}

func startAWSLambdaAPI(r *gin.Engine) {
	ginLambda := ginadapter.New(r)
	lambda.Start(ginLambda.ProxyWithContext)
}
