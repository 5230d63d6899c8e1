package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appintegration "github.com/modaretail/backend/internal/application/integration"
	appsync "github.com/modaretail/backend/internal/application/sync"
	"github.com/modaretail/backend/internal/infrastructure/adapters"
	"github.com/modaretail/backend/internal/infrastructure/config"
	"github.com/modaretail/backend/internal/infrastructure/logger"
	"github.com/modaretail/backend/internal/infrastructure/persistence"
	"github.com/modaretail/backend/internal/infrastructure/runlock"
	"github.com/modaretail/backend/internal/infrastructure/scheduler"
	"github.com/modaretail/backend/internal/infrastructure/storage"
	"github.com/modaretail/backend/internal/interfaces/http/handler"
	"github.com/modaretail/backend/internal/interfaces/http/middleware"
	"github.com/modaretail/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Moda Sync",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize repositories
	integrationRepo := persistence.NewGormIntegrationRepository(db.DB)
	syncLogRepo := persistence.NewGormSyncLogRepository(db.DB)
	mappingRepo := persistence.NewGormSKUMappingRepository(db.DB)
	variantRepo := persistence.NewGormVariantRepository(db.DB)

	// Object storage backs the file-based adapters and the upload archive.
	// When disabled, file sources are unavailable and uploads stay in memory.
	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		s3Store, err := storage.NewS3Storage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		store = s3Store
		log.Info("Object storage enabled",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region),
		)
	}

	// Payload queues feed the upload and webhook adapters
	uploads := adapters.NewPayloadQueue()
	webhooks := adapters.NewPayloadQueue()
	webhookAdapter := adapters.NewWebhookAdapter(webhooks, log)

	registry := adapters.NewRegistry(adapters.Dependencies{
		Store:       store,
		Uploads:     uploads,
		Webhooks:    webhooks,
		HTTPTimeout: cfg.Sync.AdapterTimeout,
		Logger:      log,
	})
	registry.Register(webhookAdapter)

	// Run lock serializes sync runs per integration across instances
	runLock := runlock.NewFromConfig(&cfg.Redis, log)

	// Initialize sync services
	resolver := appsync.NewResolver(mappingRepo, variantRepo, log)
	reconciler := appsync.NewReconciler(variantRepo, log)
	orchestrator := appsync.NewOrchestrator(
		integrationRepo,
		syncLogRepo,
		registry,
		resolver,
		reconciler,
		runLock,
		appsync.Config{
			AdapterTimeout: cfg.Sync.AdapterTimeout,
			RunTimeout:     cfg.Sync.RunTimeout,
			LockTTL:        cfg.Sync.LockTTL,
		},
		log,
	)
	connectionTester := appsync.NewConnectionTester(integrationRepo, registry, cfg.Sync.AdapterTimeout, log)

	// Initialize application services
	var archive appintegration.FeedArchive
	if store != nil {
		archive = store
	}
	integrationService := appintegration.NewIntegrationService(integrationRepo, syncLogRepo, uploads, archive, log)
	mappingService := appintegration.NewMappingService(mappingRepo, integrationRepo, variantRepo, resolver, log)

	// Start the sync scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		syncScheduler, err := scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
			Enabled:         cfg.Scheduler.Enabled,
			RefreshInterval: cfg.Scheduler.RefreshInterval,
		}, integrationRepo, orchestrator, log)
		if err != nil {
			log.Fatal("Failed to create sync scheduler", zap.Error(err))
		}
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		defer func() {
			if err := syncScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sync scheduler", zap.Error(err))
			}
		}()
		log.Info("Sync scheduler started",
			zap.Duration("refresh_interval", cfg.Scheduler.RefreshInterval),
		)
	}

	// Initialize HTTP handlers
	integrationHandler := handler.NewIntegrationHandler(integrationService, orchestrator, connectionTester)
	mappingHandler := handler.NewMappingHandler(mappingService)
	webhookHandler := handler.NewWebhookHandler(integrationRepo, webhookAdapter, orchestrator)
	healthHandler := handler.NewHealthHandler(db)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. CORS - Handle cross-origin requests
	// 5. BodyLimit - Limit request body size (bounds feed uploads)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.HTTP.CORSAllowOrigins,
		AllowMethods: cfg.HTTP.CORSAllowMethods,
		AllowHeaders: cfg.HTTP.CORSAllowHeaders,
		MaxAge:       12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Setup API routes
	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(integrationHandler).
		Register(mappingHandler).
		Register(webhookHandler).
		RegisterRoot(healthHandler).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
