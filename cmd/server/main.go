package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	eventapp "github.com/retail/backend/internal/application/event"
	inventoryapp "github.com/retail/backend/internal/application/inventory"
	tradeapp "github.com/retail/backend/internal/application/trade"
	"github.com/retail/backend/internal/domain/inventory"
	"github.com/retail/backend/internal/domain/shared"
	"github.com/retail/backend/internal/infrastructure/auth"
	"github.com/retail/backend/internal/infrastructure/cache"
	"github.com/retail/backend/internal/infrastructure/config"
	"github.com/retail/backend/internal/infrastructure/event"
	"github.com/retail/backend/internal/infrastructure/logger"
	"github.com/retail/backend/internal/infrastructure/persistence"
	"github.com/retail/backend/internal/infrastructure/telemetry"
	"github.com/retail/backend/internal/interfaces/http/handler"
	"github.com/retail/backend/internal/interfaces/http/middleware"
	"github.com/retail/backend/internal/interfaces/http/router"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

//	@title			Inventory Ledger API
//	@version		1.0
//	@description	Branch stock ledger with weighted average cost and customer return reconciliation

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	baseLog, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry comes first so the bridged logger and the global providers
	// are in place before anything else is built.
	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		Insecure:          cfg.Telemetry.Insecure,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    cfg.App.Version,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		MetricsInterval:   cfg.Telemetry.MetricsInterval,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
	}, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	log := providers.BridgeLogger(baseLog)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting inventory ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("central_branch", cfg.Inventory.CentralBranchCode),
	)

	// Database with a zap-backed GORM logger
	var gormOpts []logger.GormLoggerOption
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		gormOpts = append(gormOpts, logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	}
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), gormOpts...)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = cfg.Telemetry.DBLogFullSQL
	if cfg.Telemetry.DBSlowQueryThresh > 0 {
		dbTracing.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
	}
	if err := telemetry.RegisterDBTracing(db.DB, dbTracing, log); err != nil {
		log.Warn("Database tracing unavailable", zap.Error(err))
	}

	// Metrics
	stockMetrics, err := telemetry.NewStockMetrics(otel.Meter("inventory"), log)
	if err != nil {
		log.Warn("Stock metrics unavailable", zap.Error(err))
	}

	// Repositories
	inventoryRepo := persistence.NewGormInventoryRecordRepository(db.DB)
	movementRepo := persistence.NewGormStockMovementRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	returnRepo := persistence.NewGormReturnRepository(db.DB)
	auditRepo := persistence.NewGormAuditLogRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	engine := inventoryapp.NewStockEngine(stockMetrics)
	classifier := inventory.NewBranchClassifier(cfg.Inventory.CentralBranchCode)
	inventoryService := inventoryapp.NewInventoryService(
		txScope, inventoryRepo, movementRepo, branchRepo, productRepo, engine, classifier, log,
	)
	returnService := tradeapp.NewReturnService(txScope, returnRepo, engine, log)
	returnService.SetTransitionRecorder(stockMetrics)
	auditService := eventapp.NewAuditService(auditRepo)

	// Event bus: the audit trail is written once per event ID
	eventBus := event.NewInMemoryEventBus(log)
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cfg.Event,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	).CreateStore(ctx)
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()
	eventBus.Subscribe(event.NewIdempotentHandler(
		eventapp.NewAuditTrailHandler(auditRepo, log),
		idempotencyStore,
		shared.IdempotencyConfig{Enabled: cfg.Event.IdempotencyEnabled, TTL: cfg.Event.IdempotencyTTL},
		log,
	))
	eventBus.Subscribe(inventoryapp.NewLowStockAlertHandler(
		inventoryRepo, productRepo, inventoryapp.NewLoggingStockAlertNotifier(log), log,
	))
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	inventoryService.SetEventPublisher(eventBus)
	returnService.SetEventPublisher(eventBus)

	stockMetrics.StartLowStockCollection(ctx, inventoryService.CountLowStock, cfg.Inventory.LowStockInterval)
	defer stockMetrics.Stop()

	// HTTP handlers
	systemHandler := handler.NewSystemHandler(cfg.App.Name, cfg.App.Version).
		AddCheck("database", func(context.Context) error { return db.Ping() })
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	returnHandler := handler.NewReturnHandler(returnService)
	auditHandler := handler.NewAuditHandler(auditService)

	if cfg.App.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	httpEngine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := httpEngine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order matters: the request id must exist before the span
	// and the log line that carry it.
	httpEngine.Use(middleware.RequestID())
	httpEngine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.TracingEnabled(),
	}))
	httpEngine.Use(middleware.SpanErrorMarker())
	httpEngine.Use(logger.Recovery(log))
	httpEngine.Use(logger.GinMiddleware(log))
	httpEngine.Use(middleware.HTTPMetrics(otel.Meter("http.server"), log))
	httpEngine.Use(middleware.Secure())
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSOrigins
	httpEngine.Use(middleware.CORSWithConfig(corsConfig))
	httpEngine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Probes stay outside the authenticated API
	httpEngine.GET("/health", systemHandler.Health)
	httpEngine.GET("/ready", systemHandler.Ready)

	jwtService := auth.NewJWTService(cfg.JWT)
	r := router.NewRouter(httpEngine, router.WithAPIVersion("v1"))
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			Logger:     log,
		}),
		middleware.TracingAttributeInjector(),
	)
	r.Register(router.InventoryRoutes(inventoryHandler)).
		Register(router.ReturnRoutes(returnHandler)).
		Register(router.AuditRoutes(auditHandler)).
		Register(router.SystemRoutes(systemHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        httpEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Error("Telemetry shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
