package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/opsdesk/backend/internal/application/billing"
	ledgerapp "github.com/opsdesk/backend/internal/application/ledger"
	numberingapp "github.com/opsdesk/backend/internal/application/numbering"
	"github.com/opsdesk/backend/internal/infrastructure/auth"
	"github.com/opsdesk/backend/internal/infrastructure/cache"
	"github.com/opsdesk/backend/internal/infrastructure/config"
	"github.com/opsdesk/backend/internal/infrastructure/logger"
	"github.com/opsdesk/backend/internal/infrastructure/persistence"
	"github.com/opsdesk/backend/internal/infrastructure/telemetry"
	"github.com/opsdesk/backend/internal/interfaces/http/handler"
	"github.com/opsdesk/backend/internal/interfaces/http/middleware"
	"github.com/opsdesk/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

const (
	maxBodyBytes      = 4 << 20
	rateLimitRequests = 300
	rateLimitWindow   = time.Minute
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
		_ = logger.Sync(log)
	}()

	log.Info("Starting OpsDesk Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection
	gormLogger := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLogger)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if cfg.Telemetry.DBTraceEnabled {
		if err := db.EnableTracing(); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Initialize OpenTelemetry metrics
	meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(ctx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DefaultDBMetricsConfig(), log)
	if err != nil {
		log.Warn("Failed to register database metrics", zap.Error(err))
	} else {
		dbMetrics.StartPoolStatsCollection(context.Background())
		defer dbMetrics.Stop()
	}

	// Initialize repositories
	counterRepo := persistence.NewGormCounterRepository(db.DB)
	purchaseOrderRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	ledgerRepo := persistence.NewGormLedgerRepository(db.DB)
	legacyRepo := persistence.NewGormLegacyRepository(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	// Idempotency store for conversion replay protection
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Idempotency, cfg.Redis).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Initialize application services
	counterService := numberingapp.NewCounterService(counterRepo)
	purchaseOrderService := billingapp.NewPurchaseOrderService(purchaseOrderRepo, counterService, uow)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, counterService, uow)
	conversionService := billingapp.NewConversionService(
		purchaseOrderRepo, invoiceRepo, counterService, uow, idempotencyStore, log)
	ledgerService := ledgerapp.NewLedgerService(ledgerRepo, log)
	migrationService := ledgerapp.NewMigrationService(ledgerRepo, legacyRepo, uow, log)

	jwtService := auth.NewJWTService(cfg.JWT)

	// Business metrics with periodic unreconciled-entry collection
	businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
		Meter:          meterProvider.Meter("opsdesk.business"),
		Logger:         log,
		LedgerProvider: telemetry.NewGormLedgerMetricsProvider(db.DB),
	})
	if err != nil {
		log.Warn("Failed to initialize business metrics", zap.Error(err))
	} else {
		businessMetrics.StartPeriodicCollection(
			context.Background(), telemetry.NewGormTenantProvider(db.DB), 5*time.Minute)
		defer businessMetrics.Stop()
	}

	// Initialize HTTP handlers
	counterHandler := handler.NewCounterHandler(counterService)
	purchaseOrderHandler := handler.NewPurchaseOrderHandler(purchaseOrderService, conversionService)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService, migrationService)
	systemHandler := handler.NewSystemHandler()

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
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting
	// 8. HTTPMetrics - Record request metrics
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(maxBodyBytes))
	engine.Use(middleware.RateLimit(middleware.NewRateLimiter(rateLimitRequests, rateLimitWindow)))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.App.Name,
		Enabled:       cfg.Telemetry.Enabled,
	}))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// JWT authentication on all API routes; system endpoints stay public
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))
	r.Use(middleware.TenantMiddleware())

	// Document numbering (per-tenant counters)
	counterRoutes := router.NewDomainGroup("numbering", "/counters")
	counterRoutes.GET("/:kind", counterHandler.GetConfig)
	counterRoutes.PUT("/:kind", counterHandler.UpdateConfig)
	counterRoutes.GET("/:kind/preview", counterHandler.Preview)
	counterRoutes.POST("/:kind/set", middleware.RequireAdmin(), counterHandler.SetCounter)
	counterRoutes.POST("/:kind/reset", middleware.RequireAdmin(), counterHandler.ResetCounter)

	// Billing documents (purchase orders and invoices)
	billingRoutes := router.NewDomainGroup("billing", "/billing")

	billingRoutes.POST("/purchase-orders", purchaseOrderHandler.Create)
	billingRoutes.GET("/purchase-orders", purchaseOrderHandler.List)
	billingRoutes.GET("/purchase-orders/number/:number", purchaseOrderHandler.GetByNumber)
	billingRoutes.GET("/purchase-orders/:id", purchaseOrderHandler.GetByID)
	billingRoutes.PUT("/purchase-orders/:id", purchaseOrderHandler.Update)
	billingRoutes.POST("/purchase-orders/:id/items", purchaseOrderHandler.AddItem)
	billingRoutes.PUT("/purchase-orders/:id/items/:itemId", purchaseOrderHandler.UpdateItem)
	billingRoutes.DELETE("/purchase-orders/:id/items/:itemId", purchaseOrderHandler.RemoveItem)
	billingRoutes.POST("/purchase-orders/:id/cancel", purchaseOrderHandler.Cancel)
	billingRoutes.POST("/purchase-orders/:id/convert", purchaseOrderHandler.Convert)

	billingRoutes.POST("/invoices", invoiceHandler.Create)
	billingRoutes.GET("/invoices", invoiceHandler.List)
	billingRoutes.GET("/invoices/number/:number", invoiceHandler.GetByNumber)
	billingRoutes.GET("/invoices/:id", invoiceHandler.GetByID)
	billingRoutes.PUT("/invoices/:id", invoiceHandler.Update)
	billingRoutes.POST("/invoices/:id/items", invoiceHandler.AddItem)
	billingRoutes.PUT("/invoices/:id/items/:itemId", invoiceHandler.UpdateItem)
	billingRoutes.DELETE("/invoices/:id/items/:itemId", invoiceHandler.RemoveItem)
	billingRoutes.POST("/invoices/:id/send", invoiceHandler.Send)
	billingRoutes.POST("/invoices/:id/pay", invoiceHandler.MarkPaid)
	billingRoutes.POST("/invoices/:id/cancel", invoiceHandler.Cancel)

	// Financial ledger and legacy migration
	ledgerRoutes := router.NewDomainGroup("ledger", "/ledger")
	ledgerRoutes.POST("/entries", ledgerHandler.Record)
	ledgerRoutes.GET("/entries", ledgerHandler.List)
	ledgerRoutes.GET("/entries/:ledgerId", ledgerHandler.Get)
	ledgerRoutes.GET("/summary", ledgerHandler.Summary)
	ledgerRoutes.POST("/migration/run", middleware.RequireAdmin(), ledgerHandler.RunMigration)
	ledgerRoutes.GET("/migration/verify", middleware.RequireAdmin(), ledgerHandler.VerifyMigration)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(counterRoutes).
		Register(billingRoutes).
		Register(ledgerRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

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

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
