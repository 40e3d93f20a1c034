package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditapp "github.com/budget/backend/internal/application/audit"
	budgetapp "github.com/budget/backend/internal/application/budget"
	crapp "github.com/budget/backend/internal/application/changerequest"
	notificationapp "github.com/budget/backend/internal/application/notification"
	"github.com/budget/backend/internal/infrastructure/auth"
	"github.com/budget/backend/internal/infrastructure/config"
	"github.com/budget/backend/internal/infrastructure/event"
	"github.com/budget/backend/internal/infrastructure/logger"
	"github.com/budget/backend/internal/infrastructure/persistence"
	"github.com/budget/backend/internal/interfaces/http/handler"
	"github.com/budget/backend/internal/interfaces/http/middleware"
	"github.com/budget/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
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

	log.Info("Starting Budget Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize database connection. Audit capture callbacks are registered
	// on the connection inside NewDatabase.
	db, err := persistence.NewDatabase(&cfg.Database, cfg.Audit, log)
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
	lineItemRepo := persistence.NewGormBudgetLineItemRepository(db.DB)
	agreementRepo := persistence.NewGormAgreementRepository(db.DB)
	changeRequestRepo := persistence.NewGormChangeRequestRepository(db.DB)
	divisionRepo := persistence.NewGormDivisionRepository(db.DB)
	auditRecordRepo := persistence.NewGormAuditRecordRepository(db.DB)
	notificationRepo := persistence.NewGormNotificationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Transaction scope gives services transactional repository access with
	// audit snapshot tracking attached
	txScope := persistence.NewGormTransactionScope(db)

	// Initialize application services
	lineItemService := budgetapp.NewBudgetLineItemService(txScope, lineItemRepo)
	agreementService := budgetapp.NewAgreementService(txScope, agreementRepo)
	reviewService := crapp.NewReviewService(txScope, changeRequestRepo)
	auditQueryService := auditapp.NewQueryService(auditRecordRepo)
	notificationService := notificationapp.NewService(notificationRepo)

	// Identity
	jwtService := auth.NewJWTService(cfg.JWT)

	// Initialize event bus and register the notification emitter so change
	// request lifecycle events turn into user notifications
	eventBus := event.NewInMemoryEventBus(log)
	notificationEmitter := notificationapp.NewEmitter(notificationRepo, divisionRepo, cfg.Audit.NotificationExpiry)
	eventBus.Subscribe(notificationEmitter)
	log.Info("Event handlers registered",
		zap.Strings("notification_events", notificationEmitter.EventTypes()),
	)

	// Inject event bus into services that publish events
	lineItemService.SetEventPublisher(eventBus)
	agreementService.SetEventPublisher(eventBus)
	reviewService.SetEventPublisher(eventBus)

	// Initialize HTTP handlers
	lineItemHandler := handler.NewBudgetLineItemHandler(lineItemService)
	agreementHandler := handler.NewAgreementHandler(agreementService)
	changeRequestHandler := handler.NewChangeRequestHandler(reviewService)
	auditHandler := handler.NewAuditHandler(auditQueryService)
	notificationHandler := handler.NewNotificationHandler(notificationService)
	userHandler := handler.NewUserHandler(userRepo)
	systemHandler := handler.NewSystemHandler()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Every API route requires authentication. The middleware also stamps the
	// authenticated user into the request context so the audit layer can
	// attribute records.
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Budget domain (agreements, budget line items)
	budgetRoutes := router.NewDomainGroup("budget", "/budget")
	budgetRoutes.GET("/agreements", agreementHandler.List)
	budgetRoutes.GET("/agreements/:id", agreementHandler.GetByID)
	budgetRoutes.PATCH("/agreements/:id", agreementHandler.Update)
	budgetRoutes.GET("/line-items", lineItemHandler.List)
	budgetRoutes.GET("/line-items/:id", lineItemHandler.GetByID)
	budgetRoutes.PATCH("/line-items/:id", lineItemHandler.Update)

	// Change request domain
	changeRequestRoutes := router.NewDomainGroup("change-requests", "/change-requests")
	changeRequestRoutes.GET("", changeRequestHandler.List)
	changeRequestRoutes.GET("/:id", changeRequestHandler.GetByID)
	changeRequestRoutes.PATCH("", changeRequestHandler.Review)

	// Audit history
	auditRoutes := router.NewDomainGroup("audit", "/audit")
	auditRoutes.GET("/records", auditHandler.List)

	// Notifications
	notificationRoutes := router.NewDomainGroup("notifications", "/notifications")
	notificationRoutes.GET("", notificationHandler.List)
	notificationRoutes.PATCH("/:id/read", notificationHandler.MarkRead)

	// Users
	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.GET("/me", userHandler.GetMe)
	userRoutes.GET("/:id", userHandler.GetByID)

	// System
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r.Register(budgetRoutes).
		Register(changeRequestRoutes).
		Register(auditRoutes).
		Register(notificationRoutes).
		Register(userRoutes).
		Register(systemRoutes)

	r.Setup()

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
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
