package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	_ "github.com/joho/godotenv/autoload"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rkco/fuel-ledger/docs" // Swagger docs
	"github.com/rkco/fuel-ledger/internal/config"
	"github.com/rkco/fuel-ledger/internal/database"
	"github.com/rkco/fuel-ledger/internal/handlers"
	"github.com/rkco/fuel-ledger/internal/jobs"
	"github.com/rkco/fuel-ledger/internal/middleware"
	"github.com/rkco/fuel-ledger/internal/models"
	"github.com/rkco/fuel-ledger/internal/repository"
	"github.com/rkco/fuel-ledger/internal/services"
	"github.com/rkco/fuel-ledger/internal/storage"
	"github.com/rkco/fuel-ledger/pkg/logger"

	"github.com/gin-gonic/gin"
)

// @title Fuel Ledger API
// @version 1.0
// @description Purchase, sale and payment ledger for a fuel trading business

// @host localhost:8080
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Setup(cfg.Environment)

	// Initialize Sentry when DSN is configured
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			TracesSampleRate: 0.2,
			Environment:      cfg.Environment,
		}); err != nil {
			logger.Error("Sentry initialization failed", "error", err)
		} else {
			logger.Info("Sentry initialized")
		}
	}

	if cfg.ResendAPIKey == "" || cfg.AlertEmail == "" {
		logger.Warn("Email alerts disabled: RESEND_API_KEY or ALERT_EMAIL not set")
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to migrate database", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to database")

	// Initialize storage
	store, err := storage.NewLocalStorage(cfg.StoragePath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}

	repos := repository.NewRepositories(db)

	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	svcs := services.NewServices(repos, worker, store, cfg)

	if cfg.AdminEmail != "" && cfg.AdminPassword != "" {
		if _, _, err := svcs.User.EnsureAdmin(context.Background(), "", cfg.AdminEmail, cfg.AdminPassword); err != nil {
			logger.Error("Failed to bootstrap admin", "error", err)
		}
	}

	scheduleJobs(worker, svcs, cfg)

	h := handlers.NewHandlers(svcs)
	router := setupRouter(h, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Failed to start server", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Drains pending alerts and audit writes
	worker.Shutdown()
	logger.Info("Background worker stopped")

	if cfg.SentryDSN != "" {
		sentry.Flush(5 * time.Second)
	}

	logger.Info("Server exited gracefully")
}

func setupRouter(h *handlers.Handlers, cfg *config.Config) *gin.Engine {
	router := gin.New()

	// Global middleware
	if cfg.SentryDSN != "" {
		router.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/api/v1")
	{
		// Public
		v1.GET("/health", h.Health.Index)

		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
			auth.POST("/logout", h.Auth.Logout)
		}

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTSecret))
		{
			protected.GET("/auth/me", h.Auth.Me)

			ledger := protected.Group("/ledger")
			{
				read := middleware.RequirePermission(models.PermLedgerRead)
				ledger.GET("/balance", read, h.Ledger.Balance)
				ledger.GET("/customers", read, h.Ledger.Customers)
				ledger.GET("/customers/:name", read, h.Ledger.Customer)
				ledger.GET("/suppliers", read, h.Ledger.Suppliers)
				ledger.GET("/suppliers/:name", read, h.Ledger.Supplier)

				ledger.GET("/purchases", read, h.Ledger.Purchases)
				ledger.GET("/purchases/:id/attachment", read, h.Ledger.PurchaseAttachment)
				ledger.POST("/purchases", middleware.RequirePermission(models.PermPurchasesCreate), h.Ledger.CreatePurchase)
				ledger.PATCH("/purchases/:id/payment", middleware.RequirePermission(models.PermPaymentsUpdate), h.Ledger.UpdatePurchasePayment)

				ledger.GET("/sales", read, h.Ledger.Sales)
				ledger.GET("/sales/:id/attachment", read, h.Ledger.SaleAttachment)
				ledger.POST("/sales", middleware.RequirePermission(models.PermSalesCreate), h.Ledger.CreateSale)
				ledger.PATCH("/sales/:id/payment", middleware.RequirePermission(models.PermPaymentsUpdate), h.Ledger.UpdateSalePayment)
			}

			payments := protected.Group("/payments")
			{
				payments.POST("/customers/:name", middleware.RequirePermission(models.PermPaymentsUpdate), h.Payment.PayCustomer)
				payments.POST("/suppliers/:name", middleware.RequirePermission(models.PermPaymentsUpdate), h.Payment.PaySupplier)
				payments.GET("", middleware.RequirePermission(models.PermLedgerRead), h.Payment.Index)
				payments.GET("/:id", middleware.RequirePermission(models.PermLedgerRead), h.Payment.Show)
			}

			// Party directories; whoever records a sale or purchase can
			// register its party. Search is registered before any :param route.
			parties := []struct {
				path   string
				create string
				h      *handlers.PartyHandler
			}{
				{"/customers", models.PermSalesCreate, h.Customer},
				{"/suppliers", models.PermPurchasesCreate, h.Supplier},
			}
			for _, p := range parties {
				group := protected.Group(p.path)
				group.GET("", middleware.RequirePermission(models.PermLedgerRead), p.h.Index)
				group.GET("/search", middleware.RequirePermission(models.PermLedgerRead), p.h.Search)
				group.POST("", middleware.RequirePermission(p.create), p.h.Create)
			}

			products := protected.Group("/products")
			{
				products.GET("", middleware.RequirePermission(models.PermProductsRead), h.Product.Index)
				products.POST("", middleware.RequirePermission(models.PermProductsCreate), h.Product.Create)
			}

			reports := protected.Group("/reports")
			reports.Use(middleware.RequirePermission(models.PermLedgerRead))
			{
				reports.GET("/customers/:name/pdf", h.Report.CustomerPDF)
				reports.GET("/customers/:name/xlsx", h.Report.CustomerXLSX)
				reports.GET("/suppliers/:name/pdf", h.Report.SupplierPDF)
				reports.GET("/suppliers/:name/xlsx", h.Report.SupplierXLSX)
				reports.GET("/balance_sheet_pdf", h.Report.BalanceSheetPDF)
			}

			// Static route first so "read_all" is not matched as :id
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", h.Notification.Index)
				notifications.POST("/read_all", h.Notification.MarkAllAsRead)
				notifications.PATCH("/:id/read", h.Notification.MarkAsRead)
			}

			protected.GET("/users", middleware.RequirePermission(models.PermUsersRead), h.User.Index)
			protected.GET("/users/:id", middleware.RequirePermission(models.PermUsersRead), h.User.Show)

			admin := protected.Group("")
			admin.Use(middleware.RequireAdmin())
			{
				admin.POST("/users", h.User.Create)
				admin.PATCH("/users/:id/toggle", h.User.ToggleStatus)
				admin.GET("/audits", h.Audit.Index)
				admin.GET("/jobs/status", h.Job.Status)
				admin.GET("/reconciliation", h.Job.Reconciliation)
			}
		}
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	interval := time.Duration(cfg.ReconcileIntervalMinutes) * time.Minute
	worker.ScheduleEveryImmediate("reconcile", interval, svcs.Reconciliation.ScanAndAlert)

	// Expired refresh tokens
	worker.ScheduleEvery("purge_refresh_tokens", 24*time.Hour, svcs.Auth.PurgeExpiredTokens)

	logger.Info("Scheduled recurring jobs", "reconcile_every", interval.String())
}
