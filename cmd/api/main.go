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

	"github.com/grupoterrena/terrena-api/internal/config"
	"github.com/grupoterrena/terrena-api/internal/database"
	"github.com/grupoterrena/terrena-api/internal/handlers"
	"github.com/grupoterrena/terrena-api/internal/jobs"
	"github.com/grupoterrena/terrena-api/internal/middleware"
	"github.com/grupoterrena/terrena-api/internal/repository"
	"github.com/grupoterrena/terrena-api/internal/services"
	"github.com/grupoterrena/terrena-api/pkg/logger"

	"github.com/gin-gonic/gin"
)

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
	logger.Info("Connected to database")

	if err := database.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := repository.NewRepositories(db)

	// Initialize background worker
	worker := jobs.NewWorker(cfg.WorkerCount)
	logger.Info("Started background worker", "goroutines", cfg.WorkerCount)

	// Initialize services
	svcs := services.NewServices(repos, worker, db)

	// Schedule recurring jobs
	scheduleJobs(worker, svcs, cfg)

	// Initialize handlers
	h := handlers.NewHandlers(svcs)

	// Setup router
	router := setupRouter(h, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
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

	// Shutdown background worker
	worker.Shutdown()
	logger.Info("Background worker stopped")

	// Flush Sentry events before exit
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

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check
		v1.GET("/health", h.Health.Index)

		// Sales lifecycle
		sales := v1.Group("/sales")
		{
			sales.GET("", h.Sale.Index)
			sales.POST("", h.Sale.Create)
			sales.GET("/stats", h.Sale.GetStats)
			sales.GET("/:sale_id", h.Sale.Show)
			sales.POST("/:sale_id/confirm_full", h.Sale.ConfirmFull)
			sales.POST("/:sale_id/confirm_advance", h.Sale.ConfirmAdvance)
			sales.POST("/:sale_id/payments", h.Sale.RecordPayment)
			sales.POST("/:sale_id/cancel", h.Sale.Cancel)
			sales.GET("/:sale_id/installments", h.Sale.Installments)
			sales.GET("/:sale_id/payments", h.Sale.Payments)
			sales.GET("/:sale_id/statement_pdf", h.Sale.StatementPDF)
			sales.GET("/:sale_id/schedule_xlsx", h.Sale.ScheduleXLSX)
		}

		// Unit catalog
		units := v1.Group("/units")
		{
			units.GET("", h.Unit.Index)
			units.POST("", h.Unit.Create)
			units.GET("/:unit_id", h.Unit.Show)
			units.PUT("/:unit_id", h.Unit.Update)
			units.GET("/:unit_id/active_sale", h.Unit.ActiveSale)
		}

		// Clients
		clients := v1.Group("/clients")
		{
			clients.GET("", h.Client.Index)
			clients.POST("", h.Client.Create)
			clients.GET("/:client_id", h.Client.Show)
			clients.PUT("/:client_id", h.Client.Update)
			clients.GET("/:client_id/sales", h.Client.Sales)
		}

		// Payment ledger
		v1.GET("/payments", h.Payment.Index)
		v1.GET("/payments/overdue", h.Payment.Overdue)

		// Reports
		v1.GET("/reports/overdue_csv", h.Report.OverdueCSV)
		v1.GET("/reports/sales_csv", h.Report.SalesCSV)

		// Audits
		v1.GET("/audits", h.Audit.Index)

		// Background jobs
		v1.GET("/jobs/status", h.Job.Status)
		v1.POST("/jobs/release_expired", h.Job.TriggerDeadlineRelease)
		v1.POST("/jobs/sync_late", h.Job.TriggerLateSync)
	}

	return router
}

func scheduleJobs(worker *jobs.Worker, svcs *services.Services, cfg *config.Config) {
	// Release sales still awaiting payment past their deadline
	releaseInterval := time.Duration(cfg.ReleaseIntervalMinutes) * time.Minute
	worker.ScheduleEvery(releaseInterval, func(ctx context.Context) error {
		logger.Info("[Job] Releasing expired sales...")
		released, err := svcs.Sale.ReleaseExpiredSales(ctx, time.Now())
		if err != nil {
			return err
		}
		if released > 0 {
			logger.Info("[Job] Released expired sales", "count", released)
		}
		return nil
	})

	// Flag overdue installments as late for display, once at startup then daily
	worker.ScheduleEveryImmediate(24*time.Hour, func(ctx context.Context) error {
		logger.Info("[Job] Syncing late installment statuses...")
		flagged, err := svcs.Sale.SyncLateInstallments(ctx, time.Now())
		if err != nil {
			return err
		}
		if flagged > 0 {
			logger.Info("[Job] Flagged late installments", "count", flagged)
		}
		return nil
	})

	logger.Info("Scheduled recurring jobs")
}
