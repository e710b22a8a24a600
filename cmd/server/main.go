package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	billingapp "github.com/facturio/backend/internal/application/billing"
	"github.com/facturio/backend/internal/infrastructure/config"
	"github.com/facturio/backend/internal/infrastructure/logger"
	"github.com/facturio/backend/internal/infrastructure/notification"
	"github.com/facturio/backend/internal/infrastructure/payment"
	"github.com/facturio/backend/internal/infrastructure/persistence"
	"github.com/facturio/backend/internal/infrastructure/scheduler"
	"github.com/facturio/backend/internal/interfaces/http/handler"
	"github.com/facturio/backend/internal/interfaces/http/middleware"
	"github.com/facturio/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting Facturio backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with a GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	log.Info("Database connected and migrated")

	// Repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	quoteRepo := persistence.NewGormQuoteRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	orgRepo := persistence.NewGormOrganizationRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)

	// Dispatch dependencies
	pdfClient := notification.NewPDFServiceClient(cfg.Dispatch)
	emailClient := notification.NewEmailServiceClient(cfg.Dispatch)
	stripeProvider := payment.NewStripeCheckoutProvider(cfg.Stripe, log)

	// Application services
	txScope := persistence.NewGormTransactionScope(db.DB)
	lineResolver := billingapp.NewLineResolver(productRepo, log)
	invoiceService := billingapp.NewInvoiceService(invoiceRepo, lineResolver, txScope, log)
	quoteService := billingapp.NewQuoteService(quoteRepo, lineResolver, txScope, log)
	paymentService := billingapp.NewPaymentService(invoiceRepo, log)
	dispatchService := billingapp.NewDispatchService(
		invoiceRepo, quoteRepo, customerRepo, userRepo, orgRepo,
		pdfClient, emailClient, stripeProvider, log,
	)
	sweeperService := billingapp.NewSweeperService(invoiceRepo, quoteRepo, log)

	// HTTP engine
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(middleware.CORSFromConfig(cfg.HTTP))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	// Routes
	r := router.NewRouter(engine,
		router.WithAPIVersion("v1"),
		router.WithGroupMiddleware(middleware.OrganizationContext()),
	)
	r.RegisterPublic(handler.NewSystemHandler(db, version))
	r.Register(handler.NewInvoiceHandler(invoiceService, paymentService, dispatchService))
	r.Register(handler.NewQuoteHandler(quoteService, dispatchService))
	r.Setup()

	// Background sweep for overdue invoices and expired quotes
	sweepScheduler := scheduler.NewSweepScheduler(sweeperService, log, cfg.Scheduler)
	if err := sweepScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sweep scheduler", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

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

	if err := sweepScheduler.Stop(ctx); err != nil {
		log.Error("Sweep scheduler did not stop cleanly", zap.Error(err))
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
