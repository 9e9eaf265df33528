// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/farmlink-backend/internal/checkout"
	"github.com/javajoker/farmlink-backend/internal/config"
	"github.com/javajoker/farmlink-backend/internal/database"
	"github.com/javajoker/farmlink-backend/internal/events"
	"github.com/javajoker/farmlink-backend/internal/i18n"
	"github.com/javajoker/farmlink-backend/internal/router"
	"github.com/javajoker/farmlink-backend/internal/services"
	"github.com/javajoker/farmlink-backend/internal/utils"
	"github.com/javajoker/farmlink-backend/internal/worker"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if cfg.Environment != "production" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}
	logrus.SetFormatter(logger.Formatter)
	logrus.SetLevel(logger.GetLevel())

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer database.Close(db)

	// Run database migrations
	if err := database.RunMigrations(db); err != nil {
		logger.WithError(err).Fatal("Failed to run migrations")
	}
	if cfg.Environment == "development" {
		if err := database.SeedInitialData(db); err != nil {
			logger.WithError(err).Warn("Failed to seed initial data")
		}
	}

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.LocalesPath, cfg.I18n.DefaultLocale); err != nil {
		logger.WithError(err).Fatal("Failed to initialize i18n")
	}

	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Payment lock
	var guard services.PaymentGuard
	if cfg.RedisEnabled() {
		redisGuard, err := services.NewRedisPaymentGuard(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB,
			time.Duration(cfg.Redis.PaymentLockTTL)*time.Second)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisGuard.Close()
		guard = redisGuard
	} else {
		logger.Warn("Redis not configured, payment locks are local to this instance")
		guard = services.NewMemoryPaymentGuard(time.Duration(cfg.Redis.PaymentLockTTL) * time.Second)
	}

	// Event stream
	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
	}
	defer publisher.Close()

	// Card processing
	var provider services.PaymentProvider
	if cfg.Payment.StripeSecretKey != "" {
		provider = services.NewStripeProvider(cfg.Payment.StripeSecretKey, logger)
	} else {
		logger.Warn("Stripe not configured, card payments are simulated")
		provider = services.NewSimulatedProvider(logger)
	}

	storageService, err := services.NewStorageService(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize storage")
	}

	// Initialize services
	notificationService := services.NewNotificationService(db, cfg, logger)
	pricingService := services.NewPricingService(db, cfg)
	creditService := services.NewCreditService(db, cfg)
	productService := services.NewProductService(db)
	transactionService := services.NewTransactionService(db, cfg, services.TransactionDeps{
		Guard:     guard,
		Provider:  provider,
		Publisher: publisher,
		Notifier:  notificationService,
		Pricing:   pricingService,
		Logger:    logger,
	})
	verificationService := services.NewVerificationService(db, publisher, notificationService, storageService, logger)
	gateway := services.NewStoreGateway(transactionService, pricingService, creditService, storageService, verificationService)
	checkoutService := services.NewCheckoutService(productService, gateway,
		checkout.NewRegistry(cfg.Checkout.FlowTTL), cfg, publisher, logger)

	svc := &router.Services{
		Auth:          services.NewAuthService(db, cfg, logger),
		Products:      productService,
		Storage:       storageService,
		Checkout:      checkoutService,
		Transactions:  transactionService,
		Pricing:       pricingService,
		Credit:        creditService,
		Verifications: verificationService,
		Admin:         services.NewAdminService(db, transactionService, logger),
	}

	// Background work
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	go checkoutService.Run(ctx)
	if cfg.Reconciler.Enabled {
		reconciler := worker.NewReconciler(transactionService, cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger)
		go reconciler.Start(ctx)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := router.Initialize(db, cfg, svc, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		logger.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
