package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/learnloop/payments/internal/config"
	"github.com/learnloop/payments/internal/enrollment"
	"github.com/learnloop/payments/internal/handler"
	"github.com/learnloop/payments/internal/middleware"
	"github.com/learnloop/payments/internal/notifier"
	"github.com/learnloop/payments/internal/proofstore"
	"github.com/learnloop/payments/internal/repository"
	"github.com/learnloop/payments/internal/service"
	"github.com/learnloop/payments/internal/validator"
	"github.com/learnloop/payments/pkg/database"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Payments Service",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())
	app.Use(middleware.Metrics())

	// Initialize validator
	validate := validator.New()

	// Repositories
	promoRepo := repository.NewPromoRepository(pool)
	paymentRepo := repository.NewPaymentRepository(pool)
	historyRepo := repository.NewHistoryRepository(pool)
	refundRepo := repository.NewRefundRepository(pool)
	catalogRepo := repository.NewCatalogRepository(pool)
	methodRepo := repository.NewMethodRepository(pool)

	// Outbound collaborators. Each falls back to a no-op when unconfigured
	// so a bare local setup still boots.
	var enroller service.Enroller = enrollment.Nop{}
	if cfg.Enrollment.BaseURL != "" {
		enroller = enrollment.NewClient(cfg.Enrollment.BaseURL)
	}

	var notify service.Notifier = notifier.Nop{}
	var redisNotifier *notifier.RedisNotifier
	if cfg.Redis.Addr != "" {
		redisNotifier = notifier.NewRedisNotifier(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		notify = redisNotifier
	}

	var proofSigner handler.ProofSigner
	if cfg.Proofs.Bucket != "" {
		store, err := proofstore.New(proofstore.Config{
			AccessKey: cfg.Proofs.AccessKey,
			SecretKey: cfg.Proofs.SecretKey,
			Bucket:    cfg.Proofs.Bucket,
			Region:    cfg.Proofs.Region,
			Endpoint:  cfg.Proofs.Endpoint,
			URLExpiry: cfg.Proofs.URLExpiry,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize proof store")
		}
		proofSigner = store
	}

	// Services (layered architecture)
	promoService := service.NewPromoService(promoRepo)
	paymentService := service.NewPaymentService(pool, paymentRepo, historyRepo, promoRepo,
		methodRepo, catalogRepo, promoService, enroller, notify)
	refundService := service.NewRefundService(refundRepo, paymentRepo)
	bundleService := service.NewBundleService(pool, catalogRepo)
	methodService := service.NewMethodService(methodRepo)

	// Handlers
	promoHandler := handler.NewPromoHandler(promoService, validate)
	paymentHandler := handler.NewPaymentHandler(paymentService, proofSigner, validate)
	adminPaymentHandler := handler.NewAdminPaymentHandler(paymentService, validate)
	refundHandler := handler.NewRefundHandler(refundService, validate)
	bundleHandler := handler.NewBundleHandler(bundleService, validate)
	methodHandler := handler.NewMethodHandler(methodService, validate)
	healthHandler := handler.NewHealthHandler(pool)

	// Ops routes (no auth)
	app.Get("/health", healthHandler.Check)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Learner routes
	auth := middleware.Auth(cfg.Auth.JWTSecret)
	api := app.Group("/api", auth)
	api.Post("/payments", paymentHandler.Submit)
	api.Get("/payments", paymentHandler.List)
	api.Get("/payments/:id", paymentHandler.Get)
	api.Post("/payments/:id/cancel", paymentHandler.Cancel)
	api.Post("/payments/proof-url", paymentHandler.ProofURL)
	api.Post("/promo-codes/validate", promoHandler.Validate)
	api.Post("/refunds", refundHandler.Create)
	api.Get("/bundles/:id", bundleHandler.Get)
	api.Get("/payment-methods", methodHandler.List)

	// Admin routes
	admin := app.Group("/api/admin", auth, middleware.RequireAdmin())
	admin.Post("/promo-codes", promoHandler.Create)
	admin.Get("/promo-codes", promoHandler.List)
	admin.Get("/promo-codes/:code", promoHandler.Get)
	admin.Delete("/promo-codes/:code", promoHandler.Deactivate)
	admin.Get("/payments", adminPaymentHandler.Queue)
	admin.Get("/payments/:id/history", adminPaymentHandler.History)
	admin.Post("/payments/:id/approve", adminPaymentHandler.Approve)
	admin.Post("/payments/:id/reject", adminPaymentHandler.Reject)
	admin.Post("/refunds/:id/decide", refundHandler.Decide)
	admin.Post("/bundles", bundleHandler.Create)
	admin.Put("/payment-methods/:provider", methodHandler.Upsert)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close outbound connections AFTER server shutdown
	if redisNotifier != nil {
		if err := redisNotifier.Close(); err != nil {
			log.Error().Err(err).Msg("error closing notifier")
		}
	}
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
