package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"booking-platform/internal/booking"
	"booking-platform/internal/cache"
	"booking-platform/internal/config"
	"booking-platform/internal/gateway"
	"booking-platform/internal/handlers"
	"booking-platform/internal/inventory"
	"booking-platform/internal/kafka"
	"booking-platform/internal/logger"
	"booking-platform/internal/middleware"
	"booking-platform/internal/migration"
	"booking-platform/internal/payments"
	"booking-platform/internal/pipeline"
	"booking-platform/internal/storage"
	"booking-platform/internal/voucher"
)

// Global logger instance
var log *logger.Logger

func main() {
	migrateFlag := flag.Bool("migrate", false, "Run schema migration and exit")
	migrationFile := flag.String("migration-file", "migrate.sql", "Path to the migration file")
	flag.Parse()

	log = logger.NewLogger()
	defer log.Close()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Warn("ENV", "Error loading .env file, using environment variables")
	}

	cfg := config.Load()
	log.Info("CONFIG", "Configuration loaded successfully")

	if *migrateFlag {
		log.LogProcess("MIGRATION", "Running schema migration from "+*migrationFile)
		if err := migration.Run(cfg, *migrationFile); err != nil {
			log.Fatal("MIGRATION", "Migration failed: "+err.Error())
		}
		log.Info("MIGRATION", "Migration completed successfully")
		return
	}

	log.LogProcess("STARTUP", "Booking platform starting up...")

	log.LogProcess("DATABASE", "Initializing MySQL database...")
	store, err := storage.NewMySQLStore(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", "Failed to initialize MySQL: "+err.Error())
	}
	defer store.Close()
	log.LogDatabase("INIT", "mysql", "MySQL storage initialized successfully")

	log.LogProcess("KAFKA", "Initializing Kafka producer...")
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.MockMode, log)
	if err != nil {
		log.Fatal("KAFKA", "Failed to create Kafka producer: "+err.Error())
	}
	defer producer.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	resultCache := cache.NewRedis(redisClient)
	log.LogProcess("CACHE", "Redis result cache initialized")

	gw, err := buildGateway(cfg)
	if err != nil {
		log.Fatal("GATEWAY", "Failed to initialize payment gateway: "+err.Error())
	}
	log.LogProcess("GATEWAY", "Payment gateway provider: "+cfg.Gateway.Provider)

	// Engines and services
	inventoryEngine := inventory.NewEngine(store, log)
	voucherEngine := voucher.NewEngine(store, log)
	paymentService := payments.NewService(store, gw, producer, log, cfg.Gateway.Timeout)
	orchestrator := booking.NewOrchestrator(store, inventoryEngine, voucherEngine, paymentService, producer, resultCache, log)

	// A settled payment confirms its booking exactly once.
	paymentService.SetConfirmHook(orchestrator.ConfirmBooking)

	// Request pipeline: caching outermost, then validation, then logging.
	validation := pipeline.NewValidationBehavior()
	validation.Register(booking.CreateCommand{}.Name(), booking.CreateRules(store)...)
	validation.Register(payments.InitiateCommand{}.Name(), payments.InitiateRules()...)
	validation.Register(payments.RefundCommand{}.Name(), payments.RefundRules()...)

	pipe := pipeline.New(log,
		pipeline.NewCachingBehavior(resultCache, log),
		validation,
		pipeline.NewLoggingBehavior(log),
	)
	log.LogProcess("PIPELINE", "Request pipeline configured")

	// Audit trail consumer
	if !cfg.Kafka.MockMode {
		auditConsumer, err := kafka.NewAuditConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, store, log)
		if err != nil {
			log.Fatal("KAFKA", "Failed to create audit consumer: "+err.Error())
		}
		defer auditConsumer.Close()

		go func() {
			log.LogKafka("START", "consumer", "Starting audit consumer goroutine")
			if err := auditConsumer.Consume(context.Background()); err != nil && err != context.Canceled {
				log.Error("KAFKA", "Audit consumer error: "+err.Error())
			}
		}()
	}

	bookingHandler := handlers.NewBookingHandler(orchestrator, pipe, log)
	paymentHandler := handlers.NewPaymentHandler(paymentService, orchestrator, pipe, log)
	voucherHandler := handlers.NewVoucherHandler(voucherEngine, pipe, log)
	healthHandler := handlers.NewHealthHandler(store)
	log.LogProcess("HANDLER", "All handlers initialized")

	router := setupRouter(bookingHandler, paymentHandler, voucherHandler, healthHandler)
	log.LogProcess("ROUTER", "HTTP router configured")

	srv := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.LogProcess("SERVER", "Starting HTTP server on port "+cfg.Server.Port)
		log.Info("STARTUP", "Booking platform is ready to accept requests")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", "Server failed to start: "+err.Error())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Warn("SHUTDOWN", "Received shutdown signal, initiating graceful shutdown...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("SHUTDOWN", "Server forced to shutdown: "+err.Error())
	}

	log.Info("SHUTDOWN", "Booking platform shutdown completed successfully")
}

func buildGateway(cfg *config.Config) (gateway.PaymentGateway, error) {
	switch cfg.Gateway.Provider {
	case "stripe":
		return gateway.NewStripeGateway(cfg.Gateway.StripeKey, cfg.Gateway.WebhookSecret, log)
	default:
		return gateway.NewLocalGateway(cfg.Gateway.WebhookSecret, log), nil
	}
}

func setupRouter(
	bookingHandler *handlers.BookingHandler,
	paymentHandler *handlers.PaymentHandler,
	voucherHandler *handlers.VoucherHandler,
	healthHandler *handlers.HealthHandler,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(middleware.EnhancedLogger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS())
	router.Use(middleware.SecurityHeaders(log))
	router.Use(middleware.RateLimit(log))

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		bookings := v1.Group("/bookings")
		{
			bookings.POST("", bookingHandler.CreateBooking)
			bookings.GET("/:id", bookingHandler.GetBooking)
			bookings.POST("/:id/cancel", bookingHandler.CancelBooking)
		}

		paymentsGroup := v1.Group("/payments")
		{
			paymentsGroup.POST("/initiate", paymentHandler.InitiatePayment)
			paymentsGroup.GET("/:id", paymentHandler.GetPayment)
			paymentsGroup.POST("/refund", paymentHandler.RefundPayment)
			paymentsGroup.POST("/webhook", paymentHandler.Webhook)
		}

		vouchers := v1.Group("/vouchers")
		{
			vouchers.GET("/preview", voucherHandler.Preview)
		}
	}

	log.LogProcess("ROUTER", "All routes registered successfully")
	return router
}
