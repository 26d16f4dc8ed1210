package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/hospital-booking-core/internal/adapters/cache"
	"github.com/zatekoja/hospital-booking-core/internal/adapters/database"
	"github.com/zatekoja/hospital-booking-core/internal/adapters/events"
	"github.com/zatekoja/hospital-booking-core/internal/adapters/payments"
	"github.com/zatekoja/hospital-booking-core/internal/api/handlers"
	"github.com/zatekoja/hospital-booking-core/internal/api/routes"
	"github.com/zatekoja/hospital-booking-core/internal/application/services"
	"github.com/zatekoja/hospital-booking-core/internal/domain/providers"
	"github.com/zatekoja/hospital-booking-core/internal/infrastructure/clients/postgres"
	"github.com/zatekoja/hospital-booking-core/internal/infrastructure/clients/redis"
	"github.com/zatekoja/hospital-booking-core/internal/infrastructure/observability"
	"github.com/zatekoja/hospital-booking-core/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Server.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			log.Warn().Err(err).Msg("failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					log.Error().Err(err).Msg("error shutting down OpenTelemetry")
				}
			}()
			log.Info().Msg("OpenTelemetry initialized")
		}
	}

	metrics, err := observability.InitMetrics()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	// Initialize Redis client
	// Continue without Redis if unavailable; slot listings are then
	// computed on every request and booking events are not published.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		log.Warn().Err(err).Msg("failed to initialize Redis client, continuing without cache")
		redisClient = nil
	} else {
		defer redisClient.Close()
		log.Info().Msg("Redis client initialized")
	}

	// Initialize adapters
	appointmentAdapter := database.NewAppointmentAdapter(pgClient)
	paymentAdapter := database.NewPaymentAdapter(pgClient)

	var cacheProvider providers.CacheProvider
	var eventBus providers.EventBus
	if redisClient != nil {
		cacheProvider = cache.NewRedisAdapter(redisClient)
		eventBus = events.NewRedisEventBus(redisClient)
		log.Info().Msg("event bus initialized")
	}

	processorRegistry := payments.NewDefaultRegistry(cfg.Payments.CardDeclineRate)

	// Initialize services
	notificationDB := sqlx.NewDb(pgClient.DB(), "postgres")
	notificationService := services.NewNotificationService(notificationDB, eventBus)

	slotService := services.NewSlotService(appointmentAdapter, cacheProvider, cfg.Payments.SlotCacheTTL)
	bookingService := services.NewBookingService(
		appointmentAdapter,
		paymentAdapter,
		slotService,
		processorRegistry,
		notificationService,
		metrics,
		cfg.Payments.Currency,
		cfg.Payments.SettlementTimeout,
	)
	refundService := services.NewRefundService(
		paymentAdapter,
		appointmentAdapter,
		notificationService,
		cfg.Payments.RefundDelay,
	)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(bookingService)
	slotHandler := handlers.NewSlotHandler(slotService)
	refundHandler := handlers.NewRefundHandler(refundService)

	// Set up router
	router := routes.NewRouter(bookingHandler, slotHandler, refundHandler, metrics)
	handler := router.SetupRoutes()

	server := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("server shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	if eventBus != nil {
		if err := eventBus.Close(); err != nil {
			log.Error().Err(err).Msg("error closing event bus")
		}
	}

	log.Info().Msg("server stopped")
}
