package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pricedrop/notifier/internal/bus"
	"github.com/pricedrop/notifier/internal/cache"
	"github.com/pricedrop/notifier/internal/config"
	"github.com/pricedrop/notifier/internal/database"
	"github.com/pricedrop/notifier/internal/handler"
	"github.com/pricedrop/notifier/internal/mailer"
	"github.com/pricedrop/notifier/internal/middleware"
	"github.com/pricedrop/notifier/internal/repository"
	"github.com/pricedrop/notifier/internal/service"
	"github.com/pricedrop/notifier/internal/worker"
	"github.com/pricedrop/notifier/pkg/scraperapi"
)

// main is the application entrypoint for the price drop notifier.
func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Setup logger
	setupLogger(cfg.Env)
	log.Info().Str("env", cfg.Env).Msg("starting price drop notifier")

	// 3. Connect database
	db, err := database.Connect(&cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		fmt.Fprintf(os.Stderr, "database connection failed: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3a. Run migrations
	if err := runMigrations(db.DB); err != nil {
		log.Error().Err(err).Msg("migration failed")
		fmt.Fprintf(os.Stderr, "migration failed: %v\n", err)
		os.Exit(1)
	}
	log.Info().Msg("migrations completed successfully")

	// 3b. Connect to Redis
	redisClient, err := cache.NewRedisClient(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("redis connection failed")
		fmt.Fprintf(os.Stderr, "redis connection failed: %v\n", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected successfully")

	// 4. Initialize clients
	fetcher := scraperapi.NewClient(cfg.Scraper.APIKey)

	publisher := bus.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	defer publisher.Close()

	consumer := bus.NewKafkaConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.GroupID)
	defer consumer.Close()

	sender, err := mailer.NewSESSender(context.Background(), cfg.Email.AWSRegion, cfg.Email.Sender)
	if err != nil {
		log.Error().Err(err).Msg("ses sender initialization failed")
		fmt.Fprintf(os.Stderr, "ses sender initialization failed: %v\n", err)
		os.Exit(1)
	}

	// 5. Initialize repositories
	productRepo := repository.NewProductRepository(db)
	subRepo := repository.NewSubscriptionRepository(db)

	// 6. Initialize services
	scanLock := cache.NewScanLock(redisClient, cfg.Scan.CycleBudget)
	subscribeSvc := service.NewSubscribeService(productRepo, subRepo, fetcher, sender, cfg.PublicBaseURL)
	scanSvc := service.NewScanService(productRepo, fetcher, publisher, scanLock, cfg.Scan.CycleBudget, cfg.Scan.FetchConcurrency)
	dispatchSvc := service.NewDispatchService(subRepo, sender, cfg.PublicBaseURL, cfg.Email.SendTimeout, cfg.Email.MaxAttempts)
	unsubscribeSvc := service.NewUnsubscribeService(productRepo, subRepo)

	// 7. Initialize handlers
	handlers := &Handlers{
		Health:      handler.NewHealthHandler(db),
		Subscribe:   handler.NewSubscribeHandler(subscribeSvc),
		Unsubscribe: handler.NewUnsubscribeHandler(unsubscribeSvc),
	}

	// 8. Initialize middleware
	subscribeLimiter := middleware.NewSubscribeRateLimiter(5, time.Minute)

	// 9. Setup router
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.LoggingMiddleware())
	setupRoutes(router, handlers, subscribeLimiter)

	// 10. Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 11. Start workers
	go worker.NewScanWorker(scanSvc, cfg.Scan.Interval).Start(ctx)
	go worker.NewDispatchWorker(consumer, dispatchSvc).Start(ctx)

	// 12. Start HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// 13. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// 14. Cancel context to stop workers
	cancel()

	// 15. Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

// Handlers groups all HTTP handlers used by the server.
type Handlers struct {
	Health      *handler.HealthHandler
	Subscribe   *handler.SubscribeHandler
	Unsubscribe *handler.UnsubscribeHandler
}

// setupRoutes registers all routes.
func setupRoutes(router *gin.Engine, handlers *Handlers, subscribeLimiter *middleware.SubscribeRateLimiter) {
	router.GET("/v1/health", handlers.Health.GetHealth)

	router.POST("/subscribe", subscribeLimiter.Middleware(), handlers.Subscribe.Subscribe)
	router.GET("/unsubscribe", handlers.Unsubscribe.Unsubscribe)
}

// runMigrations runs database migrations using golang-migrate.
func runMigrations(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres", driver)
	if err != nil {
		return fmt.Errorf("could not create migration instance: %w", err)
	}

	// Run migrations
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

func setupLogger(env string) {
	if env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
}
