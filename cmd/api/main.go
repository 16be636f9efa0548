package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/coursework/storefront/docs"
	"github.com/coursework/storefront/internal/auth"
	"github.com/coursework/storefront/internal/config"
	"github.com/coursework/storefront/internal/database"
	"github.com/coursework/storefront/internal/events"
	"github.com/coursework/storefront/internal/handlers"
	"github.com/coursework/storefront/internal/logger"
	"github.com/coursework/storefront/internal/repositories"
	"github.com/coursework/storefront/internal/server"
	"github.com/coursework/storefront/internal/services"
	"github.com/coursework/storefront/internal/tasks"
	"github.com/coursework/storefront/migrations"
	"github.com/coursework/storefront/web"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

// eventPublisher is an order event sink that must be released on shutdown
type eventPublisher interface {
	services.EventPublisher
	Close()
}

// @title Storefront API
// @version 1.0
// @description REST API for the storefront: users, products and orders.

// @host localhost:5000
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Storefront API", zap.String("env", cfg.Env))

	// Bind the listener before connecting to the database
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Server.Port))
	if err != nil {
		logger.Logger.Fatal("Failed to bind port", zap.Int("port", cfg.Server.Port), zap.Error(err))
	}

	// Connect to database
	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db, migrations.FS); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Redis is used by asynq and reported by the health check
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Logger.Warn("Redis is not reachable, background e-mails will not be enqueued", zap.Error(err))
	}

	// Create Asynq client
	asynqClient := asynq.NewClient(redisOpt)
	defer asynqClient.Close()

	publisher := newEventPublisher(cfg)
	defer publisher.Close()

	// Initialize JWT token generator
	tokenGenerator := auth.NewTokenGenerator(
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	userTokenRepo := repositories.NewUserTokenRepository(db)
	productRepo := repositories.NewProductRepository(db, logger.Logger)
	orderRepo := repositories.NewOrderRepository(db, logger.Logger)

	// Initialize services
	enqueuer := tasks.NewEnqueuer(asynqClient, logger.Logger)
	authService := services.NewAuthService(userRepo, userTokenRepo, tokenGenerator, enqueuer, logger.Logger)
	userService := services.NewUserService(userRepo, logger.Logger)
	productService := services.NewProductService(productRepo, logger.Logger)
	orderService := services.NewOrderService(orderRepo, userRepo, enqueuer, publisher, logger.Logger)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(authService, userService, tokenGenerator, handlers.CookieConfig{
		Secure:             cfg.IsProduction(),
		AccessTokenExpiry:  cfg.JWT.AccessTokenExpiry,
		RefreshTokenExpiry: cfg.JWT.RefreshTokenExpiry,
	}, logger.Logger)
	productHandler := handlers.NewProductHandler(productService, tokenGenerator, logger.Logger)
	orderHandler := handlers.NewOrderHandler(orderService, tokenGenerator, logger.Logger)
	healthHandler := handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"database": db.PingContext,
		"redis": func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
	}, logger.Logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db, cfg.Database.DBName),
	)

	// Setup router
	router, err := server.NewRouter(server.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Static: server.StaticConfig{
			PublicDir:        cfg.Static.PublicDir,
			Production:       cfg.IsProduction(),
			FrontendDistDir:  cfg.Static.FrontendDistDir,
			EmbeddedFrontend: web.Dist(),
		},
		Registry: registry,
	}, server.Routes{
		Users:    userHandler,
		Products: productHandler,
		Orders:   orderHandler,
		Health:   healthHandler.Health,
	}, logger.Logger)
	if err != nil {
		logger.Logger.Fatal("Failed to build router", zap.Error(err))
	}

	// Start server
	srv := &http.Server{
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Fatal("Server failed", zap.Error(err))
		}
	}()
	logger.Logger.Info(fmt.Sprintf("Server started at http://localhost:%d", cfg.Server.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// newEventPublisher connects to RabbitMQ when configured and falls back to dropping events
func newEventPublisher(cfg *config.Config) eventPublisher {
	if cfg.RabbitMQ.URL == "" {
		logger.Logger.Info("RABBITMQ_URL is not set, order events are disabled")
		return events.NoopPublisher{}
	}

	pool, err := events.NewChannelPool(cfg.RabbitMQ.URL, cfg.RabbitMQ.OrderQueue, 5, logger.Logger)
	if err != nil {
		logger.Logger.Warn("Failed to connect to RabbitMQ, order events are disabled", zap.Error(err))
		return events.NoopPublisher{}
	}
	return events.NewPublisher(pool, cfg.RabbitMQ.OrderQueue, logger.Logger)
}

