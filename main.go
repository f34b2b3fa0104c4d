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

	"github.com/prohmpiriya/webinar-service/internal/di"
	"github.com/prohmpiriya/webinar-service/internal/service"
	"github.com/prohmpiriya/webinar-service/migrations"
	"github.com/prohmpiriya/webinar-service/pkg/config"
	"github.com/prohmpiriya/webinar-service/pkg/database"
	"github.com/prohmpiriya/webinar-service/pkg/logger"
	"github.com/prohmpiriya/webinar-service/pkg/middleware"
	pkgredis "github.com/prohmpiriya/webinar-service/pkg/redis"
	"github.com/prohmpiriya/webinar-service/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(&logger.Config{
		Level:       cfg.App.LogLevel,
		ServiceName: cfg.App.Name,
		Development: cfg.IsDevelopment(),
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	appLog := logger.Get()

	ctx := context.Background()

	// Initialize OpenTelemetry
	if _, err := telemetry.Init(ctx, &telemetry.Config{
		Enabled:        cfg.OTel.Enabled,
		ServiceName:    cfg.OTel.ServiceName,
		ServiceVersion: cfg.App.Version,
		Environment:    cfg.App.Environment,
		CollectorAddr:  cfg.OTel.CollectorAddr,
		SampleRatio:    cfg.OTel.SampleRatio,
	}); err != nil {
		appLog.Warn(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	} else if cfg.OTel.Enabled {
		appLog.Info(fmt.Sprintf("Telemetry exporting to %s", cfg.OTel.CollectorAddr))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = telemetry.Shutdown(shutdownCtx)
	}()

	// Initialize database
	var db *database.PostgresDB
	if cfg.Database.Enabled {
		dbCfg := &database.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.DBName,
			SSLMode:         cfg.Database.SSLMode,
			ApplicationName: cfg.App.Name,
			MaxConns:        int32(cfg.Database.MaxOpenConns),
			MinConns:        int32(cfg.Database.MinIdleConns),
			MaxConnLifetime: cfg.Database.ConnMaxLifetime,
			MaxConnIdleTime: cfg.Database.ConnMaxIdleTime,
			ConnectTimeout:  5 * time.Second,
			MaxRetries:      3,
			RetryInterval:   time.Second,
			EnableTracing:   cfg.OTel.Enabled,
		}
		db, err = database.NewPostgres(ctx, dbCfg)
		if err != nil {
			appLog.Fatal(fmt.Sprintf("Database connection failed: %v", err))
		}
		defer db.Close()
		appLog.Info(fmt.Sprintf("Database connected (pool: min=%d, max=%d)", dbCfg.MinConns, dbCfg.MaxConns))

		if cfg.Database.AutoMigrate {
			applied, err := migrations.Apply(ctx, db.Pool())
			if err != nil {
				appLog.Fatal(fmt.Sprintf("Migrations failed: %v", err))
			}
			appLog.Info(fmt.Sprintf("Migrations applied: %d", len(applied)))
		}
	} else {
		appLog.Warn("Database disabled, webinars are kept in memory")
	}

	// Initialize Redis
	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled {
		redisCfg := &pkgredis.Config{
			Host:          cfg.Redis.Host,
			Port:          cfg.Redis.Port,
			Password:      cfg.Redis.Password,
			DB:            cfg.Redis.DB,
			PoolSize:      cfg.Redis.PoolSize,
			MinIdleConns:  cfg.Redis.MinIdleConns,
			DialTimeout:   cfg.Redis.DialTimeout,
			ReadTimeout:   cfg.Redis.ReadTimeout,
			WriteTimeout:  cfg.Redis.WriteTimeout,
			MaxRetries:    3,
			RetryInterval: 100 * time.Millisecond,
		}
		redisClient, err = pkgredis.NewClient(ctx, redisCfg)
		if err != nil {
			appLog.Warn(fmt.Sprintf("Redis connection failed, running without cache: %v", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLog.Info(fmt.Sprintf("Redis connected (pool: %d)", redisCfg.PoolSize))
		}
	}

	// Initialize Kafka event publisher
	var eventPublisher service.EventPublisher = service.NewNoOpEventPublisher()
	if cfg.Kafka.Enabled {
		kafkaPublisher, err := service.NewKafkaEventPublisher(ctx, &service.EventPublisherConfig{
			Brokers:        cfg.Kafka.Brokers,
			Topic:          cfg.Webinar.SeatsChangedTopic,
			ServiceName:    cfg.App.Name,
			ClientID:       cfg.Kafka.ClientID,
			PublishTimeout: cfg.Kafka.PublishTimeout,
		})
		if err != nil {
			appLog.Warn(fmt.Sprintf("Kafka connection failed, using no-op publisher: %v", err))
		} else {
			eventPublisher = kafkaPublisher
			appLog.Info("Kafka event publisher connected")
		}
	}

	// Build dependency injection container
	container := di.NewContainer(&di.ContainerConfig{
		DB:             db,
		Redis:          redisClient,
		EventPublisher: eventPublisher,
		CacheTTL:       cfg.Webinar.CacheTTL,
		ServiceConfig: &service.WebinarServiceConfig{
			MaxAttempts:  cfg.Webinar.UpdateMaxAttempts,
			RetryBackoff: cfg.Webinar.UpdateRetryBackoff,
		},
	})
	defer container.Close()

	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	publicPaths := []string{"/health", "/ready", "/metrics"}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(telemetry.TracingMiddleware(cfg.App.Name, publicPaths...))
	router.Use(middleware.Logger(appLog, publicPaths...))

	// Health check endpoints
	router.GET("/health", container.HealthHandler.Health)
	router.GET("/ready", container.HealthHandler.Ready)

	// Pool statistics for monitoring
	router.GET("/metrics", func(c *gin.Context) {
		if db == nil {
			c.JSON(http.StatusOK, gin.H{"db_pool": nil})
			return
		}
		stats := db.Stats()
		c.JSON(http.StatusOK, gin.H{
			"db_pool": gin.H{
				"total_conns":    stats.TotalConns(),
				"acquired_conns": stats.AcquiredConns(),
				"idle_conns":     stats.IdleConns(),
				"max_conns":      stats.MaxConns(),
			},
		})
	})

	webinars := router.Group("/webinars")
	webinars.Use(middleware.JWTMiddleware(&middleware.JWTConfig{
		Secret:          cfg.JWT.Secret,
		Issuer:          cfg.JWT.Issuer,
		TrustUserHeader: cfg.JWT.TrustUserHeader,
	}))
	{
		seatsHandlers := []gin.HandlerFunc{container.WebinarHandler.ChangeSeats}
		if redisClient != nil {
			seatsHandlers = append([]gin.HandlerFunc{
				middleware.IdempotencyMiddleware(middleware.DefaultIdempotencyConfig(redisClient)),
			}, seatsHandlers...)
		}
		webinars.PATCH("/:id/seats", seatsHandlers...)
		webinars.GET("/:id", container.WebinarHandler.GetByID)
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		appLog.Info(fmt.Sprintf("Webinar Service listening on %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal(fmt.Sprintf("Failed to start server: %v", err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error(fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	appLog.Info("Server exited gracefully")
}
