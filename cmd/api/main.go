package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inventory-tracker/internal/cache"
	"inventory-tracker/internal/config"
	"inventory-tracker/internal/events"
	"inventory-tracker/internal/handlers"
	"inventory-tracker/internal/metrics"
	"inventory-tracker/internal/repository"
	"inventory-tracker/internal/service"
	"inventory-tracker/pkg/logger"
	"inventory-tracker/pkg/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "inventory-tracker/docs" // Import docs for Swagger
)

// @title           Inventory Tracker API
// @version         1.0
// @description     Items, sales and stock levels backed by SQLite. Sales never take stock below zero.

// @host      localhost:5000
// @BasePath  /api/v1

// @schemes   http

// Request ID Header
// @description Mutating endpoints accept an X-Request-ID header. Repeating a request with the same ID returns the stored response instead of applying the change twice; a repeat that arrives while the first is still running gets 409.
func main() {
	cfg := config.Load()

	appLogger, err := logger.New(cfg.Environment)
	if err != nil {
		panic(err)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting Inventory Tracker",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port),
		zap.String("sqlite_path", cfg.SQLitePath),
	)

	store, err := repository.NewSQLiteStore(cfg.SQLitePath, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	err = store.Initialize(initCtx)
	cancelInit()
	if err != nil {
		appLogger.Fatal("Failed to initialize store", zap.Error(err))
	}

	publisher := newPublisher(cfg, appLogger)
	defer publisher.Close()

	var cacheClient cache.Cache
	if cfg.UseCache {
		appLogger.Info("Cache Configuration",
			zap.String("redis_host", cfg.RedisHost),
			zap.String("redis_port", cfg.RedisPort),
			zap.Int("cache_ttl", cfg.CacheTTL),
		)
		cacheClient = cache.NewCache(cfg, appLogger)
		defer cacheClient.Close()
	} else {
		appLogger.Info("Cache disabled (USE_CACHE=false)")
	}

	// Replayed responses live next to the read cache when there is one
	var requestIDStore middleware.RequestIDStore
	if cacheClient != nil {
		requestIDStore = cache.ResponseStore{Cache: cacheClient}
	} else {
		memoryStore := middleware.NewInMemoryRequestIDStore()
		defer memoryStore.Close()
		requestIDStore = memoryStore
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	inventoryService := service.NewInventoryService(store, appLogger,
		service.WithPublisher(publisher),
		service.WithMetrics(appMetrics),
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// CORS must run first to answer preflight requests
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RecoveryHandler(appLogger))
	router.Use(middleware.RequestIDMiddleware(appLogger))
	router.Use(logger.GinMiddleware(appLogger))
	router.Use(appMetrics.GinMiddleware())
	router.Use(middleware.ErrorHandler(appLogger))

	templates, err := handlers.Templates()
	if err != nil {
		appLogger.Fatal("Failed to parse templates", zap.Error(err))
	}
	router.SetHTMLTemplate(templates)

	// One invalidation counter for both handlers, so a mutation through either
	// one keeps a slow read in the other from caching stale data
	var readCache cache.Cache
	if cacheClient != nil {
		readCache = cache.NewVersioned(cacheClient)
	}
	cacheTTL := cache.TTL(cfg.CacheTTL)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService, readCache, cacheTTL, appLogger)
	pagesHandler := handlers.NewPagesHandler(inventoryService, readCache, cacheTTL, appLogger)

	idempotency := middleware.IdempotencyMiddleware(requestIDStore, appLogger, cfg.IdempotencyWindow())

	v1 := router.Group("/api/v1")
	v1.Use(idempotency)
	inventoryHandler.Register(v1)

	legacy := router.Group("/api")
	legacy.Use(idempotency)
	inventoryHandler.RegisterLegacy(legacy)

	pagesHandler.Register(router)

	router.GET("/metrics", metrics.Handler(registry))
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		appLogger.Info("Starting HTTP server",
			zap.String("address", ":"+cfg.Port),
			zap.String("swagger_url", "http://localhost:"+cfg.Port+"/swagger/index.html"),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown", zap.Error(err))
	}

	appLogger.Info("Server exited")
}

// newPublisher returns a Kafka publisher when enabled, falling back to the
// in-memory publisher if the brokers cannot be reached.
func newPublisher(cfg *config.Config, log *zap.Logger) events.Publisher {
	if !cfg.UseKafka {
		log.Info("Kafka disabled (USE_KAFKA=false), events stay in memory")
		return events.NewInMemoryPublisher(log)
	}

	log.Info("Kafka Configuration",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic_items", cfg.KafkaTopicItems),
		zap.String("topic_sales", cfg.KafkaTopicSales),
		zap.String("acks", cfg.KafkaAcks),
	)
	publisher, err := events.NewKafkaPublisher(cfg, log)
	if err != nil {
		log.Warn("Failed to create Kafka publisher, falling back to in-memory", zap.Error(err))
		return events.NewInMemoryPublisher(log)
	}
	return publisher
}
