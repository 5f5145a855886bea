package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"unit-telemetry-backend/config"
	"unit-telemetry-backend/internal/api"
	"unit-telemetry-backend/internal/db"
	"unit-telemetry-backend/internal/metrics"
	"unit-telemetry-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "telemetryd ", log.LstdFlags)

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded, database: %s", cfg.Database.Redacted())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Open the pool and provision the schema
	gormDB, err := db.Init(ctx, &cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	defer db.Close(gormDB)
	logger.Println("database initialized successfully")

	if cfg.Seed.ShouldLoad() {
		if _, err := db.LoadSeedData(ctx, gormDB); err != nil {
			logger.Fatalf("failed to load seed data: %v", err)
		}
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		logger.Fatalf("failed to access connection pool: %v", err)
	}
	collector := metrics.NewCollector(sqlDB.Stats)
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collector,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	appStore := store.NewGormStore(gormDB, store.Options{
		MaxConcurrent:  cfg.Database.MaxOpenConns,
		AcquireTimeout: cfg.Database.AcquireTimeout,
		Observer:       collector,
	})
	logger.Println("data store initialized")

	router := api.NewRouter(appStore, api.RouterOptions{
		APIPrefix: cfg.Server.APIPrefix,
		RateLimit: rate.Limit(cfg.Server.RateLimitPerSec),
		RateBurst: cfg.Server.RateLimitBurst,
		Retry:     store.DefaultRetryPolicy,
		Requests:  collector,
		Metrics:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Println("Shutdown signal received, stopping server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Printf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}
