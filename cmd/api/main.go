package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mzurek/cardsmith/internal/analytics"
	"github.com/mzurek/cardsmith/internal/cache"
	"github.com/mzurek/cardsmith/internal/config"
	"github.com/mzurek/cardsmith/internal/database"
	"github.com/mzurek/cardsmith/internal/generation"
	"github.com/mzurek/cardsmith/internal/logging"
	"github.com/mzurek/cardsmith/internal/metrics"
	"github.com/mzurek/cardsmith/internal/quota"
	"github.com/mzurek/cardsmith/internal/tracing"
)

func main() {
	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	// Tracing
	if cfg.Tracing.Enabled {
		_, closer, err := tracing.InitTracer("cardsmith-api", cfg.Tracing.JaegerEndpoint)
		if err != nil {
			logger.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer closer.Close()
	}

	// Database
	db, err := database.New(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	repo := database.NewRepository(db)

	// Redis cache for quota counts
	redisCache, err := cache.NewCache(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisCache.Close()

	// AI generation client fails fast on missing credentials
	generator, err := generation.NewClient(generation.Config{
		APIKey:      cfg.OpenRouter.APIKey,
		Model:       cfg.OpenRouter.Model,
		BaseURL:     cfg.OpenRouter.BaseURL,
		Timeout:     cfg.OpenRouter.Timeout,
		Temperature: cfg.OpenRouter.Temperature,
		MaxTokens:   cfg.OpenRouter.MaxTokens,
	})
	if err != nil {
		logger.Fatalf("Failed to initialize generation client: %v", err)
	}

	quotaSvc := quota.NewService(repo, redisCache, cfg.Quota.DailyLimit)
	analyticsSvc := analytics.NewService(repo, quotaSvc, logger)

	api := &API{
		store:     repo,
		generator: generator,
		quota:     quotaSvc,
		analytics: analyticsSvc,
		db:        db,
		cache:     redisCache,
		logger:    logger,
		jwtSecret: cfg.Auth.JWTSecret,
		tokenTTL:  cfg.Auth.TokenTTL,
	}

	router := setupRouter(api, cfg)

	// Metrics server on its own port
	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metricsSrv = metrics.NewServer(cfg.Metrics.Port)
		go func() {
			logger.Infof("Starting metrics server on port %d", cfg.Metrics.Port)
			if err := metricsSrv.Start(); err != nil {
				logger.ErrorWithErr("Metrics server stopped", err)
			}
		}()
	}

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Starting API server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logger.ErrorWithErr("Failed to shut down metrics server", err)
		}
	}

	// Let in-flight analytics writes finish before the pool closes.
	done := make(chan struct{})
	go func() {
		analyticsSvc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warn("Timed out waiting for analytics writes")
	}

	logger.Info("Server stopped")
}
