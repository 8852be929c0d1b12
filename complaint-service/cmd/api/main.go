package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/bootstrap"
	"reviewguard/complaint-service/internal/app/complaints/config"
	"reviewguard/complaint-service/internal/app/complaints/handler"
	"reviewguard/pkg/logger"

	"github.com/joho/godotenv"
)

const serviceName = "complaint-api"

func main() {
	// .env нужен только для локального запуска
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(serviceName, cfg.Service.LogLevel)
	if cfg.Service.LogstashAddr != "" {
		if err := logger.InitLogstash(cfg.Service.LogstashAddr, serviceName, cfg.Service.LogLevel); err != nil {
			logger.Warn().Err(err).Msg("Failed to connect to Logstash, using stdout only")
		} else {
			logger.Info().Str("logstash_addr", cfg.Service.LogstashAddr).Msg("Connected to Logstash")
		}
	}

	ctx := context.Background()

	infra, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize infrastructure")
	}
	defer infra.Close()

	services, err := bootstrap.BuildServices(cfg, infra)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize services")
	}

	// Триггеры из API (включение магазина, товара) выполняются в локальном пуле
	services.Dispatcher.Start()

	handlers := handler.Handlers{
		Reviews:    handler.NewReviewHandler(services.Ingestion, services.ReviewQuery),
		Stores:     handler.NewStoreHandler(services.Stores, services.Products, services.Extension),
		Backfill:   handler.NewBackfillHandler(services.Backfill),
		Complaints: handler.NewComplaintHandler(services.Submission),
		Extension:  handler.NewExtensionHandler(services.Extension),
	}
	router := handler.SetupRoutes(
		handlers,
		handler.NewAuthMiddleware(cfg.JWT.Secret),
		handler.NewExtensionAuthMiddleware(services.Extension),
		cfg.CORS.AllowOrigins,
	)

	server := &http.Server{
		Addr:         ":" + cfg.Service.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("address", server.Addr).
			Msg("Starting Complaint API")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down Complaint API...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := services.Dispatcher.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Dispatcher did not drain in time")
	}

	logger.Info().Msg("Complaint API stopped gracefully")
}
