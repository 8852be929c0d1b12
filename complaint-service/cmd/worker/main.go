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
	"reviewguard/complaint-service/internal/app/complaints/processor"
	"reviewguard/pkg/logger"

	"github.com/joho/godotenv"
)

const serviceName = "complaint-worker"

func main() {
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
		}
	}

	ctx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()

	// === ИНФРАСТРУКТУРА ===
	infra, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize infrastructure")
	}
	defer infra.Close()

	services, err := bootstrap.BuildServices(cfg, infra)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize services")
	}
	services.Dispatcher.Start()

	// === KAFKA CONSUMER ===
	kafkaConsumer := processor.NewKafkaConsumer(
		cfg.Kafka.Brokers,
		cfg.Kafka.ReviewTopic,
		cfg.Kafka.GroupID,
		cfg.Kafka.MinBytes,
		cfg.Kafka.MaxBytes,
		services.Ingestion,
	)
	kafkaConsumer.Start(ctx)
	logger.Info().
		Str("topic", cfg.Kafka.ReviewTopic).
		Str("group", cfg.Kafka.GroupID).
		Msg("Kafka consumer started")

	// === CRON ===
	scheduler := processor.NewCronScheduler(ctx)
	jobs := []struct {
		name     string
		schedule string
		fn       processor.JobFunc
	}{
		{"backfill", cfg.CronSchedule.Backfill, func(ctx context.Context) error {
			return services.Backfill.RunTick(ctx).Err
		}},
		{"rescan", cfg.CronSchedule.Rescan, func(ctx context.Context) error {
			_, err := services.Rescan.Rescan(ctx)
			return err
		}},
		{"submit", cfg.CronSchedule.Submit, func(ctx context.Context) error {
			_, err := services.Submission.SubmitDrafts(ctx)
			return err
		}},
		{"review_sync", cfg.CronSchedule.ReviewSync, services.ReviewSync.SyncAll},
		{"expire_drafts", cfg.CronSchedule.ExpireDrafts, func(ctx context.Context) error {
			_, err := services.Submission.ExpireDrafts(ctx)
			return err
		}},
	}
	for _, job := range jobs {
		if err := scheduler.AddJob(job.name, job.schedule, job.fn); err != nil {
			logger.Fatal().Err(err).Msg("Failed to schedule job")
		}
	}
	scheduler.Start()

	// === HEALTHCHECK ===
	healthHandler := handler.NewHealthCheckHandler(infra.DB, infra.Redis, map[string]handler.Pinger{
		"mongodb": handler.PingFunc(func(ctx context.Context) error {
			return infra.Mongo.Ping(ctx, nil)
		}),
		"quota_pool": handler.PingFunc(infra.Pool.Ping),
	})

	mux := http.NewServeMux()
	healthHandler.RegisterRoutes(mux)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Service.HealthPort,
		Handler: mux,
	}

	go func() {
		logger.Info().Str("address", httpServer.Addr).Msg("Starting healthcheck HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("HTTP server error")
		}
	}()

	logger.Info().Msg("Complaint worker is running")

	// === GRACEFUL SHUTDOWN ===
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down complaint worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Сначала отмена: идущий тик останавливается на границе отзыва или батча,
	// затем ожидание уже в пределах shutdownCtx
	cancelWork()
	if err := scheduler.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Cron scheduler did not stop in time")
	}
	kafkaConsumer.Stop()

	if err := services.Dispatcher.Stop(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Dispatcher did not drain in time")
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Healthcheck server forced to shutdown")
	}

	logger.Info().Msg("Complaint worker stopped gracefully")
}
