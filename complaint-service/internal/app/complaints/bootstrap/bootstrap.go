package bootstrap

import (
	"context"
	"fmt"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/config"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure/marketplace"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure/messaging"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure/migrate"
	"reviewguard/complaint-service/internal/app/complaints/infrastructure/textgen"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/complaint-service/internal/app/complaints/service"
	"reviewguard/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// Infra - внешние соединения процесса
type Infra struct {
	DB       *gorm.DB
	Pool     *pgxpool.Pool
	Redis    *redis.Client
	Mongo    *mongo.Client
	MongoDB  *mongo.Database
	Producer *messaging.KafkaProducer
}

// Connect поднимает все соединения; при ошибке уже открытые закрываются
func Connect(ctx context.Context, cfg *config.Config) (*Infra, error) {
	infra := &Infra{}

	var err error
	if infra.DB, err = ConnectDB(cfg.Database); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	logger.Info().Str("database", cfg.Database.DBName).Msg("Connected to PostgreSQL")

	if cfg.Service.RunMigrations {
		if err := migrate.RunMigrations(infra.DB, cfg.Service.MigrationsPath); err != nil {
			infra.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	if infra.Pool, err = ConnectPool(ctx, cfg.Database); err != nil {
		infra.Close()
		return nil, fmt.Errorf("pgx pool: %w", err)
	}

	if infra.Redis, err = ConnectRedis(ctx, cfg.Redis); err != nil {
		infra.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}
	logger.Info().Str("address", cfg.Redis.Address()).Msg("Connected to Redis")

	if infra.Mongo, err = ConnectMongoDB(cfg.MongoDB); err != nil {
		infra.Close()
		return nil, fmt.Errorf("mongodb: %w", err)
	}
	infra.MongoDB = infra.Mongo.Database(cfg.MongoDB.Database)
	logger.Info().Str("database", cfg.MongoDB.Database).Msg("Connected to MongoDB")

	infra.Producer = messaging.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)
	logger.Info().Str("topic", cfg.Kafka.EventsTopic).Msg("Initialized Kafka producer")

	return infra, nil
}

func (i *Infra) Close() {
	if i.Producer != nil {
		if err := i.Producer.Close(); err != nil {
			logger.Error().Err(err).Msg("Error closing Kafka producer")
		}
	}
	if i.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := i.Mongo.Disconnect(ctx); err != nil {
			logger.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}
	if i.Redis != nil {
		i.Redis.Close()
	}
	if i.Pool != nil {
		i.Pool.Close()
	}
	if i.DB != nil {
		if sqlDB, err := i.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// Services - граф сервисов, общий для API и воркера
type Services struct {
	Dispatcher  *service.Dispatcher
	Generator   *service.GeneratorService
	Backfill    *service.BackfillService
	Triggers    *service.TriggerService
	Ingestion   *service.IngestionService
	Stores      *service.StoreService
	Products    *service.ProductService
	Submission  *service.SubmissionService
	Rescan      *service.RescanService
	Extension   *service.ExtensionService
	ReviewSync  *service.ReviewSyncService
	ReviewQuery *service.ReviewQueryService
}

// BuildServices собирает сервисы; диспетчер создается, но не запускается
func BuildServices(cfg *config.Config, infra *Infra) (*Services, error) {
	cutoff, err := cfg.Rules.Cutoff()
	if err != nil {
		return nil, err
	}

	textGen, err := textgen.New(cfg.TextGen.Provider, cfg.TextGen.APIKey)
	if err != nil {
		return nil, fmt.Errorf("text generator: %w", err)
	}
	marketplaceClient := marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Timeout)

	stores := repository.NewStoreRepository(infra.DB)
	products := repository.NewProductRepository(infra.DB)
	reviews := repository.NewReviewRepository(infra.DB)
	complaints := repository.NewComplaintRepository(infra.DB)
	details := repository.NewComplaintDetailRepository(infra.DB)
	jobs := repository.NewBackfillJobRepository(infra.DB)
	quotaRepo := repository.NewQuotaRepository(infra.Pool)
	locks := repository.NewLockRepository(infra.Redis)
	history := repository.NewHistoryRepository(infra.MongoDB)

	events := service.NewEventPublisher(infra.Producer)
	quota := service.NewQuotaService(quotaRepo)
	validator := service.NewRuleValidator(cutoff, cfg.Rules.MaxNegativeRating)

	s := &Services{}
	s.Generator = service.NewGeneratorService(reviews, stores, products, complaints, history, quota, validator, textGen, events, cfg.Generation)
	s.Dispatcher = service.NewDispatcher(cfg.Dispatcher, locks)
	s.Backfill = service.NewBackfillService(jobs, reviews, stores, products, locks, quota, s.Generator, events, cfg.Backfill)
	s.Triggers = service.NewTriggerService(s.Dispatcher, s.Generator, s.Backfill, reviews, products, cfg.Generation.TriggerInlineLimit)
	s.Ingestion = service.NewIngestionService(reviews, stores, products, s.Triggers)
	s.Stores = service.NewStoreService(stores, quota, s.Triggers)
	s.Products = service.NewProductService(products, s.Triggers)
	s.Submission = service.NewSubmissionService(complaints, reviews, stores, marketplaceClient, events, cfg.Submission)
	s.Rescan = service.NewRescanService(reviews, s.Generator, cfg.Rescan, cfg.Generation.RetryLimit)
	s.ReviewSync = service.NewReviewSyncService(stores, marketplaceClient, s.Ingestion, cutoff)
	s.ReviewQuery = service.NewReviewQueryService(reviews, history)

	if s.Extension, err = service.NewExtensionService(stores, details); err != nil {
		return nil, fmt.Errorf("extension service: %w", err)
	}

	logger.Info().
		Str("text_provider", cfg.TextGen.Provider).
		Time("cutoff", cutoff).
		Int("workers", cfg.Dispatcher.Workers).
		Msg("Services initialized")

	return s, nil
}
