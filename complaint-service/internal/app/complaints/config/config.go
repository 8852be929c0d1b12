package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config содержит все настройки Complaint Service
// Используется обоими бинарниками: api и worker
type Config struct {
	Service      ServiceConfig
	Database     DatabaseConfig
	MongoDB      MongoDBConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	JWT          JWTConfig
	CORS         CORSConfig
	TextGen      TextGenConfig
	Marketplace  MarketplaceConfig
	Rules        RulesConfig
	Generation   GenerationConfig
	Dispatcher   DispatcherConfig
	Backfill     BackfillConfig
	Submission   SubmissionConfig
	Rescan       RescanConfig
	CronSchedule CronScheduleConfig
}

type ServiceConfig struct {
	HTTPPort       string `env:"HTTP_PORT" env-default:"8080"`
	HealthPort     string `env:"WORKER_HEALTH_PORT" env-default:"8081"`
	LogLevel       string `env:"LOG_LEVEL" env-default:"info"`
	LogstashAddr   string `env:"LOGSTASH_ADDR"`
	MigrationsPath string `env:"MIGRATIONS_PATH" env-default:"complaint-service/migrations"`
	RunMigrations  bool   `env:"RUN_MIGRATIONS" env-default:"true"`
}

// DatabaseConfig - PostgreSQL, общая БД для gorm и pgxpool
type DatabaseConfig struct {
	Host     string `env:"DB_HOST" env-default:"localhost"`
	Port     string `env:"DB_PORT" env-default:"5432"`
	User     string `env:"DB_USER" env-default:"postgres"`
	Password string `env:"DB_PASSWORD" env-default:"postgres"`
	DBName   string `env:"DB_NAME" env-default:"complaints"`
	SSLMode  string `env:"DB_SSLMODE" env-default:"disable"`
	MaxConns int    `env:"DB_MAX_CONNS" env-default:"10"`
}

type MongoDBConfig struct {
	URI      string `env:"MONGODB_URI" env-default:"mongodb://localhost:27017"`
	Database string `env:"MONGODB_DATABASE" env-default:"complaints"`
}

// RedisConfig - Redis используется для распределенных блокировок
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost"`
	Port     string `env:"REDIS_PORT" env-default:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// KafkaConfig - review_events читаем, в complaint_events пишем
type KafkaConfig struct {
	Brokers     []string `env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:9092"`
	ReviewTopic string   `env:"KAFKA_REVIEW_TOPIC" env-default:"review_events"`
	EventsTopic string   `env:"KAFKA_EVENTS_TOPIC" env-default:"complaint_events"`
	GroupID     string   `env:"KAFKA_GROUP_ID" env-default:"complaint-service-group"`
	MinBytes    int      `env:"KAFKA_MIN_BYTES" env-default:"1"`
	MaxBytes    int      `env:"KAFKA_MAX_BYTES" env-default:"10000000"`
}

type JWTConfig struct {
	Secret string `env:"JWT_SECRET" env-default:"your-secret-key-change-in-production"`
}

// CORSConfig - origins браузерного расширения
type CORSConfig struct {
	AllowOrigins []string `env:"CORS_ALLOW_ORIGINS" env-separator:"," env-default:"chrome-extension://*"`
}

type TextGenConfig struct {
	Provider string        `env:"TEXTGEN_PROVIDER" env-default:"openai"` // openai, anthropic, template
	APIKey   string        `env:"TEXTGEN_API_KEY"`
	Timeout  time.Duration `env:"TEXTGEN_TIMEOUT" env-default:"30s"`
}

type MarketplaceConfig struct {
	BaseURL string        `env:"MARKETPLACE_API_URL" env-default:"https://feedbacks-api.marketplace.local"`
	Timeout time.Duration `env:"MARKETPLACE_API_TIMEOUT" env-default:"15s"`
}

// RulesConfig - глобальные правила допуска отзыва к генерации
type RulesConfig struct {
	CutoffDate        string `env:"COMPLAINT_CUTOFF_DATE" env-default:"2025-10-01"`
	MaxNegativeRating int    `env:"COMPLAINT_MAX_NEGATIVE_RATING" env-default:"3"`
}

type GenerationConfig struct {
	MaxAttempts        int           `env:"GENERATION_MAX_ATTEMPTS" env-default:"3"`
	RetryBackoff       time.Duration `env:"GENERATION_RETRY_BACKOFF" env-default:"500ms"`
	RetryLimit         int           `env:"GENERATION_RETRY_LIMIT" env-default:"5"`
	TriggerInlineLimit int           `env:"TRIGGER_INLINE_LIMIT" env-default:"100"`
}

type DispatcherConfig struct {
	Workers     int           `env:"DISPATCHER_WORKERS" env-default:"8"`
	QueueSize   int           `env:"DISPATCHER_QUEUE_SIZE" env-default:"1000"`
	TaskTimeout time.Duration `env:"DISPATCHER_TASK_TIMEOUT" env-default:"2m"`
	LockTTL     time.Duration `env:"DISPATCHER_LOCK_TTL" env-default:"5m"`
}

type BackfillConfig struct {
	BatchSize         int           `env:"BACKFILL_BATCH_SIZE" env-default:"50"`
	MaxBatchesPerTick int           `env:"BACKFILL_MAX_BATCHES_PER_TICK" env-default:"10"`
	MaxJobsPerTick    int           `env:"BACKFILL_MAX_JOBS_PER_TICK" env-default:"5"`
	StaleAfter        time.Duration `env:"BACKFILL_STALE_AFTER" env-default:"15m"`
	LockTTL           time.Duration `env:"BACKFILL_LOCK_TTL" env-default:"10m"`
}

type SubmissionConfig struct {
	AutoSubmit  bool          `env:"AUTO_SUBMIT" env-default:"true"`
	BatchSize   int           `env:"SUBMIT_BATCH_SIZE" env-default:"50"`
	MaxAttempts int           `env:"SUBMIT_MAX_ATTEMPTS" env-default:"5"`
	DraftTTL    time.Duration `env:"DRAFT_TTL" env-default:"72h"`
}

type RescanConfig struct {
	PendingAge time.Duration `env:"RESCAN_PENDING_AGE" env-default:"10m"`
	BatchSize  int           `env:"RESCAN_BATCH_SIZE" env-default:"200"`
}

// CronScheduleConfig - стандартный 5-польный формат cron
type CronScheduleConfig struct {
	Backfill     string `env:"CRON_BACKFILL" env-default:"*/5 * * * *"`
	Rescan       string `env:"CRON_RESCAN" env-default:"*/10 * * * *"`
	Submit       string `env:"CRON_SUBMIT" env-default:"*/2 * * * *"`
	ReviewSync   string `env:"CRON_REVIEW_SYNC" env-default:"*/15 * * * *"`
	ExpireDrafts string `env:"CRON_EXPIRE_DRAFTS" env-default:"0 * * * *"`
}

// Load загружает конфигурацию из переменных окружения
// .env (если есть) подгружается в main до вызова Load
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if _, err := cfg.Rules.Cutoff(); err != nil {
		return nil, err
	}
	if cfg.Backfill.BatchSize <= 0 {
		return nil, fmt.Errorf("BACKFILL_BATCH_SIZE must be positive, got %d", cfg.Backfill.BatchSize)
	}
	if cfg.Dispatcher.Workers <= 0 {
		return nil, fmt.Errorf("DISPATCHER_WORKERS must be positive, got %d", cfg.Dispatcher.Workers)
	}
	// Heartbeat backfill задачи идет после каждого отзыва
	if worst := cfg.ItemWorstCase(); cfg.Backfill.StaleAfter <= worst || cfg.Backfill.LockTTL <= worst {
		return nil, fmt.Errorf("BACKFILL_STALE_AFTER (%s) and BACKFILL_LOCK_TTL (%s) must exceed worst-case review processing time %s",
			cfg.Backfill.StaleAfter, cfg.Backfill.LockTTL, worst)
	}

	return &cfg, nil
}

// ItemWorstCase - верхняя оценка обработки одного отзыва:
// все попытки генерации по таймауту плюс линейные задержки между ними
func (c *Config) ItemWorstCase() time.Duration {
	attempts := c.Generation.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	total := time.Duration(attempts) * c.TextGen.Timeout
	for i := 1; i < attempts; i++ {
		total += time.Duration(i) * c.Generation.RetryBackoff
	}
	return total
}

// DSN возвращает строку подключения к PostgreSQL в формате libpq
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL возвращает строку подключения в URL-формате для pgxpool
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s&pool_max_conns=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode, strconv.Itoa(c.MaxConns),
	)
}

// Address возвращает адрес Redis в формате host:port
func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
}

// Cutoff возвращает дату отсечения в UTC
func (c *RulesConfig) Cutoff() (time.Time, error) {
	t, err := time.Parse("2006-01-02", c.CutoffDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid COMPLAINT_CUTOFF_DATE %q: %w", c.CutoffDate, err)
	}
	return t.UTC(), nil
}
