package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// HTTP Метрики (общие для всех сервисов)
// =============================================================================

// HttpRequestsTotal - счётчик всех HTTP запросов
// Labels: service, method, path, status
// Пример запроса PromQL: rate(http_requests_total{service="orders"}[5m])
var HttpRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	},
	[]string{"service", "method", "path", "status"},
)

// HttpRequestDuration - гистограмма времени ответа
// Labels: service, method, path
// Пример: histogram_quantile(0.95, rate(http_request_duration_seconds_bucket[5m]))
var HttpRequestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name: "http_request_duration_seconds",
		Help: "Duration of HTTP requests in seconds",
		// Бакеты для микросервисов: от 1ms до 10s
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	},
	[]string{"service", "method", "path"},
)

// HttpRequestsInFlight - текущее количество обрабатываемых запросов
var HttpRequestsInFlight = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "http_requests_in_flight",
		Help: "Current number of HTTP requests being processed",
	},
	[]string{"service"},
)

// =============================================================================
// Database Метрики
// =============================================================================

// DbQueryDuration - время выполнения SQL запросов
var DbQueryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	},
	[]string{"service", "operation", "table"},
)

// DbConnectionsOpen - количество открытых соединений с БД
var DbConnectionsOpen = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "db_connections_open",
		Help: "Number of open database connections",
	},
	[]string{"service", "state"}, // state: idle, in_use
)

// DbErrors - счётчик ошибок базы данных
var DbErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "db_errors_total",
		Help: "Total number of database errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Redis Метрики
// =============================================================================

// RedisOperationDuration - время операций Redis
var RedisOperationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	},
	[]string{"service", "operation"}, // operation: get, set, del, etc.
)

// RedisErrors - ошибки Redis
var RedisErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	},
	[]string{"service", "operation"},
)

// =============================================================================
// Kafka Метрики
// =============================================================================

// KafkaMessagesProduced - отправленные сообщения
var KafkaMessagesProduced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_produced_total",
		Help: "Total number of Kafka messages produced",
	},
	[]string{"service", "topic"},
)

// KafkaMessagesConsumed - полученные сообщения
var KafkaMessagesConsumed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_messages_consumed_total",
		Help: "Total number of Kafka messages consumed",
	},
	[]string{"service", "topic", "group"},
)

// KafkaProduceDuration - время отправки сообщения
var KafkaProduceDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_produce_duration_seconds",
		Help:    "Duration of Kafka produce operations",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
	},
	[]string{"service", "topic"},
)

// KafkaConsumeDuration - время обработки сообщения
var KafkaConsumeDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "kafka_consume_duration_seconds",
		Help:    "Duration of Kafka message processing",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10},
	},
	[]string{"service", "topic"},
)

// KafkaErrors - ошибки Kafka
var KafkaErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "kafka_errors_total",
		Help: "Total number of Kafka errors",
	},
	[]string{"service", "topic", "operation"}, // operation: produce, consume
)

// =============================================================================
// Business Метрики (генерация жалоб и backfill)
// =============================================================================

// --- Generator ---

// ComplaintEvaluations - результаты оценки отзывов генератором
// Labels: outcome (generated, skipped, failed, quota_exceeded), reason
var ComplaintEvaluations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "complaint_evaluations_total",
		Help: "Total number of review evaluations by outcome and reason",
	},
	[]string{"outcome", "reason"},
)

// ComplaintsGenerated - сгенерированные жалобы
var ComplaintsGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "complaints_generated_total",
		Help: "Total number of complaints generated",
	},
	[]string{"source"}, // review_synced, store_activated, product_activated, backfill, rescan
)

// TextGenerationDuration - время вызова генерации текста
var TextGenerationDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "textgen_duration_seconds",
		Help:    "Duration of complaint text generation calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
	},
	[]string{"provider", "status"},
)

// --- Quota ---

// QuotaReservations - попытки резервирования квоты
var QuotaReservations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "quota_reservations_total",
		Help: "Total number of quota reservation attempts",
	},
	[]string{"result"}, // reserved, exceeded, error
)

// --- Dispatcher ---

// DispatcherQueueDepth - задачи, ожидающие воркера
var DispatcherQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "dispatcher_queue_depth",
		Help: "Number of tasks waiting in the generation dispatcher queue",
	},
)

// DispatcherTasks - обработанные задачи диспетчера
var DispatcherTasks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dispatcher_tasks_total",
		Help: "Total number of dispatcher tasks by result",
	},
	[]string{"task", "result"}, // result: success, failed, panic
)

// DispatcherDropped - задачи, отброшенные из-за переполнения очереди или дубликата
var DispatcherDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "dispatcher_dropped_total",
		Help: "Total number of dispatcher tasks dropped",
	},
	[]string{"reason"}, // queue_full, duplicate, stopped
)

// --- Backfill Worker ---

// BackfillBatches - обработанные батчи backfill
var BackfillBatches = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "backfill_batches_total",
		Help: "Total number of backfill batches processed",
	},
	[]string{"result"}, // ok, paused_quota, completed, cancelled, failed
)

// BackfillJobTransitions - переходы статусов backfill задач
var BackfillJobTransitions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "backfill_job_transitions_total",
		Help: "Total number of backfill job status transitions",
	},
	[]string{"status"},
)

// BackfillBatchDuration - время обработки одного батча
var BackfillBatchDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "backfill_batch_duration_seconds",
		Help:    "Duration of a single backfill batch",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
	},
)

// --- Submission ---

// MarketplaceSubmissions - отправки жалоб в маркетплейс
var MarketplaceSubmissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "marketplace_submissions_total",
		Help: "Total number of complaint submissions to the marketplace",
	},
	[]string{"result"}, // accepted, rejected, transient_error
)

// --- Ingestion ---

// ReviewsIngested - отзывы, пришедшие через синхронизацию
var ReviewsIngested = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "reviews_ingested_total",
		Help: "Total number of synced reviews by dedup result",
	},
	[]string{"source", "result"}, // result: inserted, skipped
)

// ComplaintDetailsSynced - записи, присланные расширением
var ComplaintDetailsSynced = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "complaint_details_synced_total",
		Help: "Total number of extension complaint details by dedup result",
	},
	[]string{"result"},
)

// --- Scheduler ---

// CronJobRuns - запуски периодических задач воркера
var CronJobRuns = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cron_job_runs_total",
		Help: "Total number of scheduled job runs",
	},
	[]string{"job", "result"}, // result: success, error
)

// CronJobDuration - время выполнения периодической задачи
var CronJobDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "cron_job_duration_seconds",
		Help:    "Duration of scheduled job runs",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
	},
	[]string{"job"},
)
