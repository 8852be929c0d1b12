package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Service.HTTPPort)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "review_events", cfg.Kafka.ReviewTopic)
	assert.Equal(t, 50, cfg.Backfill.BatchSize)
	assert.Equal(t, 15*time.Minute, cfg.Backfill.StaleAfter)
	assert.Equal(t, 72*time.Hour, cfg.Submission.DraftTTL)
	assert.True(t, cfg.Submission.AutoSubmit)
	assert.Equal(t, "*/5 * * * *", cfg.CronSchedule.Backfill)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("BACKFILL_BATCH_SIZE", "3")
	t.Setenv("COMPLAINT_CUTOFF_DATE", "2024-01-15")
	t.Setenv("AUTO_SUBMIT", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 3, cfg.Backfill.BatchSize)
	assert.False(t, cfg.Submission.AutoSubmit)

	cutoff, err := cfg.Rules.Cutoff()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), cutoff)
}

func TestLoad_InvalidCutoff(t *testing.T) {
	t.Setenv("COMPLAINT_CUTOFF_DATE", "15.01.2024")

	_, err := Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "COMPLAINT_CUTOFF_DATE")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BACKFILL_BATCH_SIZE", "0")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_StaleAfterShorterThanItemWorstCase(t *testing.T) {
	t.Setenv("TEXTGEN_TIMEOUT", "6m")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BACKFILL_STALE_AFTER")
}

func TestConfig_ItemWorstCase(t *testing.T) {
	c := Config{
		TextGen:    TextGenConfig{Timeout: 30 * time.Second},
		Generation: GenerationConfig{MaxAttempts: 3, RetryBackoff: time.Second},
	}

	// 3 попытки по 30s и задержки 1s + 2s
	assert.Equal(t, 93*time.Second, c.ItemWorstCase())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "complaints", SSLMode: "disable", MaxConns: 7}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=complaints sslmode=disable", c.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/complaints?sslmode=disable&pool_max_conns=7", c.URL())
}

func TestRedisConfig_Address(t *testing.T) {
	c := RedisConfig{Host: "redis", Port: "6380"}
	assert.Equal(t, "redis:6380", c.Address())
}
