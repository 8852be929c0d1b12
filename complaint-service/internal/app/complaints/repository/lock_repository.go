package repository

import (
	"context"
	"fmt"
	"time"

	"reviewguard/pkg/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript удаляет ключ только если им владеет тот же токен
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// extendScript продлевает TTL только владельцу блокировки
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

type lockRepository struct {
	client *redis.Client
}

// NewLockRepository создает репозиторий блокировок на Redis SETNX
func NewLockRepository(client *redis.Client) LockRepository {
	return &lockRepository{client: client}
}

func (r *lockRepository) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpSetNX)
	defer timer.ObserveDuration()

	token := uuid.NewString()
	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpSetNX)
		return "", false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

func (r *lockRepository) Release(ctx context.Context, key, token string) error {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpEval)
	defer timer.ObserveDuration()

	if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpEval)
		return fmt.Errorf("failed to release lock %s: %w", key, err)
	}

	return nil
}

func (r *lockRepository) Extend(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	timer := metrics.NewRedisTimer(metricsService, metrics.RedisOpEval)
	defer timer.ObserveDuration()

	extended, err := extendScript.Run(ctx, r.client, []string{key}, token, ttl.Milliseconds()).Int64()
	if err != nil {
		metrics.RecordRedisError(metricsService, metrics.RedisOpEval)
		return false, fmt.Errorf("failed to extend lock %s: %w", key, err)
	}

	return extended == 1, nil
}
