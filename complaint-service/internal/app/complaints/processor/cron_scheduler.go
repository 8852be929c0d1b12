package processor

import (
	"context"
	"fmt"
	"time"

	"reviewguard/pkg/logger"
	"reviewguard/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// JobFunc - периодическая задача воркера
type JobFunc func(ctx context.Context) error

// CronScheduler запускает периодические задачи.
// Запуск пропускается, если предыдущий запуск той же задачи еще не закончился.
type CronScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewCronScheduler(ctx context.Context) *CronScheduler {
	l := cronLogger{}
	c := cron.New(
		cron.WithLogger(l),
		cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)),
	)

	return &CronScheduler{
		cron: c,
		ctx:  ctx,
	}
}

// AddJob регистрирует задачу; пустое расписание отключает ее
func (s *CronScheduler) AddJob(name, schedule string, fn JobFunc) error {
	if schedule == "" {
		logger.Info().Str("job", name).Msg("Scheduled job disabled")
		return nil
	}

	_, err := s.cron.AddFunc(schedule, func() { s.run(name, fn) })
	if err != nil {
		return fmt.Errorf("invalid schedule %q for job %s: %w", schedule, name, err)
	}

	logger.Info().Str("job", name).Str("schedule", schedule).Msg("Scheduled job registered")
	return nil
}

func (s *CronScheduler) run(name string, fn JobFunc) {
	if s.ctx.Err() != nil {
		return
	}

	start := time.Now()
	err := fn(s.ctx)
	duration := time.Since(start)
	metrics.RecordCronJob(name, duration, err)

	if err != nil {
		logger.Error().Err(err).Str("job", name).Dur("duration", duration).Msg("Scheduled job failed")
		return
	}
	logger.Debug().Str("job", name).Dur("duration", duration).Msg("Scheduled job finished")
}

func (s *CronScheduler) Start() {
	s.cron.Start()
	logger.Info().Int("jobs", len(s.cron.Entries())).Msg("Cron scheduler started")
}

// Stop останавливает расписание и ждет уже запущенные задачи, но не дольше ctx.
// Контекст задач отменяется вызывающим до Stop, иначе ожидание займет целый тик.
func (s *CronScheduler) Stop(ctx context.Context) error {
	logger.Info().Msg("Stopping cron scheduler")

	select {
	case <-s.cron.Stop().Done():
		logger.Info().Msg("Cron scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduled jobs still running: %w", ctx.Err())
	}
}

func (s *CronScheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// cronLogger направляет логи robfig/cron в zerolog
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
