package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/config"
	"reviewguard/complaint-service/internal/app/complaints/repository"
	"reviewguard/pkg/logger"
	"reviewguard/pkg/metrics"
)

const lockKeyPrefix = "complaints:lock:"

// Task - единица фоновой работы.
// Key дедуплицирует задачи: пока задача с ключом в работе, вторая такая же отбрасывается.
type Task struct {
	Name string
	Key  string
	Run  func(ctx context.Context) error
}

// Dispatcher - пул воркеров поверх буферизованного канала.
// Submit никогда не блокирует: при переполнении задача отбрасывается,
// отзыв остается pending и будет подобран периодическим rescan.
type Dispatcher struct {
	queue       chan Task
	locks       repository.LockRepository
	workers     int
	taskTimeout time.Duration
	lockTTL     time.Duration

	mu       sync.Mutex
	inFlight map[string]struct{}
	stopped  bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDispatcher создает пул; locks может быть nil, тогда дедупликация только внутри процесса
func NewDispatcher(cfg config.DispatcherConfig, locks repository.LockRepository) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queue:       make(chan Task, cfg.QueueSize),
		locks:       locks,
		workers:     cfg.Workers,
		taskTimeout: cfg.TaskTimeout,
		lockTTL:     cfg.LockTTL,
		inFlight:    make(map[string]struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (d *Dispatcher) Start() {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	logger.Info().Int("workers", d.workers).Int("queue_size", cap(d.queue)).Msg("Dispatcher started")
}

// Submit ставит задачу в очередь и сразу возвращает управление
func (d *Dispatcher) Submit(task Task) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		metrics.DispatcherDropped.WithLabelValues("stopped").Inc()
		return false
	}

	if task.Key != "" {
		if _, busy := d.inFlight[task.Key]; busy {
			metrics.DispatcherDropped.WithLabelValues("duplicate").Inc()
			return false
		}
	}

	select {
	case d.queue <- task:
		if task.Key != "" {
			d.inFlight[task.Key] = struct{}{}
		}
		metrics.DispatcherQueueDepth.Set(float64(len(d.queue)))
		return true
	default:
		metrics.DispatcherDropped.WithLabelValues("queue_full").Inc()
		logger.Warn().Str("task", task.Name).Str("key", task.Key).Msg("Dispatcher queue is full, task dropped")
		return false
	}
}

// Stop перестает принимать задачи и дожидается выполнения уже поставленных.
// Если ctx истекает раньше, контекст выполняющихся задач отменяется.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		logger.Info().Msg("Dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return fmt.Errorf("dispatcher stopped before queue drained: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for task := range d.queue {
		metrics.DispatcherQueueDepth.Set(float64(len(d.queue)))
		d.run(task)
	}
}

func (d *Dispatcher) run(task Task) {
	defer d.done(task.Key)

	ctx, cancel := context.WithTimeout(d.ctx, d.taskTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			metrics.DispatcherTasks.WithLabelValues(task.Name, "panic").Inc()
			logger.Error().
				Str("task", task.Name).
				Str("key", task.Key).
				Interface("panic", r).
				Msg("Dispatcher task panicked")
		}
	}()

	if task.Key != "" && d.locks != nil {
		lockKey := lockKeyPrefix + task.Key
		token, ok, err := d.locks.Acquire(ctx, lockKey, d.lockTTL)
		switch {
		case err != nil:
			// Без Redis продолжаем: повторную обработку отсекают CAS переходы статусов
			logger.Warn().Err(err).Str("key", lockKey).Msg("Failed to acquire task lock, running without it")
		case !ok:
			metrics.DispatcherTasks.WithLabelValues(task.Name, "locked").Inc()
			return
		default:
			defer func() {
				if err := d.locks.Release(context.Background(), lockKey, token); err != nil {
					logger.Warn().Err(err).Str("key", lockKey).Msg("Failed to release task lock")
				}
			}()
		}
	}

	if err := task.Run(ctx); err != nil {
		metrics.DispatcherTasks.WithLabelValues(task.Name, "failed").Inc()
		logger.Error().Err(err).Str("task", task.Name).Str("key", task.Key).Msg("Dispatcher task failed")
		return
	}

	metrics.DispatcherTasks.WithLabelValues(task.Name, "success").Inc()
}

func (d *Dispatcher) done(key string) {
	if key == "" {
		return
	}
	d.mu.Lock()
	delete(d.inFlight, key)
	d.mu.Unlock()
}
