package processor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronScheduler_AddJob(t *testing.T) {
	scheduler := NewCronScheduler(context.Background())

	require.NoError(t, scheduler.AddJob("backfill", "*/5 * * * *", func(ctx context.Context) error { return nil }))
	require.NoError(t, scheduler.AddJob("rescan", "@every 10m", func(ctx context.Context) error { return nil }))

	assert.Len(t, scheduler.Entries(), 2)
}

func TestCronScheduler_AddJob_InvalidSchedule(t *testing.T) {
	scheduler := NewCronScheduler(context.Background())

	err := scheduler.AddJob("backfill", "every five minutes", func(ctx context.Context) error { return nil })

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "backfill")
	assert.Empty(t, scheduler.Entries())
}

func TestCronScheduler_AddJob_EmptyScheduleDisablesJob(t *testing.T) {
	scheduler := NewCronScheduler(context.Background())

	require.NoError(t, scheduler.AddJob("review_sync", "", func(ctx context.Context) error { return nil }))

	assert.Empty(t, scheduler.Entries())
}

func TestCronScheduler_RunPassesContextAndSwallowsErrors(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "worker")
	scheduler := NewCronScheduler(ctx)

	var calls int32
	scheduler.run("submit", func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "worker", ctx.Value(key{}))
		return errors.New("marketplace unavailable")
	})

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCronScheduler_RunSkippedAfterShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	scheduler := NewCronScheduler(ctx)
	cancel()

	called := false
	scheduler.run("backfill", func(ctx context.Context) error {
		called = true
		return nil
	})

	assert.False(t, called)
}

func TestCronScheduler_StartStop(t *testing.T) {
	scheduler := NewCronScheduler(context.Background())
	require.NoError(t, scheduler.AddJob("expire_drafts", "0 * * * *", func(ctx context.Context) error { return nil }))

	scheduler.Start()
	entries := scheduler.Entries()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Next.IsZero())

	require.NoError(t, scheduler.Stop(context.Background()))
}

// startBlockingJob запускает задачу раз в секунду и ждет ее первого запуска
func startBlockingJob(t *testing.T, scheduler *CronScheduler, job JobFunc) {
	t.Helper()
	started := make(chan struct{}, 1)
	require.NoError(t, scheduler.AddJob("backfill", "@every 1s", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		return job(ctx)
	}))
	scheduler.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("scheduled job did not start")
	}
}

func TestCronScheduler_StopAfterCancelDoesNotWaitForTick(t *testing.T) {
	workCtx, cancelWork := context.WithCancel(context.Background())
	scheduler := NewCronScheduler(workCtx)

	// Тик, который закончится только по отмене контекста
	startBlockingJob(t, scheduler, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})

	cancelWork()
	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	assert.NoError(t, scheduler.Stop(stopCtx))
}

func TestCronScheduler_StopBoundedByContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	scheduler := NewCronScheduler(context.Background())

	startBlockingJob(t, scheduler, func(ctx context.Context) error {
		<-release
		return nil
	})

	stopCtx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := scheduler.Stop(stopCtx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
