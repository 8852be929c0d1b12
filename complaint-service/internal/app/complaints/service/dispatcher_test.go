package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"reviewguard/complaint-service/internal/app/complaints/config"
	"reviewguard/complaint-service/internal/app/complaints/repository/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(workers, queueSize int, locks *fakeLocks) *Dispatcher {
	cfg := config.DispatcherConfig{
		Workers:     workers,
		QueueSize:   queueSize,
		TaskTimeout: time.Second,
		LockTTL:     time.Minute,
	}
	if locks == nil {
		return NewDispatcher(cfg, nil)
	}
	return NewDispatcher(cfg, locks)
}

func TestDispatcher_RunsTasks(t *testing.T) {
	d := newTestDispatcher(2, 10, nil)
	d.Start()

	var ran int32
	for i := 0; i < 5; i++ {
		ok := d.Submit(Task{Name: "test", Run: func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}})
		require.True(t, ok)
	}

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(5), atomic.LoadInt32(&ran))
}

func TestDispatcher_FullQueueDropsWithoutBlocking(t *testing.T) {
	d := newTestDispatcher(1, 1, nil)
	release := make(chan struct{})
	started := make(chan struct{})
	d.Start()

	require.True(t, d.Submit(Task{Name: "blocker", Run: func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started

	require.True(t, d.Submit(Task{Name: "queued", Run: func(ctx context.Context) error { return nil }}))

	done := make(chan bool)
	go func() {
		done <- d.Submit(Task{Name: "overflow", Run: func(ctx context.Context) error { return nil }})
	}()

	select {
	case accepted := <-done:
		assert.False(t, accepted)
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}

	close(release)
	require.NoError(t, d.Stop(context.Background()))
}

func TestDispatcher_DeduplicatesInFlightKeys(t *testing.T) {
	d := newTestDispatcher(1, 10, nil)
	release := make(chan struct{})
	d.Start()

	task := Task{Name: "review", Key: "review:1", Run: func(ctx context.Context) error {
		<-release
		return nil
	}}

	assert.True(t, d.Submit(task))
	assert.False(t, d.Submit(task), "same key must not be queued twice")

	close(release)
	require.NoError(t, d.Stop(context.Background()))
}

func TestDispatcher_KeyIsReusableAfterCompletion(t *testing.T) {
	d := newTestDispatcher(1, 10, nil)
	d.Start()

	var ran int32
	task := Task{Name: "review", Key: "review:2", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}}

	require.True(t, d.Submit(task))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&ran) == 1 }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return d.Submit(task) }, time.Second, 5*time.Millisecond)

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&ran))
}

func TestDispatcher_PanicAndErrorDoNotStopWorkers(t *testing.T) {
	d := newTestDispatcher(1, 10, nil)
	d.Start()

	var ran int32
	d.Submit(Task{Name: "panics", Run: func(ctx context.Context) error { panic("boom") }})
	d.Submit(Task{Name: "fails", Run: func(ctx context.Context) error { return errors.New("failed") }})
	d.Submit(Task{Name: "ok", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestDispatcher_SkipsTaskLockedByAnotherProcess(t *testing.T) {
	db := newMemDB(newTestClock(time.Now()))
	locks := &fakeLocks{db}
	_, held, err := locks.Acquire(context.Background(), lockKeyPrefix+"review:3", time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	d := newTestDispatcher(1, 10, locks)
	d.Start()

	var ran int32
	d.Submit(Task{Name: "review", Key: "review:3", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))
}

func TestDispatcher_RunsWhenLockBackendFails(t *testing.T) {
	locks := new(mocks.MockLockRepository)
	locks.On("Acquire", mock.Anything, lockKeyPrefix+"review:4", time.Minute).Return("", false, errors.New("redis down"))

	d := NewDispatcher(config.DispatcherConfig{Workers: 1, QueueSize: 1, TaskTimeout: time.Second, LockTTL: time.Minute}, locks)
	d.Start()

	var ran int32
	d.Submit(Task{Name: "review", Key: "review:4", Run: func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}})

	require.NoError(t, d.Stop(context.Background()))
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
}

func TestDispatcher_RejectsAfterStop(t *testing.T) {
	d := newTestDispatcher(1, 10, nil)
	d.Start()
	require.NoError(t, d.Stop(context.Background()))

	assert.False(t, d.Submit(Task{Name: "late", Run: func(ctx context.Context) error { return nil }}))
}
