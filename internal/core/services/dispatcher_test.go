package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuswatch/watcher/internal/core/domain"
)

func TestDispatcher_RunsSubmittedTasks(t *testing.T) {
	d := NewDispatcher(2, 8, nil)
	d.Start(context.Background())
	defer d.Stop()

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		err := d.Submit(func(context.Context) {
			defer wg.Done()
			count.Add(1)
		})
		require.NoError(t, err)
	}

	wg.Wait()
	assert.Equal(t, int32(5), count.Load())
}

func TestDispatcher_SaturatedQueueRejects(t *testing.T) {
	// One worker, queue of one. Park the worker, fill the queue, then
	// the next submission must be rejected immediately.
	d := NewDispatcher(1, 1, nil)
	d.Start(context.Background())

	parked := make(chan struct{})
	release := make(chan struct{})
	require.NoError(t, d.Submit(func(context.Context) {
		close(parked)
		<-release
	}))
	<-parked

	require.NoError(t, d.Submit(func(context.Context) {}))

	err := d.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, domain.ErrDispatcherSaturated)

	close(release)
	d.Stop()
}

func TestDispatcher_StopDrainsQueuedTasks(t *testing.T) {
	d := NewDispatcher(1, 8, nil)
	d.Start(context.Background())

	var count atomic.Int32
	for i := 0; i < 3; i++ {
		require.NoError(t, d.Submit(func(context.Context) {
			count.Add(1)
		}))
	}

	d.Stop()
	assert.Equal(t, int32(3), count.Load())
}

func TestDispatcher_SubmitAfterStop(t *testing.T) {
	d := NewDispatcher(1, 1, nil)
	d.Start(context.Background())
	d.Stop()

	err := d.Submit(func(context.Context) {})
	assert.ErrorIs(t, err, domain.ErrDispatcherStopped)
}

func TestDispatcher_ContextCancellationStopsWorkers(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	d := NewDispatcher(1, 1, nil)
	d.Start(ctx)

	cancel()

	// Workers observe cancellation and exit; Stop must not hang.
	done := make(chan struct{})
	go func() {
		d.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop after context cancellation")
	}
}

func TestDispatcher_DoubleStartAndStopAreSafe(t *testing.T) {
	d := NewDispatcher(1, 1, nil)
	d.Start(context.Background())
	d.Start(context.Background())
	d.Stop()
	d.Stop()
}
