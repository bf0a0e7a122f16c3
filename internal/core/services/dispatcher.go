package services

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/campuswatch/watcher/internal/core/domain"
)

const (
	// DefaultWorkers bounds concurrent background answer tasks.
	DefaultWorkers = 4

	// DefaultQueueSize bounds tasks waiting for a worker.
	DefaultQueueSize = 64
)

// Task is one unit of background work.
type Task func(ctx context.Context)

// Dispatcher runs background tasks on a fixed worker pool. Submission
// never blocks: a full queue is reported to the caller so the webhook
// handler can answer with an apology instead of timing out.
type Dispatcher struct {
	tasks       chan Task
	workerCount int
	log         *zap.Logger

	mu      sync.Mutex
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Non-positive workers or queueSize
// fall back to the defaults.
func NewDispatcher(workers, queueSize int, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Dispatcher{
		tasks:       make(chan Task, queueSize),
		workerCount: workers,
		log:         log,
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or
// the dispatcher is stopped. Calling Start twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.started || d.stopped {
		d.mu.Unlock()
		return
	}
	d.started = true
	workers := d.workerCount
	d.mu.Unlock()

	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	d.log.Debug("dispatcher started", zap.Int("workers", workers))
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-d.tasks:
			if !ok {
				return
			}
			task(ctx)
		}
	}
}

// Submit enqueues a task without blocking. Returns
// domain.ErrDispatcherSaturated when the queue is full and
// domain.ErrDispatcherStopped after Stop.
func (d *Dispatcher) Submit(task Task) error {
	// Held across the send so Stop cannot close the channel mid-submit.
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return domain.ErrDispatcherStopped
	}

	select {
	case d.tasks <- task:
		return nil
	default:
		d.log.Warn("task queue saturated")
		return domain.ErrDispatcherSaturated
	}
}

// Stop rejects further submissions, drains queued tasks and waits for
// the workers to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	started := d.started
	close(d.tasks)
	d.mu.Unlock()

	if started {
		d.wg.Wait()
	}
	d.log.Debug("dispatcher stopped")
}
