package analytics

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/WankioM/property-qr/internal/models"
	"github.com/WankioM/property-qr/pkg/logger"
)

const defaultRetryBackoff = 100 * time.Millisecond

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// DispatcherStats are cumulative counters of a Dispatcher.
type DispatcherStats struct {
	Queued    int   `json:"queued"`
	Capacity  int   `json:"capacity"`
	Processed int64 `json:"processed"`
	Retried   int64 `json:"retried"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Dispatcher runs background tasks on a fixed pool of workers fed by a
// bounded queue. Tasks are retried up to maxAttempts times.
type Dispatcher struct {
	logger      *logger.Logger
	tasks       chan task
	workers     int
	maxAttempts int
	backoff     time.Duration

	closeMu  sync.RWMutex
	closed   bool
	started  bool
	draining atomic.Bool

	processed atomic.Int64
	retried   atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64

	// Lifecycle management
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ models.TaskQueue = (*Dispatcher)(nil)

func NewDispatcher(workers, queueSize, maxAttempts int, logger *logger.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		logger:      logger.Named("dispatcher"),
		tasks:       make(chan task, queueSize),
		workers:     workers,
		maxAttempts: maxAttempts,
		backoff:     defaultRetryBackoff,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start launches the workers. It is a no-op after the first call.
func (d *Dispatcher) Start() {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.work()
	}
	d.logger.Info("Dispatcher started", "workers", d.workers, "queue_size", cap(d.tasks))
}

// Submit enqueues a task without blocking. It returns false when the queue
// is full or the dispatcher is stopped. Tasks submitted while Stop is
// draining run inline on the caller.
func (d *Dispatcher) Submit(name string, fn func(ctx context.Context) error) bool {
	t := task{name: name, fn: fn}

	d.closeMu.RLock()
	if !d.closed {
		defer d.closeMu.RUnlock()
		select {
		case d.tasks <- t:
			return true
		default:
			d.dropped.Add(1)
			d.logger.Warn("Task queue full, dropping task", "task", name)
			return false
		}
	}
	d.closeMu.RUnlock()

	if d.draining.Load() {
		d.run(t)
		return true
	}
	d.dropped.Add(1)
	d.logger.Warn("Dispatcher stopped, dropping task", "task", name)
	return false
}

// Stop refuses new tasks, drains the queue and waits for the workers.
func (d *Dispatcher) Stop() {
	d.closeMu.Lock()
	if d.closed {
		d.closeMu.Unlock()
		return
	}
	d.draining.Store(true)
	d.closed = true
	close(d.tasks)
	started := d.started
	d.closeMu.Unlock()

	if !started {
		// drain inline so nothing accepted is lost
		for t := range d.tasks {
			d.run(t)
		}
	}
	d.wg.Wait()
	d.draining.Store(false)
	d.cancel()
	d.logger.Info("Dispatcher stopped", "processed", d.processed.Load(), "failed", d.failed.Load(), "dropped", d.dropped.Load())
}

func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Queued:    len(d.tasks),
		Capacity:  cap(d.tasks),
		Processed: d.processed.Load(),
		Retried:   d.retried.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) work() {
	defer d.wg.Done()
	for t := range d.tasks {
		d.run(t)
	}
}

func (d *Dispatcher) run(t task) {
	var err error
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		if err = d.safeCall(t); err == nil {
			d.processed.Add(1)
			return
		}
		if attempt < d.maxAttempts {
			d.retried.Add(1)
			d.logger.Debug("Task failed, retrying", "task", t.name, "attempt", attempt, "error", err)
			select {
			case <-time.After(d.backoff * time.Duration(attempt)):
			case <-d.ctx.Done():
			}
		}
	}
	d.failed.Add(1)
	d.logger.Error("Task failed", "task", t.name, "attempts", d.maxAttempts, "error", err)
}

// safeCall runs a task with panic recovery.
func (d *Dispatcher) safeCall(t task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("Task panicked",
				"task", t.name,
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("task %s panicked: %v", t.name, r)
		}
	}()
	return t.fn(d.ctx)
}
