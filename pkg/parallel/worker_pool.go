// Package parallel provides the bounded worker pool that fans simulation
// work (critical-path candidates, Monte Carlo runs) out across goroutines.
package parallel

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/dd0wney/cluso-resilience/pkg/logging"
)

// WorkerPool manages a pool of worker goroutines
type WorkerPool struct {
	workers   int
	taskQueue chan func()
	wg        sync.WaitGroup
	once      sync.Once
	mu        sync.RWMutex // Protects taskQueue from concurrent close during send
	closed    bool         // Protected by mu
	logger    logging.Logger
	onPanic   func(recovered any)
}

// ErrTooManyWorkers is returned when the worker count exceeds the maximum allowed.
var ErrTooManyWorkers = fmt.Errorf("worker count exceeds maximum")

// MaxWorkers is the maximum number of workers allowed in a pool.
const MaxWorkers = math.MaxInt / 2

// Option configures a WorkerPool.
type Option func(*WorkerPool)

// WithLogger logs recovered task panics.
func WithLogger(l logging.Logger) Option {
	return func(wp *WorkerPool) { wp.logger = logging.OrNop(l) }
}

// WithPanicHandler is called with the value of every recovered task panic.
func WithPanicHandler(fn func(recovered any)) Option {
	return func(wp *WorkerPool) { wp.onPanic = fn }
}

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// NewWorkerPool creates a new worker pool with specified number of workers.
// Returns an error if the worker count exceeds MaxWorkers.
func NewWorkerPool(workers int, opts ...Option) (*WorkerPool, error) {
	if workers <= 0 {
		workers = 1
	}

	// Prevent overflow in buffer size calculation
	if workers > MaxWorkers {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyWorkers, workers, MaxWorkers)
	}

	pool := &WorkerPool{
		workers:   workers,
		taskQueue: make(chan func(), workers*2), // Buffer for 2x workers
		logger:    logging.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(pool)
	}

	pool.start()
	return pool, nil
}

// Workers returns the number of worker goroutines.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// start initializes the worker goroutines
func (wp *WorkerPool) start() {
	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker()
	}
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		wp.run(task)
	}
}

// run executes one task; a panic is recovered so the worker survives.
func (wp *WorkerPool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			wp.logger.Error("worker panic recovered", logging.Any("panic", r))
			if wp.onPanic != nil {
				wp.onPanic(r)
			}
		}
	}()
	task()
}

// Submit adds a task to the worker pool
// Returns false if the pool is closed, true if task was submitted
func (wp *WorkerPool) Submit(task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	// Check if pool is closed while holding read lock
	if wp.closed {
		return false
	}

	// Safe to send because we hold the lock and pool is not closed
	wp.taskQueue <- task
	return true
}

// SubmitContext is Submit that gives up when ctx is done before the task
// could be queued.
func (wp *WorkerPool) SubmitContext(ctx context.Context, task func()) bool {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed || ctx.Err() != nil {
		return false
	}

	select {
	case wp.taskQueue <- task:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.once.Do(func() {
		// Acquire write lock before closing
		wp.mu.Lock()
		wp.closed = true
		close(wp.taskQueue)
		wp.mu.Unlock()
	})
	wp.wg.Wait()
}

// Wait waits for all submitted tasks to complete
func (wp *WorkerPool) Wait() {
	// Close the queue and wait for workers to finish
	wp.Close()
}

// Map runs fn for every index in [0, n) on a pool of the given size and
// waits for completion. Indices are submitted in order; once ctx is done no
// further index is submitted and ctx.Err() is returned. Results are written
// by fn, typically into a pre-sized slice at its own index.
func Map(ctx context.Context, workers, n int, fn func(i int), opts ...Option) error {
	pool, err := NewWorkerPool(workers, opts...)
	if err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		i := i
		if !pool.SubmitContext(ctx, func() { fn(i) }) {
			break
		}
	}
	pool.Wait()
	return ctx.Err()
}
