// Package workerpool runs tasks on a fixed number of long-lived goroutines.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/specialistvlad/atlasgrid/internal/ctxlog"
)

// ErrClosed is returned when submitting to a pool that has been closed.
var ErrClosed = errors.New("worker pool is closed")

// DefaultSize is the number of workers used when a non-positive size is given.
const DefaultSize = 2

// Task is a unit of work. It receives the pool's context, which carries the
// worker's logger.
type Task func(ctx context.Context)

// Pool is a bounded set of workers fed from a queue as deep as the pool.
type Pool struct {
	name  string
	size  int
	tasks chan Task
	wg    sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// New starts size workers. They stop after Close once the queue has drained.
func New(ctx context.Context, name string, size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	p := &Pool{
		name:  name,
		size:  size,
		tasks: make(chan Task, size),
	}
	p.wg.Add(size)
	for i := range size {
		go p.worker(ctx, i+1)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return p.size }

// Submit queues task, blocking while the queue is full.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySubmit queues task only if a slot is free.
func (p *Pool) TrySubmit(task Task) (bool, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false, ErrClosed
	}
	select {
	case p.tasks <- task:
		return true, nil
	default:
		return false, nil
	}
}

// Close stops accepting tasks and waits for queued and running ones.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()
	p.wg.Wait()
}

// worker is the processing loop for a single worker.
func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()
	ctx = ctxlog.With(ctx, "pool", p.name, "workerID", workerID)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.")

	for task := range p.tasks {
		p.run(ctx, task)
	}
	logger.Debug("Worker stopped.")
}

func (p *Pool) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			ctxlog.FromContext(ctx).Error("Task panicked.", "error", fmt.Sprint(r))
		}
	}()
	task(ctx)
}
