// Package worker provides the bounded concurrency primitives for check
// execution: a worker pool that preserves each task's document position
// and a per-domain rate limiter for outbound fetches.
package worker

import (
	"context"
	"sync"
)

// Task is a unit of work. Index is the task's position in the caller's
// ordering, carried through so results can be restored to document
// order regardless of completion order.
type Task interface {
	Index() int
	Run(ctx context.Context) Result
}

// Result is the outcome of one task.
type Result interface {
	Index() int
}

// Pool runs tasks on a fixed number of workers. Completed results are
// collected internally, so workers never block on a full output channel
// while the caller is still submitting.
type Pool struct {
	workers int
	tasks   chan Task

	mu        sync.Mutex
	collected []Result

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// NewPool creates a pool bounded to the given worker count. The parent
// context cancels in-flight tasks when the run is aborted.
func NewPool(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers*2),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			result := task.Run(p.ctx)
			p.mu.Lock()
			p.collected = append(p.collected, result)
			p.mu.Unlock()
		}
	}
}

// Submit queues a task. Submissions after cancellation are dropped.
func (p *Pool) Submit(task Task) {
	select {
	case <-p.ctx.Done():
	case p.tasks <- task:
	}
}

// Wait closes the queue, waits for the workers to drain it, and returns
// every result produced. On cancellation the returned slice holds only
// the tasks that completed.
func (p *Pool) Wait() []Result {
	close(p.tasks)
	p.wg.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.collected
}

// Shutdown cancels in-flight tasks and releases the workers.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
}
