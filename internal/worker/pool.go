package worker

import (
	"context"
	"sync"
)

// Task is a unit of work. Tasks deliver results through their own
// closures (typically by writing to a caller-owned indexed slice), which
// keeps completion order and result order independent.
type Task func(ctx context.Context)

// Pool executes tasks on a bounded number of goroutines. A pool with
// one worker degenerates to sequential execution in submission order.
type Pool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewPool creates a pool. Worker counts below 1 are clamped to 1.
func NewPool(ctx context.Context, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	poolCtx, cancel := context.WithCancel(ctx)
	return &Pool{
		workers: workers,
		tasks:   make(chan Task, workers),
		ctx:     poolCtx,
		cancel:  cancel,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
}

func (p *Pool) run() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			// Re-check cancellation so queued tasks are abandoned even
			// when both select branches are ready.
			select {
			case <-p.ctx.Done():
				return
			default:
			}
			task(p.ctx)
		}
	}
}

// Submit enqueues a task. Submissions after cancellation are dropped.
func (p *Pool) Submit(task Task) {
	select {
	case <-p.ctx.Done():
	case p.tasks <- task:
	}
}

// Wait closes the queue and blocks until every submitted task finished.
func (p *Pool) Wait() {
	close(p.tasks)
	p.wg.Wait()
	p.cancel()
}

// Stop abandons queued work and waits for in-flight tasks.
func (p *Pool) Stop() {
	p.cancel()
	p.wg.Wait()
}
