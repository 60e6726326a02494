package scraper

import (
	"context"
	"sync"
)

type Task struct {
	ID  string
	Run func(ctx context.Context) error
}

type Result struct {
	ID  string
	Err error
}

// WorkerPool runs tasks on a fixed number of goroutines fed by a bounded
// queue. Each task gets a worker to itself until it returns.
type WorkerPool struct {
	workers int
	tasks   chan Task
	wg      sync.WaitGroup
	mu      sync.RWMutex
	closed  bool
}

func NewWorkerPool(workers, buffer int) *WorkerPool {
	if workers <= 0 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	return &WorkerPool{
		workers: workers,
		tasks:   make(chan Task, buffer),
	}
}

func (p *WorkerPool) Workers() int { return p.workers }

// Submit blocks until a worker or a queue slot accepts t.
func (p *WorkerPool) Submit(ctx context.Context, t Task) bool {
	if p == nil || t.Run == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- t:
		return true
	case <-ctx.Done():
		return false
	}
}

// TrySubmit enqueues t only if there is room right now.
func (p *WorkerPool) TrySubmit(t Task) bool {
	if p == nil || t.Run == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- t:
		return true
	default:
		return false
	}
}

// Close stops intake. Queued tasks still run.
func (p *WorkerPool) Close() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	close(p.tasks)
}

// Run starts the workers. The returned channel is closed once every worker
// has exited, after Close or when ctx ends.
func (p *WorkerPool) Run(ctx context.Context) <-chan Result {
	buf := p.workers * 64
	out := make(chan Result, buf)

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case t, ok := <-p.tasks:
					if !ok {
						return
					}
					err := t.Run(ctx)
					select {
					case out <- Result{ID: t.ID, Err: err}:
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		p.wg.Wait()
		close(out)
	}()

	return out
}
