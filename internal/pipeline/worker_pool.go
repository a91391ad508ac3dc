package pipeline

import (
	"context"
	"sync"
)

type Task func(ctx context.Context) error

type Result struct {
	Index int
	Err   error
}

// WorkerPool runs submitted tasks on a fixed number of goroutines. Submit all
// tasks, Close, then drain the channel returned by Run.
type WorkerPool struct {
	workers int
	tasks   chan indexedTask
	next    int
	wg      sync.WaitGroup
}

type indexedTask struct {
	index int
	run   Task
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
		tasks:   make(chan indexedTask, buffer),
	}
}

// Submit queues t and returns its index in submission order.
func (p *WorkerPool) Submit(t Task) int {
	if p == nil || t == nil {
		return -1
	}
	idx := p.next
	p.next++
	p.tasks <- indexedTask{index: idx, run: t}
	return idx
}

func (p *WorkerPool) Close() {
	if p == nil {
		return
	}
	close(p.tasks)
}

func (p *WorkerPool) Run(ctx context.Context) <-chan Result {
	if p == nil {
		out := make(chan Result)
		close(out)
		return out
	}
	out := make(chan Result, p.workers)

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
					err := t.run(ctx)
					select {
					case <-ctx.Done():
						return
					case out <- Result{Index: t.index, Err: err}:
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
