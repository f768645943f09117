package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Job is a unit of work submitted to the pool.
type Job func()

// WorkingPool fans submitted jobs out over a fixed number of workers.
type WorkingPool struct {
	name    string
	jobs    chan Job
	workers int
	wg      sync.WaitGroup
}

func NewWorkingPool(name string, workers, queueSize int) *WorkingPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkingPool{
		name:    name,
		jobs:    make(chan Job, queueSize),
		workers: workers,
	}
}

// Run starts the workers and blocks until ctx is cancelled and the queue
// drains.
func (p *WorkingPool) Run(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
	p.wg.Wait()
}

func (p *WorkingPool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobs:
			p.runJob(job, id)
		case <-ctx.Done():
			slog.Info("worker shutting down", "pool", p.name, "worker", id)
			return
		}
	}
}

func (p *WorkingPool) runJob(job Job, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "pool", p.name, "worker", workerID, "panic", r)
		}
	}()
	job()
}

// SubmitJob queues a job without blocking; a full queue drops the job, which
// for periodic refresh work just means the next tick covers it.
func (p *WorkingPool) SubmitJob(job Job) {
	select {
	case p.jobs <- job:
	default:
		slog.Warn("job queue full, dropping job", "pool", p.name)
	}
}
