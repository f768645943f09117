package worker

import (
	"context"
	"log/slog"
	"time"
)

// JobScheduler fires every interval and submits its registered jobs to the
// pool. One scheduler drives all hazard refreshes; jobs run in parallel
// across hazards while each job keeps its own hazard's batch atomic.
type JobScheduler struct {
	Name   string
	Ticker *time.Ticker
	Jobs   []Job
	Pool   *WorkingPool
}

// NewJobScheduler creates a new scheduler.
func NewJobScheduler(name string, interval time.Duration, pool *WorkingPool) *JobScheduler {
	return &JobScheduler{
		Name:   name,
		Ticker: time.NewTicker(interval),
		Jobs:   make([]Job, 0),
		Pool:   pool,
	}
}

func (s *JobScheduler) AddJob(job Job) {
	s.Jobs = append(s.Jobs, job)
}

func (s *JobScheduler) Run(ctx context.Context) {
	slog.Info("scheduler running", "scheduler", s.Name, "jobs", len(s.Jobs))
	defer s.Ticker.Stop()

	// Fire once immediately so the board is populated before the first tick.
	for _, job := range s.Jobs {
		s.Pool.SubmitJob(job)
	}

	for {
		select {
		case <-s.Ticker.C:
			for _, job := range s.Jobs {
				s.Pool.SubmitJob(job)
			}
		case <-ctx.Done():
			slog.Info("scheduler shutting down", "scheduler", s.Name)
			return
		}
	}
}
