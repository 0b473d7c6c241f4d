// Package worker runs the background half of the meetings service: a pool of
// goroutines draining the processing queue plus a periodic sweep that
// reconciles meetings left mid-pipeline by a crashed worker.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/attendly/backend/pkg/logger"
	"github.com/attendly/backend/pkg/metrics"
	"github.com/attendly/backend/pkg/queue"
	"github.com/attendly/backend/services/meetings/usecase"
)

type Config struct {
	Workers        int
	SweepInterval  time.Duration
	StuckThreshold time.Duration
}

type Pool struct {
	usecase usecase.Usecase
	jobs    queue.Queue
	metrics *metrics.Metrics
	cfg     Config

	wg sync.WaitGroup
}

func New(uc usecase.Usecase, jobs queue.Queue, m *metrics.Metrics, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = 5 * time.Minute
	}
	if cfg.StuckThreshold <= 0 {
		cfg.StuckThreshold = 30 * time.Minute
	}

	return &Pool{
		usecase: uc,
		jobs:    jobs,
		metrics: m,
		cfg:     cfg,
	}
}

// Start launches the workers and the sweep loop. They all stop when ctx is
// cancelled; call Wait to block until in-flight jobs finish.
func (p *Pool) Start(ctx context.Context) {
	log := logger.FromContext(ctx)
	log.Info("starting worker pool",
		"workers", p.cfg.Workers,
		"sweep_interval", p.cfg.SweepInterval)

	for i := 0; i < p.cfg.Workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(ctx, id)
		}(i)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.sweep(ctx)
	}()
}

// Wait blocks until all workers have returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) run(ctx context.Context, id int) {
	log := logger.FromContext(ctx).With("worker", id)
	ctx = logger.WithContext(ctx, log)

	for {
		job, err := p.jobs.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopping")
				return
			}
			log.Error("failed to dequeue job", "error", err)
			continue
		}

		p.observeDepth(ctx)

		if err := p.usecase.ProcessMeeting(ctx, job.MeetingID, job.OwnerID); err != nil {
			log.Error("job failed", "error", err, "meeting_id", job.MeetingID)
		}

		// Ack regardless of outcome: the meeting row carries the failure
		// state, so retrying the job would be a no-op against the claim.
		if err := p.jobs.Ack(ctx, *job); err != nil {
			log.Error("failed to ack job", "error", err, "job_id", job.ID)
		}
	}
}

func (p *Pool) sweep(ctx context.Context) {
	log := logger.FromContext(ctx)

	ticker := time.NewTicker(p.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := p.usecase.ReconcileStuck(ctx, p.cfg.StuckThreshold)
			if err != nil {
				log.Error("stuck meeting sweep failed", "error", err)
				continue
			}
			if count > 0 {
				log.Warn("swept stuck meetings", "count", count)
			}
			p.observeDepth(ctx)
		}
	}
}

func (p *Pool) observeDepth(ctx context.Context) {
	if depth, err := p.jobs.Len(ctx); err == nil {
		p.metrics.QueueDepth.Set(float64(depth))
	}
}
