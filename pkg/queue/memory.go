package queue

import (
	"context"
	"sync"
)

// MemoryQueue is a process-local Queue used in tests and single-node setups
// where Redis is not configured.
type MemoryQueue struct {
	mu      sync.Mutex
	jobs    chan Job
	pending map[string]Job
}

func NewMemoryQueue(capacity int) *MemoryQueue {
	return &MemoryQueue{
		jobs:    make(chan Job, capacity),
		pending: make(map[string]Job),
	}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case job := <-q.jobs:
		q.mu.Lock()
		q.pending[job.ID] = job
		q.mu.Unlock()
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *MemoryQueue) Ack(_ context.Context, job Job) error {
	q.mu.Lock()
	delete(q.pending, job.ID)
	q.mu.Unlock()
	return nil
}

func (q *MemoryQueue) Len(_ context.Context) (int64, error) {
	return int64(len(q.jobs)), nil
}
