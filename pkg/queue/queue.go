// Package queue provides the durable job queue that decouples uploads from
// background processing.
package queue

import (
	"context"
	"time"
)

// Job is one unit of background work, keyed by meeting id.
type Job struct {
	ID         string    `json:"id"`
	MeetingID  string    `json:"meeting_id"`
	OwnerID    string    `json:"owner_id"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

type Queue interface {
	// Enqueue adds a job. The write is durable before Enqueue returns.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available or the context is done. A
	// dequeued job stays parked on a processing list until Ack.
	Dequeue(ctx context.Context) (*Job, error)

	// Ack removes a finished job from the processing list.
	Ack(ctx context.Context, job Job) error

	// Len reports the number of waiting jobs.
	Len(ctx context.Context) (int64, error)
}
