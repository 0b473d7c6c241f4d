package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefixes
const (
	keyPrefixQueue      = "queue:"      // waiting jobs (list)
	keyPrefixProcessing = "processing:" // jobs being processed
)

const dequeueBlock = 5 * time.Second

// RedisQueue implements Queue on Redis lists. Jobs move from the waiting list
// to a processing list on dequeue so a crashed worker leaves a visible trace
// instead of silently dropping the job.
type RedisQueue struct {
	client *redis.Client
	name   string
}

func NewRedisQueue(client *redis.Client, name string) *RedisQueue {
	return &RedisQueue{
		client: client,
		name:   name,
	}
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LPush(ctx, keyPrefixQueue+q.name, payload).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		payload, err := q.client.BLMove(ctx,
			keyPrefixQueue+q.name,
			keyPrefixProcessing+q.name,
			"RIGHT", "LEFT",
			dequeueBlock,
		).Result()
		if errors.Is(err, redis.Nil) {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to dequeue job: %w", err)
		}

		var job Job
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			// Unreadable payload: drop it from processing, keep serving.
			q.client.LRem(ctx, keyPrefixProcessing+q.name, 1, payload)
			return nil, fmt.Errorf("failed to unmarshal job: %w", err)
		}
		return &job, nil
	}
}

func (q *RedisQueue) Ack(ctx context.Context, job Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	if err := q.client.LRem(ctx, keyPrefixProcessing+q.name, 1, payload).Err(); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, keyPrefixQueue+q.name).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue length: %w", err)
	}
	return n, nil
}
