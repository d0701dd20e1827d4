package oracleworker

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// JobQueue is the worker's view of the upstream job queue: pop one job
// from the head with a bounded wait. An empty queue is a normal,
// frequent condition signalled by a nil job, not an error.
type JobQueue interface {
	// Dequeue blocks up to the configured poll timeout and returns
	// the next job, or nil when none arrived in time.
	Dequeue(ctx context.Context) (*Job, error)
	Close() error
}

// RedisJobQueue consumes jobs from a Redis list. Multiple consumer
// processes may share the list; BLPOP's pop-once semantics provide the
// mutual exclusion.
type RedisJobQueue struct {
	client      *redis.Client
	key         string
	pollTimeout time.Duration
}

// NewRedisJobQueue wraps a Redis client as a job queue.
func NewRedisJobQueue(client *redis.Client, key string, pollTimeout time.Duration) *RedisJobQueue {
	if pollTimeout <= 0 {
		pollTimeout = 5 * time.Second
	}
	return &RedisJobQueue{client: client, key: key, pollTimeout: pollTimeout}
}

// Dequeue pops the head of the list. Malformed payloads surface as
// ErrMalformedJob so the consumer can drop them without treating the
// queue itself as unhealthy.
func (q *RedisJobQueue) Dequeue(ctx context.Context) (*Job, error) {
	vals, err := q.client.BLPop(ctx, q.pollTimeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "queue pop")
	}
	// BLPOP returns [key, value].
	if len(vals) < 2 {
		return nil, errors.Wrap(ErrMalformedJob, "unexpected BLPOP reply shape")
	}
	return ParseJob([]byte(vals[1]))
}

// Close releases the underlying connection pool.
func (q *RedisJobQueue) Close() error {
	return q.client.Close()
}
