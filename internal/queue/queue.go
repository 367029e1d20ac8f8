package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const (
	// queueKeyPrefix namespaces the per-type job lists in Redis
	queueKeyPrefix = "queue:"

	// jobTTL bounds how long job detail hashes live in Redis
	jobTTL = 24 * time.Hour
)

// RedisQueue is a Redis-list-backed job queue. Producers LPush serialized
// jobs onto a per-type list; workers BRPop from the other end.
type RedisQueue struct {
	client *redis.Client

	mu       sync.RWMutex
	handlers map[JobType]JobHandler
}

// NewRedisQueue creates a new Redis queue
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{
		client:   client,
		handlers: make(map[JobType]JobHandler),
	}
}

// RegisterHandler registers the handler for a job type
func (q *RedisQueue) RegisterHandler(jobType JobType, handler JobHandler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[jobType] = handler
}

// Handler returns the registered handler for a job type
func (q *RedisQueue) Handler(jobType JobType) (JobHandler, bool) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	h, ok := q.handlers[jobType]
	return h, ok
}

// JobTypes returns all job types with registered handlers
func (q *RedisQueue) JobTypes() []JobType {
	q.mu.RLock()
	defer q.mu.RUnlock()
	types := make([]JobType, 0, len(q.handlers))
	for t := range q.handlers {
		types = append(types, t)
	}
	return types
}

// Enqueue adds a job to the queue for its type
func (q *RedisQueue) Enqueue(ctx context.Context, jobType JobType, payload interface{}) (string, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	job := Job{
		ID:         uuid.New().String(),
		Type:       jobType,
		Payload:    payloadBytes,
		Status:     JobStatusPending,
		MaxRetries: DefaultMaxRetries,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}

	return job.ID, q.push(ctx, job)
}

// push serializes a job and adds it to its list
func (q *RedisQueue) push(ctx context.Context, job Job) error {
	jobBytes, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	key := queueKeyPrefix + string(job.Type)
	if err := q.client.LPush(ctx, key, jobBytes).Err(); err != nil {
		return fmt.Errorf("failed to push job to queue: %w", err)
	}

	// Keep job details around for inspection
	if err := q.client.HSet(ctx, "jobs:"+job.ID, "data", jobBytes).Err(); err != nil {
		return fmt.Errorf("failed to store job details: %w", err)
	}
	return q.client.Expire(ctx, "jobs:"+job.ID, jobTTL).Err()
}

// Dequeue blocks until a job is available on one of the given type lists or
// the timeout elapses. Returns nil when nothing was available.
func (q *RedisQueue) Dequeue(ctx context.Context, jobTypes []JobType, timeout time.Duration) (*Job, error) {
	keys := make([]string, len(jobTypes))
	for i, t := range jobTypes {
		keys[i] = queueKeyPrefix + string(t)
	}

	result, err := q.client.BRPop(ctx, timeout, keys...).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	// BRPop returns [key, value]
	var job Job
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

// Retry re-enqueues a failed job with its retry count incremented
func (q *RedisQueue) Retry(ctx context.Context, job Job) error {
	job.RetryCount++
	job.Status = JobStatusPending
	job.UpdatedAt = time.Now()
	return q.push(ctx, job)
}
