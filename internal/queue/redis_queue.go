package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"async-job-dispatcher/internal/config"
	"async-job-dispatcher/internal/models"
)

// RedisQueue is the fire-and-forget hand-off between the submission service
// and the job runner. Enqueue is the dispatch acknowledgment: once the push
// succeeds the submitter is done, and nothing tracks the job in flight.
type RedisQueue struct {
	client   *redis.Client
	queueKey string
}

// NewRedisQueue builds a queue client from config.
func NewRedisQueue(cfg config.Config) *RedisQueue {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisQueueWithClient(client, cfg.DispatchQueue)
}

// NewRedisQueueWithClient wires an existing client, used by tests.
func NewRedisQueueWithClient(client *redis.Client, queueKey string) *RedisQueue {
	if queueKey == "" {
		queueKey = "dispatch:ready"
	}
	return &RedisQueue{client: client, queueKey: queueKey}
}

// Dispatch pushes a job onto the ready list. The delay travels with the id so
// the runner needs no store round-trip to honor it.
func (q *RedisQueue) Dispatch(ctx context.Context, id string, delay int) error {
	payload, err := json.Marshal(models.Dispatch{ID: id, Delay: delay})
	if err != nil {
		return fmt.Errorf("marshal dispatch: %w", err)
	}
	if err := q.client.RPush(ctx, q.queueKey, payload).Err(); err != nil {
		return fmt.Errorf("push dispatch: %w", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next dispatch. A nil result with nil
// error means the wait timed out with nothing to do.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*models.Dispatch, error) {
	res, err := q.client.BLPop(ctx, timeout, q.queueKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop dispatch: %w", err)
	}
	// BLPop returns [key, value].
	if len(res) < 2 {
		return nil, fmt.Errorf("unexpected blpop reply: %v", res)
	}
	var d models.Dispatch
	if err := json.Unmarshal([]byte(res[1]), &d); err != nil {
		return nil, fmt.Errorf("unmarshal dispatch: %w", err)
	}
	return &d, nil
}

// Depth returns the number of dispatches waiting for a runner.
func (q *RedisQueue) Depth(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.queueKey).Result()
}
