package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"payment-gateway/internal/core/ports"

	goredis "github.com/redis/go-redis/v9"
)

// promoteBatch bounds how many delayed jobs a single Dequeue call moves
// into the waiting list.
const promoteBatch = 100

// brpopTimeout keeps Dequeue from blocking indefinitely so consumers can
// observe context cancellation and promote newly due delayed jobs.
const brpopTimeout = time.Second

// promoteScript atomically moves delayed jobs whose ready-at score has
// passed into the waiting list, preserving schedule order.
var promoteScript = goredis.NewScript(`
local due = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, job in ipairs(due) do
  redis.call('LPUSH', KEYS[2], job)
  redis.call('ZREM', KEYS[1], job)
end
return #due
`)

// Queue implements ports.Queue on Redis. Immediate jobs live in a list
// consumed with BRPOP (FIFO); delayed jobs wait in a sorted set scored by
// their ready-at time in unix milliseconds and are promoted into the list
// once due. Counters track active, completed and failed jobs for status
// reporting. Delivery is at-least-once: a consumer crash between BRPOP
// and Done can redeliver work, so all job handlers must be idempotent.
type Queue struct {
	client *goredis.Client
	name   string

	waitingKey   string
	delayedKey   string
	activeKey    string
	completedKey string
	failedKey    string
}

// NewQueue creates a named Redis-backed job queue.
func NewQueue(client *goredis.Client, name string) *Queue {
	prefix := "queue:" + name + ":"
	return &Queue{
		client:       client,
		name:         name,
		waitingKey:   prefix + "waiting",
		delayedKey:   prefix + "delayed",
		activeKey:    prefix + "active",
		completedKey: prefix + "completed",
		failedKey:    prefix + "failed",
	}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

// Enqueue appends a job for immediate consumption.
func (q *Queue) Enqueue(ctx context.Context, payload []byte) error {
	if err := q.client.LPush(ctx, q.waitingKey, payload).Err(); err != nil {
		return fmt.Errorf("queue %s enqueue: %w", q.name, err)
	}
	return nil
}

// EnqueueIn schedules a job to become consumable after delay. A zero or
// negative delay is equivalent to Enqueue.
func (q *Queue) EnqueueIn(ctx context.Context, payload []byte, delay time.Duration) error {
	if delay <= 0 {
		return q.Enqueue(ctx, payload)
	}
	readyAt := float64(time.Now().Add(delay).UnixMilli())
	err := q.client.ZAdd(ctx, q.delayedKey, goredis.Z{Score: readyAt, Member: payload}).Err()
	if err != nil {
		return fmt.Errorf("queue %s enqueue delayed: %w", q.name, err)
	}
	return nil
}

// Dequeue promotes due delayed jobs, then blocks briefly on the waiting
// list. Returns nil, nil when no job became ready before the timeout.
func (q *Queue) Dequeue(ctx context.Context) ([]byte, error) {
	if err := q.promoteDue(ctx); err != nil {
		return nil, err
	}

	vals, err := q.client.BRPop(ctx, brpopTimeout, q.waitingKey).Result()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue %s dequeue: %w", q.name, err)
	}
	// BRPOP returns [key, value]
	if err := q.client.Incr(ctx, q.activeKey).Err(); err != nil {
		return nil, fmt.Errorf("queue %s mark active: %w", q.name, err)
	}
	return []byte(vals[1]), nil
}

// Done reports the outcome of the most recently dequeued job.
func (q *Queue) Done(ctx context.Context, jobErr error) error {
	outcomeKey := q.completedKey
	if jobErr != nil {
		outcomeKey = q.failedKey
	}
	pipe := q.client.TxPipeline()
	pipe.Decr(ctx, q.activeKey)
	pipe.Incr(ctx, outcomeKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("queue %s done: %w", q.name, err)
	}
	return nil
}

// Stats returns the current per-queue job counts.
func (q *Queue) Stats(ctx context.Context) (ports.QueueStats, error) {
	pipe := q.client.Pipeline()
	waiting := pipe.LLen(ctx, q.waitingKey)
	delayed := pipe.ZCard(ctx, q.delayedKey)
	active := pipe.Get(ctx, q.activeKey)
	completed := pipe.Get(ctx, q.completedKey)
	failed := pipe.Get(ctx, q.failedKey)
	if _, err := pipe.Exec(ctx); err != nil && err != goredis.Nil {
		return ports.QueueStats{}, fmt.Errorf("queue %s stats: %w", q.name, err)
	}

	return ports.QueueStats{
		Waiting:   waiting.Val(),
		Delayed:   delayed.Val(),
		Active:    counterVal(active),
		Completed: counterVal(completed),
		Failed:    counterVal(failed),
	}, nil
}

func (q *Queue) promoteDue(ctx context.Context) error {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	keys := []string{q.delayedKey, q.waitingKey}
	if err := promoteScript.Run(ctx, q.client, keys, now, promoteBatch).Err(); err != nil {
		return fmt.Errorf("queue %s promote delayed: %w", q.name, err)
	}
	return nil
}

func counterVal(cmd *goredis.StringCmd) int64 {
	n, err := cmd.Int64()
	if err != nil {
		return 0
	}
	return n
}
