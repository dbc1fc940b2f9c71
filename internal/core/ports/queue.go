package ports

import (
	"context"
	"time"
)

// QueueStats holds per-queue job counts for health/status reporting.
type QueueStats struct {
	Waiting   int64 `json:"waiting"`
	Delayed   int64 `json:"delayed"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// Queue is a durable, at-least-once FIFO/delayed job channel. Every
// component that enqueues or consumes jobs goes through this capability;
// payloads carry identifiers plus minimal context, never mutable state.
type Queue interface {
	// Enqueue appends a job for immediate consumption.
	Enqueue(ctx context.Context, payload []byte) error
	// EnqueueIn schedules a job to become consumable after delay.
	EnqueueIn(ctx context.Context, payload []byte, delay time.Duration) error
	// Dequeue blocks briefly for the next ready job. Returns nil, nil when
	// no job became ready before the internal timeout.
	Dequeue(ctx context.Context) ([]byte, error)
	// Done reports the outcome of the job most recently dequeued by this
	// consumer, feeding the completed/failed counters.
	Done(ctx context.Context, jobErr error) error
	Stats(ctx context.Context) (QueueStats, error)
	Name() string
}
