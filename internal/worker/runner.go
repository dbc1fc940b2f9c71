package worker

import (
	"context"
	"sync"
	"time"

	"payment-gateway/internal/core/ports"

	"github.com/rs/zerolog"
)

// Handler processes one dequeued job payload. A non-nil error marks the
// job failed in the queue counters.
type Handler func(ctx context.Context, payload []byte) error

// Runner drives a pool of consumers against one queue. At-least-once
// semantics come from the queue; handlers must tolerate redelivery.
type Runner struct {
	queue       ports.Queue
	handler     Handler
	concurrency int
	log         zerolog.Logger
}

// NewRunner creates a consumer pool for the given queue.
func NewRunner(queue ports.Queue, handler Handler, concurrency int, log zerolog.Logger) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		queue:       queue,
		handler:     handler,
		concurrency: concurrency,
		log:         log.With().Str("queue", queue.Name()).Logger(),
	}
}

// Run consumes jobs until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < r.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.consume(ctx)
		}()
	}
	r.log.Info().Int("concurrency", r.concurrency).Msg("worker pool started")
	wg.Wait()
	r.log.Info().Msg("worker pool stopped")
}

func (r *Runner) consume(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		payload, err := r.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.log.Error().Err(err).Msg("dequeue failed")
			// Back off briefly so a broken Redis doesn't spin the loop.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if payload == nil {
			continue
		}

		jobErr := r.handler(ctx, payload)
		if jobErr != nil {
			r.log.Error().Err(jobErr).Msg("job failed")
		}
		if err := r.queue.Done(ctx, jobErr); err != nil {
			r.log.Warn().Err(err).Msg("reporting job outcome failed")
		}
	}
}
