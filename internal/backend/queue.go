package backend

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrQueueFull is returned by Queue.Do when the queue is already holding
// its maximum number of admitted and waiting tasks.
var ErrQueueFull = errors.New("backend queue full")

const (
	// DefaultConcurrency is the number of calls a backend runs at once.
	DefaultConcurrency = 2

	// DefaultMaxDepth bounds admitted plus waiting tasks per queue.
	DefaultMaxDepth = 64
)

// QueueConfig tunes one backend's admission queue. Zero values select the
// defaults; RequestsPerMinute zero disables rate limiting.
type QueueConfig struct {
	Concurrency       int `yaml:"concurrency"`
	MaxDepth          int `yaml:"maxDepth"`
	RequestsPerMinute int `yaml:"requestsPerMinute"`
}

// Queue serializes access to one backend: FIFO slot acquisition with a
// concurrency limit, an overall depth bound, and an optional request-rate
// window. Queues are long-lived; one request's cancellation never
// disturbs work already admitted for other requests.
type Queue struct {
	sem      *semaphore.Weighted
	limiter  *rate.Limiter
	depth    atomic.Int64
	maxDepth int64
}

// NewQueue returns a queue ready for use.
func NewQueue(cfg QueueConfig) *Queue {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}

	q := &Queue{
		sem:      semaphore.NewWeighted(int64(cfg.Concurrency)),
		maxDepth: int64(cfg.MaxDepth),
	}
	if cfg.RequestsPerMinute > 0 {
		q.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), cfg.Concurrency)
	}
	return q
}

// Do admits fn to the queue and runs it once a slot is free and the rate
// window allows. It returns ErrQueueFull when the depth bound is hit and
// the context error if ctx is done while waiting.
func (q *Queue) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if q.depth.Add(1) > q.maxDepth {
		q.depth.Add(-1)
		return ErrQueueFull
	}
	defer q.depth.Add(-1)

	if err := q.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer q.sem.Release(1)

	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	return fn(ctx)
}

// Depth returns the number of tasks currently admitted or waiting.
func (q *Queue) Depth() int {
	return int(q.depth.Load())
}
