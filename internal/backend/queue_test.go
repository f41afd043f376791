package backend

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_ConcurrencyLimit(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 2})

	var current, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := q.Do(context.Background(), func(ctx context.Context) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				current.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int64(2))
	assert.Equal(t, 0, q.Depth())
}

func TestQueue_DepthBoundRejects(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 1, MaxDepth: 2})

	release := make(chan struct{})
	running := make(chan struct{})
	var wg sync.WaitGroup

	// One task running, one waiting; together they fill the depth bound.
	wg.Add(2)
	go func() {
		defer wg.Done()
		_ = q.Do(context.Background(), func(ctx context.Context) error {
			close(running)
			<-release
			return nil
		})
	}()
	<-running
	go func() {
		defer wg.Done()
		_ = q.Do(context.Background(), func(ctx context.Context) error { return nil })
	}()

	require.Eventually(t, func() bool { return q.Depth() == 2 }, time.Second, time.Millisecond)

	err := q.Do(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrQueueFull)

	close(release)
	wg.Wait()
	assert.Equal(t, 0, q.Depth())
}

func TestQueue_CancelWhileWaiting(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 1})

	release := make(chan struct{})
	running := make(chan struct{})
	go func() {
		_ = q.Do(context.Background(), func(ctx context.Context) error {
			close(running)
			<-release
			return nil
		})
	}()
	<-running
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := q.Do(ctx, func(ctx context.Context) error {
		t.Error("task must not run after its context expired")
		return nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestQueue_RateWindow(t *testing.T) {
	// One request per minute with the burst already spent: the second call
	// cannot be admitted before its short deadline.
	q := NewQueue(QueueConfig{Concurrency: 1, RequestsPerMinute: 1})

	require.NoError(t, q.Do(context.Background(), func(ctx context.Context) error { return nil }))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := q.Do(ctx, func(ctx context.Context) error {
		t.Error("task must not run inside the rate window")
		return nil
	})
	assert.Error(t, err)
}

func TestQueue_NoRateLimitByDefault(t *testing.T) {
	q := NewQueue(QueueConfig{Concurrency: 4})

	for i := 0; i < 20; i++ {
		require.NoError(t, q.Do(context.Background(), func(ctx context.Context) error { return nil }))
	}
}

func TestQueue_ErrorsPassThrough(t *testing.T) {
	q := NewQueue(QueueConfig{})

	sentinel := assert.AnError
	err := q.Do(context.Background(), func(ctx context.Context) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}
