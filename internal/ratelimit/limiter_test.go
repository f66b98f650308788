package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock advances instead of sleeping, so window behavior is testable
// without wall-clock waits.
type fakeClock struct {
	mu     sync.Mutex
	t      time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.t
}

func (c *fakeClock) sleep(_ context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sleeps = append(c.sleeps, d)
	c.t = c.t.Add(d)

	return nil
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.t = c.t.Add(d)
}

func TestLimiter_AllowsBurstUpToMax(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(5, time.Second, WithClock(clock.now, clock.sleep))

	for i := 0; i < 5; i++ {
		err := l.Execute(context.Background(), func() error { return nil })
		require.NoError(t, err)
	}

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 5, l.InFlight())
}

func TestLimiter_SleepsRemainderOfWindowWhenFull(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(2, time.Second, WithClock(clock.now, clock.sleep))

	for i := 0; i < 2; i++ {
		require.NoError(t, l.Execute(context.Background(), func() error { return nil }))
	}

	clock.advance(300 * time.Millisecond)

	require.NoError(t, l.Execute(context.Background(), func() error { return nil }))

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 700*time.Millisecond, clock.sleeps[0])
}

func TestLimiter_WindowSlides(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(2, time.Second, WithClock(clock.now, clock.sleep))

	require.NoError(t, l.Execute(context.Background(), func() error { return nil }))
	require.NoError(t, l.Execute(context.Background(), func() error { return nil }))

	clock.advance(1100 * time.Millisecond)

	// Both earlier requests have left the window; no sleep needed.
	require.NoError(t, l.Execute(context.Background(), func() error { return nil }))
	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 1, l.InFlight())
}

func TestLimiter_PropagatesFnError(t *testing.T) {
	clock := newFakeClock()
	l := NewLimiter(5, time.Second, WithClock(clock.now, clock.sleep))

	boom := errors.New("boom")
	err := l.Execute(context.Background(), func() error { return boom })
	assert.ErrorIs(t, err, boom)
}

func TestLimiter_CancelledContextAbandonsWait(t *testing.T) {
	clock := newFakeClock()
	sleepErr := func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	l := NewLimiter(1, time.Second, WithClock(clock.now, sleepErr))

	require.NoError(t, l.Execute(context.Background(), func() error { return nil }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := l.Execute(ctx, func() error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestLimiter_FIFOUnderContention(t *testing.T) {
	// Real clock, tiny window: order of completion must match arrival order.
	l := NewLimiter(1, 5*time.Millisecond)

	var (
		mu    sync.Mutex
		order []int
		wg    sync.WaitGroup
	)

	start := make(chan struct{})

	for i := 0; i < 4; i++ {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()
			<-start

			// Stagger arrivals so queue order is deterministic.
			time.Sleep(time.Duration(n) * 2 * time.Millisecond)

			_ = l.Execute(context.Background(), func() error {
				mu.Lock()
				order = append(order, n)
				mu.Unlock()

				return nil
			})
		}(i)
	}

	close(start)
	wg.Wait()

	assert.Equal(t, []int{0, 1, 2, 3}, order)
}

func TestNewLimiter_Defaults(t *testing.T) {
	l := NewLimiter(0, 0)

	assert.Equal(t, DefaultMaxRequests, l.maxRequests)
	assert.Equal(t, DefaultWindow, l.window)
}
