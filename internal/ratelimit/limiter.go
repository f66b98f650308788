// Package ratelimit bounds outbound catalog API calls to a sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// DefaultMaxRequests is the per-window cap matching the catalog API's
	// documented limit.
	DefaultMaxRequests = 40

	// DefaultWindow is the sliding window the cap applies to.
	DefaultWindow = time.Second
)

// Limiter serializes calls and enforces at most maxRequests within any sliding
// window. Callers block in FIFO order; when the window is full the limiter
// sleeps out the remainder before running the next call.
type Limiter struct {
	maxRequests int
	window      time.Duration

	mu         sync.Mutex
	timestamps []time.Time
	queue      chan struct{}

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock and sleeper, for tests.
func WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(l *Limiter) {
		l.now = now
		l.sleep = sleep
	}
}

// NewLimiter creates a Limiter. maxRequests <= 0 or window <= 0 fall back to
// the defaults.
func NewLimiter(maxRequests int, window time.Duration, opts ...Option) *Limiter {
	if maxRequests <= 0 {
		maxRequests = DefaultMaxRequests
	}

	if window <= 0 {
		window = DefaultWindow
	}

	l := &Limiter{
		maxRequests: maxRequests,
		window:      window,
		timestamps:  make([]time.Time, 0, maxRequests),
		queue:       make(chan struct{}, 1),
		now:         time.Now,
		sleep:       sleepCtx,
	}

	// One permanent slot: Execute callers contend on the channel, which hands
	// the window out in FIFO arrival order.
	l.queue <- struct{}{}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Execute runs fn once the sliding window has room, preserving the callers'
// arrival order. A cancelled context abandons the wait, not a running fn.
func (l *Limiter) Execute(ctx context.Context, fn func() error) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait: %w", ctx.Err())
	case token := <-l.queue:
		defer func() { l.queue <- token }()
	}

	if err := l.waitForSlot(ctx); err != nil {
		return err
	}

	return fn()
}

// waitForSlot blocks until a request may start, then records it.
func (l *Limiter) waitForSlot(ctx context.Context) error {
	for {
		wait := l.reserve()
		if wait <= 0 {
			return nil
		}

		if err := l.sleep(ctx, wait); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}
}

// reserve prunes expired timestamps and either records the request (returning
// zero) or returns how long until the oldest in-window request expires.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	kept := l.timestamps[:0]
	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	l.timestamps = kept

	if len(l.timestamps) < l.maxRequests {
		l.timestamps = append(l.timestamps, now)

		return 0
	}

	return l.timestamps[0].Add(l.window).Sub(now)
}

// InFlight reports how many requests are currently inside the window.
func (l *Limiter) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.window)
	count := 0

	for _, ts := range l.timestamps {
		if ts.After(cutoff) {
			count++
		}
	}

	return count
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
