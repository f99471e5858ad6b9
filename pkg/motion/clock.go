package motion

import (
	"context"
	"time"
)

// Clock is a monotonic time source that can sleep.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Timer measures elapsed time from its last reset.
type Timer struct {
	clock Clock
	start time.Time
}

// NewTimer returns a timer started now.
func NewTimer(c Clock) *Timer {
	return &Timer{clock: c, start: c.Now()}
}

// Reset restarts the timer.
func (t *Timer) Reset() { t.start = t.clock.Now() }

// Elapsed returns the time since the last reset.
func (t *Timer) Elapsed() time.Duration { return t.clock.Now().Sub(t.start) }

// Yielder suspends the caller for one poll interval. It is the only point
// at which a running motion gives other work a chance to run.
type Yielder interface {
	Yield(ctx context.Context, d time.Duration) error
}

// YieldFunc adapts a function to a Yielder.
type YieldFunc func(ctx context.Context, d time.Duration) error

func (f YieldFunc) Yield(ctx context.Context, d time.Duration) error { return f(ctx, d) }

// SleepYielder yields by sleeping on a clock and doing nothing else.
func SleepYielder(c Clock) Yielder {
	return YieldFunc(c.Sleep)
}
