// Package sim simulates the robot's mechanisms on a virtual clock so the
// motion core can run without hardware.
package sim

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Epoch is the virtual time at which every Clock starts.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type scheduled struct {
	at time.Time
	fn func()
}

// Clock is a virtual clock. Sleep advances virtual time immediately unless
// the clock is real-time, in which case it also waits on the wall clock.
// Listeners run on every advance so simulated mechanisms integrate motion.
type Clock struct {
	realtime bool

	mu        sync.Mutex
	now       time.Time
	listeners []func(now time.Time, dt time.Duration)
	pending   []scheduled
}

// NewClock returns a virtual clock that never blocks.
func NewClock() *Clock {
	return &Clock{now: Epoch}
}

// NewRealtimeClock returns a clock whose Sleep waits on the wall clock.
func NewRealtimeClock() *Clock {
	return &Clock{now: Epoch, realtime: true}
}

// Now returns the current virtual time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Since returns the virtual time elapsed since Epoch.
func (c *Clock) Since() time.Duration {
	return c.Now().Sub(Epoch)
}

// Sleep advances the clock by d.
func (c *Clock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.realtime {
		t := time.NewTimer(d)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
	c.Advance(d)
	return nil
}

// Advance moves virtual time forward by d, notifying listeners and running
// callbacks that became due.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	now := c.now
	listeners := append([]func(time.Time, time.Duration){}, c.listeners...)
	var due []scheduled
	rest := c.pending[:0]
	for _, s := range c.pending {
		if !s.at.After(now) {
			due = append(due, s)
		} else {
			rest = append(rest, s)
		}
	}
	c.pending = rest
	c.mu.Unlock()

	for _, l := range listeners {
		l(now, d)
	}
	for _, s := range due {
		s.fn()
	}
}

// OnAdvance registers a listener called after every advance.
func (c *Clock) OnAdvance(fn func(now time.Time, dt time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// At schedules fn to run once the virtual time since Epoch reaches offset.
func (c *Clock) At(offset time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = append(c.pending, scheduled{at: Epoch.Add(offset), fn: fn})
	sort.SliceStable(c.pending, func(i, j int) bool {
		return c.pending[i].at.Before(c.pending[j].at)
	})
}
