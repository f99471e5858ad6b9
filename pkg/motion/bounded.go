// Package motion implements the bounded motion primitive: run an actuator
// until a stop condition holds or a timeout expires, polling on a fixed
// interval, and always leave the actuator stopped in a known mode.
package motion

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AriaCoder/Axobotl/pkg/robot"
)

// DefaultPoll is the poll interval used when a Move leaves Poll unset.
const DefaultPoll = 20 * time.Millisecond

// Outcome is why a bounded run ended.
type Outcome int

const (
	// Satisfied means the stop condition held.
	Satisfied Outcome = iota
	// TimedOut means the timeout expired first. It is a normal exit.
	TimedOut
	// Canceled means the context ended the run.
	Canceled
)

func (o Outcome) String() string {
	switch o {
	case Satisfied:
		return "satisfied"
	case TimedOut:
		return "timeout"
	default:
		return "canceled"
	}
}

// Result describes a finished run.
type Result struct {
	Outcome Outcome
	Elapsed time.Duration
	Polls   int
}

// Move describes one bounded actuator command.
type Move struct {
	// Name labels the run in logs and metrics.
	Name      string
	Direction robot.Direction
	Timeout   time.Duration
	Poll      time.Duration
	// StopMode is applied before the final stop.
	StopMode robot.StopMode
	// Until stops the move when true. Nil runs until the timeout.
	Until Condition
}

// Observer is notified of every finished run.
type Observer interface {
	ObserveRun(name string, res Result)
}

// Runner executes bounded moves and waits.
type Runner struct {
	clock    Clock
	yield    Yielder
	log      zerolog.Logger
	observer Observer
}

// NewRunner returns a runner that measures time on clock and suspends
// through yield between polls.
func NewRunner(clock Clock, yield Yielder, log zerolog.Logger) *Runner {
	if yield == nil {
		yield = SleepYielder(clock)
	}
	return &Runner{clock: clock, yield: yield, log: log}
}

// WithObserver sets the run observer.
func (r *Runner) WithObserver(o Observer) *Runner {
	r.observer = o
	return r
}

// Clock returns the runner's clock.
func (r *Runner) Clock() Clock { return r.clock }

// Yield suspends for d through the runner's yielder.
func (r *Runner) Yield(ctx context.Context, d time.Duration) error {
	return r.yield.Yield(ctx, d)
}

// Run spins act in m.Direction until m.Until holds or m.Timeout elapses.
//
// The condition is checked before the actuator is started, so a condition
// that already holds issues no spin. On every exit, including cancellation,
// the stop mode is set and the actuator is stopped. The run never lasts
// longer than the timeout: the last sleep is shortened to land on it.
func (r *Runner) Run(ctx context.Context, act robot.Actuator, m Move) (Result, error) {
	spinning := false
	res, err := r.loop(ctx, m.Timeout, m.Poll, m.Until, func() {
		if !spinning {
			act.Spin(m.Direction)
			spinning = true
		}
	})
	act.SetStopMode(m.StopMode)
	act.Stop()
	r.finish(m.Name, res)
	return res, err
}

// Wait polls until cond holds or timeout elapses without commanding any
// actuator.
func (r *Runner) Wait(ctx context.Context, name string, timeout, poll time.Duration, until Condition) (Result, error) {
	res, err := r.loop(ctx, timeout, poll, until, nil)
	r.finish(name, res)
	return res, err
}

func (r *Runner) loop(ctx context.Context, timeout, poll time.Duration, until Condition, each func()) (Result, error) {
	if poll <= 0 {
		poll = DefaultPoll
	}
	if until == nil {
		until = Never
	}

	timer := NewTimer(r.clock)
	var res Result
	for {
		if until() {
			res.Outcome = Satisfied
			break
		}
		elapsed := timer.Elapsed()
		if elapsed >= timeout {
			res.Outcome = TimedOut
			break
		}
		if each != nil {
			each()
		}
		if err := r.yield.Yield(ctx, min(poll, timeout-elapsed)); err != nil {
			res.Outcome = Canceled
			res.Elapsed = timer.Elapsed()
			return res, err
		}
		res.Polls++
	}
	res.Elapsed = timer.Elapsed()
	return res, nil
}

func (r *Runner) finish(name string, res Result) {
	ev := r.log.Debug()
	if res.Outcome == TimedOut {
		ev = r.log.Info()
	}
	ev.Str("run", name).
		Stringer("outcome", res.Outcome).
		Dur("elapsed", res.Elapsed).
		Int("polls", res.Polls).
		Msg("bounded run finished")
	if r.observer != nil {
		r.observer.ObserveRun(name, res)
	}
}
