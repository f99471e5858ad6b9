package motion

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriaCoder/Axobotl/pkg/robot"
	"github.com/AriaCoder/Axobotl/pkg/sim"
)

type recordedRun struct {
	name string
	res  Result
}

type recorder struct{ runs []recordedRun }

func (r *recorder) ObserveRun(name string, res Result) {
	r.runs = append(r.runs, recordedRun{name, res})
}

func newTestRunner() (*Runner, *sim.Clock) {
	clock := sim.NewClock()
	return NewRunner(clock, nil, zerolog.Nop()), clock
}

func TestRun_TimeoutWithSilentSensor(t *testing.T) {
	for _, timeout := range []time.Duration{
		4 * time.Second,
		3 * time.Second,
		50 * time.Millisecond, // not a multiple of the poll interval
		7 * time.Millisecond,
	} {
		t.Run(timeout.String(), func(t *testing.T) {
			runner, clock := newTestRunner()
			act := sim.NewActuator(clock, robot.LongArm)
			var bumper sim.Switch

			res, err := runner.Run(context.Background(), act, Move{
				Direction: robot.Forward,
				Timeout:   timeout,
				StopMode:  robot.Brake,
				Until:     Active(&bumper),
			})
			require.NoError(t, err)

			assert.Equal(t, TimedOut, res.Outcome)
			assert.GreaterOrEqual(t, res.Elapsed, timeout)
			assert.Less(t, res.Elapsed, timeout+DefaultPoll)
			assert.Equal(t, res.Elapsed, clock.Since())
			assert.False(t, act.Spinning())
			assert.Equal(t, robot.Brake, act.StopMode())
			assert.Equal(t, []string{"spin forward", "stop brake"}, act.Commands)
		})
	}
}

func TestRun_SensorStopsEarly(t *testing.T) {
	runner, clock := newTestRunner()
	act := sim.NewActuator(clock, robot.Arm)
	var bumper sim.Switch
	clock.At(1200*time.Millisecond, func() { bumper.Set(true) })

	res, err := runner.Run(context.Background(), act, Move{
		Direction: robot.Forward,
		Timeout:   4 * time.Second,
		Poll:      20 * time.Millisecond,
		StopMode:  robot.Hold,
		Until:     Active(&bumper),
	})
	require.NoError(t, err)

	assert.Equal(t, Satisfied, res.Outcome)
	assert.GreaterOrEqual(t, res.Elapsed, 1200*time.Millisecond)
	assert.Less(t, res.Elapsed, 1220*time.Millisecond)
	assert.Equal(t, robot.Hold, act.StopMode())
	assert.False(t, act.Spinning())
}

func TestRun_ConditionAlreadyMet(t *testing.T) {
	runner, clock := newTestRunner()
	act := sim.NewActuator(clock, robot.Rocker)
	bumper := &sim.Switch{}
	bumper.Set(true)

	res, err := runner.Run(context.Background(), act, Move{
		Direction: robot.Reverse,
		Timeout:   3 * time.Second,
		StopMode:  robot.Brake,
		Until:     Active(bumper),
	})
	require.NoError(t, err)

	assert.Equal(t, Satisfied, res.Outcome)
	assert.Zero(t, res.Polls)
	assert.Zero(t, clock.Since())
	// no spin is issued, but the actuator is still left in a defined stop mode
	assert.Equal(t, []string{"stop brake"}, act.Commands)
}

func TestRun_CompositeCondition(t *testing.T) {
	runner, clock := newTestRunner()
	act := sim.NewActuator(clock, robot.Rocker)
	var bumper sim.Switch
	held := true
	clock.At(100*time.Millisecond, func() { held = false })

	res, err := runner.Run(context.Background(), act, Move{
		Timeout: 3 * time.Second,
		Until:   Any(Active(&bumper), Not(Flag(&held))),
	})
	require.NoError(t, err)

	assert.Equal(t, Satisfied, res.Outcome)
	assert.Equal(t, 100*time.Millisecond, res.Elapsed)
	assert.Equal(t, 5, res.Polls)
}

func TestRun_Canceled(t *testing.T) {
	clock := sim.NewClock()
	ctx, cancel := context.WithCancel(context.Background())
	clock.At(60*time.Millisecond, cancel)
	runner := NewRunner(clock, nil, zerolog.Nop())
	act := sim.NewActuator(clock, robot.Shooter)

	res, err := runner.Run(ctx, act, Move{Timeout: time.Second, StopMode: robot.Coast})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Canceled, res.Outcome)
	assert.Equal(t, []string{"spin forward", "stop coast"}, act.Commands)
}

func TestRun_YieldsEveryPoll(t *testing.T) {
	clock := sim.NewClock()
	var yields []time.Duration
	yield := YieldFunc(func(ctx context.Context, d time.Duration) error {
		yields = append(yields, d)
		return clock.Sleep(ctx, d)
	})
	runner := NewRunner(clock, yield, zerolog.Nop())
	act := sim.NewActuator(clock, robot.Arm)

	_, err := runner.Run(context.Background(), act, Move{Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{20 * time.Millisecond, 20 * time.Millisecond, 10 * time.Millisecond}, yields)
}

func TestWait(t *testing.T) {
	runner, clock := newTestRunner()
	obs := &recorder{}
	runner.WithObserver(obs)
	busy := true
	clock.At(90*time.Millisecond, func() { busy = false })

	res, err := runner.Wait(context.Background(), "flywheel", 2*time.Second, 30*time.Millisecond, Not(Flag(&busy)))
	require.NoError(t, err)

	assert.Equal(t, Satisfied, res.Outcome)
	assert.Equal(t, 90*time.Millisecond, res.Elapsed)
	require.Len(t, obs.runs, 1)
	assert.Equal(t, "flywheel", obs.runs[0].name)
}

func TestTimer(t *testing.T) {
	clock := sim.NewClock()
	timer := NewTimer(clock)
	clock.Advance(time.Second)
	assert.Equal(t, time.Second, timer.Elapsed())

	timer.Reset()
	clock.Advance(20 * time.Millisecond)
	assert.Equal(t, 20*time.Millisecond, timer.Elapsed())
}
