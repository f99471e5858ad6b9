package auto

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/coordinator"
	"github.com/AriaCoder/Axobotl/pkg/motion"
	"github.com/AriaCoder/Axobotl/pkg/sim"
)

type reports []Report

func (r *reports) ObserveRoutine(rep Report) { *r = append(*r, rep) }

type stuckGyro struct{ calls int }

func (g *stuckGyro) Calibrate()          { g.calls++ }
func (g *stuckGyro) IsCalibrating() bool { return true }

func newSequencer(t *testing.T) (*Sequencer, *control.State, *sim.Clock) {
	t.Helper()
	clock := sim.NewClock()
	state := control.NewState(control.AutoNear)
	runner := motion.NewRunner(clock, nil, zerolog.Nop())
	return NewSequencer(state, sim.NewGyro(clock), runner, zerolog.Nop()), state, clock
}

func TestSequencer_Calibrate(t *testing.T) {
	s, state, clock := newSequencer(t)
	assert.Equal(t, Uninitialized, s.Phase())

	require.NoError(t, s.Calibrate(context.Background()))
	assert.Equal(t, Ready, s.Phase())
	assert.True(t, state.AutoReady)
	assert.Equal(t, time.Second, clock.Since())
}

func TestSequencer_CalibrateBounded(t *testing.T) {
	clock := sim.NewClock()
	state := control.NewState(control.AutoFar)
	gyro := &stuckGyro{}
	s := NewSequencer(state, gyro, motion.NewRunner(clock, nil, zerolog.Nop()), zerolog.Nop())

	require.NoError(t, s.Calibrate(context.Background()))
	assert.Equal(t, CalibrationTimeout, clock.Since())
	assert.Equal(t, 1, gyro.calls)
	assert.True(t, state.AutoReady)
}

func TestSequencer_NotReady(t *testing.T) {
	s, _, _ := newSequencer(t)
	_, err := s.Run(context.Background(), Routine{Name: "x"})
	assert.ErrorIs(t, err, ErrNotReady)
}

func TestSequencer_AbortBeforeThirdStep(t *testing.T) {
	s, state, _ := newSequencer(t)
	var seen reports
	s.WithObserver(&seen)
	require.NoError(t, s.Calibrate(context.Background()))

	var ran []int
	r := Routine{Name: "five"}
	for i := 1; i <= 5; i++ {
		r.Steps = append(r.Steps, Step{
			Name: fmt.Sprintf("step %d", i),
			Run: func(context.Context) Result {
				ran = append(ran, i)
				if i == 2 {
					state.AutoRunning = false
				}
				return Continue
			},
		})
	}

	rep, err := s.Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ran)
	assert.Equal(t, Aborted, rep.Phase)
	assert.Equal(t, 2, rep.Steps)
	assert.Equal(t, "step 3", rep.AbortedAt)
	assert.Equal(t, Aborted, s.Phase())
	assert.False(t, state.AutoRunning)
	require.Len(t, seen, 1)
	assert.Equal(t, "five", seen[0].Routine)
}

func TestSequencer_StepAbort(t *testing.T) {
	s, _, _ := newSequencer(t)
	require.NoError(t, s.Calibrate(context.Background()))

	third := false
	rep, err := s.Run(context.Background(), Routine{Name: "r", Steps: []Step{
		{Name: "ok", Run: func(context.Context) Result { return Continue }},
		{Name: "fail", Run: func(context.Context) Result { return Abort }},
		{Name: "never", Run: func(context.Context) Result { third = true; return Continue }},
	}})
	require.NoError(t, err)
	assert.False(t, third)
	assert.Equal(t, "fail", rep.AbortedAt)
	assert.Equal(t, 2, rep.Steps)
}

func TestSequencer_InterruptAtYield(t *testing.T) {
	clock := sim.NewClock()
	state := control.NewState(control.AutoNear)
	state.AutoReady = true
	yields := 0
	runner := motion.NewRunner(clock, motion.YieldFunc(func(ctx context.Context, d time.Duration) error {
		yields++
		if yields == 2 {
			// stop button handled between steps 1 and 2
			state.AutoRunning = false
		}
		return clock.Sleep(ctx, d)
	}), zerolog.Nop())
	s := NewSequencer(state, sim.NewGyro(clock), runner, zerolog.Nop())

	n := 0
	step := Step{Name: "s", Run: func(context.Context) Result { n++; return Continue }}
	rep, err := s.Run(context.Background(), Routine{Name: "r", Steps: []Step{step, step, step}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, Aborted, rep.Phase)
}

func TestSequencer_CanceledContext(t *testing.T) {
	s, state, _ := newSequencer(t)
	state.AutoReady = true
	ctx, cancel := context.WithCancel(context.Background())

	rep, err := s.Run(ctx, Routine{Name: "r", Steps: []Step{
		{Name: "cancel", Run: func(context.Context) Result { cancel(); return Continue }},
		{Name: "never", Run: func(context.Context) Result { t.Fatal("ran after cancel"); return Continue }},
	}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Aborted, rep.Phase)
}

func TestRoutines_NearCompletesOnSim(t *testing.T) {
	clock := sim.NewClock()
	bot := sim.NewRobot(clock)
	state := control.NewState(control.AutoNear)
	runner := motion.NewRunner(clock, nil, zerolog.Nop())
	c := coordinator.New(coordinator.Hardware{
		Rocker: bot.Rocker, Shooter: bot.Shooter, Arm: bot.Arm, LongArm: bot.LongArm,
		RockerUp: bot.RockerUp, RockerDown: bot.RockerDown,
		BasketUp: bot.BasketUp, BasketDown: bot.BasketDown,
	}, state, &control.Input{}, runner, coordinator.Timing{}, zerolog.Nop())
	c.Setup()

	s := NewSequencer(state, bot.Gyro, runner, zerolog.Nop())
	require.NoError(t, s.Calibrate(context.Background()))

	m := Mechanisms{Drive: bot.Drive, Coordinator: c, State: state, ShootCycles: 2}
	r, err := m.ForMode(control.AutoNear)
	require.NoError(t, err)

	rep, err := s.Run(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, Completed, rep.Phase)
	assert.Equal(t, len(r.Steps), rep.Steps)
	assert.Equal(t, 2, bot.Rocker.Count("spin reverse"))
	assert.False(t, state.AutoShooting)
	assert.False(t, state.AutoRunning)
	assert.Positive(t, bot.DriveLeft.Position())
}

func TestRoutines_ForMode(t *testing.T) {
	m := Mechanisms{}
	near, err := m.ForMode(control.AutoNear)
	require.NoError(t, err)
	far, err := m.ForMode(control.AutoFar)
	require.NoError(t, err)
	assert.Equal(t, "auto-near", near.Name)
	assert.Equal(t, "auto-far", far.Name)
	assert.Len(t, far.Steps, len(near.Steps))

	_, err = m.ForMode(control.Driver)
	assert.Error(t, err)
}
