// Package auto runs the scripted autonomous routines. A routine is a list of
// steps; the sequencer checks the shared running flag before every step and
// stops the routine at the first boundary after it is cleared.
package auto

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/motion"
	"github.com/AriaCoder/Axobotl/pkg/robot"
)

var (
	// ErrNotReady is returned when a routine is started before calibration.
	ErrNotReady = errors.New("autonomous not ready")
	// ErrAlreadyRunning is returned when a routine is started or the gyro
	// recalibrated while another routine runs.
	ErrAlreadyRunning = errors.New("autonomous already running")
)

// CalibrationTimeout bounds the gyro calibration wait.
const CalibrationTimeout = 3 * time.Second

// Phase is the sequencer lifecycle state.
type Phase int

const (
	Uninitialized Phase = iota
	Calibrating
	Ready
	Running
	Completed
	Aborted
)

var phaseNames = []string{"uninitialized", "calibrating", "ready", "running", "completed", "aborted"}

func (p Phase) String() string {
	if int(p) < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Result tells the sequencer whether to go on after a step.
type Result int

const (
	Continue Result = iota
	Abort
)

// Step is one scripted action.
type Step struct {
	Name string
	Run  func(ctx context.Context) Result
}

// Routine is a named list of steps.
type Routine struct {
	Name  string
	Steps []Step
}

// Report summarizes a finished routine.
type Report struct {
	Routine string
	Phase   Phase
	// Steps is how many steps ran.
	Steps int
	// AbortedAt names the step that was not started, or the step that
	// asked to abort.
	AbortedAt string
	Elapsed   time.Duration
}

// Observer is notified when a routine finishes.
type Observer interface {
	ObserveRoutine(r Report)
}

// Sequencer drives the autonomous lifecycle:
// Uninitialized, Calibrating, Ready, Running, then Completed or Aborted.
type Sequencer struct {
	state    *control.State
	gyro     robot.Gyro
	run      *motion.Runner
	log      zerolog.Logger
	observer Observer

	phase Phase
}

// NewSequencer returns a sequencer in the Uninitialized phase.
func NewSequencer(state *control.State, gyro robot.Gyro, run *motion.Runner, log zerolog.Logger) *Sequencer {
	return &Sequencer{
		state: state,
		gyro:  gyro,
		run:   run,
		log:   log.With().Str("component", "auto").Logger(),
	}
}

// WithObserver sets the routine observer.
func (s *Sequencer) WithObserver(o Observer) *Sequencer {
	s.observer = o
	return s
}

// Phase returns the current phase.
func (s *Sequencer) Phase() Phase { return s.phase }

// Calibrate calibrates the gyro, waiting at most CalibrationTimeout, and
// marks autonomous as ready. A calibration that does not finish in time is
// logged and treated as done.
func (s *Sequencer) Calibrate(ctx context.Context) error {
	if s.phase == Running {
		return ErrAlreadyRunning
	}
	s.phase = Calibrating
	s.state.AutoReady = false
	s.gyro.Calibrate()

	res, err := s.run.Wait(ctx, "gyro_calibration", CalibrationTimeout, motion.DefaultPoll,
		motion.Not(s.gyro.IsCalibrating))
	if err != nil {
		s.phase = Uninitialized
		return fmt.Errorf("calibrate gyro: %w", err)
	}
	if res.Outcome == motion.TimedOut {
		s.log.Warn().Dur("timeout", CalibrationTimeout).Msg("gyro still calibrating, continuing")
	}
	s.phase = Ready
	s.state.AutoReady = true
	s.log.Info().Dur("elapsed", res.Elapsed).Msg("autonomous ready")
	return nil
}

// Run executes r. The running flag is set on entry and cleared on exit;
// clearing it from an interrupt aborts the routine before its next step.
// A canceled context also aborts and is returned as the error.
func (s *Sequencer) Run(ctx context.Context, r Routine) (Report, error) {
	if s.phase == Running {
		return Report{Routine: r.Name, Phase: Running}, ErrAlreadyRunning
	}
	if !s.state.AutoReady {
		return Report{Routine: r.Name, Phase: s.phase}, ErrNotReady
	}

	s.phase = Running
	s.state.AutoRunning = true
	defer func() { s.state.AutoRunning = false }()

	log := s.log.With().Str("routine", r.Name).Logger()
	log.Info().Int("steps", len(r.Steps)).Msg("routine started")

	timer := motion.NewTimer(s.run.Clock())
	rep := Report{Routine: r.Name, Phase: Completed}
	var err error
	for _, step := range r.Steps {
		// let interrupts queued during the previous step clear the flag
		if err = s.run.Yield(ctx, 0); err != nil {
			rep.Phase, rep.AbortedAt = Aborted, step.Name
			break
		}
		if !s.state.AutoRunning {
			rep.Phase, rep.AbortedAt = Aborted, step.Name
			break
		}
		log.Debug().Str("step", step.Name).Msg("step")
		res := step.Run(ctx)
		rep.Steps++
		if err = ctx.Err(); err != nil || res == Abort {
			rep.Phase, rep.AbortedAt = Aborted, step.Name
			break
		}
	}
	rep.Elapsed = timer.Elapsed()
	s.phase = rep.Phase

	ev := log.Info()
	if rep.Phase == Aborted {
		ev = log.Warn().Str("at", rep.AbortedAt)
	}
	ev.Int("steps", rep.Steps).Dur("elapsed", rep.Elapsed).Stringer("phase", rep.Phase).Msg("routine finished")
	if s.observer != nil {
		s.observer.ObserveRoutine(rep)
	}
	return rep, err
}
