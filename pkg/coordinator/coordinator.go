// Package coordinator composes bounded motions into the robot's multi-step
// behaviors: catching and launching with the rocker, auto-shoot cycles,
// the basket arm and the long arm.
package coordinator

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/motion"
	"github.com/AriaCoder/Axobotl/pkg/robot"
)

// Buttons that hold manual motions alive.
const (
	CatchButton   = control.EUp
	ShootButton   = control.EDown
	RaiseButton   = control.LUp
	LowerButton   = control.LDown
	LongArmButton = control.FUp
	TriggerButton = control.RUp
)

// Hardware is the set of mechanisms the coordinators command.
type Hardware struct {
	Rocker  robot.Actuator
	Shooter robot.Actuator
	Arm     robot.Actuator
	LongArm robot.Actuator

	RockerUp   robot.DigitalSensor
	RockerDown robot.DigitalSensor
	BasketUp   robot.DigitalSensor
	BasketDown robot.DigitalSensor
}

// Buttons reports held controller buttons.
type Buttons interface {
	Pressing(b control.Button) bool
}

// Coordinator runs the robot's behaviors. It is not safe for concurrent
// use; every method must be called from the controller loop.
type Coordinator struct {
	hw      Hardware
	state   *control.State
	buttons Buttons
	run     *motion.Runner
	timing  Timing
	log     zerolog.Logger
}

// New returns a coordinator. Zero timing fields take their defaults.
func New(hw Hardware, state *control.State, buttons Buttons, run *motion.Runner, timing Timing, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		hw:      hw,
		state:   state,
		buttons: buttons,
		run:     run,
		timing:  timing.WithDefaults(),
		log:     log.With().Str("component", "coordinator").Logger(),
	}
}

// Timing returns the effective timing.
func (c *Coordinator) Timing() Timing { return c.timing }

// Setup puts every mechanism into its startup configuration.
func (c *Coordinator) Setup() {
	c.hw.Arm.Stop()
	c.hw.Arm.SetVelocity(c.timing.ArmVelocity)
	c.hw.Arm.SetMaxTorque(100)

	c.hw.Shooter.Stop()
	c.hw.Shooter.SetStopMode(robot.Coast)
	c.hw.Shooter.SetMaxTorque(100)
	c.hw.Shooter.SetVelocity(c.timing.ShooterVelocity)

	c.hw.Rocker.SetMaxTorque(100)
	c.hw.Rocker.SetVelocity(c.timing.RockerVelocity)
	c.hw.Rocker.SetStopMode(robot.Coast)

	c.hw.LongArm.SetMaxTorque(100)
	c.hw.LongArm.SetStopMode(robot.Brake)
}

// engaged is the term that keeps a motion going: the auto-shooting flag in
// auto mode, the held button otherwise.
func (c *Coordinator) engaged(auto bool, b control.Button) motion.Condition {
	if auto {
		return motion.Flag(&c.state.AutoShooting)
	}
	return func() bool { return c.buttons.Pressing(b) }
}

// RockUpToCatch moves the rocker to its up bumper. If the basket is all the
// way down it is first nudged up so the rocker clears it.
func (c *Coordinator) RockUpToCatch(ctx context.Context, auto bool) error {
	if c.hw.BasketDown.IsActive() {
		c.hw.Arm.SetTimeout(c.timing.NudgeTimeout.Std())
		c.hw.Arm.SetVelocity(c.timing.ArmVelocity)
		c.hw.Arm.SpinFor(ctx, robot.Forward, c.timing.NudgeTurns, true)
	}

	c.hw.Rocker.SetVelocity(c.timing.RockerVelocity)
	_, err := c.run.Run(ctx, c.hw.Rocker, motion.Move{
		Name:      "rock_up",
		Direction: robot.Forward,
		Timeout:   c.timing.RockTimeout.Std(),
		Poll:      c.timing.Poll.Std(),
		StopMode:  robot.Hold,
		Until: motion.Any(
			motion.Active(c.hw.RockerUp),
			motion.Not(c.engaged(auto, CatchButton)),
		),
	})
	return err
}

// RockDownToShoot moves the rocker to its down bumper, launching the piece.
func (c *Coordinator) RockDownToShoot(ctx context.Context, auto bool) error {
	if c.hw.RockerDown.IsActive() {
		c.log.Debug().Msg("rocker already down")
		return nil
	}

	if !auto && !c.state.AutoShooting && !c.buttons.Pressing(CatchButton) {
		c.hw.Rocker.SetVelocity(c.timing.RockerVelocity)
		if _, err := c.run.Run(ctx, c.hw.Rocker, motion.Move{
			Name:      "rock_halfway",
			Direction: robot.Reverse,
			Timeout:   c.timing.RockHalfway.Std(),
			Poll:      c.timing.Poll.Std(),
			StopMode:  robot.Brake,
			Until:     motion.Active(c.hw.RockerDown),
		}); err != nil {
			return err
		}
	}

	if c.state.AutoShooting {
		if err := c.waitForFlywheel(ctx); err != nil {
			return err
		}
	}

	keep := c.engaged(auto, ShootButton)
	if !auto {
		// pressing catch while shooting cancels the shot
		shoot := keep
		keep = func() bool { return shoot() && !c.buttons.Pressing(CatchButton) }
	}
	c.hw.Rocker.SetVelocity(c.timing.RockerVelocity)
	if _, err := c.run.Run(ctx, c.hw.Rocker, motion.Move{
		Name:      "rock_down",
		Direction: robot.Reverse,
		Timeout:   c.timing.RockTimeout.Std(),
		Poll:      c.timing.Poll.Std(),
		StopMode:  robot.Brake,
		Until: motion.Any(
			motion.Active(c.hw.RockerDown),
			motion.Not(keep),
		),
	}); err != nil {
		return err
	}

	if auto {
		return nil
	}
	// Idle while catch stays held so the operator can bump the rocker
	// repeatedly without re-triggering a shot.
	_, err := c.run.Wait(ctx, "rock_bounce", c.timing.RockBounce.Std(), c.timing.Poll.Std(),
		motion.Any(
			motion.Flag(&c.state.AutoShooting),
			func() bool { return !c.buttons.Pressing(CatchButton) },
		))
	return err
}

// waitForFlywheel holds the shot while the flywheel is spinning up.
func (c *Coordinator) waitForFlywheel(ctx context.Context) error {
	threshold := c.timing.FlywheelThreshold
	spinningUp := func() bool {
		v := c.hw.Shooter.Velocity()
		return v > 0 && v < threshold
	}
	res, err := c.run.Wait(ctx, "flywheel", c.timing.FlywheelWait.Std(), c.timing.FlywheelPoll.Std(), motion.Not(spinningUp))
	if err != nil {
		return err
	}
	if res.Outcome == motion.TimedOut {
		c.log.Warn().
			Float64("velocity", c.hw.Shooter.Velocity()).
			Float64("threshold", threshold).
			Msg("flywheel did not spin up, shooting anyway")
	}
	return nil
}

// AutoShoot runs catch-and-launch cycles while auto-shooting is set, up to
// maxCycles. The flag is checked once per cycle; a phase that has started
// runs to its own end. It returns the number of cycles started.
func (c *Coordinator) AutoShoot(ctx context.Context, maxCycles int) (int, error) {
	cycles := 0
	for c.state.AutoShooting && cycles < maxCycles {
		c.StartShooter()
		if err := c.RockUpToCatch(ctx, true); err != nil {
			return cycles, err
		}
		if err := c.RockDownToShoot(ctx, true); err != nil {
			return cycles, err
		}
		cycles++
	}
	c.log.Info().Int("cycles", cycles).Int("budget", maxCycles).Bool("auto_shooting", c.state.AutoShooting).Msg("auto shoot finished")
	return cycles, nil
}

// ToggleLongArm flips the long arm between out and in, drives it toward the
// new position and keeps driving while the button is held, bounded by the
// hold timeout. The state flips exactly once per call.
func (c *Coordinator) ToggleLongArm(ctx context.Context) error {
	la := c.hw.LongArm
	la.SetTimeout(c.timing.LongArmHold.Std())
	la.SetMaxTorque(100)

	c.state.LongArmOut = !c.state.LongArmOut
	dir, velocity := robot.Forward, c.timing.LongArmInVelocity
	if c.state.LongArmOut {
		dir, velocity = robot.Reverse, c.timing.LongArmOutVelocity
	}
	la.SetVelocity(velocity)
	la.Spin(dir)
	la.SetStopMode(robot.Brake)

	_, err := c.run.Run(ctx, la, motion.Move{
		Name:      "long_arm",
		Direction: dir,
		Timeout:   c.timing.LongArmHold.Std(),
		Poll:      c.timing.Poll.Std(),
		StopMode:  robot.Brake,
		Until:     func() bool { return !c.buttons.Pressing(LongArmButton) },
	})
	return err
}

// RaiseArm lifts the basket to its up bumper and holds it there.
func (c *Coordinator) RaiseArm(ctx context.Context, auto bool) error {
	c.hw.Arm.SetVelocity(c.timing.ArmVelocity)
	_, err := c.run.Run(ctx, c.hw.Arm, motion.Move{
		Name:      "raise_arm",
		Direction: robot.Forward,
		Timeout:   c.timing.ArmTimeout.Std(),
		Poll:      c.timing.Poll.Std(),
		StopMode:  robot.Hold,
		Until: motion.Any(
			motion.Active(c.hw.BasketUp),
			motion.Not(c.armEngaged(auto, RaiseButton)),
		),
	})
	return err
}

// LowerArm lowers the basket to its down bumper and brakes.
func (c *Coordinator) LowerArm(ctx context.Context, auto bool) error {
	c.hw.Arm.SetVelocity(c.timing.ArmVelocity)
	_, err := c.run.Run(ctx, c.hw.Arm, motion.Move{
		Name:      "lower_arm",
		Direction: robot.Reverse,
		Timeout:   c.timing.ArmTimeout.Std(),
		Poll:      c.timing.Poll.Std(),
		StopMode:  robot.Brake,
		Until: motion.Any(
			motion.Active(c.hw.BasketDown),
			motion.Not(c.armEngaged(auto, LowerButton)),
		),
	})
	return err
}

// armEngaged keeps an auto arm move going unconditionally; the arm is moved
// by the autonomous routine, not by auto-shooting.
func (c *Coordinator) armEngaged(auto bool, b control.Button) motion.Condition {
	if auto {
		return func() bool { return true }
	}
	return c.engaged(false, b)
}

// StartShooter spins the flywheel forward.
func (c *Coordinator) StartShooter() {
	c.hw.Shooter.SetVelocity(c.timing.ShooterVelocity)
	c.hw.Shooter.Spin(robot.Forward)
}

// StopRockAndShoot stops the rocker and lets the flywheel coast down. It
// never blocks, so it is safe to call from an interrupt.
func (c *Coordinator) StopRockAndShoot() {
	c.state.AutoShooting = false
	c.hw.Rocker.Stop()
	c.hw.Shooter.SetStopMode(robot.Coast)
	c.hw.Shooter.Stop()
}
