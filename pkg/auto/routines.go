package auto

import (
	"context"
	"fmt"

	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/coordinator"
	"github.com/AriaCoder/Axobotl/pkg/robot"
)

// DefaultShootCycles is the auto-shoot budget at the end of a routine.
const DefaultShootCycles = 5

// Field geometry of the two starting positions.
type leg struct {
	forward  float64 // mm
	turn     robot.TurnDirection
	degrees  float64
	approach float64 // mm
}

var (
	nearLeg = leg{forward: 450, turn: robot.Right, degrees: 90, approach: 300}
	farLeg  = leg{forward: 1200, turn: robot.Left, degrees: 45, approach: 600}
)

// Mechanisms are the collaborators the routine steps command.
type Mechanisms struct {
	Drive       robot.Drivetrain
	Coordinator *coordinator.Coordinator
	State       *control.State
	ShootCycles int
}

// DriveStep drives straight for mm.
func DriveStep(d robot.Drivetrain, dir robot.Direction, mm float64) Step {
	return Step{
		Name: fmt.Sprintf("drive %s %.0fmm", dir, mm),
		Run: func(ctx context.Context) Result {
			d.DriveFor(ctx, dir, mm)
			return Continue
		},
	}
}

// TurnStep turns in place.
func TurnStep(d robot.Drivetrain, dir robot.TurnDirection, degrees float64) Step {
	return Step{
		Name: fmt.Sprintf("turn %s %.0fdeg", dir, degrees),
		Run: func(ctx context.Context) Result {
			d.TurnFor(ctx, dir, degrees)
			return Continue
		},
	}
}

// ArmStep raises or lowers the basket without waiting on a button.
func ArmStep(c *coordinator.Coordinator, raise bool) Step {
	name, move := "lower arm", c.LowerArm
	if raise {
		name, move = "raise arm", c.RaiseArm
	}
	return Step{
		Name: name,
		Run: func(ctx context.Context) Result {
			if err := move(ctx, true); err != nil {
				return Abort
			}
			return Continue
		},
	}
}

// ShootStep turns auto-shooting on and runs up to cycles catch-and-launch
// cycles. Clearing the running flag also ends the cycles.
func ShootStep(c *coordinator.Coordinator, state *control.State, cycles int) Step {
	return Step{
		Name: fmt.Sprintf("auto shoot x%d", cycles),
		Run: func(ctx context.Context) Result {
			state.AutoShooting = state.AutoRunning
			_, err := c.AutoShoot(ctx, cycles)
			state.AutoShooting = false
			if err != nil {
				return Abort
			}
			return Continue
		},
	}
}

func (m Mechanisms) routine(name string, l leg) Routine {
	cycles := m.ShootCycles
	if cycles <= 0 {
		cycles = DefaultShootCycles
	}
	return Routine{
		Name: name,
		Steps: []Step{
			ArmStep(m.Coordinator, true),
			DriveStep(m.Drive, robot.Forward, l.forward),
			TurnStep(m.Drive, l.turn, l.degrees),
			DriveStep(m.Drive, robot.Forward, l.approach),
			ArmStep(m.Coordinator, false),
			ShootStep(m.Coordinator, m.State, cycles),
		},
	}
}

// Near is the routine for the starting position close to the goal.
func (m Mechanisms) Near() Routine { return m.routine(control.AutoNear.String(), nearLeg) }

// Far is the routine for the starting position far from the goal.
func (m Mechanisms) Far() Routine { return m.routine(control.AutoFar.String(), farLeg) }

// ForMode returns the routine for an autonomous mode.
func (m Mechanisms) ForMode(mode control.Mode) (Routine, error) {
	switch mode {
	case control.AutoNear:
		return m.Near(), nil
	case control.AutoFar:
		return m.Far(), nil
	default:
		return Routine{}, fmt.Errorf("mode %s has no autonomous routine", mode)
	}
}
