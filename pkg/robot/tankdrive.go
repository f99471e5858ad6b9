package robot

import (
	"context"
	"math"
	"time"
)

// TankDrive is an open-loop Drivetrain over two drive actuators. Distances
// are converted to wheel turns; there is no odometry.
type TankDrive struct {
	Left, Right Actuator
	Geometry    DriveGeometry
	// Timeout bounds each move.
	Timeout time.Duration
}

var _ Drivetrain = (*TankDrive)(nil)

// NewTankDrive returns a drivetrain with a 5 second per-move timeout.
func NewTankDrive(left, right Actuator, g DriveGeometry) *TankDrive {
	return &TankDrive{Left: left, Right: right, Geometry: g, Timeout: 5 * time.Second}
}

func (t *TankDrive) prepare() {
	for _, a := range []Actuator{t.Left, t.Right} {
		a.SetVelocity(t.Geometry.VelocityPct)
		a.SetTimeout(t.Timeout)
		a.SetStopMode(Brake)
	}
}

// DriveFor drives straight for distanceMM.
func (t *TankDrive) DriveFor(ctx context.Context, dir Direction, distanceMM float64) {
	turns := t.turnsFor(distanceMM)
	t.prepare()
	t.Left.SpinFor(ctx, dir, turns, false)
	t.Right.SpinFor(ctx, dir, turns, true)
}

// TurnFor turns in place by degrees.
func (t *TankDrive) TurnFor(ctx context.Context, dir TurnDirection, degrees float64) {
	arc := math.Pi * t.Geometry.TrackWidthMM * degrees / 360
	turns := t.turnsFor(arc)
	left, right := Forward, Reverse
	if dir == Left {
		left, right = Reverse, Forward
	}
	t.prepare()
	t.Left.SpinFor(ctx, left, turns, false)
	t.Right.SpinFor(ctx, right, turns, true)
}

func (t *TankDrive) turnsFor(mm float64) float64 {
	if t.Geometry.WheelTravelMM <= 0 {
		return 0
	}
	return mm / t.Geometry.WheelTravelMM
}
