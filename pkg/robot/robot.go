// Package robot provides the hardware abstractions the motion core drives:
// actuators, digital sensors, the drivetrain and the health indicator.
package robot

import (
	"context"
	"time"
)

// ActuatorName identifies a mechanism on the robot.
type ActuatorName string

// Actuators of the robot.
const (
	Rocker     ActuatorName = "rocker"
	Shooter    ActuatorName = "shooter"
	Arm        ActuatorName = "arm"
	LongArm    ActuatorName = "long_arm"
	DriveLeft  ActuatorName = "drive_left"
	DriveRight ActuatorName = "drive_right"
)

// AllActuators returns all actuator names in servo ID order (IDs 1-6).
func AllActuators() []ActuatorName {
	return []ActuatorName{
		Rocker,
		Shooter,
		Arm,
		LongArm,
		DriveLeft,
		DriveRight,
	}
}

// SensorName identifies a bumper or limit switch.
type SensorName string

// Bumpers of the robot.
const (
	RockerUp   SensorName = "rocker_up"
	RockerDown SensorName = "rocker_down"
	BasketUp   SensorName = "basket_up"
	BasketDown SensorName = "basket_down"
)

// AllSensors returns all sensor names.
func AllSensors() []SensorName {
	return []SensorName{RockerUp, RockerDown, BasketUp, BasketDown}
}

// Direction is the commanded spin direction of an actuator.
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Sign returns +1 for Forward and -1 for Reverse.
func (d Direction) Sign() float64 {
	if d == Reverse {
		return -1
	}
	return 1
}

func (d Direction) String() string {
	if d == Reverse {
		return "reverse"
	}
	return "forward"
}

// StopMode is what an actuator does once it is told to stop.
type StopMode int

const (
	Coast StopMode = iota // release torque
	Brake                 // stop hard, then release
	Hold                  // actively hold position
)

func (m StopMode) String() string {
	switch m {
	case Brake:
		return "brake"
	case Hold:
		return "hold"
	default:
		return "coast"
	}
}

// Actuator is a single motor-driven mechanism.
//
// Implementations are fire-and-forget: I/O faults are logged by the
// implementation and never surfaced to callers.
type Actuator interface {
	// Spin starts the actuator turning in dir at the configured velocity.
	Spin(dir Direction)
	// SpinFor turns the actuator by a relative number of turns. When wait is
	// true it blocks until the move completes or the actuator timeout expires.
	SpinFor(ctx context.Context, dir Direction, turns float64, wait bool)
	// Stop stops the actuator using its current stop mode.
	Stop()
	SetVelocity(pct float64)
	SetMaxTorque(pct float64)
	SetStopMode(mode StopMode)
	SetTimeout(d time.Duration)
	// Velocity reads back the measured speed in percent of full speed. It is
	// a magnitude in [0, 100] regardless of direction.
	Velocity() float64
}

// DigitalSensor is a binary contact sensor such as a bumper.
type DigitalSensor interface {
	IsActive() bool
}

// SensorFunc adapts a function to a DigitalSensor.
type SensorFunc func() bool

// IsActive calls f.
func (f SensorFunc) IsActive() bool { return f() }

// Battery reports remaining capacity in percent.
type Battery interface {
	Capacity() float64
}

// Indicator is a write-only colored status light.
type Indicator interface {
	SetColor(c Color)
}

// Gyro is the drivetrain heading sensor. Only calibration is used here.
type Gyro interface {
	Calibrate()
	IsCalibrating() bool
}

// Drivetrain executes open-loop drive and turn moves.
type Drivetrain interface {
	DriveFor(ctx context.Context, dir Direction, distanceMM float64)
	TurnFor(ctx context.Context, dir TurnDirection, degrees float64)
}

// TurnDirection is the direction of an in-place turn.
type TurnDirection int

const (
	Right TurnDirection = iota
	Left
)

func (t TurnDirection) String() string {
	if t == Left {
		return "left"
	}
	return "right"
}
