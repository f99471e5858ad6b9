package sim

import (
	"time"

	"github.com/AriaCoder/Axobotl/pkg/robot"
)

// Mechanism travel in turns between the bumpers.
const (
	RockerTravel = 0.5
	BasketTravel = 1.5
)

// Robot is a complete simulated robot: every actuator, bumper, the battery,
// the health light and a tank drivetrain.
type Robot struct {
	Clock *Clock

	Rocker, Shooter, Arm, LongArm *Actuator
	DriveLeft, DriveRight         *Actuator

	RockerUp, RockerDown *Limit
	BasketUp, BasketDown *Limit

	Battery *Battery
	Light   *Light
	Gyro    *Gyro
	Drive   *robot.TankDrive
}

// NewRobot builds a robot with the rocker resting on its down bumper and the
// basket resting on its down bumper.
func NewRobot(clock *Clock) *Robot {
	r := &Robot{
		Clock:      clock,
		Rocker:     NewActuator(clock, robot.Rocker),
		Shooter:    NewActuator(clock, robot.Shooter),
		Arm:        NewActuator(clock, robot.Arm),
		LongArm:    NewActuator(clock, robot.LongArm),
		DriveLeft:  NewActuator(clock, robot.DriveLeft),
		DriveRight: NewActuator(clock, robot.DriveRight),
		Battery:    NewBattery(clock, 100),
		Light:      &Light{},
		Gyro:       NewGyro(clock),
	}
	r.Rocker.Min, r.Rocker.Max = 0, RockerTravel
	r.Arm.Min, r.Arm.Max = 0, BasketTravel
	r.Shooter.Accel = 150
	r.Battery.DrainPerMinute = 0.5

	r.RockerUp = &Limit{Actuator: r.Rocker, At: RockerTravel, Above: true}
	r.RockerDown = &Limit{Actuator: r.Rocker, At: 0}
	r.BasketUp = &Limit{Actuator: r.Arm, At: BasketTravel, Above: true}
	r.BasketDown = &Limit{Actuator: r.Arm, At: 0}

	r.Drive = robot.NewTankDrive(r.DriveLeft, r.DriveRight, robot.DefaultDriveGeometry())
	r.Drive.Timeout = 10 * time.Second
	return r
}

// Actuators returns the actuators keyed by name.
func (r *Robot) Actuators() map[robot.ActuatorName]robot.Actuator {
	return map[robot.ActuatorName]robot.Actuator{
		robot.Rocker:     r.Rocker,
		robot.Shooter:    r.Shooter,
		robot.Arm:        r.Arm,
		robot.LongArm:    r.LongArm,
		robot.DriveLeft:  r.DriveLeft,
		robot.DriveRight: r.DriveRight,
	}
}

// Sensors returns the bumpers keyed by name.
func (r *Robot) Sensors() map[robot.SensorName]robot.DigitalSensor {
	return map[robot.SensorName]robot.DigitalSensor{
		robot.RockerUp:   r.RockerUp,
		robot.RockerDown: r.RockerDown,
		robot.BasketUp:   r.BasketUp,
		robot.BasketDown: r.BasketDown,
	}
}
