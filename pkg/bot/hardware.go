package bot

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/AriaCoder/Axobotl/pkg/robot"
	"github.com/AriaCoder/Axobotl/pkg/sim"
)

// SimHardware wires a simulated robot.
func SimHardware(r *sim.Robot) Hardware {
	return Hardware{
		Actuators: r.Actuators(),
		Sensors:   r.Sensors(),
		Battery:   r.Battery,
		Indicator: r.Light,
		Gyro:      r.Gyro,
		Drive:     r.Drive,
	}
}

// ServoHardware wires the actuators of a servo bus. The bus has no battery
// gauge, light or gyro: the battery reads as full, the light is logged and
// the gyro calibrates instantly.
func ServoHardware(bus *robot.ServoBus, cfg robot.HardwareConfig, log zerolog.Logger) (Hardware, error) {
	cfg.ApplyDefaults()
	hw := Hardware{
		Actuators: make(map[robot.ActuatorName]robot.Actuator),
		Sensors:   make(map[robot.SensorName]robot.DigitalSensor),
		Battery:   fullBattery{},
		Indicator: &logIndicator{log: log.With().Str("component", "health").Logger()},
		Gyro:      instantGyro{},
	}
	for _, name := range robot.AllActuators() {
		hw.Actuators[name] = bus.Actuator(name)
	}
	for _, name := range robot.AllSensors() {
		e, ok := cfg.Endstops[name]
		if !ok {
			return Hardware{}, fmt.Errorf("no endstop configured for %s", name)
		}
		s, err := bus.Endstop(e)
		if err != nil {
			return Hardware{}, err
		}
		hw.Sensors[name] = s
	}
	drive := robot.NewTankDrive(hw.Actuators[robot.DriveLeft], hw.Actuators[robot.DriveRight], cfg.Drive)
	hw.Drive = drive
	return hw, nil
}

type fullBattery struct{}

func (fullBattery) Capacity() float64 { return 100 }

type instantGyro struct{}

func (instantGyro) Calibrate()          {}
func (instantGyro) IsCalibrating() bool { return false }

// logIndicator logs color changes.
type logIndicator struct {
	log   zerolog.Logger
	color robot.Color
}

func (l *logIndicator) SetColor(c robot.Color) {
	if c == l.color {
		return
	}
	l.color = c
	l.log.Info().Str("color", string(c)).Msg("health")
}
