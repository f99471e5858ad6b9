package sim

import (
	"time"

	"github.com/AriaCoder/Axobotl/pkg/robot"
)

// Switch is a bumper whose state is set directly.
type Switch struct {
	active bool
}

func (s *Switch) IsActive() bool { return s.active }

// Set changes the switch state.
func (s *Switch) Set(active bool) { s.active = active }

// Limit is a bumper pressed when an actuator reaches a position in turns.
type Limit struct {
	Actuator *Actuator
	At       float64
	Above    bool
}

func (l *Limit) IsActive() bool {
	if l.Above {
		return l.Actuator.Position() >= l.At
	}
	return l.Actuator.Position() <= l.At
}

// Battery drains linearly with virtual time.
type Battery struct {
	capacity float64
	// DrainPerMinute is capacity lost per virtual minute.
	DrainPerMinute float64
}

// NewBattery returns a battery at capacity that drains on clock.
func NewBattery(clock *Clock, capacity float64) *Battery {
	b := &Battery{capacity: capacity}
	clock.OnAdvance(func(_ time.Time, dt time.Duration) {
		b.capacity -= b.DrainPerMinute * dt.Minutes()
		if b.capacity < 0 {
			b.capacity = 0
		}
	})
	return b
}

func (b *Battery) Capacity() float64 { return b.capacity }

// Set overrides the remaining capacity.
func (b *Battery) Set(capacity float64) { b.capacity = capacity }

// Light is a simulated touch LED.
type Light struct {
	color robot.Color
}

func (l *Light) SetColor(c robot.Color) { l.color = c }

// Color returns the last color set.
func (l *Light) Color() robot.Color { return l.color }

// Gyro finishes calibrating CalibrationTime after Calibrate is called.
type Gyro struct {
	CalibrationTime time.Duration

	clock *Clock
	until time.Time
}

// NewGyro returns a gyro that calibrates in one second.
func NewGyro(clock *Clock) *Gyro {
	return &Gyro{CalibrationTime: time.Second, clock: clock}
}

func (g *Gyro) Calibrate() { g.until = g.clock.Now().Add(g.CalibrationTime) }

func (g *Gyro) IsCalibrating() bool { return g.clock.Now().Before(g.until) }
