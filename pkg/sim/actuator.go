package sim

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/AriaCoder/Axobotl/pkg/robot"
)

// TurnsPerSecond is the simulated free speed at 100% velocity.
const TurnsPerSecond = 2.0

// Actuator is a simulated motor. Position is tracked in turns and limited by
// optional mechanical stops; velocity ramps toward the commanded value at
// Accel percent per second (0 means instant).
type Actuator struct {
	Name  robot.ActuatorName
	Min   float64 // mechanical stop in turns, ignored when Min == Max
	Max   float64
	Accel float64

	clock *Clock

	velocity float64
	torque   float64
	mode     robot.StopMode
	timeout  time.Duration

	spinning bool
	dir      robot.Direction
	moving   bool // SpinFor in progress
	target   float64

	position float64
	actual   float64 // signed percent

	// Commands records every command in issue order.
	Commands []string
}

var _ robot.Actuator = (*Actuator)(nil)

// NewActuator returns an actuator driven by clock.
func NewActuator(clock *Clock, name robot.ActuatorName) *Actuator {
	a := &Actuator{
		Name:     name,
		clock:    clock,
		velocity: 50,
		torque:   100,
		timeout:  10 * time.Second,
	}
	clock.OnAdvance(a.integrate)
	return a
}

func (a *Actuator) record(format string, args ...any) {
	a.Commands = append(a.Commands, fmt.Sprintf(format, args...))
}

func (a *Actuator) limited() bool { return a.Min != a.Max }

func (a *Actuator) integrate(_ time.Time, dt time.Duration) {
	want := 0.0
	switch {
	case a.spinning:
		want = a.dir.Sign() * a.velocity
	case a.moving:
		if a.target > a.position {
			want = a.velocity
		} else {
			want = -a.velocity
		}
	}

	if a.Accel > 0 {
		step := a.Accel * dt.Seconds()
		switch {
		case a.actual < want:
			a.actual = math.Min(want, a.actual+step)
		case a.actual > want:
			a.actual = math.Max(want, a.actual-step)
		}
	} else {
		a.actual = want
	}

	next := a.position + a.actual/100*TurnsPerSecond*dt.Seconds()
	if a.moving && (a.actual > 0 && next >= a.target || a.actual < 0 && next <= a.target) {
		next = a.target
		a.moving = false
	}
	if a.limited() {
		if next >= a.Max {
			next = a.Max
			if a.actual > 0 {
				a.actual = 0
			}
		}
		if next <= a.Min {
			next = a.Min
			if a.actual < 0 {
				a.actual = 0
			}
		}
	}
	a.position = next
}

func (a *Actuator) Spin(dir robot.Direction) {
	if !a.spinning || a.dir != dir {
		a.record("spin %s", dir)
	}
	a.spinning = true
	a.moving = false
	a.dir = dir
}

// SpinFor moves by turns; when wait is true the virtual clock is advanced
// until the move completes or the timeout expires.
func (a *Actuator) SpinFor(ctx context.Context, dir robot.Direction, turns float64, wait bool) {
	a.record("spin_for %s %.2f", dir, turns)
	a.spinning = false
	a.moving = true
	a.target = a.position + dir.Sign()*turns
	if a.limited() {
		a.target = math.Max(a.Min, math.Min(a.Max, a.target))
	}
	if !wait {
		return
	}
	start := a.clock.Now()
	for a.moving && a.clock.Now().Sub(start) < a.timeout {
		if err := a.clock.Sleep(ctx, 10*time.Millisecond); err != nil {
			return
		}
	}
	a.moving = false
}

func (a *Actuator) Stop() {
	a.record("stop %s", a.mode)
	a.spinning = false
	a.moving = false
	if a.mode != robot.Coast || a.Accel == 0 {
		a.actual = 0
	}
}

func (a *Actuator) SetVelocity(pct float64) { a.velocity = math.Max(0, math.Min(100, pct)) }

func (a *Actuator) SetMaxTorque(pct float64) { a.torque = pct }

func (a *Actuator) SetStopMode(mode robot.StopMode) { a.mode = mode }

func (a *Actuator) SetTimeout(d time.Duration) { a.timeout = d }

// Velocity returns the magnitude of the actual velocity in percent.
func (a *Actuator) Velocity() float64 { return math.Abs(a.actual) }

// Position returns the position in turns.
func (a *Actuator) Position() float64 { return a.position }

// SetPosition teleports the actuator.
func (a *Actuator) SetPosition(turns float64) { a.position = turns }

// StopMode returns the current stop mode.
func (a *Actuator) StopMode() robot.StopMode { return a.mode }

// Spinning reports whether the actuator is under a spin command.
func (a *Actuator) Spinning() bool { return a.spinning || a.moving }

// Count returns how many recorded commands start with prefix.
func (a *Actuator) Count(prefix string) int {
	n := 0
	for _, c := range a.Commands {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// Reset clears the command log.
func (a *Actuator) Reset() { a.Commands = nil }
