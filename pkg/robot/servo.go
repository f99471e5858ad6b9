package robot

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hipsterbrown/feetech-servo/feetech"
	"github.com/rs/zerolog"
)

const (
	// FullSpeedStepsPerSec is the no-load speed of an STS3215 at 100%.
	FullSpeedStepsPerSec = 3400

	// arrivalTolerance is how close a SpinFor move must get to its goal.
	arrivalTolerance = 20

	defaultMoveTimeout = 2 * time.Second
)

// ServoBus drives every actuator on one feetech STS bus.
//
// Actuators only record intent. A pump loop started with Start reads all
// positions, integrates the goal of each spinning actuator and writes the
// goals back with one sync write per tick.
type ServoBus struct {
	bus   *feetech.Bus
	group *feetech.ServoGroup
	hz    int
	log   zerolog.Logger

	mu        sync.Mutex
	actuators map[ActuatorName]*ServoActuator
}

// OpenServoBus opens the serial bus described by cfg.
func OpenServoBus(cfg HardwareConfig, log zerolog.Logger) (*ServoBus, error) {
	cfg.ApplyDefaults()
	if !cfg.IsCalibrated() {
		return nil, fmt.Errorf("open servo bus: hardware not calibrated")
	}

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     cfg.Port,
		BaudRate: cfg.BaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, fmt.Errorf("open bus: %w", err)
	}

	b := &ServoBus{
		bus:       bus,
		group:     feetech.NewServoGroupByIDs(bus, cfg.Calibration.ServoIDs()...),
		hz:        cfg.Hz,
		log:       log.With().Str("component", "servo_bus").Logger(),
		actuators: make(map[ActuatorName]*ServoActuator),
	}
	for _, name := range AllActuators() {
		cal := cfg.Calibration[name]
		b.actuators[name] = &ServoActuator{
			name:     name,
			cal:      cal,
			bus:      b,
			torque:   feetech.NewServoGroupByIDs(bus, cal.ID),
			velocity: 50,
			maxTorq:  100,
			timeout:  defaultMoveTimeout,
		}
	}
	return b, nil
}

// Close disables torque on all servos and closes the bus.
func (b *ServoBus) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.group.DisableAll(ctx); err != nil {
		b.log.Warn().Err(err).Msg("disable torque on close")
	}
	return b.bus.Close()
}

// Actuator returns the actuator registered under name.
func (b *ServoBus) Actuator(name ActuatorName) *ServoActuator {
	return b.actuators[name]
}

// Endstop returns a soft limit switch for e.
func (b *ServoBus) Endstop(e Endstop) (DigitalSensor, error) {
	act, ok := b.actuators[e.Actuator]
	if !ok {
		return nil, fmt.Errorf("endstop: unknown actuator %q", e.Actuator)
	}
	return &PositionSwitch{Source: act, Threshold: e.Threshold, Above: e.Above}, nil
}

// Start runs the pump loop until ctx is canceled.
func (b *ServoBus) Start(ctx context.Context) error {
	if err := b.sync(ctx); err != nil {
		return fmt.Errorf("initial read: %w", err)
	}

	ticker := time.NewTicker(time.Second / time.Duration(b.hz))
	defer ticker.Stop()

	last := time.Now()
	sampled := b.log.Sample(&zerolog.BasicSampler{N: uint32(b.hz)})
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			if err := b.step(ctx, now.Sub(last)); err != nil {
				sampled.Warn().Err(err).Msg("bus step")
			}
			last = now
		}
	}
}

// sync reads current positions and seeds every goal from them.
func (b *ServoBus) sync(ctx context.Context) error {
	positions, err := b.group.Positions(ctx)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, raw := range positions {
		for _, a := range b.actuators {
			if a.cal.ID == id {
				a.pos = raw
				a.goal = float64(raw)
			}
		}
	}
	return nil
}

func (b *ServoBus) step(ctx context.Context, dt time.Duration) error {
	positions, err := b.group.Positions(ctx)
	if err != nil {
		return fmt.Errorf("read positions: %w", err)
	}

	goals := make(feetech.PositionMap, len(b.actuators))
	var toggles []*ServoActuator

	b.mu.Lock()
	for _, a := range b.actuators {
		if raw, ok := positions[a.cal.ID]; ok {
			a.observe(raw, dt)
		}
		a.advance(dt)
		if a.torqueWant != a.torqueOn {
			toggles = append(toggles, a)
		}
		if a.torqueWant {
			goals[a.cal.ID] = int(math.Round(a.goal))
		}
	}
	b.mu.Unlock()

	for _, a := range toggles {
		if err := a.applyTorque(ctx); err != nil {
			return err
		}
	}

	if len(goals) == 0 {
		return nil
	}
	if err := b.group.SetPositions(ctx, goals); err != nil {
		return fmt.Errorf("write positions: %w", err)
	}
	return nil
}

// ServoActuator is an Actuator backed by a position-mode STS servo.
// Continuous spin is emulated by moving the goal at the commanded velocity
// until the calibrated range runs out.
type ServoActuator struct {
	name   ActuatorName
	cal    ServoCalibration
	bus    *ServoBus
	torque *feetech.ServoGroup

	// guarded by bus.mu
	velocity   float64
	maxTorq    float64
	mode       StopMode
	timeout    time.Duration
	spinning   bool
	dir        Direction
	goal       float64
	pos        int
	measured   float64
	torqueOn   bool
	torqueWant bool
}

var _ Actuator = (*ServoActuator)(nil)

// observe records a position reading and derives the measured speed.
func (a *ServoActuator) observe(raw int, dt time.Duration) {
	if dt > 0 {
		a.measured = math.Abs(float64(raw-a.pos)) / dt.Seconds() / FullSpeedStepsPerSec * 100
	}
	a.pos = raw
}

// advance moves the goal of a spinning actuator.
func (a *ServoActuator) advance(dt time.Duration) {
	if !a.spinning {
		return
	}
	sign := a.dir.Sign()
	if a.cal.Inverted {
		sign = -sign
	}
	// goal stays fractional so slow spins accumulate; step rounds on write
	a.goal += sign * a.velocity / 100 * FullSpeedStepsPerSec * dt.Seconds()
	a.goal = math.Max(float64(a.cal.RangeMin), math.Min(float64(a.cal.RangeMax), a.goal))
}

func (a *ServoActuator) applyTorque(ctx context.Context) error {
	a.bus.mu.Lock()
	want := a.torqueWant
	a.bus.mu.Unlock()

	var err error
	if want {
		err = a.torque.EnableAll(ctx)
	} else {
		err = a.torque.DisableAll(ctx)
	}
	if err != nil {
		return fmt.Errorf("set torque %s: %w", a.name, err)
	}

	a.bus.mu.Lock()
	a.torqueOn = want
	a.bus.mu.Unlock()
	return nil
}

// Spin starts moving the goal in dir.
func (a *ServoActuator) Spin(dir Direction) {
	a.bus.mu.Lock()
	defer a.bus.mu.Unlock()
	if !a.spinning {
		a.goal = float64(a.pos)
	}
	a.spinning = true
	a.dir = dir
	a.torqueWant = true
}

// SpinFor moves the goal by a relative number of turns.
func (a *ServoActuator) SpinFor(ctx context.Context, dir Direction, turns float64, wait bool) {
	a.bus.mu.Lock()
	sign := dir.Sign()
	if a.cal.Inverted {
		sign = -sign
	}
	goal := a.cal.Clamp(a.pos + int(sign*turns*StepsPerTurn))
	a.spinning = false
	a.goal = float64(goal)
	a.torqueWant = true
	timeout := a.timeout
	a.bus.mu.Unlock()

	if !wait {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	ticker := time.NewTicker(time.Second / time.Duration(a.bus.hz))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			a.bus.log.Debug().Str("actuator", string(a.name)).Msg("spin_for timed out")
			return
		case <-ticker.C:
			a.bus.mu.Lock()
			pos := a.pos
			a.bus.mu.Unlock()
			if abs(pos-goal) <= arrivalTolerance {
				return
			}
		}
	}
}

// Stop applies the stop mode: coast releases torque, brake and hold freeze
// the goal at the current position.
func (a *ServoActuator) Stop() {
	a.bus.mu.Lock()
	defer a.bus.mu.Unlock()
	a.spinning = false
	if a.mode == Coast {
		a.torqueWant = false
		return
	}
	a.goal = float64(a.pos)
	a.torqueWant = true
}

func (a *ServoActuator) SetVelocity(pct float64) {
	a.bus.mu.Lock()
	a.velocity = clampPct(pct)
	a.bus.mu.Unlock()
}

// SetMaxTorque is recorded only; the STS torque limit is left at its EEPROM value.
func (a *ServoActuator) SetMaxTorque(pct float64) {
	a.bus.mu.Lock()
	a.maxTorq = clampPct(pct)
	a.bus.mu.Unlock()
}

func (a *ServoActuator) SetStopMode(mode StopMode) {
	a.bus.mu.Lock()
	a.mode = mode
	a.bus.mu.Unlock()
}

func (a *ServoActuator) SetTimeout(d time.Duration) {
	a.bus.mu.Lock()
	a.timeout = d
	a.bus.mu.Unlock()
}

// Velocity returns the measured speed, derived from successive position reads.
func (a *ServoActuator) Velocity() float64 {
	a.bus.mu.Lock()
	defer a.bus.mu.Unlock()
	return a.measured
}

// Position returns the normalized position in [-100, 100].
func (a *ServoActuator) Position() float64 {
	a.bus.mu.Lock()
	defer a.bus.mu.Unlock()
	return a.cal.Normalize(a.pos)
}

// PositionSource reports a normalized position.
type PositionSource interface {
	Position() float64
}

// PositionSwitch is a soft limit switch on a normalized position.
type PositionSwitch struct {
	Source    PositionSource
	Threshold float64
	Above     bool
}

// IsActive reports whether the source is at or past the threshold.
func (p *PositionSwitch) IsActive() bool {
	pos := p.Source.Position()
	if p.Above {
		return pos >= p.Threshold
	}
	return pos <= p.Threshold
}

func clampPct(pct float64) float64 {
	return math.Max(0, math.Min(100, pct))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
