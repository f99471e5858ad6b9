// Package bot runs the robot: one controller goroutine owns the hardware,
// the shared control state and the dispatcher, ticks the main loop and
// publishes snapshots for the driver station.
package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/AriaCoder/Axobotl/pkg/auto"
	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/coordinator"
	"github.com/AriaCoder/Axobotl/pkg/metrics"
	"github.com/AriaCoder/Axobotl/pkg/motion"
	"github.com/AriaCoder/Axobotl/pkg/robot"
)

// EventBuffer is the capacity of the input event channel.
const EventBuffer = 64

// Hardware is everything the controller commands or reads.
type Hardware struct {
	Actuators map[robot.ActuatorName]robot.Actuator
	Sensors   map[robot.SensorName]robot.DigitalSensor
	Battery   robot.Battery
	Indicator robot.Indicator
	Gyro      robot.Gyro
	Drive     robot.Drivetrain
}

func (h Hardware) validate() error {
	for _, name := range robot.AllActuators() {
		if h.Actuators[name] == nil {
			return fmt.Errorf("missing actuator %s", name)
		}
	}
	for _, name := range robot.AllSensors() {
		if h.Sensors[name] == nil {
			return fmt.Errorf("missing sensor %s", name)
		}
	}
	if h.Battery == nil || h.Indicator == nil || h.Gyro == nil || h.Drive == nil {
		return errors.New("missing battery, indicator, gyro or drivetrain")
	}
	return nil
}

// Snapshot is the state published after every tick and every yield.
type Snapshot struct {
	Time       time.Time                      `json:"time"`
	State      control.State                  `json:"state"`
	Phase      string                         `json:"auto_phase"`
	Velocities map[robot.ActuatorName]float64 `json:"velocities"`
	Sensors    map[robot.SensorName]bool      `json:"sensors"`
	Battery    float64                        `json:"battery"`
	Health     robot.Color                    `json:"health"`
	Held       []string                       `json:"held"`
	Drive      [2]float64                     `json:"drive"`
	Pending    int                            `json:"pending"`
}

// Controller runs the main loop.
type Controller struct {
	hw     Hardware
	cfg    Config
	clock  motion.Clock
	log    zerolog.Logger
	period time.Duration

	state      *control.State
	input      *control.Input
	dispatcher *control.Dispatcher
	runner     *motion.Runner
	coord      *coordinator.Coordinator
	sequencer  *auto.Sequencer
	routines   auto.Mechanisms
	metrics    *metrics.Recorder

	events     chan control.Event
	drive      [2]float64
	autoQueued bool

	mu      sync.RWMutex
	running bool
	last    Snapshot
	stateCh chan Snapshot
}

// NewController creates a controller. Nothing is commanded until Start.
func NewController(hw Hardware, cfg Config, clock motion.Clock, log zerolog.Logger) (*Controller, error) {
	if err := hw.validate(); err != nil {
		return nil, fmt.Errorf("create controller: %w", err)
	}
	cfg.ApplyDefaults()

	c := &Controller{
		hw:      hw,
		cfg:     cfg,
		clock:   clock,
		log:     log.With().Str("component", "controller").Logger(),
		period:  time.Second / time.Duration(cfg.Hz),
		state:   control.NewState(cfg.Mode),
		input:   &control.Input{},
		events:  make(chan control.Event, EventBuffer),
		stateCh: make(chan Snapshot, 1),
	}
	c.dispatcher = control.NewDispatcher(c.events, c.input, log)
	c.runner = motion.NewRunner(clock, motion.YieldFunc(c.yield), log)
	c.coord = coordinator.New(coordinator.Hardware{
		Rocker:     hw.Actuators[robot.Rocker],
		Shooter:    hw.Actuators[robot.Shooter],
		Arm:        hw.Actuators[robot.Arm],
		LongArm:    hw.Actuators[robot.LongArm],
		RockerUp:   hw.Sensors[robot.RockerUp],
		RockerDown: hw.Sensors[robot.RockerDown],
		BasketUp:   hw.Sensors[robot.BasketUp],
		BasketDown: hw.Sensors[robot.BasketDown],
	}, c.state, c.input, c.runner, cfg.Timing, log)
	c.sequencer = auto.NewSequencer(c.state, hw.Gyro, c.runner, log)
	c.routines = auto.Mechanisms{
		Drive:       hw.Drive,
		Coordinator: c.coord,
		State:       c.state,
		ShootCycles: cfg.ShootCycles,
	}
	c.bind()
	return c, nil
}

// WithMetrics wires rec into the runner, dispatcher and sequencer.
func (c *Controller) WithMetrics(rec *metrics.Recorder) *Controller {
	c.metrics = rec
	c.runner.WithObserver(rec)
	c.dispatcher.WithObserver(rec)
	c.sequencer.WithObserver(rec)
	return c
}

// bind registers every button binding. Bindings are never removed.
func (c *Controller) bind() {
	d := c.dispatcher

	d.OnPress(coordinator.RaiseButton, func(ctx context.Context) { c.report(c.coord.RaiseArm(ctx, false)) })
	d.OnPress(coordinator.LowerButton, func(ctx context.Context) { c.report(c.coord.LowerArm(ctx, false)) })
	d.OnPress(coordinator.CatchButton, func(ctx context.Context) { c.report(c.coord.RockUpToCatch(ctx, false)) })
	d.OnPress(coordinator.ShootButton, func(ctx context.Context) { c.report(c.coord.RockDownToShoot(ctx, false)) })
	d.OnPress(coordinator.LongArmButton, func(ctx context.Context) { c.report(c.coord.ToggleLongArm(ctx)) })

	// The trigger flag flips at the edge so a release that arrives before
	// the cycles start is never lost.
	d.InterruptOnPress(coordinator.TriggerButton, func() { c.state.AutoShooting = true })
	d.InterruptOnRelease(coordinator.TriggerButton, func() { c.state.AutoShooting = false })
	d.OnPress(coordinator.TriggerButton, func(ctx context.Context) {
		_, err := c.coord.AutoShoot(ctx, c.cfg.ShootCycles)
		c.report(err)
	})

	d.OnPress(control.RDown, func(context.Context) {
		if !c.input.Pressing(coordinator.TriggerButton) {
			c.coord.StartShooter()
		}
	})

	d.InterruptOnPress(control.FDown, func() {
		c.coord.StopRockAndShoot()
		c.state.StopAll()
	})

	d.InterruptOnPress(control.Touch, c.onTouch)
}

// onTouch starts the autonomous routine, or stops the one running.
func (c *Controller) onTouch() {
	switch {
	case c.state.AutoRunning:
		c.log.Info().Msg("autonomous stop requested")
		c.state.StopAll()
	case !c.state.Mode.IsAuto():
		c.log.Debug().Stringer("mode", c.state.Mode).Msg("touch ignored outside autonomous")
	case !c.state.AutoReady:
		c.log.Warn().Msg("autonomous not ready")
	case c.autoQueued:
		c.log.Debug().Msg("autonomous already queued")
	default:
		c.autoQueued = true
		c.dispatcher.Defer("autonomous", c.runAutonomous)
	}
}

func (c *Controller) runAutonomous(ctx context.Context) {
	c.autoQueued = false
	r, err := c.routines.ForMode(c.state.Mode)
	if err != nil {
		c.report(err)
		return
	}
	_, err = c.sequencer.Run(ctx, r)
	if errors.Is(err, auto.ErrAlreadyRunning) || errors.Is(err, auto.ErrNotReady) {
		c.log.Warn().Err(err).Msg("autonomous not started")
		return
	}
	c.report(err)
}

func (c *Controller) report(err error) {
	if err != nil && !errors.Is(err, context.Canceled) {
		c.log.Error().Err(err).Msg("handler failed")
	}
}

// Events returns the channel input sources write to.
func (c *Controller) Events() chan<- control.Event {
	return c.events
}

// Send queues ev without blocking. It reports false when the queue is
// full and the event was dropped.
func (c *Controller) Send(ev control.Event) bool {
	select {
	case c.events <- ev:
		return true
	default:
		c.log.Warn().Stringer("event", ev).Msg("event queue full, dropped")
		return false
	}
}

// States returns a channel that receives state updates.
func (c *Controller) States() <-chan Snapshot {
	return c.stateCh
}

// Snapshot returns the most recently published snapshot.
func (c *Controller) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Hz returns the main loop frequency.
func (c *Controller) Hz() int {
	return c.cfg.Hz
}

// Mode returns the operating mode.
func (c *Controller) Mode() control.Mode {
	return c.cfg.Mode
}

// Start runs the main loop until ctx is done. In autonomous modes the gyro
// is calibrated first.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return fmt.Errorf("already running")
	}
	c.running = true
	c.mu.Unlock()
	defer c.shutdown()

	c.coord.Setup()
	c.log.Info().Stringer("mode", c.state.Mode).Int("hz", c.cfg.Hz).Msg("controller started")

	if c.state.Mode.IsAuto() {
		if err := c.sequencer.Calibrate(ctx); err != nil {
			return err
		}
		c.log.Info().Msg("press touch to start autonomous")
	}

	for {
		if err := c.Tick(ctx); err != nil {
			return err
		}
		if err := c.clock.Sleep(ctx, c.period); err != nil {
			return err
		}
	}
}

// Tick runs one main loop iteration: drain input, run the deferred handlers
// to completion, update the drive and the health light, and publish.
func (c *Controller) Tick(ctx context.Context) error {
	c.dispatcher.Poll()
	if err := c.dispatcher.RunPending(ctx); err != nil {
		return err
	}
	c.updateDrive()
	c.checkHealth()
	c.publish()
	return nil
}

// yield is the suspension point of every bounded motion. Interrupt bindings
// run here so a cleared flag is seen on the next poll.
func (c *Controller) yield(ctx context.Context, d time.Duration) error {
	if err := c.clock.Sleep(ctx, d); err != nil {
		return err
	}
	c.dispatcher.Poll()
	c.publish()
	return nil
}

func (c *Controller) updateDrive() {
	c.setDrive(0, robot.DriveLeft, c.input.Position(control.AxisA))
	c.setDrive(1, robot.DriveRight, c.input.Position(control.AxisD))
}

// setDrive applies a joystick position to a drive motor, treating anything
// within the tolerance as zero. Commands are only sent on change.
func (c *Controller) setDrive(i int, name robot.ActuatorName, pos float64) {
	if math.Abs(pos) <= c.cfg.JoystickTolerance {
		pos = 0
	}
	if pos == c.drive[i] {
		return
	}
	c.drive[i] = pos

	a := c.hw.Actuators[name]
	if pos == 0 {
		a.SetStopMode(robot.Brake)
		a.Stop()
		return
	}
	dir := robot.Forward
	if pos < 0 {
		dir = robot.Reverse
	}
	a.SetVelocity(math.Abs(pos))
	a.Spin(dir)
}

func (c *Controller) checkHealth() {
	capacity := c.hw.Battery.Capacity()
	c.hw.Indicator.SetColor(robot.HealthColor(capacity))
	if c.metrics != nil {
		c.metrics.SetBattery(capacity)
	}
}

func (c *Controller) publish() {
	s := Snapshot{
		Time:       c.clock.Now(),
		State:      *c.state,
		Phase:      c.sequencer.Phase().String(),
		Velocities: make(map[robot.ActuatorName]float64, len(c.hw.Actuators)),
		Sensors:    make(map[robot.SensorName]bool, len(c.hw.Sensors)),
		Battery:    c.hw.Battery.Capacity(),
		Drive:      c.drive,
		Pending:    c.dispatcher.Pending(),
	}
	s.Health = robot.HealthColor(s.Battery)
	for name, a := range c.hw.Actuators {
		v := a.Velocity()
		s.Velocities[name] = v
		if c.metrics != nil {
			c.metrics.SetVelocity(string(name), v)
		}
	}
	for name, sensor := range c.hw.Sensors {
		s.Sensors[name] = sensor.IsActive()
	}
	for _, b := range c.input.Held() {
		s.Held = append(s.Held, b.String())
	}

	c.mu.Lock()
	c.last = s
	c.mu.Unlock()
	c.sendState(s)
}

func (c *Controller) sendState(s Snapshot) {
	select {
	case c.stateCh <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-c.stateCh:
		default:
		}
		c.stateCh <- s
	}
}

func (c *Controller) shutdown() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()

	c.coord.StopRockAndShoot()
	c.state.StopAll()
	for _, name := range robot.AllActuators() {
		a := c.hw.Actuators[name]
		a.SetStopMode(robot.Brake)
		a.Stop()
	}
	c.log.Info().Msg("controller stopped")
}
