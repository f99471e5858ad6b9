package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/AriaCoder/Axobotl/pkg/bot"
	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/metrics"
	"github.com/AriaCoder/Axobotl/pkg/motion"
	"github.com/AriaCoder/Axobotl/pkg/remote"
	"github.com/AriaCoder/Axobotl/pkg/robot"
	"github.com/AriaCoder/Axobotl/pkg/sim"
)

const logBuffer = 100

// DriveOptions are shared by run and simulate.
type DriveOptions struct {
	Mode     string `short:"m" long:"mode" description:"Operating mode (driver, auto-near, auto-far); asked when omitted"`
	Hz       int    `long:"hz" description:"Main loop frequency"`
	Listen   string `long:"listen" description:"Remote driver station address"`
	NoRemote bool   `long:"no-remote" description:"Do not start the remote driver station"`
}

type RunCommand struct {
	DriveOptions
}

type SimulateCommand struct {
	DriveOptions
	Battery float64 `long:"battery" default:"100" description:"Starting battery capacity"`
}

func (c *RunCommand) Execute(args []string) error {
	cfg, err := bot.LoadConfigFrom(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "No configuration found in %s. Run 'axobotl setup' first.\n", opts.Config)
		os.Exit(1)
	}
	if cfg.Hardware.Port == "" || !cfg.Hardware.IsCalibrated() {
		fmt.Fprintln(os.Stderr, "Servo bus not calibrated. Run 'axobotl setup' first.")
		os.Exit(1)
	}
	if err := c.apply(cfg); err != nil {
		return err
	}

	sink := bot.NewLogSink(logBuffer)
	log := newLogger(sink)

	bus, err := robot.OpenServoBus(cfg.Hardware, log)
	if err != nil {
		return err
	}
	defer bus.Close()

	hw, err := bot.ServoHardware(bus, cfg.Hardware, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := bus.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("servo bus stopped")
		}
	}()

	return drive(ctx, cancel, hw, cfg, c.DriveOptions, motion.SystemClock{}, sink, log)
}

func (c *SimulateCommand) Execute(args []string) error {
	cfg, err := bot.LoadConfigFrom(opts.Config)
	if err != nil {
		cfg = bot.DefaultConfig()
	}
	if err := c.apply(cfg); err != nil {
		return err
	}

	sink := bot.NewLogSink(logBuffer)
	log := newLogger(sink)

	clock := sim.NewRealtimeClock()
	r := sim.NewRobot(clock)
	r.Battery.Set(c.Battery)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return drive(ctx, cancel, bot.SimHardware(r), cfg, c.DriveOptions, clock, sink, log)
}

// apply overrides cfg with the command line and asks for the mode when it
// was not given.
func (o DriveOptions) apply(cfg *bot.Config) error {
	if o.Hz > 0 {
		cfg.Hz = o.Hz
	}
	if o.Listen != "" {
		cfg.Remote.Listen = o.Listen
	}
	if o.Mode != "" {
		mode, err := control.ParseMode(o.Mode)
		if err != nil {
			return err
		}
		cfg.Mode = mode
		return nil
	}
	mode, err := selectMode(cfg.Mode)
	if err != nil {
		return err
	}
	cfg.Mode = mode
	return nil
}

func selectMode(current control.Mode) (control.Mode, error) {
	var options []huh.Option[control.Mode]
	for _, m := range control.AllModes() {
		options = append(options, huh.NewOption(m.String(), m))
	}
	mode := current
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[control.Mode]().
				Title("Operating mode").
				Description("Autonomous modes start when the touch LED is pressed").
				Options(options...).
				Value(&mode),
		),
	)
	if err := form.Run(); err != nil {
		return current, fmt.Errorf("select mode: %w", err)
	}
	return mode, nil
}

func newLogger(sink *bot.LogSink) zerolog.Logger {
	level := zerolog.InfoLevel
	if opts.Debug {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: sink, NoColor: true, TimeFormat: "15:04:05"}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// drive runs the controller, the remote driver station and the TUI until
// the operator quits.
func drive(ctx context.Context, cancel context.CancelFunc, hw bot.Hardware, cfg *bot.Config, o DriveOptions,
	clock motion.Clock, sink *bot.LogSink, log zerolog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctrl, err := bot.NewController(hw, *cfg, clock, log)
	if err != nil {
		return err
	}
	ctrl.WithMetrics(metrics.NewRecorder(reg))

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := ctrl.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("controller stopped")
		}
	}()

	if !o.NoRemote {
		srv := remote.NewServer(ctrl, reg, log)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.Remote.Listen); err != nil {
				log.Error().Err(err).Msg("remote driver station stopped")
			}
		}()
	}

	p := tea.NewProgram(newDriveModel(ctrl, sink), tea.WithAltScreen())
	_, err = p.Run()
	cancel()
	<-done
	if err != nil {
		return fmt.Errorf("run driver station: %w", err)
	}
	return nil
}
