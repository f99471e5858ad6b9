// Package control holds the robot's shared control state and the event
// dispatcher that turns operator input into handler invocations.
//
// Everything in this package is owned by a single goroutine, the controller
// loop. Other goroutines only hand events over through a channel.
package control

import (
	"fmt"
	"strings"
)

// Mode is the operating mode selected at startup.
type Mode int

const (
	Driver Mode = iota
	AutoNear
	AutoFar
)

var modeNames = []string{"driver", "auto-near", "auto-far"}

// AllModes returns every mode in menu order.
func AllModes() []Mode { return []Mode{Driver, AutoNear, AutoFar} }

func (m Mode) String() string {
	if int(m) < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("mode(%d)", int(m))
	}
	return modeNames[m]
}

// ParseMode parses a mode name.
func ParseMode(s string) (Mode, error) {
	for i, name := range modeNames {
		if strings.EqualFold(s, name) {
			return Mode(i), nil
		}
	}
	return Driver, fmt.Errorf("unknown mode %q (want one of %s)", s, strings.Join(modeNames, ", "))
}

// IsAuto reports whether m runs an autonomous routine.
func (m Mode) IsAuto() bool { return m == AutoNear || m == AutoFar }

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// State is the set of flags shared by button handlers, coordinators and the
// autonomous sequencer. A cleared flag is a request to stop as soon as the
// next poll sees it; nothing ever blocks on these flags.
type State struct {
	AutoShooting bool `json:"auto_shooting"`
	LongArmOut   bool `json:"long_arm_out"`
	Mode         Mode `json:"mode"`
	AutoReady    bool `json:"auto_ready"`
	AutoRunning  bool `json:"auto_running"`
}

// NewState returns the safe startup state for mode.
func NewState(mode Mode) *State {
	return &State{Mode: mode}
}

// StopAll clears every request flag that keeps a loop running.
func (s *State) StopAll() {
	s.AutoShooting = false
	s.AutoRunning = false
}
