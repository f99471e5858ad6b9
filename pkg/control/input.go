package control

import (
	"fmt"
	"strings"
)

// Button is one logical controller button.
type Button int

const (
	LUp Button = iota
	LDown
	RUp
	RDown
	EUp
	EDown
	FUp
	FDown
	// Touch is the touch LED on the brain, used as the autonomous
	// start/stop button.
	Touch

	numButtons = int(Touch) + 1
)

var buttonNames = []string{"LUp", "LDown", "RUp", "RDown", "EUp", "EDown", "FUp", "FDown", "Touch"}

// AllButtons returns every button.
func AllButtons() []Button {
	return []Button{LUp, LDown, RUp, RDown, EUp, EDown, FUp, FDown, Touch}
}

func (b Button) String() string {
	if int(b) < 0 || int(b) >= len(buttonNames) {
		return fmt.Sprintf("button(%d)", int(b))
	}
	return buttonNames[b]
}

// ParseButton parses a button name, case-insensitively.
func ParseButton(s string) (Button, error) {
	for i, name := range buttonNames {
		if strings.EqualFold(s, name) {
			return Button(i), nil
		}
	}
	return 0, fmt.Errorf("unknown button %q", s)
}

// Edge is a button transition.
type Edge int

const (
	Press Edge = iota
	Release
)

func (e Edge) String() string {
	if e == Release {
		return "release"
	}
	return "press"
}

// ParseEdge parses "press" or "release".
func ParseEdge(s string) (Edge, error) {
	switch strings.ToLower(s) {
	case "press":
		return Press, nil
	case "release":
		return Release, nil
	}
	return 0, fmt.Errorf("unknown edge %q", s)
}

// Axis is a joystick axis.
type Axis int

const (
	AxisA Axis = iota // left drive
	AxisD             // right drive
)

func (a Axis) String() string {
	if a == AxisD {
		return "D"
	}
	return "A"
}

// ParseAxis parses an axis name, "A" or "D".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToUpper(s) {
	case "A":
		return AxisA, nil
	case "D":
		return AxisD, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Event is one unit of operator input. Either a button edge or an axis
// position, never both.
type Event struct {
	Button Button
	Edge   Edge
	IsAxis bool
	Axis   Axis
	Value  float64
}

// ButtonEvent returns a button edge event.
func ButtonEvent(b Button, e Edge) Event { return Event{Button: b, Edge: e} }

// AxisEvent returns an axis position event.
func AxisEvent(a Axis, v float64) Event { return Event{IsAxis: true, Axis: a, Value: v} }

func (e Event) String() string {
	if e.IsAxis {
		return fmt.Sprintf("axis %s=%.0f", e.Axis, e.Value)
	}
	return fmt.Sprintf("%s %s", e.Button, e.Edge)
}

// Input tracks which buttons are held and where the axes are. It is
// updated by the dispatcher as events are drained.
type Input struct {
	held [numButtons]bool
	axes [2]float64
}

// Pressing reports whether b is currently held.
func (in *Input) Pressing(b Button) bool {
	if int(b) < 0 || int(b) >= len(in.held) {
		return false
	}
	return in.held[b]
}

// Position returns the last reported axis position in percent.
func (in *Input) Position(a Axis) float64 {
	return in.axes[a]
}

// Apply records the effect of e on held state and axes.
func (in *Input) Apply(e Event) {
	if e.IsAxis {
		in.axes[e.Axis] = e.Value
		return
	}
	if int(e.Button) < 0 || int(e.Button) >= len(in.held) {
		return
	}
	in.held[e.Button] = e.Edge == Press
}

// Held returns the held buttons in button order.
func (in *Input) Held() []Button {
	var out []Button
	for _, b := range AllButtons() {
		if in.held[b] {
			out = append(out, b)
		}
	}
	return out
}
