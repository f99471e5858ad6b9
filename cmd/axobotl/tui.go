package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/AriaCoder/Axobotl/pkg/bot"
	"github.com/AriaCoder/Axobotl/pkg/control"
	"github.com/AriaCoder/Axobotl/pkg/robot"
)

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	panelHeight  = 5 // state panel
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	axisStep     = 20
)

// Actuator colors - distinct colors for each actuator
var actuatorColors = map[robot.ActuatorName]string{
	robot.Rocker:     "196", // red
	robot.Shooter:    "208", // orange
	robot.Arm:        "226", // yellow
	robot.LongArm:    "46",  // green
	robot.DriveLeft:  "51",  // cyan
	robot.DriveRight: "201", // magenta
}

var healthColors = map[robot.Color]string{
	robot.Green:  "10",
	robot.Blue:   "12",
	robot.Orange: "208",
	robot.Red:    "9",
}

// Keys standing in for controller buttons. A keyboard cannot report holds,
// so held buttons toggle and momentary buttons press and release at once.
var buttonKeys = map[string]control.Button{
	"w":     control.LUp,
	"s":     control.LDown,
	"e":     control.RUp,
	"d":     control.RDown,
	"r":     control.EUp,
	"f":     control.EDown,
	"t":     control.FUp,
	"g":     control.FDown,
	"space": control.Touch,
	" ":     control.Touch,
}

var momentary = map[control.Button]bool{
	control.RDown: true,
	control.FDown: true,
	control.Touch: true,
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	onStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
)

type driveModel struct {
	ctrl           *bot.Controller
	sink           *bot.LogSink
	chart          *streamlinechart.Model
	width          int // terminal width
	height         int // terminal height
	logs           []string
	snap           bot.Snapshot
	held           map[control.Button]bool
	axes           [2]float64
	quitting       bool
	lastVelocities map[robot.ActuatorName]float64
}

func (m *driveModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// hasMovement checks if any velocity changed from the last snapshot
func (m *driveModel) hasMovement(v map[robot.ActuatorName]float64) bool {
	if m.lastVelocities == nil {
		return true
	}
	for name, vel := range v {
		if last, ok := m.lastVelocities[name]; !ok || vel != last {
			return true
		}
	}
	return false
}

type stateMsg bot.Snapshot
type logMsg string

func waitForState(ctrl *bot.Controller) tea.Cmd {
	return func() tea.Msg {
		return stateMsg(<-ctrl.States())
	}
}

func waitForLog(sink *bot.LogSink) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-sink.Lines())
	}
}

func (m *driveModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 16
	}
	width = m.width - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - panelHeight - footerHeight - borderSize
	if height < 8 {
		height = 8
	}
	return width, height
}

func newDriveModel(ctrl *bot.Controller, sink *bot.LogSink) driveModel {
	chart := streamlinechart.New(80, 16,
		streamlinechart.WithYRange(0, 100),
	)
	for _, name := range robot.AllActuators() {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(actuatorColors[name]))
		chart.SetDataSetStyles(string(name), runes.ThinLineStyle, style)
	}
	return driveModel{
		ctrl:  ctrl,
		sink:  sink,
		chart: &chart,
		held:  make(map[control.Button]bool),
	}
}

func (m driveModel) Init() tea.Cmd {
	return tea.Batch(
		waitForState(m.ctrl),
		waitForLog(m.sink),
	)
}

// press translates a key into controller events.
func (m *driveModel) press(b control.Button) {
	if momentary[b] {
		m.ctrl.Send(control.ButtonEvent(b, control.Press))
		m.ctrl.Send(control.ButtonEvent(b, control.Release))
		return
	}
	edge := control.Press
	if m.held[b] {
		edge = control.Release
	}
	m.held[b] = edge == control.Press
	m.ctrl.Send(control.ButtonEvent(b, edge))
}

func (m *driveModel) moveAxis(a control.Axis, delta float64) {
	v := m.axes[a] + delta
	v = max(-100, min(100, v))
	m.axes[a] = v
	m.ctrl.Send(control.AxisEvent(a, v))
}

func (m driveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.chartSize()
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "up":
			m.moveAxis(control.AxisA, axisStep)
		case "down":
			m.moveAxis(control.AxisA, -axisStep)
		case "i":
			m.moveAxis(control.AxisD, axisStep)
		case "k":
			m.moveAxis(control.AxisD, -axisStep)
		case "x":
			m.moveAxis(control.AxisA, -m.axes[control.AxisA])
			m.moveAxis(control.AxisD, -m.axes[control.AxisD])
		default:
			if b, ok := buttonKeys[key]; ok {
				m.press(b)
			}
		}
		return m, nil

	case stateMsg:
		m.snap = bot.Snapshot(msg)
		if m.hasMovement(m.snap.Velocities) {
			for name, v := range m.snap.Velocities {
				m.chart.PushDataSet(string(name), v)
			}
			m.chart.DrawAll()
			m.lastVelocities = m.snap.Velocities
		}
		return m, waitForState(m.ctrl)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.sink)
	}

	return m, nil
}

func (m driveModel) View() string {
	if m.quitting {
		return "Controller stopped.\n"
	}

	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Axobotl"))
	sb.WriteString(fmt.Sprintf(" - %s - %d Hz", m.ctrl.Mode(), m.ctrl.Hz()))
	if m.width > 0 {
		sb.WriteString(statusStyle.Render(fmt.Sprintf("  [%dx%d]", m.width, m.height)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(chartStyle.Render(m.chart.View()))
	sb.WriteString("\n")
	sb.WriteString(renderLegend())
	sb.WriteString("\n\n")
	sb.WriteString(m.renderPanel())
	sb.WriteString("\n")

	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render("w/s arm  e trigger  d shooter  r/f rock  t long arm  g stop  space auto  arrows/i/k drive  q quit")
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func flagLabel(name string, on bool) string {
	if on {
		return onStyle.Render(name)
	}
	return statusStyle.Render(name)
}

func (m driveModel) renderPanel() string {
	s := m.snap
	health := lipgloss.NewStyle().Foreground(lipgloss.Color(healthColors[s.Health])).Bold(true)

	var sensors []string
	for _, name := range robot.AllSensors() {
		sensors = append(sensors, flagLabel(string(name), s.Sensors[name]))
	}

	lines := []string{
		labelStyle.Render("battery ") + health.Render(fmt.Sprintf("%.1f%% %s", s.Battery, s.Health)) +
			labelStyle.Render("   auto ") + s.Phase,
		labelStyle.Render("flags   ") + strings.Join([]string{
			flagLabel("auto_shooting", s.State.AutoShooting),
			flagLabel("long_arm_out", s.State.LongArmOut),
			flagLabel("auto_ready", s.State.AutoReady),
			flagLabel("auto_running", s.State.AutoRunning),
		}, " "),
		labelStyle.Render("bumpers ") + strings.Join(sensors, " "),
		labelStyle.Render("held    ") + strings.Join(s.Held, " "),
		labelStyle.Render("drive   ") + fmt.Sprintf("A %4.0f  D %4.0f", s.Drive[0], s.Drive[1]),
	}
	return strings.Join(lines, "\n")
}

func renderLegend() string {
	var items []string
	for _, name := range robot.AllActuators() {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(actuatorColors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+string(name))
	}
	return strings.Join(items, "  ")
}
