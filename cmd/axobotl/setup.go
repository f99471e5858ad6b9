package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/AriaCoder/Axobotl/pkg/bot"
	"github.com/AriaCoder/Axobotl/pkg/robot"
)

var (
	headerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	subHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	successStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// servoCount is the number of servos on the robot bus, IDs 1 to servoCount.
var servoCount = len(robot.AllActuators())

type SetupCommand struct {
	Port string `short:"p" long:"port" description:"Servo bus port; scanned when omitted"`
}

func (c *SetupCommand) Execute(args []string) error {
	fmt.Println(headerStyle.Render("Axobotl Setup"))
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━"))
	fmt.Println()

	cfg, err := bot.LoadConfigFrom(opts.Config)
	if err != nil {
		cfg = bot.DefaultConfig()
	}

	// Step 1: find the bus
	port := c.Port
	if port == "" {
		port = scanForBus()
	}
	cfg.Hardware.Port = port

	bus, servos, err := connectToBus(port, cfg.Hardware.BaudRate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to servo bus: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	servoMap := make(map[int]*feetech.Servo)
	for _, s := range servos {
		servoMap[s.ID] = feetech.NewServo(bus, s.ID, s.Model)
	}

	// Step 2: directions
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Mechanism directions ━━━"))
	fmt.Println()
	inverted := askInverted(servoMap)

	// Step 3: ranges
	fmt.Println()
	fmt.Println(subHeaderStyle.Render("━━━ Calibrating ranges ━━━"))
	fmt.Println()
	cfg.Hardware.Calibration = calibrateRanges(servoMap, inverted)

	if err := cfg.SaveTo(opts.Config); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println(dimStyle.Render("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"))
	fmt.Println(successStyle.Render("Setup complete!"))
	fmt.Printf("Configuration saved to %s\n", opts.Config)
	fmt.Println()
	fmt.Println("Start driving with: " + headerStyle.Render("axobotl run"))
	return nil
}

func scanForBus() string {
	fmt.Println("Scanning for the servo bus...")
	fmt.Println()

	ports := findBuses()
	switch len(ports) {
	case 0:
		fmt.Printf("No bus with servos 1-%d found.\n", servoCount)
		fmt.Println("Make sure the bus adapter is connected and the servos are powered on.")
		os.Exit(1)
	case 1:
		return ports[0]
	}

	var port string
	var options []huh.Option[string]
	for _, p := range ports {
		options = append(options, huh.NewOption(p, p))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Which port is the robot on?").
				Options(options...).
				Value(&port),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}
	return port
}

func findBuses() []string {
	ports, err := serial.GetPortsList()
	if err != nil {
		fmt.Printf("Error listing ports: %v\n", err)
		return nil
	}

	var found []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		bus, _, err := connectToBus(port, robot.DefaultBaudRate)
		if err != nil {
			continue
		}
		bus.Close()
		fmt.Printf("  Found servo bus on %s\n", port)
		found = append(found, port)
	}
	return found
}

func connectToBus(port string, baud int) (*feetech.Bus, []feetech.FoundServo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: baud,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return nil, nil, err
	}

	servos, err := bus.Scan(ctx, 1, servoCount)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	if !hasAllServos(servos) {
		bus.Close()
		return nil, nil, fmt.Errorf("expected %d servos with IDs 1-%d, found %d", servoCount, servoCount, len(servos))
	}
	return bus, servos, nil
}

func hasAllServos(servos []feetech.FoundServo) bool {
	ids := make(map[int]bool)
	for _, s := range servos {
		ids[s.ID] = true
	}
	for i := 1; i <= servoCount; i++ {
		if !ids[i] {
			return false
		}
	}
	return true
}

// wiggle nudges a servo forward and back so the operator can see which
// mechanism it drives.
func wiggle(ctx context.Context, servo *feetech.Servo) error {
	originalPos, err := servo.Position(ctx)
	if err != nil {
		return err
	}
	if err := servo.Enable(ctx); err != nil {
		return err
	}
	defer servo.Disable(ctx)

	wiggleAmount := 60
	moveTimeMs := 500
	servo.SetPositionWithTime(ctx, originalPos+wiggleAmount, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	servo.SetPositionWithTime(ctx, originalPos, moveTimeMs)
	time.Sleep(time.Duration(moveTimeMs+100) * time.Millisecond)
	return nil
}

// askInverted wiggles every mechanism in its raw positive direction and asks
// which ones moved backwards (down, in, or in reverse).
func askInverted(servoMap map[int]*feetech.Servo) map[robot.ActuatorName]bool {
	ctx := context.Background()
	for i, name := range robot.AllActuators() {
		fmt.Printf("  Wiggling %s (servo %d)...\n", name, i+1)
		if err := wiggle(ctx, servoMap[i+1]); err != nil {
			fmt.Printf("  Error wiggling %s: %v\n", name, err)
		}
	}

	var picked []robot.ActuatorName
	var options []huh.Option[robot.ActuatorName]
	for _, name := range robot.AllActuators() {
		options = append(options, huh.NewOption(string(name), name))
	}
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[robot.ActuatorName]().
				Title("Which mechanisms moved backwards?").
				Description("Forward is rocker up, arm up, long arm in, shooter and wheels forward").
				Options(options...).
				Value(&picked),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println()
		os.Exit(0)
	}

	inverted := make(map[robot.ActuatorName]bool)
	for _, name := range picked {
		inverted[name] = true
	}
	return inverted
}

func calibrateRanges(servoMap map[int]*feetech.Servo, inverted map[robot.ActuatorName]bool) robot.Calibration {
	ctx := context.Background()
	for _, servo := range servoMap {
		servo.Disable(ctx)
	}

	actuators := robot.AllActuators()

	fmt.Println(subHeaderStyle.Render("Record range of motion"))
	fmt.Println("Move the rocker, arm and long arm between their bumpers.")
	fmt.Println("Turn the shooter and wheels at least one full turn.")
	fmt.Println()

	curPositions := make(map[robot.ActuatorName]int)
	minPositions := make(map[robot.ActuatorName]int)
	maxPositions := make(map[robot.ActuatorName]int)
	for i, name := range actuators {
		pos, _ := servoMap[i+1].Position(ctx)
		curPositions[name] = pos
		minPositions[name] = pos
		maxPositions[name] = pos
	}

	model := newCalibrationModel(actuators, servoMap, curPositions, minPositions, maxPositions)
	p := tea.NewProgram(model)
	finalModel, err := p.Run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running calibration: %v\n", err)
		os.Exit(1)
	}
	cm := finalModel.(calibrationModel)

	calibration := make(robot.Calibration)
	for i, name := range actuators {
		calibration[name] = robot.ServoCalibration{
			ID:       i + 1,
			Inverted: inverted[name],
			RangeMin: cm.minPositions[name],
			RangeMax: cm.maxPositions[name],
		}
	}
	return calibration
}

// Calibration TUI model
type calibrationModel struct {
	actuators    []robot.ActuatorName
	servoMap     map[int]*feetech.Servo
	curPositions map[robot.ActuatorName]int
	minPositions map[robot.ActuatorName]int
	maxPositions map[robot.ActuatorName]int
	quitting     bool
}

type tickMsg time.Time

func newCalibrationModel(
	actuators []robot.ActuatorName,
	servoMap map[int]*feetech.Servo,
	curPositions, minPositions, maxPositions map[robot.ActuatorName]int,
) calibrationModel {
	return calibrationModel{
		actuators:    actuators,
		servoMap:     servoMap,
		curPositions: curPositions,
		minPositions: minPositions,
		maxPositions: maxPositions,
	}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m calibrationModel) Init() tea.Cmd {
	return tick()
}

func (m calibrationModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tickMsg:
		ctx := context.Background()
		for i, name := range m.actuators {
			pos, err := m.servoMap[i+1].Position(ctx)
			if err != nil {
				continue
			}
			m.curPositions[name] = pos
			m.minPositions[name] = min(m.minPositions[name], pos)
			m.maxPositions[name] = max(m.maxPositions[name], pos)
		}
		return m, tick()
	}

	return m, nil
}

func (m calibrationModel) View() string {
	if m.quitting {
		return ""
	}

	tableHeaderStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)
	tableNameStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	tableCellStyle := lipgloss.NewStyle().Padding(0, 1)
	tableCurrentStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	tableRangeGoodStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Padding(0, 1)
	tableRangeLowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(0, 1)

	rows := make([][]string, 0, len(m.actuators))
	ranges := make([]int, 0, len(m.actuators))
	for _, name := range m.actuators {
		rangeSize := m.maxPositions[name] - m.minPositions[name]
		ranges = append(ranges, rangeSize)
		rows = append(rows, []string{
			string(name),
			fmt.Sprintf("%d", m.curPositions[name]),
			fmt.Sprintf("%d", m.minPositions[name]),
			fmt.Sprintf("%d", m.maxPositions[name]),
			fmt.Sprintf("%d", rangeSize),
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Mechanism", "Current", "Min", "Max", "Range").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			switch col {
			case 0:
				return tableNameStyle
			case 1:
				return tableCurrentStyle
			case 4:
				if row >= 0 && row < len(ranges) && ranges[row] > 500 {
					return tableRangeGoodStyle
				}
				return tableRangeLowStyle
			default:
				return tableCellStyle
			}
		})

	var sb strings.Builder
	sb.WriteString(t.Render())
	sb.WriteString("\n\n")
	sb.WriteString(dimStyle.Render("Press Enter when done"))
	return sb.String()
}
