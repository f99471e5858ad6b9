package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/hipsterbrown/feetech-servo/feetech"
	"go.bug.st/serial"

	"github.com/AriaCoder/Axobotl/pkg/robot"
)

type PortsCommand struct {
	Probe bool `long:"probe" description:"Scan each port for servos"`
}

func (c *PortsCommand) Execute(args []string) error {
	ports, err := serial.GetPortsList()
	if err != nil {
		return fmt.Errorf("list ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Println("No serial ports found.")
		return nil
	}

	headers := []string{"#", "Port"}
	if c.Probe {
		headers = append(headers, "Servos")
	}
	rows := make([][]string, 0, len(ports))
	for i, p := range ports {
		row := []string{fmt.Sprintf("%d", i+1), p}
		if c.Probe {
			row = append(row, probePort(p))
		}
		rows = append(rows, row)
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		Rows(rows...)
	fmt.Println(t.Render())
	return nil
}

// probePort lists the servo IDs answering on port.
func probePort(port string) string {
	// Skip Bluetooth ports on macOS
	if strings.Contains(port, "Bluetooth") {
		return "-"
	}
	bus, err := feetech.NewBus(feetech.BusConfig{
		Port:     port,
		BaudRate: robot.DefaultBaudRate,
		Protocol: feetech.ProtocolSTS,
		Timeout:  100 * time.Millisecond,
	})
	if err != nil {
		return "-"
	}
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	servos, err := bus.Scan(ctx, 1, servoCount)
	if err != nil || len(servos) == 0 {
		return "none"
	}
	ids := make([]string, 0, len(servos))
	for _, s := range servos {
		ids = append(ids, fmt.Sprintf("%d", s.ID))
	}
	return strings.Join(ids, ",")
}
