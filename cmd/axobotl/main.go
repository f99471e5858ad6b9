package main

import (
	"os"

	"github.com/jessevdk/go-flags"
)

type Options struct {
	Config string `short:"c" long:"config" default:"axobotl.json" description:"Configuration file"`
	Debug  bool   `long:"debug" description:"Log debug messages"`

	Run      RunCommand      `command:"run" description:"Drive the robot on the servo bus"`
	Simulate SimulateCommand `command:"simulate" alias:"sim" description:"Drive a simulated robot"`
	Setup    SetupCommand    `command:"setup" description:"Find the servo bus and calibrate every mechanism"`
	Ports    PortsCommand    `command:"ports" description:"List serial ports"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "Axobotl - catch-and-launch robot controller"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}
