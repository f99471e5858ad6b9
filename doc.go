// Package axobotl is the controller for a catch-and-launch competition
// robot: a rocker that catches and launches game pieces, a shooter
// flywheel, a basket arm, an extending long arm and a tank drivetrain.
//
// Every mechanism is commanded through bounded motions that stop on a
// bumper, an operator condition or a timeout, whichever comes first.
// Operator buttons can cancel a running motion at its next poll.
//
// # Installation
//
//	go install github.com/AriaCoder/Axobotl/cmd/axobotl@latest
//
// # Usage
//
// Find the servo bus and calibrate every mechanism:
//
//	axobotl setup
//
// Then drive:
//
//	axobotl run --mode driver
//
// Or try everything without hardware:
//
//	axobotl simulate
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/axobotl: CLI with run, simulate, setup and ports commands
//   - pkg/robot: Hardware interfaces, servo bus backend, calibration, tank drive
//   - pkg/motion: Bounded motion primitive and clocks
//   - pkg/control: Shared control state, operator input and the event dispatcher
//   - pkg/coordinator: Rock, shoot, arm and long arm behaviors
//   - pkg/auto: Autonomous sequencer and routines
//   - pkg/bot: Controller main loop and configuration
//   - pkg/sim: Simulated robot on a virtual clock
//   - pkg/metrics: Prometheus metrics
//   - pkg/remote: Websocket remote driver station
package axobotl
