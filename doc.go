// Package spinup runs the autonomous routines of a VEX Spin Up robot.
//
// Routines are fixed scripts of motion and mechanism calls. They run against
// a simulated chassis for dry runs, or against the robot brain over USB
// serial.
//
// # Installation
//
//	go install github.com/pawbotics/spinup/cmd/spinup@latest
//
// # Usage
//
// Check the wiring and the derived drivetrain constants:
//
//	spinup check
//
// Then dry run a routine, or run it on the robot:
//
//	spinup run --routine leftRoller
//	spinup run --routine leftRoller --port /dev/ttyACM0
//
// # Packages
//
// The module is organized into the following packages:
//
//   - cmd/spinup: CLI with run, list, check, render, init and ports commands
//   - pkg/robot: Wiring, dimensions and controller tuning
//   - pkg/auton: Routines, the sequencer and the routine script format
//   - pkg/chassis: Simulated drive base
//   - pkg/link: Serial link to the robot brain
//   - pkg/telemetry: Pose observer and MQTT publisher
package spinup
