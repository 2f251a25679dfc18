// Package robot describes the robot's wiring, dimensions and tuning constants.
package robot

import "fmt"

// DeviceName identifies the role a device plays on the robot.
type DeviceName string

// Device roles for the Spin Up robot.
const (
	LeftDrive          DeviceName = "left_drive"
	RightDrive         DeviceName = "right_drive"
	Intake             DeviceName = "intake"
	Inertial           DeviceName = "inertial"
	RollerSensor       DeviceName = "roller_sensor"
	LeftRotation       DeviceName = "left_rotation"
	RightRotation      DeviceName = "right_rotation"
	HorizontalRotation DeviceName = "horizontal_rotation"
	CatapultLimit      DeviceName = "catapult_limit"
	CatapultBooster    DeviceName = "catapult_booster"
	Expansion          DeviceName = "expansion"
)

// Gearset is a V5 motor cartridge.
type Gearset string

// Motor cartridges, named by their colour.
const (
	GearsetRed   Gearset = "red"   // 100 rpm
	GearsetGreen Gearset = "green" // 200 rpm
	GearsetBlue  Gearset = "blue"  // 600 rpm
)

// RPM returns the rated output speed of the cartridge.
func (g Gearset) RPM() (float64, error) {
	switch g {
	case GearsetRed:
		return 100, nil
	case GearsetGreen:
		return 200, nil
	case GearsetBlue:
		return 600, nil
	}
	return 0, fmt.Errorf("unknown gearset %q", string(g))
}

// EncoderUnits selects how a motor reports its position.
type EncoderUnits string

const (
	UnitsDegrees   EncoderUnits = "degrees"
	UnitsRotations EncoderUnits = "rotations"
	UnitsCounts    EncoderUnits = "counts"
)

// Motor is a single smart motor binding.
type Motor struct {
	Port     Port
	Reversed bool
	Gearset  Gearset
	Units    EncoderUnits
}

// MotorGroup is a set of motors commanded together.
type MotorGroup struct {
	motors []Motor
}

// Motors returns a copy of the motors in the group.
func (g MotorGroup) Motors() []Motor {
	out := make([]Motor, len(g.motors))
	copy(out, g.motors)
	return out
}

// Len returns the number of motors in the group.
func (g MotorGroup) Len() int {
	return len(g.motors)
}

// Gearset returns the cartridge shared by every motor in the group.
func (g MotorGroup) Gearset() Gearset {
	if len(g.motors) == 0 {
		return ""
	}
	return g.motors[0].Gearset
}

// Rotation is a rotation sensor, used here for tracking wheels.
type Rotation struct {
	Port     Port
	Reversed bool
}

// IMU is the inertial sensor.
type IMU struct {
	Port Port
}

// Optical is the optical colour sensor used to read the roller.
type Optical struct {
	Port Port
}

// DigitalIn is a three-wire digital input such as a limit switch.
type DigitalIn struct {
	Port Port
}

// DigitalOut is a three-wire digital output driving a solenoid.
type DigitalOut struct {
	Port Port
}
