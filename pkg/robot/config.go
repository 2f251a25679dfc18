package robot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

const DefaultConfigFile = "spinup.json"

// Config holds the robot configuration
type Config struct {
	Devices    DeviceConfig `json:"devices"`
	Drivetrain Drivetrain   `json:"drivetrain"`
	Odometry   Odometry     `json:"odometry"`
	PID        PID          `json:"pid"`
}

// DeviceConfig holds the port bindings for every device role
type DeviceConfig struct {
	LeftDrive          []MotorConfig  `json:"left_drive"`
	RightDrive         []MotorConfig  `json:"right_drive"`
	Intake             []MotorConfig  `json:"intake"`
	Inertial           PortConfig     `json:"inertial"`
	RollerSensor       PortConfig     `json:"roller_sensor"`
	LeftRotation       RotationConfig `json:"left_rotation"`
	RightRotation      RotationConfig `json:"right_rotation"`
	HorizontalRotation RotationConfig `json:"horizontal_rotation"`
	CatapultLimit      ADIConfig      `json:"catapult_limit"`
	CatapultBooster    ADIConfig      `json:"catapult_booster"`
	Expansion          ADIConfig      `json:"expansion"`
}

// MotorConfig binds one motor to a smart port
type MotorConfig struct {
	Port     int          `json:"port"`
	Reversed bool         `json:"reversed,omitempty"`
	Gearset  Gearset      `json:"gearset"`
	Units    EncoderUnits `json:"units,omitempty"`
}

// PortConfig binds a sensor to a smart port
type PortConfig struct {
	Port int `json:"port"`
}

// RotationConfig binds a rotation sensor to a smart port
type RotationConfig struct {
	Port     int  `json:"port"`
	Reversed bool `json:"reversed,omitempty"`
}

// ADIConfig binds a three-wire device to a lettered port
type ADIConfig struct {
	Port string `json:"port"`
}

// Default returns the wiring and tuning of the competition robot.
func Default() Config {
	drive := func(port int, reversed bool) MotorConfig {
		return MotorConfig{Port: port, Reversed: reversed, Gearset: GearsetBlue}
	}
	intake := func(port int, reversed bool) MotorConfig {
		return MotorConfig{Port: port, Reversed: reversed, Gearset: GearsetRed, Units: UnitsDegrees}
	}
	wheel := TrackingWheel{Diameter: 2.75, Offset: 0}

	return Config{
		Devices: DeviceConfig{
			LeftDrive:          []MotorConfig{drive(13, true), drive(11, true), drive(12, false)},
			RightDrive:         []MotorConfig{drive(18, false), drive(20, false), drive(19, true)},
			Intake:             []MotorConfig{intake(2, false), intake(3, true)},
			Inertial:           PortConfig{Port: 21},
			RollerSensor:       PortConfig{Port: 9},
			LeftRotation:       RotationConfig{Port: 4, Reversed: true},
			RightRotation:      RotationConfig{Port: 6},
			HorizontalRotation: RotationConfig{Port: 5},
			CatapultLimit:      ADIConfig{Port: "H"},
			CatapultBooster:    ADIConfig{Port: "E"},
			Expansion:          ADIConfig{Port: "F"},
		},
		Drivetrain: Drivetrain{
			WheelDiameter: 3.25 / 2,
			Track:         15,
			WheelBase:     15,
			GearRatio:     Ratio{Wheel: 2, Motor: 3},
			Cartridge:     GearsetBlue,
		},
		Odometry: Odometry{Left: wheel, Right: wheel, Horizontal: wheel},
		PID: PID{
			Lateral: ChassisController{
				KP: 8, KD: 30,
				SmallErrorRange: 1, SmallErrorTimeoutMS: 100,
				LargeErrorRange: 3, LargeErrorTimeoutMS: 500,
				Slew: 5,
			},
			Angular: ChassisController{
				KP: 4, KD: 40,
				SmallErrorRange: 1, SmallErrorTimeoutMS: 100,
				LargeErrorRange: 3, LargeErrorTimeoutMS: 500,
			},
		},
	}
}

// LoadConfigFrom reads a JSON configuration file.
func LoadConfigFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadConfigOrDefault loads path, falling back to Default when the file does
// not exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfigFrom(path)
	if errors.Is(err, os.ErrNotExist) {
		def := Default()
		return &def, nil
	}
	return cfg, err
}

// SaveTo writes the configuration as indented JSON.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ConfigExists reports whether a configuration file is present at path.
// Errors other than the file not existing are returned.
func ConfigExists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	}
	return false, err
}
