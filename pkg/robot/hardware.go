package robot

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is returned by Build when the wiring or dimensions are unusable.
var ErrInvalidConfig = errors.New("invalid robot configuration")

// Device is one row of the wiring table.
type Device struct {
	Name     DeviceName
	Kind     string
	Port     Port
	Reversed bool
}

// Hardware is the validated, immutable device registry. It is built once at
// startup and shared read-only by the chassis and the routines.
type Hardware struct {
	leftDrive          MotorGroup
	rightDrive         MotorGroup
	intake             MotorGroup
	inertial           IMU
	rollerSensor       Optical
	leftRotation       Rotation
	rightRotation      Rotation
	horizontalRotation Rotation
	catapultLimit      DigitalIn
	catapultBooster    DigitalOut
	expansion          DigitalOut

	drivetrain Drivetrain
	odometry   Odometry
	pid        PID

	gearRatio          float64
	cartridgeRPM       float64
	wheelRPM           float64
	wheelCircumference float64
	maxWheelSpeed      float64
}

// Build validates cfg and returns the hardware registry. Every problem found
// is reported, all wrapped in ErrInvalidConfig.
func Build(cfg Config) (*Hardware, error) {
	var problems []error
	fail := func(format string, args ...any) {
		problems = append(problems, fmt.Errorf(format, args...))
	}

	group := func(name DeviceName, motors []MotorConfig) MotorGroup {
		if len(motors) == 0 {
			fail("%s: no motors bound", name)
			return MotorGroup{}
		}
		g := MotorGroup{motors: make([]Motor, 0, len(motors))}
		for _, m := range motors {
			if _, err := m.Gearset.RPM(); err != nil {
				fail("%s: port %d: %v", name, m.Port, err)
			}
			if len(g.motors) > 0 && m.Gearset != g.motors[0].Gearset {
				fail("%s: mixed gearsets %s and %s", name, g.motors[0].Gearset, m.Gearset)
			}
			units := m.Units
			switch units {
			case "":
				units = UnitsDegrees
			case UnitsDegrees, UnitsRotations, UnitsCounts:
			default:
				fail("%s: port %d: unknown encoder units %q", name, m.Port, units)
			}
			g.motors = append(g.motors, Motor{
				Port:     SmartPort(m.Port),
				Reversed: m.Reversed,
				Gearset:  m.Gearset,
				Units:    units,
			})
		}
		return g
	}

	d := cfg.Devices
	hw := &Hardware{
		leftDrive:          group(LeftDrive, d.LeftDrive),
		rightDrive:         group(RightDrive, d.RightDrive),
		intake:             group(Intake, d.Intake),
		inertial:           IMU{Port: SmartPort(d.Inertial.Port)},
		rollerSensor:       Optical{Port: SmartPort(d.RollerSensor.Port)},
		leftRotation:       Rotation{Port: SmartPort(d.LeftRotation.Port), Reversed: d.LeftRotation.Reversed},
		rightRotation:      Rotation{Port: SmartPort(d.RightRotation.Port), Reversed: d.RightRotation.Reversed},
		horizontalRotation: Rotation{Port: SmartPort(d.HorizontalRotation.Port), Reversed: d.HorizontalRotation.Reversed},
		catapultLimit:      DigitalIn{Port: ADIPort(d.CatapultLimit.Port)},
		catapultBooster:    DigitalOut{Port: ADIPort(d.CatapultBooster.Port)},
		expansion:          DigitalOut{Port: ADIPort(d.Expansion.Port)},
		drivetrain:         cfg.Drivetrain,
		odometry:           cfg.Odometry,
		pid:                cfg.PID,
	}

	owners := make(map[Port]DeviceName)
	for _, dev := range hw.Devices() {
		if !dev.Port.Valid() {
			fail("%s: %s port %s out of range", dev.Name, dev.Port.Bus, dev.Port)
			continue
		}
		if prev, ok := owners[dev.Port]; ok {
			fail("%s port %s bound to both %s and %s", dev.Port.Bus, dev.Port, prev, dev.Name)
			continue
		}
		owners[dev.Port] = dev.Name
	}

	dt := cfg.Drivetrain
	if dt.WheelDiameter <= 0 {
		fail("drivetrain: wheel diameter must be positive")
	}
	if dt.Track <= 0 {
		fail("drivetrain: track must be positive")
	}
	hw.gearRatio = dt.GearRatio.Value()
	if hw.gearRatio <= 0 {
		fail("drivetrain: gear ratio must be positive")
	}
	rpm, err := dt.Cartridge.RPM()
	if err != nil {
		fail("drivetrain: %v", err)
	}
	if g := hw.leftDrive.Gearset(); g != "" && g != dt.Cartridge {
		fail("drivetrain: cartridge %s does not match left drive %s", dt.Cartridge, g)
	}
	if g := hw.rightDrive.Gearset(); g != "" && g != dt.Cartridge {
		fail("drivetrain: cartridge %s does not match right drive %s", dt.Cartridge, g)
	}
	wheels := []struct {
		name  string
		wheel TrackingWheel
	}{
		{"left", cfg.Odometry.Left},
		{"right", cfg.Odometry.Right},
		{"horizontal", cfg.Odometry.Horizontal},
	}
	for _, w := range wheels {
		if w.wheel.Diameter <= 0 {
			fail("odometry: %s tracking wheel diameter must be positive", w.name)
		}
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(problems...))
	}

	// Derivation order matters to the tuning downstream: ratio, cartridge, then rpm.
	hw.cartridgeRPM = rpm
	hw.wheelRPM = hw.gearRatio * hw.cartridgeRPM
	hw.wheelCircumference = math.Pi * dt.WheelDiameter
	hw.maxWheelSpeed = hw.wheelRPM * hw.wheelCircumference / 60

	return hw, nil
}

// Devices returns the wiring table in role order, one row per port.
func (h *Hardware) Devices() []Device {
	var out []Device
	motors := func(name DeviceName, g MotorGroup) {
		for _, m := range g.motors {
			out = append(out, Device{Name: name, Kind: "motor/" + string(m.Gearset), Port: m.Port, Reversed: m.Reversed})
		}
	}
	motors(LeftDrive, h.leftDrive)
	motors(RightDrive, h.rightDrive)
	motors(Intake, h.intake)
	out = append(out,
		Device{Name: Inertial, Kind: "imu", Port: h.inertial.Port},
		Device{Name: RollerSensor, Kind: "optical", Port: h.rollerSensor.Port},
		Device{Name: LeftRotation, Kind: "rotation", Port: h.leftRotation.Port, Reversed: h.leftRotation.Reversed},
		Device{Name: RightRotation, Kind: "rotation", Port: h.rightRotation.Port, Reversed: h.rightRotation.Reversed},
		Device{Name: HorizontalRotation, Kind: "rotation", Port: h.horizontalRotation.Port, Reversed: h.horizontalRotation.Reversed},
		Device{Name: CatapultLimit, Kind: "digital in", Port: h.catapultLimit.Port},
		Device{Name: CatapultBooster, Kind: "digital out", Port: h.catapultBooster.Port},
		Device{Name: Expansion, Kind: "digital out", Port: h.expansion.Port},
	)
	return out
}

func (h *Hardware) LeftDrive() MotorGroup { return h.leftDrive }
func (h *Hardware) RightDrive() MotorGroup { return h.rightDrive }
func (h *Hardware) Intake() MotorGroup { return h.intake }
func (h *Hardware) Inertial() IMU { return h.inertial }
func (h *Hardware) RollerSensor() Optical { return h.rollerSensor }
func (h *Hardware) LeftRotation() Rotation { return h.leftRotation }
func (h *Hardware) RightRotation() Rotation { return h.rightRotation }
func (h *Hardware) HorizontalRotation() Rotation { return h.horizontalRotation }
func (h *Hardware) CatapultLimit() DigitalIn { return h.catapultLimit }
func (h *Hardware) CatapultBooster() DigitalOut { return h.catapultBooster }
func (h *Hardware) Expansion() DigitalOut { return h.expansion }
func (h *Hardware) Drivetrain() Drivetrain { return h.drivetrain }
func (h *Hardware) Odometry() Odometry { return h.odometry }
func (h *Hardware) Lateral() ChassisController { return h.pid.Lateral }
func (h *Hardware) Angular() ChassisController { return h.pid.Angular }

// GearRatio returns wheel turns per motor turn.
func (h *Hardware) GearRatio() float64 { return h.gearRatio }

// CartridgeRPM returns the rated rpm of the drive cartridge.
func (h *Hardware) CartridgeRPM() float64 { return h.cartridgeRPM }

// WheelRPM returns the effective drive wheel rpm, gear ratio times cartridge rpm.
func (h *Hardware) WheelRPM() float64 { return h.wheelRPM }

// WheelCircumference returns the drive wheel circumference in inches.
func (h *Hardware) WheelCircumference() float64 { return h.wheelCircumference }

// MaxWheelSpeed returns the drive wheel surface speed at full power, in inches per second.
func (h *Hardware) MaxWheelSpeed() float64 { return h.maxWheelSpeed }
