package robot

import (
	"math"
	"time"
)

// Ratio is an external gear reduction expressed as wheel turns per motor turns.
type Ratio struct {
	Wheel float64 `json:"wheel"`
	Motor float64 `json:"motor"`
}

// Value returns the ratio as a single factor.
func (r Ratio) Value() float64 {
	if r.Motor == 0 {
		return 0
	}
	return r.Wheel / r.Motor
}

// Drivetrain holds the drive base dimensions in inches.
type Drivetrain struct {
	WheelDiameter float64 `json:"wheel_diameter"`
	Track         float64 `json:"track"`      // left to right wheel distance
	WheelBase     float64 `json:"wheel_base"` // front to back wheel distance
	GearRatio     Ratio   `json:"gear_ratio"`
	Cartridge     Gearset `json:"cartridge"`
}

// TrackingWheel is a passive odometry wheel.
type TrackingWheel struct {
	Diameter float64 `json:"diameter"`
	// Offset from the tracking center. Horizontal for the side wheels,
	// vertical for the horizontal wheel.
	Offset float64 `json:"offset"`
}

// Circumference returns the distance travelled per wheel rotation.
func (w TrackingWheel) Circumference() float64 {
	return w.Diameter * math.Pi
}

// Odometry groups the three tracking wheels.
type Odometry struct {
	Left       TrackingWheel `json:"left"`
	Right      TrackingWheel `json:"right"`
	Horizontal TrackingWheel `json:"horizontal"`
}

// ChassisController is a PD controller with settle conditions, as consumed by
// the chassis engine.
type ChassisController struct {
	KP                  float64 `json:"kp"`
	KD                  float64 `json:"kd"`
	SmallErrorRange     float64 `json:"small_error_range"`
	SmallErrorTimeoutMS int     `json:"small_error_timeout_ms"`
	LargeErrorRange     float64 `json:"large_error_range"`
	LargeErrorTimeoutMS int     `json:"large_error_timeout_ms"`
	Slew                float64 `json:"slew"` // max output change per tick, 0 disables
}

// SmallErrorTimeout is how long the error must stay in the small range to settle.
func (c ChassisController) SmallErrorTimeout() time.Duration {
	return time.Duration(c.SmallErrorTimeoutMS) * time.Millisecond
}

// LargeErrorTimeout is how long the error must stay in the large range to settle.
func (c ChassisController) LargeErrorTimeout() time.Duration {
	return time.Duration(c.LargeErrorTimeoutMS) * time.Millisecond
}

// PID holds the forward/backward and turning controllers.
type PID struct {
	Lateral ChassisController `json:"lateral"`
	Angular ChassisController `json:"angular"`
}
