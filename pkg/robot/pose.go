package robot

import "math"

// FieldLength is the side of the square field in inches.
const FieldLength = 2 * 6 * 12

// Pose is the robot's position in inches and heading in degrees.
// Heading 0 faces +Y and grows clockwise.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Distance returns the straight line distance to a point.
func (p Pose) Distance(x, y float64) float64 {
	return math.Hypot(x-p.X, y-p.Y)
}

// AngleTo returns the heading, in degrees, that faces the point.
func (p Pose) AngleTo(x, y float64) float64 {
	return Degrees(math.Atan2(x-p.X, y-p.Y))
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// WrapDegrees maps an angle into (-180, 180].
func WrapDegrees(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg > 180 {
		deg -= 360
	} else if deg <= -180 {
		deg += 360
	}
	return deg
}
