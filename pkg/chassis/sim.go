// Package chassis simulates the drive base so routines can be dry run
// without a robot attached.
package chassis

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/pawbotics/spinup/pkg/auton"
	"github.com/pawbotics/spinup/pkg/robot"
)

// DefaultTick is the control loop period, matching the brain's 10ms loop.
const DefaultTick = 10 * time.Millisecond

// Options configures a simulated chassis.
type Options struct {
	// Tick is the control loop period. Zero means DefaultTick.
	Tick time.Duration
	// Realtime makes every tick take wall clock time. When false the
	// simulation runs as fast as it can on a simulated clock.
	Realtime bool
	// Paths resolves follow() path identifiers. May be nil.
	Paths *PathStore
}

// Mechanisms is a snapshot of the non-drive actuators.
type Mechanisms struct {
	IntakeRunning bool
	Shots         int
	PistonShots   int
	RollerSpins   int
	Expanded      bool
}

// Sim is a differential drive chassis driven by the configured lateral and
// angular controllers. It implements auton.Facade.
type Sim struct {
	hw   *robot.Hardware
	opts Options

	mu         sync.RWMutex
	pose       robot.Pose
	mech       Mechanisms
	clock      time.Duration
	calibrated bool

	logCh chan string
}

var (
	_ auton.Facade     = (*Sim)(nil)
	_ auton.Calibrator = (*Sim)(nil)
)

// NewSim creates a simulated chassis for hw.
func NewSim(hw *robot.Hardware, opts Options) *Sim {
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	return &Sim{
		hw:    hw,
		opts:  opts,
		logCh: make(chan string, 32),
	}
}

// Logs returns a channel that receives log messages.
func (s *Sim) Logs() <-chan string {
	return s.logCh
}

func (s *Sim) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case s.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Pose returns a consistent snapshot of the pose.
func (s *Sim) Pose() robot.Pose {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pose
}

// Mechanisms returns a snapshot of the actuator state.
func (s *Sim) Mechanisms() Mechanisms {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mech
}

// Elapsed returns the simulated time spent in motion and wait calls.
func (s *Sim) Elapsed() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

// Calibrated reports whether Calibrate has run.
func (s *Sim) Calibrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.calibrated
}

// Calibrate zeroes the inertial sensor and tracking wheels.
func (s *Sim) Calibrate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.calibrated = true
	s.pose = robot.Pose{}
	s.mu.Unlock()
	s.log("Calibrated inertial sensor on port %s", s.hw.Inertial().Port)
	return nil
}

// SetPose overwrites the pose. Heading is converted from radians when asked.
func (s *Sim) SetPose(x, y, heading float64, radians bool) error {
	if radians {
		heading = robot.Degrees(heading)
	}
	s.mu.Lock()
	s.pose = robot.Pose{X: x, Y: y, Heading: heading}
	s.mu.Unlock()
	return nil
}

// tick advances the clock by one period. In realtime mode it sleeps until
// due, the wall clock time the tick ends, so timer slack does not add up
// over a motion.
func (s *Sim) tick(ctx context.Context, due time.Time) error {
	if s.opts.Realtime {
		if err := auton.Sleep(ctx, time.Until(due)); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.clock += s.opts.Tick
	s.mu.Unlock()
	return nil
}

// drive applies left and right motor power for one tick.
func (s *Sim) drive(left, right float64) {
	if m := math.Max(math.Abs(left), math.Abs(right)); m > maxPower {
		left = left / m * maxPower
		right = right / m * maxPower
	}
	vl := left / maxPower * s.hw.MaxWheelSpeed()
	vr := right / maxPower * s.hw.MaxWheelSpeed()
	dt := s.opts.Tick.Seconds()

	v := (vl + vr) / 2
	// Clockwise positive: a faster left side turns right.
	omega := (vl - vr) / s.hw.Drivetrain().Track

	s.mu.Lock()
	defer s.mu.Unlock()
	h := robot.Radians(s.pose.Heading) + omega*dt/2
	s.pose.X += v * math.Sin(h) * dt
	s.pose.Y += v * math.Cos(h) * dt
	s.pose.Heading += robot.Degrees(omega * dt)
}

func limit(maxSpeed float64) float64 {
	if maxSpeed <= 0 || maxSpeed > maxPower {
		return maxPower
	}
	return maxSpeed
}

// MoveTo drives to (x, y) while steering to face it. It returns when the
// lateral controller settles or the timeout elapses.
func (s *Sim) MoveTo(ctx context.Context, x, y float64, timeout time.Duration, maxSpeed float64, log bool) (bool, error) {
	lim := limit(maxSpeed)
	lateral := newController(s.hw.Lateral(), s.opts.Tick, lim)
	angular := newController(s.hw.Angular(), s.opts.Tick, lim)

	start := time.Now()
	for elapsed := time.Duration(0); elapsed < timeout; elapsed += s.opts.Tick {
		p := s.Pose()
		dist := p.Distance(x, y)
		headingErr := robot.WrapDegrees(p.AngleTo(x, y) - p.Heading)
		// Project the distance onto the current heading so an overshoot
		// drives backwards instead of turning around.
		latErr := dist * math.Cos(robot.Radians(headingErr))
		if latErr < 0 {
			headingErr = robot.WrapDegrees(headingErr + 180)
		}
		if dist < s.hw.Lateral().SmallErrorRange {
			headingErr = 0
		}

		lat := lateral.update(latErr)
		ang := angular.update(headingErr)
		s.drive(lat+ang, lat-ang)
		if log {
			s.log("moveTo: pose (%.2f, %.2f, %.1f) error %.2f", p.X, p.Y, p.Heading, latErr)
		}
		if err := s.tick(ctx, start.Add(elapsed+s.opts.Tick)); err != nil {
			return false, err
		}
		if lateral.settled() {
			return true, nil
		}
	}
	return false, nil
}

// TurnTo turns in place to face (x, y), or to face away from it when reversed.
func (s *Sim) TurnTo(ctx context.Context, x, y float64, timeout time.Duration, reversed bool, maxSpeed float64, log bool) (bool, error) {
	angular := newController(s.hw.Angular(), s.opts.Tick, limit(maxSpeed))

	start := time.Now()
	for elapsed := time.Duration(0); elapsed < timeout; elapsed += s.opts.Tick {
		p := s.Pose()
		target := p.AngleTo(x, y)
		if reversed {
			target += 180
		}
		headingErr := robot.WrapDegrees(target - p.Heading)

		ang := angular.update(headingErr)
		s.drive(ang, -ang)
		if log {
			s.log("turnTo: heading %.1f error %.1f", p.Heading, headingErr)
		}
		if err := s.tick(ctx, start.Add(elapsed+s.opts.Tick)); err != nil {
			return false, err
		}
		if angular.settled() {
			return true, nil
		}
	}
	return false, nil
}

// Follow chases a lookahead point along a stored path. An unknown path is
// skipped without moving.
func (s *Sim) Follow(ctx context.Context, path string, timeout time.Duration, lookahead float64, reverse bool, maxSpeed float64, log bool) (bool, error) {
	pts, ok := s.opts.Paths.Get(path)
	if !ok {
		s.log("follow: unknown path %s", path)
		return false, nil
	}
	lim := limit(maxSpeed)
	angular := newController(s.hw.Angular(), s.opts.Tick, lim)
	end := pts[len(pts)-1]
	closest := 0

	start := time.Now()
	for elapsed := time.Duration(0); elapsed < timeout; elapsed += s.opts.Tick {
		p := s.Pose()
		closest = closestPoint(pts, closest, p)
		if closest == len(pts)-1 && p.Distance(end.X, end.Y) < s.hw.Lateral().SmallErrorRange {
			s.drive(0, 0)
			return true, nil
		}
		target := lookaheadPoint(pts, closest, p, lookahead)

		heading := p.Heading
		if reverse {
			heading += 180
		}
		headingErr := robot.WrapDegrees(p.AngleTo(target.X, target.Y) - heading)
		speed := math.Min(math.Abs(pts[closest].Speed), lim)
		if speed == 0 {
			speed = lim
		}
		// Slow down for sharp corrections.
		speed *= math.Max(0, math.Cos(robot.Radians(headingErr)))
		if reverse {
			speed = -speed
		}

		ang := angular.update(headingErr)
		s.drive(speed+ang, speed-ang)
		if log {
			s.log("follow: pose (%.2f, %.2f) point %d/%d", p.X, p.Y, closest+1, len(pts))
		}
		if err := s.tick(ctx, start.Add(elapsed+s.opts.Tick)); err != nil {
			return false, err
		}
	}
	return false, nil
}

// closestPoint searches forward from the last closest index, so the robot
// never skips back along the path.
func closestPoint(pts []PathPoint, from int, p robot.Pose) int {
	best, bestDist := from, math.Inf(1)
	for i := from; i < len(pts); i++ {
		if d := p.Distance(pts[i].X, pts[i].Y); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// lookaheadPoint returns the last point within lookahead of the robot,
// starting from the closest point, or the end of the path.
func lookaheadPoint(pts []PathPoint, from int, p robot.Pose, lookahead float64) PathPoint {
	for i := from; i < len(pts); i++ {
		if p.Distance(pts[i].X, pts[i].Y) > lookahead {
			return pts[i]
		}
	}
	return pts[len(pts)-1]
}

func (s *Sim) Intake() error {
	s.mu.Lock()
	s.mech.IntakeRunning = true
	s.mu.Unlock()
	return nil
}

func (s *Sim) StopIntake() error {
	s.mu.Lock()
	s.mech.IntakeRunning = false
	s.mu.Unlock()
	return nil
}

func (s *Sim) Shoot() error {
	s.mu.Lock()
	s.mech.Shots++
	s.mu.Unlock()
	return nil
}

// PistonShoot fires the catapult with the booster piston.
func (s *Sim) PistonShoot() error {
	s.mu.Lock()
	s.mech.PistonShots++
	s.mu.Unlock()
	return nil
}

func (s *Sim) Roller() error {
	s.mu.Lock()
	s.mech.RollerSpins++
	s.mu.Unlock()
	return nil
}

// Expand fires the endgame expansion. It is single use.
func (s *Sim) Expand() error {
	s.mu.Lock()
	s.mech.Expanded = true
	s.mu.Unlock()
	return nil
}

// Wait pauses for d, on the wall clock in realtime mode.
func (s *Sim) Wait(ctx context.Context, d time.Duration) error {
	if s.opts.Realtime {
		if err := auton.Sleep(ctx, d); err != nil {
			return err
		}
	} else if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.clock += d
	s.mu.Unlock()
	return nil
}
