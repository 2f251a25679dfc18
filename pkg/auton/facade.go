// Package auton scripts autonomous routines against a motion facade.
package auton

import (
	"context"
	"time"
)

// Defaults applied when a step leaves an optional parameter at zero.
const (
	DefaultTurnSpeed   = 127
	DefaultMoveSpeed   = 200
	DefaultFollowSpeed = 127
)

// Facade is the motion and mechanism API a routine is scripted against.
//
// Motion calls block until the chassis engine settles or the timeout elapses
// and report whether the target was reached. Running out of time is not an
// error. Errors are reserved for transport failures and a cancelled context.
type Facade interface {
	SetPose(x, y, heading float64, radians bool) error
	MoveTo(ctx context.Context, x, y float64, timeout time.Duration, maxSpeed float64, log bool) (bool, error)
	TurnTo(ctx context.Context, x, y float64, timeout time.Duration, reversed bool, maxSpeed float64, log bool) (bool, error)
	Follow(ctx context.Context, path string, timeout time.Duration, lookahead float64, reverse bool, maxSpeed float64, log bool) (bool, error)

	Intake() error
	StopIntake() error
	Shoot() error
	PistonShoot() error
	Roller() error
	Expand() error

	Wait(ctx context.Context, d time.Duration) error
}

// Calibrator is implemented by facades that need a calibration pass before
// the pose can be trusted.
type Calibrator interface {
	Calibrate(ctx context.Context) error
}

// Sleep blocks for d or until ctx is done. It never returns early otherwise.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
