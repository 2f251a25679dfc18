package auton

import (
	"context"
	"sync"
	"time"
)

type facadeCall struct {
	name string
	args []any
}

// recorder is a Facade that records every call. Motion calls report
// reached; errs injects an error into the n-th call (0-based).
type recorder struct {
	mu      sync.Mutex
	calls   []facadeCall
	reached bool
	errs    map[int]error
	sleep   bool          // Wait really sleeps
	block   chan struct{} // Wait blocks until closed or ctx done
}

func (r *recorder) record(name string, args ...any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.calls)
	r.calls = append(r.calls, facadeCall{name: name, args: args})
	return r.errs[n]
}

func (r *recorder) recorded() []facadeCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]facadeCall, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) SetPose(x, y, heading float64, radians bool) error {
	return r.record("setPose", x, y, heading, radians)
}

func (r *recorder) MoveTo(ctx context.Context, x, y float64, timeout time.Duration, maxSpeed float64, log bool) (bool, error) {
	return r.reached, r.record("moveTo", x, y, timeout, maxSpeed, log)
}

func (r *recorder) TurnTo(ctx context.Context, x, y float64, timeout time.Duration, reversed bool, maxSpeed float64, log bool) (bool, error) {
	return r.reached, r.record("turnTo", x, y, timeout, reversed, maxSpeed, log)
}

func (r *recorder) Follow(ctx context.Context, path string, timeout time.Duration, lookahead float64, reverse bool, maxSpeed float64, log bool) (bool, error) {
	return r.reached, r.record("follow", path, timeout, lookahead, reverse, maxSpeed, log)
}

func (r *recorder) Intake() error      { return r.record("intake") }
func (r *recorder) StopIntake() error  { return r.record("stopIntake") }
func (r *recorder) Shoot() error       { return r.record("shoot") }
func (r *recorder) PistonShoot() error { return r.record("pistonShoot") }
func (r *recorder) Roller() error      { return r.record("roller") }
func (r *recorder) Expand() error      { return r.record("expand") }

func (r *recorder) Wait(ctx context.Context, d time.Duration) error {
	err := r.record("wait", d)
	if r.block != nil {
		select {
		case <-r.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if r.sleep {
		if err := Sleep(ctx, d); err != nil {
			return err
		}
	}
	return err
}

type calibratingRecorder struct {
	recorder
	calibrated bool
}

func (c *calibratingRecorder) Calibrate(ctx context.Context) error {
	c.calibrated = true
	return c.record("calibrate")
}
