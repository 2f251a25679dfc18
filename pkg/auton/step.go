package auton

import (
	"context"
	"time"
)

// Kind identifies a step type.
type Kind string

// Step kinds, named as the editor names them.
const (
	KindSetPose     Kind = "set_pose"
	KindMoveTo      Kind = "move_to"
	KindTurnTo      Kind = "turn_to"
	KindFollow      Kind = "follow"
	KindIntake      Kind = "intake"
	KindStopIntake  Kind = "stop_intake"
	KindShoot       Kind = "shoot"
	KindPistonShoot Kind = "piston_shoot"
	KindRoller      Kind = "roller"
	KindExpand      Kind = "expand"
	KindWait        Kind = "wait"
)

// Step is one instruction of a routine.
//
// Run reports whether the step's target was reached. Immediate steps always
// report true. A false result is not a failure; the routine carries on.
type Step interface {
	Kind() Kind
	Run(ctx context.Context, f Facade) (bool, error)
	String() string
}

// SetPose overwrites the odometry pose.
type SetPose struct {
	X, Y    float64
	Heading float64
	Radians bool
}

// MoveTo drives to a point.
type MoveTo struct {
	X, Y     float64
	Timeout  time.Duration
	MaxSpeed float64 // 0 means DefaultMoveSpeed
	Log      bool
}

// TurnTo turns in place to face a point.
type TurnTo struct {
	X, Y     float64
	Timeout  time.Duration
	Reversed bool
	MaxSpeed float64 // 0 means DefaultTurnSpeed
	Log      bool
}

// Follow runs a precomputed path. Path is opaque to the sequencer.
type Follow struct {
	Path      string
	Timeout   time.Duration
	Lookahead float64
	Reverse   bool
	MaxSpeed  float64 // 0 means DefaultFollowSpeed
	Log       bool
}

type (
	Intake      struct{}
	StopIntake  struct{}
	Shoot       struct{}
	PistonShoot struct{}
	Roller      struct{}
	Expand      struct{}
)

// Wait pauses the routine.
type Wait struct {
	Duration time.Duration
}

// Ms converts a millisecond count, as written in routine scripts, to a duration.
func Ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (SetPose) Kind() Kind     { return KindSetPose }
func (MoveTo) Kind() Kind      { return KindMoveTo }
func (TurnTo) Kind() Kind      { return KindTurnTo }
func (Follow) Kind() Kind      { return KindFollow }
func (Intake) Kind() Kind      { return KindIntake }
func (StopIntake) Kind() Kind  { return KindStopIntake }
func (Shoot) Kind() Kind       { return KindShoot }
func (PistonShoot) Kind() Kind { return KindPistonShoot }
func (Roller) Kind() Kind      { return KindRoller }
func (Expand) Kind() Kind      { return KindExpand }
func (Wait) Kind() Kind        { return KindWait }

func (s SetPose) Run(_ context.Context, f Facade) (bool, error) {
	return true, f.SetPose(s.X, s.Y, s.Heading, s.Radians)
}

func (s MoveTo) Run(ctx context.Context, f Facade) (bool, error) {
	return f.MoveTo(ctx, s.X, s.Y, s.Timeout, s.Speed(), s.Log)
}

// Speed returns the effective max speed.
func (s MoveTo) Speed() float64 {
	if s.MaxSpeed == 0 {
		return DefaultMoveSpeed
	}
	return s.MaxSpeed
}

func (s TurnTo) Run(ctx context.Context, f Facade) (bool, error) {
	return f.TurnTo(ctx, s.X, s.Y, s.Timeout, s.Reversed, s.Speed(), s.Log)
}

// Speed returns the effective max speed.
func (s TurnTo) Speed() float64 {
	if s.MaxSpeed == 0 {
		return DefaultTurnSpeed
	}
	return s.MaxSpeed
}

func (s Follow) Run(ctx context.Context, f Facade) (bool, error) {
	return f.Follow(ctx, s.Path, s.Timeout, s.Lookahead, s.Reverse, s.Speed(), s.Log)
}

// Speed returns the effective max speed.
func (s Follow) Speed() float64 {
	if s.MaxSpeed == 0 {
		return DefaultFollowSpeed
	}
	return s.MaxSpeed
}

func (Intake) Run(_ context.Context, f Facade) (bool, error)      { return true, f.Intake() }
func (StopIntake) Run(_ context.Context, f Facade) (bool, error)  { return true, f.StopIntake() }
func (Shoot) Run(_ context.Context, f Facade) (bool, error)       { return true, f.Shoot() }
func (PistonShoot) Run(_ context.Context, f Facade) (bool, error) { return true, f.PistonShoot() }
func (Roller) Run(_ context.Context, f Facade) (bool, error)      { return true, f.Roller() }
func (Expand) Run(_ context.Context, f Facade) (bool, error)      { return true, f.Expand() }

func (s Wait) Run(ctx context.Context, f Facade) (bool, error) {
	return true, f.Wait(ctx, s.Duration)
}

func (s SetPose) String() string     { return call(s) }
func (s MoveTo) String() string      { return call(s) }
func (s TurnTo) String() string      { return call(s) }
func (s Follow) String() string      { return call(s) }
func (s Intake) String() string      { return call(s) }
func (s StopIntake) String() string  { return call(s) }
func (s Shoot) String() string       { return call(s) }
func (s PistonShoot) String() string { return call(s) }
func (s Roller) String() string      { return call(s) }
func (s Expand) String() string      { return call(s) }
func (s Wait) String() string        { return call(s) }
