package auton

import (
	"errors"
	"fmt"
)

var (
	// ErrStartPose is returned when a routine would not begin with SetPose.
	ErrStartPose = errors.New("routine must start with setPose")
	// ErrIndex is returned by edits with an out of range index.
	ErrIndex = errors.New("step index out of range")
)

// Routine is a named, fixed sequence of steps. The first step is always a
// SetPose. Edits return a new Routine and leave the receiver untouched.
type Routine struct {
	name  string
	steps []Step
}

// New builds a routine.
func New(name string, steps ...Step) (Routine, error) {
	if name == "" {
		return Routine{}, errors.New("routine name is empty")
	}
	if err := checkStart(steps); err != nil {
		return Routine{}, fmt.Errorf("routine %s: %w", name, err)
	}
	return Routine{name: name, steps: clone(steps)}, nil
}

// MustNew is like New but panics on error. Intended for routines declared in code.
func MustNew(name string, steps ...Step) Routine {
	r, err := New(name, steps...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Routine) Name() string { return r.name }
func (r Routine) Len() int     { return len(r.steps) }

// Steps returns a copy of the steps.
func (r Routine) Steps() []Step {
	return clone(r.steps)
}

// Step returns the i-th step.
func (r Routine) Step(i int) Step {
	return r.steps[i]
}

// Start returns the starting pose step.
func (r Routine) Start() SetPose {
	if len(r.steps) == 0 {
		return SetPose{}
	}
	start, _ := r.steps[0].(SetPose)
	return start
}

// Append adds steps to the end. Appending to an empty routine requires a
// SetPose first.
func (r Routine) Append(steps ...Step) (Routine, error) {
	return r.Replace(len(r.steps), 0, steps...)
}

// Insert places steps before index i. Inserting at 0 requires a SetPose first.
func (r Routine) Insert(i int, steps ...Step) (Routine, error) {
	return r.Replace(i, 0, steps...)
}

// Replace swaps count steps starting at i for steps. A negative count
// replaces len(steps) steps. Replacing index 0 requires a SetPose first.
func (r Routine) Replace(i, count int, steps ...Step) (Routine, error) {
	if count < 0 {
		count = len(steps)
	}
	if i < 0 || i > len(r.steps) || i+count > len(r.steps) {
		return r, fmt.Errorf("%w: %d+%d of %d", ErrIndex, i, count, len(r.steps))
	}
	out := make([]Step, 0, len(r.steps)-count+len(steps))
	out = append(out, r.steps[:i]...)
	out = append(out, steps...)
	out = append(out, r.steps[i+count:]...)
	if err := checkStart(out); err != nil {
		return r, err
	}
	return Routine{name: r.name, steps: out}, nil
}

// Remove deletes count steps starting at i. The starting pose cannot be removed.
func (r Routine) Remove(i, count int) (Routine, error) {
	if i == 0 {
		return r, fmt.Errorf("%w: cannot remove the starting pose", ErrStartPose)
	}
	if count <= 0 {
		count = 1
	}
	return r.Replace(i, count)
}

func checkStart(steps []Step) error {
	if len(steps) == 0 {
		return ErrStartPose
	}
	if _, ok := steps[0].(SetPose); !ok {
		return fmt.Errorf("%w, got %s", ErrStartPose, steps[0].Kind())
	}
	return nil
}

func clone(steps []Step) []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}
