package auton

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownRoutine is returned when a routine name is not registered.
var ErrUnknownRoutine = errors.New("unknown routine")

// Registry maps routine names to routines.
type Registry struct {
	routines map[string]Routine
}

// NewRegistry creates a registry holding routines. Names must be unique.
func NewRegistry(routines ...Routine) (*Registry, error) {
	reg := &Registry{routines: make(map[string]Routine, len(routines))}
	for _, r := range routines {
		if err := reg.Add(r); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Add registers r.
func (reg *Registry) Add(r Routine) error {
	if r.Len() == 0 {
		return fmt.Errorf("routine %q is empty", r.Name())
	}
	if _, ok := reg.routines[r.Name()]; ok {
		return fmt.Errorf("routine %q registered twice", r.Name())
	}
	reg.routines[r.Name()] = r
	return nil
}

// Get returns the routine called name.
func (reg *Registry) Get(name string) (Routine, error) {
	r, ok := reg.routines[name]
	if !ok {
		return Routine{}, fmt.Errorf("%w: %s", ErrUnknownRoutine, name)
	}
	return r, nil
}

// Names returns the routine names in sorted order.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.routines))
	for name := range reg.routines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Routines returns the routines sorted by name.
func (reg *Registry) Routines() []Routine {
	out := make([]Routine, 0, len(reg.routines))
	for _, name := range reg.Names() {
		out = append(out, reg.routines[name])
	}
	return out
}
