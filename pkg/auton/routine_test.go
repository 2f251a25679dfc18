package auton

import (
	"errors"
	"testing"
)

func kinds(r Routine) []Kind {
	out := make([]Kind, 0, r.Len())
	for _, s := range r.Steps() {
		out = append(out, s.Kind())
	}
	return out
}

func equalKinds(a, b []Kind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestNew_RequiresStartPose(t *testing.T) {
	if _, err := New("empty"); !errors.Is(err, ErrStartPose) {
		t.Errorf("New with no steps = %v, want ErrStartPose", err)
	}
	if _, err := New("bad", Roller{}, SetPose{}); !errors.Is(err, ErrStartPose) {
		t.Errorf("New starting with roller = %v, want ErrStartPose", err)
	}
	if _, err := New("", SetPose{}); err == nil {
		t.Error("New with empty name should fail")
	}
}

func TestRoutine_Edits(t *testing.T) {
	base := MustNew("r", SetPose{}, Roller{}, Wait{Duration: Ms(10)})

	tests := []struct {
		name     string
		edit     func(Routine) (Routine, error)
		expected []Kind
		err      error
	}{
		{
			name:     "append",
			edit:     func(r Routine) (Routine, error) { return r.Append(Intake{}, StopIntake{}) },
			expected: []Kind{KindSetPose, KindRoller, KindWait, KindIntake, KindStopIntake},
		},
		{
			name:     "insert middle",
			edit:     func(r Routine) (Routine, error) { return r.Insert(1, Shoot{}) },
			expected: []Kind{KindSetPose, KindShoot, KindRoller, KindWait},
		},
		{
			name:     "insert end",
			edit:     func(r Routine) (Routine, error) { return r.Insert(3, Expand{}) },
			expected: []Kind{KindSetPose, KindRoller, KindWait, KindExpand},
		},
		{
			name:     "insert pose at start",
			edit:     func(r Routine) (Routine, error) { return r.Insert(0, SetPose{X: 1}) },
			expected: []Kind{KindSetPose, KindSetPose, KindRoller, KindWait},
		},
		{
			name: "insert non-pose at start",
			edit: func(r Routine) (Routine, error) { return r.Insert(0, Roller{}) },
			err:  ErrStartPose,
		},
		{
			name:     "replace one",
			edit:     func(r Routine) (Routine, error) { return r.Replace(1, 1, PistonShoot{}) },
			expected: []Kind{KindSetPose, KindPistonShoot, KindWait},
		},
		{
			name:     "replace default count",
			edit:     func(r Routine) (Routine, error) { return r.Replace(1, -1, Shoot{}, Shoot{}) },
			expected: []Kind{KindSetPose, KindShoot, KindShoot},
		},
		{
			name: "replace start with non-pose",
			edit: func(r Routine) (Routine, error) { return r.Replace(0, 1, Roller{}) },
			err:  ErrStartPose,
		},
		{
			name:     "remove",
			edit:     func(r Routine) (Routine, error) { return r.Remove(1, 1) },
			expected: []Kind{KindSetPose, KindWait},
		},
		{
			name:     "remove two",
			edit:     func(r Routine) (Routine, error) { return r.Remove(1, 2) },
			expected: []Kind{KindSetPose},
		},
		{
			name: "remove start",
			edit: func(r Routine) (Routine, error) { return r.Remove(0, 1) },
			err:  ErrStartPose,
		},
		{
			name: "out of range",
			edit: func(r Routine) (Routine, error) { return r.Remove(2, 5) },
			err:  ErrIndex,
		},
		{
			name: "negative index",
			edit: func(r Routine) (Routine, error) { return r.Insert(-1, Roller{}) },
			err:  ErrIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.edit(base)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("error = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if k := kinds(got); !equalKinds(k, tt.expected) {
				t.Errorf("kinds = %v, want %v", k, tt.expected)
			}
			if k := kinds(base); !equalKinds(k, []Kind{KindSetPose, KindRoller, KindWait}) {
				t.Errorf("edit modified the original routine: %v", k)
			}
		})
	}
}

func TestRoutine_AppendToEmpty(t *testing.T) {
	tests := []struct {
		name     string
		steps    []Step
		expected []Kind
		err      error
	}{
		{"motion first", []Step{MoveTo{X: 1}}, nil, ErrStartPose},
		{"nothing", nil, nil, ErrStartPose},
		{"pose first", []Step{SetPose{X: 1}, Roller{}}, []Kind{KindSetPose, KindRoller}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Routine{}.Append(tt.steps...)
			if !errors.Is(err, tt.err) {
				t.Fatalf("error = %v, want %v", err, tt.err)
			}
			if k := kinds(got); !equalKinds(k, tt.expected) {
				t.Errorf("kinds = %v, want %v", k, tt.expected)
			}
			// Start never panics, whatever Append left behind.
			_ = got.Start()
		})
	}

	if start := (Routine{steps: []Step{Roller{}}}).Start(); start != (SetPose{}) {
		t.Errorf("Start() without a pose = %+v, want zero", start)
	}
}

func TestRoutine_StepsCopy(t *testing.T) {
	r := LeftRoller()
	steps := r.Steps()
	steps[1] = Roller{}
	if r.Step(1).Kind() != KindTurnTo {
		t.Error("mutating Steps() result changed the routine")
	}
	if start := r.Start(); start.X != 13.4 || start.Y != 22.8 || start.Heading != 1002 || start.Radians {
		t.Errorf("Start() = %+v", start)
	}
}

func TestRegistry(t *testing.T) {
	reg := Builtin()
	if names := reg.Names(); len(names) != 2 || names[0] != "example" || names[1] != "leftRoller" {
		t.Errorf("Names() = %v", names)
	}
	r, err := reg.Get(DefaultRoutine)
	if err != nil {
		t.Fatal(err)
	}
	if r.Len() != 8 {
		t.Errorf("leftRoller has %d steps, want 8", r.Len())
	}
	if _, err := reg.Get("skills"); !errors.Is(err, ErrUnknownRoutine) {
		t.Errorf("Get(skills) = %v, want ErrUnknownRoutine", err)
	}
	if err := reg.Add(Example()); err == nil {
		t.Error("registering a duplicate name should fail")
	}
}
