package auton

// LeftRoller starts on the left tile, sweeps the low goal lane and turns the
// roller. It is the routine run at autonomous entry.
func LeftRoller() Routine {
	return MustNew("leftRoller",
		SetPose{X: 13.4, Y: 22.8, Heading: 1002},
		TurnTo{X: 6.46, Y: 7.85, Timeout: Ms(0)},
		MoveTo{X: 50.2, Y: 30, Timeout: Ms(500)},
		Follow{Path: "abc_1324212332.js", Timeout: Ms(10), Lookahead: 10.8},
		TurnTo{X: 60, Y: 30, Timeout: Ms(100)},
		MoveTo{X: 0, Y: 30, Timeout: Ms(500)},
		MoveTo{X: 48, Y: 30, Timeout: Ms(500)},
		Roller{},
	)
}

// Example is the short routine shipped with the editor.
func Example() Routine {
	return MustNew("example",
		SetPose{X: 43, Y: 12, Heading: 65, Radians: true},
		Roller{},
		Wait{Duration: Ms(500)},
		MoveTo{X: 48, Y: 30, Timeout: Ms(50)},
	)
}

// DefaultRoutine is the routine selected when none is named.
const DefaultRoutine = "leftRoller"

// Builtin returns a registry of the routines compiled into the program.
func Builtin() *Registry {
	reg, err := NewRegistry(LeftRoller(), Example())
	if err != nil {
		panic(err)
	}
	return reg
}
