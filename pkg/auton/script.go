package auton

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"text/scanner"
	"time"
)

// Routine scripts are written the way the robot code calls the facade:
//
//	void autons::leftRoller() {
//	  auton::setPose(13.4, 22.8, 1002);
//	  auton::moveTo(50.2, 30, 500);
//	  auton::roller();
//	};
//
// Only literal arguments are understood. Preprocessor lines and comments are
// ignored. Optional trailing arguments take the facade defaults.

// ParseError reports a problem in routine source text.
type ParseError struct {
	File string
	Line int
	Col  int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Msg)
	}
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// ParseFile reads every routine defined in the file at path.
func ParseFile(path string) ([]Routine, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open script: %w", err)
	}
	defer f.Close()
	return Parse(path, f)
}

// Parse reads every routine defined in src. filename is only used in errors.
func Parse(filename string, src io.Reader) ([]Routine, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}

	p := &parser{}
	p.s.Init(strings.NewReader(stripDirectives(string(data))))
	p.s.Filename = filename
	p.s.Mode = scanner.ScanIdents | scanner.ScanFloats | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) {
		if p.scanErr == nil {
			pos := s.Pos()
			p.scanErr = &ParseError{File: filename, Line: pos.Line, Col: pos.Column, Msg: msg}
		}
	}
	p.next()

	var routines []Routine
	seen := make(map[string]bool)
	for p.tok != scanner.EOF {
		pos := p.s.Position
		r, err := p.routine()
		if err != nil {
			return nil, err
		}
		if seen[r.Name()] {
			return nil, p.errorAt(pos, "routine %s defined twice", r.Name())
		}
		seen[r.Name()] = true
		routines = append(routines, r)
	}
	if p.scanErr != nil {
		return nil, p.scanErr
	}
	return routines, nil
}

// stripDirectives blanks preprocessor lines, keeping line numbers intact.
func stripDirectives(src string) string {
	lines := strings.Split(src, "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "#") {
			lines[i] = ""
		}
	}
	return strings.Join(lines, "\n")
}

type parser struct {
	s       scanner.Scanner
	tok     rune
	scanErr *ParseError
}

func (p *parser) next() {
	p.tok = p.s.Scan()
}

func (p *parser) errorAt(pos scanner.Position, format string, args ...any) error {
	if p.scanErr != nil {
		return p.scanErr
	}
	if !pos.IsValid() {
		pos = p.s.Pos()
	}
	return &ParseError{File: pos.Filename, Line: pos.Line, Col: pos.Column, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) errorf(format string, args ...any) error {
	return p.errorAt(p.s.Position, format, args...)
}

func (p *parser) found() string {
	if p.tok == scanner.EOF {
		return "end of file"
	}
	return strconv.Quote(p.s.TokenText())
}

func (p *parser) expect(tok rune) error {
	if p.tok != tok {
		return p.errorf("expected %q, found %s", string(tok), p.found())
	}
	p.next()
	return nil
}

func (p *parser) ident() (string, error) {
	if p.tok != scanner.Ident {
		return "", p.errorf("expected identifier, found %s", p.found())
	}
	name := p.s.TokenText()
	p.next()
	return name, nil
}

func (p *parser) keyword(want string) error {
	if p.tok != scanner.Ident || p.s.TokenText() != want {
		return p.errorf("expected %s, found %s", want, p.found())
	}
	p.next()
	return nil
}

func (p *parser) scope() error {
	if err := p.expect(':'); err != nil {
		return err
	}
	return p.expect(':')
}

// routine = "void" ident "::" ident "(" ")" "{" { statement } "}" [ ";" ]
func (p *parser) routine() (Routine, error) {
	if err := p.keyword("void"); err != nil {
		return Routine{}, err
	}
	if _, err := p.ident(); err != nil {
		return Routine{}, err
	}
	if err := p.scope(); err != nil {
		return Routine{}, err
	}
	namePos := p.s.Position
	name, err := p.ident()
	if err != nil {
		return Routine{}, err
	}
	for _, tok := range []rune{'(', ')', '{'} {
		if err := p.expect(tok); err != nil {
			return Routine{}, err
		}
	}

	var steps []Step
	for p.tok != '}' {
		if p.tok == scanner.EOF {
			return Routine{}, p.errorf("unexpected end of file in routine %s", name)
		}
		step, err := p.statement()
		if err != nil {
			return Routine{}, err
		}
		steps = append(steps, step)
	}
	p.next()
	if p.tok == ';' {
		p.next()
	}

	r, err := New(name, steps...)
	if err != nil {
		return Routine{}, p.errorAt(namePos, "%v", err)
	}
	return r, nil
}

// statement = "auton" "::" ident "(" [ arg { "," arg } ] ")" ";"
func (p *parser) statement() (Step, error) {
	if err := p.keyword("auton"); err != nil {
		return nil, err
	}
	if err := p.scope(); err != nil {
		return nil, err
	}
	pos := p.s.Position
	fn, err := p.ident()
	if err != nil {
		return nil, err
	}
	if err := p.expect('('); err != nil {
		return nil, err
	}
	var args []arg
	if p.tok != ')' {
		for {
			a, err := p.arg()
			if err != nil {
				return nil, err
			}
			args = append(args, a)
			if p.tok != ',' {
				break
			}
			p.next()
		}
	}
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	if err := p.expect(';'); err != nil {
		return nil, err
	}
	return p.build(pos, fn, args)
}

type argKind int

const (
	argNumber argKind = iota
	argBool
	argString
)

type arg struct {
	pos   scanner.Position
	kind  argKind
	num   float64
	isInt bool
	b     bool
	s     string
}

func (p *parser) arg() (arg, error) {
	a := arg{pos: p.s.Position}
	neg := false
	if p.tok == '-' {
		neg = true
		p.next()
	}
	switch p.tok {
	case scanner.Int, scanner.Float:
		text := p.s.TokenText()
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
		if err != nil {
			return a, p.errorf("bad number %s", strconv.Quote(text))
		}
		if neg {
			v = -v
		}
		a.kind, a.num, a.isInt = argNumber, v, p.tok == scanner.Int
		end := p.s.Position.Offset + len(text)
		p.next()
		// Accept a C float suffix written directly after the digits.
		if p.tok == scanner.Ident && p.s.Position.Offset == end && strings.EqualFold(p.s.TokenText(), "f") {
			a.isInt = false
			p.next()
		}
		return a, nil
	case scanner.Ident:
		if neg {
			return a, p.errorf("unexpected %s after '-'", p.found())
		}
		switch p.s.TokenText() {
		case "true":
			a.kind, a.b = argBool, true
		case "false":
			a.kind, a.b = argBool, false
		default:
			return a, p.errorf("unsupported argument %s, only literals are allowed", p.found())
		}
		p.next()
		return a, nil
	case scanner.String:
		if neg {
			return a, p.errorf("unexpected %s after '-'", p.found())
		}
		s, err := strconv.Unquote(p.s.TokenText())
		if err != nil {
			return a, p.errorf("bad string %s", p.s.TokenText())
		}
		a.kind, a.s = argString, s
		p.next()
		return a, nil
	}
	return a, p.errorf("unexpected %s in arguments", p.found())
}

// args decodes positional arguments, keeping the first error.
type args struct {
	p   *parser
	fn  string
	all []arg
	err error
}

func (r *args) fail(a arg, format string, v ...any) {
	if r.err == nil {
		r.err = r.p.errorAt(a.pos, "%s: %s", r.fn, fmt.Sprintf(format, v...))
	}
}

func (r *args) number(i int, def float64) float64 {
	if i >= len(r.all) {
		return def
	}
	a := r.all[i]
	if a.kind != argNumber {
		r.fail(a, "argument %d must be a number", i+1)
		return def
	}
	return a.num
}

func (r *args) millis(i int) time.Duration {
	if i >= len(r.all) {
		return 0
	}
	a := r.all[i]
	if a.kind != argNumber || a.num < 0 || a.num != math.Trunc(a.num) {
		r.fail(a, "argument %d must be a whole number of milliseconds", i+1)
		return 0
	}
	return Ms(int(a.num))
}

func (r *args) boolean(i int) bool {
	if i >= len(r.all) {
		return false
	}
	a := r.all[i]
	switch {
	case a.kind == argBool:
		return a.b
	case a.kind == argNumber && a.isInt && (a.num == 0 || a.num == 1):
		return a.num == 1
	}
	r.fail(a, "argument %d must be true or false", i+1)
	return false
}

func (r *args) str(i int) string {
	if i >= len(r.all) {
		return ""
	}
	a := r.all[i]
	if a.kind != argString {
		r.fail(a, "argument %d must be a string", i+1)
		return ""
	}
	return a.s
}

func (p *parser) build(pos scanner.Position, fn string, all []arg) (Step, error) {
	arity := func(min, max int) error {
		if len(all) < min || len(all) > max {
			if min == max {
				return p.errorAt(pos, "%s takes %d arguments, got %d", fn, min, len(all))
			}
			return p.errorAt(pos, "%s takes %d to %d arguments, got %d", fn, min, max, len(all))
		}
		return nil
	}
	r := &args{p: p, fn: fn, all: all}

	var step Step
	switch fn {
	case "setPose":
		if err := arity(3, 4); err != nil {
			return nil, err
		}
		step = SetPose{X: r.number(0, 0), Y: r.number(1, 0), Heading: r.number(2, 0), Radians: r.boolean(3)}
	case "moveTo":
		if err := arity(3, 5); err != nil {
			return nil, err
		}
		step = MoveTo{X: r.number(0, 0), Y: r.number(1, 0), Timeout: r.millis(2), MaxSpeed: r.number(3, 0), Log: r.boolean(4)}
	case "turnTo":
		if err := arity(3, 6); err != nil {
			return nil, err
		}
		step = TurnTo{X: r.number(0, 0), Y: r.number(1, 0), Timeout: r.millis(2), Reversed: r.boolean(3), MaxSpeed: r.number(4, 0), Log: r.boolean(5)}
	case "follow":
		if err := arity(3, 6); err != nil {
			return nil, err
		}
		step = Follow{Path: r.str(0), Timeout: r.millis(1), Lookahead: r.number(2, 0), Reverse: r.boolean(3), MaxSpeed: r.number(4, 0), Log: r.boolean(5)}
	case "wait":
		if err := arity(1, 1); err != nil {
			return nil, err
		}
		step = Wait{Duration: r.millis(0)}
	case "intake", "stopIntake", "shoot", "pistonShoot", "roller", "expand":
		if err := arity(0, 0); err != nil {
			return nil, err
		}
		step = map[string]Step{
			"intake":      Intake{},
			"stopIntake":  StopIntake{},
			"shoot":       Shoot{},
			"pistonShoot": PistonShoot{},
			"roller":      Roller{},
			"expand":      Expand{},
		}[fn]
	default:
		return nil, p.errorAt(pos, "unknown call auton::%s", fn)
	}
	if r.err != nil {
		return nil, r.err
	}
	return step, nil
}

// Render writes routines as script source that Parse reads back.
func Render(w io.Writer, routines ...Routine) error {
	bw := bufio.NewWriter(w)
	bw.WriteString("#include \"auton.h\"\n#include \"robot.h\"\n")
	for _, r := range routines {
		fmt.Fprintf(bw, "\nvoid autons::%s() {\n", r.Name())
		for _, step := range r.steps {
			fmt.Fprintf(bw, "  auton::%s;\n", step)
		}
		bw.WriteString("};\n")
	}
	return bw.Flush()
}

type optional struct {
	text      string
	isDefault bool
}

func formatCall(fn string, required []string, opts ...optional) string {
	last := -1
	for i, o := range opts {
		if !o.isDefault {
			last = i
		}
	}
	parts := append([]string{}, required...)
	for _, o := range opts[:last+1] {
		parts = append(parts, o.text)
	}
	return fn + "(" + strings.Join(parts, ", ") + ")"
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func flag(b bool) optional {
	return optional{text: strconv.FormatBool(b), isDefault: !b}
}

func speed(v, def float64) optional {
	return optional{text: num(v), isDefault: v == def}
}

// call renders a step as a facade call without the namespace.
func call(s Step) string {
	switch s := s.(type) {
	case SetPose:
		return formatCall("setPose", []string{num(s.X), num(s.Y), num(s.Heading)}, flag(s.Radians))
	case MoveTo:
		return formatCall("moveTo", []string{num(s.X), num(s.Y), millis(s.Timeout)},
			speed(s.Speed(), DefaultMoveSpeed), flag(s.Log))
	case TurnTo:
		return formatCall("turnTo", []string{num(s.X), num(s.Y), millis(s.Timeout)},
			flag(s.Reversed), speed(s.Speed(), DefaultTurnSpeed), flag(s.Log))
	case Follow:
		return formatCall("follow", []string{strconv.Quote(s.Path), millis(s.Timeout), num(s.Lookahead)},
			flag(s.Reverse), speed(s.Speed(), DefaultFollowSpeed), flag(s.Log))
	case Wait:
		return formatCall("wait", []string{millis(s.Duration)})
	case Intake:
		return "intake()"
	case StopIntake:
		return "stopIntake()"
	case Shoot:
		return "shoot()"
	case PistonShoot:
		return "pistonShoot()"
	case Roller:
		return "roller()"
	case Expand:
		return "expand()"
	}
	return fmt.Sprintf("%s()", s.Kind())
}
