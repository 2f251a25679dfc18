package chassis

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/pawbotics/spinup/pkg/auton"
	"github.com/pawbotics/spinup/pkg/robot"
)

func newTestSim(t *testing.T, opts Options) *Sim {
	t.Helper()
	hw, err := robot.Build(robot.Default())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return NewSim(hw, opts)
}

func TestSim_SetPose(t *testing.T) {
	s := newTestSim(t, Options{})

	if err := s.SetPose(13.4, 22.8, 1002, false); err != nil {
		t.Fatal(err)
	}
	if got := s.Pose(); got != (robot.Pose{X: 13.4, Y: 22.8, Heading: 1002}) {
		t.Errorf("Pose() = %+v", got)
	}

	if err := s.SetPose(43, 12, math.Pi/2, true); err != nil {
		t.Fatal(err)
	}
	if got := s.Pose(); got.X != 43 || got.Y != 12 || math.Abs(got.Heading-90) > 1e-9 {
		t.Errorf("Pose() after radians = %+v, want heading 90", got)
	}
}

func TestSim_MoveToReaches(t *testing.T) {
	s := newTestSim(t, Options{})

	reached, err := s.MoveTo(context.Background(), 0, 24, 5*time.Second, 127, false)
	if err != nil {
		t.Fatal(err)
	}
	if !reached {
		t.Fatalf("MoveTo did not settle, pose %+v", s.Pose())
	}
	p := s.Pose()
	if d := p.Distance(0, 24); d > 3 {
		t.Errorf("ended %.2f in from target, pose %+v", d, p)
	}
	if s.Elapsed() >= 5*time.Second {
		t.Errorf("Elapsed() = %s, should settle before the timeout", s.Elapsed())
	}
}

func TestSim_MoveToBackwards(t *testing.T) {
	s := newTestSim(t, Options{})

	reached, err := s.MoveTo(context.Background(), 0, -20, 5*time.Second, 0, false)
	if err != nil || !reached {
		t.Fatalf("MoveTo = %v, %v", reached, err)
	}
	if p := s.Pose(); math.Abs(robot.WrapDegrees(p.Heading)) > 10 {
		t.Errorf("robot turned around to reverse: heading %.1f", p.Heading)
	}
}

func TestSim_TimeoutIsNotAnError(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
	}{
		{"zero", 0},
		{"one tick", 10 * time.Millisecond},
		{"short", 100 * time.Millisecond},
		{"half second", 500 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, Options{})
			reached, err := s.MoveTo(context.Background(), 100, 100, tt.timeout, 200, false)
			if err != nil {
				t.Fatalf("MoveTo error: %v", err)
			}
			if reached {
				t.Error("MoveTo reached a far target before its timeout")
			}
			if got := s.Elapsed(); got > tt.timeout+DefaultTick {
				t.Errorf("Elapsed() = %s, want <= %s", got, tt.timeout+DefaultTick)
			}
		})
	}
}

func TestSim_TurnTo(t *testing.T) {
	tests := []struct {
		name     string
		x, y     float64
		reversed bool
		want     float64
	}{
		{"right", 10, 0, false, 90},
		{"left", -10, 0, false, -90},
		{"reversed", 0, 10, true, 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(t, Options{})
			reached, err := s.TurnTo(context.Background(), tt.x, tt.y, 3*time.Second, tt.reversed, 0, false)
			if err != nil || !reached {
				t.Fatalf("TurnTo = %v, %v", reached, err)
			}
			p := s.Pose()
			if diff := robot.WrapDegrees(p.Heading - tt.want); math.Abs(diff) > 3 {
				t.Errorf("heading = %.1f, want %.1f", p.Heading, tt.want)
			}
			if d := p.Distance(0, 0); d > 0.5 {
				t.Errorf("turn in place drifted %.2f in", d)
			}
		})
	}
}

func TestSim_Follow(t *testing.T) {
	paths := NewPathStore()
	var pts []PathPoint
	for y := 0.0; y <= 36; y += 2 {
		pts = append(pts, PathPoint{X: 0, Y: y, Speed: 90})
	}
	paths.Add("straight.txt", pts)
	s := newTestSim(t, Options{Paths: paths})

	reached, err := s.Follow(context.Background(), "straight.txt", 10*time.Second, 10, false, 127, false)
	if err != nil || !reached {
		t.Fatalf("Follow = %v, %v, pose %+v", reached, err, s.Pose())
	}
	if p := s.Pose(); p.Distance(0, 36) > 1 {
		t.Errorf("ended at %+v, want near (0, 36)", p)
	}
}

func TestSim_FollowUnknownPath(t *testing.T) {
	s := newTestSim(t, Options{})

	reached, err := s.Follow(context.Background(), "abc_1324212332.js", 10*time.Millisecond, 10.8, false, 127, false)
	if err != nil || reached {
		t.Errorf("Follow unknown = %v, %v, want false, nil", reached, err)
	}
	select {
	case msg := <-s.Logs():
		if !strings.Contains(msg, "unknown path abc_1324212332.js") {
			t.Errorf("log = %q", msg)
		}
	default:
		t.Error("no log for unknown path")
	}
}

func TestSim_Mechanisms(t *testing.T) {
	s := newTestSim(t, Options{})
	s.Intake()
	s.Shoot()
	s.Shoot()
	s.PistonShoot()
	s.Roller()
	s.Expand()

	want := Mechanisms{IntakeRunning: true, Shots: 2, PistonShots: 1, RollerSpins: 1, Expanded: true}
	if got := s.Mechanisms(); got != want {
		t.Errorf("Mechanisms() = %+v, want %+v", got, want)
	}
	s.StopIntake()
	if s.Mechanisms().IntakeRunning {
		t.Error("intake still running after StopIntake")
	}
}

func TestSim_WaitRealtime(t *testing.T) {
	s := newTestSim(t, Options{Realtime: true})

	start := time.Now()
	if err := s.Wait(context.Background(), 500*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("Wait returned after %s", elapsed)
	}
}

func TestSim_MoveToRealtimeTimeout(t *testing.T) {
	s := newTestSim(t, Options{Realtime: true})

	start := time.Now()
	reached, err := s.MoveTo(context.Background(), 100, 100, 500*time.Millisecond, 200, false)
	if err != nil || reached {
		t.Fatalf("MoveTo = %v, %v", reached, err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond || elapsed > 600*time.Millisecond {
		t.Errorf("MoveTo returned after %s, want 500ms to 600ms", elapsed)
	}
}

func TestSim_Cancel(t *testing.T) {
	s := newTestSim(t, Options{Realtime: true})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := s.MoveTo(ctx, 100, 100, time.Minute, 200, false)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("MoveTo error = %v, want deadline exceeded", err)
	}
}

func TestSim_RunsLeftRoller(t *testing.T) {
	s := newTestSim(t, Options{})
	session := auton.NewSession(s, auton.LeftRoller())

	if err := session.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !s.Calibrated() {
		t.Error("Initialize did not calibrate the chassis")
	}
	report, err := session.Autonomous(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Results) != 8 || report.Err() != nil {
		t.Errorf("report: %d results, err %v", len(report.Results), report.Err())
	}
	if got := s.Mechanisms().RollerSpins; got != 1 {
		t.Errorf("RollerSpins = %d, want 1", got)
	}
	// 0 + 500 + 10 + 100 + 500 + 500 ms of motion budget at most.
	if budget := 1610*time.Millisecond + 5*DefaultTick; s.Elapsed() > budget {
		t.Errorf("Elapsed() = %s, want <= %s", s.Elapsed(), budget)
	}
}

func TestSim_PoseReadsDuringMotion(t *testing.T) {
	s := newTestSim(t, Options{})
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-stop:
				return
			default:
				p := s.Pose()
				if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Heading) {
					t.Error("read a torn pose")
				}
			}
		}
	}()

	if _, err := s.MoveTo(context.Background(), 24, 24, 2*time.Second, 127, false); err != nil {
		t.Fatal(err)
	}
	close(stop)
	<-done
}
