package auton

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestSequencer_LeftRoller(t *testing.T) {
	f := &recorder{reached: false}
	seq := NewSequencer(f)

	report, err := seq.Run(context.Background(), LeftRoller())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}

	expected := []facadeCall{
		{"setPose", []any{13.4, 22.8, 1002.0, false}},
		{"turnTo", []any{6.46, 7.85, time.Duration(0), false, 127.0, false}},
		{"moveTo", []any{50.2, 30.0, 500 * time.Millisecond, 200.0, false}},
		{"follow", []any{"abc_1324212332.js", 10 * time.Millisecond, 10.8, false, 127.0, false}},
		{"turnTo", []any{60.0, 30.0, 100 * time.Millisecond, false, 127.0, false}},
		{"moveTo", []any{0.0, 30.0, 500 * time.Millisecond, 200.0, false}},
		{"moveTo", []any{48.0, 30.0, 500 * time.Millisecond, 200.0, false}},
		{"roller", nil},
	}

	got := f.recorded()
	if len(got) != len(expected) {
		t.Fatalf("recorded %d calls, want %d: %v", len(got), len(expected), got)
	}
	for i := range expected {
		if got[i].name != expected[i].name || !reflect.DeepEqual(got[i].args, expected[i].args) {
			t.Errorf("call %d = %s%v, want %s%v", i, got[i].name, got[i].args, expected[i].name, expected[i].args)
		}
	}

	if len(report.Results) != 8 {
		t.Errorf("report has %d results, want 8", len(report.Results))
	}
	if n := len(report.Unreached()); n != 5 {
		t.Errorf("Unreached() = %d, want 5 motion steps", n)
	}
	if err := report.Err(); err != nil {
		t.Errorf("timeouts should not be errors: %v", err)
	}
	if state, _ := seq.State(); state != Completed {
		t.Errorf("State() = %s, want completed", state)
	}
}

func TestSequencer_StepCountMatchesCalls(t *testing.T) {
	routines := []Routine{
		LeftRoller(),
		Example(),
		MustNew("everything",
			SetPose{},
			Intake{}, StopIntake{}, Shoot{}, PistonShoot{}, Roller{}, Expand{},
			Wait{Duration: Ms(1)},
			MoveTo{X: 1, Y: 1, Timeout: Ms(5)},
			TurnTo{X: 2, Y: 2, Timeout: Ms(5), Reversed: true},
			Follow{Path: "p.txt", Timeout: Ms(5), Lookahead: 4},
			SetPose{X: 1, Radians: true},
		),
	}
	for _, reached := range []bool{true, false} {
		for _, r := range routines {
			f := &recorder{reached: reached}
			report, err := NewSequencer(f).Run(context.Background(), r)
			if err != nil {
				t.Fatalf("%s: %v", r.Name(), err)
			}
			if got := len(f.recorded()); got != r.Len() {
				t.Errorf("%s (reached=%v): %d calls, want %d", r.Name(), reached, got, r.Len())
			}
			for i, res := range report.Results {
				if res.Index != i || res.Step.Kind() != r.Step(i).Kind() {
					t.Errorf("%s: result %d is %s at index %d", r.Name(), i, res.Step.Kind(), res.Index)
				}
			}
		}
	}
}

func TestSequencer_ErrorsDoNotAbort(t *testing.T) {
	boom := errors.New("link dropped")
	f := &recorder{errs: map[int]error{2: boom}}

	report, err := NewSequencer(f).Run(context.Background(), LeftRoller())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if got := len(f.recorded()); got != 8 {
		t.Errorf("recorded %d calls, want 8", got)
	}
	if !errors.Is(report.Err(), boom) {
		t.Errorf("Report.Err() = %v, want %v", report.Err(), boom)
	}
	if !strings.Contains(report.Err().Error(), "step 3") {
		t.Errorf("Report.Err() = %q, should name step 3", report.Err())
	}
}

func TestSequencer_CancelRestartsFromScratch(t *testing.T) {
	f := &recorder{block: make(chan struct{})}
	seq := NewSequencer(f)
	r := Example() // setPose, roller, wait, moveTo

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := seq.Run(ctx, r)
		done <- err
	}()

	waitFor(t, func() bool { return len(f.recorded()) == 3 })
	if state, idx := seq.State(); state != Running || idx != 2 {
		t.Errorf("State() = %s/%d, want running/2", state, idx)
	}
	cancel()

	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("Run error = %v, want context.Canceled", err)
	}
	if state, idx := seq.State(); state != NotStarted || idx != 0 {
		t.Errorf("State() after cancel = %s/%d, want not started/0", state, idx)
	}

	close(f.block)
	if _, err := seq.Run(context.Background(), r); err != nil {
		t.Fatalf("second Run error: %v", err)
	}
	calls := f.recorded()
	if len(calls) != 7 {
		t.Fatalf("recorded %d calls, want 7", len(calls))
	}
	if calls[3].name != "setPose" {
		t.Errorf("restart began with %s, want setPose", calls[3].name)
	}
}

func TestSequencer_Busy(t *testing.T) {
	f := &recorder{block: make(chan struct{})}
	seq := NewSequencer(f)

	done := make(chan struct{})
	go func() {
		seq.Run(context.Background(), Example())
		close(done)
	}()
	waitFor(t, func() bool { return len(f.recorded()) == 3 })

	if _, err := seq.Run(context.Background(), Example()); !errors.Is(err, ErrBusy) {
		t.Errorf("concurrent Run error = %v, want ErrBusy", err)
	}
	close(f.block)
	<-done
}

func TestSequencer_WaitHonorsDuration(t *testing.T) {
	f := &recorder{sleep: true}
	r := MustNew("wait", SetPose{}, Wait{Duration: Ms(500)})

	start := time.Now()
	report, err := NewSequencer(f).Run(context.Background(), r)
	if err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 500*time.Millisecond {
		t.Errorf("routine returned after %s, want >= 500ms", elapsed)
	}
	if res := report.Results[1]; res.Elapsed < 500*time.Millisecond || !res.Reached {
		t.Errorf("wait result = %+v", res)
	}
}

func TestSequencer_PublishesResultsAndLogs(t *testing.T) {
	seq := NewSequencer(&recorder{reached: true})
	if _, err := seq.Run(context.Background(), Example()); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < Example().Len(); i++ {
		select {
		case res := <-seq.Results():
			if res.Index != i || res.Total != 4 || res.Routine != "example" {
				t.Errorf("result %d = %+v", i, res)
			}
		default:
			t.Fatalf("missing result %d", i)
		}
	}
	select {
	case msg := <-seq.Logs():
		if !strings.Contains(msg, "Routine example started") {
			t.Errorf("first log = %q", msg)
		}
	default:
		t.Error("no log messages")
	}
}

func TestSleep(t *testing.T) {
	start := time.Now()
	if err := Sleep(context.Background(), 50*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("Sleep returned after %s", elapsed)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Sleep on cancelled context = %v", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}
