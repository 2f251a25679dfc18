package auton

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrBusy is returned when a routine is started while another one runs.
var ErrBusy = errors.New("a routine is already running")

// State is the sequencer's lifecycle state.
type State int

const (
	NotStarted State = iota
	Running
	Completed
)

func (s State) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// StepResult is the outcome of one step. A step that ran out of time has
// Reached == false and a nil Err.
type StepResult struct {
	Routine string
	Index   int
	Total   int
	Step    Step
	Reached bool
	Elapsed time.Duration
	Err     error
}

// Report summarises a routine run.
type Report struct {
	Routine string
	Results []StepResult
	Elapsed time.Duration
}

// Err joins the errors reported by individual steps.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, fmt.Errorf("step %d %s: %w", res.Index+1, res.Step, res.Err))
		}
	}
	return errors.Join(errs...)
}

// Unreached returns the motion steps that ended on their timeout.
func (r Report) Unreached() []StepResult {
	var out []StepResult
	for _, res := range r.Results {
		if !res.Reached {
			out = append(out, res)
		}
	}
	return out
}

// Sequencer runs routines one at a time against a facade. Every step runs in
// order, whatever the previous steps reported; there is no retry and no
// early exit except a cancelled context.
type Sequencer struct {
	facade Facade

	mu      sync.RWMutex
	state   State
	current int
	running bool

	resultCh chan StepResult
	logCh    chan string
}

// NewSequencer creates a sequencer bound to f.
func NewSequencer(f Facade) *Sequencer {
	return &Sequencer{
		facade:   f,
		resultCh: make(chan StepResult, 32),
		logCh:    make(chan string, 32),
	}
}

// Results returns a channel that receives each step result as it completes.
func (s *Sequencer) Results() <-chan StepResult {
	return s.resultCh
}

// Logs returns a channel that receives log messages.
func (s *Sequencer) Logs() <-chan string {
	return s.logCh
}

// State returns the lifecycle state and the index of the running step.
func (s *Sequencer) State() (State, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, s.current
}

func (s *Sequencer) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case s.logCh <- msg:
	default:
		// Drop if channel full
	}
}

func (s *Sequencer) publish(res StepResult) {
	select {
	case s.resultCh <- res:
	default:
	}
}

// Run executes r to completion. If ctx is cancelled the run is abandoned, the
// sequencer returns to NotStarted and ctx.Err() is returned with the partial
// report; a later Run starts again from the first step.
func (s *Sequencer) Run(ctx context.Context, r Routine) (Report, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return Report{}, ErrBusy
	}
	s.running = true
	s.state = Running
	s.current = 0
	s.mu.Unlock()

	report := Report{Routine: r.Name(), Results: make([]StepResult, 0, r.Len())}
	start := time.Now()
	s.log("Routine %s started (%d steps)", r.Name(), r.Len())

	for i, step := range r.steps {
		s.mu.Lock()
		s.current = i
		s.mu.Unlock()

		stepStart := time.Now()
		reached, err := step.Run(ctx, s.facade)
		res := StepResult{
			Routine: r.Name(),
			Index:   i,
			Total:   r.Len(),
			Step:    step,
			Reached: reached,
			Elapsed: time.Since(stepStart),
			Err:     err,
		}

		if ctx.Err() != nil {
			report.Elapsed = time.Since(start)
			s.finish(NotStarted)
			s.log("Routine %s aborted at step %d: %v", r.Name(), i+1, ctx.Err())
			return report, ctx.Err()
		}

		report.Results = append(report.Results, res)
		s.publish(res)
		switch {
		case err != nil:
			s.log("Step %d/%d %s: %v", i+1, r.Len(), step, err)
		case !reached:
			s.log("Step %d/%d %s: timed out after %s", i+1, r.Len(), step, res.Elapsed.Round(time.Millisecond))
		default:
			s.log("Step %d/%d %s", i+1, r.Len(), step)
		}
	}

	report.Elapsed = time.Since(start)
	s.finish(Completed)
	s.log("Routine %s completed in %s", r.Name(), report.Elapsed.Round(time.Millisecond))
	return report, nil
}

func (s *Sequencer) finish(state State) {
	s.mu.Lock()
	s.running = false
	s.state = state
	if state == NotStarted {
		s.current = 0
	}
	s.mu.Unlock()
}
