package auton

import (
	"context"
	"fmt"
	"sync"
)

// Session follows the competition lifecycle: initialize once, run the
// selected routine when autonomous starts, abort it when the robot is
// disabled. A disabled routine is never resumed; the next autonomous period
// starts it from the first step.
type Session struct {
	facade Facade
	seq    *Sequencer

	mu      sync.Mutex
	routine Routine
	cancel  context.CancelFunc
}

// NewSession creates a session that will run routine on f.
func NewSession(f Facade, routine Routine) *Session {
	return &Session{
		facade:  f,
		seq:     NewSequencer(f),
		routine: routine,
	}
}

// Sequencer returns the sequencer used for autonomous runs.
func (s *Session) Sequencer() *Sequencer {
	return s.seq
}

// Routine returns the selected routine.
func (s *Session) Routine() Routine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.routine
}

// Select changes the routine run by the next Autonomous call.
func (s *Session) Select(r Routine) {
	s.mu.Lock()
	s.routine = r
	s.mu.Unlock()
}

// Initialize calibrates the chassis when it supports it and zeroes the pose.
func (s *Session) Initialize(ctx context.Context) error {
	if c, ok := s.facade.(Calibrator); ok {
		if err := c.Calibrate(ctx); err != nil {
			return fmt.Errorf("calibrate chassis: %w", err)
		}
	}
	if err := s.facade.SetPose(0, 0, 0, true); err != nil {
		return fmt.Errorf("reset pose: %w", err)
	}
	return nil
}

// Autonomous runs the selected routine to completion or until Disable.
func (s *Session) Autonomous(ctx context.Context) (Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		cancel()
		return Report{}, ErrBusy
	}
	s.cancel = cancel
	routine := s.routine
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	return s.seq.Run(ctx, routine)
}

// Disable aborts the running routine, if any.
func (s *Session) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}
