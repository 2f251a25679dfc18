// Package telemetry watches the robot pose while a routine runs.
package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pawbotics/spinup/pkg/robot"
)

// PoseSource provides consistent pose snapshots.
type PoseSource interface {
	Pose() robot.Pose
}

// State is one pose sample.
type State struct {
	Pose      robot.Pose `json:"pose"`
	Timestamp time.Time  `json:"timestamp"`
}

// Observer polls a pose source and fans the samples out to subscribers. It
// only reads from the source.
type Observer struct {
	src PoseSource
	hz  int

	mu      sync.RWMutex
	running bool
	subs    []chan State
}

// Polling frequency bounds.
const (
	DefaultHz = 20
	MaxHz     = 1000
)

// NewObserver creates an observer polling src hz times per second. A
// non-positive hz means DefaultHz; anything above MaxHz is clamped.
func NewObserver(src PoseSource, hz int) *Observer {
	if hz <= 0 {
		hz = DefaultHz
	}
	if hz > MaxHz {
		hz = MaxHz
	}
	return &Observer{src: src, hz: hz}
}

// Hz returns the polling frequency.
func (o *Observer) Hz() int {
	return o.hz
}

// Subscribe returns a channel that receives the latest sample. A slow reader
// only ever sees the newest state.
func (o *Observer) Subscribe() <-chan State {
	ch := make(chan State, 1)
	o.mu.Lock()
	o.subs = append(o.subs, ch)
	o.mu.Unlock()
	return ch
}

// Start polls until ctx is done.
func (o *Observer) Start(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return fmt.Errorf("already running")
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	ticker := time.NewTicker(time.Second / time.Duration(o.hz))
	defer ticker.Stop()

	o.sample()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			o.sample()
		}
	}
}

func (o *Observer) sample() {
	s := State{Pose: o.src.Pose(), Timestamp: time.Now()}
	o.mu.RLock()
	defer o.mu.RUnlock()
	for _, ch := range o.subs {
		send(ch, s)
	}
}

// send replaces any unread state with s. Only sample writes to the
// subscriber channels, so the second send cannot block.
func send(ch chan State, s State) {
	select {
	case ch <- s:
	default:
		// Drop old state if channel full, replace with new
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}
