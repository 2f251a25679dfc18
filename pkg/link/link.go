// Package link forwards facade calls to the robot brain over USB serial.
//
// The protocol is line based. The host sends one command per line, prefixed
// with a sequence number:
//
//	7 moveTo 50.2 30 500 200 0
//
// and the brain answers with the same number: "7 ok" for immediate calls,
// "7 done 1" or "7 done 0" when a motion call settles or times out, or
// "7 err <message>". Replies for any other number are stale and dropped. The
// brain may push "pose <x> <y> <heading>" at any time; the latest one is kept
// as the pose snapshot.
package link

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.bug.st/serial"

	"github.com/pawbotics/spinup/pkg/auton"
	"github.com/pawbotics/spinup/pkg/robot"
)

// DefaultBaudRate is the brain's USB serial speed.
const DefaultBaudRate = 115200

var (
	// ErrNoReply is returned when the brain does not answer in time.
	ErrNoReply = errors.New("no reply from brain")
	// ErrClosed is returned after the link is closed or the port fails.
	ErrClosed = errors.New("link closed")
)

// Options configures a link.
type Options struct {
	// Grace is how long past a call's own timeout the brain may take to
	// answer. Zero means 500ms.
	Grace time.Duration
	// CalibrateTimeout bounds the inertial sensor calibration. Zero means 3s.
	CalibrateTimeout time.Duration
}

type reply struct {
	seq  uint64
	kind string // "ok", "done" or "err"
	arg  string
}

// Link is a facade backed by the robot brain.
type Link struct {
	rw   io.ReadWriteCloser
	opts Options

	callMu  sync.Mutex // one command in flight
	seq     uint64     // last sequence number sent, guarded by callMu
	pending atomic.Uint64

	mu   sync.RWMutex
	pose robot.Pose
	err  error

	replies chan reply
	done    chan struct{}
	logCh   chan string
}

var (
	_ auton.Facade     = (*Link)(nil)
	_ auton.Calibrator = (*Link)(nil)
)

// Open opens a serial port and starts a link on it.
func Open(port string, opts Options) (*Link, error) {
	p, err := serial.Open(port, &serial.Mode{BaudRate: DefaultBaudRate})
	if err != nil {
		return nil, fmt.Errorf("open port %s: %w", port, err)
	}
	return New(p, opts), nil
}

// Ports lists serial ports that may have a brain attached.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	var out []string
	for _, port := range ports {
		// Skip Bluetooth ports on macOS
		if strings.Contains(port, "Bluetooth") {
			continue
		}
		out = append(out, port)
	}
	return out, nil
}

// New starts a link over rw. The link owns rw and closes it on Close.
func New(rw io.ReadWriteCloser, opts Options) *Link {
	if opts.Grace <= 0 {
		opts.Grace = 500 * time.Millisecond
	}
	if opts.CalibrateTimeout <= 0 {
		opts.CalibrateTimeout = 3 * time.Second
	}
	l := &Link{
		rw:      rw,
		opts:    opts,
		replies: make(chan reply, 1),
		done:    make(chan struct{}),
		logCh:   make(chan string, 32),
	}
	go l.read()
	return l
}

// Close closes the underlying port.
func (l *Link) Close() error {
	return l.rw.Close()
}

// Logs returns a channel that receives log messages.
func (l *Link) Logs() <-chan string {
	return l.logCh
}

func (l *Link) log(format string, args ...any) {
	msg := fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), fmt.Sprintf(format, args...))
	select {
	case l.logCh <- msg:
	default:
		// Drop if channel full
	}
}

// Pose returns the last pose pushed by the brain or set with SetPose.
func (l *Link) Pose() robot.Pose {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pose
}

// Err returns the error that stopped the reader, if any.
func (l *Link) Err() error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.err
}

func (l *Link) read() {
	sc := bufio.NewScanner(l.rw)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		head, rest, _ := strings.Cut(line, " ")
		if head == "pose" {
			p, err := parsePose(rest)
			if err != nil {
				l.log("Bad pose %q: %v", rest, err)
				continue
			}
			l.mu.Lock()
			l.pose = p
			l.mu.Unlock()
			continue
		}
		r, ok := parseReply(line)
		if !ok {
			l.log("Brain: %s", line)
			continue
		}
		if r.seq != l.pending.Load() {
			l.log("Dropped stale reply %q", line)
			continue
		}
		select {
		case l.replies <- r:
		default:
			l.log("Dropped unexpected reply %q", line)
		}
	}

	err := sc.Err()
	if err == nil {
		err = io.EOF
	}
	l.mu.Lock()
	l.err = err
	l.mu.Unlock()
	close(l.done)
}

func parsePose(s string) (robot.Pose, error) {
	f := strings.Fields(s)
	if len(f) != 3 {
		return robot.Pose{}, fmt.Errorf("want 3 fields, got %d", len(f))
	}
	var v [3]float64
	for i := range f {
		n, err := strconv.ParseFloat(f[i], 64)
		if err != nil {
			return robot.Pose{}, err
		}
		v[i] = n
	}
	return robot.Pose{X: v[0], Y: v[1], Heading: v[2]}, nil
}

// parseReply parses "<seq> ok", "<seq> done <0|1>" or "<seq> err <message>".
func parseReply(line string) (reply, bool) {
	head, rest, _ := strings.Cut(line, " ")
	seq, err := strconv.ParseUint(head, 10, 64)
	if err != nil || seq == 0 {
		return reply{}, false
	}
	kind, arg, _ := strings.Cut(strings.TrimSpace(rest), " ")
	switch kind {
	case "ok", "done", "err":
		return reply{seq: seq, kind: kind, arg: strings.TrimSpace(arg)}, true
	}
	return reply{}, false
}

// call sends one command and waits up to wait for the reply.
func (l *Link) call(ctx context.Context, wait time.Duration, name string, args ...string) (reply, error) {
	l.callMu.Lock()
	defer l.callMu.Unlock()

	select {
	case <-l.done:
		return reply{}, fmt.Errorf("%s: %w: %w", name, ErrClosed, l.Err())
	default:
	}
	// Discard a reply that arrived after an earlier call gave up.
	select {
	case r := <-l.replies:
		l.log("Discarded late reply %d %s %s", r.seq, r.kind, r.arg)
	default:
	}

	l.seq++
	seq := l.seq
	l.pending.Store(seq)
	defer l.pending.Store(0)

	line := strings.Join(append([]string{strconv.FormatUint(seq, 10), name}, args...), " ") + "\n"
	if _, err := io.WriteString(l.rw, line); err != nil {
		return reply{}, fmt.Errorf("send %s: %w", name, err)
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	for {
		select {
		case r := <-l.replies:
			if r.seq != seq {
				l.log("Discarded late reply %d %s %s", r.seq, r.kind, r.arg)
				continue
			}
			if r.kind == "err" {
				return r, fmt.Errorf("%s: brain error: %s", name, r.arg)
			}
			return r, nil
		case <-timer.C:
			return reply{}, fmt.Errorf("%s: %w after %s", name, ErrNoReply, wait)
		case <-l.done:
			return reply{}, fmt.Errorf("%s: %w: %w", name, ErrClosed, l.Err())
		case <-ctx.Done():
			return reply{}, ctx.Err()
		}
	}
}

func (l *Link) command(name string, args ...string) error {
	r, err := l.call(context.Background(), l.opts.Grace, name, args...)
	if err != nil {
		return err
	}
	if r.kind != "ok" {
		return fmt.Errorf("%s: unexpected reply %q", name, r.kind)
	}
	return nil
}

func (l *Link) motion(ctx context.Context, timeout time.Duration, name string, args ...string) (bool, error) {
	r, err := l.call(ctx, timeout+l.opts.Grace, name, args...)
	if err != nil {
		return false, err
	}
	if r.kind != "done" {
		return false, fmt.Errorf("%s: unexpected reply %q", name, r.kind)
	}
	switch r.arg {
	case "1":
		return true, nil
	case "0":
		return false, nil
	}
	return false, fmt.Errorf("%s: bad motion result %q", name, r.arg)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func ms(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

// Calibrate calibrates the inertial sensor on the brain.
func (l *Link) Calibrate(ctx context.Context) error {
	r, err := l.call(ctx, l.opts.CalibrateTimeout, "calibrate")
	if err != nil {
		return err
	}
	if r.kind != "ok" {
		return fmt.Errorf("calibrate: unexpected reply %q", r.kind)
	}
	return nil
}

// SetPose resets the brain's odometry. Once acknowledged, Pose reports the
// new pose until the brain pushes another.
func (l *Link) SetPose(x, y, heading float64, radians bool) error {
	if err := l.command("setPose", num(x), num(y), num(heading), flag(radians)); err != nil {
		return err
	}
	if radians {
		heading = robot.Degrees(heading)
	}
	l.mu.Lock()
	l.pose = robot.Pose{X: x, Y: y, Heading: heading}
	l.mu.Unlock()
	return nil
}

func (l *Link) MoveTo(ctx context.Context, x, y float64, timeout time.Duration, maxSpeed float64, log bool) (bool, error) {
	return l.motion(ctx, timeout, "moveTo", num(x), num(y), ms(timeout), num(maxSpeed), flag(log))
}

func (l *Link) TurnTo(ctx context.Context, x, y float64, timeout time.Duration, reversed bool, maxSpeed float64, log bool) (bool, error) {
	return l.motion(ctx, timeout, "turnTo", num(x), num(y), ms(timeout), flag(reversed), num(maxSpeed), flag(log))
}

// Follow sends the path identifier as is; it must not contain spaces.
func (l *Link) Follow(ctx context.Context, path string, timeout time.Duration, lookahead float64, reverse bool, maxSpeed float64, log bool) (bool, error) {
	if path == "" || strings.ContainsAny(path, " \t\n") {
		return false, fmt.Errorf("follow: bad path identifier %q", path)
	}
	return l.motion(ctx, timeout, "follow", path, ms(timeout), num(lookahead), flag(reverse), num(maxSpeed), flag(log))
}

func (l *Link) Intake() error      { return l.command("intake") }
func (l *Link) StopIntake() error  { return l.command("stopIntake") }
func (l *Link) Shoot() error       { return l.command("shoot") }
func (l *Link) PistonShoot() error { return l.command("pistonShoot") }
func (l *Link) Roller() error      { return l.command("roller") }
func (l *Link) Expand() error      { return l.command("expand") }

// Wait sleeps on the host; the brain keeps running its last command.
func (l *Link) Wait(ctx context.Context, d time.Duration) error {
	return auton.Sleep(ctx, d)
}
