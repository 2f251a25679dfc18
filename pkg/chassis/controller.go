package chassis

import (
	"math"
	"time"

	"github.com/felixge/pidctrl"

	"github.com/pawbotics/spinup/pkg/robot"
)

// maxPower is the motor power scale used by motion calls.
const maxPower = 127

// controller drives an error towards zero with a PD loop and decides when the
// motion has settled.
type controller struct {
	cfg  robot.ChassisController
	pid  *pidctrl.PIDController
	tick time.Duration

	inSmall time.Duration
	inLarge time.Duration
	last    float64
	started bool
}

func newController(cfg robot.ChassisController, tick time.Duration, limit float64) *controller {
	// The configured kD is per control tick; pidctrl differentiates per second.
	pid := pidctrl.NewPIDController(cfg.KP, 0, cfg.KD*tick.Seconds())
	pid.SetOutputLimits(-limit, limit)
	pid.Set(0)
	return &controller{cfg: cfg, pid: pid, tick: tick}
}

// update returns the motor power for err, after output limiting and slew.
func (c *controller) update(err float64) float64 {
	// No derivative on the first update, there is no previous error yet.
	dt := c.tick
	if !c.started {
		dt = 0
	}
	// Setpoint is zero, so feed the negated error to get a positive push.
	out := c.pid.UpdateDuration(-err, dt)
	if c.cfg.Slew > 0 {
		if d := out - c.last; d > c.cfg.Slew {
			out = c.last + c.cfg.Slew
		} else if d < -c.cfg.Slew {
			out = c.last - c.cfg.Slew
		}
	}
	c.started = true
	c.last = out

	abs := math.Abs(err)
	if abs < c.cfg.SmallErrorRange {
		c.inSmall += c.tick
	} else {
		c.inSmall = 0
	}
	if abs < c.cfg.LargeErrorRange {
		c.inLarge += c.tick
	} else {
		c.inLarge = 0
	}
	return out
}

// settled reports whether the error stayed in the small range for the small
// timeout or in the large range for the large timeout.
func (c *controller) settled() bool {
	if c.inSmall > 0 && c.inSmall >= c.cfg.SmallErrorTimeout() {
		return true
	}
	return c.inLarge > 0 && c.inLarge >= c.cfg.LargeErrorTimeout()
}
