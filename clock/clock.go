// Package clock implements the scalable monotonic clock shim described in
// §5: now/sleep/time_until_next_multiple, scaled by the TIME_SCALE
// environment variable. adapted from
// _examples/original_source/timekeeper.py.
package clock

import (
	"math"
	"os"
	"strconv"
	"time"

	"go.dedis.ch/dimy/internal/colorlog"
)

// DefaultScale is used when TIME_SCALE is unset or unparsable.
const DefaultScale = 1.0

// Clock is a scalable clock: intervals that would otherwise take Δ
// seconds instead take Δ/Scale seconds of wall-clock time, while Now
// still reports the scaled value.
type Clock struct {
	start time.Time
	scale float64
}

// New creates a clock with the given scale, starting its relative-time
// origin at the current wall-clock instant.
func New(scale float64) *Clock {
	if scale <= 0 {
		scale = DefaultScale
	}
	if scale != 1.0 {
		colorlog.Warnf("Alert: Time scale is %gx", scale)
	}
	colorlog.SetScale(scale)
	return &Clock{start: time.Now(), scale: scale}
}

// NewFromEnv creates a clock using the TIME_SCALE environment variable
// (default 1.0), per §6.
func NewFromEnv() *Clock {
	scale := DefaultScale
	if raw := os.Getenv("TIME_SCALE"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			scale = parsed
		}
	}
	return New(scale)
}

// Now returns the scaled number of seconds since the clock was created.
func (c *Clock) Now() float64 {
	return time.Since(c.start).Seconds() * c.scale
}

// Sleep real-sleeps for d/Scale of wall-clock time.
func (c *Clock) Sleep(d time.Duration) {
	time.Sleep(time.Duration(float64(d) / c.scale))
}

// SleepSeconds is a convenience wrapper around Sleep for float seconds,
// matching timekeeper.py's sleep(secs).
func (c *Clock) SleepSeconds(secs float64) {
	c.Sleep(time.Duration(secs * float64(time.Second)))
}

// TimeUntilNextMultiple returns interval - (Now() mod interval), the
// delay needed to align the next scheduled tick to an absolute grid line,
// per §5.
func (c *Clock) TimeUntilNextMultiple(interval float64) float64 {
	if interval <= 0 {
		return 0
	}
	return interval - math.Mod(c.Now(), interval)
}
