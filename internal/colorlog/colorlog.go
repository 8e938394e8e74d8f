// Package colorlog layers per-span ANSI coloring on top of onet's leveled
// logger, the way _examples/dedis-student_18_decenar/lib/colors.go layers
// github.com/fatih/color on top of gopkg.in/dedis/onet.v2/log. adapted
// also from _examples/original_source/log.py, whose colors dict and
// per-span tuple convention (text, *colorNames) this package reproduces.
package colorlog

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fatih/color"
	"go.dedis.ch/onet/v3/log"
)

var (
	processStart = time.Now()
	scaleBits    = math.Float64bits(1.0)
)

// SetScale adjusts the rate at which Event's timestamp prefix advances, so
// log output tracks the same TIME_SCALE the clock package applies to
// scheduling. Matches log.py's rel(), which reads elapsed time through the
// same TIME_SCALE-scaled timekeeper.time() every caller in the original
// uses.
func SetScale(scale float64) {
	if scale <= 0 {
		scale = 1.0
	}
	atomic.StoreUint64(&scaleBits, math.Float64bits(scale))
}

func relNow() float64 {
	scale := math.Float64frombits(atomic.LoadUint64(&scaleBits))
	return time.Since(processStart).Seconds() * scale
}

// Span is a piece of log output with an optional list of color names to
// apply, matching log.py's (text, "COLOR", ...) tuple convention.
type Span struct {
	Text   string
	Colors []string
}

// C builds a colored Span.
func C(text string, colors ...string) Span {
	return Span{Text: text, Colors: colors}
}

var attrs = map[string]color.Attribute{
	"MAGENTA":   color.FgMagenta,
	"BLUE":      color.FgBlue,
	"CYAN":      color.FgCyan,
	"GREEN":     color.FgGreen,
	"YELLOW":    color.FgYellow,
	"RED":       color.FgRed,
	"BOLD":      color.Bold,
	"UNDERLINE": color.Underline,
}

func (s Span) render() string {
	if len(s.Colors) == 0 {
		return s.Text
	}
	var as []color.Attribute
	for _, name := range s.Colors {
		if a, ok := attrs[name]; ok {
			as = append(as, a)
		}
	}
	return color.New(as...).Sprint(s.Text)
}

// Event logs a line built from a mix of plain strings and colored Spans,
// joined by sep (default a single space), prefixed with a cyan
// "[007.23] "-style elapsed-time header, at log.Lvl1. This mirrors
// log.py's log(*values, sep=" ") helper used throughout client.py,
// backend.py and Attacker.py.
func Event(sep string, parts ...interface{}) {
	if sep == "" {
		sep = " "
	}
	rendered := make([]string, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case Span:
			rendered = append(rendered, v.render())
		case string:
			rendered = append(rendered, v)
		}
	}
	header := fmt.Sprintf("[%s] ", color.New(color.FgCyan).Sprintf("%06.2f", relNow()))
	log.Lvl1(header + strings.Join(rendered, sep))
}

// Warnf logs a one-off warning at Lvl1, colored yellow, used for startup
// banners such as the TIME_SCALE alert.
func Warnf(format string, a ...interface{}) {
	log.Lvl1(color.New(color.FgYellow).Sprintf(format, a...))
}
