// Package motion maps joystick deviation to relative pointer motion and
// joystick click durations to mouse buttons.
package motion

import (
	"time"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/composite"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/input"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/mouse"
)

// Defaults for a 12-bit analog axis.
const (
	DefaultCenter   = input.AxisCenter
	DefaultDeadZone = 100
	DefaultDivisor  = 128

	LongPressThreshold = 1000 * time.Millisecond
	PulseHold          = 50 * time.Millisecond
)

// Axis converts a raw analog reading into a signed delta.
type Axis struct {
	Center   int
	DeadZone int
	Divisor  int
	Invert   bool
}

// DefaultAxis returns the stock axis tuning.
func DefaultAxis() Axis {
	return Axis{
		Center:   DefaultCenter,
		DeadZone: DefaultDeadZone,
		Divisor:  DefaultDivisor,
	}
}

// Delta returns the pointer movement for raw. Readings within the dead zone
// produce 0. Division truncates toward zero.
func (a Axis) Delta(raw uint16) int8 {
	offset := int(raw) - a.Center
	if abs(offset) < a.DeadZone {
		return 0
	}
	divisor := a.Divisor
	if divisor <= 0 {
		divisor = DefaultDivisor
	}
	d := offset / divisor
	if a.Invert {
		d = -d
	}
	return clamp(d)
}

// Delta2 maps both axes of a sample at once.
func Delta2(x, y Axis, s input.Sample) (dx, dy int8) {
	return x.Delta(s.X), y.Delta(s.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clamp(v int) int8 {
	if v > composite.DeltaMax {
		return composite.DeltaMax
	}
	if v < composite.DeltaMin {
		return composite.DeltaMin
	}
	return int8(v)
}

// Click is the classification of a completed joystick press.
type Click uint8

const (
	ClickNone Click = iota
	ClickShort
	ClickLong
)

func (c Click) String() string {
	switch c {
	case ClickShort:
		return "short"
	case ClickLong:
		return "long"
	default:
		return "none"
	}
}

// Buttons returns the mouse button bits a click produces.
func (c Click) Buttons() uint8 {
	switch c {
	case ClickShort:
		return mouse.ButtonLeft
	case ClickLong:
		return mouse.ButtonRight
	default:
		return 0
	}
}

// Classify splits presses at threshold. A press exactly threshold long is a
// long click.
func Classify(d, threshold time.Duration) Click {
	if d < threshold {
		return ClickShort
	}
	return ClickLong
}

// Pulse holds button bits for a fixed time and then releases them.
type Pulse struct {
	Hold time.Duration

	buttons uint8
	since   time.Time
}

// NewPulse returns a pulse with the stock hold time.
func NewPulse() *Pulse {
	return &Pulse{Hold: PulseHold}
}

// Start sets buttons until Hold has elapsed from now. A running pulse is
// replaced.
func (p *Pulse) Start(buttons uint8, now time.Time) {
	p.buttons = buttons
	p.since = now
}

// Buttons returns the bits held at now, clearing them once the hold is over.
func (p *Pulse) Buttons(now time.Time) uint8 {
	if p.buttons != 0 && now.Sub(p.since) >= p.Hold {
		p.buttons = 0
	}
	return p.buttons
}

// Active reports whether buttons are currently held.
func (p *Pulse) Active() bool {
	return p.buttons != 0
}
