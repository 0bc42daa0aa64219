package input

import "time"

// ButtonID identifies one of the digital inputs.
type ButtonID uint8

const (
	ButtonJoystick ButtonID = iota
	ButtonA
	ButtonB
)

func (id ButtonID) String() string {
	switch id {
	case ButtonJoystick:
		return "joystick"
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	default:
		return "unknown"
	}
}

// EventKind tells what a Button update observed.
type EventKind uint8

const (
	EventNone EventKind = iota
	EventPress
	EventRelease
)

// Event is a debounced button edge. Start is when the press began; Duration
// is set on release only.
type Event struct {
	Kind     EventKind
	ID       ButtonID
	Start    time.Time
	Duration time.Duration
}

// Button debounces one digital input and times its presses.
//
// A level change is accepted once it has held for Settle. With a zero Settle
// the change is accepted on the update that observes it. Press start and
// release are stamped with the time the raw level changed, so the settle
// delay does not bias durations.
type Button struct {
	ID     ButtonID
	Settle time.Duration

	raw        bool
	rawSince   time.Time
	stable     bool
	pressStart time.Time
}

// Update feeds the current level (true = pressed) and returns the edge it
// completes, if any.
func (b *Button) Update(pressed bool, now time.Time) Event {
	if pressed != b.raw {
		b.raw = pressed
		b.rawSince = now
	}
	if b.raw == b.stable || now.Sub(b.rawSince) < b.Settle {
		return Event{}
	}

	b.stable = b.raw
	if b.stable {
		b.pressStart = b.rawSince
		return Event{Kind: EventPress, ID: b.ID, Start: b.pressStart}
	}
	return Event{
		Kind:     EventRelease,
		ID:       b.ID,
		Start:    b.pressStart,
		Duration: b.rawSince.Sub(b.pressStart),
	}
}

// Pressed reports the debounced state.
func (b *Button) Pressed() bool {
	return b.stable
}

