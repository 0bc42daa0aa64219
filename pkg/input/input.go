// Package input samples the joystick axes and the active-low buttons.
//
// Readings are plain values; nothing here blocks. Timing decisions such as
// debounce and press duration are made by Button against the caller's clock.
package input

const (
	// AxisResolution is the number of significant bits in an axis reading.
	AxisResolution = 12
	AxisMax        = 1<<AxisResolution - 1
	// AxisCenter is the assumed rest position of a joystick axis.
	AxisCenter = 2048
)

// ADC is an analog channel. machine.ADC satisfies it; its readings are
// left-justified to 16 bits.
type ADC interface {
	Get() uint16
}

// Pin is a digital input. machine.Pin satisfies it.
type Pin interface {
	Get() bool
}

// ReadAxis returns a 0-4095 sample from the channel.
// A nil channel reads as centered.
func ReadAxis(adc ADC) uint16 {
	if adc == nil {
		return AxisCenter
	}
	return adc.Get() >> (16 - AxisResolution)
}

// ReadDigital reports whether a pulled-up pin is held low (pressed).
// A nil pin reads as released.
func ReadDigital(p Pin) bool {
	if p == nil {
		return false
	}
	return !p.Get()
}

// Sample is one snapshot of every input, taken once per loop iteration.
type Sample struct {
	X, Y uint16
	Joy  bool
	A    bool
	B    bool
}

// Sampler reads the configured channels. Any channel may be nil.
type Sampler struct {
	X, Y ADC
	Joy  Pin
	A    Pin
	B    Pin
}

// Sample reads all channels.
func (s *Sampler) Sample() Sample {
	return Sample{
		X:   ReadAxis(s.X),
		Y:   ReadAxis(s.Y),
		Joy: ReadDigital(s.Joy),
		A:   ReadDigital(s.A),
		B:   ReadDigital(s.B),
	}
}
