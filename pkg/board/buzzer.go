//go:build tinygo

package board

import (
	"machine"

	"tinygo.org/x/drivers/tone"
)

// PWM is a PWM slice able to drive a speaker.
type PWM = tone.PWM

// Buzzer is a passive buzzer on a PWM channel.
type Buzzer struct {
	speaker tone.Speaker
	period  uint64
}

// NewBuzzer configures pwm for pin and leaves it silent.
func NewBuzzer(pwm PWM, pin machine.Pin) (*Buzzer, error) {
	s, err := tone.New(pwm, pin)
	if err != nil {
		return nil, err
	}
	s.Stop()
	return &Buzzer{speaker: s}, nil
}

// SetFrequency selects the pitch used by the next On.
func (b *Buzzer) SetFrequency(hz uint32) {
	if hz == 0 {
		b.period = 0
		return
	}
	b.period = uint64(1e9) / uint64(hz)
}

// On starts a 50% square wave.
func (b *Buzzer) On() {
	b.speaker.SetPeriod(b.period)
}

// Off silences the output.
func (b *Buzzer) Off() {
	b.speaker.Stop()
}
