//go:build tinygo

package board

import (
	"errors"
	"fmt"
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/input"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/tone"
)

const i2cFrequency = 400 * machine.KHz

// Board is the configured hardware.
type Board struct {
	Pins    Pins
	Sampler *input.Sampler
	Mic     input.ADC
	Buzzer  tone.Output

	// UART is nil on layouts without a passthrough module.
	UART *machine.UART
}

// Setup configures every peripheral in p. A part that fails is left out and
// its error joined into the result; the board is always returned.
func Setup(p Pins) (*Board, error) {
	b := &Board{Pins: p}
	var errs []error

	for _, pin := range []machine.Pin{p.Joy, p.A, p.B} {
		pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	}

	machine.InitADC()
	x := machine.ADC{Pin: p.JoyX}
	y := machine.ADC{Pin: p.JoyY}
	mic := machine.ADC{Pin: p.Mic}
	for _, adc := range []machine.ADC{x, y, mic} {
		adc.Configure(machine.ADCConfig{})
	}
	b.Sampler = &input.Sampler{X: x, Y: y, Joy: p.Joy, A: p.A, B: p.B}
	b.Mic = mic

	if p.BuzzerPWM != nil {
		buzzer, err := NewBuzzer(p.BuzzerPWM, p.Buzzer)
		if err != nil {
			errs = append(errs, fmt.Errorf("buzzer: %w", err))
		} else {
			b.Buzzer = buzzer
		}
	}

	if p.UART != nil {
		if err := p.UART.Configure(machine.UARTConfig{BaudRate: p.BaudRate, TX: p.TX, RX: p.RX}); err != nil {
			errs = append(errs, fmt.Errorf("uart: %w", err))
		} else {
			b.UART = p.UART
		}
	}

	if err := p.I2C.Configure(machine.I2CConfig{Frequency: i2cFrequency, SDA: p.SDA, SCL: p.SCL}); err != nil {
		errs = append(errs, fmt.Errorf("i2c: %w", err))
	}
	// The panel needs a moment after power-up before it acknowledges.
	time.Sleep(10 * time.Millisecond)

	return b, errors.Join(errs...)
}
