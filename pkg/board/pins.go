//go:build tinygo

// Package board brings up the RP2040 peripherals for one of the supported
// wiring layouts and hands the rest of the firmware plain interfaces.
package board

import (
	"machine"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
)

// Pins is the wiring of one layout. A nil BuzzerPWM or UART means that part
// is not fitted.
type Pins struct {
	I2C *machine.I2C
	SDA machine.Pin
	SCL machine.Pin

	JoyX, JoyY machine.Pin
	Mic        machine.Pin

	Joy machine.Pin
	A   machine.Pin
	B   machine.Pin

	Buzzer    machine.Pin
	BuzzerPWM PWM

	UART     *machine.UART
	TX, RX   machine.Pin
	BaudRate uint32
}

// BitDogLab is the BitDogLab board: OLED on I2C1, buzzer on GP12, no UART.
var BitDogLab = Pins{
	I2C:       machine.I2C1,
	SDA:       machine.GP14,
	SCL:       machine.GP15,
	JoyX:      machine.ADC0,
	JoyY:      machine.ADC1,
	Mic:       machine.ADC2,
	Joy:       machine.GP22,
	A:         machine.GP5,
	B:         machine.GP6,
	Buzzer:    machine.GP12,
	BuzzerPWM: machine.PWM6,
}

// Breadboard is a bare Pico with the OLED on I2C0 and a Bluetooth module on
// UART0.
var Breadboard = Pins{
	I2C:      machine.I2C0,
	SDA:      machine.GP4,
	SCL:      machine.GP5,
	JoyX:     machine.ADC0,
	JoyY:     machine.ADC1,
	Mic:      machine.ADC2,
	Joy:      machine.GP22,
	A:        machine.GP15,
	B:        machine.GP16,
	UART:     machine.UART0,
	TX:       machine.GP0,
	RX:       machine.GP1,
	BaudRate: 9600,
}

// PinsFor returns the wiring of layout. Unknown layouts get BitDogLab.
func PinsFor(layout config.Layout) Pins {
	switch layout {
	case config.LayoutBreadboard:
		return Breadboard
	default:
		return BitDogLab
	}
}
