//go:build tinygo && !ssd1306

package board

import (
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/display"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/oled"
)

// NewScreen brings up the panel on the board's I2C bus. The canvas is
// returned even on error so the caller can keep drawing into the
// framebuffer.
func (b *Board) NewScreen(contrast uint8) (display.Canvas, error) {
	dev := oled.New(b.Pins.I2C)
	err := dev.Configure(oled.Config{Contrast: contrast})
	return dev, err
}
