//go:build tinygo && ssd1306

package board

import (
	"image/color"

	"tinygo.org/x/drivers/ssd1306"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/display"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/oled"
)

var white = color.RGBA{255, 255, 255, 255}

// ssdScreen draws text with tinyfont on the upstream SSD1306 driver.
type ssdScreen struct {
	dev *ssd1306.Device
}

// NewScreen brings up the panel on the board's I2C bus using the upstream
// driver. Contrast is left at the driver default.
func (b *Board) NewScreen(contrast uint8) (display.Canvas, error) {
	dev := ssd1306.NewI2C(b.Pins.I2C)
	dev.Configure(ssd1306.Config{
		Address:  oled.Address,
		Width:    oled.Width,
		Height:   oled.Height,
		VccState: ssd1306.SWITCHCAPVCC,
	})
	dev.ClearDisplay()
	return &ssdScreen{dev: dev}, nil
}

func (s *ssdScreen) ClearBuffer() {
	s.dev.ClearBuffer()
}

// DrawText takes the row's top edge; tinyfont wants the baseline.
func (s *ssdScreen) DrawText(text string, x, y int16) {
	tinyfont.WriteLine(s.dev, &proggy.TinySZ8pt7b, x, y+display.RowHeight-1, text, white)
}

func (s *ssdScreen) Display() error {
	return s.dev.Display()
}
