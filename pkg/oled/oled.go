// Package oled drives a 128x64 SSD1306 class OLED panel over I2C.
//
// The panel memory is mirrored in a page-addressed framebuffer: each byte
// holds 8 vertically stacked pixels of one column, so pixel (x, y) lives in
// byte x+(y/8)*Width at bit y%8. Drawing only touches the framebuffer;
// Display pushes it to the panel in small chunks.
package oled

import (
	"errors"
	"fmt"
	"image/color"

	"tinygo.org/x/drivers"
)

const (
	// I2C configuration
	Address = 0x3C

	// Display dimensions
	Width      = 128
	Height     = 64
	Pages      = Height / 8
	BufferSize = Width * Height / 8

	// ChunkSize is the number of framebuffer bytes sent per I2C transfer.
	ChunkSize = 16

	// Control bytes prefixed to every transfer
	controlCommand = 0x00
	controlData    = 0x40

	// Addressing window commands
	cmdColumnAddress = 0x21
	cmdPageAddress   = 0x22

	cmdSetContrast = 0x81
	contrastIndex  = 9 // position of the contrast value in initSequence

	defaultContrast = 0xFF
)

var (
	ErrInitFailed = errors.New("display did not acknowledge init")
)

// initSequence is sent once, in this order, by Configure.
var initSequence = [...]byte{
	0xAE,       // Display off
	0x20, 0x00, // Memory addressing mode: horizontal
	0xB0,       // Page start address
	0xC8,       // COM output scan direction remapped
	0x00,       // Low column address
	0x10,       // High column address
	0x40,       // Start line address
	cmdSetContrast, defaultContrast,
	0xA1,       // Segment re-map
	0xA6,       // Normal display
	0xA8, 0x3F, // Multiplex ratio
	0xA4,       // Output follows RAM content
	0xD3, 0x00, // Display offset
	0xD5, 0xF0, // Clock divide ratio / oscillator frequency
	0xD9, 0x22, // Pre-charge period
	0xDA, 0x12, // COM pins hardware configuration
	0xDB, 0x20, // VCOMH deselect level
	0x8D, 0x14, // Charge pump
	0xAF,       // Display on
}

// Config holds the optional panel settings applied by Configure.
type Config struct {
	// Address overrides the 7-bit bus address. Zero means Address.
	Address uint16
	// Contrast overrides the init contrast. Zero means 0xFF.
	Contrast uint8
}

// Device is an OLED panel and its framebuffer.
type Device struct {
	bus     drivers.I2C
	address uint16
	buffer  [BufferSize]byte
	chunk   [ChunkSize + 1]byte
	cmd     [2]byte
}

// New creates a device on the given bus. Call Configure before Display.
func New(bus drivers.I2C) *Device {
	return &Device{
		bus:     bus,
		address: Address,
	}
}

// Configure runs the controller init sequence, clears the framebuffer and
// selects the full addressing window. A panel that does not acknowledge is
// reported with ErrInitFailed; the device stays usable but draws nothing.
func (d *Device) Configure(cfg Config) error {
	if cfg.Address != 0 {
		d.address = cfg.Address
	}

	seq := initSequence
	if cfg.Contrast != 0 {
		seq[contrastIndex] = cfg.Contrast
	}

	for _, c := range seq {
		if err := d.command(c); err != nil {
			return fmt.Errorf("%w: command 0x%02X: %v", ErrInitFailed, c, err)
		}
	}

	d.Clear()
	if err := d.setWindow(); err != nil {
		return fmt.Errorf("%w: %v", ErrInitFailed, err)
	}
	return nil
}

// Clear zeroes the framebuffer. Nothing is sent until Display.
func (d *Device) Clear() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
}

// ClearBuffer is an alias of Clear matching the tinygo display drivers.
func (d *Device) ClearBuffer() {
	d.Clear()
}

// Set turns one pixel on or off. Coordinates outside the panel are ignored.
func (d *Device) Set(x, y int16, on bool) {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return
	}
	index := int(x) + int(y/8)*Width
	mask := byte(1) << uint(y%8)
	if on {
		d.buffer[index] |= mask
	} else {
		d.buffer[index] &^= mask
	}
}

// GetPixel reports whether a pixel is lit in the framebuffer.
func (d *Device) GetPixel(x, y int16) bool {
	if x < 0 || x >= Width || y < 0 || y >= Height {
		return false
	}
	return d.buffer[int(x)+int(y/8)*Width]&(1<<uint(y%8)) != 0
}

// SetPixel implements drivers.Displayer. Any non-black color lights the pixel.
func (d *Device) SetPixel(x, y int16, c color.RGBA) {
	d.Set(x, y, c.R != 0 || c.G != 0 || c.B != 0)
}

// Size implements drivers.Displayer.
func (d *Device) Size() (x, y int16) {
	return Width, Height
}

// Buffer returns the framebuffer. The slice aliases device memory.
func (d *Device) Buffer() []byte {
	return d.buffer[:]
}

// Display flushes the whole framebuffer to the panel.
func (d *Device) Display() error {
	if err := d.setWindow(); err != nil {
		return err
	}

	// The transport cannot be assumed to carry the full buffer at once
	for i := 0; i < BufferSize; i += ChunkSize {
		n := ChunkSize
		if i+n > BufferSize {
			n = BufferSize - i
		}
		d.chunk[0] = controlData
		copy(d.chunk[1:], d.buffer[i:i+n])
		if err := d.bus.Tx(d.address, d.chunk[:n+1], nil); err != nil {
			return err
		}
	}
	return nil
}

// setWindow selects all columns and pages as the write target.
func (d *Device) setWindow() error {
	for _, c := range [...]byte{
		cmdColumnAddress, 0, Width - 1,
		cmdPageAddress, 0, Pages - 1,
	} {
		if err := d.command(c); err != nil {
			return err
		}
	}
	return nil
}

// command sends a single command byte.
func (d *Device) command(c byte) error {
	d.cmd[0] = controlCommand
	d.cmd[1] = c
	return d.bus.Tx(d.address, d.cmd[:], nil)
}
