// Package config defines the persisted device settings.
// The record is fixed-size for zero-allocation binary serialization.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CurrentVersion is the config format version.
// Bump this when making breaking changes to the config format.
// When firmware boots and finds a different version in flash, the config is wiped.
const CurrentVersion uint16 = 1

// Size is the encoded size of DeviceConfig.
const Size = 20

// Feature and debug flags stored in DeviceConfig.Flags
const (
	FlagMicrophone uint32 = 1 << iota
	FlagPassthrough
	FlagBuzzer
	FlagInvertX
	FlagInvertY
	FlagDebugDisplay
	FlagDebugLog
)

// Layout selects the pin assignment.
type Layout uint8

const (
	LayoutBitDogLab Layout = iota
	LayoutBreadboard
)

func (l Layout) String() string {
	switch l {
	case LayoutBitDogLab:
		return "bitdoglab"
	case LayoutBreadboard:
		return "breadboard"
	default:
		return fmt.Sprintf("layout(%d)", uint8(l))
	}
}

// ParseLayout is the inverse of Layout.String.
func ParseLayout(s string) (Layout, error) {
	switch s {
	case "bitdoglab", "":
		return LayoutBitDogLab, nil
	case "breadboard":
		return LayoutBreadboard, nil
	}
	return 0, fmt.Errorf("%w: unknown layout %q", ErrInvalidValue, s)
}

// DeviceConfig holds the device settings.
// Total size: 20 bytes
// Layout:
//
//	[0-1]:   Version (uint16)
//	[2-5]:   Flags (uint32)
//	[6]:     Layout (uint8)
//	[7]:     LoopDelayMs (uint8)
//	[8-9]:   DeadZone (uint16)
//	[10-11]: Divisor (uint16)
//	[12-13]: LongPressMs (uint16)
//	[14-15]: ToneMs (uint16)
//	[16]:    SettleAMs (uint8)
//	[17]:    SettleBMs (uint8)
//	[18]:    Contrast (uint8)
//	[19]:    Reserved (uint8)
type DeviceConfig struct {
	Version     uint16 // Config format version
	Flags       uint32 // Feature flags
	Layout      Layout // Pin assignment
	LoopDelayMs uint8  // Control loop period
	DeadZone    uint16 // Joystick dead zone in raw counts
	Divisor     uint16 // Raw counts per pointer step
	LongPressMs uint16 // Right click threshold
	ToneMs      uint16 // Feedback tone length
	SettleAMs   uint8  // Button A settle time
	SettleBMs   uint8  // Button B settle time
	Contrast    uint8  // Display contrast
	Reserved    uint8
}

// Errors
var (
	ErrInvalidSize  = errors.New("invalid config size")
	ErrInvalidValue = errors.New("invalid config value")
)

// Default returns the factory settings for the BitDogLab board.
func Default() DeviceConfig {
	return DeviceConfig{
		Version:     CurrentVersion,
		Flags:       FlagMicrophone | FlagBuzzer,
		Layout:      LayoutBitDogLab,
		LoopDelayMs: 10,
		DeadZone:    100,
		Divisor:     128,
		LongPressMs: 1000,
		ToneMs:      5000,
		SettleAMs:   50,
		SettleBMs:   100,
		Contrast:    0xFF,
	}
}

// Has reports whether all bits of flag are set.
func (d *DeviceConfig) Has(flag uint32) bool {
	return d.Flags&flag == flag
}

// Set sets or clears flag.
func (d *DeviceConfig) Set(flag uint32, on bool) {
	if on {
		d.Flags |= flag
	} else {
		d.Flags &^= flag
	}
}

// Validate rejects settings the control loop cannot run with.
func (d *DeviceConfig) Validate() error {
	switch {
	case d.Divisor == 0:
		return fmt.Errorf("%w: divisor must be positive", ErrInvalidValue)
	case d.LoopDelayMs == 0:
		return fmt.Errorf("%w: loop delay must be positive", ErrInvalidValue)
	case d.LongPressMs == 0:
		return fmt.Errorf("%w: long press must be positive", ErrInvalidValue)
	case d.Layout > LayoutBreadboard:
		return fmt.Errorf("%w: %s", ErrInvalidValue, d.Layout)
	}
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler for DeviceConfig.
func (d *DeviceConfig) MarshalBinary() ([]byte, error) {
	buf := make([]byte, Size)
	binary.LittleEndian.PutUint16(buf[0:], d.Version)
	binary.LittleEndian.PutUint32(buf[2:], d.Flags)
	buf[6] = uint8(d.Layout)
	buf[7] = d.LoopDelayMs
	binary.LittleEndian.PutUint16(buf[8:], d.DeadZone)
	binary.LittleEndian.PutUint16(buf[10:], d.Divisor)
	binary.LittleEndian.PutUint16(buf[12:], d.LongPressMs)
	binary.LittleEndian.PutUint16(buf[14:], d.ToneMs)
	buf[16] = d.SettleAMs
	buf[17] = d.SettleBMs
	buf[18] = d.Contrast
	buf[19] = d.Reserved
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for DeviceConfig.
func (d *DeviceConfig) UnmarshalBinary(data []byte) error {
	if len(data) < Size {
		return ErrInvalidSize
	}

	d.Version = binary.LittleEndian.Uint16(data[0:])
	d.Flags = binary.LittleEndian.Uint32(data[2:])
	d.Layout = Layout(data[6])
	d.LoopDelayMs = data[7]
	d.DeadZone = binary.LittleEndian.Uint16(data[8:])
	d.Divisor = binary.LittleEndian.Uint16(data[10:])
	d.LongPressMs = binary.LittleEndian.Uint16(data[12:])
	d.ToneMs = binary.LittleEndian.Uint16(data[14:])
	d.SettleAMs = data[16]
	d.SettleBMs = data[17]
	d.Contrast = data[18]
	d.Reserved = data[19]
	return nil
}
