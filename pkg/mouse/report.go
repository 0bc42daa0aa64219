// Package mouse builds relative mouse reports and hands them to the USB HID
// transport when the host can take them.
package mouse

import "io"

// Button bits in Report.Buttons
const (
	ButtonLeft   uint8 = 1 << 0
	ButtonRight  uint8 = 1 << 1
	ButtonMiddle uint8 = 1 << 2
)

// ReportSize is the encoded size of a Report, without report ID.
const ReportSize = 4

// Report is the state of the mouse sent to the host.
type Report struct {
	// Button bitfield: bit 0=Left, 1=Right, 2=Middle
	Buttons uint8
	// Relative movement since the previous report
	DX, DY int8
	// Vertical scroll
	Wheel int8
}

// Encode writes the boot mouse layout into b, which must hold ReportSize bytes.
//
//	Byte 0: Button bitfield
//	Byte 1: DX
//	Byte 2: DY
//	Byte 3: Wheel
func (r Report) Encode(b []byte) {
	b[0] = r.Buttons
	b[1] = byte(r.DX)
	b[2] = byte(r.DY)
	b[3] = byte(r.Wheel)
}

// MarshalBinary implements encoding.BinaryMarshaler for Report.
func (r Report) MarshalBinary() ([]byte, error) {
	b := make([]byte, ReportSize)
	r.Encode(b)
	return b, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler for Report.
func (r *Report) UnmarshalBinary(data []byte) error {
	if len(data) < ReportSize {
		return io.ErrUnexpectedEOF
	}
	r.Buttons = data[0]
	r.DX = int8(data[1])
	r.DY = int8(data[2])
	r.Wheel = int8(data[3])
	return nil
}

// Moving reports whether the report carries any motion.
func (r Report) Moving() bool {
	return r.DX != 0 || r.DY != 0 || r.Wheel != 0
}
