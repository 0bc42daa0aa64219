// Package composite provides the USB composite device descriptor: CDC
// (serial console for the config protocol) + HID (a single relative mouse).
package composite

// Logical range of the relative X, Y and wheel fields. Every motion delta
// the firmware produces must fall inside it.
const (
	DeltaMin = -128
	DeltaMax = 127
)
