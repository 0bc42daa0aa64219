//go:build tinygo

package mouse

import (
	"machine"
	"machine/usb/hid"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/composite"
)

// USB is the HID transport for the mouse report declared by the composite
// descriptor.
type USB struct {
	packet  [ReportSize + 1]byte
	waitTxc bool
}

// usbInstance is the singleton instance
var usbInstance *USB

// init registers the transport with the HID subsystem
func init() {
	if usbInstance == nil {
		composite.Install()
		usbInstance = &USB{}
		hid.SetHandler(usbInstance)
	}
}

// Port returns the USB transport instance
func Port() *USB {
	return usbInstance
}

// TxHandler is called by the USB interrupt when the IN endpoint finished
// the previous transfer.
// This implements the hidDevicer interface
func (u *USB) TxHandler() bool {
	u.waitTxc = false
	return false
}

// RxHandler handles output reports from the host. A mouse has none.
// This implements the hidDevicer interface
func (u *USB) RxHandler(b []byte) bool {
	return false
}

// Mounted reports whether the host finished configuring the endpoints.
func (u *USB) Mounted() bool {
	return machine.USBDev.InitEndpointComplete
}

// Ready reports whether the IN endpoint is free.
func (u *USB) Ready() bool {
	return u.Mounted() && !u.waitTxc
}

// SendReport prefixes the mouse report ID and starts the IN transfer.
func (u *USB) SendReport(report []byte) {
	u.packet[0] = composite.MouseReportID
	n := copy(u.packet[1:], report)
	u.waitTxc = true
	hid.SendUSBPacket(u.packet[:1+n])
}
