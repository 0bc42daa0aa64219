//go:build tinygo

package composite

import (
	"machine/usb"
	"machine/usb/descriptor"
)

// MouseReportID prefixes every mouse report on the wire.
const MouseReportID = 1

// MouseHIDReportDescriptor declares one report:
// 1 ID + 1 buttons + DX + DY + Wheel (5 bytes total).
// Boot mouse field order, so the payload after the ID is the boot layout.
var MouseHIDReportDescriptor = descriptor.Append([][]byte{
	descriptor.HIDUsagePageGenericDesktop,
	descriptor.HIDUsageDesktopMouse,
	descriptor.HIDCollectionApplication,
	descriptor.HIDUsageDesktopPointer,
	descriptor.HIDCollectionPhysical,
	descriptor.HIDReportID(MouseReportID),
	// Buttons (3 buttons, 1 bit each + 5 bits padding)
	descriptor.HIDUsagePageButton,
	descriptor.HIDUsageMinimum(1),
	descriptor.HIDUsageMaximum(3),
	descriptor.HIDLogicalMinimum(0),
	descriptor.HIDLogicalMaximum(1),
	descriptor.HIDReportCount(3),
	descriptor.HIDReportSize(1),
	descriptor.HIDInputDataVarAbs,
	descriptor.HIDReportCount(1),
	descriptor.HIDReportSize(5),
	descriptor.HIDInputConstVarAbs,
	// Axes (X, Y, Wheel)
	descriptor.HIDUsagePageGenericDesktop,
	descriptor.HIDUsageDesktopX,
	descriptor.HIDUsageDesktopY,
	descriptor.HIDUsageDesktopWheel,
	descriptor.HIDLogicalMinimum(DeltaMin),
	descriptor.HIDLogicalMaximum(DeltaMax),
	descriptor.HIDReportSize(8),
	descriptor.HIDReportCount(3),
	descriptor.HIDInputDataVarRel,
	descriptor.HIDCollectionEnd,
	descriptor.HIDCollectionEnd,
})

// USBDescriptor is the complete USB descriptor for the device
var USBDescriptor = descriptor.Descriptor{
	// Device descriptor: USB 2.0 Composite device
	Device: descriptor.DeviceCDC.Bytes(),

	// Configuration descriptor: All interfaces combined
	Configuration: descriptor.Append([][]byte{
		descriptor.ConfigurationCDCHID.Bytes(),
		// CDC interfaces
		descriptor.InterfaceAssociationCDC.Bytes(),
		descriptor.InterfaceCDCControl.Bytes(),
		descriptor.ClassSpecificCDCHeader.Bytes(),
		descriptor.ClassSpecificCDCACM.Bytes(),
		descriptor.ClassSpecificCDCUnion.Bytes(),
		descriptor.ClassSpecificCDCCallManagement.Bytes(),
		descriptor.EndpointEP1IN.Bytes(),
		descriptor.InterfaceCDCData.Bytes(),
		descriptor.EndpointEP2OUT.Bytes(),
		descriptor.EndpointEP3IN.Bytes(),
		// HID interface
		descriptor.InterfaceHID.Bytes(),
		// HID class descriptor, patched with the report descriptor length
		func() []byte {
			classHID := descriptor.ClassHID.Bytes()
			classHID[7] = byte(len(MouseHIDReportDescriptor))
			classHID[8] = byte(len(MouseHIDReportDescriptor) >> 8)
			return classHID
		}(),
		descriptor.EndpointEP4IN.Bytes(),
		descriptor.EndpointEP5OUT.Bytes(),
	}),

	// HID report descriptors by interface number
	HID: map[uint16][]byte{
		usb.HID_INTERFACE: MouseHIDReportDescriptor,
	},
}

// Install replaces the stock CDC+HID descriptor. It must run before the first
// hid.SetHandler call, which configures the USB endpoints.
func Install() {
	descriptor.CDCHID = USBDescriptor
}
