package display

import (
	"fmt"
	"strings"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/mouse"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/protocol"
)

// maxPayloadBytes is how many payload bytes fit on a detail row.
const maxPayloadBytes = 4

// FrameFormatter formats protocol frames for the debug rows.
// It creates compact string representations that fit a 21-column row.
type FrameFormatter struct{}

// NewFrameFormatter creates a new frame formatter.
func NewFrameFormatter() *FrameFormatter {
	return &FrameFormatter{}
}

// FormatIncoming formats an incoming request frame for display.
// Format: I:CMD[len] PAYLOAD
func (f *FrameFormatter) FormatIncoming(frame *protocol.Frame) string {
	return fmt.Sprintf("I:%s[%d] %s", f.commandName(frame.Cmd), len(frame.Payload), f.hex(frame.Payload))
}

// FormatOutgoing formats an outgoing response frame for display.
// Format: O:STATUS[len] PAYLOAD
func (f *FrameFormatter) FormatOutgoing(resp *protocol.Response) string {
	return fmt.Sprintf("O:%s[%d] %s", f.statusName(resp.Status), len(resp.Payload), f.hex(resp.Payload))
}

// FormatReport formats a mouse report for display.
// Format: B:LRM X:+dx Y:+dy
func (f *FrameFormatter) FormatReport(r mouse.Report) string {
	buttons := []byte("---")
	if r.Buttons&mouse.ButtonLeft != 0 {
		buttons[0] = 'L'
	}
	if r.Buttons&mouse.ButtonRight != 0 {
		buttons[1] = 'R'
	}
	if r.Buttons&mouse.ButtonMiddle != 0 {
		buttons[2] = 'M'
	}
	return fmt.Sprintf("B:%s X:%+d Y:%+d", buttons, r.DX, r.DY)
}

// FormatError formats an error for display. Only the first line of a joined
// error fits.
func (f *FrameFormatter) FormatError(err error) string {
	msg, _, _ := strings.Cut(err.Error(), "\n")
	return truncate(msg, Columns)
}

// hex formats the first payload bytes, marking the rest with "..".
func (f *FrameFormatter) hex(payload []byte) string {
	var b strings.Builder
	for i := 0; i < len(payload) && i < maxPayloadBytes; i++ {
		fmt.Fprintf(&b, "%02X", payload[i])
	}
	if len(payload) > maxPayloadBytes {
		b.WriteString("..")
	}
	return b.String()
}

// commandName returns a short name for a command code.
func (f *FrameFormatter) commandName(cmd uint8) string {
	switch cmd {
	case protocol.CmdGetDeviceConfig:
		return "GetCfg"
	case protocol.CmdSetDeviceConfig:
		return "SetCfg"
	case protocol.CmdGetStatus:
		return "Status"
	case protocol.CmdShowText:
		return "Show"
	case protocol.CmdGetStorageStats:
		return "GetStor"
	case protocol.CmdPing:
		return "Ping"
	case protocol.CmdFactoryReset:
		return "FctRst"
	case protocol.CmdGetVersion:
		return "GetVer"
	default:
		return fmt.Sprintf("Cmd%02X", cmd)
	}
}

// statusName returns a short name for a status code.
func (f *FrameFormatter) statusName(status uint8) string {
	switch status {
	case protocol.StatusOK:
		return "OK"
	case protocol.StatusError:
		return "Err"
	case protocol.StatusInvalidCmd:
		return "InvCmd"
	case protocol.StatusInvalidData:
		return "InvData"
	case protocol.StatusNotFound:
		return "NotFnd"
	case protocol.StatusNoSpace:
		return "NoSpace"
	case protocol.StatusVersionMismatch:
		return "VerMis"
	case protocol.StatusCRCError:
		return "CRC"
	default:
		return fmt.Sprintf("Sts%02X", status)
	}
}
