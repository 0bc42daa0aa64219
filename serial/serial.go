// Package serial services the device's byte streams from the control loop:
// the configuration protocol on the USB serial port and the text
// passthrough on the UART. Both poll without blocking.
package serial

import (
	"io"
	"log/slog"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/log"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/display"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/protocol"
)

// MaxPollBytes bounds the work done by one Poll.
const MaxPollBytes = 256

// Port is a buffered byte stream. machine.Serialer satisfies it.
type Port interface {
	io.Writer
	Buffered() int
	ReadByte() (byte, error)
}

// Monitor shows protocol traffic, normally display.Manager.ShowDetail.
type Monitor interface {
	ShowDetail(in, out string) error
}

// Link answers protocol frames arriving on a port.
type Link struct {
	port      Port
	handler   *protocol.Handler
	decoder   protocol.Decoder
	monitor   Monitor
	formatter *display.FrameFormatter
	logger    *slog.Logger
}

// NewLink creates a link on port.
func NewLink(port Port, handler *protocol.Handler, logger *slog.Logger) *Link {
	return &Link{
		port:      port,
		handler:   handler,
		formatter: display.NewFrameFormatter(),
		logger:    log.OrDiscard(logger),
	}
}

// SetMonitor mirrors frames on m. Nil turns mirroring off.
func (l *Link) SetMonitor(m Monitor) {
	l.monitor = m
}

// Poll reads what the port has buffered and answers complete frames.
func (l *Link) Poll() {
	for n := 0; n < MaxPollBytes && l.port.Buffered() > 0; n++ {
		b, err := l.port.ReadByte()
		if err != nil {
			return
		}

		frame, err := l.decoder.Feed(b)
		switch {
		case err == protocol.ErrCRCMismatch:
			l.logger.Debug("frame dropped", "error", err)
			l.respond(nil, &protocol.Response{Status: protocol.StatusCRCError})
		case err != nil:
			l.logger.Debug("frame dropped", "error", err)
			l.respond(nil, &protocol.Response{Status: protocol.StatusInvalidData})
		case frame != nil:
			l.respond(frame, l.handler.Handle(frame))
		}
	}
}

func (l *Link) respond(frame *protocol.Frame, resp *protocol.Response) {
	if err := protocol.WriteResponse(l.port, resp); err != nil {
		l.logger.Warn("writing response failed", "error", err)
	}
	if l.monitor == nil {
		return
	}
	in := "I:?"
	if frame != nil {
		in = l.formatter.FormatIncoming(frame)
	}
	l.monitor.ShowDetail(in, l.formatter.FormatOutgoing(resp))
}
