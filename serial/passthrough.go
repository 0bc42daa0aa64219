package serial

import (
	"log/slog"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/log"
)

// LineSize is the longest line Passthrough assembles. When a line outgrows
// it the buffered bytes are dropped and assembly restarts with the next byte.
const LineSize = 128

// Passthrough relays newline-terminated text between the UART (a Bluetooth
// module on the breadboard build) and the device.
type Passthrough struct {
	port   Port
	sink   func(string)
	logger *slog.Logger

	inIndex  int
	inBuffer [LineSize]byte
}

// NewPassthrough creates a passthrough on port. Each received line is passed
// to sink.
func NewPassthrough(port Port, sink func(string), logger *slog.Logger) *Passthrough {
	return &Passthrough{
		port:   port,
		sink:   sink,
		logger: log.OrDiscard(logger),
	}
}

// Poll reads what the port has buffered and delivers complete lines.
func (p *Passthrough) Poll() {
	for n := 0; n < MaxPollBytes && p.port.Buffered() > 0; n++ {
		b, err := p.port.ReadByte()
		if err != nil {
			return
		}

		if b == '\n' || b == '\r' {
			p.flush()
			continue
		}

		if p.inIndex == LineSize {
			p.logger.Debug("passthrough line too long, dropped")
			p.inIndex = 0
		}

		p.inBuffer[p.inIndex] = b
		p.inIndex++
	}
}

func (p *Passthrough) flush() {
	if p.inIndex == 0 {
		return
	}
	line := string(p.inBuffer[:p.inIndex])
	p.inIndex = 0
	p.logger.Debug("passthrough line", "text", line)
	if p.sink != nil {
		p.sink(line)
	}
}

// Write sends p to the remote side.
func (p *Passthrough) Write(b []byte) (int, error) {
	return p.port.Write(b)
}
