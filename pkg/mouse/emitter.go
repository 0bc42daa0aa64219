package mouse

import (
	"log/slog"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/log"
)

// Transport carries encoded reports to the host.
type Transport interface {
	// Mounted reports whether the host has configured the device.
	Mounted() bool
	// Ready reports whether a report can be accepted right now.
	Ready() bool
	// SendReport transmits one encoded report.
	SendReport(report []byte)
}

// Emitter gates reports on transport readiness. Reports that cannot be sent
// are dropped: there is no queue and no retry, so motion and clicks made
// while the link is down are lost.
type Emitter struct {
	transport Transport
	logger    *slog.Logger
	buf       [ReportSize]byte
	sent      uint32
	dropped   uint32
}

// NewEmitter creates an emitter on the given transport.
func NewEmitter(t Transport, logger *slog.Logger) *Emitter {
	return &Emitter{
		transport: t,
		logger:    log.OrDiscard(logger),
	}
}

// Send transmits r if the host is mounted and ready. It reports whether the
// report went out.
func (e *Emitter) Send(r Report) bool {
	if e.transport == nil || !e.transport.Mounted() || !e.transport.Ready() {
		e.dropped++
		e.logger.Debug("mouse report dropped", "buttons", r.Buttons, "dx", r.DX, "dy", r.DY)
		return false
	}
	r.Encode(e.buf[:])
	e.transport.SendReport(e.buf[:])
	e.sent++
	return true
}

// Mounted reports whether the host has configured the device.
func (e *Emitter) Mounted() bool {
	return e.transport != nil && e.transport.Mounted()
}

// Counts returns how many reports were sent and dropped since boot.
func (e *Emitter) Counts() (sent, dropped uint32) {
	return e.sent, e.dropped
}
