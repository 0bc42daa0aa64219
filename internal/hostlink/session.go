// Package hostlink is the host side of the serial configuration protocol.
package hostlink

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/log"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/controller"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/protocol"
)

var (
	ErrEchoMismatch = errors.New("ping echo does not match")
	ErrShortReply   = errors.New("reply payload too short")
	ErrTextTooLong  = fmt.Errorf("text longer than %d bytes", protocol.MaxText)
)

// StatusError is a reply with a status other than OK.
type StatusError struct {
	Cmd    uint8
	Status uint8
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("device answered %s to command 0x%02X", protocol.StatusName(e.Status), e.Cmd)
}

// IsStatus reports whether err is a StatusError carrying status.
func IsStatus(err error, status uint8) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

// Version is the GetVersion reply.
type Version struct {
	Major, Minor uint8
	Config       uint16
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d (config v%d)", v.Major, v.Minor, v.Config)
}

// Status is the GetStatus reply.
type Status struct {
	Mode    controller.Mode
	Sent    uint32
	Dropped uint32
}

// Stats is the GetStorageStats reply.
type Stats struct {
	Total, Used, Free uint32
	HasConfig         bool
	Wiped             bool
}

// Session sends one command at a time and waits for its reply.
type Session struct {
	rw     io.ReadWriter
	logger *slog.Logger
}

// NewSession talks to the device on rw.
func NewSession(rw io.ReadWriter, logger *slog.Logger) *Session {
	return &Session{rw: rw, logger: log.OrDiscard(logger)}
}

// Call sends cmd and returns the reply payload. A reply status other than
// OK is returned as a *StatusError.
func (s *Session) Call(cmd uint8, payload []byte) ([]byte, error) {
	s.logger.Log(context.Background(), log.LevelTrace, "send", "cmd", cmd, "len", len(payload))
	if err := protocol.WriteFrame(s.rw, &protocol.Frame{Cmd: cmd, Payload: payload}); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	resp, err := protocol.ReadResponse(s.rw)
	if err != nil {
		return nil, fmt.Errorf("read reply: %w", err)
	}
	s.logger.Debug("reply", "cmd", cmd, "status", protocol.StatusName(resp.Status), "len", len(resp.Payload))
	if resp.Status != protocol.StatusOK {
		return nil, &StatusError{Cmd: cmd, Status: resp.Status}
	}
	return resp.Payload, nil
}

// Ping checks that data comes back unchanged.
func (s *Session) Ping(data []byte) error {
	echo, err := s.Call(protocol.CmdPing, data)
	if err != nil {
		return err
	}
	if !bytes.Equal(echo, data) {
		return ErrEchoMismatch
	}
	return nil
}

// Version asks for the firmware version.
func (s *Session) Version() (Version, error) {
	p, err := s.Call(protocol.CmdGetVersion, nil)
	if err != nil {
		return Version{}, err
	}
	if len(p) < 4 {
		return Version{}, ErrShortReply
	}
	return Version{Major: p[0], Minor: p[1], Config: binary.LittleEndian.Uint16(p[2:])}, nil
}

// Status asks for the running mode and report counters.
func (s *Session) Status() (Status, error) {
	p, err := s.Call(protocol.CmdGetStatus, nil)
	if err != nil {
		return Status{}, err
	}
	if len(p) < protocol.StatusSize {
		return Status{}, ErrShortReply
	}
	return Status{
		Mode:    controller.Mode(p[0]),
		Sent:    binary.LittleEndian.Uint32(p[1:]),
		Dropped: binary.LittleEndian.Uint32(p[5:]),
	}, nil
}

// Stats asks for flash usage.
func (s *Session) Stats() (Stats, error) {
	p, err := s.Call(protocol.CmdGetStorageStats, nil)
	if err != nil {
		return Stats{}, err
	}
	if len(p) < 13 {
		return Stats{}, ErrShortReply
	}
	return Stats{
		Total:     binary.LittleEndian.Uint32(p[0:]),
		Used:      binary.LittleEndian.Uint32(p[4:]),
		Free:      binary.LittleEndian.Uint32(p[8:]),
		HasConfig: p[12]&protocol.StatsHasConfig != 0,
		Wiped:     p[12]&protocol.StatsWiped != 0,
	}, nil
}

// ShowText puts text under the status row. Empty text clears it.
func (s *Session) ShowText(text string) error {
	if len(text) > protocol.MaxText {
		return ErrTextTooLong
	}
	_, err := s.Call(protocol.CmdShowText, []byte(text))
	return err
}

// FactoryReset wipes the stored config; the device falls back to defaults.
func (s *Session) FactoryReset() error {
	_, err := s.Call(protocol.CmdFactoryReset, nil)
	return err
}

// Config reads the stored config. A device that never stored one answers
// with StatusNotFound.
func (s *Session) Config() (config.DeviceConfig, error) {
	var cfg config.DeviceConfig
	p, err := s.Call(protocol.CmdGetDeviceConfig, nil)
	if err != nil {
		return cfg, err
	}
	if err := cfg.UnmarshalBinary(p); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// SetConfig stores cfg and applies it on the device.
func (s *Session) SetConfig(cfg *config.DeviceConfig) error {
	data, err := cfg.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = s.Call(protocol.CmdSetDeviceConfig, data)
	return err
}
