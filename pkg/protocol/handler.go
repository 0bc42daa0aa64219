package protocol

import (
	"encoding/binary"
	"errors"
	"log/slog"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/log"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/storage"
)

// Firmware version reported by CmdGetVersion.
const (
	FirmwareMajor = 0
	FirmwareMinor = 2
)

// MaxText is the longest ShowText payload.
const MaxText = 64

// StatusSize is the length of a GetStatus payload.
const StatusSize = 9

// Runtime is the running device as seen by the protocol.
type Runtime interface {
	// Status returns the system mode and the report counters.
	Status() (mode uint8, sent, dropped uint32)
	// PushText shows text until the next mode change.
	PushText(text string)
	// ApplyConfig switches the running device to cfg.
	ApplyConfig(cfg *config.DeviceConfig)
}

// Handler processes protocol commands.
type Handler struct {
	storage *storage.Manager
	runtime Runtime
	logger  *slog.Logger
}

// NewHandler creates a new protocol handler. Either collaborator may be nil;
// commands that need it then fail with StatusError.
func NewHandler(sm *storage.Manager, rt Runtime, logger *slog.Logger) *Handler {
	return &Handler{
		storage: sm,
		runtime: rt,
		logger:  log.OrDiscard(logger),
	}
}

// Handle processes a command frame and returns a response.
func (h *Handler) Handle(frame *Frame) *Response {
	h.logger.Debug("protocol command", "cmd", frame.Cmd, "len", len(frame.Payload))

	switch frame.Cmd {
	case CmdPing:
		return h.handlePing(frame.Payload)
	case CmdGetDeviceConfig:
		return h.handleGetDeviceConfig()
	case CmdSetDeviceConfig:
		return h.handleSetDeviceConfig(frame.Payload)
	case CmdGetStatus:
		return h.handleGetStatus()
	case CmdShowText:
		return h.handleShowText(frame.Payload)
	case CmdGetStorageStats:
		return h.handleGetStorageStats()
	case CmdFactoryReset:
		return h.handleFactoryReset()
	case CmdGetVersion:
		return h.handleGetVersion()
	default:
		return &Response{Status: StatusInvalidCmd}
	}
}

// handlePing responds with the same payload (echo).
func (h *Handler) handlePing(payload []byte) *Response {
	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleGetDeviceConfig returns the stored device configuration.
func (h *Handler) handleGetDeviceConfig() *Response {
	if h.storage == nil {
		return &Response{Status: StatusError}
	}

	var cfg config.DeviceConfig
	if err := h.storage.LoadDevice(&cfg); err != nil {
		if errors.Is(err, storage.ErrConfigNotFound) {
			return &Response{Status: StatusNotFound}
		}
		return &Response{Status: StatusError}
	}

	data, err := cfg.MarshalBinary()
	if err != nil {
		return &Response{Status: StatusError}
	}

	return &Response{
		Status:  StatusOK,
		Payload: data,
	}
}

// handleSetDeviceConfig validates, stores and applies a configuration.
// Payload: [DeviceConfig:20 bytes]
func (h *Handler) handleSetDeviceConfig(payload []byte) *Response {
	if len(payload) != config.Size {
		return &Response{Status: StatusInvalidData}
	}

	var cfg config.DeviceConfig
	if err := cfg.UnmarshalBinary(payload); err != nil {
		return &Response{Status: StatusInvalidData}
	}

	if cfg.Version != config.CurrentVersion {
		return &Response{Status: StatusVersionMismatch}
	}
	if err := cfg.Validate(); err != nil {
		h.logger.Debug("rejected config", "error", err)
		return &Response{Status: StatusInvalidData}
	}

	if h.storage == nil {
		return &Response{Status: StatusError}
	}
	if err := h.storage.SaveDevice(&cfg); err != nil {
		h.logger.Warn("saving config failed", "error", err)
		if errors.Is(err, storage.ErrFlashFull) {
			return &Response{Status: StatusNoSpace}
		}
		return &Response{Status: StatusError}
	}

	if h.runtime != nil {
		h.runtime.ApplyConfig(&cfg)
	}
	return &Response{Status: StatusOK}
}

// handleGetStatus reports the running state.
// Response: [Mode:1][Sent:4][Dropped:4]
func (h *Handler) handleGetStatus() *Response {
	if h.runtime == nil {
		return &Response{Status: StatusError}
	}

	mode, sent, dropped := h.runtime.Status()
	payload := make([]byte, StatusSize)
	payload[0] = mode
	binary.LittleEndian.PutUint32(payload[1:], sent)
	binary.LittleEndian.PutUint32(payload[5:], dropped)

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleShowText puts text on the display. An empty payload clears it.
// Payload: [Text:0-64 bytes]
func (h *Handler) handleShowText(payload []byte) *Response {
	if len(payload) > MaxText {
		return &Response{Status: StatusInvalidData}
	}
	if h.runtime == nil {
		return &Response{Status: StatusError}
	}

	h.runtime.PushText(string(payload))
	return &Response{Status: StatusOK}
}

// Storage stats flag bits
const (
	StatsHasConfig = 1 << 0
	StatsWiped     = 1 << 1
)

// handleGetStorageStats returns storage statistics.
// Response: [Total:4][Used:4][Free:4][Flags:1]
func (h *Handler) handleGetStorageStats() *Response {
	if h.storage == nil {
		return &Response{Status: StatusError}
	}

	stats, err := h.storage.GetStats()
	if err != nil {
		return &Response{Status: StatusError}
	}

	payload := make([]byte, 13)
	binary.LittleEndian.PutUint32(payload[0:], uint32(stats.TotalSpace))
	binary.LittleEndian.PutUint32(payload[4:], uint32(stats.UsedSpace))
	binary.LittleEndian.PutUint32(payload[8:], uint32(stats.FreeSpace))
	if stats.HasConfig {
		payload[12] |= StatsHasConfig
	}
	if stats.Wiped {
		payload[12] |= StatsWiped
	}

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// handleFactoryReset wipes the stored configuration and returns the running
// device to the factory settings.
func (h *Handler) handleFactoryReset() *Response {
	if h.storage == nil {
		return &Response{Status: StatusError}
	}
	if err := h.storage.ForceWipe(); err != nil {
		return &Response{Status: StatusError}
	}
	if h.runtime != nil {
		cfg := config.Default()
		h.runtime.ApplyConfig(&cfg)
	}
	return &Response{Status: StatusOK}
}

// handleGetVersion returns firmware and config version info.
// Response: [FirmwareVersionMajor:1][FirmwareVersionMinor:1][ConfigVersion:2]
func (h *Handler) handleGetVersion() *Response {
	payload := make([]byte, 4)
	payload[0] = FirmwareMajor
	payload[1] = FirmwareMinor
	binary.LittleEndian.PutUint16(payload[2:], config.CurrentVersion)

	return &Response{
		Status:  StatusOK,
		Payload: payload,
	}
}

// StatusName returns a short name for a response status.
func StatusName(status uint8) string {
	switch status {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusInvalidCmd:
		return "INVALID_CMD"
	case StatusInvalidData:
		return "INVALID_DATA"
	case StatusNotFound:
		return "NOT_FOUND"
	case StatusNoSpace:
		return "NO_SPACE"
	case StatusVersionMismatch:
		return "VERSION_MISMATCH"
	case StatusCRCError:
		return "CRC_ERROR"
	default:
		return "UNKNOWN"
	}
}
