package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml"
	yaml "gopkg.in/yaml.v3"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
)

// Settings is the editable form of the device config, as written to and
// read from settings files.
type Settings struct {
	Layout string `json:"layout" yaml:"layout" toml:"layout"`

	Microphone   bool `json:"microphone" yaml:"microphone" toml:"microphone"`
	Passthrough  bool `json:"passthrough" yaml:"passthrough" toml:"passthrough"`
	Buzzer       bool `json:"buzzer" yaml:"buzzer" toml:"buzzer"`
	InvertX      bool `json:"invertX" yaml:"invertX" toml:"invertX"`
	InvertY      bool `json:"invertY" yaml:"invertY" toml:"invertY"`
	DebugDisplay bool `json:"debugDisplay" yaml:"debugDisplay" toml:"debugDisplay"`
	DebugLog     bool `json:"debugLog" yaml:"debugLog" toml:"debugLog"`

	LoopDelayMs uint8  `json:"loopDelayMs" yaml:"loopDelayMs" toml:"loopDelayMs"`
	DeadZone    uint16 `json:"deadZone" yaml:"deadZone" toml:"deadZone"`
	Divisor     uint16 `json:"divisor" yaml:"divisor" toml:"divisor"`
	LongPressMs uint16 `json:"longPressMs" yaml:"longPressMs" toml:"longPressMs"`
	ToneMs      uint16 `json:"toneMs" yaml:"toneMs" toml:"toneMs"`
	SettleAMs   uint8  `json:"settleAMs" yaml:"settleAMs" toml:"settleAMs"`
	SettleBMs   uint8  `json:"settleBMs" yaml:"settleBMs" toml:"settleBMs"`
	Contrast    uint8  `json:"contrast" yaml:"contrast" toml:"contrast"`
}

var flagFields = []struct {
	flag uint32
	get  func(*Settings) *bool
}{
	{config.FlagMicrophone, func(s *Settings) *bool { return &s.Microphone }},
	{config.FlagPassthrough, func(s *Settings) *bool { return &s.Passthrough }},
	{config.FlagBuzzer, func(s *Settings) *bool { return &s.Buzzer }},
	{config.FlagInvertX, func(s *Settings) *bool { return &s.InvertX }},
	{config.FlagInvertY, func(s *Settings) *bool { return &s.InvertY }},
	{config.FlagDebugDisplay, func(s *Settings) *bool { return &s.DebugDisplay }},
	{config.FlagDebugLog, func(s *Settings) *bool { return &s.DebugLog }},
}

// SettingsFrom converts a device config.
func SettingsFrom(cfg *config.DeviceConfig) Settings {
	s := Settings{
		Layout:      cfg.Layout.String(),
		LoopDelayMs: cfg.LoopDelayMs,
		DeadZone:    cfg.DeadZone,
		Divisor:     cfg.Divisor,
		LongPressMs: cfg.LongPressMs,
		ToneMs:      cfg.ToneMs,
		SettleAMs:   cfg.SettleAMs,
		SettleBMs:   cfg.SettleBMs,
		Contrast:    cfg.Contrast,
	}
	for _, f := range flagFields {
		*f.get(&s) = cfg.Has(f.flag)
	}
	return s
}

// Device converts s back to a validated device config.
func (s *Settings) Device() (config.DeviceConfig, error) {
	cfg := config.Default()
	layout, err := config.ParseLayout(s.Layout)
	if err != nil {
		return cfg, err
	}
	cfg.Layout = layout
	cfg.Flags = 0
	for _, f := range flagFields {
		cfg.Set(f.flag, *f.get(s))
	}
	cfg.LoopDelayMs = s.LoopDelayMs
	cfg.DeadZone = s.DeadZone
	cfg.Divisor = s.Divisor
	cfg.LongPressMs = s.LongPressMs
	cfg.ToneMs = s.ToneMs
	cfg.SettleAMs = s.SettleAMs
	cfg.SettleBMs = s.SettleBMs
	cfg.Contrast = s.Contrast
	return cfg, cfg.Validate()
}

// MarshalSettings encodes s as json, yaml or toml.
func MarshalSettings(s Settings, format string) ([]byte, error) {
	switch normalizeFormat(format) {
	case "json":
		data, err := json.MarshalIndent(s, "", "  ")
		return append(data, '\n'), err
	case "yaml":
		return yaml.Marshal(s)
	case "toml":
		return toml.Marshal(s)
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// UnmarshalSettings decodes data over the factory defaults, so keys missing
// from the file keep their default value.
func UnmarshalSettings(data []byte, format string) (Settings, error) {
	def := config.Default()
	s := SettingsFrom(&def)

	var err error
	switch normalizeFormat(format) {
	case "json":
		err = json.Unmarshal(data, &s)
	case "yaml":
		err = yaml.Unmarshal(data, &s)
	case "toml":
		err = toml.Unmarshal(data, &s)
	default:
		err = fmt.Errorf("unsupported format: %s", format)
	}
	return s, err
}

func normalizeFormat(f string) string {
	switch strings.ToLower(f) {
	case "json":
		return "json"
	case "yaml", "yml":
		return "yaml"
	case "toml":
		return "toml"
	default:
		return ""
	}
}
