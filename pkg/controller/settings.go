package controller

import (
	"time"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/motion"
)

// ListenThreshold is the microphone level above which B starts listening.
const ListenThreshold = 2048

// Features are the optional peripherals fitted to the board.
type Features struct {
	Microphone  bool
	Passthrough bool
	Buzzer      bool
}

// Settings tune the control loop.
type Settings struct {
	X, Y         motion.Axis
	LongPress    time.Duration
	ToneDuration time.Duration
	LoopDelay    time.Duration

	SettleA time.Duration
	SettleB time.Duration

	Features     Features
	DebugDisplay bool
}

// DefaultSettings returns the settings of a factory-fresh device.
func DefaultSettings() Settings {
	cfg := config.Default()
	return SettingsFromConfig(&cfg)
}

// SettingsFromConfig derives loop settings from a stored configuration.
func SettingsFromConfig(cfg *config.DeviceConfig) Settings {
	axis := func(invert bool) motion.Axis {
		return motion.Axis{
			Center:   motion.DefaultCenter,
			DeadZone: int(cfg.DeadZone),
			Divisor:  int(cfg.Divisor),
			Invert:   invert,
		}
	}

	return Settings{
		X:            axis(cfg.Has(config.FlagInvertX)),
		Y:            axis(cfg.Has(config.FlagInvertY)),
		LongPress:    time.Duration(cfg.LongPressMs) * time.Millisecond,
		ToneDuration: time.Duration(cfg.ToneMs) * time.Millisecond,
		LoopDelay:    time.Duration(cfg.LoopDelayMs) * time.Millisecond,
		SettleA:      time.Duration(cfg.SettleAMs) * time.Millisecond,
		SettleB:      time.Duration(cfg.SettleBMs) * time.Millisecond,
		Features: Features{
			Microphone:  cfg.Has(config.FlagMicrophone),
			Passthrough: cfg.Has(config.FlagPassthrough),
			Buzzer:      cfg.Has(config.FlagBuzzer),
		},
		DebugDisplay: cfg.Has(config.FlagDebugDisplay),
	}
}
