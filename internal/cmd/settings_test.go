package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
)

func TestSettingsRoundTrip(t *testing.T) {
	cfg := config.Default()
	cfg.Layout = config.LayoutBreadboard
	cfg.Flags = config.FlagPassthrough | config.FlagInvertY | config.FlagDebugLog
	cfg.DeadZone = 64
	cfg.Contrast = 0x40

	for _, format := range []string{"json", "yaml", "toml"} {
		t.Run(format, func(t *testing.T) {
			data, err := MarshalSettings(SettingsFrom(&cfg), format)
			require.NoError(t, err)

			s, err := UnmarshalSettings(data, format)
			require.NoError(t, err)
			got, err := s.Device()
			require.NoError(t, err)

			assert.Equal(t, cfg, got)
		})
	}
}

func TestUnmarshalKeepsDefaults(t *testing.T) {
	s, err := UnmarshalSettings([]byte("invertX: true\n"), "yml")
	require.NoError(t, err)

	cfg, err := s.Device()
	require.NoError(t, err)

	assert.True(t, cfg.Has(config.FlagInvertX))
	assert.True(t, cfg.Has(config.FlagMicrophone))
	assert.Equal(t, uint16(1000), cfg.LongPressMs)
}

func TestDeviceRejectsUnknownLayout(t *testing.T) {
	s := Settings{Layout: "protoboard", Divisor: 1, LoopDelayMs: 1, LongPressMs: 1}

	_, err := s.Device()

	assert.ErrorIs(t, err, config.ErrInvalidValue)
}

func TestUnsupportedFormat(t *testing.T) {
	_, err := MarshalSettings(Settings{}, "ini")
	assert.Error(t, err)

	_, err = UnmarshalSettings(nil, "ini")
	assert.Error(t, err)
}
