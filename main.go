//go:build tinygo

package main

import (
	"context"
	"machine"
	"time"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/log"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/board"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/controller"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/display"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/mouse"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/protocol"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/storage"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/tone"
	"github.com/tuffrabit/tinygo-hiperperiferico/serial"
)

// pollFunc lets main hand the controller services that are built after it.
type pollFunc func()

func (f pollFunc) Poll() { f() }

func main() {
	// Storage comes first since the stored config picks the logger and the
	// pin layout.
	store, storeErr := storage.New(machine.Flash, true, nil)
	cfg := config.Default()
	if storeErr == nil {
		cfg = store.LoadOrDefault()
	}

	logger := log.NewDevice(machine.Serial, cfg.Has(config.FlagDebugLog))
	if storeErr != nil {
		logger.Error("storage unavailable, using defaults", "error", storeErr)
	}
	logger.Info("booting", "layout", cfg.Layout, "flags", cfg.Flags)

	hw, boardErr := board.Setup(board.PinsFor(cfg.Layout))
	if boardErr != nil {
		logger.Warn("board setup incomplete", "error", boardErr)
	}

	screen, displayErr := hw.NewScreen(cfg.Contrast)
	mgr := display.NewManager(screen)
	// The detail rows fit one message; a storage failure wins.
	bootErr := storeErr
	if bootErr == nil {
		bootErr = boardErr
	}
	if bootErr != nil {
		if err := mgr.ShowError(display.NewFrameFormatter().FormatError(bootErr)); err != nil {
			logger.Warn("boot error not shown", "error", err)
		}
	}

	seed := time.Now().UnixNano()
	if r, err := machine.GetRNG(); err == nil {
		seed = int64(r)
	}

	settings := controller.SettingsFromConfig(&cfg)

	var (
		ctrl        *controller.Controller
		link        *serial.Link
		passthrough *serial.Passthrough
	)
	deps := controller.Deps{
		Sampler:    hw.Sampler,
		Emitter:    mouse.NewEmitter(mouse.Port(), logger),
		Screen:     mgr,
		Monitor:    mgr,
		Tone:       tone.New(hw.Buzzer, seed),
		Microphone: hw.Mic,
		Pollers:    []controller.Poller{pollFunc(func() { link.Poll() })},
		Logger:     logger,
		OnApply: func(s controller.Settings) {
			if s.DebugDisplay {
				link.SetMonitor(mgr)
			} else {
				link.SetMonitor(nil)
			}
		},
	}
	if hw.UART != nil && settings.Features.Passthrough {
		passthrough = serial.NewPassthrough(hw.UART, func(text string) { ctrl.PushText(text) }, logger)
		deps.Passthrough = passthrough
		deps.Pollers = append(deps.Pollers, passthrough)
	}

	ctrl = controller.New(deps, settings)
	link = serial.NewLink(machine.Serial, protocol.NewHandler(store, ctrl, logger), logger)
	deps.OnApply(settings)

	ctrl.Start(displayErr)
	ctrl.Run(context.Background(), time.Now)
}
