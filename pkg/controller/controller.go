// Package controller runs the device: one loop that samples the joystick
// and buttons, maps them to mouse reports, drives the system mode and keeps
// the status screen current.
//
// Nothing in a tick blocks. Waits such as the click pulse, the feedback tone
// and button settling are state checked against the clock on each tick, so
// serial servicing and USB traffic keep flowing while they run.
package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/tuffrabit/tinygo-hiperperiferico/internal/log"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/display"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/input"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/motion"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/mouse"
)

// Sampler takes one snapshot of the inputs. *input.Sampler satisfies it.
type Sampler interface {
	Sample() input.Sample
}

// Emitter delivers mouse reports. *mouse.Emitter satisfies it.
type Emitter interface {
	Send(r mouse.Report) bool
	Mounted() bool
	Counts() (sent, dropped uint32)
}

// Screen shows status text. *display.Manager satisfies it.
type Screen interface {
	ShowStatus(text string) error
	ShowBanner(text string) error
}

// Monitor shows debug lines. *display.Manager satisfies it.
type Monitor interface {
	ShowDetail(in, out string) error
}

// Tone plays the feedback sound. *tone.Generator satisfies it.
type Tone interface {
	Start(now time.Time, d time.Duration)
	Tick(now time.Time) bool
	Stop()
}

// Poller is serviced once per tick.
type Poller interface {
	Poll()
}

// Deps are the controller's collaborators. Only Sampler and Emitter are
// required.
type Deps struct {
	Sampler     Sampler
	Emitter     Emitter
	Screen      Screen
	Monitor     Monitor
	Tone        Tone
	Microphone  input.ADC
	Passthrough io.Writer
	Pollers     []Poller
	Logger      *slog.Logger

	// OnApply is called after ApplyConfig switched settings.
	OnApply func(Settings)
}

// Controller owns the system mode and the report state.
type Controller struct {
	deps     Deps
	settings Settings
	logger   *slog.Logger

	mode    Mode
	joy     input.Button
	a       input.Button
	b       input.Button
	pulse   *motion.Pulse
	buttons uint8 // mask of the last report the endpoint accepted

	speakingUntil time.Time
	overlay       string // replaces the mode text while B is held
	banner        string
	screenFailed  bool
	formatter     *display.FrameFormatter
	sleep         func(time.Duration)
}

// New creates a controller in ModeInit.
func New(deps Deps, settings Settings) *Controller {
	c := &Controller{
		deps:      deps,
		logger:    log.OrDiscard(deps.Logger),
		mode:      ModeInit,
		joy:       input.Button{ID: input.ButtonJoystick},
		a:         input.Button{ID: input.ButtonA},
		b:         input.Button{ID: input.ButtonB},
		pulse:     motion.NewPulse(),
		formatter: display.NewFrameFormatter(),
		sleep:     time.Sleep,
	}
	c.apply(settings)
	return c
}

func (c *Controller) apply(s Settings) {
	c.settings = s
	c.a.Settle = s.SettleA
	c.b.Settle = s.SettleB
}

// Start shows the boot status. displayErr is the screen bring-up result;
// a failure is logged and the loop runs without a screen.
func (c *Controller) Start(displayErr error) {
	if displayErr != nil {
		c.logger.Error("display init failed, continuing without it", "error", displayErr)
	}
	c.logger.Info("controller started",
		"microphone", c.settings.Features.Microphone,
		"passthrough", c.settings.Features.Passthrough,
		"buzzer", c.settings.Features.Buzzer)
	c.render()
}

// Run ticks until ctx is done, sleeping the loop delay between ticks.
func (c *Controller) Run(ctx context.Context, clock func() time.Time) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		c.Tick(clock())
		c.sleep(c.settings.LoopDelay)
	}
}

// Tick runs one iteration of the control loop.
func (c *Controller) Tick(now time.Time) {
	for _, p := range c.deps.Pollers {
		p.Poll()
	}

	s := c.deps.Sampler.Sample()
	joy := c.joy.Update(s.Joy, now)
	a := c.a.Update(s.A, now)
	b := c.b.Update(s.B, now)

	if !c.deps.Emitter.Mounted() {
		c.disconnect()
		c.render()
		return
	}
	if c.mode == ModeInit || c.mode == ModeDisconnected {
		c.setMode(ModeReady)
	}

	if joy.Kind == input.EventRelease {
		click := motion.Classify(joy.Duration, c.settings.LongPress)
		c.pulse.Start(click.Buttons(), now)
		c.logger.Debug("click", "kind", click, "duration", joy.Duration)
	}

	dx, dy := motion.Delta2(c.settings.X, c.settings.Y, s)

	c.updateSpeaking(now)
	if a.Kind == input.EventPress {
		c.pressA(now)
	}
	switch b.Kind {
	case input.EventPress:
		c.pressB()
	case input.EventRelease:
		c.releaseB()
	}

	if c.mode.idle() {
		if dx != 0 || dy != 0 {
			c.setMode(ModeInUse)
		} else {
			c.setMode(ModeReady)
		}
	}

	c.send(mouse.Report{Buttons: c.pulse.Buttons(now), DX: dx, DY: dy})
	c.render()
}

// send transmits r when it moves or changes the button mask. An idle
// joystick sends nothing. The mask is only recorded once the endpoint took
// the report, so a change that met a busy endpoint is retried next tick.
func (c *Controller) send(r mouse.Report) {
	if !r.Moving() && r.Buttons == c.buttons {
		return
	}
	if !c.deps.Emitter.Send(r) {
		return
	}
	c.buttons = r.Buttons
	c.showReport(r)
}

// showReport mirrors an accepted report on the detail rows in debug mode.
func (c *Controller) showReport(r mouse.Report) {
	if !c.settings.DebugDisplay || c.deps.Monitor == nil {
		return
	}
	sent, dropped := c.deps.Emitter.Counts()
	out := fmt.Sprintf("N:%d D:%d", sent, dropped)
	if err := c.deps.Monitor.ShowDetail(c.formatter.FormatReport(r), out); err != nil {
		c.logger.Debug("report not mirrored", "error", err)
	}
}

func (c *Controller) disconnect() {
	if c.mode == ModeDisconnected {
		return
	}
	if c.deps.Tone != nil {
		c.deps.Tone.Stop()
	}
	c.pulse.Start(0, time.Time{})
	c.buttons = 0
	c.overlay = ""
	c.setMode(ModeDisconnected)
}

func (c *Controller) pressA(now time.Time) {
	if !c.mode.idle() {
		return
	}
	c.setMode(ModeSpeaking)
	if c.settings.Features.Buzzer && c.deps.Tone != nil {
		c.deps.Tone.Start(now, c.settings.ToneDuration)
		return
	}
	c.speakingUntil = now.Add(c.settings.ToneDuration)
}

func (c *Controller) updateSpeaking(now time.Time) {
	if c.mode != ModeSpeaking {
		return
	}
	if c.settings.Features.Buzzer && c.deps.Tone != nil {
		if !c.deps.Tone.Tick(now) {
			c.setMode(ModeReady)
		}
		return
	}
	if !now.Before(c.speakingUntil) {
		c.setMode(ModeReady)
	}
}

func (c *Controller) pressB() {
	if !c.mode.idle() {
		return
	}
	switch {
	case c.settings.Features.Microphone && c.deps.Microphone != nil:
		level := input.ReadAxis(c.deps.Microphone)
		c.logger.Debug("microphone", "level", level)
		if level > ListenThreshold {
			c.setMode(ModeListening)
		} else {
			c.overlay = TextListenPrompt
		}
	case c.settings.Features.Passthrough && c.deps.Passthrough != nil:
		if _, err := io.WriteString(c.deps.Passthrough, Beacon+"\n"); err != nil {
			c.logger.Warn("beacon not sent", "error", err)
			return
		}
		c.overlay = TextBeaconSent
	}
}

func (c *Controller) releaseB() {
	c.overlay = ""
	if c.mode == ModeListening {
		c.setMode(ModeReady)
	}
}

func (c *Controller) setMode(m Mode) {
	if m == c.mode {
		return
	}
	c.logger.Info("mode change", "from", c.mode, "to", m)
	c.mode = m
	c.banner = ""
}

func (c *Controller) render() {
	if c.deps.Screen == nil {
		return
	}
	text := c.mode.Text()
	if c.overlay != "" && c.mode.idle() {
		text = c.overlay
	}
	err := c.deps.Screen.ShowStatus(text)
	if err == nil {
		err = c.deps.Screen.ShowBanner(c.banner)
	}
	if err != nil {
		if !c.screenFailed {
			c.logger.Warn("display update failed", "error", err)
		}
		c.screenFailed = true
		return
	}
	c.screenFailed = false
}

// Mode returns the current system mode.
func (c *Controller) Mode() Mode {
	return c.mode
}

// Settings returns the active settings.
func (c *Controller) Settings() Settings {
	return c.settings
}

// PushText shows text under the status row until the next mode change.
func (c *Controller) PushText(text string) {
	c.banner = text
	c.render()
}

// ApplyConfig switches to the settings in cfg. A running tone is cut short.
func (c *Controller) ApplyConfig(cfg *config.DeviceConfig) {
	if c.mode == ModeSpeaking {
		if c.deps.Tone != nil {
			c.deps.Tone.Stop()
		}
		c.setMode(ModeReady)
	}
	c.apply(SettingsFromConfig(cfg))
	c.logger.Info("config applied", "deadzone", cfg.DeadZone, "divisor", cfg.Divisor, "flags", cfg.Flags)
	if c.deps.OnApply != nil {
		c.deps.OnApply(c.settings)
	}
}

// Status returns the mode and the report counters.
func (c *Controller) Status() (mode uint8, sent, dropped uint32) {
	sent, dropped = c.deps.Emitter.Counts()
	return uint8(c.mode), sent, dropped
}
