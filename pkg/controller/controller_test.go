package controller

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/config"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/input"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/motion"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/mouse"
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/tone"
)

type fakeSampler struct {
	s input.Sample
}

func (f *fakeSampler) Sample() input.Sample { return f.s }

type fakeEmitter struct {
	mounted bool
	busy    bool
	reports []mouse.Report
}

func (f *fakeEmitter) Send(r mouse.Report) bool {
	if !f.mounted || f.busy {
		return false
	}
	f.reports = append(f.reports, r)
	return true
}
func (f *fakeEmitter) Mounted() bool                  { return f.mounted }
func (f *fakeEmitter) Counts() (sent, dropped uint32) { return uint32(len(f.reports)), 3 }

type fakeScreen struct {
	status string
	banner string
	err    error
}

func (f *fakeScreen) ShowStatus(text string) error {
	f.status = text
	return f.err
}

func (f *fakeScreen) ShowBanner(text string) error {
	f.banner = text
	return f.err
}

type fakeMonitor struct {
	in, out string
	n       int
}

func (f *fakeMonitor) ShowDetail(in, out string) error {
	f.in, f.out = in, out
	f.n++
	return nil
}

type fakeTone struct {
	started  time.Duration
	active   bool
	stopped  int
	ticks    int
	startedN int
}

func (f *fakeTone) Start(now time.Time, d time.Duration) {
	f.started = d
	f.startedN++
	f.active = true
}

func (f *fakeTone) Tick(now time.Time) bool {
	f.ticks++
	return f.active
}

func (f *fakeTone) Stop() {
	f.stopped++
	f.active = false
}

type fakeADC struct {
	level uint16
}

func (f *fakeADC) Get() uint16 { return f.level << 4 }

type countingPoller struct {
	n int
}

func (p *countingPoller) Poll() { p.n++ }

type harness struct {
	t       *testing.T
	now     time.Time
	sampler *fakeSampler
	emitter *fakeEmitter
	screen  *fakeScreen
	monitor *fakeMonitor
	tone    *fakeTone
	mic     *fakeADC
	pass    *bytes.Buffer
	c       *Controller
}

func newHarness(t *testing.T, settings Settings) *harness {
	h := &harness{
		t:       t,
		now:     time.Unix(1000, 0),
		sampler: &fakeSampler{s: input.Sample{X: 2048, Y: 2048}},
		emitter: &fakeEmitter{mounted: true},
		screen:  &fakeScreen{},
		monitor: &fakeMonitor{},
		tone:    &fakeTone{},
		mic:     &fakeADC{},
		pass:    &bytes.Buffer{},
	}
	h.c = New(Deps{
		Sampler:     h.sampler,
		Emitter:     h.emitter,
		Screen:      h.screen,
		Monitor:     h.monitor,
		Tone:        h.tone,
		Microphone:  h.mic,
		Passthrough: h.pass,
	}, settings)
	h.c.Start(nil)
	return h
}

// tick advances the clock by d and runs one iteration.
func (h *harness) tick(d time.Duration) {
	h.now = h.now.Add(d)
	h.c.Tick(h.now)
}

// hold runs iterations every 10 ms for d.
func (h *harness) hold(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += 10 * time.Millisecond {
		h.tick(10 * time.Millisecond)
	}
}

func TestBootShowsInit(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	assert.Equal(t, ModeInit, h.c.Mode())
	assert.Equal(t, "Inicializando...", h.screen.status)

	h.tick(0)
	assert.Equal(t, ModeReady, h.c.Mode())
	assert.Equal(t, "Aguardando", h.screen.status)
}

func TestMotionRight(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.sampler.s.X = 2048 + 300

	h.tick(0)

	require.Len(t, h.emitter.reports, 1)
	assert.Equal(t, mouse.Report{DX: 2}, h.emitter.reports[0])
	assert.Equal(t, ModeInUse, h.c.Mode())
	assert.Equal(t, "Em uso", h.screen.status)
}

func TestRestSendsNothing(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	h.hold(100 * time.Millisecond)

	assert.Empty(t, h.emitter.reports)
	assert.Equal(t, ModeReady, h.c.Mode())
	assert.Equal(t, "Aguardando", h.screen.status)
}

func TestMotionThenRest(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.sampler.s.Y = 1748

	h.tick(0)
	h.sampler.s.Y = 2048
	h.tick(10 * time.Millisecond)

	assert.Equal(t, []mouse.Report{{DY: -2}}, h.emitter.reports)
	assert.Equal(t, "Aguardando", h.screen.status)
}

func TestUnmounted(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.emitter.mounted = false
	h.sampler.s.X = 4095
	h.sampler.s.Joy = true

	h.tick(0)
	h.sampler.s.Joy = false
	h.tick(100 * time.Millisecond)

	assert.Empty(t, h.emitter.reports)
	assert.Equal(t, ModeDisconnected, h.c.Mode())
	assert.Equal(t, "USB desconectado", h.screen.status)

	h.emitter.mounted = true
	h.sampler.s.X = 2048
	h.tick(10 * time.Millisecond)

	assert.Equal(t, ModeReady, h.c.Mode())
	assert.Empty(t, h.emitter.reports)
}

func TestShortClick(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	h.sampler.s.Joy = true
	h.tick(0)
	h.sampler.s.Joy = false
	h.tick(300 * time.Millisecond)

	require.Equal(t, []mouse.Report{{Buttons: mouse.ButtonLeft}}, h.emitter.reports)

	h.tick(30 * time.Millisecond)
	assert.Len(t, h.emitter.reports, 1)

	h.tick(20 * time.Millisecond)
	assert.Equal(t, []mouse.Report{{Buttons: mouse.ButtonLeft}, {}}, h.emitter.reports)
}

func TestClickReleaseRetriedWhenBusy(t *testing.T) {
	h := newHarness(t, DefaultSettings())

	h.sampler.s.Joy = true
	h.tick(0)
	h.sampler.s.Joy = false
	h.tick(300 * time.Millisecond)
	require.Equal(t, []mouse.Report{{Buttons: mouse.ButtonLeft}}, h.emitter.reports)

	// The endpoint is still busy when the pulse ends.
	h.emitter.busy = true
	h.tick(50 * time.Millisecond)
	require.Len(t, h.emitter.reports, 1)

	h.emitter.busy = false
	h.tick(10 * time.Millisecond)
	assert.Equal(t, []mouse.Report{{Buttons: mouse.ButtonLeft}, {}}, h.emitter.reports)

	h.tick(10 * time.Millisecond)
	assert.Len(t, h.emitter.reports, 2)
}

type hostTransport struct {
	ready   bool
	reports [][]byte
}

func (h *hostTransport) Mounted() bool { return true }
func (h *hostTransport) Ready() bool   { return h.ready }
func (h *hostTransport) SendReport(report []byte) {
	h.reports = append(h.reports, append([]byte(nil), report...))
}

func TestHostSeesButtonRelease(t *testing.T) {
	host := &hostTransport{ready: true}
	sampler := &fakeSampler{s: input.Sample{X: 2048, Y: 2048}}
	c := New(Deps{Sampler: sampler, Emitter: mouse.NewEmitter(host, nil)}, DefaultSettings())
	now := time.Unix(1000, 0)

	sampler.s.Joy = true
	c.Tick(now)
	sampler.s.Joy = false
	now = now.Add(300 * time.Millisecond)
	c.Tick(now)

	host.ready = false
	now = now.Add(60 * time.Millisecond)
	c.Tick(now)

	host.ready = true
	for i := 0; i < 100; i++ {
		now = now.Add(10 * time.Millisecond)
		c.Tick(now)
	}

	assert.Equal(t, [][]byte{{1, 0, 0, 0}, {0, 0, 0, 0}}, host.reports)
}

func TestPressRetriedWhenBusy(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.emitter.busy = true

	h.sampler.s.Joy = true
	h.tick(0)
	h.sampler.s.Joy = false
	h.tick(300 * time.Millisecond)
	require.Empty(t, h.emitter.reports)

	h.emitter.busy = false
	h.tick(10 * time.Millisecond)
	assert.Equal(t, []mouse.Report{{Buttons: mouse.ButtonLeft}}, h.emitter.reports)
}

func TestLongClickBoundary(t *testing.T) {
	cases := []struct {
		held time.Duration
		want uint8
	}{
		{999 * time.Millisecond, mouse.ButtonLeft},
		{1000 * time.Millisecond, mouse.ButtonRight},
		{1500 * time.Millisecond, mouse.ButtonRight},
	}

	for _, tc := range cases {
		t.Run(tc.held.String(), func(t *testing.T) {
			h := newHarness(t, DefaultSettings())

			h.sampler.s.Joy = true
			h.tick(0)
			h.sampler.s.Joy = false
			h.tick(tc.held)
			h.tick(motion.PulseHold)

			assert.Equal(t, []mouse.Report{{Buttons: tc.want}, {}}, h.emitter.reports)
		})
	}
}

func TestClickWhileSpeaking(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)
	pressA(h)
	h.sampler.s.A = false
	require.Equal(t, ModeSpeaking, h.c.Mode())

	h.sampler.s.Joy = true
	h.tick(10 * time.Millisecond)
	h.sampler.s.Joy = false
	h.tick(100 * time.Millisecond)

	assert.Equal(t, []mouse.Report{{Buttons: mouse.ButtonLeft}}, h.emitter.reports)
}

func pressA(h *harness) {
	h.sampler.s.A = true
	h.tick(0)
	h.tick(50 * time.Millisecond)
}

func TestButtonASpeaking(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)

	pressA(h)

	assert.Equal(t, ModeSpeaking, h.c.Mode())
	assert.Equal(t, "Transcrevendo tela", h.screen.status)
	assert.Equal(t, tone.DefaultDuration, h.tone.started)

	h.sampler.s.A = false
	h.hold(time.Second)
	assert.Equal(t, ModeSpeaking, h.c.Mode())

	h.tone.active = false
	h.tick(10 * time.Millisecond)
	assert.Equal(t, ModeReady, h.c.Mode())
	assert.Equal(t, "Aguardando", h.screen.status)
}

func TestButtonAWithRealTone(t *testing.T) {
	settings := DefaultSettings()
	settings.ToneDuration = 300 * time.Millisecond
	h := newHarness(t, settings)
	gen := tone.New(nil, 1)
	h.c.deps.Tone = gen
	h.tick(0)

	pressA(h)
	require.Equal(t, ModeSpeaking, h.c.Mode())

	h.sampler.s.A = false
	h.hold(290 * time.Millisecond)
	assert.Equal(t, ModeSpeaking, h.c.Mode())

	h.hold(20 * time.Millisecond)
	assert.Equal(t, ModeReady, h.c.Mode())
	assert.False(t, gen.Active())
}

func TestButtonAWithoutBuzzer(t *testing.T) {
	settings := DefaultSettings()
	settings.Features.Buzzer = false
	settings.ToneDuration = 200 * time.Millisecond
	h := newHarness(t, settings)
	h.tick(0)

	pressA(h)
	require.Equal(t, ModeSpeaking, h.c.Mode())
	assert.Zero(t, h.tone.startedN)

	h.tick(190 * time.Millisecond)
	assert.Equal(t, ModeSpeaking, h.c.Mode())
	h.tick(10 * time.Millisecond)
	assert.Equal(t, ModeReady, h.c.Mode())
}

func TestButtonAReleaseGated(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)

	pressA(h)
	h.tone.active = false
	h.hold(100 * time.Millisecond)
	require.Equal(t, ModeReady, h.c.Mode())

	// Still held: no second trigger
	h.hold(500 * time.Millisecond)
	assert.Equal(t, ModeReady, h.c.Mode())
	assert.Equal(t, 1, h.tone.startedN)

	h.sampler.s.A = false
	h.hold(100 * time.Millisecond)
	pressA(h)
	assert.Equal(t, ModeSpeaking, h.c.Mode())
	assert.Equal(t, 2, h.tone.startedN)
}

func TestMotionDuringSpeaking(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)
	pressA(h)
	h.sampler.s.A = false

	h.sampler.s.X = 2048 + 256
	h.tick(10 * time.Millisecond)

	assert.Equal(t, ModeSpeaking, h.c.Mode())
	assert.Equal(t, []mouse.Report{{DX: 2}}, h.emitter.reports)
}

func pressB(h *harness) {
	h.sampler.s.B = true
	h.tick(0)
	h.tick(100 * time.Millisecond)
}

func releaseB(h *harness) {
	h.sampler.s.B = false
	h.tick(10 * time.Millisecond)
	h.tick(100 * time.Millisecond)
}

func TestButtonBListening(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)
	h.mic.level = 3000

	pressB(h)
	assert.Equal(t, ModeListening, h.c.Mode())
	assert.Equal(t, "Ouvindo", h.screen.status)

	h.hold(200 * time.Millisecond)
	assert.Equal(t, ModeListening, h.c.Mode())

	releaseB(h)
	assert.Equal(t, ModeReady, h.c.Mode())
	assert.Equal(t, "Aguardando", h.screen.status)
}

func TestButtonBPrompt(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)
	h.mic.level = ListenThreshold

	pressB(h)
	assert.Equal(t, ModeReady, h.c.Mode())
	assert.Equal(t, "Pronto pra ouvir", h.screen.status)

	releaseB(h)
	assert.Equal(t, "Aguardando", h.screen.status)
}

func TestButtonBBeacon(t *testing.T) {
	settings := DefaultSettings()
	settings.Features = Features{Passthrough: true}
	h := newHarness(t, settings)
	h.tick(0)

	pressB(h)
	assert.Equal(t, "Mensagem para smartphone\n", h.pass.String())
	assert.Equal(t, "Mensagem enviada", h.screen.status)

	h.hold(300 * time.Millisecond)
	assert.Equal(t, "Mensagem para smartphone\n", h.pass.String())

	releaseB(h)
	assert.Equal(t, "Aguardando", h.screen.status)
}

func TestButtonBIgnoredWhileSpeaking(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)
	pressA(h)
	h.mic.level = 4000

	pressB(h)

	assert.Equal(t, ModeSpeaking, h.c.Mode())
}

func TestBannerClearedOnModeChange(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)

	h.c.PushText("Oi")
	assert.Equal(t, "Oi", h.screen.banner)

	h.tick(10 * time.Millisecond)
	assert.Equal(t, "Oi", h.screen.banner)

	h.sampler.s.X = 4000
	h.tick(10 * time.Millisecond)
	assert.Empty(t, h.screen.banner)
}

func TestApplyConfig(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	var applied []Settings
	h.c.deps.OnApply = func(s Settings) { applied = append(applied, s) }
	h.tick(0)

	cfg := config.Default()
	cfg.Set(config.FlagInvertX, true)
	cfg.Divisor = 64
	h.c.ApplyConfig(&cfg)

	h.sampler.s.X = 2048 + 300
	h.tick(10 * time.Millisecond)

	assert.Equal(t, []mouse.Report{{DX: -4}}, h.emitter.reports)
	require.Len(t, applied, 1)
	assert.True(t, applied[0].X.Invert)
}

func TestApplyConfigStopsTone(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.tick(0)
	pressA(h)

	cfg := config.Default()
	h.c.ApplyConfig(&cfg)

	assert.Equal(t, ModeReady, h.c.Mode())
	assert.Equal(t, 1, h.tone.stopped)
}

func TestStatus(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.sampler.s.X = 4000
	h.tick(0)

	mode, sent, dropped := h.c.Status()

	assert.Equal(t, uint8(ModeInUse), mode)
	assert.Equal(t, uint32(1), sent)
	assert.Equal(t, uint32(3), dropped)
}

func TestScreenFailureIsNotFatal(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.screen.err = errors.New("nack")
	h.sampler.s.X = 4000

	h.tick(0)

	assert.Equal(t, ModeInUse, h.c.Mode())
	assert.Len(t, h.emitter.reports, 1)
}

func TestPollersServiced(t *testing.T) {
	p := &countingPoller{}
	c := New(Deps{
		Sampler: &fakeSampler{s: input.Sample{X: 2048, Y: 2048}},
		Emitter: &fakeEmitter{mounted: true},
		Pollers: []Poller{p},
	}, DefaultSettings())

	c.Tick(time.Unix(0, 0))
	c.Tick(time.Unix(0, 0))

	assert.Equal(t, 2, p.n)
}

func TestRunStopsOnCancel(t *testing.T) {
	c := New(Deps{
		Sampler: &fakeSampler{s: input.Sample{X: 2048, Y: 2048}},
		Emitter: &fakeEmitter{mounted: true},
	}, DefaultSettings())
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	ctx, cancel := context.WithCancel(context.Background())
	ticks := 0
	clock := func() time.Time {
		ticks++
		if ticks == 3 {
			cancel()
		}
		return time.Unix(0, 0)
	}

	err := c.Run(ctx, clock)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, ticks)
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 10 * time.Millisecond}, slept)
}

func TestSettingsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Flags = config.FlagPassthrough | config.FlagInvertY | config.FlagDebugDisplay
	cfg.LongPressMs = 800

	s := SettingsFromConfig(&cfg)

	assert.Equal(t, Features{Passthrough: true}, s.Features)
	assert.False(t, s.X.Invert)
	assert.True(t, s.Y.Invert)
	assert.True(t, s.DebugDisplay)
	assert.Equal(t, 800*time.Millisecond, s.LongPress)
	assert.Equal(t, 100*time.Millisecond, s.SettleB)
	assert.Equal(t, 2048, s.X.Center)
}

func TestDebugDisplayMirrorsReports(t *testing.T) {
	s := DefaultSettings()
	s.DebugDisplay = true
	h := newHarness(t, s)
	h.sampler.s.X = 2048 + 300

	h.tick(0)

	assert.Equal(t, "B:--- X:+2 Y:+0", h.monitor.in)
	assert.Equal(t, "N:1 D:3", h.monitor.out)

	h.sampler.s.X = 2048
	h.hold(50 * time.Millisecond)
	assert.Equal(t, 1, h.monitor.n)
}

func TestReportsNotMirroredByDefault(t *testing.T) {
	h := newHarness(t, DefaultSettings())
	h.sampler.s.X = 2048 + 300

	h.tick(0)

	require.Len(t, h.emitter.reports, 1)
	assert.Zero(t, h.monitor.n)
}

func TestModeText(t *testing.T) {
	assert.Equal(t, "Transcrevendo tela", ModeSpeaking.Text())
	assert.Equal(t, "USB desconectado", ModeDisconnected.Text())
	assert.Equal(t, "in-use", ModeInUse.String())
}
