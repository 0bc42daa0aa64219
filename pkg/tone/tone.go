// Package tone drives the feedback buzzer with short bursts of a slightly
// varying pitch. The generator never sleeps: it is advanced by Tick from the
// control loop.
package tone

import (
	"math/rand"
	"time"
)

// Burst shape and pitch range.
const (
	BurstOn  = 100 * time.Millisecond
	BurstOff = 50 * time.Millisecond

	MinFrequency = 680
	MaxFrequency = 720

	DefaultDuration = 5 * time.Second
)

// Output is a square wave source.
type Output interface {
	SetFrequency(hz uint32)
	On()
	Off()
}

type phase uint8

const (
	idle phase = iota
	sounding
	silent
)

// Generator plays bursts for a requested duration.
type Generator struct {
	out Output
	rnd *rand.Rand

	phase    phase
	start    time.Time
	until    time.Duration
	switchAt time.Time
	freq     uint32
}

// New creates a generator on out. seed fixes the pitch sequence.
func New(out Output, seed int64) *Generator {
	return &Generator{
		out: out,
		rnd: rand.New(rand.NewSource(seed)),
	}
}

// Start begins playing for d from now, replacing anything already playing.
func (g *Generator) Start(now time.Time, d time.Duration) {
	g.start = now
	g.until = d
	g.burst(now)
}

// Tick advances the burst sequence. It returns false once playback is over.
func (g *Generator) Tick(now time.Time) bool {
	switch g.phase {
	case sounding:
		if now.Before(g.switchAt) {
			return true
		}
		g.off()
		g.phase = silent
		g.switchAt = g.switchAt.Add(BurstOff)
		return true
	case silent:
		if now.Before(g.switchAt) {
			return true
		}
		// Bursts only begin inside the window; the last one may overrun it.
		if now.Sub(g.start) < g.until {
			g.burst(now)
			return true
		}
		g.phase = idle
		return false
	default:
		return false
	}
}

// Active reports whether playback is in progress.
func (g *Generator) Active() bool {
	return g.phase != idle
}

// Stop silences the output immediately.
func (g *Generator) Stop() {
	if g.phase == sounding {
		g.off()
	}
	g.phase = idle
}

func (g *Generator) burst(now time.Time) {
	if g.until <= 0 {
		g.Stop()
		return
	}
	g.freq = MinFrequency + uint32(g.rnd.Intn(MaxFrequency-MinFrequency+1))
	if g.out != nil {
		g.out.SetFrequency(g.freq)
		g.out.On()
	}
	g.phase = sounding
	g.switchAt = now.Add(BurstOn)
}

func (g *Generator) off() {
	if g.out != nil {
		g.out.Off()
	}
}
