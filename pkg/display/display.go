// Package display lays out the status screen: the system mode on the top
// row, pushed text in the middle and, when debugging, serial protocol
// activity on the bottom rows.
//
// Every update redraws the whole framebuffer and flushes it once. Unchanged
// content is not redrawn, so the control loop can call ShowStatus on every
// tick.
package display

import (
	"github.com/tuffrabit/tinygo-hiperperiferico/pkg/oled"
)

const (
	// Columns is how many glyphs fit on a row.
	Columns   = oled.Width / oled.Advance
	RowHeight = 8
	Rows      = oled.Height / RowHeight

	// Row assignments
	rowStatus    = 0
	rowBanner    = 2 // up to bannerRows lines
	bannerRows   = 3
	rowDetailIn  = 6
	rowDetailOut = 7
)

// Canvas is a monochrome framebuffer with text support.
// oled.Device satisfies it.
type Canvas interface {
	ClearBuffer()
	DrawText(s string, x, y int16)
	Display() error
}

// Manager owns the screen contents.
type Manager struct {
	canvas Canvas

	status    string
	banner    string
	detailIn  string
	detailOut string

	// stale forces a redraw after a failed flush
	stale bool
}

// NewManager creates a manager drawing on c. A nil canvas gives a manager
// that only tracks state, for boards without a screen.
func NewManager(c Canvas) *Manager {
	return &Manager{canvas: c, stale: true}
}

// ShowStatus puts text on the status row.
func (m *Manager) ShowStatus(text string) error {
	if text == m.status && !m.stale {
		return nil
	}
	m.status = text
	return m.render()
}

// Status returns the text on the status row.
func (m *Manager) Status() string {
	return m.status
}

// ShowBanner puts text under the status row, wrapped over up to three rows.
// An empty string clears it.
func (m *Manager) ShowBanner(text string) error {
	if text == m.banner && !m.stale {
		return nil
	}
	m.banner = text
	return m.render()
}

// Banner returns the text under the status row.
func (m *Manager) Banner() string {
	return m.banner
}

// ShowDetail puts two debug lines on the bottom rows.
func (m *Manager) ShowDetail(in, out string) error {
	if in == m.detailIn && out == m.detailOut && !m.stale {
		return nil
	}
	m.detailIn = in
	m.detailOut = out
	return m.render()
}

// ShowError puts an error message on the bottom rows.
func (m *Manager) ShowError(msg string) error {
	return m.ShowDetail("ERR:", msg)
}

func (m *Manager) render() error {
	if m.canvas == nil {
		m.stale = false
		return nil
	}

	m.canvas.ClearBuffer()
	m.drawRow(rowStatus, truncate(m.status, Columns))
	for i, line := range wrap(m.banner, Columns, bannerRows) {
		m.drawRow(rowBanner+i, line)
	}
	if m.detailIn != "" || m.detailOut != "" {
		m.drawRow(rowDetailIn, truncate(m.detailIn, Columns))
		m.drawRow(rowDetailOut, truncate(m.detailOut, Columns))
	}

	if err := m.canvas.Display(); err != nil {
		m.stale = true
		return err
	}
	m.stale = false
	return nil
}

func (m *Manager) drawRow(row int, s string) {
	if s == "" {
		return
	}
	m.canvas.DrawText(s, 0, int16(row*RowHeight))
}

// truncate limits a string to maxLen characters, adding ".." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 2 {
		return s[:maxLen]
	}
	return s[:maxLen-2] + ".."
}

// wrap splits s into at most rows lines of width characters. The last line
// is truncated if s does not fit.
func wrap(s string, width, rows int) []string {
	var lines []string
	for len(s) > 0 && len(lines) < rows {
		if len(s) <= width {
			lines = append(lines, s)
			break
		}
		if len(lines) == rows-1 {
			lines = append(lines, truncate(s, width))
			break
		}
		lines = append(lines, s[:width])
		s = s[width:]
	}
	return lines
}
